package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates dashboard roles carried in access tokens.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleOperator   UserRole = "OPERATOR"
)

// JWTClaims represents the access-token payload issued by the upstream
// gateway. This service only reads it to attribute audit entries; it never
// issues tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
