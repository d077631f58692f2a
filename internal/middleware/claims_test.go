package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certpath/certpath-api/internal/models"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, secret string) string {
	t.Helper()
	claims := &models.JWTClaims{
		UserID: "admin-1",
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func claimsRouter(secret string) (*gin.Engine, *[]*models.JWTClaims) {
	gin.SetMode(gin.TestMode)
	var seen []*models.JWTClaims
	r := gin.New()
	r.GET("/protected", Claims(secret), func(c *gin.Context) {
		if value, ok := c.Get(ContextUserKey); ok {
			seen = append(seen, value.(*models.JWTClaims))
		}
		c.Status(http.StatusOK)
	})
	return r, &seen
}

func TestClaimsAcceptsValidToken(t *testing.T) {
	r, seen := claimsRouter(testSecret)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, *seen, 1)
	assert.Equal(t, "admin-1", (*seen)[0].UserID)
	assert.Equal(t, models.RoleAdmin, (*seen)[0].Role)
}

func TestClaimsRejectsMissingHeader(t *testing.T) {
	r, _ := claimsRouter(testSecret)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClaimsRejectsWrongSecret(t *testing.T) {
	r, _ := claimsRouter(testSecret)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "other-secret"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClaimsRejectsMalformedHeader(t *testing.T) {
	r, _ := claimsRouter(testSecret)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalClaimsPassesWithoutToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/open", OptionalClaims(testSecret), func(c *gin.Context) {
		_, ok := c.Get(ContextUserKey)
		assert.False(t, ok)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
