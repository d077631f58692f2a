package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CertPath API",
        "description": "Certification lifecycle tracking and SLA engine",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Processes", "description": "Certification process lifecycle"},
        {"name": "SLA", "description": "Per-stage deadline table"}
    ],
    "paths": {
        "/processes": {
            "get": {
                "tags": ["Processes"],
                "summary": "List processes with SLA badges",
                "parameters": [
                    {"name": "stage", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/process": {
            "post": {
                "tags": ["Processes"],
                "summary": "Open a certification process",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StartProcessRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Process already exists"}
                }
            },
            "get": {
                "tags": ["Processes"],
                "summary": "Process detail with timeline and SLA verdict",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/students/{id}/process/status": {
            "put": {
                "tags": ["Processes"],
                "summary": "Move a process to another stage",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Backward move without allow_regression"}
                }
            }
        },
        "/students/{id}/process/dates": {
            "put": {
                "tags": ["Processes"],
                "summary": "Retroactively correct stage timestamps",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateDatesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/process/notify": {
            "post": {
                "tags": ["Processes"],
                "summary": "Send the WhatsApp progress message",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NotifyRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/process/report": {
            "get": {
                "tags": ["Processes"],
                "summary": "Download the timeline report as PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF document"}
                }
            }
        },
        "/sla": {
            "get": {
                "tags": ["SLA"],
                "summary": "List SLA deadlines per stage",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["SLA"],
                "summary": "Update SLA deadlines",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSLARequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CertificationProcess": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "student_id": {"type": "string"},
                "current_stage": {"type": "string"},
                "wants_physical": {"type": "boolean"},
                "tracking_code": {"type": "string"},
                "welcome_at": {"type": "string"},
                "exam_in_progress_at": {"type": "string"},
                "documents_requested_at": {"type": "string"},
                "documents_under_review_at": {"type": "string"},
                "certifier_submission_at": {"type": "string"},
                "digital_certificate_sent_at": {"type": "string"},
                "physical_certificate_sent_at": {"type": "string"},
                "completed_at": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "TimelineEntry": {
            "type": "object",
            "properties": {
                "stage": {"type": "string"},
                "label": {"type": "string"},
                "state": {"type": "string", "enum": ["completed", "current", "upcoming"]},
                "timestamp": {"type": "string"}
            }
        },
        "SLAEvaluation": {
            "type": "object",
            "properties": {
                "stage": {"type": "string"},
                "status": {"type": "string", "enum": ["ok", "warning", "overdue", "none", "unknown"]},
                "days_elapsed": {"type": "integer"},
                "days_remaining": {"type": "integer"},
                "days_limit": {"type": "integer"},
                "warning_days": {"type": "integer"}
            }
        },
        "SLAConfig": {
            "type": "object",
            "properties": {
                "stage_id": {"type": "string"},
                "days_limit": {"type": "integer"},
                "warning_days": {"type": "integer"},
                "updated_by": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "StartProcessRequest": {
            "type": "object",
            "properties": {
                "wants_physical": {"type": "boolean"}
            }
        },
        "UpdateStatusRequest": {
            "type": "object",
            "properties": {
                "stage": {"type": "string"},
                "tracking_code": {"type": "string"},
                "date": {"type": "string"},
                "allow_regression": {"type": "boolean"}
            },
            "required": ["stage"]
        },
        "UpdateDatesRequest": {
            "type": "object",
            "properties": {
                "dates": {
                    "type": "object",
                    "additionalProperties": {"type": "string"}
                }
            },
            "required": ["dates"]
        },
        "NotifyRequest": {
            "type": "object",
            "properties": {
                "template": {"type": "string"}
            }
        },
        "UpdateSLARequest": {
            "type": "object",
            "properties": {
                "items": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/SLAConfigItem"}
                }
            },
            "required": ["items"]
        },
        "SLAConfigItem": {
            "type": "object",
            "properties": {
                "stage_id": {"type": "string"},
                "days_limit": {"type": "integer"},
                "warning_days": {"type": "integer"}
            },
            "required": ["stage_id"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
