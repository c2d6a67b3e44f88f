// Package docs holds the OpenAPI document of the content upgrade service.
//
// It is regenerated from the annotations in cmd/swagger_docs.go with
//
//	swag init -g cmd/swagger_docs.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health check",
                "responses": {"200": {"description": "status: healthy"}}
            }
        },
        "/v1/api/action": {
            "post": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "description": "Execute one or more content-upgrade or content-plan tasks. Multipart requests carry the JSON request in the \"request\" field and may attach task_<n>_content files.",
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Upgrade"],
                "summary": "Execute content upgrade tasks",
                "parameters": [
                    {"description": "Upgrade request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.UpgradeRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-task results", "schema": {"$ref": "#/definitions/operations.BatchResult"}},
                    "400": {"description": "Invalid request"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/v1/api/upgrade": {
            "post": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Upgrade"],
                "summary": "Upgrade one content document",
                "parameters": [
                    {"description": "Content envelope", "name": "content", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.ContentEnvelope"}}
                ],
                "responses": {
                    "200": {"description": "Upgrade result"},
                    "400": {"description": "Invalid envelope"},
                    "422": {"description": "Unknown content type or failed step"}
                }
            }
        },
        "/v1/api/plan": {
            "get": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Upgrade"],
                "summary": "List pending upgrade steps",
                "parameters": [
                    {"type": "string", "description": "Content type machine name", "name": "contentType", "in": "query", "required": true},
                    {"type": "string", "description": "Current version", "name": "from", "in": "query", "required": true},
                    {"type": "string", "description": "Target version", "name": "to", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Pending steps"},
                    "400": {"description": "Invalid version"},
                    "422": {"description": "Unknown content type"}
                }
            }
        },
        "/v1/api/content-types": {
            "get": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Upgrade"],
                "summary": "List supported content types",
                "responses": {"200": {"description": "Content types"}}
            }
        },
        "/v1/api/journal/sessions": {
            "get": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Journal"],
                "summary": "List finished sessions of a day",
                "parameters": [
                    {"type": "string", "name": "date", "in": "query"},
                    {"type": "string", "name": "user", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "Sessions"}}
            }
        },
        "/v1/api/journal/active": {
            "get": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Journal"],
                "summary": "Get active upgrade sessions",
                "responses": {"200": {"description": "Active sessions"}}
            }
        },
        "/v1/api/journal/session/{id}": {
            "get": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Journal"],
                "summary": "Get upgrade session details",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Session"}, "404": {"description": "Session not found"}}
            }
        },
        "/v1/api/journal/summary/{date}": {
            "get": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Journal"],
                "summary": "Get daily upgrade summary",
                "parameters": [{"type": "string", "description": "Date (YYYY-MM-DD)", "name": "date", "in": "path", "required": true}],
                "responses": {"200": {"description": "Summary"}}
            }
        },
        "/v1/api/journal/stats": {
            "get": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Journal"],
                "summary": "Get upgrade statistics",
                "parameters": [{"type": "integer", "description": "Days including today", "name": "days", "in": "query"}],
                "responses": {"200": {"description": "Statistics"}}
            }
        },
        "/v1/api/journal/rotate": {
            "post": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "description": "Admin only",
                "produces": ["application/json"],
                "tags": ["Journal"],
                "summary": "Archive old daily summaries",
                "responses": {"200": {"description": "Rotation result"}, "403": {"description": "Admin access required"}}
            }
        }
    },
    "definitions": {
        "domain.ContentEnvelope": {
            "type": "object",
            "required": ["contentType", "version"],
            "properties": {
                "contentType": {"type": "string", "example": "H5P.InteractiveBook"},
                "version": {"type": "string", "example": "1.5"},
                "targetVersion": {"type": "string", "example": "1.8"},
                "params": {"type": "object", "additionalProperties": true},
                "extras": {"type": "object", "additionalProperties": true}
            }
        },
        "domain.Task": {
            "type": "object",
            "required": ["action", "content"],
            "properties": {
                "action": {"type": "string", "enum": ["content-upgrade", "content-plan"]},
                "content": {"$ref": "#/definitions/domain.ContentEnvelope"}
            }
        },
        "domain.UpgradeRequest": {
            "type": "object",
            "required": ["version", "tasks"],
            "properties": {
                "version": {"type": "string", "example": "v1"},
                "tasks": {"type": "array", "items": {"$ref": "#/definitions/domain.Task"}}
            }
        },
        "operations.TaskResult": {
            "type": "object",
            "properties": {
                "index": {"type": "integer"},
                "action": {"type": "string"},
                "status": {"type": "string"},
                "result": {"type": "object", "additionalProperties": true},
                "error": {"type": "string"},
                "error_type": {"type": "string"}
            }
        },
        "operations.BatchResult": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "status": {"type": "string", "enum": ["success", "partial", "failed"]},
                "version": {"type": "string"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/operations.TaskResult"}}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "x-api-key", "in": "header"},
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Content Upgrade Service API",
	Description:      "Upgrades stored interactive content documents to the current schema version of their content type.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
