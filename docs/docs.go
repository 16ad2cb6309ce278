// Package docs registers the OpenAPI description served under /swagger.
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
    "securityDefinitions": {
        "AdminToken": {"type": "apiKey", "in": "header", "name": "Authorization", "description": "Bearer token issued by kratu admin-token"}
    },
    "paths": {
        "/health": {
            "get": {"produces": ["application/json"], "tags": ["system"], "summary": "Service health", "responses": {"200": {"description": "OK"}}}
        },
        "/signals": {
            "get": {"produces": ["application/json"], "tags": ["signals"], "summary": "List signal definitions", "responses": {"200": {"description": "OK"}}}
        },
        "/widgets": {
            "get": {"produces": ["application/json"], "tags": ["widgets"], "summary": "List widgets", "responses": {"200": {"description": "OK"}}},
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["widgets"],
                "summary": "Create a widget",
                "parameters": [{"in": "body", "name": "request", "schema": {"$ref": "#/definitions/CreateWidgetRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/widgets/{id}": {
            "get": {"produces": ["application/json"], "tags": ["widgets"], "summary": "Get a widget", "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["widgets"], "summary": "Destroy a widget", "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}], "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}}
        },
        "/widgets/{id}/ranking": {
            "get": {"produces": ["application/json"], "tags": ["widgets"], "summary": "Score and rank entities", "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/widgets/{id}/cells/{entity}/{signal}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["widgets"],
                "summary": "Format one cell",
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "path", "name": "entity", "required": true, "type": "string"},
                    {"in": "path", "name": "signal", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/widgets/{id}/headers/{signal}/{event}": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["widgets"],
                "summary": "Dispatch a header event",
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "path", "name": "signal", "required": true, "type": "string"},
                    {"in": "path", "name": "event", "required": true, "type": "string"},
                    {"in": "body", "name": "request", "schema": {"$ref": "#/definitions/HeaderEventRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "429": {"description": "Too Many Requests"}}
            }
        },
        "/widgets/{id}/snapshots": {
            "post": {"produces": ["application/json"], "tags": ["snapshots"], "summary": "Store the current ranking", "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}], "responses": {"201": {"description": "Created"}}}
        },
        "/snapshots": {
            "get": {
                "produces": ["application/json"],
                "tags": ["snapshots"],
                "summary": "List stored rankings",
                "parameters": [
                    {"in": "query", "name": "dataset", "type": "string"},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/snapshots/{id}": {
            "get": {"produces": ["application/json"], "tags": ["snapshots"], "summary": "Get a stored ranking", "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["snapshots"], "summary": "Delete a stored ranking", "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}], "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}}
        },
        "/admin/ratelimit": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Reset header event limits of every client",
                "security": [{"AdminToken": []}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/admin/ratelimit/{ip}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Reset the header event limit of one client",
                "security": [{"AdminToken": []}],
                "parameters": [{"in": "path", "name": "ip", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/admin/cache": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Flush the response and snapshot cache",
                "security": [{"AdminToken": []}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/ratelimit/status": {
            "get": {"produces": ["application/json"], "tags": ["system"], "summary": "Header event limit of the caller", "responses": {"200": {"description": "OK"}}}
        },
        "/stats": {
            "get": {"produces": ["application/json"], "tags": ["system"], "summary": "Backend resource statistics", "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "CreateWidgetRequest": {
            "type": "object",
            "properties": {
                "dataset": {"type": "string"},
                "entities": {"type": "array", "items": {"type": "object"}},
                "disable": {"type": "array", "items": {"type": "string"}},
                "weights": {"type": "object", "additionalProperties": {"type": "number"}}
            }
        },
        "HeaderEventRequest": {
            "type": "object",
            "properties": {
                "weight": {"type": "number"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Kratu API",
	Description:      "Signal registry, weighted scoring and ranking of tabular datasets.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
