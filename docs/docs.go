// Package docs registers the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/health": {
            "get": {"tags": ["system"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}
        },
        "/auth/sign-in": {
            "post": {
                "tags": ["auth"], "summary": "Sign in",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/credentials"}}],
                "responses": {"200": {"description": "token"}, "400": {"description": "bad body"}, "401": {"description": "invalid credentials"}}
            }
        },
        "/api/v1/functions/{name}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["device"], "summary": "Call a device function",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "name", "required": true, "type": "string",
                     "enum": ["measure-now", "set-verbose-mode", "set-upper-temp-limit", "set-lower-temp-limit", "set-upper-humidity-limit", "set-lower-humidity-limit", "set-keep-alive", "set-alternate-carrier-mode"]},
                    {"in": "body", "name": "body", "schema": {"$ref": "#/definitions/coldchain_logger.FunctionCall"}}
                ],
                "responses": {
                    "200": {"description": "accepted", "schema": {"$ref": "#/definitions/coldchain_logger.FunctionResult"}},
                    "400": {"description": "rejected", "schema": {"$ref": "#/definitions/coldchain_logger.FunctionResult"}},
                    "404": {"description": "unknown function", "schema": {"$ref": "#/definitions/coldchain_logger.FunctionResult"}}
                }
            }
        },
        "/api/v1/variables": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["device"], "summary": "List telemetry variables", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/variables/{name}": {
            "get": {
                "security": [{"BearerAuth": []}], "tags": ["device"], "summary": "Read one telemetry variable", "produces": ["application/json"],
                "parameters": [{"in": "path", "name": "name", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "unknown variable"}}
            }
        },
        "/api/v1/devices/{id}/hook-response": {
            "post": {
                "security": [{"BearerAuth": []}], "tags": ["device"], "summary": "Deliver the reporting endpoint's response",
                "consumes": ["text/plain"], "produces": ["application/json"],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}, {"in": "body", "name": "body", "required": true, "schema": {"type": "string"}}],
                "responses": {"200": {"description": "accepted flag"}, "404": {"description": "unknown device"}}
            }
        },
        "/api/v1/link": {
            "put": {
                "security": [{"BearerAuth": []}], "tags": ["device"], "summary": "Raise or drop the simulated cloud link",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/coldchain_logger.LinkRequest"}}],
                "responses": {"200": {"description": "connected flag"}}
            }
        },
        "/api/v1/events": {
            "get": {
                "security": [{"BearerAuth": []}], "tags": ["events"], "summary": "List published events", "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "from", "type": "string"},
                    {"in": "query", "name": "to", "type": "string"},
                    {"in": "query", "name": "name", "type": "string"}
                ],
                "responses": {"200": {"description": "count, events"}, "400": {"description": "bad range"}}
            }
        }
    },
    "definitions": {
        "credentials": {
            "type": "object", "required": ["username", "password"],
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "coldchain_logger.FunctionCall": {
            "type": "object", "properties": {"arg": {"type": "string", "example": "35.5"}}
        },
        "coldchain_logger.FunctionResult": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "return_value": {"type": "integer"}, "error": {"type": "string"}}
        },
        "coldchain_logger.LinkRequest": {
            "type": "object", "required": ["connected"], "properties": {"connected": {"type": "boolean"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Cold-chain logger API",
	Description:      "Remote functions, telemetry and the published-event journal of one logger.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
