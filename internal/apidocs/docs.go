// Package apidocs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o internal/apidocs
package apidocs

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
        "/upload": {
            "post": {
                "description": "Upload exactly one image (max 20MB by default) in the multipart field \"file\". The returned key identifies the converted object to poll for.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["upload"],
                "summary": "Upload an image",
                "parameters": [
                    {"type": "file", "description": "Image to upload", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "Stored", "schema": {"$ref": "#/definitions/domain.UploadResult"}},
                    "400": {"description": "Missing file, wrong type, too large or malformed body", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "500": {"description": "Storage write failed", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/converted": {
            "get": {
                "description": "Probe the converted namespace once for the given upload key",
                "produces": ["application/json"],
                "tags": ["conversion"],
                "summary": "Check for a converted object",
                "parameters": [
                    {"type": "string", "description": "Upload key returned by POST /upload", "name": "key", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "Probe result", "schema": {"$ref": "#/definitions/domain.ConversionStatus"}},
                    "400": {"description": "Missing key", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "502": {"description": "Probe failed", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/converted/wait": {
            "get": {
                "description": "Poll the converted namespace on a fixed interval until the object appears or the attempt budget is spent",
                "produces": ["application/json"],
                "tags": ["conversion"],
                "summary": "Wait for a converted object",
                "parameters": [
                    {"type": "string", "description": "Upload key returned by POST /upload", "name": "key", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "Converted object found", "schema": {"$ref": "#/definitions/domain.ConversionResult"}},
                    "400": {"description": "Missing key", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "504": {"description": "Conversion timed out", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        }
    },
    "definitions": {
        "domain.ConversionResult": {
            "type": "object",
            "properties": {
                "attempts": {"type": "integer"},
                "key": {"type": "string"},
                "url": {"type": "string"}
            }
        },
        "domain.ConversionStatus": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "ready": {"type": "boolean"},
                "url": {"type": "string"}
            }
        },
        "domain.UploadResult": {
            "type": "object",
            "properties": {
                "key": {"type": "string", "example": "1718000000000-portrait.jpg"},
                "originalname": {"type": "string", "example": "portrait.jpg"},
                "url": {"type": "string", "example": "https://photopass-uploads.s3.ap-south-1.amazonaws.com/1718000000000-portrait.jpg"}
            }
        },
        "handler.ErrorResponseBody": {
            "type": "object",
            "properties": {
                "details": {"type": "string", "example": "content type \"application/pdf\" is not an image type"},
                "error": {"type": "string", "example": "Only image files are allowed!"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "PhotoPass API",
	Description:      "Upload portrait images and poll for their converted passport photos.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
