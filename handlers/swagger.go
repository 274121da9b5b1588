package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>htmlhost API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "htmlhost", "version": "v1.0.0" },
  "components": {
    "securitySchemes": {
      "cookie": { "type": "apiKey", "in": "cookie", "name": "session" },
      "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" }
    },
    "schemas": {
      "Error": { "type": "object", "properties": { "error": {"type":"string"}, "code": {"type":"string"}, "requestId": {"type":"string"} } },
      "Summary": { "type": "object", "properties": { "slug": {"type":"string"}, "title": {"type":"string"}, "created": {"type":"string","format":"date-time"} } }
    }
  },
  "security": [ { "cookie": [] }, { "bearer": [] } ],
  "paths": {
    "/auth/login": {
      "post": {
        "summary": "Sign in and receive the session cookie",
        "security": [],
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["username","password"],"properties":{"username":{"type":"string"},"password":{"type":"string"}}}}}},
        "responses": { "200": { "description": "session issued" }, "401": { "description": "invalid credentials" } }
      }
    },
    "/auth/logout": {
      "post": { "summary": "Revoke the session and clear the cookie", "security": [], "responses": { "200": { "description": "logged out" } } }
    },
    "/auth/me": {
      "get": { "summary": "Current user", "responses": { "200": { "description": "username" }, "401": { "description": "no valid session" } } }
    },
    "/api/documents": {
      "get": { "summary": "List documents, newest first", "responses": { "200": { "description": "summaries", "content": { "application/json": { "schema": { "type":"array", "items": { "$ref": "#/components/schemas/Summary" } } } } } } }
    },
    "/api/documents/upload": {
      "post": {
        "summary": "Create a document; the slug is derived from the title",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["title","content"],"properties":{"title":{"type":"string"},"content":{"type":"string"}}}}}},
        "responses": { "201": { "description": "created" }, "400": { "description": "invalid input or title" }, "409": { "description": "slug already in use" } }
      }
    },
    "/api/documents/get/{slug}": {
      "get": {
        "summary": "Fetch a document",
        "parameters": [ { "name": "slug", "in": "path", "required": true, "schema": {"type":"string"} } ],
        "responses": { "200": { "description": "title, content, slug" }, "404": { "description": "not found" } }
      }
    },
    "/api/documents/update": {
      "post": {
        "summary": "Edit a document; a changed title renames it, a missing slug creates it",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["slug","title","content"],"properties":{"slug":{"type":"string"},"title":{"type":"string"},"content":{"type":"string"}}}}}},
        "responses": { "200": { "description": "new slug" }, "400": { "description": "invalid input or title" }, "409": { "description": "target slug in use" } }
      }
    },
    "/api/documents/delete": {
      "post": {
        "summary": "Delete a document (JSON or form body)",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["slug"],"properties":{"slug":{"type":"string"}}}}, "application/x-www-form-urlencoded": { "schema": {"type":"object","properties":{"slug":{"type":"string"}}}}}},
        "responses": { "200": { "description": "success is true when a document was removed" } }
      }
    },
    "/view/{slug}": { "get": { "summary": "Public page framing the document", "security": [], "parameters": [ { "name": "slug", "in": "path", "required": true, "schema": {"type":"string"} } ], "responses": { "200": { "description": "HTML page" }, "404": { "description": "not found" } } } },
    "/raw/{slug}": { "get": { "summary": "Stored HTML as-is", "security": [], "parameters": [ { "name": "slug", "in": "path", "required": true, "schema": {"type":"string"} } ], "responses": { "200": { "description": "text/html" }, "404": { "description": "not found" } } } },
    "/health": { "get": { "summary": "Liveness check", "security": [], "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "security": [], "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "security": [], "responses": { "200": { "description": "metrics" } } } }
  }
}`
