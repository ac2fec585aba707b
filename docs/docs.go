// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

// Package docs registers the OpenAPI document served at /swagger/doc.json.
// The document is maintained by hand; keep it in sync with the router.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "AGPL-3.0-or-later",
            "url": "https://www.gnu.org/licenses/agpl-3.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/recommendations/": {
            "post": {
                "tags": ["recommendations"],
                "summary": "Run the sentiment-plus-recommendation workflow",
                "description": "Analyzes the comment, then recommends similar products weighted by the resulting sentiment. With async_processing=true the workflow is queued and a task id is returned.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecommendationRequest"}}],
                "responses": {
                    "200": {"description": "workflow result"},
                    "202": {"description": "task queued", "schema": {"$ref": "#/definitions/TaskAccepted"}},
                    "400": {"description": "validation error", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/recommendations/direct": {
            "post": {
                "tags": ["recommendations"],
                "summary": "Recommend with a caller-provided sentiment score",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DirectRequest"}}],
                "responses": {
                    "200": {"description": "recommendation result"},
                    "400": {"description": "validation error", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/recommendations/vehicles": {
            "get": {
                "tags": ["recommendations"],
                "summary": "Vehicle recommendation shortcut",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "product_id", "in": "query", "required": true, "type": "string"},
                    {"name": "client_id", "in": "query", "type": "string"},
                    {"name": "sentiment_score", "in": "query", "type": "number"},
                    {"name": "top_k", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "recommendation result"}}
            }
        },
        "/recommendations/livreurs": {
            "get": {
                "tags": ["recommendations"],
                "summary": "Courier recommendation shortcut",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "product_id", "in": "query", "required": true, "type": "string"},
                    {"name": "client_id", "in": "query", "type": "string"},
                    {"name": "sentiment_score", "in": "query", "type": "number"},
                    {"name": "top_k", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "recommendation result"}}
            }
        },
        "/sentiment/analyze": {
            "post": {
                "tags": ["sentiment"],
                "summary": "Analyze one comment",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SentimentRequest"}}],
                "responses": {"200": {"description": "sentiment score, label and confidence"}}
            }
        },
        "/sentiment/analyze/async": {
            "post": {
                "tags": ["sentiment"],
                "summary": "Queue a comment analysis",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SentimentRequest"}}],
                "responses": {"202": {"description": "task queued", "schema": {"$ref": "#/definitions/TaskAccepted"}}}
            }
        },
        "/sentiment/batch": {
            "post": {
                "tags": ["sentiment"],
                "summary": "Analyze up to 100 comments in order",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {"200": {"description": "results and count"}}
            }
        },
        "/tasks/{id}": {
            "get": {
                "tags": ["tasks"],
                "summary": "Poll a task's status",
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "task status; result and error appear once terminal"},
                    "404": {"description": "unknown or expired task", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            },
            "delete": {
                "tags": ["tasks"],
                "summary": "Revoke a task that has not started",
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "task revoked"},
                    "409": {"description": "task already started or finished", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/tasks/{id}/result": {
            "get": {
                "tags": ["tasks"],
                "summary": "Fetch a finished task's result",
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "task result payload"},
                    "404": {"description": "task unknown or not finished", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/tasks/ws": {
            "get": {
                "tags": ["tasks"],
                "summary": "Subscribe to the websocket task feed",
                "responses": {"101": {"description": "switching protocols"}}
            }
        },
        "/livreurs/rank": {
            "post": {
                "tags": ["couriers"],
                "summary": "Rank candidate couriers for a delivery announcement",
                "description": "Filters candidates through the elliptical delivery zone, then scores survivors with urgency-specific AHP weights and TOPSIS. include_details=true attaches per-criterion scoring detail.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "include_details", "in": "query", "type": "boolean"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CourierRankRequest"}}
                ],
                "responses": {
                    "200": {"description": "ranked couriers with metadata and warnings"},
                    "400": {"description": "validation error", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/livreurs/health": {
            "get": {
                "tags": ["couriers"],
                "summary": "Courier subsystem liveness",
                "responses": {"200": {"description": "ok"}}
            }
        },
        "/health/": {
            "get": {
                "tags": ["health"],
                "summary": "Per-dependency health report",
                "responses": {"200": {"description": "status, timestamp and per-service state"}}
            }
        },
        "/health/live": {
            "get": {"tags": ["health"], "summary": "Liveness probe", "responses": {"200": {"description": "alive"}}}
        },
        "/health/ready": {
            "get": {
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "ready"},
                    "503": {"description": "a dependency is down", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/admin/token": {
            "post": {
                "tags": ["admin"],
                "summary": "Exchange the shared admin secret for a bearer token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "access token, type and expiry"},
                    "401": {"description": "invalid secret", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/admin/vectorize": {
            "post": {
                "tags": ["admin"],
                "summary": "Queue a vector collection rebuild",
                "security": [{"AdminBearer": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {"202": {"description": "task queued", "schema": {"$ref": "#/definitions/TaskAccepted"}}}
            }
        },
        "/admin/cache/invalidate": {
            "post": {
                "tags": ["admin"],
                "summary": "Invalidate a product's cached recommendations",
                "security": [{"AdminBearer": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {"200": {"description": "entries removed"}}
            }
        },
        "/admin/collections/{type}": {
            "get": {
                "tags": ["admin"],
                "summary": "Inspect the vector collection for a product type",
                "security": [{"AdminBearer": []}],
                "produces": ["application/json"],
                "parameters": [{"name": "type", "in": "path", "required": true, "type": "string", "enum": ["vehicle", "livreur"]}],
                "responses": {"200": {"description": "collection name and point count"}}
            }
        }
    },
    "definitions": {
        "ErrorBody": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "detail": {},
                "status_code": {"type": "integer"}
            }
        },
        "TaskAccepted": {
            "type": "object",
            "properties": {
                "task_id": {"type": "string"},
                "status": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "RecommendationRequest": {
            "type": "object",
            "required": ["product_id", "client_id", "commentaire", "product_type"],
            "properties": {
                "product_id": {"type": "string"},
                "client_id": {"type": "string"},
                "commentaire": {"type": "string", "maxLength": 5000},
                "product_type": {"type": "string", "enum": ["vehicle", "livreur"]},
                "top_k": {"type": "integer", "minimum": 1, "maximum": 100},
                "async_processing": {"type": "boolean"},
                "skip_cache": {"type": "boolean"}
            }
        },
        "DirectRequest": {
            "type": "object",
            "required": ["product_id", "client_id", "product_type"],
            "properties": {
                "product_id": {"type": "string"},
                "client_id": {"type": "string"},
                "sentiment_score": {"type": "number", "minimum": -1, "maximum": 1},
                "product_type": {"type": "string", "enum": ["vehicle", "livreur"]},
                "top_k": {"type": "integer", "minimum": 1, "maximum": 100},
                "skip_cache": {"type": "boolean"}
            }
        },
        "SentimentRequest": {
            "type": "object",
            "required": ["commentaire"],
            "properties": {
                "commentaire": {"type": "string", "maxLength": 5000},
                "product_id": {"type": "string"},
                "product_type": {"type": "string", "enum": ["vehicle", "livreur"]},
                "client_id": {"type": "string"}
            }
        },
        "CourierRankRequest": {
            "type": "object",
            "required": ["annonce", "livreurs_candidats"],
            "properties": {
                "annonce": {"type": "object"},
                "livreurs_candidats": {"type": "array", "items": {"type": "object"}},
                "options": {"type": "object"}
            }
        }
    },
    "securityDefinitions": {
        "AdminBearer": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Commendo API",
	Description:      "Sentiment-driven product recommendations and multi-criteria courier ranking.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
