// Package main Trend Aggregator API
//
// Trend Aggregator combines content from multiple external feeds, removes
// cross-source duplicates, scores items against weighted keyword categories
// and detects trending, viral and crisis topics over rolling time windows.
//
//	Schemes: http, https
//	Host: localhost:8080
//	BasePath: /api/v1
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package docs

import "github.com/swaggo/swag"

// @title Trend Aggregator API
// @version 1.0
// @description Cross-source content aggregation with trend and crisis detection

// @host localhost:8080
// @BasePath /api/v1

func init() {
	swag.Register(swag.Name, &swag.Spec{
		InfoInstanceName: "swagger",
		SwaggerTemplate:  docTemplate,
	})
}

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Trend Aggregator API",
        "description": "Cross-source content aggregation with trend and crisis detection",
        "version": "1.0.0"
    },
    "host": "localhost:8080",
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "consumes": ["application/json"],
    "produces": ["application/json"],
    "paths": {
        "/health": {
            "get": {
                "description": "Health check endpoint",
                "summary": "Health Check",
                "operationId": "healthCheck",
                "responses": {
                    "200": {
                        "description": "Service is healthy"
                    }
                }
            }
        },
        "/pipeline/run": {
            "post": {
                "description": "Runs one full pipeline cycle: fetch, score, deduplicate, analyze",
                "summary": "Force a pipeline run",
                "operationId": "runPipeline",
                "responses": {
                    "200": {
                        "description": "Structured cycle result"
                    },
                    "409": {
                        "description": "A cycle is already in flight"
                    }
                }
            }
        },
        "/pipeline/status": {
            "get": {
                "description": "Reports scheduler state, run counters and per-provider availability",
                "summary": "Scheduler status",
                "operationId": "getStatus",
                "responses": {
                    "200": {
                        "description": "Scheduler status snapshot"
                    }
                }
            }
        },
        "/trends": {
            "get": {
                "description": "Current trending topics; cached for the configured validity window unless force=true",
                "summary": "Trending topics",
                "operationId": "getTrends",
                "parameters": [
                    {
                        "name": "force",
                        "in": "query",
                        "description": "Bypass the analysis cache",
                        "type": "boolean"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Full analysis result"
                    }
                }
            }
        },
        "/trends/history": {
            "get": {
                "description": "Topic history summaries, optionally filtered by keyword",
                "summary": "Topic history",
                "operationId": "getTopicHistory",
                "parameters": [
                    {
                        "name": "keyword",
                        "in": "query",
                        "description": "Keyword substring filter",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Topic history list"
                    }
                }
            }
        },
        "/content/{type}": {
            "get": {
                "description": "Cached content for one provider type",
                "summary": "Provider content",
                "operationId": "getContent",
                "parameters": [
                    {
                        "name": "type",
                        "in": "path",
                        "description": "Provider type (news, social, events)",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Content items"
                    },
                    "404": {
                        "description": "No content cached for this type"
                    }
                }
            }
        },
        "/crisis": {
            "get": {
                "description": "Items whose item-level crisis score meets min_score",
                "summary": "Crisis content",
                "operationId": "getCrisisContent",
                "parameters": [
                    {
                        "name": "min_score",
                        "in": "query",
                        "description": "Minimum crisis score in [0,1]",
                        "type": "number"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Ranked crisis items"
                    }
                }
            }
        },
        "/keywords/{category}": {
            "post": {
                "description": "Adds terms to a keyword category, creating it when unknown",
                "summary": "Add keywords",
                "operationId": "addKeywords",
                "parameters": [
                    {
                        "name": "category",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Keywords added"
                    },
                    "400": {
                        "description": "Validation error"
                    }
                }
            }
        }
    }
}`
