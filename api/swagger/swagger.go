package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CampusKona Timetable API",
        "description": "Timetable generation core: constraint-driven search, genetic optimization and transactional apply",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetable", "description": "Generation run lifecycle"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/timetable/runs": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List generation runs for a term",
                "parameters": [
                    {"name": "termId", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Timetable"],
                "summary": "Start a timetable generation run",
                "description": "Validates the scope, records a draft run and queues the search. Poll the run until it reaches COMPLETED or FAILED.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateRunRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Overlapping scope is already generating"},
                    "422": {"description": "Config invalid or infeasible"}
                }
            }
        },
        "/timetable/runs/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get one generation run",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/timetable/runs/{id}/apply": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Commit a completed run to the live timetable",
                "description": "Replaces the live class and teacher views for the run's sections in one transaction and stores a rollback snapshot.",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Run already applied or scope conflict"},
                    "412": {"description": "Run is not in a completed state"}
                }
            }
        },
        "/timetable/runs/{id}/rollback": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Restore the schedule an applied run replaced",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Restored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Run has no restorable snapshot"}
                }
            }
        },
        "/timetable/runs/{id}/analyze": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Quality report for a run's schedule",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Run has no schedule to analyze"}
                }
            }
        },
        "/timetable/runs/{id}/export": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Download a run's schedule as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "412": {"description": "Export disabled or run has no schedule"}
                }
            }
        }
    },
    "definitions": {
        "GenerateRunRequest": {
            "type": "object",
            "required": ["termId", "sectionIds", "workingDays"],
            "properties": {
                "termId": {"type": "string"},
                "sectionIds": {"type": "array", "items": {"type": "string"}},
                "workingDays": {"type": "array", "items": {"type": "string"}},
                "populationSize": {"type": "integer"},
                "generations": {"type": "integer"},
                "constraintWeights": {"type": "object", "additionalProperties": {"type": "number"}},
                "timeBudget": {"type": "string"}
            }
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
