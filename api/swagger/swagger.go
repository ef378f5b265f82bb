package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "RFC Errata API",
        "description": "Errata reporting, screening and verification for published RFCs",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Errata", "description": "Public search and verifier operations"},
        {"name": "Staged", "description": "Report entry and RPC screening"},
        {"name": "RFCs", "description": "RFC metadata"},
        {"name": "Export", "description": "Corpus export and snapshots"},
        {"name": "Auth", "description": "Authentication"}
    ],
    "paths": {
        "/errata": {
            "get": {
                "tags": ["Errata"],
                "summary": "Search errata",
                "parameters": [
                    {"name": "rfc_number", "in": "query", "type": "integer"},
                    {"name": "errata_id", "in": "query", "type": "integer"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "errata_type", "in": "query", "type": "string"},
                    {"name": "area", "in": "query", "type": "string"},
                    {"name": "wg_acronym", "in": "query", "type": "string"},
                    {"name": "submitter_name", "in": "query", "type": "string"},
                    {"name": "stream", "in": "query", "type": "string"},
                    {"name": "date", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/errata/{id}": {
            "get": {
                "tags": ["Errata"],
                "summary": "Get one erratum with metadata and history",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/queue": {
            "get": {
                "tags": ["Errata"],
                "summary": "Reported errata within the caller's jurisdiction",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/errata/{id}/classify": {
            "post": {
                "tags": ["Errata"],
                "summary": "Classify a reported erratum",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ClassifyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found or out of jurisdiction"},
                    "412": {"description": "Already classified"}
                }
            }
        },
        "/staged": {
            "post": {
                "tags": ["Staged"],
                "summary": "Open a new errata report entry",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStagedRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staged/{id}": {
            "get": {
                "tags": ["Staged"],
                "summary": "Get a report entry for screening",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Staged"],
                "summary": "Update an incomplete report entry",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Already submitted"}
                }
            },
            "delete": {
                "tags": ["Staged"],
                "summary": "Reject a report entry at screening",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/staged/{id}/submit": {
            "post": {
                "tags": ["Staged"],
                "summary": "Submit a report entry for screening",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Already submitted"}
                }
            }
        },
        "/staged/{id}/convert": {
            "post": {
                "tags": ["Staged"],
                "summary": "Convert a submitted report entry into an erratum",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConvertStagedRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Not submitted or already converted"}
                }
            }
        },
        "/rfcs/{number}": {
            "get": {
                "tags": ["RFCs"],
                "summary": "Get metadata for one RFC",
                "parameters": [
                    {"name": "number", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["RFCs"],
                "summary": "Insert or replace metadata for one RFC",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "number", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/errata.json": {
            "get": {
                "tags": ["Export"],
                "summary": "Full errata corpus in the legacy errata.json shape",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/snapshots": {
            "post": {
                "tags": ["Export"],
                "summary": "Write a corpus snapshot to storage",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/snapshots/download": {
            "get": {
                "tags": ["Export"],
                "summary": "Download a snapshot artifact via signed token",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and obtain an access token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current authenticated user",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "definitions": {
        "CreateStagedRequest": {
            "type": "object",
            "required": ["rfc_number", "submitter_name", "submitter_email"],
            "properties": {
                "rfc_number": {"type": "integer"},
                "section": {"type": "string"},
                "orig_text": {"type": "string"},
                "corrected_text": {"type": "string"},
                "submitter_name": {"type": "string"},
                "submitter_email": {"type": "string"},
                "notes": {"type": "string"},
                "formats": {"type": "array", "items": {"type": "string", "enum": ["HTML", "PDF", "TXT"]}}
            }
        },
        "ConvertStagedRequest": {
            "type": "object",
            "required": ["erratum_type"],
            "properties": {
                "erratum_type": {"type": "string", "enum": ["editorial", "technical"]}
            }
        },
        "ClassifyRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["verified", "rejected", "held_for_doc_update"]},
                "section": {"type": "string"},
                "orig_text": {"type": "string"},
                "corrected_text": {"type": "string"},
                "notes": {"type": "string"}
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
                "pagination": {"$ref": "#/definitions/Pagination"}
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
