package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Admin API",
        "description": "Timetable, roster and device administration for Vietnamese K-12 schools",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Subjects", "description": "Subject catalog"},
        {"name": "Teachers", "description": "Teacher roster"},
        {"name": "Classes", "description": "Class roster"},
        {"name": "Devices", "description": "Device inventory"},
        {"name": "Curricula", "description": "Curriculum and weekly quotas"},
        {"name": "Periods", "description": "Period definitions per school year"},
        {"name": "Timetables", "description": "Grid, display rows and Excel import"},
        {"name": "Exports", "description": "Asynchronous CSV/PDF exports"}
    ],
    "paths": {
        "/subjects": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List subjects",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Subjects"],
                "summary": "Create subject",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSubjectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects/catalog": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List the full subject catalog",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects/{id}": {
            "get": {
                "tags": ["Subjects"],
                "summary": "Get subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Subjects"],
                "summary": "Update subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSubjectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Subjects"],
                "summary": "Delete subject",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/periods": {
            "get": {
                "tags": ["Periods"],
                "summary": "List periods declared for a school year",
                "parameters": [
                    {"name": "school_id", "in": "query", "required": true, "type": "string"},
                    {"name": "school_year", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/periods/apply": {
            "post": {
                "tags": ["Periods"],
                "summary": "Reconcile the period set of a school year",
                "description": "Deletes run best effort per item; updates and creates run in order and stop at the first failure without rollback.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApplyDiffRequest"}}
                ],
                "responses": {
                    "200": {"description": "Applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "207": {"description": "Partially applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/grid": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Get the stored day/period grid of a class",
                "parameters": [
                    {"name": "school_year", "in": "query", "required": true, "type": "string"},
                    {"name": "class_id", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/rows": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Get normalized display rows",
                "description": "Duplicate period numbers are merged, rows sorted by start time. Falls back to grid keys, then a synthetic sequence, when no periods are declared.",
                "parameters": [
                    {"name": "school_id", "in": "query", "required": true, "type": "string"},
                    {"name": "school_year", "in": "query", "required": true, "type": "string"},
                    {"name": "class_id", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/entries": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Create or replace one timetable cell",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TimetableEntry"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/entries/{id}": {
            "delete": {
                "tags": ["Timetables"],
                "summary": "Delete one timetable cell",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "school_year", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/timetables/import": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Import a timetable workbook",
                "description": "Accepts .xlsx/.xls up to 5MB. Rows with unmatched subject names are dropped from the submission and reported.",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "school_id", "in": "formData", "required": true, "type": "string"},
                    {"name": "school_year", "in": "formData", "required": true, "type": "string"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Imported", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "No periods declared"},
                    "413": {"description": "File too large"},
                    "422": {"description": "No valid rows or no subjects resolved"}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Request a timetable export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Scheduled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Get export job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "CreateSubjectRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "UpdateSubjectRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "ApplyDiffRequest": {
            "type": "object",
            "properties": {
                "school_id": {"type": "string"},
                "school_year": {"type": "string"},
                "periods": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/PeriodInput"}
                }
            }
        },
        "PeriodInput": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "number": {"type": "integer"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "type": {"type": "string"},
                "label": {"type": "string"}
            }
        },
        "TimetableEntry": {
            "type": "object",
            "properties": {
                "school_year": {"type": "string"},
                "class_id": {"type": "string"},
                "day_of_week": {"type": "string"},
                "period_number": {"type": "integer"},
                "subject_id": {"type": "string"},
                "teacher_ids": {"type": "array", "items": {"type": "string"}},
                "room": {"type": "string"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "properties": {
                "school_id": {"type": "string"},
                "school_year": {"type": "string"},
                "class_id": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
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
