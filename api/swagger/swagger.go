package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Live Timetable API",
        "description": "Weekly overrides, absences, makeup classes and special events over locked schedules.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Timetable", "description": "Compiled weeks, live status and change stream"},
        {"name": "Overrides", "description": "Per-week reschedules and drag and drop moves"},
        {"name": "Absences", "description": "Faculty absences"},
        {"name": "Makeups", "description": "Makeup class requests"},
        {"name": "Special Events", "description": "Room-wide events that suspend classes"}
    ],
    "paths": {
        "/timetable/bundle": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Raw week bundle",
                "parameters": [
                    {"name": "schedule_id", "in": "query", "type": "string"},
                    {"name": "week_start", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Schedule not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/effective": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Compiled week",
                "parameters": [
                    {"name": "schedule_id", "in": "query", "type": "string"},
                    {"name": "week_start", "in": "query", "type": "string", "format": "date"},
                    {"name": "day", "in": "query", "type": "string"},
                    {"name": "room", "in": "query", "type": "string"},
                    {"name": "teacher", "in": "query", "type": "string"},
                    {"name": "section", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/live": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Session status at a moment",
                "parameters": [
                    {"name": "schedule_id", "in": "query", "type": "string"},
                    {"name": "at", "in": "query", "type": "string", "format": "date-time"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/export.pdf": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Export the compiled week as PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "schedule_id", "in": "query", "type": "string"},
                    {"name": "week_start", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "PDF document"}
                }
            }
        },
        "/timetable/changes": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Stream change notifications",
                "produces": ["text/event-stream"],
                "parameters": [
                    {"name": "schedule_id", "in": "query", "type": "string"},
                    {"name": "access_token", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Server-sent events"}
                }
            }
        },
        "/timetable/moves/propose": {
            "post": {
                "tags": ["Overrides"],
                "summary": "Check a drop target for conflicts",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoveRequest"}}
                ],
                "responses": {
                    "200": {"description": "Conflict report and prefill", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/moves/commit": {
            "post": {
                "tags": ["Overrides"],
                "summary": "Commit a move as an override",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CommitMoveRequest"}}
                ],
                "responses": {
                    "200": {"description": "Saved override", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Target slot occupied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/overrides": {
            "put": {
                "tags": ["Overrides"],
                "summary": "Save an override for one allocation week",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveOverrideRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Schedule not locked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Overrides"],
                "summary": "Reset every override of a week",
                "parameters": [
                    {"name": "schedule_id", "in": "query", "type": "string", "required": true},
                    {"name": "week_start", "in": "query", "type": "string", "format": "date", "required": true}
                ],
                "responses": {
                    "200": {"description": "Removed count", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/overrides/{id}": {
            "delete": {
                "tags": ["Overrides"],
                "summary": "Remove an override",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Removed"}
                }
            }
        },
        "/timetable/absences": {
            "get": {
                "tags": ["Absences"],
                "summary": "List absences",
                "parameters": [
                    {"name": "schedule_id", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Absences"],
                "summary": "Mark a faculty absence",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAbsenceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Faculty required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/absences/self": {
            "post": {
                "tags": ["Absences"],
                "summary": "Report own absence",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAbsenceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/absences/{id}": {
            "patch": {
                "tags": ["Absences"],
                "summary": "Confirm or dispute an absence",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewAbsenceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Absences"],
                "summary": "Unmark an absence",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Removed"}
                }
            }
        },
        "/timetable/makeups": {
            "get": {
                "tags": ["Makeups"],
                "summary": "List makeup requests",
                "parameters": [
                    {"name": "schedule_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Makeups"],
                "summary": "File a makeup request for a faculty member",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateMakeupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/makeups/self": {
            "post": {
                "tags": ["Makeups"],
                "summary": "Request a makeup class",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateMakeupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/makeups/{id}": {
            "patch": {
                "tags": ["Makeups"],
                "summary": "Approve or reject a makeup request",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewMakeupRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already reviewed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/special-events": {
            "get": {
                "tags": ["Special Events"],
                "summary": "List special events",
                "parameters": [
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Special Events"],
                "summary": "Create a special event",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSpecialEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No affected sessions", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/special-events/{id}": {
            "delete": {
                "tags": ["Special Events"],
                "summary": "Cancel a special event",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Cancelled"}
                }
            }
        }
    },
    "definitions": {
        "MoveRequest": {
            "type": "object",
            "required": ["week_start", "key", "day", "start"],
            "properties": {
                "week_start": {"type": "string", "format": "date"},
                "key": {"type": "string"},
                "day": {"type": "string"},
                "start": {"type": "string"},
                "room": {"type": "string"},
                "building": {"type": "string"}
            }
        },
        "CommitMoveRequest": {
            "type": "object",
            "required": ["week_start", "key", "day", "start"],
            "properties": {
                "week_start": {"type": "string", "format": "date"},
                "key": {"type": "string"},
                "day": {"type": "string"},
                "start": {"type": "string"},
                "room": {"type": "string"},
                "building": {"type": "string"},
                "time": {"type": "string"},
                "note": {"type": "string"}
            }
        },
        "SaveOverrideRequest": {
            "type": "object",
            "required": ["allocation_id", "week_start"],
            "properties": {
                "allocation_id": {"type": "string"},
                "week_start": {"type": "string", "format": "date"},
                "day": {"type": "string"},
                "time": {"type": "string"},
                "room": {"type": "string"},
                "building": {"type": "string"},
                "note": {"type": "string"}
            }
        },
        "CreateAbsenceRequest": {
            "type": "object",
            "required": ["allocation_id", "date"],
            "properties": {
                "allocation_id": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "reason": {"type": "string"},
                "faculty_id": {"type": "string"}
            }
        },
        "ReviewAbsenceRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["confirmed", "disputed"]}
            }
        },
        "CreateMakeupRequest": {
            "type": "object",
            "required": ["allocation_id", "requested_date", "requested_time", "reason"],
            "properties": {
                "allocation_id": {"type": "string"},
                "requested_date": {"type": "string", "format": "date"},
                "requested_time": {"type": "string"},
                "requested_room": {"type": "string"},
                "reason": {"type": "string"},
                "original_absence_date": {"type": "string", "format": "date"},
                "faculty_id": {"type": "string"}
            }
        },
        "ReviewMakeupRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["approved", "rejected"]},
                "admin_note": {"type": "string"}
            }
        },
        "CreateSpecialEventRequest": {
            "type": "object",
            "required": ["room", "event_date", "reason"],
            "properties": {
                "schedule_id": {"type": "string"},
                "room": {"type": "string"},
                "building": {"type": "string"},
                "event_date": {"type": "string", "format": "date"},
                "time_start": {"type": "string"},
                "time_end": {"type": "string"},
                "reason": {"type": "string"}
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
