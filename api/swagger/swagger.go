package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Draw Master API",
        "description": "Course marketplace backend: catalog, cart, checkout and payment ledger",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Account registration and login"},
        {"name": "Users", "description": "User directory and role management"},
        {"name": "Classes", "description": "Class catalog and review workflow"},
        {"name": "Cart", "description": "Student class selections"},
        {"name": "Payments", "description": "Checkout, enrollments and ledger"}
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
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden"}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Sync user after external sign-in",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/role/{id}": {
            "patch": {
                "tags": ["Users"],
                "summary": "Set user role (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "User not found"}
                }
            }
        },
        "/instructors": {
            "get": {
                "tags": ["Users"],
                "summary": "List instructors",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes": {
            "get": {
                "tags": ["Classes"],
                "summary": "List approved classes, most enrolled first",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Classes"],
                "summary": "Submit a class (instructor)",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created, pending review"}
                }
            }
        },
        "/classes/all": {
            "get": {
                "tags": ["Classes"],
                "summary": "List every class (admin)",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/my-classes": {
            "get": {
                "tags": ["Classes"],
                "summary": "List own classes (instructor)",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/class/{id}": {
            "patch": {
                "tags": ["Classes"],
                "summary": "Update seats and price (owning instructor)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Not the owner"}
                }
            }
        },
        "/approve-class/{id}": {
            "patch": {
                "tags": ["Classes"],
                "summary": "Approve class (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/deny-class/{id}": {
            "patch": {
                "tags": ["Classes"],
                "summary": "Deny class (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/feedback-class/{id}": {
            "patch": {
                "tags": ["Classes"],
                "summary": "Attach review feedback (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/cart-classes": {
            "post": {
                "tags": ["Cart"],
                "summary": "Add class to cart (student)",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK, duplicates acknowledged"}
                }
            }
        },
        "/selected-classes": {
            "get": {
                "tags": ["Cart"],
                "summary": "List cart with catalog details (student)",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/delete-classes": {
            "delete": {
                "tags": ["Cart"],
                "summary": "Remove class from cart (student)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Removed"}
                }
            }
        },
        "/create-payment-intent": {
            "post": {
                "tags": ["Payments"],
                "summary": "Create payment intent (student)",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "502": {"description": "Gateway rejected the charge"}
                }
            }
        },
        "/payments/{id}": {
            "post": {
                "tags": ["Payments"],
                "summary": "Checkout a class (student)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string", "description": "Class ID"}
                ],
                "responses": {
                    "201": {"description": "Enrolled"},
                    "403": {"description": "Payer mismatch"},
                    "409": {"description": "No seats left, charge flagged for reconciliation"},
                    "502": {"description": "Gateway rejected the charge"}
                }
            }
        },
        "/payments": {
            "get": {
                "tags": ["Payments"],
                "summary": "List own payments",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrolled-classes": {
            "get": {
                "tags": ["Payments"],
                "summary": "List enrolled classes",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payments/{id}/receipt": {
            "get": {
                "tags": ["Payments"],
                "summary": "Download PDF receipt",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF receipt"},
                    "403": {"description": "Not the payer"}
                }
            }
        },
        "/payments/export": {
            "get": {
                "tags": ["Payments"],
                "summary": "Export ledger as CSV (admin)",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV export"}
                }
            }
        },
        "/payments/reconciliation": {
            "get": {
                "tags": ["Payments"],
                "summary": "List payments awaiting reconciliation (admin)",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payments/reconciliation/{id}": {
            "patch": {
                "tags": ["Payments"],
                "summary": "Resolve a flagged payment (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Resolved"},
                    "409": {"description": "Not awaiting reconciliation"}
                }
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "required": ["email", "password", "name"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 6},
                "name": {"type": "string"},
                "photo_url": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
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
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
