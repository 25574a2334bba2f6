// Package http implements the HTTP handlers for the report engine.
// It provides a thin layer between HTTP transport and the report
// services, keeping handlers focused solely on HTTP concerns.
//
// # Architecture Principles
//
// Handlers in this package follow these principles:
//
//	1. Thin handlers - minimal logic, delegate to services
//	2. HTTP-only concerns - multipart parsing, response formatting
//	3. Error transformation - convert service errors to HTTP responses
//	4. No business logic - all logic belongs in the service layer
//
// # Request Flow
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → Service
//	                                              ↓
//	HTTP Response ← Handler ← Result envelope ←──┘
//
// # Response Shapes
//
// Report endpoints accept multipart uploads and answer in one of two
// shapes. A successful run streams the produced artifact:
//
//	Content-Type: application/zip
//	Content-Disposition: attachment; filename="..."
//
// A failed run keeps the JSON envelope so the caller sees every
// collected problem at once:
//
//	{
//	    "is_success": false,
//	    "data": null,
//	    "errors": ["CSV file is empty"]
//	}
//
// Malformed requests (missing fields, wrong extensions, oversized
// bodies) never reach a service and follow RFC 7807 Problem Details:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Request validation failed",
//	    "status": 400,
//	    "detail": "..."
//	}
//
// # Testing
//
// Handlers are tested using httptest:
//
//	- Stub service dependencies
//	- Test various HTTP scenarios
//	- Verify error responses
package http
