// internal/middleware/request_id.go
package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the header carrying the request ID
	RequestIDHeader = "X-Request-ID"

	requestIDLocal = "request_id"
)

// requestIDKey is the context key for storing the request ID
type requestIDKey struct{}

// RequestID takes X-Request-ID from the request or generates a new UUID if
// not present. The ID is stored in the fiber locals and the user context, and
// echoed in the response headers.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDHeader)

		// Generate a new UUID if not present
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Locals(requestIDLocal, requestID)
		c.SetUserContext(context.WithValue(c.UserContext(), requestIDKey{}, requestID))
		c.Set(RequestIDHeader, requestID)

		return c.Next()
	}
}

// GetRequestID retrieves the request ID for the current request
func GetRequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDLocal).(string); ok {
		return id
	}
	return ""
}

// RequestIDFromContext retrieves the request ID from a context derived from
// the fiber user context
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
