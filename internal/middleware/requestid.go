package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request trace id in and out of the service.
const RequestIDHeader = "X-Request-ID"

const (
	localRequestID = "request_id"
	// LocalUserID and LocalSessionID are set by SessionAuth.
	LocalUserID    = "user_id"
	LocalSessionID = "session_id"
)

// RequestID reuses an inbound X-Request-ID or mints one, echoes it on the
// response and keeps it in locals for handlers and the audit log.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(RequestIDHeader, reqID)
		c.Locals(localRequestID, reqID)
		return c.Next()
	}
}

// RequestIDFrom returns the id assigned by RequestID, or "".
func RequestIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals(localRequestID).(string)
	return id
}

// UserIDFrom returns the signed-in user id stored by SessionAuth, or "".
func UserIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}
