package middleware

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/book-wise/book_wise/internal/session"
)

// SessionVerifier resolves a session token.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (session.Session, error)
}

// SessionAuth requires a valid session cookie and stores the user id and
// session id in locals.
func SessionAuth(sessions SessionVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(session.CookieName)
		if token == "" {
			return fiber.NewError(http.StatusUnauthorized, "not signed in")
		}
		sess, err := sessions.Verify(c.UserContext(), token)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "session expired")
		}
		c.Locals(LocalUserID, sess.UserID)
		c.Locals(LocalSessionID, sess.ID)
		return c.Next()
	}
}
