package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/book-wise/book_wise/internal/session"
)

type stubVerifier map[string]session.Session

func (s stubVerifier) Verify(_ context.Context, token string) (session.Session, error) {
	sess, ok := s[token]
	if !ok {
		return session.Session{}, session.ErrInvalidToken
	}
	return sess, nil
}

func TestSessionAuth(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/api/me", SessionAuth(stubVerifier{"good": {ID: "s1", UserID: "u1"}}), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(string))
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/me", nil))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without cookie, got %v %d", err, resp.StatusCode)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}

	req := httptest.NewRequest(fiber.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "bad"})
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest(fiber.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "good"})
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
