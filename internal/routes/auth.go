package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/book-wise/book_wise/internal/auth"
	"github.com/book-wise/book_wise/internal/upload"
)

// RegisterAuthRoutes wires the auth actions and the upload credential endpoint.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, uploads *upload.Handler) {
	group := r.Group("/auth")
	group.Post("/sign-in", h.SignIn)
	group.Post("/sign-up", h.SignUp)
	group.Post("/sign-out", h.SignOut)
	group.Get("/session", h.Session)
	group.Get("/imagekit", uploads.Auth)
}
