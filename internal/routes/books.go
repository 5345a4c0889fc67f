package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/book-wise/book_wise/internal/books"
)

// RegisterBookRoutes exposes the catalogue and the member pages.
func RegisterBookRoutes(r fiber.Router, h *books.Handler, sessionAuth fiber.Handler) {
	r.Get("/books", h.List)
	r.Get("/books/featured", h.Featured)
	r.Get("/books/:id", h.Get)

	me := r.Group("/me", sessionAuth)
	me.Get("", h.Me)
	me.Get("/borrowed", h.MyBorrowed)
}
