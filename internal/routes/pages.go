package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/book-wise/book_wise/internal/auth"
	"github.com/book-wise/book_wise/internal/books"
	"github.com/book-wise/book_wise/internal/form"
)

// RegisterPageRoutes serves the data behind the routes the actions redirect to.
func RegisterPageRoutes(app *fiber.App, catalogue *books.Service) {
	app.Get(auth.RouteHome, func(c *fiber.Ctx) error {
		featured, err := catalogue.Featured(c.UserContext())
		if err != nil {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		latest, err := catalogue.Latest(c.UserContext(), 0)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		titles := make([]string, 0, len(latest))
		for _, b := range latest {
			titles = append(titles, b.Title)
		}
		return c.JSON(fiber.Map{
			"page":     "home",
			"featured": fiber.Map{"id": featured.ID, "title": featured.Title, "author": featured.Author},
			"latest":   titles,
		})
	})

	app.Get(auth.RouteSignIn, formPage(form.SignIn))
	app.Get("/sign-up", formPage(form.SignUp))

	app.Get(auth.RouteTooFast, func(c *fiber.Ctx) error {
		return c.Status(http.StatusTooManyRequests).JSON(fiber.Map{
			"page":    "too-fast",
			"title":   "Whoa, Slow Down There, Speedy!",
			"message": "Looks like you've been a little too eager. We've put a temporary pause on your excitement. Chill for a bit, and try again shortly",
		})
	})
}

func formPage(t form.Type) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"page":   string(t),
			"copy":   form.CopyFor(t),
			"fields": form.Fields(t),
		})
	}
}
