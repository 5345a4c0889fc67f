package books

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/book-wise/book_wise/internal/identity"
)

// Handler exposes catalogue HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a catalogue HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type bookResponse struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Genre           string  `json:"genre"`
	Rating          float64 `json:"rating"`
	TotalCopies     int     `json:"totalCopies"`
	AvailableCopies int     `json:"availableCopies"`
	Description     string  `json:"description"`
	CoverURL        string  `json:"coverUrl"`
	CoverColor      string  `json:"coverColor"`
	Summary         string  `json:"summary"`
}

func toResponse(b Book) bookResponse {
	return bookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		Genre:           b.Genre,
		Rating:          b.Rating,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		Description:     b.Description,
		CoverURL:        b.CoverURL,
		CoverColor:      b.CoverColor,
		Summary:         b.Summary,
	}
}

func toResponses(in []Book) []bookResponse {
	out := make([]bookResponse, 0, len(in))
	for _, b := range in {
		out = append(out, toResponse(b))
	}
	return out
}

// List returns the latest books.
func (h *Handler) List(c *fiber.Ctx) error {
	list, err := h.service.Latest(c.UserContext(), c.QueryInt("limit", defaultLimit))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"books": toResponses(list)})
}

// Featured returns the landing page book.
func (h *Handler) Featured(c *fiber.Ctx) error {
	book, err := h.service.Featured(c.UserContext())
	if err != nil {
		if errors.Is(err, ErrBookNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(toResponse(book))
}

// Get returns one book.
func (h *Handler) Get(c *fiber.Ctx) error {
	book, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrBookNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(toResponse(book))
}

// Me returns the signed-in member's profile. Requires the session middleware.
func (h *Handler) Me(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return fiber.NewError(http.StatusUnauthorized, "not signed in")
	}
	p, err := h.service.Profile(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return fiber.NewError(http.StatusNotFound, "user not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"id":           p.UserID,
		"fullName":     p.FullName,
		"initials":     p.Initials,
		"email":        p.Email,
		"universityId": p.UniversityID,
		"status":       p.Status,
		"borrowed":     toResponses(p.Borrowed),
	})
}

// MyBorrowed lists the signed-in member's borrowed books.
func (h *Handler) MyBorrowed(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return fiber.NewError(http.StatusUnauthorized, "not signed in")
	}
	list, err := h.service.Borrowed(c.UserContext(), userID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"books": toResponses(list)})
}
