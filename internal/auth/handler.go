package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/book-wise/book_wise/internal/form"
	"github.com/book-wise/book_wise/internal/identity"
	"github.com/book-wise/book_wise/internal/session"
)

// Handler exposes the auth actions over HTTP.
type Handler struct {
	svc          *Service
	validator    *form.Validator
	secureCookie bool
}

// NewHandler builds the handler. secureCookie marks the session cookie Secure.
func NewHandler(svc *Service, secureCookie bool) *Handler {
	return &Handler{svc: svc, validator: form.NewValidator(), secureCookie: secureCookie}
}

func caller(c *fiber.Ctx) Caller {
	return Caller{IP: ClientIP(c.Get(fiber.HeaderXForwardedFor)), UserAgent: c.Get(fiber.HeaderUserAgent)}
}

type invalidResponse struct {
	Result
	Fields map[string]string `json:"fields,omitempty"`
}

func (h *Handler) invalid(c *fiber.Ctx, err error) error {
	resp := invalidResponse{Result: Result{Success: false, Error: form.CheckFormMessage}}
	var verr *form.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	return c.Status(http.StatusBadRequest).JSON(resp)
}

// respond writes an action result, setting the session cookie when one was established.
func (h *Handler) respond(c *fiber.Ctx, res Result, okStatus int) error {
	if res.Session != nil && res.Token != "" {
		c.Cookie(&fiber.Cookie{
			Name:     session.CookieName,
			Value:    res.Token,
			Path:     "/",
			Expires:  res.Session.ExpiresAt,
			HTTPOnly: true,
			Secure:   h.secureCookie,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	switch {
	case res.Redirect == RouteTooFast:
		return c.Status(http.StatusTooManyRequests).JSON(res)
	case res.Success:
		return c.Status(okStatus).JSON(res)
	default:
		return c.Status(http.StatusOK).JSON(res)
	}
}

// SignIn handles POST /api/auth/sign-in.
func (h *Handler) SignIn(c *fiber.Ctx) error {
	var req form.SignInValues
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validator.Validate(req); err != nil {
		return h.invalid(c, err)
	}
	res := h.svc.SignInWithCredentials(c.UserContext(), caller(c), req.Email, req.Password)
	return h.respond(c, res, http.StatusOK)
}

// SignUp handles POST /api/auth/sign-up.
func (h *Handler) SignUp(c *fiber.Ctx) error {
	var req form.SignUpValues
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validator.Validate(req); err != nil {
		return h.invalid(c, err)
	}
	res := h.svc.SignUp(c.UserContext(), caller(c), identity.NewUser{
		FullName:       req.FullName,
		Email:          req.Email,
		UniversityID:   req.UniversityID,
		Password:       req.Password,
		UniversityCard: req.UniversityCard,
	})
	return h.respond(c, res, http.StatusCreated)
}

// SignOut handles POST /api/auth/sign-out.
func (h *Handler) SignOut(c *fiber.Ctx) error {
	var sessionID string
	if token := c.Cookies(session.CookieName); token != "" {
		if sess, err := h.svc.Verify(c.UserContext(), token); err == nil {
			sessionID = sess.ID
		}
	}
	res := h.svc.SignOut(c.UserContext(), sessionID)
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Status(http.StatusOK).JSON(res)
}

type sessionResponse struct {
	User    sessionUser `json:"user"`
	Expires time.Time   `json:"expires"`
}

type sessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session handles GET /api/auth/session.
func (h *Handler) Session(c *fiber.Ctx) error {
	token := c.Cookies(session.CookieName)
	if token == "" {
		return fiber.NewError(http.StatusUnauthorized, "not signed in")
	}
	sess, err := h.svc.Verify(c.UserContext(), token)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "not signed in")
	}
	return c.JSON(sessionResponse{
		User:    sessionUser{ID: sess.UserID, Email: sess.Email, Name: sess.FullName},
		Expires: sess.ExpiresAt,
	})
}
