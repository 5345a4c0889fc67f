package workflow

import (
	"bytes"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/book-wise/book_wise/internal/email"
)

// OnboardingPath is the route the workflow service calls back after signup.
const OnboardingPath = "/api/workflows/onboarding"

// OnboardingPayload is the body of the onboarding workflow run.
type OnboardingPayload struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

var welcomeTmpl = template.Must(template.New("welcome").Parse(
	`<p>Welcome {{.FullName}}!</p><p>Your BookWise account has been created. We will review your university ID shortly.</p>`))

// WelcomeMessage renders the first onboarding email.
func WelcomeMessage(p OnboardingPayload) (email.Message, error) {
	var buf bytes.Buffer
	if err := welcomeTmpl.Execute(&buf, p); err != nil {
		return email.Message{}, err
	}
	return email.Message{To: p.Email, Subject: "Welcome to BookWise!", HTML: buf.String()}, nil
}

// Onboarding handles workflow callbacks for new signups.
type Onboarding struct {
	sender      email.Sender
	verifier    *Verifier
	callbackURL string
	logger      *slog.Logger
	strict      bool
}

// NewOnboarding builds the callback handler. callbackURL must be the public
// URL the workflow service was asked to call.
func NewOnboarding(sender email.Sender, verifier *Verifier, callbackURL string, logger *slog.Logger) *Onboarding {
	return &Onboarding{sender: sender, verifier: verifier, callbackURL: callbackURL, logger: logger}
}

// RequireSignature makes Handle reject every callback when no signing key
// is configured, instead of accepting it unverified.
func (o *Onboarding) RequireSignature() *Onboarding {
	o.strict = true
	return o
}

// Handle verifies the callback and sends the welcome email. A failed send
// answers 502 so the workflow service retries the step.
func (o *Onboarding) Handle(c *fiber.Ctx) error {
	body := c.Body()
	verifying := o.verifier != nil && o.verifier.Enabled()
	if !verifying && o.strict {
		o.logger.Error("onboarding callback rejected, no signing keys configured")
		return fiber.NewError(http.StatusUnauthorized, "invalid signature")
	}
	if verifying {
		if err := o.verifier.Verify(c.Get(SignatureHeader), body, o.callbackURL); err != nil {
			o.logger.Warn("onboarding callback rejected", "error", err)
			return fiber.NewError(http.StatusUnauthorized, "invalid signature")
		}
	}

	var payload OnboardingPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	payload.Email = strings.TrimSpace(payload.Email)
	if payload.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "email is required")
	}

	msg, err := WelcomeMessage(payload)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "render welcome email")
	}
	res := o.sender.Send(c.UserContext(), msg)
	if !res.Success {
		o.logger.Error("onboarding email failed", "email", payload.Email, "error", res.Error)
		return fiber.NewError(http.StatusBadGateway, res.Error)
	}

	o.logger.Info("onboarding email sent", "email", payload.Email)
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "sent"})
}
