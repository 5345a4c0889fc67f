package workflow

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-wise/book_wise/internal/email"
	"github.com/book-wise/book_wise/internal/logging"
)

func TestClientTrigger(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody OnboardingPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"workflowRunId":"wfr_1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "qstash-token", nil)
	err := c.Trigger(context.Background(), Request{
		URL:  "https://bookwise.example/api/workflows/onboarding",
		Body: OnboardingPayload{Email: "ada@uni.edu", FullName: "Ada"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/v2/trigger/https://bookwise.example/api/workflows/onboarding", gotPath)
	assert.Equal(t, "Bearer qstash-token", gotAuth)
	assert.Equal(t, "ada@uni.edu", gotBody.Email)
}

func TestClientTriggerNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "t", nil).Trigger(context.Background(), Request{URL: "https://x/y", Body: map[string]string{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

const callbackURL = "https://bookwise.example/api/workflows/onboarding"

func sign(t *testing.T, key, url string, body []byte) string {
	t.Helper()
	sum := sha256.Sum256(body)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, signatureClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "Upstash",
			Subject:   url,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
			NotBefore: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		Body: base64.URLEncoding.EncodeToString(sum[:]),
	})
	s, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func TestVerifierAcceptsCurrentAndNextKey(t *testing.T) {
	body := []byte(`{"email":"ada@uni.edu"}`)
	v := NewVerifier("current", "next")

	assert.NoError(t, v.Verify(sign(t, "current", callbackURL, body), body, callbackURL))
	assert.NoError(t, v.Verify(sign(t, "next", callbackURL, body), body, callbackURL))
	assert.ErrorIs(t, v.Verify(sign(t, "other", callbackURL, body), body, callbackURL), ErrInvalidSignature)
	assert.ErrorIs(t, v.Verify(sign(t, "current", callbackURL, body), []byte(`{"email":"eve@x"}`), callbackURL), ErrInvalidSignature)
	assert.ErrorIs(t, v.Verify(sign(t, "current", "https://evil/", body), body, callbackURL), ErrInvalidSignature)
	assert.ErrorIs(t, v.Verify("", body, callbackURL), ErrInvalidSignature)
}

type recordingSender struct {
	sent []email.Message
	fail bool
}

func (s *recordingSender) Send(_ context.Context, msg email.Message) email.Result {
	if s.fail {
		return email.Result{Success: false, Error: "provider down"}
	}
	s.sent = append(s.sent, msg)
	return email.Result{Success: true, Data: &email.Receipt{StatusCode: 202}}
}

func newOnboardingApp(sender email.Sender, verifier *Verifier) *fiber.App {
	app := fiber.New()
	app.Post(OnboardingPath, NewOnboarding(sender, verifier, callbackURL, logging.Discard()).Handle)
	return app
}

func TestOnboardingSendsWelcomeEmail(t *testing.T) {
	sender := &recordingSender{}
	app := newOnboardingApp(sender, NewVerifier("current", ""))

	body := []byte(`{"email":"ada@uni.edu","fullName":"Ada <Lovelace>"}`)
	req := httptest.NewRequest(fiber.MethodPost, OnboardingPath, strings.NewReader(string(body)))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(SignatureHeader, sign(t, "current", callbackURL, body))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ada@uni.edu", sender.sent[0].To)
	assert.Equal(t, "Welcome to BookWise!", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].HTML, "Ada &lt;Lovelace&gt;")
}

func TestOnboardingRejectsUnsignedCallback(t *testing.T) {
	sender := &recordingSender{}
	app := newOnboardingApp(sender, NewVerifier("current", ""))

	req := httptest.NewRequest(fiber.MethodPost, OnboardingPath, strings.NewReader(`{"email":"ada@uni.edu"}`))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, sender.sent)
}

func TestOnboardingEmailFailureAsksForRetry(t *testing.T) {
	app := newOnboardingApp(&recordingSender{fail: true}, NewVerifier("", ""))

	req := httptest.NewRequest(fiber.MethodPost, OnboardingPath, strings.NewReader(`{"email":"ada@uni.edu","fullName":"Ada"}`))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestOnboardingRequiresKeysWhenStrict(t *testing.T) {
	sender := &recordingSender{}
	app := fiber.New()
	app.Post(OnboardingPath, NewOnboarding(sender, NewVerifier("", ""), callbackURL, logging.Discard()).RequireSignature().Handle)

	req := httptest.NewRequest(fiber.MethodPost, OnboardingPath, strings.NewReader(`{"email":"victim@uni.edu","fullName":"Eve"}`))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, sender.sent)
}
