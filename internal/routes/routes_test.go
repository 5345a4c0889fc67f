package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-wise/book_wise/internal/config"
	"github.com/book-wise/book_wise/internal/email"
	"github.com/book-wise/book_wise/internal/logging"
	"github.com/book-wise/book_wise/internal/session"
	"github.com/book-wise/book_wise/internal/workflow"
)

type captureTrigger struct {
	mu   sync.Mutex
	reqs []workflow.Request
}

func (c *captureTrigger) Trigger(_ context.Context, req workflow.Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reqs = append(c.reqs, req)
	return nil
}

type captureSender struct {
	mu   sync.Mutex
	msgs []email.Message
}

func (c *captureSender) Send(_ context.Context, msg email.Message) email.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return email.Result{Success: true}
}

func testConfig() config.Config {
	return config.Config{
		AppName:         "BookWise",
		Env:             "test",
		APIEndpoint:     "https://bookwise.example",
		SessionTTL:      time.Hour,
		IdempotencyTTL:  time.Minute,
		RateLimitMax:    5,
		RateLimitWindow: time.Minute,
		ImageKit:        config.ImageKit{PrivateKey: "private_test"},
	}
}

func newApp(t *testing.T, cfg config.Config, cache *redis.Client) (*fiber.App, *captureTrigger, *captureSender) {
	t.Helper()
	trigger, sender := &captureTrigger{}, &captureSender{}
	app := fiber.New()
	err := Setup(app, Deps{Cfg: cfg, Cache: cache, Logger: logging.Discard(), Workflow: trigger, Email: sender})
	require.NoError(t, err)
	return app, trigger, sender
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderXForwardedFor, "198.51.100.9")
	return req
}

const signUp = `{"fullName":"Grace Hopper","email":"grace@uni.edu","universityId":1906,"password":"cobol-rules","universityCard":"https://ik.imagekit.io/bookwise/grace.png"}`

func TestSetupRequiresBackingServicesOutsideDev(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "production"
	err := Setup(fiber.New(), Deps{Cfg: cfg, Logger: logging.Discard()})
	require.Error(t, err)
}

func TestSignUpFlowInMemory(t *testing.T) {
	app, trigger, sender := newApp(t, testConfig(), nil)

	resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/auth/sign-up", signUp))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	require.Len(t, trigger.reqs, 1)
	assert.Equal(t, "https://bookwise.example/api/workflows/onboarding", trigger.reqs[0].URL)

	req := httptest.NewRequest(fiber.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookie.Value})
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, "GH", me["initials"])

	resp, err = app.Test(jsonRequest(fiber.MethodPost, "/api/auth/sign-up", signUp))
	require.NoError(t, err)
	var dup map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dup))
	assert.Equal(t, "User already exists", dup["error"])

	body, _ := json.Marshal(workflow.OnboardingPayload{Email: "grace@uni.edu", FullName: "Grace Hopper"})
	resp, err = app.Test(jsonRequest(fiber.MethodPost, workflow.OnboardingPath, string(body)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, sender.msgs, 1)
	assert.Equal(t, "Welcome to BookWise!", sender.msgs[0].Subject)
}

func TestRateLimitRedirectsWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	cfg := testConfig()
	cfg.RateLimitMax = 2
	app, _, _ := newApp(t, cfg, cache)

	signIn := `{"email":"nobody@uni.edu","password":"whatever-pass"}`
	for i := 0; i < 2; i++ {
		resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/auth/sign-in", signIn))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/auth/sign-in", signIn))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var res map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "/too-fast", res["redirect"])
}

func TestPublicRoutes(t *testing.T) {
	app, _, _ := newApp(t, testConfig(), nil)

	for path, status := range map[string]int{
		"/healthz":            http.StatusOK,
		"/metrics":            http.StatusOK,
		"/api/ping":           http.StatusOK,
		"/api/books":          http.StatusOK,
		"/api/books/featured": http.StatusOK,
		"/api/auth/imagekit":  http.StatusOK,
		"/api/auth/session":   http.StatusUnauthorized,
		"/api/me":             http.StatusUnauthorized,
		"/":                   http.StatusOK,
		"/sign-in":            http.StatusOK,
		"/sign-up":            http.StatusOK,
		"/too-fast":           http.StatusTooManyRequests,
	} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
		require.NoError(t, err, path)
		assert.Equal(t, status, resp.StatusCode, path)
	}
}
