package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/book-wise/book_wise/internal/form"
)

// Client calls the auth actions of a running server. It keeps the session
// cookie between calls.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for baseURL.
func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second, Jar: jar},
	}
}

// SignIn posts sign-in values.
func (c *Client) SignIn(ctx context.Context, v form.SignInValues) (form.Outcome, error) {
	return c.post(ctx, "/api/auth/sign-in", v)
}

// SignUp posts sign-up values.
func (c *Client) SignUp(ctx context.Context, v form.SignUpValues) (form.Outcome, error) {
	return c.post(ctx, "/api/auth/sign-up", v)
}

func (c *Client) post(ctx context.Context, path string, body any) (form.Outcome, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return form.Outcome{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return form.Outcome{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return form.Outcome{}, err
	}
	defer resp.Body.Close()

	var out form.Outcome
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return form.Outcome{}, fmt.Errorf("decode %s response (status %d): %w", path, resp.StatusCode, err)
	}
	return out, nil
}
