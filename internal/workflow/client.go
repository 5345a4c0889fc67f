// Package workflow triggers deferred onboarding work on the external
// workflow/queue service and handles its callbacks.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Request describes a workflow run to start.
type Request struct {
	URL  string
	Body any
}

// Trigger starts workflow runs.
type Trigger interface {
	Trigger(ctx context.Context, req Request) error
}

// Client talks to a QStash-compatible workflow service over HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a workflow client. A nil httpClient selects a client with a 10s timeout.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), token: token, http: httpClient}
}

// Trigger publishes req to the workflow service, which then calls req.URL.
func (c *Client) Trigger(ctx context.Context, req Request) error {
	body, err := json.Marshal(req.Body)
	if err != nil {
		return fmt.Errorf("encode workflow body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/trigger/"+req.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build workflow request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Upstash-Workflow-Init", "true")
	httpReq.Header.Set("Upstash-Workflow-RunId", "wfr_"+uuid.NewString())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("trigger workflow: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("trigger workflow: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// LoggerTrigger records triggers in the log without calling any service.
type LoggerTrigger struct {
	logger *slog.Logger
}

// NewLoggerTrigger builds a log-only trigger for development.
func NewLoggerTrigger(logger *slog.Logger) *LoggerTrigger {
	return &LoggerTrigger{logger: logger}
}

// Trigger logs the request.
func (t *LoggerTrigger) Trigger(_ context.Context, req Request) error {
	t.logger.Info("workflow trigger", "url", req.URL)
	return nil
}
