package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// CDNConfig configures the image CDN client.
type CDNConfig struct {
	// AuthURL is the local endpoint that issues Credentials.
	AuthURL string
	// UploadURL is the CDN upload entrypoint.
	UploadURL string
	PublicKey string
	HTTP      *http.Client
}

// CDNClient uploads files to the image CDN using credentials from AuthURL.
type CDNClient struct {
	cfg  CDNConfig
	http *http.Client
}

// NewCDNClient builds a client. A nil HTTP client selects one with a 30s timeout.
func NewCDNClient(cfg CDNConfig) *CDNClient {
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &CDNClient{cfg: cfg, http: httpClient}
}

// Authenticate fetches upload credentials from the auth endpoint.
func (c *CDNClient) Authenticate(ctx context.Context) (Credentials, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.AuthURL, nil)
	if err != nil {
		return Credentials{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrAuthUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credentials{}, fmt.Errorf("read auth response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Credentials{}, fmt.Errorf("Auth failed (status %d): %s", resp.StatusCode, authErrorText(body))
	}

	if !gjson.ValidBytes(body) {
		return Credentials{}, ErrInvalidAuthResponse
	}
	res := gjson.ParseBytes(body)
	creds := Credentials{
		Signature: res.Get("signature").String(),
		Expire:    res.Get("expire").Int(),
		Token:     res.Get("token").String(),
	}
	if creds.Signature == "" || creds.Expire == 0 || creds.Token == "" {
		return Credentials{}, ErrInvalidAuthResponse
	}
	return creds, nil
}

func authErrorText(body []byte) string {
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}
	for _, key := range []string{"error", "details"} {
		if v := gjson.GetBytes(body, key); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return strings.TrimSpace(string(body))
}

// Upload validates f, obtains credentials and sends the file to the CDN.
func (c *CDNClient) Upload(ctx context.Context, f File) (Result, error) {
	if err := Validate(f); err != nil {
		return Result{}, err
	}
	creds, err := c.Authenticate(ctx)
	if err != nil {
		return Result{}, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename=%q`, f.Name)},
		"Content-Type":        {f.ContentType},
	})
	if err != nil {
		return Result{}, err
	}
	if _, err := part.Write(f.Data); err != nil {
		return Result{}, err
	}
	fields := map[string]string{
		"fileName":  f.Name,
		"signature": creds.Signature,
		"expire":    strconv.FormatInt(creds.Expire, 10),
		"token":     creds.Token,
		"publicKey": c.cfg.PublicKey,
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return Result{}, err
		}
	}
	if err := w.Close(); err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.UploadURL, &buf)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("send to cdn: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read cdn response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return Result{}, fmt.Errorf("cdn returned status %d: %s", resp.StatusCode, msg)
	}

	res := gjson.ParseBytes(body)
	out := Result{
		URL:    res.Get("url").String(),
		FileID: res.Get("fileId").String(),
		Name:   res.Get("name").String(),
	}
	if out.URL == "" {
		return Result{}, ErrNoURL
	}
	return out, nil
}
