package upload

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// DefaultExpiry is how long signed credentials stay valid.
	DefaultExpiry = 30 * time.Minute
	// maxExpiry is the CDN's upper bound on credential lifetime.
	maxExpiry = time.Hour
)

// ErrSignerNotConfigured is returned when no private key is set.
var ErrSignerNotConfigured = errors.New("imagekit private key is not configured")

// Signer issues upload credentials from the CDN private key.
type Signer struct {
	privateKey string
	expiry     time.Duration
	now        func() time.Time
}

// NewSigner builds a signer. Expiry defaults to DefaultExpiry and is capped at one hour.
func NewSigner(privateKey string, expiry time.Duration) *Signer {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	if expiry > maxExpiry {
		expiry = maxExpiry
	}
	return &Signer{privateKey: privateKey, expiry: expiry, now: time.Now}
}

// Sign returns a fresh token, its expiry (unix seconds) and
// hex(HMAC-SHA1(privateKey, token+expire)).
func (s *Signer) Sign() (Credentials, error) {
	if s.privateKey == "" {
		return Credentials{}, ErrSignerNotConfigured
	}
	token := uuid.NewString()
	expire := s.now().Add(s.expiry).Unix()
	return Credentials{
		Token:     token,
		Expire:    expire,
		Signature: Signature(s.privateKey, token, expire),
	}, nil
}

// Signature computes the CDN upload signature.
func Signature(privateKey, token string, expire int64) string {
	mac := hmac.New(sha1.New, []byte(privateKey))
	mac.Write([]byte(token + strconv.FormatInt(expire, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Handler serves GET /api/auth/imagekit.
type Handler struct {
	signer  *Signer
	onIssue func()
}

// NewHandler wires the signer into HTTP. onIssue, when set, runs after each
// successful signature.
func NewHandler(signer *Signer, onIssue func()) *Handler {
	return &Handler{signer: signer, onIssue: onIssue}
}

// Auth returns fresh upload credentials.
func (h *Handler) Auth(c *fiber.Ctx) error {
	creds, err := h.signer.Sign()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to generate authentication parameters",
			"details": err.Error(),
		})
	}
	if h.onIssue != nil {
		h.onIssue()
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(creds)
}
