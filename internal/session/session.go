package session

import (
	"context"
	"errors"
	"time"
)

// CookieName is the cookie carrying the signed session token.
const CookieName = "bookwise_session"

var (
	// ErrSessionNotFound is returned when a session id is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidToken is returned for tokens that fail signature or claim checks.
	ErrInvalidToken = errors.New("invalid session token")
)

// Session is an established sign-in.
type Session struct {
	ID        string
	UserID    string
	Email     string
	FullName  string
	IP        string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store persists sessions between requests.
type Store interface {
	Save(ctx context.Context, s Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

// SignInError is a provider-reported rejection. Message is safe to show to users.
type SignInError struct {
	Code    string
	Message string
}

func (e *SignInError) Error() string { return e.Message }

// CredentialsSignin is the rejection returned for a bad email/password pair.
var CredentialsSignin = &SignInError{Code: "CredentialsSignin", Message: "Invalid email or password"}
