package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/book-wise/book_wise/internal/identity"
)

// Authenticator validates an email/password pair.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (identity.User, error)
}

// Claims are carried in the session cookie. ID is the session id.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Credentials is the sign-in request handed to the provider.
type Credentials struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

// Provider validates credentials, establishes sessions and verifies tokens.
type Provider struct {
	users  Authenticator
	store  Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewProvider builds a credentials provider signing tokens with secret.
func NewProvider(users Authenticator, store Store, secret string, ttl time.Duration) *Provider {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Provider{users: users, store: store, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is the lifetime of sessions issued by the provider.
func (p *Provider) TTL() time.Duration { return p.ttl }

// SignIn checks the credentials and, on success, stores a session and returns
// it together with its signed token. Bad credentials yield CredentialsSignin.
func (p *Provider) SignIn(ctx context.Context, creds Credentials) (Session, string, error) {
	user, err := p.users.Authenticate(ctx, creds.Email, creds.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return Session{}, "", CredentialsSignin
		}
		return Session{}, "", fmt.Errorf("authenticate: %w", err)
	}

	now := p.now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		IP:        creds.IP,
		UserAgent: creds.UserAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(p.ttl),
	}

	token, err := p.sign(sess)
	if err != nil {
		return Session{}, "", fmt.Errorf("sign session: %w", err)
	}
	if err := p.store.Save(ctx, sess, p.ttl); err != nil {
		return Session{}, "", err
	}
	return sess, token, nil
}

func (p *Provider) sign(sess Session) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
		Email: sess.Email,
		Name:  sess.FullName,
	})
	return token.SignedString(p.secret)
}

// Verify parses a session token and returns the live session it refers to.
func (p *Provider) Verify(ctx context.Context, token string) (Session, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil || !parsed.Valid {
		return Session{}, ErrInvalidToken
	}

	sess, err := p.store.Get(ctx, claims.ID)
	if err != nil {
		return Session{}, err
	}
	if sess.UserID != claims.Subject {
		return Session{}, ErrInvalidToken
	}
	return sess, nil
}

// SignOut discards the session.
func (p *Provider) SignOut(ctx context.Context, sessionID string) error {
	return p.store.Delete(ctx, sessionID)
}
