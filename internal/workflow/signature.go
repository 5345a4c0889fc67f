package workflow

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// SignatureHeader carries the JWT the workflow service signs each callback with.
const SignatureHeader = "Upstash-Signature"

// ErrInvalidSignature is returned when a callback cannot be authenticated.
var ErrInvalidSignature = errors.New("invalid workflow signature")

type signatureClaims struct {
	jwt.RegisteredClaims
	Body string `json:"body"`
}

// Verifier checks callback signatures against the current and next signing keys.
type Verifier struct {
	keys []string
}

// NewVerifier builds a verifier. Empty keys are ignored; with no keys Enabled reports false.
func NewVerifier(currentKey, nextKey string) *Verifier {
	v := &Verifier{}
	for _, k := range []string{currentKey, nextKey} {
		if k != "" {
			v.keys = append(v.keys, k)
		}
	}
	return v
}

// Enabled reports whether any signing key is configured.
func (v *Verifier) Enabled() bool { return len(v.keys) > 0 }

// Verify checks that signature was issued for url and body by one of the keys.
func (v *Verifier) Verify(signature string, body []byte, url string) error {
	if signature == "" {
		return fmt.Errorf("%w: missing %s header", ErrInvalidSignature, SignatureHeader)
	}
	var lastErr error
	for _, key := range v.keys {
		if err := verifyWithKey(signature, body, url, key); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInvalidSignature, lastErr)
}

func verifyWithKey(signature string, body []byte, url, key string) error {
	claims := &signatureClaims{}
	_, err := jwt.ParseWithClaims(signature, claims, func(t *jwt.Token) (any, error) {
		return []byte(key), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer("Upstash"), jwt.WithSubject(url))
	if err != nil {
		return err
	}

	sum := sha256.Sum256(body)
	want := base64.RawURLEncoding.EncodeToString(sum[:])
	if strings.TrimRight(claims.Body, "=") != want {
		return errors.New("body hash mismatch")
	}
	return nil
}
