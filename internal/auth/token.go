// Package auth verifies identity provider tokens and carries the caller identity.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/ngotes/internal/errs"
)

// ErrNoToken indicates the request carried no bearer token.
var ErrNoToken = fmt.Errorf("no bearer token: %w", errs.ErrUnauthorized)

const leeway = 30 * time.Second

// Claims are the identity provider claims the service relies on.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 access tokens signed with the identity provider secret.
type Verifier struct {
	key []byte
}

// NewVerifier constructs a verifier for the given shared secret.
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{key: secret}
}

// Verify parses the token and returns the caller identity (the subject claim).
func (v *Verifier) Verify(token string) (string, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return v.key, nil
	}, jwt.WithLeeway(leeway))
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("invalid token: %w", errs.ErrUnauthorized)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("empty subject: %w", errs.ErrUnauthorized)
	}
	return claims.Subject, nil
}

// BearerToken extracts "Authorization: Bearer <token>" from the request.
func BearerToken(r *http.Request) (string, error) {
	for _, v := range r.Header.Values("Authorization") {
		v = strings.TrimSpace(v)
		if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
			if t := strings.TrimSpace(v[7:]); t != "" {
				return t, nil
			}
		}
	}
	return "", ErrNoToken
}

// Issuer mints tokens in the identity provider format; used for local development.
type Issuer struct {
	key []byte
	ttl time.Duration
}

// NewIssuer constructs an issuer for the given secret and token lifetime.
func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	return &Issuer{key: secret, ttl: ttl}
}

// Issue returns a signed HS256 token for subject.
func (i *Issuer) Issue(subject, email string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(i.ttl)
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	return signed, exp, err
}
