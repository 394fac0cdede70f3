package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/ngotes/internal/errs"
)

func makeJWT(t *testing.T, sub string, key []byte, method jwt.SigningMethod, iat time.Time, ttl time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(iat),
		NotBefore: jwt.NewNumericDate(iat),
		ExpiresAt: jwt.NewNumericDate(iat.Add(ttl)),
	}
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestVerifier_Valid(t *testing.T) {
	t.Parallel()

	key := []byte("secret")
	v := NewVerifier(key)
	tok := makeJWT(t, "sub-1", key, jwt.SigningMethodHS256, time.Now(), time.Minute)

	sub, err := v.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "sub-1", sub)
}

func TestVerifier_Rejects(t *testing.T) {
	t.Parallel()

	key := []byte("secret")
	v := NewVerifier(key)
	now := time.Now()

	cases := map[string]string{
		"wrong key":     makeJWT(t, "sub", []byte("other"), jwt.SigningMethodHS256, now, time.Minute),
		"expired":       makeJWT(t, "sub", key, jwt.SigningMethodHS256, now.Add(-2*time.Hour), time.Hour),
		"not yet valid": makeJWT(t, "sub", key, jwt.SigningMethodHS256, now.Add(time.Hour), time.Hour),
		"wrong method":  makeJWT(t, "sub", key, jwt.SigningMethodHS512, now, time.Minute),
		"empty subject": makeJWT(t, "", key, jwt.SigningMethodHS256, now, time.Minute),
		"garbage":       "not.a.jwt",
	}
	for name, tok := range cases {
		_, err := v.Verify(tok)
		require.Error(t, err, name)
		require.True(t, errors.Is(err, errs.ErrUnauthorized), name)
	}
}

func TestVerifier_Leeway(t *testing.T) {
	t.Parallel()

	key := []byte("secret")
	v := NewVerifier(key)
	// expired 10s ago, inside the 30s leeway
	tok := makeJWT(t, "sub", key, jwt.SigningMethodHS256, time.Now().Add(-70*time.Second), time.Minute)
	_, err := v.Verify(tok)
	require.NoError(t, err)
}

func TestIssuer_RoundTrip(t *testing.T) {
	t.Parallel()

	key := []byte("dev")
	tok, exp, err := NewIssuer(key, time.Hour).Issue("dev-user", "dev@example.com")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	sub, err := NewVerifier(key).Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "dev-user", sub)
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "/notes", nil)
	_, err := BearerToken(r)
	require.ErrorIs(t, err, ErrNoToken)
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	r.Header.Set("Authorization", "Basic foo")
	_, err = BearerToken(r)
	require.Error(t, err)

	r.Header.Set("Authorization", "Bearer    ")
	_, err = BearerToken(r)
	require.Error(t, err)

	r.Header.Set("Authorization", "bearer abc.def.ghi")
	tok, err := BearerToken(r)
	require.NoError(t, err)
	require.Equal(t, "abc.def.ghi", tok)
}
