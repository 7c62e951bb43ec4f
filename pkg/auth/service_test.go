package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeJWKSClient returns canned claims for any token.
type fakeJWKSClient struct {
	claims *Claims
	err    error
}

func (f *fakeJWKSClient) ValidateToken(tokenString string) (*Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func (f *fakeJWKSClient) Close() {}

func TestValidateRequest_BearerHeader(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "7b0d2b39-9f5e-4c2c-9f52-0a8f9a2be111"}}
	service := NewAuthService(&fakeJWKSClient{claims: claims}, zap.NewNop())

	r := httptest.NewRequest(http.MethodGet, "/api/managers/me", nil)
	r.Header.Set("Authorization", "Bearer some.jwt.token")

	got, token, err := service.ValidateRequest(r)
	require.NoError(t, err)
	assert.Equal(t, claims.Subject, got.Subject)
	assert.Equal(t, "some.jwt.token", token)
}

func TestValidateRequest_Cookie(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "7b0d2b39-9f5e-4c2c-9f52-0a8f9a2be111"}}
	service := NewAuthService(&fakeJWKSClient{claims: claims}, zap.NewNop())

	r := httptest.NewRequest(http.MethodGet, "/api/managers/me", nil)
	r.AddCookie(&http.Cookie{Name: "aqua_jwt", Value: "cookie.jwt.token"})

	_, token, err := service.ValidateRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "cookie.jwt.token", token)
}

func TestValidateRequest_MissingAuthorization(t *testing.T) {
	service := NewAuthService(&fakeJWKSClient{}, zap.NewNop())

	r := httptest.NewRequest(http.MethodGet, "/api/managers/me", nil)
	_, _, err := service.ValidateRequest(r)
	require.ErrorIs(t, err, ErrMissingAuthorization)
}

func TestValidateRequest_MalformedHeader(t *testing.T) {
	service := NewAuthService(&fakeJWKSClient{}, zap.NewNop())

	r := httptest.NewRequest(http.MethodGet, "/api/managers/me", nil)
	r.Header.Set("Authorization", "Token abc")
	_, _, err := service.ValidateRequest(r)
	require.ErrorIs(t, err, ErrInvalidAuthFormat)
}

func TestValidateRequest_InvalidToken(t *testing.T) {
	service := NewAuthService(&fakeJWKSClient{err: errors.New("token expired")}, zap.NewNop())

	r := httptest.NewRequest(http.MethodGet, "/api/managers/me", nil)
	r.Header.Set("Authorization", "Bearer expired.jwt.token")
	_, _, err := service.ValidateRequest(r)
	require.Error(t, err)
}

func TestValidateCondoIDMatch(t *testing.T) {
	service := NewAuthService(&fakeJWKSClient{}, zap.NewNop())

	// Tokens without a condo claim rely on stored grants.
	unpinned := &Claims{}
	assert.NoError(t, service.ValidateCondoIDMatch(unpinned, "7b0d2b39-9f5e-4c2c-9f52-0a8f9a2be111"))

	pinned := &Claims{CondoID: "7b0d2b39-9f5e-4c2c-9f52-0a8f9a2be111"}
	assert.NoError(t, service.ValidateCondoIDMatch(pinned, "7b0d2b39-9f5e-4c2c-9f52-0a8f9a2be111"))

	err := service.ValidateCondoIDMatch(pinned, "11111111-1111-1111-1111-111111111111")
	require.ErrorIs(t, err, ErrCondoIDMismatch)
}

func TestRequireManagerID(t *testing.T) {
	service := NewAuthService(&fakeJWKSClient{}, zap.NewNop())

	require.ErrorIs(t, service.RequireManagerID(&Claims{}), ErrMissingManagerID)
	assert.NoError(t, service.RequireManagerID(&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"}}))
}

func TestParseUnverifiedToken(t *testing.T) {
	client, err := NewJWKSClient(&JWKSConfig{EnableVerification: false})
	require.NoError(t, err)

	// alg:none token produced the same way local development clients do.
	token := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." +
		"eyJzdWIiOiI3YjBkMmIzOS05ZjVlLTRjMmMtOWY1Mi0wYThmOWEyYmUxMTEiLCJlbWFpbCI6Im1nckBleGFtcGxlLmNvbSJ9."

	claims, err := client.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "7b0d2b39-9f5e-4c2c-9f52-0a8f9a2be111", claims.Subject)
	assert.Equal(t, "mgr@example.com", claims.Email)
}
