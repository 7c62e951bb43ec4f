package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// JWKSClientInterface is the token validation contract. The concrete client
// fetches signing keys over JWKS; tests substitute a fake.
type JWKSClientInterface interface {
	// ValidateToken parses and validates a JWT and returns its claims.
	ValidateToken(tokenString string) (*Claims, error)
	// Close releases any resources held by the client.
	Close()
}

// JWKSConfig configures token validation.
type JWKSConfig struct {
	// EnableVerification turns signature verification on. When false, tokens
	// are parsed without verification (local development only).
	EnableVerification bool
	// JWKSEndpoints maps accepted issuer URLs to their JWKS endpoint URLs.
	// Tokens from any other issuer are rejected.
	JWKSEndpoints map[string]string
}

// JWKSClient validates manager JWTs against the configured identity
// providers. One keyfunc per issuer, loaded at construction.
type JWKSClient struct {
	keyfuncs map[string]keyfunc.Keyfunc
	verify   bool
}

// NewJWKSClient loads the JWKS for every configured issuer. A failing
// endpoint is a startup error, not a deferred one.
func NewJWKSClient(config *JWKSConfig) (*JWKSClient, error) {
	client := &JWKSClient{
		keyfuncs: make(map[string]keyfunc.Keyfunc, len(config.JWKSEndpoints)),
		verify:   config.EnableVerification,
	}
	if !client.verify {
		return client, nil
	}

	for issuer, jwksURL := range config.JWKSEndpoints {
		kf, err := keyfunc.NewDefaultCtx(context.Background(), []string{jwksURL})
		if err != nil {
			return nil, fmt.Errorf("failed to load JWKS for issuer %s: %w", issuer, err)
		}
		client.keyfuncs[issuer] = kf
	}
	return client, nil
}

// ValidateToken verifies the RSA signature against the issuer's JWKS and
// returns the claims. With verification disabled it only parses the token.
func (c *JWKSClient) ValidateToken(tokenString string) (*Claims, error) {
	if !c.verify {
		return c.parseUnverified(tokenString)
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		claims, ok := token.Claims.(*Claims)
		if !ok {
			return nil, errors.New("invalid claims type")
		}
		kf, ok := c.keyfuncs[claims.Issuer]
		if !ok {
			return nil, fmt.Errorf("unauthorized issuer: %s", claims.Issuer)
		}
		return kf.KeyfuncCtx(context.Background())(token)
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}
	return claims, nil
}

// parseUnverified decodes the token without checking the signature or the
// registered claim set. Development-mode path only.
func (c *JWKSClient) parseUnverified(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, _, err := parser.ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}
	return claims, nil
}

// Close is a no-op; keyfunc v3 needs no explicit cleanup.
func (c *JWKSClient) Close() {}

var _ JWKSClientInterface = (*JWKSClient)(nil)
