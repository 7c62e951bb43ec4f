// Package auth provides JWT-based authentication for aqua-sub000.
// It validates manager tokens issued by the identity provider using
// JWKS endpoints.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for storing the raw JWT token string.
	TokenKey contextKey = "token"
)

// Claims represents the JWT claims structure for manager tokens.
// It embeds RegisteredClaims for standard JWT fields (sub, iss, exp, etc.)
// and adds custom claims for the manager profile. The subject is the
// manager's UUID; condo access is decided by stored grants, not the token.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"` // Manager email address
	Name  string `json:"name,omitempty"`  // Manager display name
	// CondoID optionally pins the token to a single condo. Tokens without
	// it rely on stored manager-condo grants alone.
	CondoID string `json:"cid,omitempty"`
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// GetToken retrieves the raw JWT token string from the request context.
// Returns empty string and false if token is not present.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// ManagerFromContext extracts the manager's UUID from JWT claims in context.
// Returns an error if not authenticated or the subject is not a UUID.
func ManagerFromContext(ctx context.Context) (uuid.UUID, error) {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return uuid.Nil, fmt.Errorf("authentication required: no claims in context")
	}

	if claims.Subject == "" {
		return uuid.Nil, fmt.Errorf("missing manager ID in JWT claims")
	}

	managerID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid manager ID format: %w", err)
	}
	return managerID, nil
}
