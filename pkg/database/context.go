package database

import (
	"context"
)

type contextKey string

const (
	// CondoScopeKey is the context key for storing the condo-scoped database connection.
	CondoScopeKey contextKey = "condoScope"
)

// GetCondoScope retrieves the condo-scoped database connection from context.
// Returns nil and false if not present.
func GetCondoScope(ctx context.Context) (*CondoScope, bool) {
	scope, ok := ctx.Value(CondoScopeKey).(*CondoScope)
	return scope, ok
}

// SetCondoScope stores the condo-scoped database connection in context.
func SetCondoScope(ctx context.Context, scope *CondoScope) context.Context {
	return context.WithValue(ctx, CondoScopeKey, scope)
}
