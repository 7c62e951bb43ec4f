package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CondoScope wraps a connection with condo (tenant) context and ensures
// cleanup. The connection has app.current_condo_id set for RLS policy
// evaluation.
type CondoScope struct {
	Conn *pgxpool.Conn
}

// Close resets condo context and releases the connection to the pool.
// This MUST be called to prevent condo context from leaking to the next request.
func (s *CondoScope) Close() {
	if s.Conn == nil {
		return
	}
	// Reset the condo context before returning connection to pool
	_, _ = s.Conn.Exec(context.Background(), "RESET app.current_condo_id")
	s.Conn.Release()
}

// WithCondo acquires a connection and sets the condo context for RLS.
// The returned CondoScope MUST be closed with defer scope.Close().
func (db *DB) WithCondo(ctx context.Context, condoID uuid.UUID) (*CondoScope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	_, err = conn.Exec(ctx, "SELECT set_config('app.current_condo_id', $1, false)", condoID.String())
	if err != nil {
		conn.Release()
		return nil, err
	}

	return &CondoScope{Conn: conn}, nil
}

// WithoutCondo acquires a connection without condo context. Use this for
// cross-condo operations such as condo provisioning and manager lookups.
// The returned CondoScope MUST be closed with defer scope.Close().
func (db *DB) WithoutCondo(ctx context.Context) (*CondoScope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &CondoScope{Conn: conn}, nil
}
