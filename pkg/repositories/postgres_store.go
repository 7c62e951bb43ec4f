package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/omexus/aqua-sub000/pkg/apperrors"
	"github.com/omexus/aqua-sub000/pkg/database"
)

// listBatchSize is how many rows each underlying page query fetches while
// List accumulates up to ListSafetyCap.
const listBatchSize = 25

// postgresEntityStore implements EntityStore on the entities table. It is
// stateless; the condo-scoped connection is taken from the request context.
type postgresEntityStore struct{}

// NewPostgresEntityStore creates an EntityStore backed by PostgreSQL.
func NewPostgresEntityStore() EntityStore {
	return &postgresEntityStore{}
}

var _ EntityStore = (*postgresEntityStore)(nil)

func (s *postgresEntityStore) Put(ctx context.Context, row Row) error {
	scope, ok := database.GetCondoScope(ctx)
	if !ok {
		return fmt.Errorf("no condo scope in context")
	}

	query := `
		INSERT INTO entities (id, attribute, body, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (id, attribute)
		DO UPDATE SET body = EXCLUDED.body, updated_at = now()`

	if _, err := scope.Conn.Exec(ctx, query, row.ID, row.Attribute, row.Body); err != nil {
		return fmt.Errorf("failed to put entity %s/%s: %w", row.ID, row.Attribute, err)
	}
	return nil
}

func (s *postgresEntityStore) Get(ctx context.Context, id uuid.UUID, attribute string) (*Row, error) {
	scope, ok := database.GetCondoScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no condo scope in context")
	}

	query := `SELECT body FROM entities WHERE id = $1 AND attribute = $2`

	row := Row{ID: id, Attribute: attribute}
	err := scope.Conn.QueryRow(ctx, query, id, attribute).Scan(&row.Body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get entity %s/%s: %w", id, attribute, err)
	}
	return &row, nil
}

func (s *postgresEntityStore) List(ctx context.Context, id uuid.UUID, prefix string) ([]Row, error) {
	scope, ok := database.GetCondoScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no condo scope in context")
	}

	// Keyset pagination on attribute: fetch batches until the result set is
	// exhausted or the safety cap is hit.
	query := `
		SELECT attribute, body FROM entities
		WHERE id = $1 AND attribute LIKE $2 AND attribute > $3
		ORDER BY attribute
		LIMIT $4`

	pattern := escapeLikePrefix(prefix) + "%"
	rows := make([]Row, 0)
	lastKey := ""

	for len(rows) < ListSafetyCap {
		limit := listBatchSize
		if remaining := ListSafetyCap - len(rows); remaining < limit {
			limit = remaining
		}

		batch, err := scope.Conn.Query(ctx, query, id, pattern, lastKey, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list entities %s/%s*: %w", id, prefix, err)
		}

		fetched := 0
		for batch.Next() {
			row := Row{ID: id}
			if err := batch.Scan(&row.Attribute, &row.Body); err != nil {
				batch.Close()
				return nil, fmt.Errorf("failed to scan entity row: %w", err)
			}
			rows = append(rows, row)
			lastKey = row.Attribute
			fetched++
		}
		if err := batch.Err(); err != nil {
			return nil, fmt.Errorf("failed to list entities %s/%s*: %w", id, prefix, err)
		}

		if fetched < limit {
			break
		}
	}

	return rows, nil
}

func (s *postgresEntityStore) Update(ctx context.Context, row Row) error {
	scope, ok := database.GetCondoScope(ctx)
	if !ok {
		return fmt.Errorf("no condo scope in context")
	}

	query := `UPDATE entities SET body = $3, updated_at = now() WHERE id = $1 AND attribute = $2`

	tag, err := scope.Conn.Exec(ctx, query, row.ID, row.Attribute, row.Body)
	if err != nil {
		return fmt.Errorf("failed to update entity %s/%s: %w", row.ID, row.Attribute, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *postgresEntityStore) UpdateIf(ctx context.Context, row Row, field, expected string) error {
	scope, ok := database.GetCondoScope(ctx)
	if !ok {
		return fmt.Errorf("no condo scope in context")
	}

	query := `
		UPDATE entities SET body = $3, updated_at = now()
		WHERE id = $1 AND attribute = $2 AND body ->> $4 = $5`

	tag, err := scope.Conn.Exec(ctx, query, row.ID, row.Attribute, row.Body, field, expected)
	if err != nil {
		return fmt.Errorf("failed to conditionally update entity %s/%s: %w", row.ID, row.Attribute, err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a failed guard from a missing row.
		existing, gerr := s.Get(ctx, row.ID, row.Attribute)
		if gerr != nil {
			return gerr
		}
		if existing == nil {
			return apperrors.ErrNotFound
		}
		return apperrors.ErrConflict
	}
	return nil
}

func (s *postgresEntityStore) Delete(ctx context.Context, id uuid.UUID, attribute string) error {
	scope, ok := database.GetCondoScope(ctx)
	if !ok {
		return fmt.Errorf("no condo scope in context")
	}

	query := `DELETE FROM entities WHERE id = $1 AND attribute = $2`

	if _, err := scope.Conn.Exec(ctx, query, id, attribute); err != nil {
		return fmt.Errorf("failed to delete entity %s/%s: %w", id, attribute, err)
	}

	// Delete-then-verify: success is the row being absent on re-read.
	remaining, err := s.Get(ctx, id, attribute)
	if err != nil {
		return fmt.Errorf("failed to verify delete of %s/%s: %w", id, attribute, err)
	}
	if remaining != nil {
		return apperrors.ErrDeleteUnconfirmed
	}
	return nil
}

// escapeLikePrefix escapes LIKE metacharacters so a key prefix matches
// literally. File names inside statement keys may contain '_' or '%'.
func escapeLikePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix)
}
