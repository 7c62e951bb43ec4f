// Package repositories provides data access over the shared two-attribute
// key space. One physical table hosts every entity kind; rows are addressed
// by (Id, Attribute) and listed by begins-with prefix on Attribute, so one
// store contract serves condos, units, managers, periods, statements and
// allocations alike.
package repositories

import (
	"context"

	"github.com/google/uuid"
)

// ListSafetyCap bounds how many rows a single List call accumulates. The
// store paginates internally until the result set is exhausted or the cap is
// reached.
const ListSafetyCap = 100

// Row is one physical row of the entity table. Body is the full entity
// encoded as JSON; the key fields are duplicated inside it.
type Row struct {
	ID        uuid.UUID
	Attribute string
	Body      []byte
}

// EntityStore is the entity-kind-agnostic contract over the key space.
//
// Semantics:
//   - Put is an upsert; no uniqueness check is performed at this layer.
//     Callers that need duplicate detection must pre-check.
//   - Get returns (nil, nil) when the row is absent; an error only signals a
//     storage fault.
//   - List returns an empty slice for an empty result, never nil-on-empty.
//   - Update overwrites the full row and returns apperrors.ErrNotFound when
//     the identity does not exist.
//   - UpdateIf overwrites only when the named top-level body field currently
//     equals expected; a failed guard returns apperrors.ErrConflict.
//   - Delete verifies with a strongly consistent re-read that the row is
//     gone; a delete that cannot be confirmed absent returns
//     apperrors.ErrDeleteUnconfirmed.
type EntityStore interface {
	Put(ctx context.Context, row Row) error
	Get(ctx context.Context, id uuid.UUID, attribute string) (*Row, error)
	List(ctx context.Context, id uuid.UUID, prefix string) ([]Row, error)
	Update(ctx context.Context, row Row) error
	UpdateIf(ctx context.Context, row Row, field, expected string) error
	Delete(ctx context.Context, id uuid.UUID, attribute string) error
}
