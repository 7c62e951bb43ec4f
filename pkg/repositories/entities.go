package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// The typed repositories below share these helpers to move between concrete
// entity types and the store's raw JSON rows. Key construction happens in the
// typed repositories via pkg/keyspace; nothing outside this package touches
// raw Attribute strings.

func putEntity[T any](ctx context.Context, store EntityStore, id uuid.UUID, attribute string, entity *T) error {
	body, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to encode entity %s/%s: %w", id, attribute, err)
	}
	return store.Put(ctx, Row{ID: id, Attribute: attribute, Body: body})
}

func getEntity[T any](ctx context.Context, store EntityStore, id uuid.UUID, attribute string) (*T, error) {
	row, err := store.Get(ctx, id, attribute)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}

	entity := new(T)
	if err := json.Unmarshal(row.Body, entity); err != nil {
		return nil, fmt.Errorf("failed to decode entity %s/%s: %w", id, attribute, err)
	}
	return entity, nil
}

func listEntities[T any](ctx context.Context, store EntityStore, id uuid.UUID, prefix string) ([]*T, error) {
	rows, err := store.List(ctx, id, prefix)
	if err != nil {
		return nil, err
	}

	entities := make([]*T, 0, len(rows))
	for _, row := range rows {
		entity := new(T)
		if err := json.Unmarshal(row.Body, entity); err != nil {
			return nil, fmt.Errorf("failed to decode entity %s/%s: %w", row.ID, row.Attribute, err)
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func updateEntity[T any](ctx context.Context, store EntityStore, id uuid.UUID, attribute string, entity *T) error {
	body, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to encode entity %s/%s: %w", id, attribute, err)
	}
	return store.Update(ctx, Row{ID: id, Attribute: attribute, Body: body})
}

func updateEntityIf[T any](ctx context.Context, store EntityStore, id uuid.UUID, attribute string, entity *T, field, expected string) error {
	body, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to encode entity %s/%s: %w", id, attribute, err)
	}
	return store.UpdateIf(ctx, Row{ID: id, Attribute: attribute, Body: body}, field, expected)
}
