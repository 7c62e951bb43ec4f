package repositories

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omexus/aqua-sub000/pkg/apperrors"
)

func TestMemoryEntityStore_PutGet(t *testing.T) {
	store := NewMemoryEntityStore()
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, store.Put(ctx, Row{ID: id, Attribute: "CONDO", Body: []byte(`{"name":"Aqua"}`)}))

	row, err := store.Get(ctx, id, "CONDO")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.JSONEq(t, `{"name":"Aqua"}`, string(row.Body))

	// Put is an upsert.
	require.NoError(t, store.Put(ctx, Row{ID: id, Attribute: "CONDO", Body: []byte(`{"name":"Marina"}`)}))
	row, err = store.Get(ctx, id, "CONDO")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Marina"}`, string(row.Body))
}

func TestMemoryEntityStore_GetMissingReturnsNil(t *testing.T) {
	store := NewMemoryEntityStore()

	row, err := store.Get(context.Background(), uuid.New(), "CONDO")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestMemoryEntityStore_ListPrefixIsolation(t *testing.T) {
	store := NewMemoryEntityStore()
	ctx := context.Background()
	id := uuid.New()

	// A mixed partition: listing one kind must never surface another.
	rows := map[string]string{
		"CONDO":                    `{"k":"condo"}`,
		"UID#101":                  `{"k":"unit"}`,
		"UID#102":                  `{"k":"unit"}`,
		"PER#20240301":             `{"k":"period"}`,
		"STMT#PER#20240301#w.pdf":  `{"k":"statement"}`,
		"ALLOCATION#abc#101":       `{"k":"allocation"}`,
		"MANAGERCONDO#" + id.String(): `{"k":"grant"}`,
	}
	for attr, body := range rows {
		require.NoError(t, store.Put(ctx, Row{ID: id, Attribute: attr, Body: []byte(body)}))
	}

	units, err := store.List(ctx, id, "UID#")
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "UID#101", units[0].Attribute)
	assert.Equal(t, "UID#102", units[1].Attribute)

	periods, err := store.List(ctx, id, "PER#")
	require.NoError(t, err)
	assert.Len(t, periods, 1)

	statements, err := store.List(ctx, id, "STMT#PER#")
	require.NoError(t, err)
	assert.Len(t, statements, 1)

	allocations, err := store.List(ctx, id, "ALLOCATION#")
	require.NoError(t, err)
	assert.Len(t, allocations, 1)
}

func TestMemoryEntityStore_ListEmptyPartition(t *testing.T) {
	store := NewMemoryEntityStore()

	rows, err := store.List(context.Background(), uuid.New(), "UID#")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMemoryEntityStore_ListSafetyCap(t *testing.T) {
	store := NewMemoryEntityStore()
	ctx := context.Background()
	id := uuid.New()

	for i := 0; i < ListSafetyCap+20; i++ {
		attr := fmt.Sprintf("UID#%03d", i)
		require.NoError(t, store.Put(ctx, Row{ID: id, Attribute: attr, Body: []byte(`{}`)}))
	}

	rows, err := store.List(ctx, id, "UID#")
	require.NoError(t, err)
	assert.Len(t, rows, ListSafetyCap)
}

func TestMemoryEntityStore_UpdateMissing(t *testing.T) {
	store := NewMemoryEntityStore()

	err := store.Update(context.Background(), Row{ID: uuid.New(), Attribute: "CONDO", Body: []byte(`{}`)})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMemoryEntityStore_UpdateIf(t *testing.T) {
	store := NewMemoryEntityStore()
	ctx := context.Background()
	id := uuid.New()
	attr := "STMT#PER#20240301#w.pdf"

	require.NoError(t, store.Put(ctx, Row{ID: id, Attribute: attr, Body: []byte(`{"status":"PENDING"}`)}))

	// Matching guard succeeds and replaces the body.
	err := store.UpdateIf(ctx, Row{ID: id, Attribute: attr, Body: []byte(`{"status":"ALLOCATED"}`)}, "status", "PENDING")
	require.NoError(t, err)

	// The guard no longer matches.
	err = store.UpdateIf(ctx, Row{ID: id, Attribute: attr, Body: []byte(`{"status":"ALLOCATED"}`)}, "status", "PENDING")
	require.ErrorIs(t, err, apperrors.ErrConflict)

	// Absent row is not-found, not conflict.
	err = store.UpdateIf(ctx, Row{ID: id, Attribute: "STMT#PER#20240301#x.pdf", Body: []byte(`{}`)}, "status", "PENDING")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMemoryEntityStore_DeleteVerifies(t *testing.T) {
	store := NewMemoryEntityStore()
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, store.Put(ctx, Row{ID: id, Attribute: "UID#101", Body: []byte(`{}`)}))
	require.NoError(t, store.Delete(ctx, id, "UID#101"))

	row, err := store.Get(ctx, id, "UID#101")
	require.NoError(t, err)
	assert.Nil(t, row)

	// Deleting an absent row verifies clean.
	require.NoError(t, store.Delete(ctx, id, "UID#101"))
}

func TestMemoryEntityStore_DeleteUnconfirmed(t *testing.T) {
	store := NewMemoryEntityStore()
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, store.Put(ctx, Row{ID: id, Attribute: "UID#101", Body: []byte(`{}`)}))

	store.FailDeletes = true
	err := store.Delete(ctx, id, "UID#101")
	require.ErrorIs(t, err, apperrors.ErrDeleteUnconfirmed)

	// The row survives the failed delete.
	row, gerr := store.Get(ctx, id, "UID#101")
	require.NoError(t, gerr)
	assert.NotNil(t, row)
}
