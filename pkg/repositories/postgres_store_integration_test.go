//go:build integration

package repositories_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omexus/aqua-sub000/pkg/apperrors"
	"github.com/omexus/aqua-sub000/pkg/database"
	"github.com/omexus/aqua-sub000/pkg/repositories"
	"github.com/omexus/aqua-sub000/pkg/testhelpers"
)

// scopedContext acquires a condo-scoped connection for the test and attaches
// it to the context the way the HTTP middleware does.
func scopedContext(t *testing.T, db *database.DB, condoID uuid.UUID) context.Context {
	t.Helper()
	scope, err := db.WithCondo(context.Background(), condoID)
	require.NoError(t, err)
	t.Cleanup(scope.Close)
	return database.SetCondoScope(context.Background(), scope)
}

func TestPostgresEntityStore_RoundTrip(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	store := repositories.NewPostgresEntityStore()
	condoID := uuid.New()
	ctx := scopedContext(t, testDB.DB, condoID)

	require.NoError(t, store.Put(ctx, repositories.Row{ID: condoID, Attribute: "CONDO", Body: []byte(`{"name":"Aqua"}`)}))

	row, err := store.Get(ctx, condoID, "CONDO")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.JSONEq(t, `{"name":"Aqua"}`, string(row.Body))

	// Upsert replaces the body in place.
	require.NoError(t, store.Put(ctx, repositories.Row{ID: condoID, Attribute: "CONDO", Body: []byte(`{"name":"Marina"}`)}))
	row, err = store.Get(ctx, condoID, "CONDO")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Marina"}`, string(row.Body))

	missing, err := store.Get(ctx, condoID, "UID#404")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPostgresEntityStore_ListPrefix(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	store := repositories.NewPostgresEntityStore()
	condoID := uuid.New()
	ctx := scopedContext(t, testDB.DB, condoID)

	for _, attr := range []string{"UID#101", "UID#102", "PER#20240301", "STMT#PER#20240301#w.pdf"} {
		require.NoError(t, store.Put(ctx, repositories.Row{ID: condoID, Attribute: attr, Body: []byte(`{}`)}))
	}

	units, err := store.List(ctx, condoID, "UID#")
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "UID#101", units[0].Attribute)
	assert.Equal(t, "UID#102", units[1].Attribute)

	// Listing is partition-scoped; another condo sees nothing.
	otherID := uuid.New()
	otherCtx := scopedContext(t, testDB.DB, otherID)
	rows, err := store.List(otherCtx, otherID, "UID#")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestPostgresEntityStore_LikeEscaping(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	store := repositories.NewPostgresEntityStore()
	condoID := uuid.New()
	ctx := scopedContext(t, testDB.DB, condoID)

	// '_' is a LIKE wildcard and must be escaped by the store.
	require.NoError(t, store.Put(ctx, repositories.Row{ID: condoID, Attribute: "UID#A_1", Body: []byte(`{}`)}))
	require.NoError(t, store.Put(ctx, repositories.Row{ID: condoID, Attribute: "UID#AB1", Body: []byte(`{}`)}))

	rows, err := store.List(ctx, condoID, "UID#A_")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "UID#A_1", rows[0].Attribute)
}

func TestPostgresEntityStore_UpdateIf(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	store := repositories.NewPostgresEntityStore()
	condoID := uuid.New()
	ctx := scopedContext(t, testDB.DB, condoID)

	attr := "STMT#PER#20240301#w.pdf"
	require.NoError(t, store.Put(ctx, repositories.Row{ID: condoID, Attribute: attr, Body: []byte(`{"status":"PENDING"}`)}))

	err := store.UpdateIf(ctx, repositories.Row{ID: condoID, Attribute: attr, Body: []byte(`{"status":"ALLOCATED"}`)}, "status", "PENDING")
	require.NoError(t, err)

	err = store.UpdateIf(ctx, repositories.Row{ID: condoID, Attribute: attr, Body: []byte(`{"status":"ALLOCATED"}`)}, "status", "PENDING")
	require.ErrorIs(t, err, apperrors.ErrConflict)

	err = store.UpdateIf(ctx, repositories.Row{ID: condoID, Attribute: "STMT#PER#20240301#x.pdf", Body: []byte(`{}`)}, "status", "PENDING")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostgresEntityStore_Delete(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	store := repositories.NewPostgresEntityStore()
	condoID := uuid.New()
	ctx := scopedContext(t, testDB.DB, condoID)

	require.NoError(t, store.Put(ctx, repositories.Row{ID: condoID, Attribute: "UID#101", Body: []byte(`{}`)}))
	require.NoError(t, store.Delete(ctx, condoID, "UID#101"))

	row, err := store.Get(ctx, condoID, "UID#101")
	require.NoError(t, err)
	assert.Nil(t, row)
}
