package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/omexus/aqua-sub000/pkg/keyspace"
	"github.com/omexus/aqua-sub000/pkg/models"
)

// AllocationRepository provides data access for per-unit cost allocations.
type AllocationRepository interface {
	Create(ctx context.Context, allocation *models.UnitAllocation) error
	Get(ctx context.Context, condoID, statementID uuid.UUID, unitNumber string) (*models.UnitAllocation, error)
	ListByStatement(ctx context.Context, condoID, statementID uuid.UUID) ([]*models.UnitAllocation, error)
	// ListByCondo returns every allocation row of the condo; callers filter
	// by unit number or period in memory.
	ListByCondo(ctx context.Context, condoID uuid.UUID) ([]*models.UnitAllocation, error)
	Update(ctx context.Context, allocation *models.UnitAllocation) error
}

type allocationRepository struct {
	store EntityStore
}

// NewAllocationRepository creates a new AllocationRepository.
func NewAllocationRepository(store EntityStore) AllocationRepository {
	return &allocationRepository{store: store}
}

var _ AllocationRepository = (*allocationRepository)(nil)

func (r *allocationRepository) Create(ctx context.Context, allocation *models.UnitAllocation) error {
	allocation.Attribute = allocation.Key()
	if allocation.CreatedAt.IsZero() {
		allocation.CreatedAt = time.Now().UTC()
	}
	return putEntity(ctx, r.store, allocation.CondoID, allocation.Attribute, allocation)
}

func (r *allocationRepository) Get(ctx context.Context, condoID, statementID uuid.UUID, unitNumber string) (*models.UnitAllocation, error) {
	return getEntity[models.UnitAllocation](ctx, r.store, condoID, keyspace.AllocationKey(statementID, unitNumber))
}

func (r *allocationRepository) ListByStatement(ctx context.Context, condoID, statementID uuid.UUID) ([]*models.UnitAllocation, error) {
	return listEntities[models.UnitAllocation](ctx, r.store, condoID, keyspace.AllocationStatementPrefix(statementID))
}

func (r *allocationRepository) ListByCondo(ctx context.Context, condoID uuid.UUID) ([]*models.UnitAllocation, error) {
	return listEntities[models.UnitAllocation](ctx, r.store, condoID, keyspace.AllocationListPrefix())
}

func (r *allocationRepository) Update(ctx context.Context, allocation *models.UnitAllocation) error {
	return updateEntity(ctx, r.store, allocation.CondoID, allocation.Key(), allocation)
}
