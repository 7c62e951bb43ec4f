package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/omexus/aqua-sub000/pkg/keyspace"
	"github.com/omexus/aqua-sub000/pkg/models"
)

// UnitRepository provides data access for dwelling units within a condo.
type UnitRepository interface {
	Create(ctx context.Context, unit *models.DwellUnit) error
	GetByNumber(ctx context.Context, condoID uuid.UUID, unitNumber string) (*models.DwellUnit, error)
	ListByCondo(ctx context.Context, condoID uuid.UUID) ([]*models.DwellUnit, error)
	Update(ctx context.Context, unit *models.DwellUnit) error
	Delete(ctx context.Context, condoID uuid.UUID, unitNumber string) error
}

type unitRepository struct {
	store EntityStore
}

// NewUnitRepository creates a new UnitRepository.
func NewUnitRepository(store EntityStore) UnitRepository {
	return &unitRepository{store: store}
}

var _ UnitRepository = (*unitRepository)(nil)

func (r *unitRepository) Create(ctx context.Context, unit *models.DwellUnit) error {
	unit.Attribute = unit.Key()
	now := time.Now().UTC()
	unit.CreatedAt = now
	unit.UpdatedAt = now
	return putEntity(ctx, r.store, unit.CondoID, unit.Attribute, unit)
}

func (r *unitRepository) GetByNumber(ctx context.Context, condoID uuid.UUID, unitNumber string) (*models.DwellUnit, error) {
	return getEntity[models.DwellUnit](ctx, r.store, condoID, keyspace.UnitKey(unitNumber))
}

func (r *unitRepository) ListByCondo(ctx context.Context, condoID uuid.UUID) ([]*models.DwellUnit, error) {
	return listEntities[models.DwellUnit](ctx, r.store, condoID, keyspace.UnitListPrefix())
}

func (r *unitRepository) Update(ctx context.Context, unit *models.DwellUnit) error {
	unit.UpdatedAt = time.Now().UTC()
	return updateEntity(ctx, r.store, unit.CondoID, unit.Key(), unit)
}

func (r *unitRepository) Delete(ctx context.Context, condoID uuid.UUID, unitNumber string) error {
	return r.store.Delete(ctx, condoID, keyspace.UnitKey(unitNumber))
}
