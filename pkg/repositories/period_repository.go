package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/omexus/aqua-sub000/pkg/keyspace"
	"github.com/omexus/aqua-sub000/pkg/models"
)

// PeriodRepository provides data access for billing periods.
type PeriodRepository interface {
	Create(ctx context.Context, period *models.Period) error
	GetByStart(ctx context.Context, condoID uuid.UUID, start time.Time) (*models.Period, error)
	ListByCondo(ctx context.Context, condoID uuid.UUID) ([]*models.Period, error)
	Update(ctx context.Context, period *models.Period) error
}

type periodRepository struct {
	store EntityStore
}

// NewPeriodRepository creates a new PeriodRepository.
func NewPeriodRepository(store EntityStore) PeriodRepository {
	return &periodRepository{store: store}
}

var _ PeriodRepository = (*periodRepository)(nil)

func (r *periodRepository) Create(ctx context.Context, period *models.Period) error {
	period.Attribute = period.Key()
	period.PeriodID = keyspace.PeriodID(period.StartDate)
	now := time.Now().UTC()
	period.CreatedAt = now
	period.UpdatedAt = now
	return putEntity(ctx, r.store, period.CondoID, period.Attribute, period)
}

func (r *periodRepository) GetByStart(ctx context.Context, condoID uuid.UUID, start time.Time) (*models.Period, error) {
	return getEntity[models.Period](ctx, r.store, condoID, keyspace.PeriodKey(start))
}

func (r *periodRepository) ListByCondo(ctx context.Context, condoID uuid.UUID) ([]*models.Period, error) {
	return listEntities[models.Period](ctx, r.store, condoID, keyspace.PeriodListPrefix())
}

func (r *periodRepository) Update(ctx context.Context, period *models.Period) error {
	period.UpdatedAt = time.Now().UTC()
	return updateEntity(ctx, r.store, period.CondoID, period.Key(), period)
}
