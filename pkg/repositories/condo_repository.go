package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/omexus/aqua-sub000/pkg/models"
)

// CondoRepository provides data access for condo entities.
type CondoRepository interface {
	Create(ctx context.Context, condo *models.Condo) error
	GetByID(ctx context.Context, condoID uuid.UUID) (*models.Condo, error)
	Update(ctx context.Context, condo *models.Condo) error
	Delete(ctx context.Context, condoID uuid.UUID) error
}

type condoRepository struct {
	store EntityStore
}

// NewCondoRepository creates a new CondoRepository.
func NewCondoRepository(store EntityStore) CondoRepository {
	return &condoRepository{store: store}
}

var _ CondoRepository = (*condoRepository)(nil)

func (r *condoRepository) Create(ctx context.Context, condo *models.Condo) error {
	if condo.ID == uuid.Nil {
		condo.ID = uuid.New()
	}
	condo.Attribute = condo.Key()
	now := time.Now().UTC()
	condo.CreatedAt = now
	condo.UpdatedAt = now
	return putEntity(ctx, r.store, condo.ID, condo.Attribute, condo)
}

func (r *condoRepository) GetByID(ctx context.Context, condoID uuid.UUID) (*models.Condo, error) {
	return getEntity[models.Condo](ctx, r.store, condoID, (&models.Condo{}).Key())
}

func (r *condoRepository) Update(ctx context.Context, condo *models.Condo) error {
	condo.UpdatedAt = time.Now().UTC()
	return updateEntity(ctx, r.store, condo.ID, condo.Key(), condo)
}

func (r *condoRepository) Delete(ctx context.Context, condoID uuid.UUID) error {
	return r.store.Delete(ctx, condoID, (&models.Condo{}).Key())
}
