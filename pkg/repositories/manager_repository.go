package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/omexus/aqua-sub000/pkg/keyspace"
	"github.com/omexus/aqua-sub000/pkg/models"
)

// ManagerRepository provides data access for manager profiles and their
// per-condo grants.
type ManagerRepository interface {
	Upsert(ctx context.Context, manager *models.Manager) error
	GetByID(ctx context.Context, managerID uuid.UUID) (*models.Manager, error)

	Grant(ctx context.Context, grant *models.ManagerCondo) error
	GetGrant(ctx context.Context, managerID, condoID uuid.UUID) (*models.ManagerCondo, error)
	ListGrants(ctx context.Context, managerID uuid.UUID) ([]*models.ManagerCondo, error)
	Revoke(ctx context.Context, managerID, condoID uuid.UUID) error
}

type managerRepository struct {
	store EntityStore
}

// NewManagerRepository creates a new ManagerRepository.
func NewManagerRepository(store EntityStore) ManagerRepository {
	return &managerRepository{store: store}
}

var _ ManagerRepository = (*managerRepository)(nil)

func (r *managerRepository) Upsert(ctx context.Context, manager *models.Manager) error {
	if manager.ID == uuid.Nil {
		manager.ID = uuid.New()
	}
	manager.Attribute = manager.Key()
	now := time.Now().UTC()
	if manager.CreatedAt.IsZero() {
		manager.CreatedAt = now
	}
	manager.UpdatedAt = now
	return putEntity(ctx, r.store, manager.ID, manager.Attribute, manager)
}

func (r *managerRepository) GetByID(ctx context.Context, managerID uuid.UUID) (*models.Manager, error) {
	return getEntity[models.Manager](ctx, r.store, managerID, (&models.Manager{}).Key())
}

func (r *managerRepository) Grant(ctx context.Context, grant *models.ManagerCondo) error {
	grant.Attribute = grant.Key()
	if grant.AssignedAt.IsZero() {
		grant.AssignedAt = time.Now().UTC()
	}
	return putEntity(ctx, r.store, grant.ManagerID, grant.Attribute, grant)
}

func (r *managerRepository) GetGrant(ctx context.Context, managerID, condoID uuid.UUID) (*models.ManagerCondo, error) {
	return getEntity[models.ManagerCondo](ctx, r.store, managerID, keyspace.ManagerCondoKey(condoID))
}

func (r *managerRepository) ListGrants(ctx context.Context, managerID uuid.UUID) ([]*models.ManagerCondo, error) {
	return listEntities[models.ManagerCondo](ctx, r.store, managerID, keyspace.ManagerCondoListPrefix())
}

func (r *managerRepository) Revoke(ctx context.Context, managerID, condoID uuid.UUID) error {
	return r.store.Delete(ctx, managerID, keyspace.ManagerCondoKey(condoID))
}
