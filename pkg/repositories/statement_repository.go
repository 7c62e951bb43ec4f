package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/omexus/aqua-sub000/pkg/keyspace"
	"github.com/omexus/aqua-sub000/pkg/models"
)

// StatementRepository provides data access for shared utility statements.
type StatementRepository interface {
	Create(ctx context.Context, statement *models.Statement) error
	// GetByStatementID resolves a statement by its own UUID. Statement rows
	// are keyed by (condo, period, file name), so this scans the condo's
	// statement prefix and matches on the embedded ID.
	GetByStatementID(ctx context.Context, condoID, statementID uuid.UUID) (*models.Statement, error)
	GetByKey(ctx context.Context, condoID uuid.UUID, period, fileName string) (*models.Statement, error)
	ListByPeriod(ctx context.Context, condoID uuid.UUID, period string) ([]*models.Statement, error)
	ListByCondo(ctx context.Context, condoID uuid.UUID) ([]*models.Statement, error)
	Update(ctx context.Context, statement *models.Statement) error
	// ClaimForAllocation transitions the statement PENDING -> ALLOCATED with
	// a conditional write. Returns apperrors.ErrConflict when the statement
	// is no longer PENDING, so concurrent allocation attempts cannot both
	// succeed.
	ClaimForAllocation(ctx context.Context, statement *models.Statement) error
}

type statementRepository struct {
	store EntityStore
}

// NewStatementRepository creates a new StatementRepository.
func NewStatementRepository(store EntityStore) StatementRepository {
	return &statementRepository{store: store}
}

var _ StatementRepository = (*statementRepository)(nil)

func (r *statementRepository) Create(ctx context.Context, statement *models.Statement) error {
	if statement.StatementID == uuid.Nil {
		statement.StatementID = uuid.New()
	}
	statement.Attribute = statement.Key()
	if statement.Status == "" {
		statement.Status = models.StatementStatusPending
	}
	now := time.Now().UTC()
	statement.CreatedAt = now
	statement.UpdatedAt = now
	return putEntity(ctx, r.store, statement.CondoID, statement.Attribute, statement)
}

func (r *statementRepository) GetByStatementID(ctx context.Context, condoID, statementID uuid.UUID) (*models.Statement, error) {
	statements, err := listEntities[models.Statement](ctx, r.store, condoID, keyspace.StatementListPrefix())
	if err != nil {
		return nil, err
	}
	for _, statement := range statements {
		if statement.StatementID == statementID {
			return statement, nil
		}
	}
	return nil, nil
}

func (r *statementRepository) GetByKey(ctx context.Context, condoID uuid.UUID, period, fileName string) (*models.Statement, error) {
	return getEntity[models.Statement](ctx, r.store, condoID, keyspace.StatementKey(period, fileName))
}

func (r *statementRepository) ListByPeriod(ctx context.Context, condoID uuid.UUID, period string) ([]*models.Statement, error) {
	return listEntities[models.Statement](ctx, r.store, condoID, keyspace.StatementPeriodPrefix(period))
}

func (r *statementRepository) ListByCondo(ctx context.Context, condoID uuid.UUID) ([]*models.Statement, error) {
	return listEntities[models.Statement](ctx, r.store, condoID, keyspace.StatementListPrefix())
}

func (r *statementRepository) Update(ctx context.Context, statement *models.Statement) error {
	statement.UpdatedAt = time.Now().UTC()
	return updateEntity(ctx, r.store, statement.CondoID, statement.Key(), statement)
}

func (r *statementRepository) ClaimForAllocation(ctx context.Context, statement *models.Statement) error {
	statement.UpdatedAt = time.Now().UTC()
	return updateEntityIf(ctx, r.store, statement.CondoID, statement.Key(), statement,
		"status", models.StatementStatusPending)
}
