package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omexus/aqua-sub000/pkg/apperrors"
	"github.com/omexus/aqua-sub000/pkg/keyspace"
	"github.com/omexus/aqua-sub000/pkg/models"
	"github.com/omexus/aqua-sub000/pkg/repositories"
)

// Permission names a manager capability within one condo.
type Permission string

const (
	PermissionUpload      Permission = "upload"
	PermissionAllocate    Permission = "allocate"
	PermissionManageUnits Permission = "manage_units"
)

// BulkResult reports a multi-item operation item by item. Bulk writes are not
// transactional, so callers get the succeeded and failed subsets instead of a
// single boolean.
type BulkResult struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []BulkFailure `json:"failed,omitempty"`
}

// BulkFailure records one item that could not be written.
type BulkFailure struct {
	Item  string `json:"item"`
	Error string `json:"error"`
}

// CondoService provisions condos, their dwelling units, manager profiles and
// manager-condo grants.
type CondoService interface {
	// CreateCondo provisions a condo and grants the creating manager full
	// permissions on it.
	CreateCondo(ctx context.Context, name, prefixCode, address string, creatorID uuid.UUID) (*models.Condo, error)
	GetCondo(ctx context.Context, condoID uuid.UUID) (*models.Condo, error)

	// CreateUnit adds one dwelling unit. Duplicate unit numbers within a
	// condo are a conflict.
	CreateUnit(ctx context.Context, unit *models.DwellUnit) error
	// CreateUnits adds several units, reporting per-item outcomes.
	CreateUnits(ctx context.Context, condoID uuid.UUID, units []*models.DwellUnit) (*BulkResult, error)
	ListUnits(ctx context.Context, condoID uuid.UUID) ([]*models.DwellUnit, error)
	UpdateUnit(ctx context.Context, unit *models.DwellUnit) error
	DeleteUnit(ctx context.Context, condoID uuid.UUID, unitNumber string) error

	UpsertManager(ctx context.Context, manager *models.Manager) error
	GetManager(ctx context.Context, managerID uuid.UUID) (*models.Manager, error)

	GrantCondo(ctx context.Context, grant *models.ManagerCondo) error
	// RevokeCondo removes a manager's grant on a condo.
	RevokeCondo(ctx context.Context, managerID, condoID uuid.UUID) error
	ListManagerCondos(ctx context.Context, managerID uuid.UUID) ([]*models.ManagerCondo, error)

	// RequirePermission fails with apperrors.ErrPermissionDenied unless the
	// manager holds the permission on the condo.
	RequirePermission(ctx context.Context, managerID, condoID uuid.UUID, permission Permission) error
}

type condoService struct {
	condoRepo   repositories.CondoRepository
	unitRepo    repositories.UnitRepository
	managerRepo repositories.ManagerRepository
	logger      *zap.Logger
}

// NewCondoService creates a new CondoService.
func NewCondoService(
	condoRepo repositories.CondoRepository,
	unitRepo repositories.UnitRepository,
	managerRepo repositories.ManagerRepository,
	logger *zap.Logger,
) CondoService {
	return &condoService{
		condoRepo:   condoRepo,
		unitRepo:    unitRepo,
		managerRepo: managerRepo,
		logger:      logger,
	}
}

var _ CondoService = (*condoService)(nil)

func (s *condoService) CreateCondo(ctx context.Context, name, prefixCode, address string, creatorID uuid.UUID) (*models.Condo, error) {
	if name == "" {
		return nil, fmt.Errorf("condo name is required")
	}
	if !keyspace.ValidSegment(prefixCode) {
		return nil, fmt.Errorf("invalid condo prefix code %q", prefixCode)
	}

	condo := &models.Condo{
		Name:       name,
		PrefixCode: prefixCode,
		Address:    address,
	}
	if err := s.condoRepo.Create(ctx, condo); err != nil {
		return nil, fmt.Errorf("failed to create condo: %w", err)
	}

	grant := &models.ManagerCondo{
		ManagerID:      creatorID,
		CondoID:        condo.ID,
		CanUpload:      true,
		CanAllocate:    true,
		CanManageUnits: true,
		AssignedBy:     creatorID.String(),
	}
	if err := s.managerRepo.Grant(ctx, grant); err != nil {
		return nil, fmt.Errorf("failed to grant condo to creator: %w", err)
	}

	s.logger.Info("Condo provisioned",
		zap.String("condo_id", condo.ID.String()),
		zap.String("prefix_code", prefixCode),
		zap.String("created_by", creatorID.String()))
	return condo, nil
}

func (s *condoService) GetCondo(ctx context.Context, condoID uuid.UUID) (*models.Condo, error) {
	condo, err := s.condoRepo.GetByID(ctx, condoID)
	if err != nil {
		return nil, err
	}
	if condo == nil {
		return nil, fmt.Errorf("condo %s: %w", condoID, apperrors.ErrNotFound)
	}
	return condo, nil
}

func (s *condoService) CreateUnit(ctx context.Context, unit *models.DwellUnit) error {
	if !keyspace.ValidSegment(unit.UnitNumber) {
		return fmt.Errorf("invalid unit number %q", unit.UnitNumber)
	}

	// Put is an upsert, so duplicates must be rejected here.
	existing, err := s.unitRepo.GetByNumber(ctx, unit.CondoID, unit.UnitNumber)
	if err != nil {
		return fmt.Errorf("failed to check unit: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("unit %s: %w", unit.UnitNumber, apperrors.ErrConflict)
	}

	if err := s.unitRepo.Create(ctx, unit); err != nil {
		return fmt.Errorf("failed to create unit: %w", err)
	}
	return nil
}

func (s *condoService) CreateUnits(ctx context.Context, condoID uuid.UUID, units []*models.DwellUnit) (*BulkResult, error) {
	result := &BulkResult{Succeeded: make([]string, 0, len(units))}
	for _, unit := range units {
		unit.CondoID = condoID
		if err := s.CreateUnit(ctx, unit); err != nil {
			result.Failed = append(result.Failed, BulkFailure{Item: unit.UnitNumber, Error: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, unit.UnitNumber)
	}

	if len(result.Failed) > 0 {
		s.logger.Warn("Bulk unit creation completed with failures",
			zap.String("condo_id", condoID.String()),
			zap.Int("succeeded", len(result.Succeeded)),
			zap.Int("failed", len(result.Failed)))
	}
	return result, nil
}

func (s *condoService) ListUnits(ctx context.Context, condoID uuid.UUID) ([]*models.DwellUnit, error) {
	return s.unitRepo.ListByCondo(ctx, condoID)
}

func (s *condoService) UpdateUnit(ctx context.Context, unit *models.DwellUnit) error {
	return s.unitRepo.Update(ctx, unit)
}

func (s *condoService) DeleteUnit(ctx context.Context, condoID uuid.UUID, unitNumber string) error {
	return s.unitRepo.Delete(ctx, condoID, unitNumber)
}

func (s *condoService) UpsertManager(ctx context.Context, manager *models.Manager) error {
	return s.managerRepo.Upsert(ctx, manager)
}

func (s *condoService) GetManager(ctx context.Context, managerID uuid.UUID) (*models.Manager, error) {
	manager, err := s.managerRepo.GetByID(ctx, managerID)
	if err != nil {
		return nil, err
	}
	if manager == nil {
		return nil, fmt.Errorf("manager %s: %w", managerID, apperrors.ErrNotFound)
	}
	return manager, nil
}

func (s *condoService) GrantCondo(ctx context.Context, grant *models.ManagerCondo) error {
	return s.managerRepo.Grant(ctx, grant)
}

func (s *condoService) RevokeCondo(ctx context.Context, managerID, condoID uuid.UUID) error {
	if err := s.managerRepo.Revoke(ctx, managerID, condoID); err != nil {
		return fmt.Errorf("failed to revoke grant: %w", err)
	}
	s.logger.Info("Condo grant revoked",
		zap.String("manager_id", managerID.String()),
		zap.String("condo_id", condoID.String()))
	return nil
}

func (s *condoService) ListManagerCondos(ctx context.Context, managerID uuid.UUID) ([]*models.ManagerCondo, error) {
	return s.managerRepo.ListGrants(ctx, managerID)
}

func (s *condoService) RequirePermission(ctx context.Context, managerID, condoID uuid.UUID, permission Permission) error {
	grant, err := s.managerRepo.GetGrant(ctx, managerID, condoID)
	if err != nil {
		return fmt.Errorf("failed to load grant: %w", err)
	}
	if grant == nil {
		return apperrors.ErrPermissionDenied
	}

	allowed := false
	switch permission {
	case PermissionUpload:
		allowed = grant.CanUpload
	case PermissionAllocate:
		allowed = grant.CanAllocate
	case PermissionManageUnits:
		allowed = grant.CanManageUnits
	}
	if !allowed {
		return apperrors.ErrPermissionDenied
	}
	return nil
}
