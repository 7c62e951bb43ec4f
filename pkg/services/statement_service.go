package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omexus/aqua-sub000/pkg/apperrors"
	"github.com/omexus/aqua-sub000/pkg/keyspace"
	"github.com/omexus/aqua-sub000/pkg/models"
	"github.com/omexus/aqua-sub000/pkg/repositories"
)

// StatementService manages billing periods and the statements declared under
// them. File transfer is out of scope; statements carry the name and URL of
// an already-stored bill document.
type StatementService interface {
	// DeclarePeriod creates a billing period. The period identity is derived
	// from the start date (yyyyMMdd); declaring the same start twice is a
	// conflict.
	DeclarePeriod(ctx context.Context, condoID uuid.UUID, start, end time.Time) (*models.Period, error)

	// ListPeriods returns the condo's billing periods.
	ListPeriods(ctx context.Context, condoID uuid.UUID) ([]*models.Period, error)

	// DeclareStatement records one shared utility bill under an existing
	// period and adds its total to the period's running sum. A statement
	// with the same period and file name is a conflict.
	DeclareStatement(ctx context.Context, condoID uuid.UUID, periodStart time.Time, utilityType, fileName, fileURL string, totalAmount float64, actorID string) (*models.Statement, error)

	// GetStatement resolves a statement by its UUID.
	GetStatement(ctx context.Context, condoID, statementID uuid.UUID) (*models.Statement, error)

	// ListStatements returns the condo's statements, optionally restricted
	// to one period (yyyyMMdd, empty for all).
	ListStatements(ctx context.Context, condoID uuid.UUID, period string) ([]*models.Statement, error)
}

type statementService struct {
	statementRepo repositories.StatementRepository
	periodRepo    repositories.PeriodRepository
	condoRepo     repositories.CondoRepository
	logger        *zap.Logger
}

// NewStatementService creates a new StatementService.
func NewStatementService(
	statementRepo repositories.StatementRepository,
	periodRepo repositories.PeriodRepository,
	condoRepo repositories.CondoRepository,
	logger *zap.Logger,
) StatementService {
	return &statementService{
		statementRepo: statementRepo,
		periodRepo:    periodRepo,
		condoRepo:     condoRepo,
		logger:        logger,
	}
}

var _ StatementService = (*statementService)(nil)

func (s *statementService) DeclarePeriod(ctx context.Context, condoID uuid.UUID, start, end time.Time) (*models.Period, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("period end %s must be after start %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	existing, err := s.periodRepo.GetByStart(ctx, condoID, start)
	if err != nil {
		return nil, fmt.Errorf("failed to check period: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("period %s: %w", keyspace.PeriodID(start), apperrors.ErrConflict)
	}

	period := &models.Period{
		CondoID:   condoID,
		StartDate: start,
		EndDate:   end,
	}
	if err := s.periodRepo.Create(ctx, period); err != nil {
		return nil, fmt.Errorf("failed to create period: %w", err)
	}

	s.logger.Info("Billing period declared",
		zap.String("condo_id", condoID.String()),
		zap.String("period", period.PeriodID))
	return period, nil
}

func (s *statementService) ListPeriods(ctx context.Context, condoID uuid.UUID) ([]*models.Period, error) {
	return s.periodRepo.ListByCondo(ctx, condoID)
}

func (s *statementService) DeclareStatement(ctx context.Context, condoID uuid.UUID, periodStart time.Time, utilityType, fileName, fileURL string, totalAmount float64, actorID string) (*models.Statement, error) {
	if totalAmount <= 0 {
		return nil, fmt.Errorf("statement total must be positive, got %.2f", totalAmount)
	}

	period, err := s.periodRepo.GetByStart(ctx, condoID, periodStart)
	if err != nil {
		return nil, fmt.Errorf("failed to load period: %w", err)
	}
	if period == nil {
		return nil, fmt.Errorf("period %s: %w", keyspace.PeriodID(periodStart), apperrors.ErrNotFound)
	}

	existing, err := s.statementRepo.GetByKey(ctx, condoID, period.PeriodID, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to check statement: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("statement %s/%s: %w", period.PeriodID, fileName, apperrors.ErrConflict)
	}

	if fileURL == "" {
		// Bill documents live under the condo's short prefix code,
		// e.g. AQUA/20240301/water.pdf.
		condo, cerr := s.condoRepo.GetByID(ctx, condoID)
		if cerr != nil {
			return nil, fmt.Errorf("failed to load condo: %w", cerr)
		}
		if condo != nil {
			fileURL = fmt.Sprintf("%s/%s/%s", condo.PrefixCode, period.PeriodID, fileName)
		}
	}

	statement := &models.Statement{
		CondoID:     condoID,
		Period:      period.PeriodID,
		UtilityType: utilityType,
		FileName:    fileName,
		FileURL:     fileURL,
		TotalAmount: totalAmount,
		CreatedBy:   actorID,
	}
	if err := s.statementRepo.Create(ctx, statement); err != nil {
		return nil, fmt.Errorf("failed to create statement: %w", err)
	}

	period.TotalAmount += totalAmount
	if err := s.periodRepo.Update(ctx, period); err != nil {
		// The statement row exists; the period sum catches up next declare.
		s.logger.Warn("Failed to update period running total",
			zap.String("period", period.PeriodID),
			zap.Error(err))
	}

	s.logger.Info("Statement declared",
		zap.String("condo_id", condoID.String()),
		zap.String("statement_id", statement.StatementID.String()),
		zap.String("period", period.PeriodID),
		zap.String("utility_type", utilityType),
		zap.Float64("total_amount", totalAmount))
	return statement, nil
}

func (s *statementService) GetStatement(ctx context.Context, condoID, statementID uuid.UUID) (*models.Statement, error) {
	statement, err := s.statementRepo.GetByStatementID(ctx, condoID, statementID)
	if err != nil {
		return nil, err
	}
	if statement == nil {
		return nil, fmt.Errorf("statement %s: %w", statementID, apperrors.ErrNotFound)
	}
	return statement, nil
}

func (s *statementService) ListStatements(ctx context.Context, condoID uuid.UUID, period string) ([]*models.Statement, error) {
	if period == "" {
		return s.statementRepo.ListByCondo(ctx, condoID)
	}
	return s.statementRepo.ListByPeriod(ctx, condoID, period)
}
