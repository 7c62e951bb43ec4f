// Package services implements the application's business operations on top
// of the key-space repositories.
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omexus/aqua-sub000/pkg/apperrors"
	"github.com/omexus/aqua-sub000/pkg/models"
	"github.com/omexus/aqua-sub000/pkg/repositories"
)

// ErrUnsupportedMethod is returned for allocation method strings outside the
// accepted set.
var ErrUnsupportedMethod = errors.New("unsupported allocation method")

// ErrInvalidManualAmounts is returned when a MANUAL allocation request's
// amounts do not cover every unit or do not sum to the statement total.
var ErrInvalidManualAmounts = errors.New("invalid manual amounts")

// centEpsilon is the tolerance used when checking that manual amounts sum to
// the statement total.
const centEpsilon = 0.005

// AllocationResult is the outcome of one allocation run. Persistence of the
// per-unit rows is not transactional, so failures are reported per item
// rather than collapsing the whole run into a single boolean.
type AllocationResult struct {
	Allocations []*models.UnitAllocation `json:"allocations"`
	TotalAmount float64                  `json:"total_amount"`
	Failed      []AllocationFailure      `json:"failed,omitempty"`
}

// AllocationFailure records one unit whose allocation row could not be persisted.
type AllocationFailure struct {
	UnitNumber string `json:"unit_number"`
	Error      string `json:"error"`
}

// AllocationService computes and persists per-unit cost breakdowns for
// shared utility statements.
type AllocationService interface {
	// AllocateStatement splits the statement total across the condo's units
	// under the given method and persists one allocation row per unit. The
	// statement is claimed with a conditional PENDING -> ALLOCATED write, so
	// a repeated or concurrent call fails with apperrors.ErrAlreadyAllocated
	// instead of duplicating rows. manualAmounts is required for MANUAL and
	// ignored otherwise.
	AllocateStatement(ctx context.Context, condoID, statementID uuid.UUID, method, actorID string, manualAmounts map[string]float64) (*AllocationResult, error)

	// GetStatementAllocations returns every allocation derived from one statement.
	GetStatementAllocations(ctx context.Context, condoID, statementID uuid.UUID) ([]*models.UnitAllocation, error)

	// GetUnitAllocations returns one unit's allocations across statements,
	// optionally restricted to a billing period (yyyyMMdd, empty for all).
	GetUnitAllocations(ctx context.Context, condoID uuid.UUID, unitNumber, period string) ([]*models.UnitAllocation, error)

	// MarkAllocationPaid records payment of one unit's share. When every
	// share of the statement is paid the statement itself moves to PAID.
	MarkAllocationPaid(ctx context.Context, condoID, statementID uuid.UUID, unitNumber, paymentMethod string) (*models.UnitAllocation, error)
}

type allocationService struct {
	allocationRepo repositories.AllocationRepository
	statementRepo  repositories.StatementRepository
	unitRepo       repositories.UnitRepository
	logger         *zap.Logger
}

// NewAllocationService creates a new AllocationService.
func NewAllocationService(
	allocationRepo repositories.AllocationRepository,
	statementRepo repositories.StatementRepository,
	unitRepo repositories.UnitRepository,
	logger *zap.Logger,
) AllocationService {
	return &allocationService{
		allocationRepo: allocationRepo,
		statementRepo:  statementRepo,
		unitRepo:       unitRepo,
		logger:         logger,
	}
}

var _ AllocationService = (*allocationService)(nil)

func (s *allocationService) AllocateStatement(ctx context.Context, condoID, statementID uuid.UUID, method, actorID string, manualAmounts map[string]float64) (*AllocationResult, error) {
	method = strings.ToUpper(strings.TrimSpace(method))

	statement, err := s.statementRepo.GetByStatementID(ctx, condoID, statementID)
	if err != nil {
		return nil, fmt.Errorf("failed to load statement: %w", err)
	}
	if statement == nil {
		return nil, fmt.Errorf("statement %s: %w", statementID, apperrors.ErrNotFound)
	}
	if statement.Status != models.StatementStatusPending {
		return nil, apperrors.ErrAlreadyAllocated
	}

	units, err := s.unitRepo.ListByCondo(ctx, condoID)
	if err != nil {
		return nil, fmt.Errorf("failed to load units: %w", err)
	}
	if len(units) == 0 {
		return nil, apperrors.ErrNoUnits
	}

	shares, err := computeShares(method, statement.TotalAmount, units, manualAmounts)
	if err != nil {
		return nil, err
	}

	// Claim the statement before writing any allocation row. The conditional
	// write is the only guard against two concurrent allocation runs, so it
	// must happen first; a lost race surfaces as ErrConflict.
	now := time.Now().UTC()
	statement.Status = models.StatementStatusAllocated
	statement.IsAllocated = true
	statement.AllocatedAt = &now
	statement.AllocatedUnits = len(units)
	if err := s.statementRepo.ClaimForAllocation(ctx, statement); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.ErrAlreadyAllocated
		}
		return nil, fmt.Errorf("failed to claim statement for allocation: %w", err)
	}

	result := &AllocationResult{Allocations: make([]*models.UnitAllocation, 0, len(units))}
	for i, unit := range units {
		allocation := &models.UnitAllocation{
			CondoID:         condoID,
			StatementID:     statement.StatementID,
			UnitNumber:      unit.UnitNumber,
			Period:          statement.Period,
			UtilityType:     statement.UtilityType,
			AllocatedAmount: shares[i].amount,
			Percentage:      shares[i].percentage,
			Method:          method,
			OwnerName:       unit.OwnerName,
			OwnerEmail:      unit.OwnerEmail,
			CreatedBy:       actorID,
			CreatedAt:       now,
		}

		if err := s.allocationRepo.Create(ctx, allocation); err != nil {
			s.logger.Error("Failed to persist unit allocation",
				zap.String("condo_id", condoID.String()),
				zap.String("statement_id", statement.StatementID.String()),
				zap.String("unit_number", unit.UnitNumber),
				zap.Error(err))
			result.Failed = append(result.Failed, AllocationFailure{
				UnitNumber: unit.UnitNumber,
				Error:      err.Error(),
			})
			continue
		}

		result.Allocations = append(result.Allocations, allocation)
		result.TotalAmount += allocation.AllocatedAmount
	}

	s.logger.Info("Statement allocated",
		zap.String("condo_id", condoID.String()),
		zap.String("statement_id", statement.StatementID.String()),
		zap.String("method", method),
		zap.Int("units", len(units)),
		zap.Int("failed", len(result.Failed)))

	return result, nil
}

func (s *allocationService) GetStatementAllocations(ctx context.Context, condoID, statementID uuid.UUID) ([]*models.UnitAllocation, error) {
	return s.allocationRepo.ListByStatement(ctx, condoID, statementID)
}

func (s *allocationService) GetUnitAllocations(ctx context.Context, condoID uuid.UUID, unitNumber, period string) ([]*models.UnitAllocation, error) {
	all, err := s.allocationRepo.ListByCondo(ctx, condoID)
	if err != nil {
		return nil, err
	}

	matches := make([]*models.UnitAllocation, 0)
	for _, allocation := range all {
		if allocation.UnitNumber != unitNumber {
			continue
		}
		if period != "" && allocation.Period != period {
			continue
		}
		matches = append(matches, allocation)
	}
	return matches, nil
}

func (s *allocationService) MarkAllocationPaid(ctx context.Context, condoID, statementID uuid.UUID, unitNumber, paymentMethod string) (*models.UnitAllocation, error) {
	allocation, err := s.allocationRepo.Get(ctx, condoID, statementID, unitNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocation: %w", err)
	}
	if allocation == nil {
		return nil, fmt.Errorf("allocation for unit %s: %w", unitNumber, apperrors.ErrNotFound)
	}

	now := time.Now().UTC()
	allocation.IsPaid = true
	allocation.PaidAt = &now
	allocation.PaymentMethod = paymentMethod
	if err := s.allocationRepo.Update(ctx, allocation); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	if err := s.settleStatementIfPaid(ctx, condoID, statementID); err != nil {
		// Payment itself succeeded; the statement status catch-up is retried
		// on the next payment.
		s.logger.Warn("Failed to settle statement after payment",
			zap.String("statement_id", statementID.String()),
			zap.Error(err))
	}

	return allocation, nil
}

// settleStatementIfPaid moves the statement to PAID once every allocation
// row carries a payment.
func (s *allocationService) settleStatementIfPaid(ctx context.Context, condoID, statementID uuid.UUID) error {
	allocations, err := s.allocationRepo.ListByStatement(ctx, condoID, statementID)
	if err != nil {
		return err
	}
	for _, allocation := range allocations {
		if !allocation.IsPaid {
			return nil
		}
	}

	statement, err := s.statementRepo.GetByStatementID(ctx, condoID, statementID)
	if err != nil || statement == nil {
		return err
	}
	statement.Status = models.StatementStatusPaid
	return s.statementRepo.Update(ctx, statement)
}

// share is one unit's computed slice of a statement total.
type share struct {
	amount     float64
	percentage float64
}

// computeShares dispatches to the calculation strategy for the method. The
// returned slice is index-aligned with units.
func computeShares(method string, total float64, units []*models.DwellUnit, manualAmounts map[string]float64) ([]share, error) {
	switch method {
	case models.AllocationMethodEqual, models.AllocationMethodByUnits:
		// BY_UNITS is reserved for per-unit-type weighting and currently
		// behaves as EQUAL.
		return computeEqual(total, len(units)), nil
	case models.AllocationMethodBySquareFoot:
		return computeBySquareFoot(total, units), nil
	case models.AllocationMethodManual:
		return computeManual(total, units, manualAmounts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}
}

func computeEqual(total float64, count int) []share {
	shares := make([]share, count)
	amount := total / float64(count)
	percentage := 100 / float64(count)
	for i := range shares {
		shares[i] = share{amount: amount, percentage: percentage}
	}
	absorbRemainder(shares, total)
	return shares
}

func computeBySquareFoot(total float64, units []*models.DwellUnit) []share {
	var totalFootage float64
	for _, unit := range units {
		totalFootage += unit.SquareFootage
	}
	if totalFootage == 0 {
		// No unit has recorded footage; weighting degenerates to EQUAL.
		return computeEqual(total, len(units))
	}

	shares := make([]share, len(units))
	for i, unit := range units {
		fraction := unit.SquareFootage / totalFootage
		shares[i] = share{
			amount:     total * fraction,
			percentage: fraction * 100,
		}
	}
	absorbRemainder(shares, total)
	return shares
}

func computeManual(total float64, units []*models.DwellUnit, manualAmounts map[string]float64) ([]share, error) {
	if len(manualAmounts) == 0 {
		return nil, fmt.Errorf("%w: manual amounts are required for MANUAL", ErrInvalidManualAmounts)
	}

	shares := make([]share, len(units))
	var sum float64
	for i, unit := range units {
		amount, ok := manualAmounts[unit.UnitNumber]
		if !ok {
			return nil, fmt.Errorf("%w: no manual amount for unit %s", ErrInvalidManualAmounts, unit.UnitNumber)
		}
		if amount < 0 {
			return nil, fmt.Errorf("%w: negative manual amount for unit %s", ErrInvalidManualAmounts, unit.UnitNumber)
		}
		percentage := 0.0
		if total > 0 {
			percentage = amount / total * 100
		}
		shares[i] = share{amount: amount, percentage: percentage}
		sum += amount
	}

	if math.Abs(sum-total) > centEpsilon {
		return nil, fmt.Errorf("%w: manual amounts sum to %.2f, statement total is %.2f", ErrInvalidManualAmounts, sum, total)
	}
	return shares, nil
}

// absorbRemainder assigns the final unit whatever is left of the total after
// the preceding shares, so the persisted amounts sum cent-exactly.
func absorbRemainder(shares []share, total float64) {
	if len(shares) == 0 {
		return
	}
	var sum float64
	for i := 0; i < len(shares)-1; i++ {
		sum += shares[i].amount
	}
	shares[len(shares)-1].amount = total - sum
}
