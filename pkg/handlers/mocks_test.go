package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/omexus/aqua-sub000/pkg/auth"
	"github.com/omexus/aqua-sub000/pkg/models"
	"github.com/omexus/aqua-sub000/pkg/services"
)

// authedRequest attaches manager claims to the request context, standing in
// for the auth middleware.
func authedRequest(r *http.Request, managerID uuid.UUID) *http.Request {
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: managerID.String()},
	}
	ctx := context.WithValue(r.Context(), auth.ClaimsKey, claims)
	return r.WithContext(ctx)
}

// mockAllocationService implements services.AllocationService with function fields.
type mockAllocationService struct {
	allocateFn    func(ctx context.Context, condoID, statementID uuid.UUID, method, actorID string, manualAmounts map[string]float64) (*services.AllocationResult, error)
	byStatementFn func(ctx context.Context, condoID, statementID uuid.UUID) ([]*models.UnitAllocation, error)
	byUnitFn      func(ctx context.Context, condoID uuid.UUID, unitNumber, period string) ([]*models.UnitAllocation, error)
	markPaidFn    func(ctx context.Context, condoID, statementID uuid.UUID, unitNumber, paymentMethod string) (*models.UnitAllocation, error)
}

func (m *mockAllocationService) AllocateStatement(ctx context.Context, condoID, statementID uuid.UUID, method, actorID string, manualAmounts map[string]float64) (*services.AllocationResult, error) {
	return m.allocateFn(ctx, condoID, statementID, method, actorID, manualAmounts)
}

func (m *mockAllocationService) GetStatementAllocations(ctx context.Context, condoID, statementID uuid.UUID) ([]*models.UnitAllocation, error) {
	return m.byStatementFn(ctx, condoID, statementID)
}

func (m *mockAllocationService) GetUnitAllocations(ctx context.Context, condoID uuid.UUID, unitNumber, period string) ([]*models.UnitAllocation, error) {
	return m.byUnitFn(ctx, condoID, unitNumber, period)
}

func (m *mockAllocationService) MarkAllocationPaid(ctx context.Context, condoID, statementID uuid.UUID, unitNumber, paymentMethod string) (*models.UnitAllocation, error) {
	return m.markPaidFn(ctx, condoID, statementID, unitNumber, paymentMethod)
}

// mockCondoService implements services.CondoService. Only the methods the
// handler under test touches need function fields.
type mockCondoService struct {
	requirePermissionFn func(ctx context.Context, managerID, condoID uuid.UUID, permission services.Permission) error
	getCondoFn          func(ctx context.Context, condoID uuid.UUID) (*models.Condo, error)
}

func (m *mockCondoService) CreateCondo(ctx context.Context, name, prefixCode, address string, creatorID uuid.UUID) (*models.Condo, error) {
	panic("not implemented")
}

func (m *mockCondoService) GetCondo(ctx context.Context, condoID uuid.UUID) (*models.Condo, error) {
	if m.getCondoFn != nil {
		return m.getCondoFn(ctx, condoID)
	}
	return &models.Condo{ID: condoID, Name: "Test Condo", PrefixCode: "TEST"}, nil
}

func (m *mockCondoService) CreateUnit(ctx context.Context, unit *models.DwellUnit) error {
	panic("not implemented")
}

func (m *mockCondoService) CreateUnits(ctx context.Context, condoID uuid.UUID, units []*models.DwellUnit) (*services.BulkResult, error) {
	panic("not implemented")
}

func (m *mockCondoService) ListUnits(ctx context.Context, condoID uuid.UUID) ([]*models.DwellUnit, error) {
	panic("not implemented")
}

func (m *mockCondoService) UpdateUnit(ctx context.Context, unit *models.DwellUnit) error {
	panic("not implemented")
}

func (m *mockCondoService) DeleteUnit(ctx context.Context, condoID uuid.UUID, unitNumber string) error {
	panic("not implemented")
}

func (m *mockCondoService) UpsertManager(ctx context.Context, manager *models.Manager) error {
	panic("not implemented")
}

func (m *mockCondoService) GetManager(ctx context.Context, managerID uuid.UUID) (*models.Manager, error) {
	panic("not implemented")
}

func (m *mockCondoService) GrantCondo(ctx context.Context, grant *models.ManagerCondo) error {
	panic("not implemented")
}

func (m *mockCondoService) RevokeCondo(ctx context.Context, managerID, condoID uuid.UUID) error {
	panic("not implemented")
}

func (m *mockCondoService) ListManagerCondos(ctx context.Context, managerID uuid.UUID) ([]*models.ManagerCondo, error) {
	panic("not implemented")
}

func (m *mockCondoService) RequirePermission(ctx context.Context, managerID, condoID uuid.UUID, permission services.Permission) error {
	if m.requirePermissionFn != nil {
		return m.requirePermissionFn(ctx, managerID, condoID, permission)
	}
	return nil
}

// mockStatementService implements services.StatementService.
type mockStatementService struct {
	getStatementFn func(ctx context.Context, condoID, statementID uuid.UUID) (*models.Statement, error)
}

func (m *mockStatementService) DeclarePeriod(ctx context.Context, condoID uuid.UUID, start, end time.Time) (*models.Period, error) {
	panic("not implemented")
}

func (m *mockStatementService) ListPeriods(ctx context.Context, condoID uuid.UUID) ([]*models.Period, error) {
	panic("not implemented")
}

func (m *mockStatementService) DeclareStatement(ctx context.Context, condoID uuid.UUID, periodStart time.Time, utilityType, fileName, fileURL string, totalAmount float64, actorID string) (*models.Statement, error) {
	panic("not implemented")
}

func (m *mockStatementService) GetStatement(ctx context.Context, condoID, statementID uuid.UUID) (*models.Statement, error) {
	return m.getStatementFn(ctx, condoID, statementID)
}

func (m *mockStatementService) ListStatements(ctx context.Context, condoID uuid.UUID, period string) ([]*models.Statement, error) {
	panic("not implemented")
}
