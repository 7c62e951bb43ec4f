package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omexus/aqua-sub000/pkg/apperrors"
	"github.com/omexus/aqua-sub000/pkg/models"
	"github.com/omexus/aqua-sub000/pkg/repositories"
)

type allocationFixture struct {
	service        AllocationService
	statementRepo  repositories.StatementRepository
	allocationRepo repositories.AllocationRepository
	unitRepo       repositories.UnitRepository
	condoID        uuid.UUID
}

func newAllocationFixture(t *testing.T) *allocationFixture {
	t.Helper()

	store := repositories.NewMemoryEntityStore()
	statementRepo := repositories.NewStatementRepository(store)
	allocationRepo := repositories.NewAllocationRepository(store)
	unitRepo := repositories.NewUnitRepository(store)

	return &allocationFixture{
		service:        NewAllocationService(allocationRepo, statementRepo, unitRepo, zap.NewNop()),
		statementRepo:  statementRepo,
		allocationRepo: allocationRepo,
		unitRepo:       unitRepo,
		condoID:        uuid.New(),
	}
}

func (f *allocationFixture) addUnit(t *testing.T, unitNumber string, footage float64) {
	t.Helper()
	err := f.unitRepo.Create(context.Background(), &models.DwellUnit{
		CondoID:       f.condoID,
		UnitNumber:    unitNumber,
		OwnerName:     "Owner " + unitNumber,
		OwnerEmail:    "owner" + unitNumber + "@example.com",
		SquareFootage: footage,
	})
	require.NoError(t, err)
}

func (f *allocationFixture) addStatement(t *testing.T, total float64) *models.Statement {
	t.Helper()
	statement := &models.Statement{
		CondoID:     f.condoID,
		Period:      "20240301",
		UtilityType: "WATER",
		FileName:    "water.pdf",
		TotalAmount: total,
	}
	require.NoError(t, f.statementRepo.Create(context.Background(), statement))
	return statement
}

func TestAllocateStatement_Equal(t *testing.T) {
	f := newAllocationFixture(t)
	f.addUnit(t, "101", 0)
	f.addUnit(t, "102", 0)
	f.addUnit(t, "103", 0)
	statement := f.addStatement(t, 300)

	result, err := f.service.AllocateStatement(context.Background(), f.condoID, statement.StatementID, "EQUAL", "mgr-1", nil)
	require.NoError(t, err)
	require.Len(t, result.Allocations, 3)
	assert.Empty(t, result.Failed)

	var sum float64
	for _, allocation := range result.Allocations {
		assert.Equal(t, "EQUAL", allocation.Method)
		assert.Equal(t, statement.StatementID, allocation.StatementID)
		assert.Equal(t, "20240301", allocation.Period)
		assert.InDelta(t, 100.0, allocation.AllocatedAmount, 0.005)
		assert.Equal(t, 100.0/3.0, allocation.Percentage)
		sum += allocation.AllocatedAmount
	}
	assert.InDelta(t, 300.0, sum, 1e-9)

	// The statement itself is claimed as part of the run.
	updated, err := f.statementRepo.GetByStatementID(context.Background(), f.condoID, statement.StatementID)
	require.NoError(t, err)
	assert.Equal(t, models.StatementStatusAllocated, updated.Status)
	assert.True(t, updated.IsAllocated)
	assert.NotNil(t, updated.AllocatedAt)
	assert.Equal(t, 3, updated.AllocatedUnits)
}

func TestAllocateStatement_EqualAmountsSumExactly(t *testing.T) {
	// 100 does not divide evenly by 3; the last unit absorbs the remainder.
	f := newAllocationFixture(t)
	f.addUnit(t, "101", 0)
	f.addUnit(t, "102", 0)
	f.addUnit(t, "103", 0)
	statement := f.addStatement(t, 100)

	result, err := f.service.AllocateStatement(context.Background(), f.condoID, statement.StatementID, "EQUAL", "mgr-1", nil)
	require.NoError(t, err)
	require.Len(t, result.Allocations, 3)

	var sum float64
	for _, allocation := range result.Allocations {
		sum += allocation.AllocatedAmount
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
}

func TestAllocateStatement_ByUnitsBehavesAsEqual(t *testing.T) {
	f := newAllocationFixture(t)
	f.addUnit(t, "101", 800)
	f.addUnit(t, "102", 1200)
	statement := f.addStatement(t, 200)

	result, err := f.service.AllocateStatement(context.Background(), f.condoID, statement.StatementID, "BY_UNITS", "mgr-1", nil)
	require.NoError(t, err)
	require.Len(t, result.Allocations, 2)
	for _, allocation := range result.Allocations {
		assert.InDelta(t, 100.0, allocation.AllocatedAmount, 0.005)
		assert.Equal(t, 50.0, allocation.Percentage)
	}
}

func TestAllocateStatement_BySquareFoot(t *testing.T) {
	f := newAllocationFixture(t)
	f.addUnit(t, "101", 1000)
	f.addUnit(t, "102", 2000)
	f.addUnit(t, "103", 1000)
	statement := f.addStatement(t, 400)

	result, err := f.service.AllocateStatement(context.Background(), f.condoID, statement.StatementID, "BY_SQUARE_FOOT", "mgr-1", nil)
	require.NoError(t, err)
	require.Len(t, result.Allocations, 3)

	byUnit := make(map[string]*models.UnitAllocation)
	for _, allocation := range result.Allocations {
		byUnit[allocation.UnitNumber] = allocation
	}
	assert.InDelta(t, 100.0, byUnit["101"].AllocatedAmount, 0.005)
	assert.InDelta(t, 200.0, byUnit["102"].AllocatedAmount, 0.005)
	assert.InDelta(t, 100.0, byUnit["103"].AllocatedAmount, 0.005)
	assert.InDelta(t, 25.0, byUnit["101"].Percentage, 0.001)
	assert.InDelta(t, 50.0, byUnit["102"].Percentage, 0.001)
	assert.InDelta(t, 25.0, byUnit["103"].Percentage, 0.001)
}

func TestAllocateStatement_BySquareFootWithoutFootageFallsBackToEqual(t *testing.T) {
	f := newAllocationFixture(t)
	f.addUnit(t, "101", 0)
	f.addUnit(t, "102", 0)
	statement := f.addStatement(t, 80)

	result, err := f.service.AllocateStatement(context.Background(), f.condoID, statement.StatementID, "BY_SQUARE_FOOT", "mgr-1", nil)
	require.NoError(t, err)
	require.Len(t, result.Allocations, 2)
	for _, allocation := range result.Allocations {
		assert.InDelta(t, 40.0, allocation.AllocatedAmount, 0.005)
		assert.Equal(t, 50.0, allocation.Percentage)
	}
}

func TestAllocateStatement_Manual(t *testing.T) {
	f := newAllocationFixture(t)
	f.addUnit(t, "101", 0)
	f.addUnit(t, "102", 0)
	statement := f.addStatement(t, 150)

	result, err := f.service.AllocateStatement(context.Background(), f.condoID, statement.StatementID, "MANUAL", "mgr-1",
		map[string]float64{"101": 100, "102": 50})
	require.NoError(t, err)
	require.Len(t, result.Allocations, 2)

	byUnit := make(map[string]*models.UnitAllocation)
	for _, allocation := range result.Allocations {
		byUnit[allocation.UnitNumber] = allocation
	}
	assert.Equal(t, 100.0, byUnit["101"].AllocatedAmount)
	assert.Equal(t, 50.0, byUnit["102"].AllocatedAmount)
	assert.InDelta(t, 66.667, byUnit["101"].Percentage, 0.001)
	assert.InDelta(t, 33.333, byUnit["102"].Percentage, 0.001)
}

func TestAllocateStatement_ManualValidation(t *testing.T) {
	tests := []struct {
		name    string
		amounts map[string]float64
	}{
		{name: "missing amounts", amounts: nil},
		{name: "missing unit", amounts: map[string]float64{"101": 150}},
		{name: "negative amount", amounts: map[string]float64{"101": 200, "102": -50}},
		{name: "wrong sum", amounts: map[string]float64{"101": 100, "102": 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAllocationFixture(t)
			f.addUnit(t, "101", 0)
			f.addUnit(t, "102", 0)
			statement := f.addStatement(t, 150)

			_, err := f.service.AllocateStatement(context.Background(), f.condoID, statement.StatementID, "MANUAL", "mgr-1", tt.amounts)
			require.ErrorIs(t, err, ErrInvalidManualAmounts)

			// A rejected run must not claim the statement.
			updated, gerr := f.statementRepo.GetByStatementID(context.Background(), f.condoID, statement.StatementID)
			require.NoError(t, gerr)
			assert.Equal(t, models.StatementStatusPending, updated.Status)
		})
	}
}

func TestAllocateStatement_UnknownMethodRejected(t *testing.T) {
	f := newAllocationFixture(t)
	f.addUnit(t, "101", 0)
	statement := f.addStatement(t, 50)

	_, err := f.service.AllocateStatement(context.Background(), f.condoID, statement.StatementID, "BY_OWNERSHIP", "mgr-1", nil)
	require.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestAllocateStatement_RepeatedCallConflicts(t *testing.T) {
	f := newAllocationFixture(t)
	f.addUnit(t, "101", 0)
	f.addUnit(t, "102", 0)
	statement := f.addStatement(t, 100)

	_, err := f.service.AllocateStatement(context.Background(), f.condoID, statement.StatementID, "EQUAL", "mgr-1", nil)
	require.NoError(t, err)

	_, err = f.service.AllocateStatement(context.Background(), f.condoID, statement.StatementID, "EQUAL", "mgr-1", nil)
	require.ErrorIs(t, err, apperrors.ErrAlreadyAllocated)

	// The second run must not have written additional rows.
	allocations, err := f.allocationRepo.ListByStatement(context.Background(), f.condoID, statement.StatementID)
	require.NoError(t, err)
	assert.Len(t, allocations, 2)
}

func TestAllocateStatement_NoUnits(t *testing.T) {
	f := newAllocationFixture(t)
	statement := f.addStatement(t, 100)

	_, err := f.service.AllocateStatement(context.Background(), f.condoID, statement.StatementID, "EQUAL", "mgr-1", nil)
	require.ErrorIs(t, err, apperrors.ErrNoUnits)
}

func TestAllocateStatement_StatementNotFound(t *testing.T) {
	f := newAllocationFixture(t)
	f.addUnit(t, "101", 0)

	_, err := f.service.AllocateStatement(context.Background(), f.condoID, uuid.New(), "EQUAL", "mgr-1", nil)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMarkAllocationPaid(t *testing.T) {
	f := newAllocationFixture(t)
	f.addUnit(t, "101", 0)
	f.addUnit(t, "102", 0)
	statement := f.addStatement(t, 100)

	_, err := f.service.AllocateStatement(context.Background(), f.condoID, statement.StatementID, "EQUAL", "mgr-1", nil)
	require.NoError(t, err)

	paid, err := f.service.MarkAllocationPaid(context.Background(), f.condoID, statement.StatementID, "101", "transfer")
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	assert.NotNil(t, paid.PaidAt)
	assert.Equal(t, "transfer", paid.PaymentMethod)

	// One unpaid share left, so the statement stays ALLOCATED.
	updated, err := f.statementRepo.GetByStatementID(context.Background(), f.condoID, statement.StatementID)
	require.NoError(t, err)
	assert.Equal(t, models.StatementStatusAllocated, updated.Status)

	_, err = f.service.MarkAllocationPaid(context.Background(), f.condoID, statement.StatementID, "102", "cash")
	require.NoError(t, err)

	updated, err = f.statementRepo.GetByStatementID(context.Background(), f.condoID, statement.StatementID)
	require.NoError(t, err)
	assert.Equal(t, models.StatementStatusPaid, updated.Status)
}

func TestMarkAllocationPaid_NotFound(t *testing.T) {
	f := newAllocationFixture(t)
	statement := f.addStatement(t, 100)

	_, err := f.service.MarkAllocationPaid(context.Background(), f.condoID, statement.StatementID, "999", "cash")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetUnitAllocations(t *testing.T) {
	f := newAllocationFixture(t)
	f.addUnit(t, "101", 0)
	f.addUnit(t, "102", 0)

	first := f.addStatement(t, 100)
	second := &models.Statement{
		CondoID:     f.condoID,
		Period:      "20240401",
		UtilityType: "GAS",
		FileName:    "gas.pdf",
		TotalAmount: 60,
	}
	require.NoError(t, f.statementRepo.Create(context.Background(), second))

	_, err := f.service.AllocateStatement(context.Background(), f.condoID, first.StatementID, "EQUAL", "mgr-1", nil)
	require.NoError(t, err)
	_, err = f.service.AllocateStatement(context.Background(), f.condoID, second.StatementID, "EQUAL", "mgr-1", nil)
	require.NoError(t, err)

	all, err := f.service.GetUnitAllocations(context.Background(), f.condoID, "101", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	march, err := f.service.GetUnitAllocations(context.Background(), f.condoID, "101", "20240301")
	require.NoError(t, err)
	require.Len(t, march, 1)
	assert.Equal(t, first.StatementID, march[0].StatementID)

	none, err := f.service.GetUnitAllocations(context.Background(), f.condoID, "103", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}
