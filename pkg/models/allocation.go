package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/omexus/aqua-sub000/pkg/keyspace"
)

// Allocation method labels accepted by the allocation engine.
const (
	AllocationMethodEqual        = "EQUAL"
	AllocationMethodBySquareFoot = "BY_SQUARE_FOOT"
	// AllocationMethodByUnits is currently an alias of EQUAL, reserved for a
	// future per-unit-type weighting.
	AllocationMethodByUnits = "BY_UNITS"
	AllocationMethodManual  = "MANUAL"
)

// UnitAllocation represents one unit's computed share of one statement's
// total cost. Owner name and email are denormalized from the unit at
// allocation time for display and notification.
type UnitAllocation struct {
	CondoID     uuid.UUID `json:"condo_id"`
	Attribute   string    `json:"attribute"`
	StatementID uuid.UUID `json:"statement_id"`
	UnitNumber  string    `json:"unit_number"`
	Period      string    `json:"period"`
	UtilityType string    `json:"utility_type"`

	AllocatedAmount float64 `json:"allocated_amount"`
	Percentage      float64 `json:"percentage"`
	Method          string  `json:"method"`

	OwnerName  string `json:"owner_name,omitempty"`
	OwnerEmail string `json:"owner_email,omitempty"`

	IsPaid        bool       `json:"is_paid"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	PaymentMethod string     `json:"payment_method,omitempty"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Key returns the allocation's sort key.
func (a *UnitAllocation) Key() string {
	return keyspace.AllocationKey(a.StatementID, a.UnitNumber)
}
