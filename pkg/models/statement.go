package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/omexus/aqua-sub000/pkg/keyspace"
)

// Statement status values. A statement starts PENDING and is moved to
// ALLOCATED by the allocation engine; PAID and OVERDUE are set by payment
// tracking once every unit share is settled (or past due).
const (
	StatementStatusPending   = "PENDING"
	StatementStatusAllocated = "ALLOCATED"
	StatementStatusPaid      = "PAID"
	StatementStatusOverdue   = "OVERDUE"
)

// Statement represents one shared utility bill covering a billing period.
type Statement struct {
	CondoID   uuid.UUID `json:"condo_id"`
	Attribute string    `json:"attribute"`
	// StatementID is the statement's own identity, referenced by allocations.
	StatementID uuid.UUID `json:"statement_id"`
	// Period is the yyyyMMdd identifier of the billing period.
	Period      string  `json:"period"`
	UtilityType string  `json:"utility_type"`
	FileName    string  `json:"file_name"`
	FileURL     string  `json:"file_url,omitempty"`
	TotalAmount float64 `json:"total_amount"`

	Status         string     `json:"status"`
	IsAllocated    bool       `json:"is_allocated"`
	AllocatedAt    *time.Time `json:"allocated_at,omitempty"`
	AllocatedUnits int        `json:"allocated_units,omitempty"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the statement's sort key.
func (s *Statement) Key() string {
	return keyspace.StatementKey(s.Period, s.FileName)
}
