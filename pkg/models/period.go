package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/omexus/aqua-sub000/pkg/keyspace"
)

// Period represents a billing time window a condo groups statements under.
type Period struct {
	CondoID   uuid.UUID `json:"condo_id"`
	Attribute string    `json:"attribute"`
	// PeriodID is the yyyyMMdd identifier derived from StartDate.
	PeriodID  string    `json:"period_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	// Generated marks periods whose statements have all been allocated.
	Generated bool `json:"generated"`
	// TotalAmount is the running sum of statement totals declared under this period.
	TotalAmount float64   `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Key returns the period's sort key.
func (p *Period) Key() string {
	return keyspace.PeriodKey(p.StartDate)
}
