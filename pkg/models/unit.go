package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/omexus/aqua-sub000/pkg/keyspace"
)

// DwellUnit represents one dwelling within a condo, the ultimate cost-bearing
// entity. Unit rows are keyed by the owning condo's UUID.
type DwellUnit struct {
	CondoID    uuid.UUID `json:"condo_id"`
	Attribute  string    `json:"attribute"`
	UnitNumber string    `json:"unit_number"`
	OwnerName  string    `json:"owner_name,omitempty"`
	OwnerEmail string    `json:"owner_email,omitempty"`
	// SquareFootage is optional; 0 means not recorded. Footage-weighted
	// allocation treats missing footage as 0.
	SquareFootage float64   `json:"square_footage,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Key returns the unit's sort key.
func (u *DwellUnit) Key() string {
	return keyspace.UnitKey(u.UnitNumber)
}
