// Package models contains domain types for aqua-sub000. Every entity carries
// the two-part identity of the shared key space: an Id (the owning condo's or
// manager's UUID) and an Attribute sort key built by pkg/keyspace.
package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/omexus/aqua-sub000/pkg/keyspace"
)

// Condo represents a managed property, the tenant boundary of the system.
type Condo struct {
	ID        uuid.UUID `json:"id"`
	Attribute string    `json:"attribute"`
	Name      string    `json:"name"`
	// PrefixCode is the short code used in statement file paths (e.g. "AQUA").
	PrefixCode string    `json:"prefix_code"`
	Address    string    `json:"address,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Key returns the condo's sort key.
func (c *Condo) Key() string {
	return keyspace.CondoAttribute
}
