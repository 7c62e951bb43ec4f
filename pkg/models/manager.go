package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/omexus/aqua-sub000/pkg/keyspace"
)

// Manager represents a property manager profile. Manager rows are keyed by
// the manager's own UUID.
type Manager struct {
	ID        uuid.UUID `json:"id"`
	Attribute string    `json:"attribute"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	// DefaultCondoID is the condo the manager's UI opens on, if set.
	DefaultCondoID *uuid.UUID `json:"default_condo_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Key returns the manager's sort key.
func (m *Manager) Key() string {
	return keyspace.ManagerAttribute
}

// ManagerCondo is the join entity granting one manager access to one condo,
// with per-condo permission flags. Rows are keyed by the manager's UUID so a
// single prefix query lists every condo a manager can reach.
type ManagerCondo struct {
	ManagerID      uuid.UUID `json:"manager_id"`
	Attribute      string    `json:"attribute"`
	CondoID        uuid.UUID `json:"condo_id"`
	CanUpload      bool      `json:"can_upload"`
	CanAllocate    bool      `json:"can_allocate"`
	CanManageUnits bool      `json:"can_manage_units"`
	AssignedBy     string    `json:"assigned_by"`
	AssignedAt     time.Time `json:"assigned_at"`
}

// Key returns the grant's sort key.
func (mc *ManagerCondo) Key() string {
	return keyspace.ManagerCondoKey(mc.CondoID)
}
