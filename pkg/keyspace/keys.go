// Package keyspace defines the composite sort-key convention shared by every
// entity kind. All entities live in one table keyed by (Id, Attribute); the
// Attribute value both identifies the entity kind and encodes the fields a
// prefix query needs. Key construction and parsing live here only; call sites
// must never split delimiter-joined strings themselves.
package keyspace

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const sep = "#"

// Fixed attributes for singleton rows (one per Id).
const (
	CondoAttribute   = "CONDO"
	ManagerAttribute = "MANAGER"
)

// Attribute prefixes. Chosen to be mutually non-overlapping so a begins-with
// query for one kind can never return a row of another kind.
const (
	unitPrefix         = "UID" + sep
	managerCondoPrefix = "MANAGERCONDO" + sep
	periodPrefix       = "PER" + sep
	statementPrefix    = "STMT" + sep + "PER" + sep
	allocationPrefix   = "ALLOCATION" + sep
)

// periodLayout is the wire format for billing period identifiers (yyyyMMdd).
const periodLayout = "20060102"

// UnitKey returns the sort key for a dwelling unit row.
func UnitKey(unitNumber string) string {
	return unitPrefix + unitNumber
}

// ParseUnitKey extracts the unit number from a unit sort key.
func ParseUnitKey(attribute string) (string, error) {
	rest, ok := strings.CutPrefix(attribute, unitPrefix)
	if !ok || rest == "" {
		return "", fmt.Errorf("malformed unit key %q", attribute)
	}
	return rest, nil
}

// UnitListPrefix returns the begins-with prefix matching every unit in a condo.
func UnitListPrefix() string {
	return unitPrefix
}

// ManagerCondoKey returns the sort key for a manager's grant to one condo.
func ManagerCondoKey(condoID uuid.UUID) string {
	return managerCondoPrefix + condoID.String()
}

// ParseManagerCondoKey extracts the condo ID from a manager-condo sort key.
func ParseManagerCondoKey(attribute string) (uuid.UUID, error) {
	rest, ok := strings.CutPrefix(attribute, managerCondoPrefix)
	if !ok {
		return uuid.Nil, fmt.Errorf("malformed manager-condo key %q", attribute)
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed manager-condo key %q: %w", attribute, err)
	}
	return id, nil
}

// ManagerCondoListPrefix returns the begins-with prefix matching every condo
// grant held by a manager.
func ManagerCondoListPrefix() string {
	return managerCondoPrefix
}

// PeriodKey returns the sort key for a billing period row.
func PeriodKey(start time.Time) string {
	return periodPrefix + start.Format(periodLayout)
}

// PeriodID formats a period start date as its yyyyMMdd identifier.
func PeriodID(start time.Time) string {
	return start.Format(periodLayout)
}

// ParsePeriodKey extracts the period start date from a period sort key.
func ParsePeriodKey(attribute string) (time.Time, error) {
	rest, ok := strings.CutPrefix(attribute, periodPrefix)
	if !ok {
		return time.Time{}, fmt.Errorf("malformed period key %q", attribute)
	}
	t, err := time.Parse(periodLayout, rest)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed period key %q: %w", attribute, err)
	}
	return t, nil
}

// PeriodListPrefix returns the begins-with prefix matching every billing
// period of a condo.
func PeriodListPrefix() string {
	return periodPrefix
}

// StatementKey returns the sort key for a statement row. The period is the
// yyyyMMdd identifier of the billing period the statement belongs to.
func StatementKey(period, fileName string) string {
	return statementPrefix + period + sep + fileName
}

// ParseStatementKey extracts the period identifier and file name from a
// statement sort key. File names may themselves contain the separator, so
// everything after the period segment belongs to the file name.
func ParseStatementKey(attribute string) (period, fileName string, err error) {
	rest, ok := strings.CutPrefix(attribute, statementPrefix)
	if !ok {
		return "", "", fmt.Errorf("malformed statement key %q", attribute)
	}
	period, fileName, ok = strings.Cut(rest, sep)
	if !ok || period == "" || fileName == "" {
		return "", "", fmt.Errorf("malformed statement key %q", attribute)
	}
	if _, perr := time.Parse(periodLayout, period); perr != nil {
		return "", "", fmt.Errorf("malformed statement key %q: %w", attribute, perr)
	}
	return period, fileName, nil
}

// StatementPeriodPrefix returns the begins-with prefix matching every
// statement declared under one billing period.
func StatementPeriodPrefix(period string) string {
	return statementPrefix + period + sep
}

// StatementListPrefix returns the begins-with prefix matching every statement
// of a condo regardless of period.
func StatementListPrefix() string {
	return statementPrefix
}

// AllocationKey returns the sort key for one unit's share of one statement.
func AllocationKey(statementID uuid.UUID, unitNumber string) string {
	return allocationPrefix + statementID.String() + sep + unitNumber
}

// ParseAllocationKey extracts the statement ID and unit number from an
// allocation sort key.
func ParseAllocationKey(attribute string) (uuid.UUID, string, error) {
	rest, ok := strings.CutPrefix(attribute, allocationPrefix)
	if !ok {
		return uuid.Nil, "", fmt.Errorf("malformed allocation key %q", attribute)
	}
	idPart, unitNumber, ok := strings.Cut(rest, sep)
	if !ok || unitNumber == "" {
		return uuid.Nil, "", fmt.Errorf("malformed allocation key %q", attribute)
	}
	statementID, err := uuid.Parse(idPart)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("malformed allocation key %q: %w", attribute, err)
	}
	return statementID, unitNumber, nil
}

// AllocationStatementPrefix returns the begins-with prefix matching every
// allocation derived from one statement.
func AllocationStatementPrefix(statementID uuid.UUID) string {
	return allocationPrefix + statementID.String() + sep
}

// AllocationListPrefix returns the begins-with prefix matching every
// allocation of a condo regardless of statement.
func AllocationListPrefix() string {
	return allocationPrefix
}

// ValidSegment reports whether a caller-supplied key segment (unit number,
// file name prefix code, etc.) is safe to embed in a sort key. Segments must
// be non-empty and must not contain the separator.
func ValidSegment(s string) bool {
	return s != "" && !strings.Contains(s, sep)
}
