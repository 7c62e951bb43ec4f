package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseCondoID extracts and validates the condo ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: cid
func ParseCondoID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "cid", "invalid_condo_id", "Invalid condo ID format", logger)
}

// ParseStatementID extracts and validates the statement ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: sid
func ParseStatementID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "sid", "invalid_statement_id", "Invalid statement ID format", logger)
}

// ParseCondoAndStatementIDs extracts and validates both condo and statement IDs.
// Returns both UUIDs and true on success, or uuid.Nil values and false on error.
// Expects path parameters: cid, sid
func ParseCondoAndStatementIDs(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, uuid.UUID, bool) {
	condoID, ok := ParseCondoID(w, r, logger)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	statementID, ok := ParseStatementID(w, r, logger)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	return condoID, statementID, true
}

// ParseUnitNumber extracts the unit number from the request path.
// Returns the unit number and true on success, or empty string and false on
// error (after writing an error response).
// Expects path parameter: unit
func ParseUnitNumber(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (string, bool) {
	unitNumber := r.PathValue("unit")
	if unitNumber == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_unit_number", "Missing unit number"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return "", false
	}
	return unitNumber, true
}

// parseUUID is the internal helper that does the actual parsing work.
func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue(pathParam)
	id, err := uuid.Parse(idStr)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}
