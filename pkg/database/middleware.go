package database

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WithCondoContext creates middleware that sets up a condo-scoped DB
// connection for the condo identified by the {cid} path parameter. It runs
// AFTER auth middleware, which has already verified the caller may act on
// that condo. The connection is cleaned up after the handler returns.
func WithCondoContext(db *DB, logger *zap.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			condoID, err := uuid.Parse(r.PathValue("cid"))
			if err != nil {
				logger.Error("Invalid condo ID in path",
					zap.String("condo_id", r.PathValue("cid")),
					zap.Error(err))
				writeError(w, http.StatusBadRequest, "invalid_condo_id", "Invalid condo ID format")
				return
			}

			scope, err := db.WithCondo(r.Context(), condoID)
			if err != nil {
				logger.Error("Failed to acquire condo connection",
					zap.String("condo_id", condoID.String()),
					zap.Error(err))
				writeError(w, http.StatusInternalServerError, "database_error", "Database connection error")
				return
			}
			defer scope.Close()

			ctx := SetCondoScope(r.Context(), scope)
			next(w, r.WithContext(ctx))
		}
	}
}

// WithUnscopedContext creates middleware that sets up an unscoped DB
// connection. Use for cross-condo surfaces such as manager profiles and
// condo provisioning.
func WithUnscopedContext(db *DB, logger *zap.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			scope, err := db.WithoutCondo(r.Context())
			if err != nil {
				logger.Error("Failed to acquire database connection", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "database_error", "Database connection error")
				return
			}
			defer scope.Close()

			ctx := SetCondoScope(r.Context(), scope)
			next(w, r.WithContext(ctx))
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}
