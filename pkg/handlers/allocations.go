package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omexus/aqua-sub000/pkg/apperrors"
	"github.com/omexus/aqua-sub000/pkg/auth"
	"github.com/omexus/aqua-sub000/pkg/models"
	"github.com/omexus/aqua-sub000/pkg/services"
)

// AllocateStatementRequest for POST /api/condos/{cid}/statements/{sid}/allocations
type AllocateStatementRequest struct {
	Method string `json:"method" validate:"required,oneof=EQUAL BY_SQUARE_FOOT BY_UNITS MANUAL"`
	// ManualAmounts maps unit numbers to their shares. Required for MANUAL,
	// ignored otherwise.
	ManualAmounts map[string]float64 `json:"manual_amounts,omitempty" validate:"required_if=Method MANUAL"`
}

// AllocationListResponse for allocation listing endpoints.
type AllocationListResponse struct {
	Allocations []*models.UnitAllocation `json:"allocations"`
	Total       int                      `json:"total"`
}

// MarkPaidRequest for PUT /api/condos/{cid}/statements/{sid}/allocations/{unit}/payment
type MarkPaidRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
}

// AllocationHandler handles cost allocation HTTP requests.
type AllocationHandler struct {
	allocationService   services.AllocationService
	statementService    services.StatementService
	condoService        services.CondoService
	notificationService services.NotificationService
	logger              *zap.Logger
}

// NewAllocationHandler creates a new allocation handler.
func NewAllocationHandler(
	allocationService services.AllocationService,
	statementService services.StatementService,
	condoService services.CondoService,
	notificationService services.NotificationService,
	logger *zap.Logger,
) *AllocationHandler {
	return &AllocationHandler{
		allocationService:   allocationService,
		statementService:    statementService,
		condoService:        condoService,
		notificationService: notificationService,
		logger:              logger,
	}
}

// RegisterRoutes registers the allocation handler's routes on the given mux.
func (h *AllocationHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, tenantMiddleware TenantMiddleware) {
	base := "/api/condos/{cid}/statements/{sid}/allocations"

	mux.HandleFunc("POST "+base,
		authMiddleware.RequireAuthWithPathValidation("cid")(tenantMiddleware(h.Allocate)))
	mux.HandleFunc("GET "+base,
		authMiddleware.RequireAuthWithPathValidation("cid")(tenantMiddleware(h.ListByStatement)))
	mux.HandleFunc("PUT "+base+"/{unit}/payment",
		authMiddleware.RequireAuthWithPathValidation("cid")(tenantMiddleware(h.MarkPaid)))
	mux.HandleFunc("POST /api/condos/{cid}/statements/{sid}/notices",
		authMiddleware.RequireAuthWithPathValidation("cid")(tenantMiddleware(h.SendNotices)))
	mux.HandleFunc("GET /api/condos/{cid}/units/{unit}/allocations",
		authMiddleware.RequireAuthWithPathValidation("cid")(tenantMiddleware(h.ListByUnit)))
}

// Allocate handles POST /api/condos/{cid}/statements/{sid}/allocations
func (h *AllocationHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	condoID, statementID, managerID, ok := h.requireAllocate(w, r)
	if !ok {
		return
	}

	var req AllocateStatementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := h.allocationService.AllocateStatement(r.Context(), condoID, statementID,
		req.Method, managerID.String(), req.ManualAmounts)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "statement_not_found", "Statement not found")
		case errors.Is(err, apperrors.ErrNoUnits):
			h.writeError(w, http.StatusNotFound, "no_units", "No units found for condo")
		case errors.Is(err, apperrors.ErrAlreadyAllocated):
			h.writeError(w, http.StatusConflict, "already_allocated", "Statement is already allocated")
		case errors.Is(err, services.ErrUnsupportedMethod):
			h.writeError(w, http.StatusBadRequest, "unsupported_method", err.Error())
		case errors.Is(err, services.ErrInvalidManualAmounts):
			h.writeError(w, http.StatusBadRequest, "invalid_manual_amounts", err.Error())
		default:
			h.logger.Error("Failed to allocate statement",
				zap.String("condo_id", condoID.String()),
				zap.String("statement_id", statementID.String()),
				zap.String("method", req.Method),
				zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "allocate_failed", err.Error())
		}
		return
	}

	// Rows that failed to persist are reported alongside the written ones.
	status := http.StatusCreated
	if len(result.Failed) > 0 {
		status = http.StatusOK
	}
	if err := WriteJSON(w, status, ApiResponse{Success: len(result.Failed) == 0, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListByStatement handles GET /api/condos/{cid}/statements/{sid}/allocations
func (h *AllocationHandler) ListByStatement(w http.ResponseWriter, r *http.Request) {
	condoID, statementID, ok := ParseCondoAndStatementIDs(w, r, h.logger)
	if !ok {
		return
	}

	allocations, err := h.allocationService.GetStatementAllocations(r.Context(), condoID, statementID)
	if err != nil {
		h.logger.Error("Failed to list statement allocations",
			zap.String("condo_id", condoID.String()),
			zap.String("statement_id", statementID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "list_allocations_failed", err.Error())
		return
	}

	response := AllocationListResponse{Allocations: allocations, Total: len(allocations)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListByUnit handles GET /api/condos/{cid}/units/{unit}/allocations?period=yyyyMMdd
func (h *AllocationHandler) ListByUnit(w http.ResponseWriter, r *http.Request) {
	condoID, ok := ParseCondoID(w, r, h.logger)
	if !ok {
		return
	}
	unitNumber, ok := ParseUnitNumber(w, r, h.logger)
	if !ok {
		return
	}

	period := r.URL.Query().Get("period")
	allocations, err := h.allocationService.GetUnitAllocations(r.Context(), condoID, unitNumber, period)
	if err != nil {
		h.logger.Error("Failed to list unit allocations",
			zap.String("condo_id", condoID.String()),
			zap.String("unit_number", unitNumber),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "list_allocations_failed", err.Error())
		return
	}

	response := AllocationListResponse{Allocations: allocations, Total: len(allocations)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// MarkPaid handles PUT /api/condos/{cid}/statements/{sid}/allocations/{unit}/payment
func (h *AllocationHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	condoID, statementID, _, ok := h.requireAllocate(w, r)
	if !ok {
		return
	}
	unitNumber, ok := ParseUnitNumber(w, r, h.logger)
	if !ok {
		return
	}

	var req MarkPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	allocation, err := h.allocationService.MarkAllocationPaid(r.Context(), condoID, statementID, unitNumber, req.PaymentMethod)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "allocation_not_found", "Allocation not found")
			return
		}
		h.logger.Error("Failed to mark allocation paid",
			zap.String("condo_id", condoID.String()),
			zap.String("statement_id", statementID.String()),
			zap.String("unit_number", unitNumber),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "mark_paid_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: allocation}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// SendNotices handles POST /api/condos/{cid}/statements/{sid}/notices
func (h *AllocationHandler) SendNotices(w http.ResponseWriter, r *http.Request) {
	condoID, statementID, _, ok := h.requireAllocate(w, r)
	if !ok {
		return
	}

	if h.notificationService == nil {
		h.writeError(w, http.StatusServiceUnavailable, "email_not_configured", "Outgoing email is not configured")
		return
	}

	condo, err := h.condoService.GetCondo(r.Context(), condoID)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "condo_not_found", "Condo not found")
		return
	}
	statement, err := h.statementService.GetStatement(r.Context(), condoID, statementID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "statement_not_found", "Statement not found")
			return
		}
		h.writeError(w, http.StatusInternalServerError, "get_statement_failed", err.Error())
		return
	}

	allocations, err := h.allocationService.GetStatementAllocations(r.Context(), condoID, statementID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "list_allocations_failed", err.Error())
		return
	}
	if len(allocations) == 0 {
		h.writeError(w, http.StatusConflict, "not_allocated", "Statement has no allocations to notify about")
		return
	}

	result, err := h.notificationService.SendStatementNotices(r.Context(), condo, statement, allocations)
	if err != nil {
		h.logger.Error("Failed to send statement notices",
			zap.String("statement_id", statementID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "send_notices_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: len(result.Failed) == 0, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// requireAllocate parses the condo and statement IDs and checks the caller
// may allocate in the condo.
func (h *AllocationHandler) requireAllocate(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, uuid.UUID, bool) {
	condoID, statementID, ok := ParseCondoAndStatementIDs(w, r, h.logger)
	if !ok {
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}

	managerID, err := auth.ManagerFromContext(r.Context())
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	if err := h.condoService.RequirePermission(r.Context(), managerID, condoID, services.PermissionAllocate); err != nil {
		h.writeError(w, http.StatusForbidden, "permission_denied", "Not allowed to allocate in this condo")
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	return condoID, statementID, managerID, true
}

func (h *AllocationHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
