package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omexus/aqua-sub000/pkg/apperrors"
	"github.com/omexus/aqua-sub000/pkg/auth"
	"github.com/omexus/aqua-sub000/pkg/models"
	"github.com/omexus/aqua-sub000/pkg/services"
)

// DeclarePeriodRequest for POST /api/condos/{cid}/periods
type DeclarePeriodRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// PeriodListResponse for GET /api/condos/{cid}/periods
type PeriodListResponse struct {
	Periods []*models.Period `json:"periods"`
	Total   int              `json:"total"`
}

// DeclareStatementRequest for POST /api/condos/{cid}/statements
type DeclareStatementRequest struct {
	PeriodStart string  `json:"period_start" validate:"required,datetime=2006-01-02"`
	UtilityType string  `json:"utility_type" validate:"required"`
	FileName    string  `json:"file_name" validate:"required"`
	FileURL     string  `json:"file_url,omitempty"`
	TotalAmount float64 `json:"total_amount" validate:"required,gt=0"`
}

// StatementListResponse for GET /api/condos/{cid}/statements
type StatementListResponse struct {
	Statements []*models.Statement `json:"statements"`
	Total      int                 `json:"total"`
}

// StatementHandler handles billing period and statement HTTP requests.
type StatementHandler struct {
	statementService services.StatementService
	condoService     services.CondoService
	logger           *zap.Logger
}

// NewStatementHandler creates a new statement handler.
func NewStatementHandler(
	statementService services.StatementService,
	condoService services.CondoService,
	logger *zap.Logger,
) *StatementHandler {
	return &StatementHandler{
		statementService: statementService,
		condoService:     condoService,
		logger:           logger,
	}
}

// RegisterRoutes registers the statement handler's routes on the given mux.
func (h *StatementHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, tenantMiddleware TenantMiddleware) {
	mux.HandleFunc("POST /api/condos/{cid}/periods",
		authMiddleware.RequireAuthWithPathValidation("cid")(tenantMiddleware(h.DeclarePeriod)))
	mux.HandleFunc("GET /api/condos/{cid}/periods",
		authMiddleware.RequireAuthWithPathValidation("cid")(tenantMiddleware(h.ListPeriods)))
	mux.HandleFunc("POST /api/condos/{cid}/statements",
		authMiddleware.RequireAuthWithPathValidation("cid")(tenantMiddleware(h.DeclareStatement)))
	mux.HandleFunc("GET /api/condos/{cid}/statements",
		authMiddleware.RequireAuthWithPathValidation("cid")(tenantMiddleware(h.ListStatements)))
	mux.HandleFunc("GET /api/condos/{cid}/statements/{sid}",
		authMiddleware.RequireAuthWithPathValidation("cid")(tenantMiddleware(h.GetStatement)))
}

// DeclarePeriod handles POST /api/condos/{cid}/periods
func (h *StatementHandler) DeclarePeriod(w http.ResponseWriter, r *http.Request) {
	condoID, managerID, ok := h.requireUpload(w, r)
	if !ok {
		return
	}

	var req DeclarePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	start, _ := time.Parse(time.DateOnly, req.StartDate)
	end, _ := time.Parse(time.DateOnly, req.EndDate)

	period, err := h.statementService.DeclarePeriod(r.Context(), condoID, start, end)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			h.writeError(w, http.StatusConflict, "period_exists", "A period with this start date already exists")
			return
		}
		h.logger.Error("Failed to declare period",
			zap.String("condo_id", condoID.String()),
			zap.String("manager_id", managerID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "declare_period_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: period}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListPeriods handles GET /api/condos/{cid}/periods
func (h *StatementHandler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	condoID, ok := ParseCondoID(w, r, h.logger)
	if !ok {
		return
	}

	periods, err := h.statementService.ListPeriods(r.Context(), condoID)
	if err != nil {
		h.logger.Error("Failed to list periods",
			zap.String("condo_id", condoID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "list_periods_failed", err.Error())
		return
	}

	response := PeriodListResponse{Periods: periods, Total: len(periods)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// DeclareStatement handles POST /api/condos/{cid}/statements
func (h *StatementHandler) DeclareStatement(w http.ResponseWriter, r *http.Request) {
	condoID, managerID, ok := h.requireUpload(w, r)
	if !ok {
		return
	}

	var req DeclareStatementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	periodStart, _ := time.Parse(time.DateOnly, req.PeriodStart)

	statement, err := h.statementService.DeclareStatement(r.Context(), condoID, periodStart,
		req.UtilityType, req.FileName, req.FileURL, req.TotalAmount, managerID.String())
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "period_not_found", "Billing period not found")
		case errors.Is(err, apperrors.ErrConflict):
			h.writeError(w, http.StatusConflict, "statement_exists", "A statement with this period and file name already exists")
		default:
			h.logger.Error("Failed to declare statement",
				zap.String("condo_id", condoID.String()),
				zap.Error(err))
			h.writeError(w, http.StatusBadRequest, "declare_statement_failed", err.Error())
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: statement}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListStatements handles GET /api/condos/{cid}/statements?period=yyyyMMdd
func (h *StatementHandler) ListStatements(w http.ResponseWriter, r *http.Request) {
	condoID, ok := ParseCondoID(w, r, h.logger)
	if !ok {
		return
	}

	period := r.URL.Query().Get("period")
	statements, err := h.statementService.ListStatements(r.Context(), condoID, period)
	if err != nil {
		h.logger.Error("Failed to list statements",
			zap.String("condo_id", condoID.String()),
			zap.String("period", period),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "list_statements_failed", err.Error())
		return
	}

	response := StatementListResponse{Statements: statements, Total: len(statements)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetStatement handles GET /api/condos/{cid}/statements/{sid}
func (h *StatementHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	condoID, statementID, ok := ParseCondoAndStatementIDs(w, r, h.logger)
	if !ok {
		return
	}

	statement, err := h.statementService.GetStatement(r.Context(), condoID, statementID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "statement_not_found", "Statement not found")
			return
		}
		h.logger.Error("Failed to get statement",
			zap.String("condo_id", condoID.String()),
			zap.String("statement_id", statementID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "get_statement_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: statement}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// requireUpload parses the condo ID and checks the caller may declare
// periods and statements in it.
func (h *StatementHandler) requireUpload(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	condoID, ok := ParseCondoID(w, r, h.logger)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	managerID, err := auth.ManagerFromContext(r.Context())
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	if err := h.condoService.RequirePermission(r.Context(), managerID, condoID, services.PermissionUpload); err != nil {
		h.writeError(w, http.StatusForbidden, "permission_denied", "Not allowed to declare statements in this condo")
		return uuid.Nil, uuid.Nil, false
	}
	return condoID, managerID, true
}

func (h *StatementHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
