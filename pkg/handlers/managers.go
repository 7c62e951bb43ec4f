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

// UpsertManagerRequest for PUT /api/managers/me
type UpsertManagerRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	// DefaultCondoID selects the condo shown first in clients. Optional.
	DefaultCondoID string `json:"default_condo_id,omitempty" validate:"omitempty,uuid"`
}

// ManagerCondosResponse for GET /api/managers/me/condos
type ManagerCondosResponse struct {
	Condos []*models.ManagerCondo `json:"condos"`
	Total  int                    `json:"total"`
}

// ManagerHandler handles manager profile HTTP requests.
type ManagerHandler struct {
	condoService services.CondoService
	logger       *zap.Logger
}

// NewManagerHandler creates a new manager handler.
func NewManagerHandler(condoService services.CondoService, logger *zap.Logger) *ManagerHandler {
	return &ManagerHandler{
		condoService: condoService,
		logger:       logger,
	}
}

// RegisterRoutes registers the manager handler's routes on the given mux.
// Profile routes are manager-scoped, not condo-scoped, so they get the
// unscoped database middleware.
func (h *ManagerHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, unscopedMiddleware TenantMiddleware) {
	mux.HandleFunc("PUT /api/managers/me", authMiddleware.RequireAuth(unscopedMiddleware(h.Upsert)))
	mux.HandleFunc("GET /api/managers/me", authMiddleware.RequireAuth(unscopedMiddleware(h.Get)))
	mux.HandleFunc("GET /api/managers/me/condos", authMiddleware.RequireAuth(unscopedMiddleware(h.ListCondos)))
}

// Upsert handles PUT /api/managers/me
func (h *ManagerHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	managerID, err := auth.ManagerFromContext(r.Context())
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}

	var req UpsertManagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	manager := &models.Manager{
		ID:    managerID,
		Name:  req.Name,
		Email: req.Email,
	}
	if req.DefaultCondoID != "" {
		condoID, perr := uuid.Parse(req.DefaultCondoID)
		if perr != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_condo_id", "Invalid default condo ID format")
			return
		}
		manager.DefaultCondoID = &condoID
	}

	if err := h.condoService.UpsertManager(r.Context(), manager); err != nil {
		h.logger.Error("Failed to upsert manager",
			zap.String("manager_id", managerID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "upsert_manager_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: manager}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/managers/me
func (h *ManagerHandler) Get(w http.ResponseWriter, r *http.Request) {
	managerID, err := auth.ManagerFromContext(r.Context())
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}

	manager, err := h.condoService.GetManager(r.Context(), managerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "manager_not_found", "Manager profile not found")
			return
		}
		h.logger.Error("Failed to get manager",
			zap.String("manager_id", managerID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "get_manager_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: manager}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListCondos handles GET /api/managers/me/condos
func (h *ManagerHandler) ListCondos(w http.ResponseWriter, r *http.Request) {
	managerID, err := auth.ManagerFromContext(r.Context())
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}

	grants, err := h.condoService.ListManagerCondos(r.Context(), managerID)
	if err != nil {
		h.logger.Error("Failed to list manager condos",
			zap.String("manager_id", managerID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "list_manager_condos_failed", err.Error())
		return
	}

	response := ManagerCondosResponse{
		Condos: grants,
		Total:  len(grants),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *ManagerHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
