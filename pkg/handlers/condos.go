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

// TenantMiddleware wraps a handler with condo scope resolution.
// It is applied after authentication so the scope can trust the URL.
type TenantMiddleware func(http.HandlerFunc) http.HandlerFunc

// CreateCondoRequest for POST /api/condos
type CreateCondoRequest struct {
	Name string `json:"name" validate:"required"`
	// PrefixCode is the condo's short code used in bill document paths,
	// e.g. "AQUA".
	PrefixCode string `json:"prefix_code" validate:"required,alphanum"`
	Address    string `json:"address,omitempty"`
}

// GrantCondoRequest for POST /api/condos/{cid}/grants
type GrantCondoRequest struct {
	ManagerID      string `json:"manager_id" validate:"required,uuid"`
	CanUpload      bool   `json:"can_upload"`
	CanAllocate    bool   `json:"can_allocate"`
	CanManageUnits bool   `json:"can_manage_units"`
}

// CondoHandler handles condo provisioning and manager grant HTTP requests.
type CondoHandler struct {
	condoService services.CondoService
	logger       *zap.Logger
}

// NewCondoHandler creates a new condo handler.
func NewCondoHandler(condoService services.CondoService, logger *zap.Logger) *CondoHandler {
	return &CondoHandler{
		condoService: condoService,
		logger:       logger,
	}
}

// RegisterRoutes registers the condo handler's routes on the given mux.
// Condo creation is cross-condo, so it gets the unscoped middleware.
func (h *CondoHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, tenantMiddleware, unscopedMiddleware TenantMiddleware) {
	mux.HandleFunc("POST /api/condos",
		authMiddleware.RequireAuth(unscopedMiddleware(h.Create)))
	mux.HandleFunc("GET /api/condos/{cid}",
		authMiddleware.RequireAuthWithPathValidation("cid")(tenantMiddleware(h.Get)))
	mux.HandleFunc("POST /api/condos/{cid}/grants",
		authMiddleware.RequireAuthWithPathValidation("cid")(tenantMiddleware(h.Grant)))
	mux.HandleFunc("DELETE /api/condos/{cid}/grants/{mid}",
		authMiddleware.RequireAuthWithPathValidation("cid")(tenantMiddleware(h.Revoke)))
}

// Create handles POST /api/condos
func (h *CondoHandler) Create(w http.ResponseWriter, r *http.Request) {
	managerID, err := auth.ManagerFromContext(r.Context())
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}

	var req CreateCondoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	condo, err := h.condoService.CreateCondo(r.Context(), req.Name, req.PrefixCode, req.Address, managerID)
	if err != nil {
		h.logger.Error("Failed to create condo", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "create_condo_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: condo}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/condos/{cid}
func (h *CondoHandler) Get(w http.ResponseWriter, r *http.Request) {
	condoID, ok := ParseCondoID(w, r, h.logger)
	if !ok {
		return
	}

	condo, err := h.condoService.GetCondo(r.Context(), condoID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "condo_not_found", "Condo not found")
			return
		}
		h.logger.Error("Failed to get condo",
			zap.String("condo_id", condoID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "get_condo_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: condo}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Grant handles POST /api/condos/{cid}/grants
func (h *CondoHandler) Grant(w http.ResponseWriter, r *http.Request) {
	condoID, ok := ParseCondoID(w, r, h.logger)
	if !ok {
		return
	}

	actorID, err := auth.ManagerFromContext(r.Context())
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}

	// Only managers who can manage the condo's units may hand out grants.
	if err := h.condoService.RequirePermission(r.Context(), actorID, condoID, services.PermissionManageUnits); err != nil {
		h.writeError(w, http.StatusForbidden, "permission_denied", "Not allowed to grant access to this condo")
		return
	}

	var req GrantCondoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	granteeID, err := uuid.Parse(req.ManagerID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_manager_id", "Invalid manager ID format")
		return
	}

	grant := &models.ManagerCondo{
		ManagerID:      granteeID,
		CondoID:        condoID,
		CanUpload:      req.CanUpload,
		CanAllocate:    req.CanAllocate,
		CanManageUnits: req.CanManageUnits,
		AssignedBy:     actorID.String(),
	}
	if err := h.condoService.GrantCondo(r.Context(), grant); err != nil {
		h.logger.Error("Failed to grant condo",
			zap.String("condo_id", condoID.String()),
			zap.String("manager_id", granteeID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "grant_condo_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: grant}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Revoke handles DELETE /api/condos/{cid}/grants/{mid}
func (h *CondoHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	condoID, ok := ParseCondoID(w, r, h.logger)
	if !ok {
		return
	}

	actorID, err := auth.ManagerFromContext(r.Context())
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}
	if err := h.condoService.RequirePermission(r.Context(), actorID, condoID, services.PermissionManageUnits); err != nil {
		h.writeError(w, http.StatusForbidden, "permission_denied", "Not allowed to revoke access to this condo")
		return
	}

	granteeID, err := uuid.Parse(r.PathValue("mid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_manager_id", "Invalid manager ID format")
		return
	}

	if err := h.condoService.RevokeCondo(r.Context(), granteeID, condoID); err != nil {
		h.logger.Error("Failed to revoke grant",
			zap.String("condo_id", condoID.String()),
			zap.String("manager_id", granteeID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "revoke_grant_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Grant revoked"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *CondoHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
