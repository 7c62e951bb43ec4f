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

// UnitRequest describes one dwelling unit in create and update payloads.
type UnitRequest struct {
	UnitNumber    string  `json:"unit_number" validate:"required"`
	OwnerName     string  `json:"owner_name,omitempty"`
	OwnerEmail    string  `json:"owner_email,omitempty" validate:"omitempty,email"`
	SquareFootage float64 `json:"square_footage,omitempty" validate:"gte=0"`
}

// BulkUnitsRequest for POST /api/condos/{cid}/units/bulk
type BulkUnitsRequest struct {
	Units []UnitRequest `json:"units" validate:"required,min=1,dive"`
}

// UnitListResponse for GET /api/condos/{cid}/units
type UnitListResponse struct {
	Units []*models.DwellUnit `json:"units"`
	Total int                 `json:"total"`
}

// UnitHandler handles dwelling unit HTTP requests.
type UnitHandler struct {
	condoService services.CondoService
	logger       *zap.Logger
}

// NewUnitHandler creates a new unit handler.
func NewUnitHandler(condoService services.CondoService, logger *zap.Logger) *UnitHandler {
	return &UnitHandler{
		condoService: condoService,
		logger:       logger,
	}
}

// RegisterRoutes registers the unit handler's routes on the given mux.
func (h *UnitHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, tenantMiddleware TenantMiddleware) {
	base := "/api/condos/{cid}/units"

	mux.HandleFunc("GET "+base,
		authMiddleware.RequireAuthWithPathValidation("cid")(tenantMiddleware(h.List)))
	mux.HandleFunc("POST "+base,
		authMiddleware.RequireAuthWithPathValidation("cid")(tenantMiddleware(h.Create)))
	mux.HandleFunc("POST "+base+"/bulk",
		authMiddleware.RequireAuthWithPathValidation("cid")(tenantMiddleware(h.CreateBulk)))
	mux.HandleFunc("PUT "+base+"/{unit}",
		authMiddleware.RequireAuthWithPathValidation("cid")(tenantMiddleware(h.Update)))
	mux.HandleFunc("DELETE "+base+"/{unit}",
		authMiddleware.RequireAuthWithPathValidation("cid")(tenantMiddleware(h.Delete)))
}

// List handles GET /api/condos/{cid}/units
func (h *UnitHandler) List(w http.ResponseWriter, r *http.Request) {
	condoID, ok := ParseCondoID(w, r, h.logger)
	if !ok {
		return
	}

	units, err := h.condoService.ListUnits(r.Context(), condoID)
	if err != nil {
		h.logger.Error("Failed to list units",
			zap.String("condo_id", condoID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "list_units_failed", err.Error())
		return
	}

	response := UnitListResponse{
		Units: units,
		Total: len(units),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/condos/{cid}/units
func (h *UnitHandler) Create(w http.ResponseWriter, r *http.Request) {
	condoID, ok := h.requireManageUnits(w, r)
	if !ok {
		return
	}

	var req UnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	unit := req.toModel(condoID)
	if err := h.condoService.CreateUnit(r.Context(), unit); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			h.writeError(w, http.StatusConflict, "unit_exists", "Unit number already exists in this condo")
			return
		}
		h.logger.Error("Failed to create unit",
			zap.String("condo_id", condoID.String()),
			zap.String("unit_number", req.UnitNumber),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "create_unit_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: unit}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CreateBulk handles POST /api/condos/{cid}/units/bulk
func (h *UnitHandler) CreateBulk(w http.ResponseWriter, r *http.Request) {
	condoID, ok := h.requireManageUnits(w, r)
	if !ok {
		return
	}

	var req BulkUnitsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	units := make([]*models.DwellUnit, 0, len(req.Units))
	for _, u := range req.Units {
		units = append(units, u.toModel(condoID))
	}

	result, err := h.condoService.CreateUnits(r.Context(), condoID, units)
	if err != nil {
		h.logger.Error("Failed to create units",
			zap.String("condo_id", condoID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "create_units_failed", err.Error())
		return
	}

	// Partial failures still return the per-item breakdown with 200.
	status := http.StatusCreated
	if len(result.Failed) > 0 {
		status = http.StatusOK
	}
	if err := WriteJSON(w, status, ApiResponse{Success: len(result.Failed) == 0, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/condos/{cid}/units/{unit}
func (h *UnitHandler) Update(w http.ResponseWriter, r *http.Request) {
	condoID, ok := h.requireManageUnits(w, r)
	if !ok {
		return
	}
	unitNumber, ok := ParseUnitNumber(w, r, h.logger)
	if !ok {
		return
	}

	var req UnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	req.UnitNumber = unitNumber
	if err := validate.Struct(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	unit := req.toModel(condoID)
	if err := h.condoService.UpdateUnit(r.Context(), unit); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "unit_not_found", "Unit not found")
			return
		}
		h.logger.Error("Failed to update unit",
			zap.String("condo_id", condoID.String()),
			zap.String("unit_number", unitNumber),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "update_unit_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: unit}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/condos/{cid}/units/{unit}
func (h *UnitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	condoID, ok := h.requireManageUnits(w, r)
	if !ok {
		return
	}
	unitNumber, ok := ParseUnitNumber(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.condoService.DeleteUnit(r.Context(), condoID, unitNumber); err != nil {
		if errors.Is(err, apperrors.ErrDeleteUnconfirmed) {
			h.writeError(w, http.StatusInternalServerError, "delete_unconfirmed", "Unit deletion could not be confirmed")
			return
		}
		h.logger.Error("Failed to delete unit",
			zap.String("condo_id", condoID.String()),
			zap.String("unit_number", unitNumber),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "delete_unit_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Message: "Unit deleted"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// requireManageUnits parses the condo ID and checks the caller may manage
// units in it. Writes the error response itself on failure.
func (h *UnitHandler) requireManageUnits(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	condoID, ok := ParseCondoID(w, r, h.logger)
	if !ok {
		return uuid.Nil, false
	}

	managerID, err := auth.ManagerFromContext(r.Context())
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return uuid.Nil, false
	}
	if err := h.condoService.RequirePermission(r.Context(), managerID, condoID, services.PermissionManageUnits); err != nil {
		h.writeError(w, http.StatusForbidden, "permission_denied", "Not allowed to manage units in this condo")
		return uuid.Nil, false
	}
	return condoID, true
}

func (req *UnitRequest) toModel(condoID uuid.UUID) *models.DwellUnit {
	return &models.DwellUnit{
		CondoID:       condoID,
		UnitNumber:    req.UnitNumber,
		OwnerName:     req.OwnerName,
		OwnerEmail:    req.OwnerEmail,
		SquareFootage: req.SquareFootage,
	}
}

func (h *UnitHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
