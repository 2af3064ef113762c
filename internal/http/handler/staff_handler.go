package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/northpeak/logistics-api/internal/domain"
	"github.com/northpeak/logistics-api/internal/service"
	"go.uber.org/zap"
)

type StaffHandler struct {
	staffService *service.StaffService
	logger       *zap.Logger
}

func NewStaffHandler(staffService *service.StaffService, logger *zap.Logger) *StaffHandler {
	return &StaffHandler{
		staffService: staffService,
		logger:       logger,
	}
}

// Register handles POST /api/staff
func (h *StaffHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	staff, err := h.staffService.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateEmail) {
			respondError(w, http.StatusConflict, "A staff user with this email already exists")
			return
		}
		h.logger.Error("failed to register staff user", zap.Error(err))
		respondInternalError(w, "Failed to register staff user", err)
		return
	}

	respondJSON(w, http.StatusCreated, staff)
}

// List handles GET /api/staff
func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	staff, total, err := h.staffService.List(r.Context(), page, limit)
	if err != nil {
		h.logger.Error("failed to list staff", zap.Error(err))
		respondInternalError(w, "Failed to list staff", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"staff":      staff,
		"totalCount": total,
	})
}

// Delete handles DELETE /api/staff/{id}
func (h *StaffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid staff ID format")
		return
	}

	if err := h.staffService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrStaffNotFound) {
			respondError(w, http.StatusNotFound, "Staff user not found")
			return
		}
		h.logger.Error("failed to delete staff user", zap.Error(err))
		respondInternalError(w, "Failed to delete staff user", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RegisterToken handles POST /api/fcm-token
func (h *StaffHandler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := h.staffService.RegisterToken(r.Context(), &req); err != nil {
		if errors.Is(err, service.ErrStaffNotFound) {
			respondError(w, http.StatusNotFound, "No staff user matches this email and role")
			return
		}
		h.logger.Error("failed to register token", zap.Error(err))
		respondInternalError(w, "Failed to register token", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Token registered"})
}
