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

type ClientHandler struct {
	clientService *service.ClientService
	logger        *zap.Logger
}

func NewClientHandler(clientService *service.ClientService, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{
		clientService: clientService,
		logger:        logger,
	}
}

// Create handles POST /api/clients
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	client, err := h.clientService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create client", zap.Error(err))
		respondInternalError(w, "Failed to create client", err)
		return
	}

	respondJSON(w, http.StatusCreated, client)
}

// List handles GET /api/clients
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	search := r.URL.Query().Get("search")

	result, err := h.clientService.List(r.Context(), page, limit, search)
	if err != nil {
		h.logger.Error("failed to list clients", zap.Error(err))
		respondInternalError(w, "Failed to list clients", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID handles GET /api/clients/{id}
func (h *ClientHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	client, err := h.clientService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrClientNotFound) {
			respondError(w, http.StatusNotFound, "Client not found")
			return
		}
		h.logger.Error("failed to get client", zap.Error(err))
		respondInternalError(w, "Failed to get client", err)
		return
	}

	respondJSON(w, http.StatusOK, client)
}

// Update handles PUT /api/clients/{id}
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	var req domain.UpdateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	client, err := h.clientService.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrClientNotFound) {
			respondError(w, http.StatusNotFound, "Client not found")
			return
		}
		h.logger.Error("failed to update client", zap.Error(err))
		respondInternalError(w, "Failed to update client", err)
		return
	}

	respondJSON(w, http.StatusOK, client)
}

// Delete handles DELETE /api/clients/{id}. A client with orders or
// quotations cannot be removed.
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	if err := h.clientService.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrClientNotFound):
			respondError(w, http.StatusNotFound, "Client not found")
		case errors.Is(err, service.ErrClientInUse):
			respondError(w, http.StatusConflict, "Client has orders or quotations and cannot be deleted")
		default:
			h.logger.Error("failed to delete client", zap.Error(err))
			respondInternalError(w, "Failed to delete client", err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
