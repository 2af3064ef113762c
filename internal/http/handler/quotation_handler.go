package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/northpeak/logistics-api/internal/domain"
	"github.com/northpeak/logistics-api/internal/pricing"
	"github.com/northpeak/logistics-api/internal/service"
	"go.uber.org/zap"
)

type QuotationHandler struct {
	quotationService *service.QuotationService
	logger           *zap.Logger
}

func NewQuotationHandler(quotationService *service.QuotationService, logger *zap.Logger) *QuotationHandler {
	return &QuotationHandler{
		quotationService: quotationService,
		logger:           logger,
	}
}

// Create handles POST /api/quotations
func (h *QuotationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateQuotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	resp, err := h.quotationService.Create(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClientNotFound):
			respondError(w, http.StatusNotFound, "Client not found")
		case errors.Is(err, service.ErrInvalidDeliveryDate):
			respondError(w, http.StatusBadRequest, "Invalid delivery date")
		case errors.Is(err, pricing.ErrInvalidProduct):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to create quotation", zap.Error(err))
			respondInternalError(w, "Failed to create quotation", err)
		}
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

// List handles GET /api/quotations
func (h *QuotationHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, nil)
}

// ListPendingSupervisor handles GET /api/quotations/supervisor
func (h *QuotationHandler) ListPendingSupervisor(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, map[string]domain.AcceptStatus{"supervisor_accept": domain.AcceptPending})
}

// ListSalesRep handles GET /api/quotations/salesRep
func (h *QuotationHandler) ListSalesRep(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, nil)
}

// ListStorekeeperAccepted handles GET /api/quotations/storekeeperaccept
func (h *QuotationHandler) ListStorekeeperAccepted(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, map[string]domain.AcceptStatus{"storekeeper_accept": domain.AcceptAccepted})
}

// ListSupervisorAccepted handles GET /api/quotations/supervisorAccept
func (h *QuotationHandler) ListSupervisorAccepted(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, map[string]domain.AcceptStatus{"supervisor_accept": domain.AcceptAccepted})
}

func (h *QuotationHandler) list(w http.ResponseWriter, r *http.Request, flags map[string]domain.AcceptStatus) {
	filter := docFilterFromQuery(r)
	filter.AcceptFlags = flags

	result, err := h.quotationService.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list quotations", zap.Error(err))
		respondInternalError(w, "Failed to list quotations", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID handles GET /api/quotations/{id}
func (h *QuotationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid quotation ID format")
		return
	}

	quotation, err := h.quotationService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrQuotationNotFound) {
			respondError(w, http.StatusNotFound, "Quotation not found")
			return
		}
		h.logger.Error("failed to get quotation", zap.Error(err))
		respondInternalError(w, "Failed to get quotation", err)
		return
	}

	respondJSON(w, http.StatusOK, quotation)
}

// Update handles PUT /api/quotations/{id}
func (h *QuotationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid quotation ID format")
		return
	}

	var req domain.UpdateQuotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	quotation, err := h.quotationService.Update(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuotationNotFound):
			respondError(w, http.StatusNotFound, "Quotation not found")
		case errors.Is(err, service.ErrInvalidDeliveryDate):
			respondError(w, http.StatusBadRequest, "Invalid delivery date")
		case errors.Is(err, pricing.ErrInvalidProduct):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to update quotation", zap.Error(err))
			respondInternalError(w, "Failed to update quotation", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, quotation)
}

// Delete handles DELETE /api/quotations/{id}
func (h *QuotationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid quotation ID format")
		return
	}

	if err := h.quotationService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrQuotationNotFound) {
			respondError(w, http.StatusNotFound, "Quotation not found")
			return
		}
		h.logger.Error("failed to delete quotation", zap.Error(err))
		respondInternalError(w, "Failed to delete quotation", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AcceptSupervisor handles PUT /api/acceptSupervisorQuotation/{id}.
// The optional body names the accepting supervisor.
func (h *QuotationHandler) AcceptSupervisor(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid quotation ID format")
		return
	}

	var req domain.AcceptQuotationSupervisorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	quotation, err := h.quotationService.AcceptSupervisor(r.Context(), id, req.SupervisorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuotationNotFound):
			respondError(w, http.StatusNotFound, "Quotation not found")
		case errors.Is(err, service.ErrSupervisorNotFound):
			respondError(w, http.StatusNotFound, "Supervisor not found")
		default:
			h.logger.Error("failed to accept quotation", zap.Error(err))
			respondInternalError(w, "Failed to accept quotation", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, quotation)
}

// AcceptStorekeeper handles PUT /api/acceptStorekeeperQuotation/{id}
func (h *QuotationHandler) AcceptStorekeeper(w http.ResponseWriter, r *http.Request) {
	h.accept(w, r, h.quotationService.AcceptStorekeeper)
}

// AcceptManager handles PUT /api/acceptManagerQuotation/{id}
func (h *QuotationHandler) AcceptManager(w http.ResponseWriter, r *http.Request) {
	h.accept(w, r, h.quotationService.AcceptManager)
}

func (h *QuotationHandler) accept(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID) (*domain.QuotationDTO, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid quotation ID format")
		return
	}

	quotation, err := fn(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrQuotationNotFound) {
			respondError(w, http.StatusNotFound, "Quotation not found")
			return
		}
		h.logger.Error("failed to accept quotation", zap.Error(err))
		respondInternalError(w, "Failed to accept quotation", err)
		return
	}

	respondJSON(w, http.StatusOK, quotation)
}
