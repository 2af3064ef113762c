package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/northpeak/logistics-api/internal/domain"
	"github.com/northpeak/logistics-api/internal/pricing"
	"github.com/northpeak/logistics-api/internal/repository"
	"github.com/northpeak/logistics-api/internal/service"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orderService *service.OrderService
	logger       *zap.Logger
}

func NewOrderHandler(orderService *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// Create handles POST /api/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	resp, err := h.orderService.Create(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClientNotFound):
			respondError(w, http.StatusNotFound, "Client not found")
		case errors.Is(err, service.ErrInvalidDeliveryDate):
			respondError(w, http.StatusBadRequest, "Invalid delivery date")
		case errors.Is(err, pricing.ErrInvalidProduct):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to create order", zap.Error(err))
			respondInternalError(w, "Failed to create order", err)
		}
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

// List handles GET /api/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, nil)
}

// ListPendingSupervisor handles GET /api/orders/supervisor: the
// supervisor work queue, orders still awaiting supervisor approval
func (h *OrderHandler) ListPendingSupervisor(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, map[string]domain.AcceptStatus{"supervisor_accept": domain.AcceptPending})
}

// ListSalesRep handles GET /api/orders/salesRep: the unfiltered sales
// view
func (h *OrderHandler) ListSalesRep(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, nil)
}

// ListStorekeeperAccepted handles GET /api/orders/storekeeperaccept
func (h *OrderHandler) ListStorekeeperAccepted(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, map[string]domain.AcceptStatus{"storekeeper_accept": domain.AcceptAccepted})
}

// ListSupervisorAccepted handles GET /api/orders/supervisorAccept
func (h *OrderHandler) ListSupervisorAccepted(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, map[string]domain.AcceptStatus{"supervisor_accept": domain.AcceptAccepted})
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request, flags map[string]domain.AcceptStatus) {
	filter := docFilterFromQuery(r)
	filter.AcceptFlags = flags

	result, err := h.orderService.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list orders", zap.Error(err))
		respondInternalError(w, "Failed to list orders", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID handles GET /api/orders/{id}
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	order, err := h.orderService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "Order not found")
			return
		}
		h.logger.Error("failed to get order", zap.Error(err))
		respondInternalError(w, "Failed to get order", err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// Update handles PUT /api/orders/{id}
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	var req domain.UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	order, err := h.orderService.Update(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(w, http.StatusNotFound, "Order not found")
		case errors.Is(err, service.ErrInvalidDeliveryDate):
			respondError(w, http.StatusBadRequest, "Invalid delivery date")
		case errors.Is(err, pricing.ErrInvalidProduct):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to update order", zap.Error(err))
			respondInternalError(w, "Failed to update order", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// Delete handles DELETE /api/orders/{id}
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	if err := h.orderService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "Order not found")
			return
		}
		h.logger.Error("failed to delete order", zap.Error(err))
		respondInternalError(w, "Failed to delete order", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AcceptSupervisor handles PUT /api/acceptSupervisor/{id}
func (h *OrderHandler) AcceptSupervisor(w http.ResponseWriter, r *http.Request) {
	h.accept(w, r, h.orderService.AcceptSupervisor)
}

// AcceptStorekeeper handles PUT /api/acceptStorekeeper/{id}
func (h *OrderHandler) AcceptStorekeeper(w http.ResponseWriter, r *http.Request) {
	h.accept(w, r, h.orderService.AcceptStorekeeper)
}

// AcceptManager handles PUT /api/acceptManager/{id}
func (h *OrderHandler) AcceptManager(w http.ResponseWriter, r *http.Request) {
	h.accept(w, r, h.orderService.AcceptManager)
}

func (h *OrderHandler) accept(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID) (*domain.OrderDTO, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	order, err := fn(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "Order not found")
			return
		}
		h.logger.Error("failed to accept order", zap.Error(err))
		respondInternalError(w, "Failed to accept order", err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// Deliver handles PUT /api/delivered/{id}
func (h *OrderHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID format")
		return
	}

	order, err := h.orderService.Deliver(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(w, http.StatusNotFound, "Order not found")
		case errors.Is(err, service.ErrAlreadyDelivered):
			respondError(w, http.StatusConflict, "Order is already delivered")
		case errors.Is(err, service.ErrDeliveryNotReady):
			respondError(w, http.StatusConflict, "Order requires supervisor and storekeeper acceptance before delivery")
		default:
			h.logger.Error("failed to deliver order", zap.Error(err))
			respondInternalError(w, "Failed to deliver order", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// docFilterFromQuery parses the shared pagination and filter params
func docFilterFromQuery(r *http.Request) repository.DocFilter {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	return repository.DocFilter{
		Page:   page,
		Limit:  limit,
		Query:  r.URL.Query().Get("query"),
		Status: domain.DeliveryStatus(r.URL.Query().Get("status")),
	}
}
