package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/northpeak/logistics-api/internal/config"
	"github.com/northpeak/logistics-api/internal/database"
	"github.com/northpeak/logistics-api/internal/http/handler"
	"github.com/northpeak/logistics-api/internal/http/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Router struct {
	cfg              *config.Config
	logger           *zap.Logger
	db               *gorm.DB
	rateLimiter      *middleware.RateLimiter
	clientHandler    *handler.ClientHandler
	orderHandler     *handler.OrderHandler
	quotationHandler *handler.QuotationHandler
	staffHandler     *handler.StaffHandler
	documentHandler  *handler.DocumentHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	rateLimiter *middleware.RateLimiter,
	clientHandler *handler.ClientHandler,
	orderHandler *handler.OrderHandler,
	quotationHandler *handler.QuotationHandler,
	staffHandler *handler.StaffHandler,
	documentHandler *handler.DocumentHandler,
) *Router {
	return &Router{
		cfg:              cfg,
		logger:           logger,
		db:               db,
		rateLimiter:      rateLimiter,
		clientHandler:    clientHandler,
		orderHandler:     orderHandler,
		quotationHandler: quotationHandler,
		staffHandler:     staffHandler,
		documentHandler:  documentHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with pool stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			},
		})
	})

	// Combined readiness check
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		status := "healthy"
		code := http.StatusOK
		if !allHealthy {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": status,
			"checks": checks,
		})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Clients
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", rt.clientHandler.List)
			r.Post("/", rt.clientHandler.Create)
			r.Get("/{id}", rt.clientHandler.GetByID)
			r.Put("/{id}", rt.clientHandler.Update)
			r.Delete("/{id}", rt.clientHandler.Delete)
		})

		// Orders. The role-scoped listings are fixed paths and must be
		// registered before the {id} routes.
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", rt.orderHandler.List)
			r.Post("/", rt.orderHandler.Create)
			r.Get("/supervisor", rt.orderHandler.ListPendingSupervisor)
			r.Get("/salesRep", rt.orderHandler.ListSalesRep)
			r.Get("/storekeeperaccept", rt.orderHandler.ListStorekeeperAccepted)
			r.Get("/supervisorAccept", rt.orderHandler.ListSupervisorAccepted)
			r.Get("/{id}", rt.orderHandler.GetByID)
			r.Put("/{id}", rt.orderHandler.Update)
			r.Delete("/{id}", rt.orderHandler.Delete)
		})

		// Quotations
		r.Route("/quotations", func(r chi.Router) {
			r.Get("/", rt.quotationHandler.List)
			r.Post("/", rt.quotationHandler.Create)
			r.Get("/supervisor", rt.quotationHandler.ListPendingSupervisor)
			r.Get("/salesRep", rt.quotationHandler.ListSalesRep)
			r.Get("/storekeeperaccept", rt.quotationHandler.ListStorekeeperAccepted)
			r.Get("/supervisorAccept", rt.quotationHandler.ListSupervisorAccepted)
			r.Get("/{id}", rt.quotationHandler.GetByID)
			r.Put("/{id}", rt.quotationHandler.Update)
			r.Delete("/{id}", rt.quotationHandler.Delete)
		})

		// Approval chain
		r.Put("/acceptSupervisor/{id}", rt.orderHandler.AcceptSupervisor)
		r.Put("/acceptStorekeeper/{id}", rt.orderHandler.AcceptStorekeeper)
		r.Put("/acceptManager/{id}", rt.orderHandler.AcceptManager)
		r.Put("/acceptSupervisorQuotation/{id}", rt.quotationHandler.AcceptSupervisor)
		r.Put("/acceptStorekeeperQuotation/{id}", rt.quotationHandler.AcceptStorekeeper)
		r.Put("/acceptManagerQuotation/{id}", rt.quotationHandler.AcceptManager)

		// Delivery
		r.Put("/delivered/{id}", rt.orderHandler.Deliver)

		// Documents
		r.Get("/order/pdf/{orderId}", rt.documentHandler.RenderOrder)

		// Staff and push tokens
		r.Route("/staff", func(r chi.Router) {
			r.Get("/", rt.staffHandler.List)
			r.Post("/", rt.staffHandler.Register)
			r.Delete("/{id}", rt.staffHandler.Delete)
		})
		r.Post("/fcm-token", rt.staffHandler.RegisterToken)
	})

	return r
}
