package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/northpeak/logistics-api/internal/database"
	"github.com/northpeak/logistics-api/internal/domain"
	"github.com/northpeak/logistics-api/internal/http/handler"
	"github.com/northpeak/logistics-api/internal/pricing"
	"github.com/northpeak/logistics-api/internal/repository"
	"github.com/northpeak/logistics-api/internal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testEnv struct {
	db     *gorm.DB
	router chi.Router
}

// newTestEnv wires real services over an in-memory sqlite database and
// mounts the handlers on the same paths the production router uses.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.Client{},
		&domain.StaffUser{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.Quotation{},
		&domain.QuotationItem{},
		&domain.NumberSequence{},
	))

	log := zap.NewNop()
	retry := database.DefaultRetryPolicy(0, log)
	calculator := pricing.NewCalculator(0.15)

	clientRepo := repository.NewClientRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	quoteRepo := repository.NewQuotationRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	seqRepo := repository.NewNumberSequenceRepository(db)

	clientService := service.NewClientService(clientRepo, retry, log)
	orderService := service.NewOrderService(db, orderRepo, clientRepo, seqRepo, calculator, nil, retry, log)
	quotationService := service.NewQuotationService(db, quoteRepo, clientRepo, staffRepo, seqRepo, calculator, nil, retry, log)
	staffService := service.NewStaffService(staffRepo, nil, nil, retry, log)

	clientHandler := handler.NewClientHandler(clientService, log)
	orderHandler := handler.NewOrderHandler(orderService, log)
	quotationHandler := handler.NewQuotationHandler(quotationService, log)
	staffHandler := handler.NewStaffHandler(staffService, log)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", clientHandler.List)
			r.Post("/", clientHandler.Create)
			r.Get("/{id}", clientHandler.GetByID)
			r.Put("/{id}", clientHandler.Update)
			r.Delete("/{id}", clientHandler.Delete)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orderHandler.List)
			r.Post("/", orderHandler.Create)
			r.Get("/supervisor", orderHandler.ListPendingSupervisor)
			r.Get("/salesRep", orderHandler.ListSalesRep)
			r.Get("/storekeeperaccept", orderHandler.ListStorekeeperAccepted)
			r.Get("/supervisorAccept", orderHandler.ListSupervisorAccepted)
			r.Get("/{id}", orderHandler.GetByID)
			r.Put("/{id}", orderHandler.Update)
			r.Delete("/{id}", orderHandler.Delete)
		})

		r.Put("/acceptSupervisor/{id}", orderHandler.AcceptSupervisor)
		r.Put("/acceptStorekeeper/{id}", orderHandler.AcceptStorekeeper)
		r.Put("/acceptManager/{id}", orderHandler.AcceptManager)
		r.Put("/delivered/{id}", orderHandler.Deliver)

		r.Route("/quotations", func(r chi.Router) {
			r.Get("/", quotationHandler.List)
			r.Post("/", quotationHandler.Create)
			r.Get("/{id}", quotationHandler.GetByID)
			r.Put("/{id}", quotationHandler.Update)
			r.Delete("/{id}", quotationHandler.Delete)
		})

		r.Put("/acceptSupervisorQuotation/{id}", quotationHandler.AcceptSupervisor)
		r.Put("/acceptStorekeeperQuotation/{id}", quotationHandler.AcceptStorekeeper)
		r.Put("/acceptManagerQuotation/{id}", quotationHandler.AcceptManager)

		r.Route("/staff", func(r chi.Router) {
			r.Get("/", staffHandler.List)
			r.Post("/", staffHandler.Register)
			r.Delete("/{id}", staffHandler.Delete)
		})
		r.Post("/fcm-token", staffHandler.RegisterToken)
	})

	return &testEnv{db: db, router: r}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func (e *testEnv) seedClient(t *testing.T) *domain.Client {
	t.Helper()

	client := &domain.Client{
		CompanyName: "Acme Steel",
		ClientName:  "Omar",
		ClientType:  domain.ClientTypeCash,
		PhoneNumber: "0500000000",
	}
	require.NoError(t, e.db.Create(client).Error)
	return client
}

func orderPayload(clientID string) map[string]interface{} {
	return map[string]interface{}{
		"client_id":     clientID,
		"delivery_date": "2026-09-15",
		"delivery_type": "truck",
		"products": []map[string]interface{}{
			{"section": "steel", "type": "beam", "quantity": 1, "price": 100},
			{"section": "steel", "type": "plate", "quantity": 2, "price": 50},
		},
	}
}
