package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/northpeak/logistics-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderCreateEndpoint(t *testing.T) {
	env := newTestEnv(t)
	client := env.seedClient(t)

	rec := env.do(t, http.MethodPost, "/api/orders", orderPayload(client.ID.String()))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp domain.CreateOrderResponse
	decodeBody(t, rec, &resp)
	assert.Contains(t, resp.CustomID, "NPO-")
	assert.InDelta(t, 230.0, resp.TotalSubtotal, 1e-9)
}

func TestOrderCreateValidationFailure(t *testing.T) {
	env := newTestEnv(t)
	client := env.seedClient(t)

	payload := orderPayload(client.ID.String())
	delete(payload, "delivery_type")

	rec := env.do(t, http.MethodPost, "/api/orders", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "delivery_type")

	var count int64
	require.NoError(t, env.db.Model(&domain.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestOrderCreateMalformedBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request body")
}

func TestOrderCreateUnknownClient(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/orders", orderPayload(uuid.NewString()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Client not found")
}

func TestOrderGetMissing(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/orders/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Order not found"}`, rec.Body.String())
}

func TestOrderGetInvalidID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/orders/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderAcceptanceAndDeliveryFlow(t *testing.T) {
	env := newTestEnv(t)
	client := env.seedClient(t)

	rec := env.do(t, http.MethodPost, "/api/orders", orderPayload(client.ID.String()))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.CreateOrderResponse
	decodeBody(t, rec, &created)
	id := created.OrderID.String()

	// Delivery before the chain has signed off
	rec = env.do(t, http.MethodPut, "/api/delivered/"+id, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/acceptSupervisor/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dto domain.OrderDTO
	decodeBody(t, rec, &dto)
	assert.Equal(t, domain.AcceptAccepted, dto.SupervisorAccept)

	rec = env.do(t, http.MethodPut, "/api/acceptStorekeeper/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/delivered/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &dto)
	assert.Equal(t, domain.StatusDelivered, dto.Status)

	rec = env.do(t, http.MethodPut, "/api/delivered/"+id, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already delivered")
}

func TestOrderRoleScopedListings(t *testing.T) {
	env := newTestEnv(t)
	client := env.seedClient(t)

	rec := env.do(t, http.MethodPost, "/api/orders", orderPayload(client.ID.String()))
	require.Equal(t, http.StatusCreated, rec.Code)
	var first domain.CreateOrderResponse
	decodeBody(t, rec, &first)

	rec = env.do(t, http.MethodPost, "/api/orders", orderPayload(client.ID.String()))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/acceptSupervisor/"+first.OrderID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list domain.OrderListResponse
	rec = env.do(t, http.MethodGet, "/api/orders/supervisor", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &list)
	assert.EqualValues(t, 1, list.TotalCount)

	rec = env.do(t, http.MethodGet, "/api/orders/supervisorAccept", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &list)
	require.EqualValues(t, 1, list.TotalCount)
	assert.Equal(t, first.CustomID, list.Orders[0].CustomID)

	rec = env.do(t, http.MethodGet, "/api/orders/salesRep", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &list)
	assert.EqualValues(t, 2, list.TotalCount)
}

func TestOrderDeleteEndpoint(t *testing.T) {
	env := newTestEnv(t)
	client := env.seedClient(t)

	rec := env.do(t, http.MethodPost, "/api/orders", orderPayload(client.ID.String()))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.CreateOrderResponse
	decodeBody(t, rec, &created)

	rec = env.do(t, http.MethodDelete, "/api/orders/"+created.OrderID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/orders/"+created.OrderID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderListPaginationParams(t *testing.T) {
	env := newTestEnv(t)
	client := env.seedClient(t)

	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodPost, "/api/orders", orderPayload(client.ID.String()))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	var list domain.OrderListResponse
	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/orders?page=%d&limit=%d", 2, 2), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &list)
	assert.EqualValues(t, 3, list.TotalCount)
	assert.Len(t, list.Orders, 1)
	assert.Equal(t, 2, list.CurrentPage)
	assert.False(t, list.HasMore)
}
