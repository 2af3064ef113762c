package handler_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/northpeak/logistics-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quotationPayload(clientID string) map[string]interface{} {
	return map[string]interface{}{
		"client_id":     clientID,
		"delivery_date": "2026-09-15",
		"delivery_type": "truck",
		"products": []map[string]interface{}{
			{"section": "steel", "type": "beam", "quantity": 1, "price": 100},
		},
	}
}

func TestQuotationCreateEndpoint(t *testing.T) {
	env := newTestEnv(t)
	client := env.seedClient(t)

	rec := env.do(t, http.MethodPost, "/api/quotations", quotationPayload(client.ID.String()))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp domain.CreateQuotationResponse
	decodeBody(t, rec, &resp)
	assert.Contains(t, resp.CustomID, "NPQ-")
	assert.InDelta(t, 115.0, resp.TotalSubtotal, 1e-9)
}

func TestQuotationAcceptSupervisorWithEmptyBody(t *testing.T) {
	env := newTestEnv(t)
	client := env.seedClient(t)

	rec := env.do(t, http.MethodPost, "/api/quotations", quotationPayload(client.ID.String()))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.CreateQuotationResponse
	decodeBody(t, rec, &created)

	// The body is optional on this endpoint
	rec = env.do(t, http.MethodPut, "/api/acceptSupervisorQuotation/"+created.QuotationID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var dto domain.QuotationDTO
	decodeBody(t, rec, &dto)
	assert.Equal(t, domain.AcceptAccepted, dto.SupervisorAccept)
	assert.Nil(t, dto.SupervisorID)
}

func TestQuotationAcceptSupervisorWithNamedSupervisor(t *testing.T) {
	env := newTestEnv(t)
	client := env.seedClient(t)

	supervisor := &domain.StaffUser{
		Name:   "Sara",
		Email:  "sara@northpeak.example",
		Role:   domain.RoleSupervisor,
		Active: true,
	}
	require.NoError(t, env.db.Create(supervisor).Error)

	rec := env.do(t, http.MethodPost, "/api/quotations", quotationPayload(client.ID.String()))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.CreateQuotationResponse
	decodeBody(t, rec, &created)

	rec = env.do(t, http.MethodPut, "/api/acceptSupervisorQuotation/"+created.QuotationID.String(),
		map[string]string{"supervisorId": supervisor.ID.String()})
	require.Equal(t, http.StatusOK, rec.Code)

	var dto domain.QuotationDTO
	decodeBody(t, rec, &dto)
	require.NotNil(t, dto.SupervisorID)
	assert.Equal(t, supervisor.ID, *dto.SupervisorID)
}

func TestQuotationAcceptSupervisorUnknownSupervisor(t *testing.T) {
	env := newTestEnv(t)
	client := env.seedClient(t)

	rec := env.do(t, http.MethodPost, "/api/quotations", quotationPayload(client.ID.String()))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.CreateQuotationResponse
	decodeBody(t, rec, &created)

	rec = env.do(t, http.MethodPut, "/api/acceptSupervisorQuotation/"+created.QuotationID.String(),
		map[string]string{"supervisorId": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Supervisor not found")
}

func TestQuotationGetMissing(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/quotations/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Quotation not found"}`, rec.Body.String())
}
