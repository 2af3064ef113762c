package mapper_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/northpeak/logistics-api/internal/domain"
	"github.com/northpeak/logistics-api/internal/mapper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeliveryDateAcceptsBareDate(t *testing.T) {
	parsed, err := mapper.ParseDeliveryDate("2026-09-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), parsed)
}

func TestParseDeliveryDateAcceptsRFC3339(t *testing.T) {
	parsed, err := mapper.ParseDeliveryDate("2026-09-15T08:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 15, 8, 30, 0, 0, time.UTC), parsed)
}

func TestParseDeliveryDateRejectsGarbage(t *testing.T) {
	for _, value := range []string{"", "next tuesday", "15/09/2026", "2026-13-40"} {
		_, err := mapper.ParseDeliveryDate(value)
		assert.Error(t, err, value)
	}
}

func TestToOrderDTO(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	delivered := time.Date(2026, 9, 2, 9, 15, 0, 0, time.UTC)
	clientID := uuid.New()

	order := &domain.Order{
		BaseModel:    domain.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		ClientID:     clientID,
		CustomID:     "NPO-2026-00042",
		DeliveryDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		DeliveryType: "truck",
		Notes:        "gate 4",
		TotalPrice:   200, TotalVAT: 30, TotalSubtotal: 230,
		ActualDeliveryDate: &delivered,
		Status:             domain.StatusDelivered,
		SupervisorAccept:   domain.AcceptAccepted,
		StorekeeperAccept:  domain.AcceptAccepted,
		ManagerAccept:      domain.AcceptPending,
		Client: &domain.Client{
			BaseModel:   domain.BaseModel{ID: clientID},
			CompanyName: "Acme Steel",
		},
		Items: []domain.OrderItem{
			{Section: "steel", Type: "beam", Quantity: 1, Price: 100, VAT: 15, Subtotal: 115},
		},
	}

	dto := mapper.ToOrderDTO(order)

	assert.Equal(t, "NPO-2026-00042", dto.CustomID)
	assert.Equal(t, "2026-09-01T00:00:00Z", dto.DeliveryDate)
	assert.Equal(t, "2026-09-02T09:15:00Z", dto.ActualDeliveryDate)
	assert.Equal(t, domain.AcceptPending, dto.ManagerAccept)
	require.NotNil(t, dto.Client)
	assert.Equal(t, "Acme Steel", dto.Client.CompanyName)
	require.Len(t, dto.Items, 1)
	assert.InDelta(t, 115.0, dto.Items[0].Subtotal, 1e-9)
}

func TestToOrderDTOWithoutOptionalFields(t *testing.T) {
	dto := mapper.ToOrderDTO(&domain.Order{CustomID: "NPO-2026-00001"})

	assert.Empty(t, dto.ActualDeliveryDate)
	assert.Nil(t, dto.Client)
	assert.NotNil(t, dto.Items)
	assert.Empty(t, dto.Items)
}

func TestToQuotationDTOCarriesSupervisor(t *testing.T) {
	supervisorID := uuid.New()
	dto := mapper.ToQuotationDTO(&domain.Quotation{
		CustomID:     "NPQ-2026-00007",
		SupervisorID: &supervisorID,
	})

	require.NotNil(t, dto.SupervisorID)
	assert.Equal(t, supervisorID, *dto.SupervisorID)
}
