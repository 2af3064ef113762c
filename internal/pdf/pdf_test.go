package pdf_test

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/northpeak/logistics-api/internal/domain"
	"github.com/northpeak/logistics-api/internal/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder() *domain.OrderDTO {
	return &domain.OrderDTO{
		ID:           uuid.New(),
		CustomID:     "NPO-2026-00042",
		DeliveryDate: "2026-09-01T00:00:00Z",
		DeliveryType: "truck",
		Status:       domain.StatusNotDelivered,
		TotalPrice:   200, TotalVAT: 30, TotalSubtotal: 230,
		Client: &domain.ClientDTO{
			CompanyName: "Acme Steel",
			ClientName:  "Omar",
			PhoneNumber: "0500000000",
		},
		Items: []domain.OrderItemDTO{
			{Section: "steel", Type: "beam", Quantity: 1, Price: 100, VAT: 15, Subtotal: 115},
			{Section: "steel", Type: "plate", Quantity: 2, Price: 50, VAT: 15, Subtotal: 115},
		},
	}
}

func TestRenderOrderProducesWellFormedPDF(t *testing.T) {
	r := pdf.NewRenderer()

	data, err := r.RenderOrder(sampleOrder())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-1.4")))
	assert.True(t, bytes.HasSuffix(bytes.TrimRight(data, "\n"), []byte("%%EOF")))
	assert.Contains(t, string(data), "startxref")
	assert.Contains(t, string(data), "/Type /Catalog")
}

func TestRenderOrderEmbedsOrderDetails(t *testing.T) {
	r := pdf.NewRenderer()

	data, err := r.RenderOrder(sampleOrder())
	require.NoError(t, err)

	// The content stream is uncompressed, the text is inspectable
	text := string(data)
	assert.Contains(t, text, "NPO-2026-00042")
	assert.Contains(t, text, "Acme Steel")
	assert.Contains(t, text, "beam")
}

func TestRenderOrderEscapesDelimiters(t *testing.T) {
	r := pdf.NewRenderer()

	order := sampleOrder()
	order.Notes = "deliver (rear gate) before 10:00"

	data, err := r.RenderOrder(order)
	require.NoError(t, err)
	assert.Contains(t, string(data), `\(rear gate\)`)
}

func TestRenderOrderWithoutClient(t *testing.T) {
	r := pdf.NewRenderer()

	order := sampleOrder()
	order.Client = nil

	data, err := r.RenderOrder(order)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-1.4")))
}
