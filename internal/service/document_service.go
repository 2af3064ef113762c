package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/northpeak/logistics-api/internal/pdf"
	"github.com/northpeak/logistics-api/internal/storage"
	"go.uber.org/zap"
)

// DocumentService renders order documents and archives them. Archiving
// is best-effort: a storage failure is logged and the rendered bytes
// are still returned to the caller.
type DocumentService struct {
	orders   *OrderService
	renderer *pdf.Renderer
	archive  storage.Storage
	logger   *zap.Logger
}

// NewDocumentService creates a new DocumentService. The archive may be
// nil, in which case rendered documents are only streamed.
func NewDocumentService(orders *OrderService, renderer *pdf.Renderer, archive storage.Storage, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		orders:   orders,
		renderer: renderer,
		archive:  archive,
		logger:   logger,
	}
}

// RenderOrder renders the order as a PDF, archives it under
// orders/{customId}.pdf and returns the bytes with a download filename.
func (s *DocumentService) RenderOrder(ctx context.Context, orderID uuid.UUID) ([]byte, string, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, "", err
	}

	data, err := s.renderer.RenderOrder(order)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render order document: %w", err)
	}

	filename := order.CustomID + ".pdf"

	if s.archive != nil {
		key := "orders/" + filename
		if _, err := s.archive.Upload(ctx, key, "application/pdf", bytes.NewReader(data)); err != nil {
			s.logger.Warn("failed to archive order document",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	return data, filename, nil
}
