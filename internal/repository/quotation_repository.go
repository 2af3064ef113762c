package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/northpeak/logistics-api/internal/domain"
	"gorm.io/gorm"
)

type QuotationRepository struct {
	db *gorm.DB
}

func NewQuotationRepository(db *gorm.DB) *QuotationRepository {
	return &QuotationRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *QuotationRepository) WithTx(tx *gorm.DB) *QuotationRepository {
	return &QuotationRepository{db: tx}
}

func (r *QuotationRepository) Create(ctx context.Context, quotation *domain.Quotation) error {
	return r.db.WithContext(ctx).Create(quotation).Error
}

func (r *QuotationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quotation, error) {
	var quotation domain.Quotation
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Items").
		Where("id = ?", id).
		First(&quotation).Error
	if err != nil {
		return nil, err
	}
	return &quotation, nil
}

func (r *QuotationRepository) Save(ctx context.Context, quotation *domain.Quotation) error {
	return r.db.WithContext(ctx).Save(quotation).Error
}

// UpdateTotals writes the three derived totals in one statement
func (r *QuotationRepository) UpdateTotals(ctx context.Context, id uuid.UUID, price, vat, subtotal float64) error {
	return r.db.WithContext(ctx).Model(&domain.Quotation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_price":    price,
			"total_vat":      vat,
			"total_subtotal": subtotal,
		}).Error
}

// CreateItems inserts the given line items
func (r *QuotationRepository) CreateItems(ctx context.Context, items []domain.QuotationItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// DeleteItems removes every line item belonging to the quotation
func (r *QuotationRepository) DeleteItems(ctx context.Context, quotationID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("quotation_id = ?", quotationID).
		Delete(&domain.QuotationItem{}).Error
}

// Delete removes the quotation row itself. Line items go first.
func (r *QuotationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Quotation{}, "id = ?", id).Error
}

// CountStaleUnapproved counts quotations still waiting for supervisor
// approval that were created before the cutoff
func (r *QuotationRepository) CountStaleUnapproved(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Quotation{}).
		Where("supervisor_accept = ?", domain.AcceptPending).
		Where("created_at < ?", cutoff).
		Count(&count).Error
	return count, err
}

func (r *QuotationRepository) List(ctx context.Context, filter DocFilter) ([]domain.Quotation, int64, error) {
	var quotations []domain.Quotation
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Quotation{})

	if filter.Query != "" {
		pattern := "%" + strings.ToLower(filter.Query) + "%"
		query = query.Where(
			"client_id IN (SELECT id FROM clients WHERE LOWER(company_name) LIKE ? OR LOWER(client_name) LIKE ?)",
			pattern, pattern,
		)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	for column, value := range filter.AcceptFlags {
		query = query.Where(column+" = ?", value)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := query.
		Preload("Client").
		Preload("Items").
		Offset(offset).Limit(filter.Limit).
		Order("created_at DESC").
		Find(&quotations).Error

	return quotations, total, err
}
