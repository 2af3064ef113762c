package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/northpeak/logistics-api/internal/domain"
	"gorm.io/gorm"
)

// DocFilter narrows a paginated order/quotation listing. AcceptFlags
// maps acceptance columns to required values and backs the role-scoped
// list endpoints.
type DocFilter struct {
	Page        int
	Limit       int
	Query       string
	Status      domain.DeliveryStatus
	AcceptFlags map[string]domain.AcceptStatus
}

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// UpdateTotals writes the three derived totals in one statement.
// They are always written together, never independently.
func (r *OrderRepository) UpdateTotals(ctx context.Context, id uuid.UUID, price, vat, subtotal float64) error {
	return r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_price":    price,
			"total_vat":      vat,
			"total_subtotal": subtotal,
		}).Error
}

// CreateItems inserts the given line items
func (r *OrderRepository) CreateItems(ctx context.Context, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// DeleteItems removes every line item belonging to the order
func (r *OrderRepository) DeleteItems(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&domain.OrderItem{}).Error
}

// Delete removes the order row itself. Line items must be deleted
// first; there is no cascade at the schema level.
func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Order{}, "id = ?", id).Error
}

// CountStaleUnapproved counts orders still waiting for supervisor
// approval that were created before the cutoff
func (r *OrderRepository) CountStaleUnapproved(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("supervisor_accept = ?", domain.AcceptPending).
		Where("created_at < ?", cutoff).
		Count(&count).Error
	return count, err
}

func (r *OrderRepository) List(ctx context.Context, filter DocFilter) ([]domain.Order, int64, error) {
	var orders []domain.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Order{})
	query = applyOrderFilter(query, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := query.
		Preload("Client").
		Preload("Items").
		Offset(offset).Limit(filter.Limit).
		Order("created_at DESC").
		Find(&orders).Error

	return orders, total, err
}

func applyOrderFilter(query *gorm.DB, filter DocFilter) *gorm.DB {
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
	return query
}
