package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/northpeak/logistics-api/internal/domain"
	"github.com/northpeak/logistics-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTestOrder(t *testing.T, db *gorm.DB, client *domain.Client, customID string, mutate func(*domain.Order)) *domain.Order {
	t.Helper()

	order := &domain.Order{
		ClientID:          client.ID,
		CustomID:          customID,
		DeliveryDate:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		DeliveryType:      "truck",
		Status:            domain.StatusNotDelivered,
		SupervisorAccept:  domain.AcceptPending,
		StorekeeperAccept: domain.AcceptPending,
		ManagerAccept:     domain.AcceptPending,
	}
	if mutate != nil {
		mutate(order)
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestOrderListFiltersByClientName(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewOrderRepository(db)
	ctx := context.Background()

	acme := createTestClient(t, db, "Acme Steel", "Omar")
	other := createTestClient(t, db, "Bolt Works", "Sara")
	createTestOrder(t, db, acme, "NPO-2026-00001", nil)
	createTestOrder(t, db, other, "NPO-2026-00002", nil)

	orders, total, err := repo.List(ctx, repository.DocFilter{Page: 1, Limit: 10, Query: "acme"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, "NPO-2026-00001", orders[0].CustomID)
}

func TestOrderListFiltersByAcceptFlags(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewOrderRepository(db)
	ctx := context.Background()

	client := createTestClient(t, db, "Acme Steel", "Omar")
	createTestOrder(t, db, client, "NPO-2026-00001", nil)
	createTestOrder(t, db, client, "NPO-2026-00002", func(o *domain.Order) {
		o.SupervisorAccept = domain.AcceptAccepted
	})

	pending, total, err := repo.List(ctx, repository.DocFilter{
		Page: 1, Limit: 10,
		AcceptFlags: map[string]domain.AcceptStatus{"supervisor_accept": domain.AcceptPending},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, pending, 1)
	assert.Equal(t, "NPO-2026-00001", pending[0].CustomID)

	accepted, total, err := repo.List(ctx, repository.DocFilter{
		Page: 1, Limit: 10,
		AcceptFlags: map[string]domain.AcceptStatus{"supervisor_accept": domain.AcceptAccepted},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, accepted, 1)
	assert.Equal(t, "NPO-2026-00002", accepted[0].CustomID)
}

func TestOrderListPaginates(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewOrderRepository(db)
	ctx := context.Background()

	client := createTestClient(t, db, "Acme Steel", "Omar")
	createTestOrder(t, db, client, "NPO-2026-00001", nil)
	createTestOrder(t, db, client, "NPO-2026-00002", nil)
	createTestOrder(t, db, client, "NPO-2026-00003", nil)

	orders, total, err := repo.List(ctx, repository.DocFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, orders, 1)
}

func TestOrderDeleteItemsThenOrderLeavesNoOrphans(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewOrderRepository(db)
	ctx := context.Background()

	client := createTestClient(t, db, "Acme Steel", "Omar")
	order := createTestOrder(t, db, client, "NPO-2026-00001", nil)
	require.NoError(t, repo.CreateItems(ctx, []domain.OrderItem{
		{OrderID: order.ID, Section: "steel", Type: "beam", Quantity: 2, Price: 100, VAT: 30, Subtotal: 230},
		{OrderID: order.ID, Section: "steel", Type: "plate", Quantity: 1, Price: 50, VAT: 7.5, Subtotal: 57.5},
	}))

	require.NoError(t, repo.DeleteItems(ctx, order.ID))
	require.NoError(t, repo.Delete(ctx, order.ID))

	var items int64
	require.NoError(t, db.Model(&domain.OrderItem{}).Where("order_id = ?", order.ID).Count(&items).Error)
	assert.Zero(t, items)

	_, err := repo.GetByID(ctx, order.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOrderCountStaleUnapproved(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewOrderRepository(db)
	ctx := context.Background()

	client := createTestClient(t, db, "Acme Steel", "Omar")
	stale := createTestOrder(t, db, client, "NPO-2026-00001", nil)
	createTestOrder(t, db, client, "NPO-2026-00002", func(o *domain.Order) {
		o.SupervisorAccept = domain.AcceptAccepted
	})
	createTestOrder(t, db, client, "NPO-2026-00003", nil)

	old := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, db.Model(&domain.Order{}).Where("id = ?", stale.ID).
		Update("created_at", old).Error)

	count, err := repo.CountStaleUnapproved(ctx, time.Now().UTC().Add(-30*time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
