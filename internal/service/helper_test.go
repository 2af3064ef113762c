package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/northpeak/logistics-api/internal/database"
	"github.com/northpeak/logistics-api/internal/domain"
	"github.com/northpeak/logistics-api/internal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// openTestDB returns an in-memory sqlite database migrated with every
// model except NotificationLog, which uses a Postgres text[] column.
func openTestDB(t *testing.T) *gorm.DB {
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

	return db
}

func testRetry() *database.RetryPolicy {
	return database.DefaultRetryPolicy(0, zap.NewNop())
}

type dispatch struct {
	Role    domain.StaffRole
	Title   string
	Message string
}

// fakeNotifier records every dispatch instead of pushing anywhere.
type fakeNotifier struct {
	mu         sync.Mutex
	dispatches []dispatch
	err        error
}

var _ service.Notifier = (*fakeNotifier)(nil)

func (f *fakeNotifier) Dispatch(_ context.Context, role domain.StaffRole, title, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatches = append(f.dispatches, dispatch{Role: role, Title: title, Message: message})
	return f.err
}

func (f *fakeNotifier) sent() []dispatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]dispatch, len(f.dispatches))
	copy(out, f.dispatches)
	return out
}

func (f *fakeNotifier) rolesFor(title string) []domain.StaffRole {
	var roles []domain.StaffRole
	for _, d := range f.sent() {
		if d.Title == title {
			roles = append(roles, d.Role)
		}
	}
	return roles
}

func (f *fakeNotifier) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatches = nil
}

func seedClient(t *testing.T, db *gorm.DB) *domain.Client {
	t.Helper()

	client := &domain.Client{
		CompanyName: "Acme Steel",
		ClientName:  "Omar",
		ClientType:  domain.ClientTypeCash,
		PhoneNumber: "0500000000",
		City:        "Riyadh",
	}
	require.NoError(t, db.Create(client).Error)
	return client
}

func seedStaff(t *testing.T, db *gorm.DB, role domain.StaffRole, email, token string) *domain.StaffUser {
	t.Helper()

	staff := &domain.StaffUser{
		Name:     "Staff " + email,
		Email:    email,
		Role:     role,
		Active:   true,
		FCMToken: token,
	}
	require.NoError(t, db.Create(staff).Error)
	return staff
}
