package repository_test

import (
	"fmt"
	"testing"

	"github.com/northpeak/logistics-api/internal/domain"
	"github.com/stretchr/testify/require"
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

func createTestClient(t *testing.T, db *gorm.DB, company, contact string) *domain.Client {
	t.Helper()

	client := &domain.Client{
		CompanyName: company,
		ClientName:  contact,
		ClientType:  domain.ClientTypeCash,
		PhoneNumber: "0500000000",
		City:        "Riyadh",
	}
	require.NoError(t, db.Create(client).Error)
	return client
}
