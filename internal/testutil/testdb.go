package testutil

import (
	"path/filepath"
	"testing"

	"ngo_backend/database"
	"ngo_backend/internal/logger"
	"ngo_backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewTestDB - отдельная SQLite база на тест, одно соединение:
// запись сериализуется так же, как построчные блокировки Postgres.
// Внутри транзакции обращаться только к tx, иначе тест повиснет на пуле.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.Init("test")

	path := filepath.Join(t.TempDir(), "ngo_test.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_foreign_keys=on"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func CreateEvent(t *testing.T, db *gorm.DB, title string) *models.Event {
	t.Helper()
	event := &models.Event{Title: title, IsActive: true}
	require.NoError(t, db.Create(event).Error)
	return event
}

func CreateEventItem(t *testing.T, db *gorm.DB, eventID, name string, unitPrice int64, total int) *models.EventItem {
	t.Helper()
	item := &models.EventItem{
		EventID:       eventID,
		Name:          name,
		UnitPrice:     unitPrice,
		TotalQuantity: total,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func CreateDonationLink(t *testing.T, db *gorm.DB, link *models.DonationLink) *models.DonationLink {
	t.Helper()
	if link.Purpose == "" {
		link.Purpose = models.DonationPurposeGeneral
	}
	require.NoError(t, db.Create(link).Error)
	return link
}

func ReloadItem(t *testing.T, db *gorm.DB, id string) *models.EventItem {
	t.Helper()
	var item models.EventItem
	require.NoError(t, db.First(&item, "id = ?", id).Error)
	return &item
}

func ReloadTransaction(t *testing.T, db *gorm.DB, orderID string) *models.PaymentTransaction {
	t.Helper()
	var txn models.PaymentTransaction
	require.NoError(t, db.First(&txn, "gateway_order_id = ?", orderID).Error)
	return &txn
}

func CountDonations(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Donation{}).Count(&n).Error)
	return n
}
