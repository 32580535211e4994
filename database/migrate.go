package database

import (
	"fmt"
	"time"

	"ngo_backend/internal/logger"
	"ngo_backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect открывает Postgres. TranslateError: дубликаты уникальных
// индексов приходят как gorm.ErrDuplicatedKey независимо от драйвера.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Models - все таблицы подсистемы пожертвований
func Models() []interface{} {
	return []interface{}{
		&models.Event{},
		&models.EventItem{},
		&models.DonationLink{},
		&models.PaymentTransaction{},
		&models.Donation{},
		&models.GatewayEvent{},
		&models.Expense{},
	}
}

// Migrate выполняет миграцию всех моделей
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info("AutoMigrate успешно завершен", "tables", len(Models()))
	return nil
}
