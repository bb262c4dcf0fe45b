package database

import (
	"fmt"

	"github.com/dukabook/ledger-api/internal/config"
	"github.com/dukabook/ledger-api/internal/domain/entity"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB connects to the remote authoritative store.
func NewPostgresDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	return db, nil
}

// AutoMigrate runs GORM auto-migration for all remote entities
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entity.User{},

		&entity.Product{},
		&entity.Sale{},
		&entity.Expense{},
		&entity.Customer{},
		&entity.Debt{},
		&entity.DebtItem{},
		&entity.DebtPayment{},

		&entity.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
