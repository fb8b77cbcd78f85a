package database

import (
	"storefront/internal/model"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Warn().Err(err).Msg("Failed to auto-migrate models")
	}

	return db, nil
}

// NewSQLite opens a migrated sqlite database. Tests pass ":memory:".
func NewSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	// one connection, otherwise every pooled connection sees its own in-memory database
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table the storefront uses
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.UserGroup{},
		&model.UserGroupMember{},
		&model.ShippingCategory{},
		&model.ShippingZone{},
		&model.ShippingMethod{},
		&model.ShippingRule{},
		&model.ShippingRuleCategory{},
		&model.Purchasable{},
		&model.CatalogPricingRule{},
		&model.CatalogPricing{},
		&model.Order{},
		&model.LineItem{},
		&model.AuditLog{},
	)
}
