package repository

import (
	"context"
	"time"

	"storefront/internal/model"

	"gorm.io/gorm"
)

// CatalogPricingRepository is the storage side of the catalog_pricing table.
// It satisfies catalogpricing.Sink.
type CatalogPricingRepository interface {
	Truncate(ctx context.Context) error
	InsertBatch(ctx context.Context, rows []model.CatalogPricing) error
	Count(ctx context.Context) (int64, error)
	LowestPrice(ctx context.Context, purchasableID uint, userID *uint, at time.Time) (*model.CatalogPricing, error)
	ListByPurchasable(ctx context.Context, purchasableID uint) ([]model.CatalogPricing, error)
}

type catalogPricingRepository struct {
	db *gorm.DB
}

func NewCatalogPricingRepository(db *gorm.DB) CatalogPricingRepository {
	return &catalogPricingRepository{db: db}
}

func (r *catalogPricingRepository) Truncate(ctx context.Context) error {
	db := GetDB(ctx, r.db)
	if db.Dialector.Name() == "postgres" {
		return db.Exec("TRUNCATE TABLE catalog_pricing").Error
	}
	return db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.CatalogPricing{}).Error
}

func (r *catalogPricingRepository) InsertBatch(ctx context.Context, rows []model.CatalogPricing) error {
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		rows[i].ID = 0
	}
	return GetDB(ctx, r.db).Create(&rows).Error
}

func (r *catalogPricingRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.CatalogPricing{}).Count(&count).Error
	return count, err
}

// LowestPrice finds the cheapest row for the purchasable that applies to the
// user (or to everyone when userID is nil) and whose window contains at.
func (r *catalogPricingRepository) LowestPrice(ctx context.Context, purchasableID uint, userID *uint, at time.Time) (*model.CatalogPricing, error) {
	at = at.UTC()
	query := GetDB(ctx, r.db).
		Where("purchasable_id = ?", purchasableID).
		Where("(date_from IS NULL OR date_from <= ?) AND (date_to IS NULL OR date_to >= ?)", at, at)

	if userID != nil {
		query = query.Where("(user_id IS NULL OR user_id = ?)", *userID)
	} else {
		query = query.Where("user_id IS NULL")
	}

	var row model.CatalogPricing
	if err := query.Order("price asc, id asc").First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *catalogPricingRepository) ListByPurchasable(ctx context.Context, purchasableID uint) ([]model.CatalogPricing, error) {
	var rows []model.CatalogPricing
	err := GetDB(ctx, r.db).
		Where("purchasable_id = ?", purchasableID).
		Order("price asc, id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
