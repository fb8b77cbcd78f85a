package repository

import (
	"context"

	"storefront/internal/model"

	"gorm.io/gorm"
)

type PurchasableRepository interface {
	Create(ctx context.Context, purchasable *model.Purchasable) error
	Update(ctx context.Context, purchasable *model.Purchasable) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Purchasable, error)
	FindBySKU(ctx context.Context, sku string) (*model.Purchasable, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Purchasable, int64, error)
	ListAll(ctx context.Context) ([]model.Purchasable, error)
}

type purchasableRepository struct {
	db *gorm.DB
}

func NewPurchasableRepository(db *gorm.DB) PurchasableRepository {
	return &purchasableRepository{db: db}
}

func (r *purchasableRepository) Create(ctx context.Context, purchasable *model.Purchasable) error {
	return GetDB(ctx, r.db).Create(purchasable).Error
}

func (r *purchasableRepository) Update(ctx context.Context, purchasable *model.Purchasable) error {
	return GetDB(ctx, r.db).Save(purchasable).Error
}

func (r *purchasableRepository) Delete(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Purchasable{}).Error
}

func (r *purchasableRepository) FindByID(ctx context.Context, id uint) (*model.Purchasable, error) {
	var purchasable model.Purchasable
	if err := GetDB(ctx, r.db).First(&purchasable, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchasable, nil
}

func (r *purchasableRepository) FindBySKU(ctx context.Context, sku string) (*model.Purchasable, error) {
	var purchasable model.Purchasable
	if err := GetDB(ctx, r.db).Where("sku = ?", sku).First(&purchasable).Error; err != nil {
		return nil, err
	}
	return &purchasable, nil
}

func (r *purchasableRepository) List(ctx context.Context, page, limit int, search string) ([]model.Purchasable, int64, error) {
	var purchasables []model.Purchasable
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Purchasable{})
	if search != "" {
		like := "%" + search + "%"
		db = db.Where("LOWER(sku) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", like, like)
	}
	db = db.Session(&gorm.Session{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("id asc").Offset(offset).Limit(limit).Find(&purchasables).Error; err != nil {
		return nil, 0, err
	}

	return purchasables, total, nil
}

// ListAll loads the whole catalog for pricing generation
func (r *purchasableRepository) ListAll(ctx context.Context) ([]model.Purchasable, error) {
	var purchasables []model.Purchasable
	if err := GetDB(ctx, r.db).Order("id asc").Find(&purchasables).Error; err != nil {
		return nil, err
	}
	return purchasables, nil
}
