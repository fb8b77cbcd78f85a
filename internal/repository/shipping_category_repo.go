package repository

import (
	"context"

	"storefront/internal/model"

	"gorm.io/gorm"
)

type ShippingCategoryRepository interface {
	Create(ctx context.Context, category *model.ShippingCategory) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.ShippingCategory, error)
	List(ctx context.Context) ([]model.ShippingCategory, error)
	CountByIDs(ctx context.Context, ids []uint) (int64, error)
}

type shippingCategoryRepository struct {
	db *gorm.DB
}

func NewShippingCategoryRepository(db *gorm.DB) ShippingCategoryRepository {
	return &shippingCategoryRepository{db: db}
}

func (r *shippingCategoryRepository) Create(ctx context.Context, category *model.ShippingCategory) error {
	return GetDB(ctx, r.db).Create(category).Error
}

// Delete also drops the rule overrides that point at the category
func (r *shippingCategoryRepository) Delete(ctx context.Context, id uint) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("shipping_category_id = ?", id).Delete(&model.ShippingRuleCategory{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.ShippingCategory{}).Error
}

func (r *shippingCategoryRepository) FindByID(ctx context.Context, id uint) (*model.ShippingCategory, error) {
	var category model.ShippingCategory
	if err := GetDB(ctx, r.db).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *shippingCategoryRepository) List(ctx context.Context) ([]model.ShippingCategory, error) {
	var categories []model.ShippingCategory
	if err := GetDB(ctx, r.db).Order("name asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *shippingCategoryRepository) CountByIDs(ctx context.Context, ids []uint) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.ShippingCategory{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}
