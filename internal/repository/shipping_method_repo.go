package repository

import (
	"context"

	"storefront/internal/model"

	"gorm.io/gorm"
)

type ShippingMethodRepository interface {
	Create(ctx context.Context, method *model.ShippingMethod) error
	Update(ctx context.Context, method *model.ShippingMethod) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.ShippingMethod, error)
	List(ctx context.Context) ([]model.ShippingMethod, error)
	ListEnabledWithRules(ctx context.Context) ([]model.ShippingMethod, error)
}

type shippingMethodRepository struct {
	db *gorm.DB
}

func NewShippingMethodRepository(db *gorm.DB) ShippingMethodRepository {
	return &shippingMethodRepository{db: db}
}

func (r *shippingMethodRepository) Create(ctx context.Context, method *model.ShippingMethod) error {
	return GetDB(ctx, r.db).Omit("Rules").Create(method).Error
}

func (r *shippingMethodRepository) Update(ctx context.Context, method *model.ShippingMethod) error {
	return GetDB(ctx, r.db).Omit("Rules").Save(method).Error
}

// Delete removes the method together with its rules and their category overrides
func (r *shippingMethodRepository) Delete(ctx context.Context, id uint) error {
	db := GetDB(ctx, r.db)
	ruleIDs := db.Model(&model.ShippingRule{}).Select("id").Where("shipping_method_id = ?", id)
	if err := db.Where("shipping_rule_id IN (?)", ruleIDs).Delete(&model.ShippingRuleCategory{}).Error; err != nil {
		return err
	}
	if err := db.Where("shipping_method_id = ?", id).Delete(&model.ShippingRule{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.ShippingMethod{}).Error
}

func (r *shippingMethodRepository) FindByID(ctx context.Context, id uint) (*model.ShippingMethod, error) {
	var method model.ShippingMethod
	err := GetDB(ctx, r.db).
		Preload("Rules", func(db *gorm.DB) *gorm.DB { return db.Order("priority asc") }).
		Preload("Rules.Categories").
		Preload("Rules.ShippingZone").
		First(&method, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *shippingMethodRepository) List(ctx context.Context) ([]model.ShippingMethod, error) {
	var methods []model.ShippingMethod
	if err := GetDB(ctx, r.db).Order("name asc").Find(&methods).Error; err != nil {
		return nil, err
	}
	return methods, nil
}

// ListEnabledWithRules loads everything the rate engine needs in one go
func (r *shippingMethodRepository) ListEnabledWithRules(ctx context.Context) ([]model.ShippingMethod, error) {
	var methods []model.ShippingMethod
	err := GetDB(ctx, r.db).
		Where("enabled = ?", true).
		Preload("Rules", func(db *gorm.DB) *gorm.DB { return db.Order("priority asc, id asc") }).
		Preload("Rules.Categories").
		Preload("Rules.ShippingZone").
		Order("id asc").
		Find(&methods).Error
	if err != nil {
		return nil, err
	}
	return methods, nil
}
