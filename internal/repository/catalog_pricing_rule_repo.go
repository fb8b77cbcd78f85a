package repository

import (
	"context"

	"storefront/internal/model"

	"gorm.io/gorm"
)

type CatalogPricingRuleRepository interface {
	Create(ctx context.Context, rule *model.CatalogPricingRule) error
	Update(ctx context.Context, rule *model.CatalogPricingRule) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.CatalogPricingRule, error)
	List(ctx context.Context) ([]model.CatalogPricingRule, error)
}

type catalogPricingRuleRepository struct {
	db *gorm.DB
}

func NewCatalogPricingRuleRepository(db *gorm.DB) CatalogPricingRuleRepository {
	return &catalogPricingRuleRepository{db: db}
}

func (r *catalogPricingRuleRepository) Create(ctx context.Context, rule *model.CatalogPricingRule) error {
	return GetDB(ctx, r.db).Create(rule).Error
}

func (r *catalogPricingRuleRepository) Update(ctx context.Context, rule *model.CatalogPricingRule) error {
	return GetDB(ctx, r.db).Save(rule).Error
}

func (r *catalogPricingRuleRepository) Delete(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.CatalogPricingRule{}).Error
}

func (r *catalogPricingRuleRepository) FindByID(ctx context.Context, id uint) (*model.CatalogPricingRule, error) {
	var rule model.CatalogPricingRule
	if err := GetDB(ctx, r.db).First(&rule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *catalogPricingRuleRepository) List(ctx context.Context) ([]model.CatalogPricingRule, error) {
	var rules []model.CatalogPricingRule
	if err := GetDB(ctx, r.db).Order("id asc").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}
