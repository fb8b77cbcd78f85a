package repository

import (
	"context"
	"database/sql"

	"storefront/internal/model"

	"gorm.io/gorm"
)

type ShippingRuleRepository interface {
	Create(ctx context.Context, rule *model.ShippingRule) error
	Update(ctx context.Context, rule *model.ShippingRule) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.ShippingRule, error)
	ListByMethod(ctx context.Context, methodID uint) ([]model.ShippingRule, error)
	MaxPriority(ctx context.Context, methodID uint) (int, error)
	PriorityTaken(ctx context.Context, methodID uint, priority int, excludeID uint) (bool, error)
	SetPriority(ctx context.Context, id uint, priority int) error
}

type shippingRuleRepository struct {
	db *gorm.DB
}

func NewShippingRuleRepository(db *gorm.DB) ShippingRuleRepository {
	return &shippingRuleRepository{db: db}
}

func (r *shippingRuleRepository) Create(ctx context.Context, rule *model.ShippingRule) error {
	return GetDB(ctx, r.db).Omit("ShippingZone").Create(rule).Error
}

// Update saves the rule and replaces its category overrides
func (r *shippingRuleRepository) Update(ctx context.Context, rule *model.ShippingRule) error {
	db := GetDB(ctx, r.db)
	if err := db.Omit("ShippingZone", "Categories").Save(rule).Error; err != nil {
		return err
	}
	if err := db.Where("shipping_rule_id = ?", rule.ID).Delete(&model.ShippingRuleCategory{}).Error; err != nil {
		return err
	}
	if len(rule.Categories) == 0 {
		return nil
	}
	for i := range rule.Categories {
		rule.Categories[i].ID = 0
		rule.Categories[i].ShippingRuleID = rule.ID
	}
	return db.Create(&rule.Categories).Error
}

func (r *shippingRuleRepository) Delete(ctx context.Context, id uint) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("shipping_rule_id = ?", id).Delete(&model.ShippingRuleCategory{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.ShippingRule{}).Error
}

func (r *shippingRuleRepository) FindByID(ctx context.Context, id uint) (*model.ShippingRule, error) {
	var rule model.ShippingRule
	if err := GetDB(ctx, r.db).Preload("Categories").Preload("ShippingZone").First(&rule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *shippingRuleRepository) ListByMethod(ctx context.Context, methodID uint) ([]model.ShippingRule, error) {
	var rules []model.ShippingRule
	err := GetDB(ctx, r.db).
		Preload("Categories").
		Where("shipping_method_id = ?", methodID).
		Order("priority asc, id asc").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *shippingRuleRepository) MaxPriority(ctx context.Context, methodID uint) (int, error) {
	var highest sql.NullInt64
	err := GetDB(ctx, r.db).Model(&model.ShippingRule{}).
		Select("MAX(priority)").
		Where("shipping_method_id = ?", methodID).
		Row().
		Scan(&highest)
	if err != nil {
		return 0, err
	}
	return int(highest.Int64), nil
}

func (r *shippingRuleRepository) PriorityTaken(ctx context.Context, methodID uint, priority int, excludeID uint) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.ShippingRule{}).
		Where("shipping_method_id = ? AND priority = ? AND id <> ?", methodID, priority, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *shippingRuleRepository) SetPriority(ctx context.Context, id uint, priority int) error {
	return GetDB(ctx, r.db).Model(&model.ShippingRule{}).Where("id = ?", id).Update("priority", priority).Error
}
