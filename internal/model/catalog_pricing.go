package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Apply types for CatalogPricingRule
const (
	ApplyToPercent = "toPercent" // price * amount
	ApplyByPercent = "byPercent" // price - price * amount
	ApplyToFlat    = "toFlat"    // amount
	ApplyByFlat    = "byFlat"    // price - amount
)

// Price types a rule can start from
const (
	ApplyPriceTypePrice            = "price"
	ApplyPriceTypePromotionalPrice = "promotionalPrice"
)

// StoreIDPrimary is the only store in single-store mode
const StoreIDPrimary uint = 1

// CatalogPricingRule is a scoped, time-bounded price adjustment
type CatalogPricingRule struct {
	ID                 uint                      `gorm:"primaryKey" json:"id"`
	Name               string                    `gorm:"type:varchar(255);not null" json:"name" validate:"required,max=255"`
	Description        string                    `gorm:"type:text" json:"description"`
	Enabled            bool                      `gorm:"not null;index" json:"enabled"`
	IsPromotionalPrice bool                      `gorm:"default:false" json:"is_promotional_price"`
	AllPurchasables    bool                      `gorm:"not null" json:"all_purchasables"`
	PurchasableIDs     datatypes.JSONSlice[uint] `json:"purchasable_ids"`
	AllGroups          bool                      `gorm:"not null" json:"all_groups"`
	UserGroupIDs       datatypes.JSONSlice[uint] `json:"user_group_ids"`
	DateFrom           *time.Time                `gorm:"index" json:"date_from"`
	DateTo             *time.Time                `gorm:"index" json:"date_to"`
	Apply              string                    `gorm:"type:varchar(20);not null" json:"apply" validate:"oneof=toPercent byPercent toFlat byFlat"`
	ApplyAmount        decimal.Decimal           `gorm:"type:decimal(14,4);not null;default:0" json:"apply_amount"`
	ApplyPriceType     string                    `gorm:"type:varchar(20);not null;default:'price'" json:"apply_price_type" validate:"oneof=price promotionalPrice"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

// IsActive reports whether the rule is enabled and now falls inside its window
func (r CatalogPricingRule) IsActive(now time.Time) bool {
	if !r.Enabled {
		return false
	}
	if r.DateFrom != nil && r.DateFrom.After(now) {
		return false
	}
	if r.DateTo != nil && r.DateTo.Before(now) {
		return false
	}
	return true
}

// PriceFrom applies the rule's formula to a starting price. Results never go below zero.
func (r CatalogPricingRule) PriceFrom(price decimal.Decimal) decimal.Decimal {
	var out decimal.Decimal
	switch r.Apply {
	case ApplyToPercent:
		out = price.Mul(r.ApplyAmount)
	case ApplyByPercent:
		out = price.Sub(price.Mul(r.ApplyAmount))
	case ApplyToFlat:
		out = r.ApplyAmount
	case ApplyByFlat:
		out = price.Sub(r.ApplyAmount)
	default:
		out = price
	}
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// CatalogPricing is one denormalized row of the priced catalog
type CatalogPricing struct {
	ID                   uint            `gorm:"primaryKey" json:"-"`
	PurchasableID        uint            `gorm:"not null;index" json:"purchasable_id"`
	Price                decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"price"`
	StoreID              uint            `gorm:"not null;default:1" json:"store_id"`
	UserID               *uint           `gorm:"index" json:"user_id"`
	IsSale               bool            `gorm:"not null;default:false" json:"is_sale"`
	IsPromotionalPrice   bool            `gorm:"not null;default:false" json:"is_promotional_price"`
	CatalogPricingRuleID *uint           `gorm:"index" json:"catalog_pricing_rule_id"`
	DateFrom             *time.Time      `json:"date_from"`
	DateTo               *time.Time      `json:"date_to"`
}

func (CatalogPricing) TableName() string {
	return "catalog_pricing"
}
