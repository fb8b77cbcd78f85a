package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ShippingRuleCategory condition constants
const (
	CategoryConditionAllow    = "allow"
	CategoryConditionDisallow = "disallow"
	CategoryConditionRequire  = "require"
)

// ShippingMethod groups the prioritized rules that price shipping for a cart
type ShippingMethod struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Handle    string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"handle"`
	Enabled   bool           `gorm:"not null" json:"enabled"`
	Rules     []ShippingRule `gorm:"foreignKey:ShippingMethodID;constraint:OnDelete:CASCADE" json:"rules,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ShippingRule is a condition set plus rate formula. Lower Priority is scanned first.
type ShippingRule struct {
	ID               uint                   `gorm:"primaryKey" json:"id"`
	ShippingMethodID uint                   `gorm:"not null;index" json:"shipping_method_id"`
	ShippingZoneID   *uint                  `gorm:"index" json:"shipping_zone_id"`
	ShippingZone     *ShippingZone          `gorm:"foreignKey:ShippingZoneID" json:"shipping_zone,omitempty"`
	Name             string                 `gorm:"type:varchar(255);not null" json:"name"`
	Description      string                 `gorm:"type:text" json:"description"`
	Enabled          bool                   `gorm:"not null" json:"enabled"`
	Priority         int                    `gorm:"not null;index" json:"priority"`
	MinQty           *int                   `json:"min_qty"`
	MaxQty           *int                   `json:"max_qty"`
	MinTotal         decimal.NullDecimal    `gorm:"type:decimal(14,4)" json:"min_total"`
	MaxTotal         decimal.NullDecimal    `gorm:"type:decimal(14,4)" json:"max_total"`
	MinWeight        decimal.NullDecimal    `gorm:"type:decimal(14,4)" json:"min_weight"`
	MaxWeight        decimal.NullDecimal    `gorm:"type:decimal(14,4)" json:"max_weight"`
	BaseRate         decimal.Decimal        `gorm:"type:decimal(14,4);not null;default:0" json:"base_rate"`
	PerItemRate      decimal.Decimal        `gorm:"type:decimal(14,4);not null;default:0" json:"per_item_rate"`
	WeightRate       decimal.Decimal        `gorm:"type:decimal(14,4);not null;default:0" json:"weight_rate"`
	PercentageRate   decimal.Decimal        `gorm:"type:decimal(14,4);not null;default:0" json:"percentage_rate"` // 0.05 = 5% of item subtotal
	MinRate          decimal.Decimal        `gorm:"type:decimal(14,4);not null;default:0" json:"min_rate"`
	MaxRate          decimal.NullDecimal    `gorm:"type:decimal(14,4)" json:"max_rate"` // null or zero = uncapped
	Categories       []ShippingRuleCategory `gorm:"foreignKey:ShippingRuleID;constraint:OnDelete:CASCADE" json:"categories,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// ShippingRuleCategory narrows or overrides a rule for one shipping category
type ShippingRuleCategory struct {
	ID                 uint                `gorm:"primaryKey" json:"id"`
	ShippingRuleID     uint                `gorm:"not null;uniqueIndex:idx_rule_category" json:"shipping_rule_id"`
	ShippingCategoryID uint                `gorm:"not null;uniqueIndex:idx_rule_category" json:"shipping_category_id"`
	Condition          string              `gorm:"type:varchar(20);not null;default:'allow'" json:"condition"` // allow, disallow, require
	PerItemRate        decimal.NullDecimal `gorm:"type:decimal(14,4)" json:"per_item_rate"`
	WeightRate         decimal.NullDecimal `gorm:"type:decimal(14,4)" json:"weight_rate"`
	PercentageRate     decimal.NullDecimal `gorm:"type:decimal(14,4)" json:"percentage_rate"`
}

// ShippingCategory classifies purchasables for per-category shipping rates
type ShippingCategory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Handle      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"handle"`
	Description string    `gorm:"type:text" json:"description"`
	IsDefault   bool      `gorm:"default:false" json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ShippingZone restricts a rule to a set of countries or administrative areas
type ShippingZone struct {
	ID                      uint                        `gorm:"primaryKey" json:"id"`
	Name                    string                      `gorm:"type:varchar(255);not null" json:"name"`
	Description             string                      `gorm:"type:text" json:"description"`
	Countries               datatypes.JSONSlice[string] `json:"countries"`            // ISO 3166-1 alpha-2
	AdministrativeAreas     datatypes.JSONSlice[string] `json:"administrative_areas"` // e.g. "US-CA"
	ZipCodeConditionFormula string                      `gorm:"type:text" json:"zip_code_condition_formula"`
	CreatedAt               time.Time                   `json:"created_at"`
	UpdatedAt               time.Time                   `json:"updated_at"`
}
