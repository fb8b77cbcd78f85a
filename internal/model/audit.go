package model

import (
	"time"
)

const (
	ActionCreateShippingMethod = "CREATE_SHIPPING_METHOD"
	ActionUpdateShippingMethod = "UPDATE_SHIPPING_METHOD"
	ActionDeleteShippingMethod = "DELETE_SHIPPING_METHOD"
	ActionCreateShippingRule   = "CREATE_SHIPPING_RULE"
	ActionUpdateShippingRule   = "UPDATE_SHIPPING_RULE"
	ActionDeleteShippingRule   = "DELETE_SHIPPING_RULE"
	ActionReorderShippingRules = "REORDER_SHIPPING_RULES"
	ActionCreateShippingZone   = "CREATE_SHIPPING_ZONE"
	ActionDeleteShippingZone   = "DELETE_SHIPPING_ZONE"
	ActionCreateShippingCat    = "CREATE_SHIPPING_CATEGORY"
	ActionDeleteShippingCat    = "DELETE_SHIPPING_CATEGORY"

	ActionCreateCatalogPricingRule = "CREATE_CATALOG_PRICING_RULE"
	ActionUpdateCatalogPricingRule = "UPDATE_CATALOG_PRICING_RULE"
	ActionDeleteCatalogPricingRule = "DELETE_CATALOG_PRICING_RULE"
	ActionGenerateCatalogPricing   = "GENERATE_CATALOG_PRICING"

	ActionCreatePurchasable = "CREATE_PURCHASABLE"
	ActionUpdatePurchasable = "UPDATE_PURCHASABLE"
	ActionDeletePurchasable = "DELETE_PURCHASABLE"
)

// AuditLog tracks Who, What, and When for rule and catalog changes
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     *uint     `gorm:"index" json:"user_id"` // nil for scheduled jobs
	User       *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string    `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string    `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string    `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string    `gorm:"type:text" json:"details"` // serialized JSON payload of the action
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
