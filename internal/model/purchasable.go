package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Purchasable is any catalog item that can be priced and added to a cart
type Purchasable struct {
	ID                   uint                `gorm:"primaryKey" json:"id"`
	SKU                  string              `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Description          string              `gorm:"type:varchar(255);not null" json:"description"`
	BasePrice            decimal.Decimal     `gorm:"type:decimal(14,4);not null" json:"base_price"`
	BasePromotionalPrice decimal.NullDecimal `gorm:"type:decimal(14,4)" json:"base_promotional_price"`
	Weight               decimal.Decimal     `gorm:"type:decimal(14,4);not null;default:0" json:"weight"`
	ShippingCategoryID   *uint               `gorm:"index" json:"shipping_category_id"`
	IsShippable          bool                `gorm:"not null" json:"is_shippable"`
	HasFreeShipping      bool                `gorm:"default:false" json:"has_free_shipping"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	DeletedAt            gorm.DeletedAt      `gorm:"index" json:"-"`
}

// PriceFor returns the price a catalog rule with the given price type starts from
func (p Purchasable) PriceFor(applyPriceType string) decimal.Decimal {
	if applyPriceType == ApplyPriceTypePromotionalPrice && p.BasePromotionalPrice.Valid {
		return p.BasePromotionalPrice.Decimal
	}
	return p.BasePrice
}
