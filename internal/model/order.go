package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a cart or completed order with its shipping destination
type Order struct {
	ID                         uint       `gorm:"primaryKey" json:"id"`
	Number                     string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"number"`
	Email                      string     `gorm:"type:varchar(255)" json:"email"`
	UserID                     *uint      `gorm:"index" json:"user_id"`
	ShippingCountryCode        string     `gorm:"type:varchar(2)" json:"shipping_country_code"`
	ShippingAdministrativeArea string     `gorm:"type:varchar(20)" json:"shipping_administrative_area"`
	ShippingZipCode            string     `gorm:"type:varchar(20)" json:"shipping_zip_code"`
	LineItems                  []LineItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"line_items"`
	CreatedAt                  time.Time  `json:"created_at"`
	UpdatedAt                  time.Time  `json:"updated_at"`
}

// LineItem is one purchasable entry within an order
type LineItem struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	OrderID            uint            `gorm:"not null;index" json:"order_id"`
	PurchasableID      *uint           `gorm:"index" json:"purchasable_id"`
	Description        string          `gorm:"type:varchar(255)" json:"description"`
	Qty                int             `gorm:"not null" json:"qty"`
	Price              decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"price"`
	Subtotal           decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"subtotal"`
	Weight             decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"weight"` // per unit
	ShippingCategoryID *uint           `gorm:"index" json:"shipping_category_id"`
	Shippable          bool            `gorm:"not null" json:"shippable"`
	FreeShipping       bool            `gorm:"default:false" json:"free_shipping"`
}
