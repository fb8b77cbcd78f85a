package shipping

import (
	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// Address is the part of a shipping address that zones look at
type Address struct {
	CountryCode        string `json:"country_code" binding:"omitempty,len=2"`
	AdministrativeArea string `json:"administrative_area"` // e.g. "US-CA"
	ZipCode            string `json:"zip_code"`
}

// Item is one line of a cart as seen by the rate engine
type Item struct {
	PurchasableID      uint
	Qty                int
	Subtotal           decimal.Decimal
	Weight             decimal.Decimal // per unit
	ShippingCategoryID uint
	Exempt             bool // free shipping or not shippable
}

// Cart is the request-scoped input to rule matching and rate computation.
// Build it with NewCart so the aggregates agree with the items.
type Cart struct {
	Address     *Address
	Items       []Item
	TotalQty    int
	TotalWeight decimal.Decimal
	ItemTotal   decimal.Decimal
}

// NewCart derives the cart aggregates from its items
func NewCart(addr *Address, items []Item) Cart {
	c := Cart{
		Address:     addr,
		Items:       items,
		TotalWeight: decimal.Zero,
		ItemTotal:   decimal.Zero,
	}
	for _, it := range items {
		qty := decimal.NewFromInt(int64(it.Qty))
		c.TotalQty += it.Qty
		c.TotalWeight = c.TotalWeight.Add(it.Weight.Mul(qty))
		c.ItemTotal = c.ItemTotal.Add(it.Subtotal)
	}
	return c
}

// CartFromOrder builds a cart from a stored order and its line items
func CartFromOrder(order model.Order) Cart {
	var addr *Address
	if order.ShippingCountryCode != "" {
		addr = &Address{
			CountryCode:        order.ShippingCountryCode,
			AdministrativeArea: order.ShippingAdministrativeArea,
			ZipCode:            order.ShippingZipCode,
		}
	}

	items := make([]Item, 0, len(order.LineItems))
	for _, li := range order.LineItems {
		item := Item{
			Qty:      li.Qty,
			Subtotal: li.Subtotal,
			Weight:   li.Weight,
			Exempt:   li.FreeShipping || !li.Shippable,
		}
		if li.PurchasableID != nil {
			item.PurchasableID = *li.PurchasableID
		}
		if li.ShippingCategoryID != nil {
			item.ShippingCategoryID = *li.ShippingCategoryID
		}
		items = append(items, item)
	}
	return NewCart(addr, items)
}

// shippingCategories returns the distinct categories of the items that ship
func (c Cart) shippingCategories() map[uint]bool {
	cats := make(map[uint]bool)
	for _, it := range c.Items {
		if it.Exempt {
			continue
		}
		cats[it.ShippingCategoryID] = true
	}
	return cats
}
