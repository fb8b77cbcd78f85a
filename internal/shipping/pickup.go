package shipping

import "github.com/shopspring/decimal"

// StorePickup is a provider for collecting the order in store. It always
// ships, at a fixed fee.
type StorePickup struct {
	Fee decimal.Decimal
}

func (StorePickup) Handle() string { return "storePickup" }
func (StorePickup) Name() string   { return "Store pickup" }

func (p StorePickup) Quote(cart Cart) (Quote, bool) {
	return Quote{
		MethodHandle: p.Handle(),
		MethodName:   p.Name(),
		Description:  "Collect from the store",
		Amount:       p.Fee,
	}, true
}
