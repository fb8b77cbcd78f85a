package shipping

import (
	"testing"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int    { return &v }
func uintPtr(v uint) *uint { return &v }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nd(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d(s), Valid: true}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	zones, err := NewZoneMatcher()
	require.NoError(t, err)
	return NewEngine(zones)
}

func singleItemCart(qty int, subtotal, unitWeight string) Cart {
	return NewCart(nil, []Item{{
		PurchasableID: 1,
		Qty:           qty,
		Subtotal:      d(subtotal),
		Weight:        d(unitWeight),
	}})
}

func TestMatchRule_FirstMatchByQuantity(t *testing.T) {
	e := newTestEngine(t)
	cart := singleItemCart(5, "150", "4") // qty 5, weight 20, total 150

	ruleA := model.ShippingRule{ID: 1, Enabled: true, Priority: 2, MinQty: intPtr(1), MaxQty: intPtr(10), BaseRate: d("5"), PerItemRate: d("1")}
	ruleB := model.ShippingRule{ID: 2, Enabled: true, Priority: 1, MinQty: intPtr(1), MaxQty: intPtr(3)}

	matched, ok := e.MatchRule(cart, []model.ShippingRule{ruleA, ruleB})
	require.True(t, ok)
	assert.Equal(t, uint(1), matched.ID)
	assert.True(t, d("10").Equal(ComputeAmount(cart, matched)))
}

func TestMatchRule_LowestPriorityWinsRegardlessOfPosition(t *testing.T) {
	e := newTestEngine(t)
	cart := singleItemCart(1, "10", "1")

	general := model.ShippingRule{ID: 1, Enabled: true, Priority: 5}
	specific := model.ShippingRule{ID: 2, Enabled: true, Priority: 1}

	matched, ok := e.MatchRule(cart, []model.ShippingRule{general, specific})
	require.True(t, ok)
	assert.Equal(t, uint(2), matched.ID)

	matched, ok = e.MatchRule(cart, []model.ShippingRule{specific, general})
	require.True(t, ok)
	assert.Equal(t, uint(2), matched.ID)
}

func TestMatchRule_NoMatch(t *testing.T) {
	e := newTestEngine(t)
	cart := singleItemCart(1, "10", "50")

	rules := []model.ShippingRule{
		{ID: 1, Enabled: true, Priority: 1, MaxWeight: nd("10")},
		{ID: 2, Enabled: true, Priority: 2, MinTotal: nd("100")},
		{ID: 3, Enabled: false, Priority: 3},
	}
	_, ok := e.MatchRule(cart, rules)
	assert.False(t, ok)
}

func TestMatchRule_BoundsAreInclusive(t *testing.T) {
	e := newTestEngine(t)
	cart := singleItemCart(2, "100", "5") // weight 10

	rule := model.ShippingRule{
		ID: 1, Enabled: true,
		MinQty: intPtr(2), MaxQty: intPtr(2),
		MinTotal: nd("100"), MaxTotal: nd("100"),
		MinWeight: nd("10"), MaxWeight: nd("10"),
	}
	_, ok := e.MatchRule(cart, []model.ShippingRule{rule})
	assert.True(t, ok)
}

func TestMatchRule_RequiredCategoryMustBePresent(t *testing.T) {
	e := newTestEngine(t)
	cart := NewCart(nil, []Item{{Qty: 1, Subtotal: d("10"), Weight: d("1"), ShippingCategoryID: 1}})

	rule := model.ShippingRule{
		ID: 1, Enabled: true,
		Categories: []model.ShippingRuleCategory{{ShippingCategoryID: 2, Condition: model.CategoryConditionRequire}},
	}
	_, ok := e.MatchRule(cart, []model.ShippingRule{rule})
	assert.False(t, ok)

	rule.Categories[0].ShippingCategoryID = 1
	_, ok = e.MatchRule(cart, []model.ShippingRule{rule})
	assert.True(t, ok)
}

func TestMatchRule_Zone(t *testing.T) {
	e := newTestEngine(t)
	zone := &model.ShippingZone{
		ID:                      7,
		Countries:               []string{"US"},
		ZipCodeConditionFormula: `zipCode.startsWith("9")`,
	}
	rule := model.ShippingRule{ID: 1, Enabled: true, ShippingZoneID: uintPtr(7), ShippingZone: zone}

	west := NewCart(&Address{CountryCode: "us", ZipCode: "94105"}, []Item{{Qty: 1, Subtotal: d("1")}})
	east := NewCart(&Address{CountryCode: "US", ZipCode: "10001"}, []Item{{Qty: 1, Subtotal: d("1")}})
	abroad := NewCart(&Address{CountryCode: "CA", ZipCode: "90000"}, []Item{{Qty: 1, Subtotal: d("1")}})
	noAddress := NewCart(nil, []Item{{Qty: 1, Subtotal: d("1")}})

	for name, tc := range map[string]struct {
		cart Cart
		want bool
	}{
		"inside zone":     {west, true},
		"zip excluded":    {east, false},
		"other country":   {abroad, false},
		"missing address": {noAddress, false},
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := e.MatchRule(tc.cart, []model.ShippingRule{rule})
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestComputeAmount_AllComponents(t *testing.T) {
	cart := NewCart(nil, []Item{
		{Qty: 2, Subtotal: d("40"), Weight: d("1.5")},
		{Qty: 1, Subtotal: d("60"), Weight: d("3")},
	})
	rule := model.ShippingRule{
		BaseRate:       d("5"),
		PerItemRate:    d("1"),
		WeightRate:     d("2"),
		PercentageRate: d("0.1"),
	}
	// 5 + (4 + 2 + 6) + (6 + 1 + 6) = 30
	assert.Equal(t, "30", ComputeAmount(cart, rule).String())
}

func TestComputeAmount_CategoryOverridesAndExemptions(t *testing.T) {
	cart := NewCart(nil, []Item{
		{Qty: 2, Subtotal: d("20"), Weight: d("1"), ShippingCategoryID: 1},
		{Qty: 3, Subtotal: d("30"), Weight: d("1"), ShippingCategoryID: 2},
		{Qty: 4, Subtotal: d("40"), Weight: d("1"), ShippingCategoryID: 1, Exempt: true},
	})
	rule := model.ShippingRule{
		BaseRate:    d("1"),
		PerItemRate: d("2"),
		Categories: []model.ShippingRuleCategory{
			{ShippingCategoryID: 1, Condition: model.CategoryConditionAllow, PerItemRate: nd("5")},
			{ShippingCategoryID: 2, Condition: model.CategoryConditionDisallow},
		},
	}
	// base 1 + category 1 at 5/item * 2; category 2 disallowed; exempt item skipped
	assert.Equal(t, "11", ComputeAmount(cart, rule).String())
}

func TestComputeAmount_Clamps(t *testing.T) {
	rule := model.ShippingRule{PerItemRate: d("3"), MinRate: d("10"), MaxRate: nd("50")}

	for qty := 0; qty <= 40; qty++ {
		amount := ComputeAmount(singleItemCart(qty, "0", "0"), rule)
		assert.True(t, amount.GreaterThanOrEqual(d("10")), "qty %d gave %s", qty, amount)
		assert.True(t, amount.LessThanOrEqual(d("50")), "qty %d gave %s", qty, amount)
	}
}

func TestComputeAmount_ZeroMaxRateIsUncapped(t *testing.T) {
	cart := singleItemCart(10, "0", "0")

	zeroCap := model.ShippingRule{PerItemRate: d("3"), MaxRate: nd("0")}
	assert.Equal(t, "30", ComputeAmount(cart, zeroCap).String())

	noCap := model.ShippingRule{PerItemRate: d("3")}
	assert.Equal(t, "30", ComputeAmount(cart, noCap).String())
}

func TestComputeAmount_MonotonicInQtyAndWeight(t *testing.T) {
	rule := model.ShippingRule{
		BaseRate:       d("2"),
		PerItemRate:    d("0.75"),
		WeightRate:     d("1.25"),
		PercentageRate: d("0.02"),
	}

	prev := decimal.Zero
	for qty := 1; qty <= 20; qty++ {
		amount := ComputeAmount(singleItemCart(qty, "15", "2"), rule)
		assert.True(t, amount.GreaterThanOrEqual(prev))
		prev = amount
	}

	prev = decimal.Zero
	for w := 0; w <= 20; w++ {
		amount := ComputeAmount(singleItemCart(3, "15", decimal.NewFromInt(int64(w)).String()), rule)
		assert.True(t, amount.GreaterThanOrEqual(prev))
		prev = amount
	}
}

func TestRankAvailableMethods(t *testing.T) {
	e := newTestEngine(t)
	cart := singleItemCart(2, "50", "1")

	methods := []model.ShippingMethod{
		{ID: 1, Handle: "express", Enabled: true, Rules: []model.ShippingRule{{ID: 10, Enabled: true, BaseRate: d("20")}}},
		{ID: 2, Handle: "standard", Enabled: true, Rules: []model.ShippingRule{{ID: 20, Enabled: true, BaseRate: d("5")}}},
		{ID: 3, Handle: "economy", Enabled: true, Rules: []model.ShippingRule{{ID: 30, Enabled: true, BaseRate: d("5")}}},
		{ID: 4, Handle: "freight", Enabled: true, Rules: []model.ShippingRule{{ID: 40, Enabled: true, MinQty: intPtr(100)}}},
		{ID: 5, Handle: "disabled", Enabled: false, Rules: []model.ShippingRule{{ID: 50, Enabled: true}}},
	}

	quotes := e.RankAvailableMethods(cart, methods)
	require.Len(t, quotes, 3)
	assert.Equal(t, "standard", quotes[0].MethodHandle)
	assert.Equal(t, "economy", quotes[1].MethodHandle)
	assert.Equal(t, "express", quotes[2].MethodHandle)
	assert.Equal(t, uint(20), quotes[0].RuleID)
}

func TestQuotes_RegisteredProvidersAndEmptyConfig(t *testing.T) {
	e := newTestEngine(t)
	cart := singleItemCart(1, "10", "1")

	_, err := e.Quotes(cart, nil)
	assert.ErrorIs(t, err, ErrNoShippingMethods)

	e.Register(StorePickup{Fee: d("0")})
	methods := []model.ShippingMethod{
		{ID: 1, Handle: "standard", Enabled: true, Rules: []model.ShippingRule{{ID: 1, Enabled: true, BaseRate: d("4")}}},
	}
	quotes, err := e.Quotes(cart, methods)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "storePickup", quotes[0].MethodHandle)
	assert.Equal(t, "standard", quotes[1].MethodHandle)
}

func TestQuotes_NoMatchingRuleIsEmpty(t *testing.T) {
	e := newTestEngine(t)
	cart := singleItemCart(1, "10", "50")

	methods := []model.ShippingMethod{
		{ID: 1, Handle: "standard", Enabled: true, Rules: []model.ShippingRule{{ID: 1, Enabled: true, MaxWeight: nd("10")}}},
	}
	quotes, err := e.Quotes(cart, methods)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestCartFromOrder(t *testing.T) {
	cat := uint(3)
	order := model.Order{
		ShippingCountryCode: "US",
		ShippingZipCode:     "94105",
		LineItems: []model.LineItem{
			{Qty: 2, Subtotal: d("20"), Weight: d("1.5"), ShippingCategoryID: &cat, Shippable: true},
			{Qty: 1, Subtotal: d("5"), Weight: d("0"), Shippable: false},
		},
	}

	cart := CartFromOrder(order)
	require.NotNil(t, cart.Address)
	assert.Equal(t, 3, cart.TotalQty)
	assert.Equal(t, "3", cart.TotalWeight.String())
	assert.Equal(t, "25", cart.ItemTotal.String())
	assert.Equal(t, uint(3), cart.Items[0].ShippingCategoryID)
	assert.True(t, cart.Items[1].Exempt)
}
