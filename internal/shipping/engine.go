package shipping

import (
	"errors"
	"sort"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// ErrNoShippingMethods is returned when a quote is requested but nothing can ship
var ErrNoShippingMethods = errors.New("no shipping methods are configured")

// Quote is one available way to ship a cart and what it costs
type Quote struct {
	MethodID     uint            `json:"method_id,omitempty"`
	MethodHandle string          `json:"method_handle"`
	MethodName   string          `json:"method_name"`
	RuleID       uint            `json:"rule_id,omitempty"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
}

// RateProvider prices a cart for one shipping option. ok is false when the
// option cannot ship this cart.
type RateProvider interface {
	Handle() string
	Name() string
	Quote(cart Cart) (quote Quote, ok bool)
}

// Engine matches shipping rules against carts and prices them
type Engine struct {
	zones     *ZoneMatcher
	providers []RateProvider
}

func NewEngine(zones *ZoneMatcher) *Engine {
	return &Engine{zones: zones}
}

// Register adds a provider that is quoted next to the rule-based methods
func (e *Engine) Register(p RateProvider) {
	e.providers = append(e.providers, p)
}

// MatchRule returns the enabled rule with the lowest priority value whose
// conditions the cart satisfies. Equal priorities keep their input order.
func (e *Engine) MatchRule(cart Cart, rules []model.ShippingRule) (model.ShippingRule, bool) {
	ordered := make([]model.ShippingRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	for _, rule := range ordered {
		if e.matches(cart, rule) {
			return rule, true
		}
	}
	return model.ShippingRule{}, false
}

func (e *Engine) matches(cart Cart, rule model.ShippingRule) bool {
	if !rule.Enabled {
		return false
	}
	if rule.MinQty != nil && cart.TotalQty < *rule.MinQty {
		return false
	}
	if rule.MaxQty != nil && cart.TotalQty > *rule.MaxQty {
		return false
	}
	if !withinBounds(cart.ItemTotal, rule.MinTotal, rule.MaxTotal) {
		return false
	}
	if !withinBounds(cart.TotalWeight, rule.MinWeight, rule.MaxWeight) {
		return false
	}

	if len(rule.Categories) > 0 {
		present := cart.shippingCategories()
		for _, rc := range rule.Categories {
			if rc.Condition == model.CategoryConditionRequire && !present[rc.ShippingCategoryID] {
				return false
			}
		}
	}

	if rule.ShippingZoneID != nil {
		if e.zones == nil || rule.ShippingZone == nil {
			return false
		}
		return e.zones.Matches(rule.ShippingZone, cart.Address)
	}
	return true
}

func withinBounds(v decimal.Decimal, lo, hi decimal.NullDecimal) bool {
	if lo.Valid && v.LessThan(lo.Decimal) {
		return false
	}
	if hi.Valid && v.GreaterThan(hi.Decimal) {
		return false
	}
	return true
}

// ComputeAmount prices the cart under rule. Exempt items and items whose
// category the rule disallows add nothing. The result is clamped to
// [MinRate, MaxRate]; a null or zero MaxRate leaves it uncapped.
func ComputeAmount(cart Cart, rule model.ShippingRule) decimal.Decimal {
	overrides := make(map[uint]model.ShippingRuleCategory, len(rule.Categories))
	for _, rc := range rule.Categories {
		overrides[rc.ShippingCategoryID] = rc
	}

	amount := rule.BaseRate
	for _, item := range cart.Items {
		if item.Exempt {
			continue
		}

		perItemRate := rule.PerItemRate
		weightRate := rule.WeightRate
		percentageRate := rule.PercentageRate
		if rc, ok := overrides[item.ShippingCategoryID]; ok {
			if rc.Condition == model.CategoryConditionDisallow {
				continue
			}
			if rc.PerItemRate.Valid {
				perItemRate = rc.PerItemRate.Decimal
			}
			if rc.WeightRate.Valid {
				weightRate = rc.WeightRate.Decimal
			}
			if rc.PercentageRate.Valid {
				percentageRate = rc.PercentageRate.Decimal
			}
		}

		qty := decimal.NewFromInt(int64(item.Qty))
		amount = amount.
			Add(item.Subtotal.Mul(percentageRate)).
			Add(qty.Mul(perItemRate)).
			Add(item.Weight.Mul(qty).Mul(weightRate))
	}

	amount = decimal.Max(amount, rule.MinRate)
	if rule.MaxRate.Valid && !rule.MaxRate.Decimal.IsZero() {
		amount = decimal.Min(amount, rule.MaxRate.Decimal)
	}
	return amount
}

// methodProvider quotes a stored shipping method through its rules
type methodProvider struct {
	engine *Engine
	method model.ShippingMethod
}

func (p methodProvider) Handle() string { return p.method.Handle }
func (p methodProvider) Name() string   { return p.method.Name }

func (p methodProvider) Quote(cart Cart) (Quote, bool) {
	rule, ok := p.engine.MatchRule(cart, p.method.Rules)
	if !ok {
		return Quote{}, false
	}
	return Quote{
		MethodID:     p.method.ID,
		MethodHandle: p.method.Handle,
		MethodName:   p.method.Name,
		RuleID:       rule.ID,
		Description:  rule.Description,
		Amount:       ComputeAmount(cart, rule),
	}, true
}

// RankAvailableMethods quotes every enabled method that has a matching rule,
// cheapest first. Ties keep the input order.
func (e *Engine) RankAvailableMethods(cart Cart, methods []model.ShippingMethod) []Quote {
	return rank(cart, e.methodProviders(methods))
}

// Quotes ranks the given methods together with every registered provider
func (e *Engine) Quotes(cart Cart, methods []model.ShippingMethod) ([]Quote, error) {
	if len(methods) == 0 && len(e.providers) == 0 {
		return nil, ErrNoShippingMethods
	}
	providers := append(e.methodProviders(methods), e.providers...)
	return rank(cart, providers), nil
}

func (e *Engine) methodProviders(methods []model.ShippingMethod) []RateProvider {
	providers := make([]RateProvider, 0, len(methods)+len(e.providers))
	for _, m := range methods {
		if !m.Enabled {
			continue
		}
		providers = append(providers, methodProvider{engine: e, method: m})
	}
	return providers
}

func rank(cart Cart, providers []RateProvider) []Quote {
	quotes := make([]Quote, 0, len(providers))
	for _, p := range providers {
		if q, ok := p.Quote(cart); ok {
			quotes = append(quotes, q)
		}
	}
	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].Amount.LessThan(quotes[j].Amount)
	})
	return quotes
}
