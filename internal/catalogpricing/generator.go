// Package catalogpricing expands purchasables, catalog pricing rules and user
// group membership into the flat rows of the catalog_pricing table.
package catalogpricing

import (
	"sort"
	"time"

	"storefront/internal/model"
)

// Generator builds catalog pricing rows. It holds no state between runs.
type Generator struct {
	StoreID uint
}

func NewGenerator() Generator {
	return Generator{StoreID: model.StoreIDPrimary}
}

// Generate returns one base row per purchasable followed by one sale row per
// (target user, target purchasable) pair of every rule active at now.
//
// Rules referencing purchasables that are not in purchasables are silently
// narrowed to the known ones. A rule for all groups gets a single nil user.
func (g Generator) Generate(
	purchasables []model.Purchasable,
	rules []model.CatalogPricingRule,
	memberships []model.UserGroupMember,
	now time.Time,
) []model.CatalogPricing {
	usersByGroupID := groupMembers(memberships)

	rows := make([]model.CatalogPricing, 0, len(purchasables))
	byID := make(map[uint]model.Purchasable, len(purchasables))
	for _, p := range purchasables {
		byID[p.ID] = p
		rows = append(rows, model.CatalogPricing{
			PurchasableID: p.ID,
			Price:         p.BasePrice,
			StoreID:       g.StoreID,
		})
	}

	for _, rule := range rules {
		if !rule.IsActive(now) {
			continue
		}

		targets := targetPurchasables(rule, purchasables, byID)
		users := targetUsers(rule, usersByGroupID)
		ruleID := rule.ID

		for _, userID := range users {
			for _, p := range targets {
				rows = append(rows, model.CatalogPricing{
					PurchasableID:        p.ID,
					Price:                rule.PriceFrom(p.PriceFor(rule.ApplyPriceType)),
					StoreID:              g.StoreID,
					UserID:               userID,
					IsSale:               true,
					IsPromotionalPrice:   rule.IsPromotionalPrice,
					CatalogPricingRuleID: &ruleID,
					DateFrom:             utc(rule.DateFrom),
					DateTo:               utc(rule.DateTo),
				})
			}
		}
	}

	return rows
}

// ExpectedRowCount is the number of rows Generate produces for the same input
func ExpectedRowCount(
	purchasables []model.Purchasable,
	rules []model.CatalogPricingRule,
	memberships []model.UserGroupMember,
	now time.Time,
) int {
	usersByGroupID := groupMembers(memberships)
	byID := make(map[uint]model.Purchasable, len(purchasables))
	for _, p := range purchasables {
		byID[p.ID] = p
	}

	total := len(purchasables)
	for _, rule := range rules {
		if !rule.IsActive(now) {
			continue
		}
		total += len(targetPurchasables(rule, purchasables, byID)) * len(targetUsers(rule, usersByGroupID))
	}
	return total
}

func groupMembers(memberships []model.UserGroupMember) map[uint][]uint {
	usersByGroupID := make(map[uint][]uint)
	for _, m := range memberships {
		usersByGroupID[m.UserGroupID] = append(usersByGroupID[m.UserGroupID], m.UserID)
	}
	return usersByGroupID
}

func targetPurchasables(rule model.CatalogPricingRule, all []model.Purchasable, byID map[uint]model.Purchasable) []model.Purchasable {
	if rule.AllPurchasables {
		return all
	}

	seen := make(map[uint]bool, len(rule.PurchasableIDs))
	targets := make([]model.Purchasable, 0, len(rule.PurchasableIDs))
	for _, id := range rule.PurchasableIDs {
		p, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		targets = append(targets, p)
	}
	return targets
}

// targetUsers returns the de-duplicated members of the rule's groups in
// ascending id order, or a single nil entry when the rule targets everyone.
func targetUsers(rule model.CatalogPricingRule, usersByGroupID map[uint][]uint) []*uint {
	if rule.AllGroups {
		return []*uint{nil}
	}

	seen := make(map[uint]bool)
	ids := make([]uint, 0)
	for _, groupID := range rule.UserGroupIDs {
		for _, userID := range usersByGroupID[groupID] {
			if seen[userID] {
				continue
			}
			seen[userID] = true
			ids = append(ids, userID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	users := make([]*uint, len(ids))
	for i := range ids {
		users[i] = &ids[i]
	}
	return users
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
