package catalogpricing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func timePtr(t time.Time) *time.Time { return &t }

func purchasable(id uint, price string) model.Purchasable {
	return model.Purchasable{ID: id, SKU: fmt.Sprintf("SKU-%d", id), BasePrice: d(price)}
}

func rowKey(r model.CatalogPricing) string {
	user, rule := "-", "-"
	if r.UserID != nil {
		user = fmt.Sprint(*r.UserID)
	}
	if r.CatalogPricingRuleID != nil {
		rule = fmt.Sprint(*r.CatalogPricingRuleID)
	}
	return fmt.Sprintf("%d|%s|%s|%s|%t", r.PurchasableID, r.Price.String(), user, rule, r.IsSale)
}

func rowKeys(rows []model.CatalogPricing) []string {
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = rowKey(r)
	}
	sort.Strings(keys)
	return keys
}

func TestGenerate_PercentageDiscountForEveryone(t *testing.T) {
	rows := NewGenerator().Generate(
		[]model.Purchasable{purchasable(1, "100")},
		[]model.CatalogPricingRule{{
			ID: 7, Enabled: true, AllPurchasables: true, AllGroups: true,
			Apply: model.ApplyByPercent, ApplyAmount: d("0.1"), ApplyPriceType: model.ApplyPriceTypePrice,
		}},
		nil,
		now,
	)

	require.Len(t, rows, 2)

	base := rows[0]
	assert.Equal(t, uint(1), base.PurchasableID)
	assert.Equal(t, "100", base.Price.String())
	assert.Nil(t, base.UserID)
	assert.Nil(t, base.CatalogPricingRuleID)
	assert.False(t, base.IsSale)
	assert.Equal(t, model.StoreIDPrimary, base.StoreID)

	sale := rows[1]
	assert.Equal(t, "90", sale.Price.String())
	assert.Nil(t, sale.UserID)
	require.NotNil(t, sale.CatalogPricingRuleID)
	assert.Equal(t, uint(7), *sale.CatalogPricingRuleID)
	assert.True(t, sale.IsSale)
}

func TestGenerate_BaseRowsWithoutRules(t *testing.T) {
	purchasables := []model.Purchasable{purchasable(1, "10"), purchasable(2, "20"), purchasable(3, "30")}
	rows := NewGenerator().Generate(purchasables, nil, nil, now)

	require.Len(t, rows, 3)
	for i, r := range rows {
		assert.Equal(t, purchasables[i].ID, r.PurchasableID)
		assert.True(t, purchasables[i].BasePrice.Equal(r.Price))
	}
}

func TestGenerate_GroupScopedRule(t *testing.T) {
	purchasables := []model.Purchasable{purchasable(1, "50"), purchasable(2, "80")}
	memberships := []model.UserGroupMember{
		{UserGroupID: 1, UserID: 11},
		{UserGroupID: 1, UserID: 12},
		{UserGroupID: 2, UserID: 12},
		{UserGroupID: 2, UserID: 13},
	}
	rule := model.CatalogPricingRule{
		ID: 3, Enabled: true,
		PurchasableIDs: []uint{2, 99},
		UserGroupIDs:   []uint{1, 2, 5},
		Apply:          model.ApplyToFlat, ApplyAmount: d("60"),
	}

	rows := NewGenerator().Generate(purchasables, []model.CatalogPricingRule{rule}, memberships, now)

	// 2 base rows + 1 known purchasable x 3 distinct users
	require.Len(t, rows, 5)
	sales := rows[2:]
	var users []uint
	for _, r := range sales {
		assert.Equal(t, uint(2), r.PurchasableID)
		assert.Equal(t, "60", r.Price.String())
		require.NotNil(t, r.UserID)
		users = append(users, *r.UserID)
	}
	assert.Equal(t, []uint{11, 12, 13}, users)
}

func TestGenerate_InactiveRulesAreSkipped(t *testing.T) {
	purchasables := []model.Purchasable{purchasable(1, "10")}
	rules := []model.CatalogPricingRule{
		{ID: 1, Enabled: false, AllPurchasables: true, AllGroups: true, Apply: model.ApplyByFlat, ApplyAmount: d("1")},
		{ID: 2, Enabled: true, AllPurchasables: true, AllGroups: true, Apply: model.ApplyByFlat, ApplyAmount: d("1"), DateFrom: timePtr(now.Add(time.Hour))},
		{ID: 3, Enabled: true, AllPurchasables: true, AllGroups: true, Apply: model.ApplyByFlat, ApplyAmount: d("1"), DateTo: timePtr(now.Add(-time.Hour))},
		{ID: 4, Enabled: true, AllPurchasables: true, AllGroups: true, Apply: model.ApplyByFlat, ApplyAmount: d("1"),
			DateFrom: timePtr(now.Add(-time.Hour)), DateTo: timePtr(now.Add(time.Hour))},
	}

	rows := NewGenerator().Generate(purchasables, rules, nil, now)
	require.Len(t, rows, 2)
	assert.Equal(t, uint(4), *rows[1].CatalogPricingRuleID)
	assert.Equal(t, "9", rows[1].Price.String())
	require.NotNil(t, rows[1].DateFrom)
	assert.Equal(t, time.UTC, rows[1].DateFrom.Location())
}

func TestGenerate_PromotionalPriceType(t *testing.T) {
	p := purchasable(1, "100")
	p.BasePromotionalPrice = decimal.NullDecimal{Decimal: d("80"), Valid: true}
	plain := purchasable(2, "100")

	rule := model.CatalogPricingRule{
		ID: 1, Enabled: true, AllPurchasables: true, AllGroups: true, IsPromotionalPrice: true,
		Apply: model.ApplyToPercent, ApplyAmount: d("0.5"), ApplyPriceType: model.ApplyPriceTypePromotionalPrice,
	}
	rows := NewGenerator().Generate([]model.Purchasable{p, plain}, []model.CatalogPricingRule{rule}, nil, now)

	require.Len(t, rows, 4)
	assert.Equal(t, "40", rows[2].Price.String())
	assert.Equal(t, "50", rows[3].Price.String())
	assert.True(t, rows[2].IsPromotionalPrice)
}

func TestGenerate_RowCountLawAndIdempotence(t *testing.T) {
	purchasables := make([]model.Purchasable, 0, 25)
	for i := uint(1); i <= 25; i++ {
		purchasables = append(purchasables, purchasable(i, fmt.Sprintf("%d.99", i)))
	}
	memberships := []model.UserGroupMember{
		{UserGroupID: 1, UserID: 1}, {UserGroupID: 1, UserID: 2}, {UserGroupID: 1, UserID: 3},
		{UserGroupID: 2, UserID: 3}, {UserGroupID: 2, UserID: 4},
	}
	rules := []model.CatalogPricingRule{
		{ID: 1, Enabled: true, AllPurchasables: true, AllGroups: true, Apply: model.ApplyByPercent, ApplyAmount: d("0.15")},
		{ID: 2, Enabled: true, AllPurchasables: true, UserGroupIDs: []uint{1, 2}, Apply: model.ApplyByFlat, ApplyAmount: d("2")},
		{ID: 3, Enabled: true, PurchasableIDs: []uint{1, 2, 3, 404}, UserGroupIDs: []uint{2}, Apply: model.ApplyToPercent, ApplyAmount: d("0.5")},
		{ID: 4, Enabled: true, PurchasableIDs: []uint{5}, UserGroupIDs: []uint{9}, Apply: model.ApplyToFlat, ApplyAmount: d("1")},
		{ID: 5, Enabled: false, AllPurchasables: true, AllGroups: true, Apply: model.ApplyToFlat, ApplyAmount: d("1")},
	}

	gen := NewGenerator()
	first := gen.Generate(purchasables, rules, memberships, now)
	second := gen.Generate(purchasables, rules, memberships, now)

	// 25 base + 25*1 + 25*4 + 3*2 + 1*0
	assert.Len(t, first, 25+25+100+6)
	assert.Equal(t, ExpectedRowCount(purchasables, rules, memberships, now), len(first))
	assert.Equal(t, rowKeys(first), rowKeys(second))
}

func TestPriceFrom(t *testing.T) {
	price := d("40")
	cases := []struct {
		apply  string
		amount string
		want   string
	}{
		{model.ApplyToPercent, "0.25", "10"},
		{model.ApplyByPercent, "0.25", "30"},
		{model.ApplyByPercent, "1.5", "0"},
		{model.ApplyToFlat, "12.5", "12.5"},
		{model.ApplyByFlat, "15", "25"},
		{model.ApplyByFlat, "50", "0"},
		{"unknown", "1", "40"},
	}
	for _, tc := range cases {
		t.Run(tc.apply+"/"+tc.amount, func(t *testing.T) {
			rule := model.CatalogPricingRule{Apply: tc.apply, ApplyAmount: d(tc.amount)}
			assert.Equal(t, tc.want, rule.PriceFrom(price).String())
		})
	}
}

type memorySink struct {
	truncated int
	batches   [][]model.CatalogPricing
	failOn    int
}

func (s *memorySink) Truncate(ctx context.Context) error {
	s.truncated++
	s.batches = nil
	return nil
}

func (s *memorySink) InsertBatch(ctx context.Context, rows []model.CatalogPricing) error {
	if s.failOn > 0 && len(s.batches)+1 == s.failOn {
		return errors.New("connection reset")
	}
	batch := make([]model.CatalogPricing, len(rows))
	copy(batch, rows)
	s.batches = append(s.batches, batch)
	return nil
}

func TestWrite_Batches(t *testing.T) {
	rows := make([]model.CatalogPricing, 4500)
	for i := range rows {
		rows[i] = model.CatalogPricing{PurchasableID: uint(i + 1)}
	}

	sink := &memorySink{}
	var reported []int
	err := Write(context.Background(), sink, rows, DefaultBatchSize, func(written, total int) {
		assert.Equal(t, 4500, total)
		reported = append(reported, written)
	})
	require.NoError(t, err)

	assert.Equal(t, 1, sink.truncated)
	require.Len(t, sink.batches, 3)
	assert.Len(t, sink.batches[0], 2000)
	assert.Len(t, sink.batches[1], 2000)
	assert.Len(t, sink.batches[2], 500)
	assert.Equal(t, []int{2000, 4000, 4500}, reported)
}

func TestWrite_FailureLeavesEarlierBatches(t *testing.T) {
	rows := make([]model.CatalogPricing, 5)
	sink := &memorySink{failOn: 3}

	err := Write(context.Background(), sink, rows, 2, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rows 4-5")
	assert.Len(t, sink.batches, 2)
}

func TestWrite_EmptyStillTruncates(t *testing.T) {
	sink := &memorySink{batches: [][]model.CatalogPricing{{{PurchasableID: 1}}}}
	require.NoError(t, Write(context.Background(), sink, nil, 0, nil))
	assert.Equal(t, 1, sink.truncated)
	assert.Empty(t, sink.batches)
}
