package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func uintPtr(v uint) *uint { return &v }

func TestTransactionManager_RollsBackAndJoins(t *testing.T) {
	db := setupDB(t)
	tm := NewTransactionManager(db)
	repo := NewPurchasableRepository(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := tm.RunInTx(ctx, func(txCtx context.Context) error {
		require.NoError(t, repo.Create(txCtx, &model.Purchasable{SKU: "A", Description: "a", BasePrice: decimal.NewFromInt(1), IsShippable: true}))
		// nested call joins the outer transaction
		return tm.RunInTx(txCtx, func(inner context.Context) error {
			require.NoError(t, repo.Create(inner, &model.Purchasable{SKU: "B", Description: "b", BasePrice: decimal.NewFromInt(2), IsShippable: true}))
			return boom
		})
	})
	require.ErrorIs(t, err, boom)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCatalogPricingRepository_BatchAndLowestPrice(t *testing.T) {
	db := setupDB(t)
	repo := NewCatalogPricingRepository(db)
	ctx := context.Background()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	rows := []model.CatalogPricing{
		{PurchasableID: 1, Price: decimal.NewFromInt(100), StoreID: 1},
		{PurchasableID: 1, Price: decimal.NewFromInt(90), StoreID: 1, IsSale: true, CatalogPricingRuleID: uintPtr(1)},
		{PurchasableID: 1, Price: decimal.NewFromInt(70), StoreID: 1, IsSale: true, UserID: uintPtr(5), CatalogPricingRuleID: uintPtr(2)},
		{PurchasableID: 1, Price: decimal.NewFromInt(10), StoreID: 1, IsSale: true, DateFrom: &future, CatalogPricingRuleID: uintPtr(3)},
		{PurchasableID: 1, Price: decimal.NewFromInt(20), StoreID: 1, IsSale: true, DateTo: &past, CatalogPricingRuleID: uintPtr(4)},
		{PurchasableID: 2, Price: decimal.NewFromInt(5), StoreID: 1},
	}
	require.NoError(t, repo.InsertBatch(ctx, rows))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)

	anon, err := repo.LowestPrice(ctx, 1, nil, now)
	require.NoError(t, err)
	assert.Equal(t, "90", anon.Price.String())

	member, err := repo.LowestPrice(ctx, 1, uintPtr(5), now)
	require.NoError(t, err)
	assert.Equal(t, "70", member.Price.String())

	other, err := repo.LowestPrice(ctx, 1, uintPtr(6), now)
	require.NoError(t, err)
	assert.Equal(t, "90", other.Price.String())

	_, err = repo.LowestPrice(ctx, 3, nil, now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.Truncate(ctx))
	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestShippingRuleRepository_Priorities(t *testing.T) {
	db := setupDB(t)
	methods := NewShippingMethodRepository(db)
	rules := NewShippingRuleRepository(db)
	ctx := context.Background()

	method := &model.ShippingMethod{Name: "Courier", Handle: "courier", Enabled: true}
	require.NoError(t, methods.Create(ctx, method))

	highest, err := rules.MaxPriority(ctx, method.ID)
	require.NoError(t, err)
	assert.Zero(t, highest)

	second := &model.ShippingRule{ShippingMethodID: method.ID, Name: "second", Enabled: true, Priority: 2}
	first := &model.ShippingRule{ShippingMethodID: method.ID, Name: "first", Enabled: true, Priority: 1,
		Categories: []model.ShippingRuleCategory{{ShippingCategoryID: 3, Condition: model.CategoryConditionRequire}}}
	require.NoError(t, rules.Create(ctx, second))
	require.NoError(t, rules.Create(ctx, first))

	highest, err = rules.MaxPriority(ctx, method.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, highest)

	taken, err := rules.PriorityTaken(ctx, method.ID, 2, 0)
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = rules.PriorityTaken(ctx, method.ID, 2, second.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	loaded, err := methods.ListEnabledWithRules(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Len(t, loaded[0].Rules, 2)
	assert.Equal(t, "first", loaded[0].Rules[0].Name)
	require.Len(t, loaded[0].Rules[0].Categories, 1)

	first.Categories = nil
	require.NoError(t, rules.Update(ctx, first))
	reloaded, err := rules.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Categories)

	require.NoError(t, methods.Delete(ctx, method.ID))
	left, err := rules.ListByMethod(ctx, method.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestUserGroupRepository_Memberships(t *testing.T) {
	db := setupDB(t)
	groups := NewUserGroupRepository(db)
	ctx := context.Background()

	vip := &model.UserGroup{Name: "VIP", Handle: "vip"}
	staff := &model.UserGroup{Name: "Staff", Handle: "staff"}
	require.NoError(t, groups.Create(ctx, vip))
	require.NoError(t, groups.Create(ctx, staff))

	require.NoError(t, groups.SetMembers(ctx, vip.ID, []uint{3, 1, 3}))
	require.NoError(t, groups.SetMembers(ctx, staff.ID, []uint{2}))

	ids, err := groups.MemberIDs(ctx, vip.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 3}, ids)

	require.NoError(t, groups.SetMembers(ctx, vip.ID, []uint{4}))
	all, err := groups.ListMemberships(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.UserGroupMember{
		{UserGroupID: vip.ID, UserID: 4},
		{UserGroupID: staff.ID, UserID: 2},
	}, all)

	count, err := groups.CountByIDs(ctx, []uint{vip.ID, staff.ID, 99})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, groups.Delete(ctx, vip.ID))
	all, err = groups.ListMemberships(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAuditRepository_FilterByAction(t *testing.T) {
	db := setupDB(t)
	repo := NewAuditRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Log(ctx, &model.AuditLog{Action: model.ActionCreateShippingRule, EntityID: "1"}))
	require.NoError(t, repo.Log(ctx, &model.AuditLog{Action: model.ActionGenerateCatalogPricing, EntityID: "0"}))
	require.NoError(t, repo.Log(ctx, &model.AuditLog{Action: model.ActionCreateShippingRule, EntityID: "2"}))

	logs, total, err := repo.List(ctx, 1, 10, model.ActionCreateShippingRule)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, logs, 2)

	logs, total, err = repo.List(ctx, 2, 2, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, logs, 1)
}
