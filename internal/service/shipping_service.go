package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/metric"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/shipping"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("storefront/service")

// --- DTOs ---

type ShippingMethodRequest struct {
	Name    string `json:"name" binding:"required,max=255"`
	Handle  string `json:"handle" binding:"required,max=255"`
	Enabled *bool  `json:"enabled"`
}

type ShippingRuleCategoryRequest struct {
	ShippingCategoryID uint                `json:"shipping_category_id" binding:"required"`
	Condition          string              `json:"condition" binding:"required,oneof=allow disallow require"`
	PerItemRate        decimal.NullDecimal `json:"per_item_rate"`
	WeightRate         decimal.NullDecimal `json:"weight_rate"`
	PercentageRate     decimal.NullDecimal `json:"percentage_rate"`
}

type ShippingRuleRequest struct {
	Name           string                        `json:"name" binding:"required,max=255"`
	Description    string                        `json:"description"`
	Enabled        *bool                         `json:"enabled"`
	Priority       *int                          `json:"priority" binding:"omitempty,min=0"` // nil assigns the next free priority
	ShippingZoneID *uint                         `json:"shipping_zone_id"`
	MinQty         *int                          `json:"min_qty" binding:"omitempty,min=0"`
	MaxQty         *int                          `json:"max_qty" binding:"omitempty,min=0"`
	MinTotal       decimal.NullDecimal           `json:"min_total"`
	MaxTotal       decimal.NullDecimal           `json:"max_total"`
	MinWeight      decimal.NullDecimal           `json:"min_weight"`
	MaxWeight      decimal.NullDecimal           `json:"max_weight"`
	BaseRate       decimal.Decimal               `json:"base_rate"`
	PerItemRate    decimal.Decimal               `json:"per_item_rate"`
	WeightRate     decimal.Decimal               `json:"weight_rate"`
	PercentageRate decimal.Decimal               `json:"percentage_rate"`
	MinRate        decimal.Decimal               `json:"min_rate"`
	MaxRate        decimal.NullDecimal           `json:"max_rate"`
	Categories     []ShippingRuleCategoryRequest `json:"categories" binding:"omitempty,dive"`
}

type ReorderRulesRequest struct {
	RuleIDs []uint `json:"rule_ids" binding:"required,min=1"`
}

type ShippingCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Handle      string `json:"handle" binding:"required,max=255"`
	Description string `json:"description"`
	IsDefault   bool   `json:"is_default"`
}

type ShippingZoneRequest struct {
	Name                    string   `json:"name" binding:"required,max=255"`
	Description             string   `json:"description"`
	Countries               []string `json:"countries"`
	AdministrativeAreas     []string `json:"administrative_areas"`
	ZipCodeConditionFormula string   `json:"zip_code_condition_formula"`
}

type CartItemRequest struct {
	PurchasableID uint `json:"purchasable_id" binding:"required"`
	Qty           int  `json:"qty" binding:"required,gt=0"`
}

type CartRequest struct {
	Address *shipping.Address `json:"address"`
	UserID  *uint             `json:"user_id"` // catalog price for this customer; nil prices anonymously
	Items   []CartItemRequest `json:"items" binding:"required,min=1,dive"`
}

// --- Interface ---

type ShippingService interface {
	ListMethods(ctx context.Context) ([]model.ShippingMethod, error)
	GetMethod(ctx context.Context, id uint) (*model.ShippingMethod, error)
	CreateMethod(ctx context.Context, actorID *uint, req ShippingMethodRequest) (*model.ShippingMethod, error)
	UpdateMethod(ctx context.Context, actorID *uint, id uint, req ShippingMethodRequest) (*model.ShippingMethod, error)
	DeleteMethod(ctx context.Context, actorID *uint, id uint) error

	ListRules(ctx context.Context, methodID uint) ([]model.ShippingRule, error)
	CreateRule(ctx context.Context, actorID *uint, methodID uint, req ShippingRuleRequest) (*model.ShippingRule, error)
	UpdateRule(ctx context.Context, actorID *uint, methodID, ruleID uint, req ShippingRuleRequest) (*model.ShippingRule, error)
	DeleteRule(ctx context.Context, actorID *uint, methodID, ruleID uint) error
	ReorderRules(ctx context.Context, actorID *uint, methodID uint, req ReorderRulesRequest) ([]model.ShippingRule, error)

	ListCategories(ctx context.Context) ([]model.ShippingCategory, error)
	CreateCategory(ctx context.Context, actorID *uint, req ShippingCategoryRequest) (*model.ShippingCategory, error)
	DeleteCategory(ctx context.Context, actorID *uint, id uint) error

	ListZones(ctx context.Context) ([]model.ShippingZone, error)
	CreateZone(ctx context.Context, actorID *uint, req ShippingZoneRequest) (*model.ShippingZone, error)
	DeleteZone(ctx context.Context, actorID *uint, id uint) error

	GetShippingQuotes(ctx context.Context, req CartRequest) ([]shipping.Quote, error)
	GetOrderShippingQuotes(ctx context.Context, orderID uint) ([]shipping.Quote, error)
}

type shippingService struct {
	methodRepo      repository.ShippingMethodRepository
	ruleRepo        repository.ShippingRuleRepository
	categoryRepo    repository.ShippingCategoryRepository
	zoneRepo        repository.ShippingZoneRepository
	purchasableRepo repository.PurchasableRepository
	orderRepo       repository.OrderRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
	pricing         CatalogPricingService
	engine          *shipping.Engine
	zones           *shipping.ZoneMatcher
	now             func() time.Time
}

func NewShippingService(
	methodRepo repository.ShippingMethodRepository,
	ruleRepo repository.ShippingRuleRepository,
	categoryRepo repository.ShippingCategoryRepository,
	zoneRepo repository.ShippingZoneRepository,
	purchasableRepo repository.PurchasableRepository,
	orderRepo repository.OrderRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	pricing CatalogPricingService,
	engine *shipping.Engine,
	zones *shipping.ZoneMatcher,
) ShippingService {
	return &shippingService{
		methodRepo:      methodRepo,
		ruleRepo:        ruleRepo,
		categoryRepo:    categoryRepo,
		zoneRepo:        zoneRepo,
		purchasableRepo: purchasableRepo,
		orderRepo:       orderRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
		pricing:         pricing,
		engine:          engine,
		zones:           zones,
		now:             time.Now,
	}
}

// --- Methods ---

func (s *shippingService) ListMethods(ctx context.Context) ([]model.ShippingMethod, error) {
	methods, err := s.methodRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipping methods: %w", err)
	}
	return methods, nil
}

func (s *shippingService) GetMethod(ctx context.Context, id uint) (*model.ShippingMethod, error) {
	method, err := s.methodRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: shipping method %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch shipping method: %w", err)
	}
	return method, nil
}

func (s *shippingService) CreateMethod(ctx context.Context, actorID *uint, req ShippingMethodRequest) (*model.ShippingMethod, error) {
	method := &model.ShippingMethod{
		Name:    req.Name,
		Handle:  req.Handle,
		Enabled: req.Enabled == nil || *req.Enabled,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.methodRepo.Create(txCtx, method); err != nil {
			return fmt.Errorf("failed to create shipping method: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionCreateShippingMethod, method.ID, method.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return method, nil
}

func (s *shippingService) UpdateMethod(ctx context.Context, actorID *uint, id uint, req ShippingMethodRequest) (*model.ShippingMethod, error) {
	method, err := s.GetMethod(ctx, id)
	if err != nil {
		return nil, err
	}

	method.Name = req.Name
	method.Handle = req.Handle
	if req.Enabled != nil {
		method.Enabled = *req.Enabled
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.methodRepo.Update(txCtx, method); err != nil {
			return fmt.Errorf("failed to update shipping method: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionUpdateShippingMethod, method.ID, method.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return method, nil
}

func (s *shippingService) DeleteMethod(ctx context.Context, actorID *uint, id uint) error {
	method, err := s.GetMethod(ctx, id)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.methodRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete shipping method: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionDeleteShippingMethod, method.ID, method.Name,
			map[string]int{"deleted_rules": len(method.Rules)})
	})
}

// --- Rules ---

func (s *shippingService) ListRules(ctx context.Context, methodID uint) ([]model.ShippingRule, error) {
	if _, err := s.GetMethod(ctx, methodID); err != nil {
		return nil, err
	}
	rules, err := s.ruleRepo.ListByMethod(ctx, methodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipping rules: %w", err)
	}
	return rules, nil
}

func (s *shippingService) CreateRule(ctx context.Context, actorID *uint, methodID uint, req ShippingRuleRequest) (*model.ShippingRule, error) {
	if _, err := s.GetMethod(ctx, methodID); err != nil {
		return nil, err
	}
	if err := s.validateRule(ctx, req); err != nil {
		return nil, err
	}

	rule := &model.ShippingRule{ShippingMethodID: methodID}
	applyRuleRequest(rule, req)

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if req.Priority == nil {
			highest, err := s.ruleRepo.MaxPriority(txCtx, methodID)
			if err != nil {
				return fmt.Errorf("failed to read rule priorities: %w", err)
			}
			rule.Priority = highest + 1
		} else if err := s.checkPriority(txCtx, methodID, *req.Priority, 0); err != nil {
			return err
		}

		if err := s.ruleRepo.Create(txCtx, rule); err != nil {
			return fmt.Errorf("failed to create shipping rule: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionCreateShippingRule, rule.ID, rule.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *shippingService) UpdateRule(ctx context.Context, actorID *uint, methodID, ruleID uint, req ShippingRuleRequest) (*model.ShippingRule, error) {
	rule, err := s.findRule(ctx, methodID, ruleID)
	if err != nil {
		return nil, err
	}
	if err := s.validateRule(ctx, req); err != nil {
		return nil, err
	}

	applyRuleRequest(rule, req)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if req.Priority != nil {
			if err := s.checkPriority(txCtx, methodID, *req.Priority, rule.ID); err != nil {
				return err
			}
		}
		if err := s.ruleRepo.Update(txCtx, rule); err != nil {
			return fmt.Errorf("failed to update shipping rule: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionUpdateShippingRule, rule.ID, rule.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *shippingService) DeleteRule(ctx context.Context, actorID *uint, methodID, ruleID uint) error {
	rule, err := s.findRule(ctx, methodID, ruleID)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ruleRepo.Delete(txCtx, rule.ID); err != nil {
			return fmt.Errorf("failed to delete shipping rule: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionDeleteShippingRule, rule.ID, rule.Name, map[string]bool{"deleted": true})
	})
}

// ReorderRules assigns priorities 1..n following the order of req.RuleIDs,
// which must name every rule of the method exactly once.
func (s *shippingService) ReorderRules(ctx context.Context, actorID *uint, methodID uint, req ReorderRulesRequest) ([]model.ShippingRule, error) {
	rules, err := s.ListRules(ctx, methodID)
	if err != nil {
		return nil, err
	}

	known := make(map[uint]bool, len(rules))
	for _, r := range rules {
		known[r.ID] = true
	}
	ids := uniqueIDs(req.RuleIDs)
	if len(ids) != len(req.RuleIDs) || len(ids) != len(rules) {
		return nil, fmt.Errorf("%w: rule_ids must list each rule of the method exactly once", ErrInvalidInput)
	}
	for _, id := range ids {
		if !known[id] {
			return nil, fmt.Errorf("%w: rule %d does not belong to method %d", ErrInvalidInput, id, methodID)
		}
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for i, id := range ids {
			if err := s.ruleRepo.SetPriority(txCtx, id, i+1); err != nil {
				return fmt.Errorf("failed to set priority of rule %d: %w", id, err)
			}
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionReorderShippingRules, methodID, "", req)
	})
	if err != nil {
		return nil, err
	}

	return s.ruleRepo.ListByMethod(ctx, methodID)
}

func (s *shippingService) findRule(ctx context.Context, methodID, ruleID uint) (*model.ShippingRule, error) {
	rule, err := s.ruleRepo.FindByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: shipping rule %d", ErrNotFound, ruleID)
		}
		return nil, fmt.Errorf("failed to fetch shipping rule: %w", err)
	}
	if rule.ShippingMethodID != methodID {
		return nil, fmt.Errorf("%w: shipping rule %d", ErrNotFound, ruleID)
	}
	return rule, nil
}

func (s *shippingService) checkPriority(ctx context.Context, methodID uint, priority int, excludeID uint) error {
	taken, err := s.ruleRepo.PriorityTaken(ctx, methodID, priority, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check rule priority: %w", err)
	}
	if taken {
		return fmt.Errorf("%w: priority %d is already used by another rule of this method", ErrConflict, priority)
	}
	return nil
}

func (s *shippingService) validateRule(ctx context.Context, req ShippingRuleRequest) error {
	if req.MinQty != nil && req.MaxQty != nil && *req.MinQty > *req.MaxQty {
		return fmt.Errorf("%w: min_qty is greater than max_qty", ErrInvalidInput)
	}
	if err := checkRange("total", req.MinTotal, req.MaxTotal); err != nil {
		return err
	}
	if err := checkRange("weight", req.MinWeight, req.MaxWeight); err != nil {
		return err
	}

	rates := map[string]decimal.Decimal{
		"base_rate":       req.BaseRate,
		"per_item_rate":   req.PerItemRate,
		"weight_rate":     req.WeightRate,
		"percentage_rate": req.PercentageRate,
		"min_rate":        req.MinRate,
	}
	for name, v := range rates {
		if v.IsNegative() {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, name)
		}
	}
	if req.MaxRate.Valid {
		if req.MaxRate.Decimal.IsNegative() {
			return fmt.Errorf("%w: max_rate must not be negative", ErrInvalidInput)
		}
		if !req.MaxRate.Decimal.IsZero() && req.MaxRate.Decimal.LessThan(req.MinRate) {
			return fmt.Errorf("%w: max_rate is lower than min_rate", ErrInvalidInput)
		}
	}

	if req.ShippingZoneID != nil {
		if _, err := s.zoneRepo.FindByID(ctx, *req.ShippingZoneID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: shipping zone %d does not exist", ErrInvalidInput, *req.ShippingZoneID)
			}
			return fmt.Errorf("failed to check shipping zone: %w", err)
		}
	}

	if len(req.Categories) > 0 {
		ids := make([]uint, 0, len(req.Categories))
		for _, c := range req.Categories {
			ids = append(ids, c.ShippingCategoryID)
		}
		unique := uniqueIDs(ids)
		if len(unique) != len(ids) {
			return fmt.Errorf("%w: a shipping category may appear only once per rule", ErrInvalidInput)
		}
		count, err := s.categoryRepo.CountByIDs(ctx, unique)
		if err != nil {
			return fmt.Errorf("failed to check shipping categories: %w", err)
		}
		if count != int64(len(unique)) {
			return fmt.Errorf("%w: one or more shipping categories do not exist", ErrInvalidInput)
		}
	}
	return nil
}

func checkRange(name string, lo, hi decimal.NullDecimal) error {
	if lo.Valid && lo.Decimal.IsNegative() {
		return fmt.Errorf("%w: min_%s must not be negative", ErrInvalidInput, name)
	}
	if lo.Valid && hi.Valid && lo.Decimal.GreaterThan(hi.Decimal) {
		return fmt.Errorf("%w: min_%s is greater than max_%s", ErrInvalidInput, name, name)
	}
	return nil
}

func applyRuleRequest(rule *model.ShippingRule, req ShippingRuleRequest) {
	rule.Name = req.Name
	rule.Description = req.Description
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	} else if rule.ID == 0 {
		rule.Enabled = true
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	rule.ShippingZoneID = req.ShippingZoneID
	rule.ShippingZone = nil
	rule.MinQty = req.MinQty
	rule.MaxQty = req.MaxQty
	rule.MinTotal = req.MinTotal
	rule.MaxTotal = req.MaxTotal
	rule.MinWeight = req.MinWeight
	rule.MaxWeight = req.MaxWeight
	rule.BaseRate = req.BaseRate
	rule.PerItemRate = req.PerItemRate
	rule.WeightRate = req.WeightRate
	rule.PercentageRate = req.PercentageRate
	rule.MinRate = req.MinRate
	rule.MaxRate = req.MaxRate

	rule.Categories = make([]model.ShippingRuleCategory, 0, len(req.Categories))
	for _, c := range req.Categories {
		rule.Categories = append(rule.Categories, model.ShippingRuleCategory{
			ShippingCategoryID: c.ShippingCategoryID,
			Condition:          c.Condition,
			PerItemRate:        c.PerItemRate,
			WeightRate:         c.WeightRate,
			PercentageRate:     c.PercentageRate,
		})
	}
}

// --- Categories ---

func (s *shippingService) ListCategories(ctx context.Context) ([]model.ShippingCategory, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipping categories: %w", err)
	}
	return categories, nil
}

func (s *shippingService) CreateCategory(ctx context.Context, actorID *uint, req ShippingCategoryRequest) (*model.ShippingCategory, error) {
	category := &model.ShippingCategory{
		Name:        req.Name,
		Handle:      req.Handle,
		Description: req.Description,
		IsDefault:   req.IsDefault,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.categoryRepo.Create(txCtx, category); err != nil {
			return fmt.Errorf("failed to create shipping category: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionCreateShippingCat, category.ID, category.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *shippingService) DeleteCategory(ctx context.Context, actorID *uint, id uint) error {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: shipping category %d", ErrNotFound, id)
		}
		return fmt.Errorf("failed to fetch shipping category: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.categoryRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete shipping category: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionDeleteShippingCat, category.ID, category.Name, map[string]bool{"deleted": true})
	})
}

// --- Zones ---

func (s *shippingService) ListZones(ctx context.Context) ([]model.ShippingZone, error) {
	zones, err := s.zoneRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipping zones: %w", err)
	}
	return zones, nil
}

func (s *shippingService) CreateZone(ctx context.Context, actorID *uint, req ShippingZoneRequest) (*model.ShippingZone, error) {
	formula := strings.TrimSpace(req.ZipCodeConditionFormula)
	if formula != "" {
		if _, err := s.zones.Compile(formula); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	zone := &model.ShippingZone{
		Name:                    req.Name,
		Description:             req.Description,
		Countries:               upperAll(req.Countries),
		AdministrativeAreas:     upperAll(req.AdministrativeAreas),
		ZipCodeConditionFormula: formula,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.zoneRepo.Create(txCtx, zone); err != nil {
			return fmt.Errorf("failed to create shipping zone: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionCreateShippingZone, zone.ID, zone.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return zone, nil
}

func (s *shippingService) DeleteZone(ctx context.Context, actorID *uint, id uint) error {
	zone, err := s.zoneRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: shipping zone %d", ErrNotFound, id)
		}
		return fmt.Errorf("failed to fetch shipping zone: %w", err)
	}

	inUse, err := s.zoneRepo.InUse(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check shipping zone usage: %w", err)
	}
	if inUse {
		return fmt.Errorf("%w: shipping zone %d is used by a shipping rule", ErrConflict, id)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.zoneRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete shipping zone: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionDeleteShippingZone, zone.ID, zone.Name, map[string]bool{"deleted": true})
	})
}

func upperAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToUpper(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// --- Quotes ---

// GetShippingQuotes prices an ad-hoc cart against every enabled method
func (s *shippingService) GetShippingQuotes(ctx context.Context, req CartRequest) ([]shipping.Quote, error) {
	pricedAt := s.now()
	items := make([]shipping.Item, 0, len(req.Items))
	for _, it := range req.Items {
		p, err := s.purchasableRepo.FindByID(ctx, it.PurchasableID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: purchasable %d does not exist", ErrInvalidInput, it.PurchasableID)
			}
			return nil, fmt.Errorf("failed to fetch purchasable: %w", err)
		}

		// same price an order placed now would snapshot
		price, err := s.pricing.GetCatalogPrice(ctx, p.ID, req.UserID, pricedAt)
		if err != nil {
			return nil, err
		}

		item := shipping.Item{
			PurchasableID: p.ID,
			Qty:           it.Qty,
			Subtotal:      price.Price.Mul(decimal.NewFromInt(int64(it.Qty))),
			Weight:        p.Weight,
			Exempt:        p.HasFreeShipping || !p.IsShippable,
		}
		if p.ShippingCategoryID != nil {
			item.ShippingCategoryID = *p.ShippingCategoryID
		}
		items = append(items, item)
	}

	return s.quote(ctx, shipping.NewCart(req.Address, items))
}

// GetOrderShippingQuotes prices a stored order
func (s *shippingService) GetOrderShippingQuotes(ctx context.Context, orderID uint) ([]shipping.Quote, error) {
	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	return s.quote(ctx, shipping.CartFromOrder(*order))
}

func (s *shippingService) quote(ctx context.Context, cart shipping.Cart) ([]shipping.Quote, error) {
	ctx, span := tracer.Start(ctx, "shipping.Quote")
	defer span.End()
	span.SetAttributes(
		attribute.Int("cart.items", len(cart.Items)),
		attribute.Int("cart.qty", cart.TotalQty),
	)

	start := time.Now()
	defer func() { metric.ShippingQuoteDuration.Observe(time.Since(start).Seconds()) }()

	methods, err := s.methodRepo.ListEnabledWithRules(ctx)
	if err != nil {
		metric.ShippingQuotesTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "load shipping methods")
		return nil, fmt.Errorf("failed to load shipping methods: %w", err)
	}

	quotes, err := s.engine.Quotes(cart, methods)
	if err != nil {
		metric.ShippingQuotesTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if len(quotes) == 0 {
		metric.ShippingQuotesTotal.WithLabelValues("no_match").Inc()
		zerolog.Ctx(ctx).Info().
			Int("methods", len(methods)).
			Int("qty", cart.TotalQty).
			Str("item_total", cart.ItemTotal.String()).
			Msg("no shipping rule matched the cart")
	} else {
		metric.ShippingQuotesTotal.WithLabelValues("quoted").Inc()
	}
	span.SetAttributes(attribute.Int("quotes", len(quotes)))
	return quotes, nil
}
