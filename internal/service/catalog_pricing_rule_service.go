package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CatalogPricingRuleRequest struct {
	Name               string          `json:"name" binding:"required,max=255"`
	Description        string          `json:"description"`
	Enabled            *bool           `json:"enabled"`
	IsPromotionalPrice bool            `json:"is_promotional_price"`
	AllPurchasables    bool            `json:"all_purchasables"`
	PurchasableIDs     []uint          `json:"purchasable_ids"`
	AllGroups          bool            `json:"all_groups"`
	UserGroupIDs       []uint          `json:"user_group_ids"`
	DateFrom           *time.Time      `json:"date_from"`
	DateTo             *time.Time      `json:"date_to"`
	Apply              string          `json:"apply" binding:"required,oneof=toPercent byPercent toFlat byFlat"`
	ApplyAmount        decimal.Decimal `json:"apply_amount"`
	ApplyPriceType     string          `json:"apply_price_type" binding:"omitempty,oneof=price promotionalPrice"`
}

// RegenerationTrigger asks for an asynchronous catalog pricing rebuild
type RegenerationTrigger interface {
	Trigger()
}

type CatalogPricingRuleService interface {
	ListRules(ctx context.Context) ([]model.CatalogPricingRule, error)
	GetRule(ctx context.Context, id uint) (*model.CatalogPricingRule, error)
	CreateRule(ctx context.Context, actorID *uint, req CatalogPricingRuleRequest) (*model.CatalogPricingRule, error)
	UpdateRule(ctx context.Context, actorID *uint, id uint, req CatalogPricingRuleRequest) (*model.CatalogPricingRule, error)
	DeleteRule(ctx context.Context, actorID *uint, id uint) error
}

type catalogPricingRuleService struct {
	repo      repository.CatalogPricingRuleRepository
	groupRepo repository.UserGroupRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	cache     *RuleCache
	trigger   RegenerationTrigger
	validate  *validator.Validate
}

// NewCatalogPricingRuleService wires the rule service. trigger may be nil, in
// which case rule changes only reach catalog_pricing on the next regeneration.
func NewCatalogPricingRuleService(
	repo repository.CatalogPricingRuleRepository,
	groupRepo repository.UserGroupRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	cache *RuleCache,
	trigger RegenerationTrigger,
) CatalogPricingRuleService {
	return &catalogPricingRuleService{
		repo:      repo,
		groupRepo: groupRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		cache:     cache,
		trigger:   trigger,
		validate:  validator.New(),
	}
}

func (s *catalogPricingRuleService) ListRules(ctx context.Context) ([]model.CatalogPricingRule, error) {
	rules, err := s.cache.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog pricing rules: %w", err)
	}
	return rules, nil
}

func (s *catalogPricingRuleService) GetRule(ctx context.Context, id uint) (*model.CatalogPricingRule, error) {
	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: catalog pricing rule %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch catalog pricing rule: %w", err)
	}
	return rule, nil
}

func (s *catalogPricingRuleService) CreateRule(ctx context.Context, actorID *uint, req CatalogPricingRuleRequest) (*model.CatalogPricingRule, error) {
	rule := &model.CatalogPricingRule{}
	applyCatalogRuleRequest(rule, req)
	if err := s.validateRule(ctx, rule); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, rule); err != nil {
			return fmt.Errorf("failed to create catalog pricing rule: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionCreateCatalogPricingRule, rule.ID, rule.Name, req)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, rule.ID)
	return rule, nil
}

func (s *catalogPricingRuleService) UpdateRule(ctx context.Context, actorID *uint, id uint, req CatalogPricingRuleRequest) (*model.CatalogPricingRule, error) {
	rule, err := s.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}

	applyCatalogRuleRequest(rule, req)
	if err := s.validateRule(ctx, rule); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, rule); err != nil {
			return fmt.Errorf("failed to update catalog pricing rule: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionUpdateCatalogPricingRule, rule.ID, rule.Name, req)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, rule.ID)
	return rule, nil
}

func (s *catalogPricingRuleService) DeleteRule(ctx context.Context, actorID *uint, id uint) error {
	rule, err := s.GetRule(ctx, id)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete catalog pricing rule: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionDeleteCatalogPricingRule, rule.ID, rule.Name, map[string]bool{"deleted": true})
	})
	if err != nil {
		return err
	}

	s.afterCommit(ctx, id)
	return nil
}

func (s *catalogPricingRuleService) afterCommit(ctx context.Context, ruleID uint) {
	s.cache.Invalidate()
	if s.trigger != nil {
		s.trigger.Trigger()
	}
	zerolog.Ctx(ctx).Debug().Uint("rule_id", ruleID).Msg("catalog pricing rules changed")
}

// validateRule reports malformed rules at save time so generation can assume
// every stored rule is well formed.
func (s *catalogPricingRuleService) validateRule(ctx context.Context, rule *model.CatalogPricingRule) error {
	if err := s.validate.Struct(rule); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !rule.AllPurchasables && len(rule.PurchasableIDs) == 0 {
		return fmt.Errorf("%w: a rule must target all purchasables or list at least one", ErrInvalidInput)
	}
	if !rule.AllGroups && len(rule.UserGroupIDs) == 0 {
		return fmt.Errorf("%w: a rule must target all groups or list at least one", ErrInvalidInput)
	}
	if rule.DateFrom != nil && rule.DateTo != nil && rule.DateFrom.After(*rule.DateTo) {
		return fmt.Errorf("%w: date_from is after date_to", ErrInvalidInput)
	}
	if rule.ApplyAmount.IsNegative() {
		return fmt.Errorf("%w: apply_amount must not be negative", ErrInvalidInput)
	}
	if rule.Apply == model.ApplyByPercent && rule.ApplyAmount.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: a byPercent amount is a fraction between 0 and 1", ErrInvalidInput)
	}

	if !rule.AllGroups {
		count, err := s.groupRepo.CountByIDs(ctx, rule.UserGroupIDs)
		if err != nil {
			return fmt.Errorf("failed to check user groups: %w", err)
		}
		if count != int64(len(rule.UserGroupIDs)) {
			return fmt.Errorf("%w: one or more user groups do not exist", ErrInvalidInput)
		}
	}
	return nil
}

func applyCatalogRuleRequest(rule *model.CatalogPricingRule, req CatalogPricingRuleRequest) {
	rule.Name = req.Name
	rule.Description = req.Description
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	} else if rule.ID == 0 {
		rule.Enabled = true
	}
	rule.IsPromotionalPrice = req.IsPromotionalPrice
	rule.AllPurchasables = req.AllPurchasables
	rule.PurchasableIDs = nil
	if !req.AllPurchasables {
		rule.PurchasableIDs = uniqueIDs(req.PurchasableIDs)
	}
	rule.AllGroups = req.AllGroups
	rule.UserGroupIDs = nil
	if !req.AllGroups {
		rule.UserGroupIDs = uniqueIDs(req.UserGroupIDs)
	}
	rule.DateFrom = utcPtr(req.DateFrom)
	rule.DateTo = utcPtr(req.DateTo)
	rule.Apply = req.Apply
	rule.ApplyAmount = req.ApplyAmount
	rule.ApplyPriceType = req.ApplyPriceType
	if rule.ApplyPriceType == "" {
		rule.ApplyPriceType = model.ApplyPriceTypePrice
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
