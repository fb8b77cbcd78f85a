package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchasableRequest struct {
	SKU                  string              `json:"sku" binding:"required,max=100"`
	Description          string              `json:"description" binding:"required,max=255"`
	BasePrice            decimal.Decimal     `json:"base_price"`
	BasePromotionalPrice decimal.NullDecimal `json:"base_promotional_price"`
	Weight               decimal.Decimal     `json:"weight"`
	ShippingCategoryID   *uint               `json:"shipping_category_id"`
	IsShippable          *bool               `json:"is_shippable"`
	HasFreeShipping      bool                `json:"has_free_shipping"`
}

type PurchasableService interface {
	ListPurchasables(ctx context.Context, page, limit int, search string) ([]model.Purchasable, int64, error)
	GetPurchasable(ctx context.Context, id uint) (*model.Purchasable, error)
	CreatePurchasable(ctx context.Context, actorID *uint, req PurchasableRequest) (*model.Purchasable, error)
	UpdatePurchasable(ctx context.Context, actorID *uint, id uint, req PurchasableRequest) (*model.Purchasable, error)
	DeletePurchasable(ctx context.Context, actorID *uint, id uint) error
}

type purchasableService struct {
	repo         repository.PurchasableRepository
	categoryRepo repository.ShippingCategoryRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewPurchasableService(
	repo repository.PurchasableRepository,
	categoryRepo repository.ShippingCategoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) PurchasableService {
	return &purchasableService{
		repo:         repo,
		categoryRepo: categoryRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

func (s *purchasableService) ListPurchasables(ctx context.Context, page, limit int, search string) ([]model.Purchasable, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, page, limit, search)
}

func (s *purchasableService) GetPurchasable(ctx context.Context, id uint) (*model.Purchasable, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: purchasable %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch purchasable: %w", err)
	}
	return p, nil
}

func (s *purchasableService) CreatePurchasable(ctx context.Context, actorID *uint, req PurchasableRequest) (*model.Purchasable, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindBySKU(ctx, req.SKU); err == nil {
		return nil, fmt.Errorf("%w: sku %q already exists", ErrConflict, req.SKU)
	}

	p := &model.Purchasable{}
	applyPurchasableRequest(p, req)

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, p); err != nil {
			return fmt.Errorf("failed to create purchasable: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionCreatePurchasable, p.ID, p.SKU, req)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *purchasableService) UpdatePurchasable(ctx context.Context, actorID *uint, id uint, req PurchasableRequest) (*model.Purchasable, error) {
	p, err := s.GetPurchasable(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}
	if req.SKU != p.SKU {
		if _, err := s.repo.FindBySKU(ctx, req.SKU); err == nil {
			return nil, fmt.Errorf("%w: sku %q already exists", ErrConflict, req.SKU)
		}
	}

	applyPurchasableRequest(p, req)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, p); err != nil {
			return fmt.Errorf("failed to update purchasable: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionUpdatePurchasable, p.ID, p.SKU, req)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *purchasableService) DeletePurchasable(ctx context.Context, actorID *uint, id uint) error {
	p, err := s.GetPurchasable(ctx, id)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete purchasable: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionDeletePurchasable, p.ID, p.SKU, map[string]bool{"deleted": true})
	})
}

func (s *purchasableService) validate(ctx context.Context, req PurchasableRequest) error {
	if req.BasePrice.IsNegative() {
		return fmt.Errorf("%w: base_price must not be negative", ErrInvalidInput)
	}
	if req.BasePromotionalPrice.Valid && req.BasePromotionalPrice.Decimal.IsNegative() {
		return fmt.Errorf("%w: base_promotional_price must not be negative", ErrInvalidInput)
	}
	if req.Weight.IsNegative() {
		return fmt.Errorf("%w: weight must not be negative", ErrInvalidInput)
	}
	if req.ShippingCategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *req.ShippingCategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: shipping category %d does not exist", ErrInvalidInput, *req.ShippingCategoryID)
			}
			return fmt.Errorf("failed to check shipping category: %w", err)
		}
	}
	return nil
}

func applyPurchasableRequest(p *model.Purchasable, req PurchasableRequest) {
	p.SKU = req.SKU
	p.Description = req.Description
	p.BasePrice = req.BasePrice
	p.BasePromotionalPrice = req.BasePromotionalPrice
	p.Weight = req.Weight
	p.ShippingCategoryID = req.ShippingCategoryID
	p.IsShippable = req.IsShippable == nil || *req.IsShippable
	p.HasFreeShipping = req.HasFreeShipping
}
