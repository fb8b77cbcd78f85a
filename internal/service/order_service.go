package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderLineRequest struct {
	PurchasableID uint `json:"purchasable_id" binding:"required"`
	Qty           int  `json:"qty" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	Email                      string             `json:"email" binding:"omitempty,email"`
	ShippingCountryCode        string             `json:"shipping_country_code" binding:"omitempty,len=2"`
	ShippingAdministrativeArea string             `json:"shipping_administrative_area"`
	ShippingZipCode            string             `json:"shipping_zip_code"`
	Items                      []OrderLineRequest `json:"items" binding:"required,min=1,dive"`
}

type OrderService interface {
	CreateOrder(ctx context.Context, userID *uint, req CreateOrderRequest) (*model.Order, error)
	GetOrder(ctx context.Context, id uint) (*model.Order, error)
}

type orderService struct {
	orderRepo       repository.OrderRepository
	purchasableRepo repository.PurchasableRepository
	pricing         CatalogPricingService
	txManager       repository.TransactionManager
	now             func() time.Time
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	purchasableRepo repository.PurchasableRepository,
	pricing CatalogPricingService,
	txManager repository.TransactionManager,
) OrderService {
	return &orderService{
		orderRepo:       orderRepo,
		purchasableRepo: purchasableRepo,
		pricing:         pricing,
		txManager:       txManager,
		now:             time.Now,
	}
}

// CreateOrder snapshots price, weight and shipping attributes of each
// purchasable onto the line items so later catalog edits do not change the order.
func (s *orderService) CreateOrder(ctx context.Context, userID *uint, req CreateOrderRequest) (*model.Order, error) {
	order := &model.Order{
		Number:                     uuid.NewString(),
		Email:                      req.Email,
		UserID:                     userID,
		ShippingCountryCode:        req.ShippingCountryCode,
		ShippingAdministrativeArea: req.ShippingAdministrativeArea,
		ShippingZipCode:            req.ShippingZipCode,
	}

	pricedAt := s.now()
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, line := range req.Items {
			p, err := s.purchasableRepo.FindByID(txCtx, line.PurchasableID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: purchasable %d does not exist", ErrInvalidInput, line.PurchasableID)
				}
				return fmt.Errorf("failed to fetch purchasable %d: %w", line.PurchasableID, err)
			}

			price, err := s.pricing.GetCatalogPrice(txCtx, p.ID, userID, pricedAt)
			if err != nil {
				return err
			}

			purchasableID := p.ID
			order.LineItems = append(order.LineItems, model.LineItem{
				PurchasableID:      &purchasableID,
				Description:        p.Description,
				Qty:                line.Qty,
				Price:              price.Price,
				Subtotal:           price.Price.Mul(decimal.NewFromInt(int64(line.Qty))),
				Weight:             p.Weight,
				ShippingCategoryID: p.ShippingCategoryID,
				Shippable:          p.IsShippable,
				FreeShipping:       p.HasFreeShipping,
			})
		}

		if err := s.orderRepo.Create(txCtx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByIDWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	return order, nil
}
