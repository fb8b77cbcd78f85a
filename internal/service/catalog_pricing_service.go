package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"storefront/internal/catalogpricing"
	"storefront/internal/metric"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

// GenerateOptions tune a single regeneration
type GenerateOptions struct {
	// Progress receives a human readable line per written batch
	Progress io.Writer
	// Atomic wraps truncate and every insert in one transaction so readers
	// never see a partially rebuilt table
	Atomic  bool
	ActorID *uint
}

type GenerateResult struct {
	Rows         int    `json:"rows"`
	Purchasables int    `json:"purchasables"`
	ActiveRules  int    `json:"active_rules"`
	Atomic       bool   `json:"atomic"`
	StartedAt    string `json:"started_at"`
	DurationMs   int64  `json:"duration_ms"`
}

type CatalogPriceResponse struct {
	PurchasableID        uint            `json:"purchasable_id"`
	UserID               *uint           `json:"user_id"`
	Price                decimal.Decimal `json:"price"`
	IsSale               bool            `json:"is_sale"`
	IsPromotionalPrice   bool            `json:"is_promotional_price"`
	CatalogPricingRuleID *uint           `json:"catalog_pricing_rule_id"`
}

// ProgressPublisher fans generation progress out to connected clients
type ProgressPublisher interface {
	Publish(event string, data interface{})
}

// Events published while regenerating
const (
	EventCatalogPricingStarted  = "catalog_pricing.started"
	EventCatalogPricingProgress = "catalog_pricing.progress"
	EventCatalogPricingFinished = "catalog_pricing.finished"
	EventCatalogPricingFailed   = "catalog_pricing.failed"
)

type CatalogPricingService interface {
	Generate(ctx context.Context, opts GenerateOptions) (GenerateResult, error)
	GetCatalogPrice(ctx context.Context, purchasableID uint, userID *uint, at time.Time) (CatalogPriceResponse, error)
}

type catalogPricingService struct {
	pricingRepo     repository.CatalogPricingRepository
	purchasableRepo repository.PurchasableRepository
	groupRepo       repository.UserGroupRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
	rules           *RuleCache
	locker          Locker
	publisher       ProgressPublisher
	generator       catalogpricing.Generator
	batchSize       int
	now             func() time.Time
}

func NewCatalogPricingService(
	pricingRepo repository.CatalogPricingRepository,
	purchasableRepo repository.PurchasableRepository,
	groupRepo repository.UserGroupRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	rules *RuleCache,
	locker Locker,
	publisher ProgressPublisher,
	batchSize int,
) CatalogPricingService {
	if locker == nil {
		locker = NewMutexLocker()
	}
	return &catalogPricingService{
		pricingRepo:     pricingRepo,
		purchasableRepo: purchasableRepo,
		groupRepo:       groupRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
		rules:           rules,
		locker:          locker,
		publisher:       publisher,
		generator:       catalogpricing.NewGenerator(),
		batchSize:       batchSize,
		now:             time.Now,
	}
}

// Generate rebuilds catalog_pricing from the current purchasables, group
// memberships and active rules.
func (s *catalogPricingService) Generate(ctx context.Context, opts GenerateOptions) (GenerateResult, error) {
	unlock, err := s.locker.TryLock(ctx)
	if err != nil {
		if errors.Is(err, ErrGenerationInProgress) {
			metric.CatalogPricingRunsTotal.WithLabelValues("busy").Inc()
		}
		return GenerateResult{}, err
	}
	defer unlock()

	ctx, span := tracer.Start(ctx, "catalogpricing.Generate")
	defer span.End()

	logger := zerolog.Ctx(ctx)
	start := s.now()
	result := GenerateResult{Atomic: opts.Atomic, StartedAt: start.UTC().Format(time.RFC3339)}

	fail := func(err error) (GenerateResult, error) {
		metric.CatalogPricingRunsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.publish(EventCatalogPricingFailed, map[string]interface{}{"error": err.Error()})
		logger.Error().Err(err).Msg("catalog pricing generation failed")
		return result, err
	}

	purchasables, err := s.purchasableRepo.ListAll(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to load purchasables: %w", err))
	}
	memberships, err := s.groupRepo.ListMemberships(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to load user group memberships: %w", err))
	}
	rules, err := s.rules.Active(ctx, start)
	if err != nil {
		return fail(fmt.Errorf("failed to load catalog pricing rules: %w", err))
	}

	rows := s.generator.Generate(purchasables, rules, memberships, start)
	result.Rows = len(rows)
	result.Purchasables = len(purchasables)
	result.ActiveRules = len(rules)
	span.SetAttributes(
		attribute.Int("rows", result.Rows),
		attribute.Int("purchasables", result.Purchasables),
		attribute.Int("rules", result.ActiveRules),
		attribute.Bool("atomic", opts.Atomic),
	)

	s.publish(EventCatalogPricingStarted, map[string]interface{}{"total": result.Rows})
	progress := func(written, total int) {
		s.publish(EventCatalogPricingProgress, map[string]interface{}{"written": written, "total": total})
		if opts.Progress != nil {
			fmt.Fprintf(opts.Progress, "catalog pricing: %d/%d rows written\n", written, total)
		}
	}

	write := func(ctx context.Context) error {
		return catalogpricing.Write(ctx, s.pricingRepo, rows, s.batchSize, progress)
	}
	if opts.Atomic {
		err = s.txManager.RunInTx(ctx, write)
	} else {
		err = write(ctx)
	}
	if err != nil {
		return fail(err)
	}

	elapsed := s.now().Sub(start)
	result.DurationMs = elapsed.Milliseconds()

	if err := writeAudit(ctx, s.auditRepo, opts.ActorID, model.ActionGenerateCatalogPricing, 0, "catalog_pricing", result); err != nil {
		logger.Warn().Err(err).Msg("catalog pricing generated but audit log failed")
	}

	metric.CatalogPricingRunsTotal.WithLabelValues("success").Inc()
	metric.CatalogPricingDuration.Observe(elapsed.Seconds())
	metric.CatalogPricingRows.Set(float64(result.Rows))
	s.publish(EventCatalogPricingFinished, result)

	logger.Info().
		Int("rows", result.Rows).
		Int("purchasables", result.Purchasables).
		Int("rules", result.ActiveRules).
		Bool("atomic", opts.Atomic).
		Dur("elapsed", elapsed).
		Msg("catalog pricing regenerated")

	return result, nil
}

// GetCatalogPrice returns the lowest price the user pays for the purchasable
// at the given time. Without any catalog_pricing row it falls back to the
// purchasable's base price.
func (s *catalogPricingService) GetCatalogPrice(ctx context.Context, purchasableID uint, userID *uint, at time.Time) (CatalogPriceResponse, error) {
	row, err := s.pricingRepo.LowestPrice(ctx, purchasableID, userID, at)
	if err == nil {
		return CatalogPriceResponse{
			PurchasableID:        row.PurchasableID,
			UserID:               userID,
			Price:                row.Price,
			IsSale:               row.IsSale,
			IsPromotionalPrice:   row.IsPromotionalPrice,
			CatalogPricingRuleID: row.CatalogPricingRuleID,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return CatalogPriceResponse{}, fmt.Errorf("failed to query catalog pricing: %w", err)
	}

	p, err := s.purchasableRepo.FindByID(ctx, purchasableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CatalogPriceResponse{}, fmt.Errorf("%w: purchasable %d", ErrNotFound, purchasableID)
		}
		return CatalogPriceResponse{}, fmt.Errorf("failed to fetch purchasable: %w", err)
	}
	return CatalogPriceResponse{
		PurchasableID: p.ID,
		UserID:        userID,
		Price:         p.BasePrice,
	}, nil
}

func (s *catalogPricingService) publish(event string, data interface{}) {
	if s.publisher != nil {
		s.publisher.Publish(event, data)
	}
}
