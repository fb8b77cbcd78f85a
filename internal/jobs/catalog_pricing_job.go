package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/service"

	"github.com/robfig/cron/v3"
	zlog "github.com/rs/zerolog/log"
)

// CatalogPricingJob regenerates catalog pricing on a cron schedule, so rules
// whose window opens or closes take effect without a manual trigger, and
// on demand after rule changes.
type CatalogPricingJob struct {
	service  service.CatalogPricingService
	schedule string
	atomic   bool
	timeout  time.Duration

	// retryDelay is how long a trigger that found the lock taken waits
	// before asking again.
	retryDelay time.Duration

	cron    *cron.Cron
	trigger chan struct{}
}

func NewCatalogPricingJob(svc service.CatalogPricingService, schedule string, atomic bool) *CatalogPricingJob {
	return &CatalogPricingJob{
		service:    svc,
		schedule:   schedule,
		atomic:     atomic,
		timeout:    30 * time.Minute,
		retryDelay: 5 * time.Second,
		cron:       cron.New(),
		trigger:    make(chan struct{}, 1),
	}
}

// Start registers the schedule and begins serving triggers until ctx is done
func (j *CatalogPricingJob) Start(ctx context.Context) error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.run(ctx, "schedule") }); err != nil {
		return fmt.Errorf("invalid catalog pricing schedule %q: %w", j.schedule, err)
	}
	j.cron.Start()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-j.trigger:
				j.run(ctx, "trigger")
			}
		}
	}()

	zlog.Info().Str("schedule", j.schedule).Msg("catalog pricing job started")
	return nil
}

// Stop halts the schedule and waits for a running regeneration to finish
func (j *CatalogPricingJob) Stop() {
	<-j.cron.Stop().Done()
}

// Trigger requests a regeneration. Requests made while one is already
// pending collapse into it.
func (j *CatalogPricingJob) Trigger() {
	select {
	case j.trigger <- struct{}{}:
	default:
	}
}

func (j *CatalogPricingJob) run(parent context.Context, source string) {
	ctx, cancel := context.WithTimeout(parent, j.timeout)
	defer cancel()

	logger := zlog.With().Str("job", "catalog_pricing").Str("source", source).Logger()
	ctx = logger.WithContext(ctx)

	if _, err := j.service.Generate(ctx, service.GenerateOptions{Atomic: j.atomic}); err != nil {
		if errors.Is(err, service.ErrGenerationInProgress) {
			// the running pass may have loaded rules before the change that
			// fired this trigger, so a triggered run has to happen after it
			if source == "trigger" {
				logger.Info().Dur("retry_in", j.retryDelay).Msg("another regeneration is running, retrying")
				j.retryLater(parent)
				return
			}
			logger.Info().Msg("skipped, another regeneration is running")
			return
		}
		logger.Error().Err(err).Msg("scheduled catalog pricing regeneration failed")
	}
}

func (j *CatalogPricingJob) retryLater(ctx context.Context) {
	timer := time.NewTimer(j.retryDelay)
	go func() {
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			j.Trigger()
		}
	}()
}
