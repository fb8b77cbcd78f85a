package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGenerator struct {
	calls  atomic.Int32
	atomic atomic.Bool

	// busy is the number of leading calls that find the lock taken
	busy int32
}

func (g *countingGenerator) Generate(ctx context.Context, opts service.GenerateOptions) (service.GenerateResult, error) {
	n := g.calls.Add(1)
	g.atomic.Store(opts.Atomic)
	if n <= g.busy {
		return service.GenerateResult{}, service.ErrGenerationInProgress
	}
	return service.GenerateResult{}, nil
}

func (g *countingGenerator) GetCatalogPrice(ctx context.Context, purchasableID uint, userID *uint, at time.Time) (service.CatalogPriceResponse, error) {
	return service.CatalogPriceResponse{}, nil
}

func TestCatalogPricingJob_TriggerRunsGeneration(t *testing.T) {
	gen := &countingGenerator{}
	job := NewCatalogPricingJob(gen, "@every 1h", true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, job.Start(ctx))
	defer job.Stop()

	job.Trigger()
	assert.Eventually(t, func() bool { return gen.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, gen.atomic.Load())
}

func TestCatalogPricingJob_InvalidSchedule(t *testing.T) {
	job := NewCatalogPricingJob(&countingGenerator{}, "not a schedule", false)
	err := job.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a schedule")
}

func TestCatalogPricingJob_TriggerCoalesces(t *testing.T) {
	job := NewCatalogPricingJob(&countingGenerator{}, "@hourly", false)
	// nothing consumes the channel before Start, so only one request is kept
	job.Trigger()
	job.Trigger()
	job.Trigger()
	assert.Len(t, job.trigger, 1)
}

func TestCatalogPricingJob_TriggerRetriesWhileBusy(t *testing.T) {
	gen := &countingGenerator{busy: 2}
	job := NewCatalogPricingJob(gen, "@hourly", false)
	job.retryDelay = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, job.Start(ctx))
	defer job.Stop()

	job.Trigger()
	assert.Eventually(t, func() bool { return gen.calls.Load() == 3 }, 2*time.Second, 5*time.Millisecond)

	// once a run succeeds nothing is re-armed
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(3), gen.calls.Load())
}
