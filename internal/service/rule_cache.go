package service

import (
	"context"
	"sync"
	"time"

	"storefront/internal/metric"
	"storefront/internal/model"
	"storefront/internal/repository"
)

// RuleCache memoizes the catalog pricing rule set. Every mutation of rules
// must call Invalidate after its transaction commits.
type RuleCache struct {
	repo repository.CatalogPricingRuleRepository

	mu         sync.RWMutex
	rules      []model.CatalogPricingRule
	loaded     bool
	generation uint64
}

func NewRuleCache(repo repository.CatalogPricingRuleRepository) *RuleCache {
	return &RuleCache{repo: repo}
}

// All returns every stored rule ordered by id
func (c *RuleCache) All(ctx context.Context) ([]model.CatalogPricingRule, error) {
	c.mu.RLock()
	if c.loaded {
		out := cloneRules(c.rules)
		c.mu.RUnlock()
		metric.RuleCacheLookups.WithLabelValues("hit").Inc()
		return out, nil
	}
	gen := c.generation
	c.mu.RUnlock()

	metric.RuleCacheLookups.WithLabelValues("miss").Inc()
	rules, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	// an Invalidate that raced with the load wins; the next call reloads
	if c.generation == gen {
		c.rules = rules
		c.loaded = true
	}
	c.mu.Unlock()
	return cloneRules(rules), nil
}

// Enabled returns the rules whose enabled flag is set
func (c *RuleCache) Enabled(ctx context.Context) ([]model.CatalogPricingRule, error) {
	all, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, r := range all {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out, nil
}

// Active returns the enabled rules whose date window contains now
func (c *RuleCache) Active(ctx context.Context, now time.Time) ([]model.CatalogPricingRule, error) {
	all, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, r := range all {
		if r.IsActive(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Invalidate drops the memoized rules
func (c *RuleCache) Invalidate() {
	c.mu.Lock()
	c.rules = nil
	c.loaded = false
	c.generation++
	c.mu.Unlock()
}

func cloneRules(rules []model.CatalogPricingRule) []model.CatalogPricingRule {
	out := make([]model.CatalogPricingRule, len(rules))
	copy(out, rules)
	return out
}
