package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ShippingQuotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "shipping",
		Name:      "quotes_total",
		Help:      "Shipping quote requests by outcome",
	}, []string{"result"}) // quoted / no_match / error

	ShippingQuoteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: "shipping",
		Name:      "quote_duration_seconds",
		Help:      "Time spent matching rules and computing rates",
		Buckets:   prometheus.DefBuckets,
	})

	CatalogPricingRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "catalog_pricing",
		Name:      "generations_total",
		Help:      "Catalog pricing regenerations by status",
	}, []string{"status"}) // success / error / busy

	CatalogPricingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: "catalog_pricing",
		Name:      "generation_duration_seconds",
		Help:      "Wall time of a full regeneration",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	})

	CatalogPricingRows = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "storefront",
		Subsystem: "catalog_pricing",
		Name:      "rows",
		Help:      "Rows written by the last successful regeneration",
	})

	RuleCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "catalog_pricing",
		Name:      "rule_cache_lookups_total",
		Help:      "Rule cache lookups",
	}, []string{"result"}) // hit / miss
)
