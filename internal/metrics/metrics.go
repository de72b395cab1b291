package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ModelFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitewind_model_fetches_total",
			Help: "Total weather model endpoint fetches",
		},
		[]string{"model", "status"},
	)

	ModelFetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kitewind_model_fetch_latency_seconds",
			Help:    "Weather model fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	ForecastCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitewind_forecast_cache_lookups_total",
			Help: "Forecast cache lookups by outcome",
		},
		[]string{"result"},
	)

	BlendsComputedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitewind_blends_computed_total",
			Help: "Ensemble blends computed",
		},
		[]string{"granularity"},
	)

	TideFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitewind_tide_fetches_total",
			Help: "Outbound tide extremes fetches by outcome",
		},
		[]string{"status"},
	)

	TideResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitewind_tide_resolutions_total",
			Help: "Tide data resolutions by source",
		},
		[]string{"source"},
	)
)
