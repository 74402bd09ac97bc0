package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Premium calculation metrics
	CalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "premium_calculations_total",
			Help: "Total number of premium calculations",
		},
		[]string{"status"},
	)

	CalculationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "premium_calculation_duration_seconds",
			Help:    "Premium calculation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	MonthlyPremiumAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "premium_monthly_amount",
			Help:    "Distribution of computed monthly premiums",
			Buckets: []float64{1000, 5000, 10000, 50000, 100000, 500000, 1000000},
		},
	)

	// Formula evaluator metrics
	FormulaEvalErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formula_eval_errors_total",
			Help: "Total number of formula evaluation failures",
		},
		[]string{"kind"},
	)

	// Linkage metrics
	PrimarySwapConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "primary_link_swap_conflicts_total",
			Help: "Total number of primary link swap version conflicts",
		},
	)

	// Cache metrics
	CacheHit = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "config_cache_hit_total",
			Help: "Total number of rule/catalog cache hits",
		},
		[]string{"kind"},
	)

	CacheMiss = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "config_cache_miss_total",
			Help: "Total number of rule/catalog cache misses",
		},
		[]string{"kind"},
	)

	// Database metrics
	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "database_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// RecordCalculation records the outcome and duration of one calculation
func RecordCalculation(status string, duration time.Duration) {
	CalculationsTotal.WithLabelValues(status).Inc()
	CalculationDuration.Observe(duration.Seconds())
}

// RecordHTTPRequest records metrics for an HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
