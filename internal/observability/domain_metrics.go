package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	askRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdata_ask_requests_total",
			Help: "Total number of ask attempts by outcome.",
		},
		[]string{"outcome"},
	)
	guardRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdata_guard_rejections_total",
			Help: "Total number of guard rejection codes observed.",
		},
		[]string{"code"},
	)
	queryDurationMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdata_query_duration_ms",
			Help:    "Guarded query execution latency in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 20000},
		},
	)
	auditWriteFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdata_audit_write_failures_total",
			Help: "Total number of audit records that could not be persisted.",
		},
	)
	schemaCacheRefreshTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdata_schema_cache_refresh_total",
			Help: "Total number of schema text cache refreshes.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		askRequestsTotal,
		guardRejectionsTotal,
		queryDurationMs,
		auditWriteFailuresTotal,
		schemaCacheRefreshTotal,
	)
}

func ObserveAskOutcome(outcome string) {
	askRequestsTotal.WithLabelValues(outcome).Inc()
}

func ObserveGuardRejection(code string) {
	guardRejectionsTotal.WithLabelValues(code).Inc()
}

func ObserveQueryDuration(elapsed time.Duration) {
	queryDurationMs.Observe(float64(elapsed.Milliseconds()))
}

func IncrementAuditWriteFailure() {
	auditWriteFailuresTotal.Inc()
}

func IncrementSchemaCacheRefresh() {
	schemaCacheRefreshTotal.Inc()
}
