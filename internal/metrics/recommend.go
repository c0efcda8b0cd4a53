package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recommendation pipeline metrics.
var (
	SourceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "courserec",
			Name:      "source_duration_seconds",
			Help:      "Signal source latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"strategy"},
	)

	SourceResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courserec",
			Name:      "source_results_total",
			Help:      "Signal source invocations by outcome",
		},
		[]string{"strategy", "status"}, // status: ok / empty / degraded
	)

	FusionFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courserec",
			Name:      "fusion_fallback_total",
			Help:      "Vector-only fallbacks taken by the rank fusion engine",
		},
		[]string{"reason"}, // connection / missing_index / query / breaker_open
	)
)

func init() {
	prometheus.MustRegister(SourceDuration, SourceResultsTotal, FusionFallbackTotal)
}

// Source status label values.
const (
	StatusOK       = "ok"
	StatusEmpty    = "empty"
	StatusDegraded = "degraded"
)

// ObserveSource records one signal source invocation.
func ObserveSource(strategy string, started time.Time, items int, err error) {
	SourceDuration.WithLabelValues(strategy).Observe(time.Since(started).Seconds())
	status := StatusOK
	switch {
	case err != nil:
		status = StatusDegraded
	case items == 0:
		status = StatusEmpty
	}
	SourceResultsTotal.WithLabelValues(strategy, status).Inc()
}
