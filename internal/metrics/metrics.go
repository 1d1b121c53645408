// Package metrics provides Prometheus metrics for razord.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Thumbnail cache
	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "razord_cache_lookups_total",
			Help: "Thumbnail cache lookups by kind and result",
		},
		[]string{"kind", "result"},
	)

	cacheWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "razord_cache_write_failures_total",
			Help: "Thumbnail cache writes that failed and were skipped",
		},
		[]string{"kind"},
	)

	// Heavy-operation gate
	gateInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "razord_gate_permits_in_use",
			Help: "Heavy-operation permits currently held",
		},
	)

	gateWaiters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "razord_gate_waiters",
			Help: "Callers blocked waiting for a heavy-operation permit",
		},
	)

	// Previews
	previewResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "razord_preview_results_total",
			Help: "Preview requests by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	previewDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "razord_preview_generate_duration_seconds",
			Help:    "Time spent generating an uncached preview",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// Icons
	iconLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "razord_icon_lookups_total",
			Help: "Icon cache lookups by result",
		},
		[]string{"result"},
	)

	// Mutations
	opsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "razord_ops_total",
			Help: "Filesystem mutations by operation and status",
		},
		[]string{"op", "status"},
	)

	// HTTP
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "razord_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "razord_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	watchersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "razord_watch_streams_active",
			Help: "Open directory watch streams",
		},
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(kind, result).Inc()
}

func RecordCacheWriteFailure(kind string) {
	cacheWriteFailures.WithLabelValues(kind).Inc()
}

func SetGateInUse(n int) {
	gateInUse.Set(float64(n))
}

func SetGateWaiters(n int) {
	gateWaiters.Set(float64(n))
}

// Preview outcomes.
const (
	OutcomeCached      = "cached"
	OutcomeGenerated   = "generated"
	OutcomeNone        = "none"
	OutcomeError       = "error"
	OutcomeUnsupported = "unsupported"
)

func RecordPreview(kind, outcome string) {
	previewResults.WithLabelValues(kind, outcome).Inc()
}

func ObservePreviewDuration(kind string, d time.Duration) {
	previewDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func RecordIconLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	iconLookups.WithLabelValues(result).Inc()
}

func RecordOp(op string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	opsTotal.WithLabelValues(op, status).Inc()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func IncWatchStreams() { watchersActive.Inc() }
func DecWatchStreams() { watchersActive.Dec() }
