package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "abacus",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "abacus",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "abacus",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path"},
	)

	calculationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "abacus",
			Subsystem: "history",
			Name:      "calculations_created_total",
			Help:      "Total number of calculations recorded.",
		},
	)

	calculationsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "abacus",
			Subsystem: "history",
			Name:      "calculations_deleted_total",
			Help:      "Total number of calculations removed by history clears.",
		},
	)

	historyClears = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "abacus",
			Subsystem: "history",
			Name:      "clears_total",
			Help:      "Total number of history clear operations.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		calculationsCreated,
		calculationsDeleted,
		historyClears,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordCalculationCreated counts a newly stored calculation.
func RecordCalculationCreated() {
	calculationsCreated.Inc()
}

// RecordHistoryCleared counts a clear operation and the rows it removed.
func RecordHistoryCleared(deleted int64) {
	historyClears.Inc()
	if deleted > 0 {
		calculationsDeleted.Add(float64(deleted))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath keeps label cardinality bounded: frontend asset paths
// collapse to a single "/static" label.
func canonicalPath(raw string) string {
	switch {
	case raw == "/api/calculations", raw == "/healthz":
		return raw
	case raw == "/api", strings.HasPrefix(raw, "/api/"):
		return "/api/other"
	default:
		return "/static"
	}
}
