package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the Prometheus metrics exposed on /metrics.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	calculations    *prometheus.CounterVec
	rejected        *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
}

// NewMetrics initialises the registry and the base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taxengine_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taxengine_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	calculations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taxengine_calculations_total",
		Help: "Completed tax calculations by jurisdiction and condition.",
	}, []string{"jurisdiction", "condition"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taxengine_rejected_carts_total",
		Help: "Carts rejected by validation, by jurisdiction.",
	}, []string{"jurisdiction"})
	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taxengine_cache_lookups_total",
		Help: "Result cache lookups by outcome.",
	}, []string{"outcome"})
	registry.MustRegister(requests, duration, calculations, rejected, cacheLookups)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		calculations:    calculations,
		rejected:        rejected,
		cacheLookups:    cacheLookups,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency per route.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// CalculationDone counts a successful calculation.
func (m *Metrics) CalculationDone(jurisdiction, condition string) {
	if m == nil {
		return
	}
	m.calculations.WithLabelValues(jurisdiction, condition).Inc()
}

// CartRejected counts a cart that failed validation.
func (m *Metrics) CartRejected(jurisdiction string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(jurisdiction).Inc()
}

// CacheLookup counts a result cache lookup; outcome is hit, miss or error.
func (m *Metrics) CacheLookup(outcome string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(outcome).Inc()
}

// Registerer exposes the registry for custom metrics.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// Gatherer exposes the registry for reading collected metrics.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.DefaultGatherer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
