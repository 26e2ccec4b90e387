package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the relay.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	deliveriesTotal   *prometheus.CounterVec
	customersResolved *prometheus.CounterVec
	lookupFallbacks   prometheus.Counter
}

// NewMetrics initialises the registry and the base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leapbridge_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leapbridge_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leapbridge_deliveries_total",
		Help: "Webhook deliveries by payload shape and outcome.",
	}, []string{"shape", "outcome"})
	resolved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leapbridge_customers_resolved_total",
		Help: "Customer resolutions split by created versus matched.",
	}, []string{"result"})
	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leapbridge_customer_lookup_fallbacks_total",
		Help: "Customer lookups that failed and fell through to creation.",
	})
	registry.MustRegister(requests, duration, deliveries, resolved, fallbacks)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		deliveriesTotal:   deliveries,
		customersResolved: resolved,
		lookupFallbacks:   fallbacks,
	}
}

// Handler returns the http.Handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
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

// ObserveDelivery counts one processed webhook delivery.
func (m *Metrics) ObserveDelivery(shape, outcome string) {
	if m == nil {
		return
	}
	m.deliveriesTotal.WithLabelValues(shape, outcome).Inc()
}

// CustomerResolved counts one customer resolution.
func (m *Metrics) CustomerResolved(created bool) {
	if m == nil {
		return
	}
	result := "matched"
	if created {
		result = "created"
	}
	m.customersResolved.WithLabelValues(result).Inc()
}

// LookupFallback counts one failed lookup that fell through to creation.
func (m *Metrics) LookupFallback() {
	if m == nil {
		return
	}
	m.lookupFallbacks.Inc()
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
