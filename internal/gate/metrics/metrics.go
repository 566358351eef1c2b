// Package metrics exposes Prometheus instrumentation for the gate.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/gate/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tokengate"

// Metrics owns every collector and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	authorizations       *prometheus.CounterVec
	authorizationLatency *prometheus.HistogramVec
	httpRequests         *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
	housekeepingCleared  prometheus.Counter
}

// New registers all collectors on reg. A nil reg gets a fresh registry with
// the Go runtime and process collectors.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
		if err := register(reg,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		); err != nil {
			return nil, err
		}
	}

	m := &Metrics{
		registry: reg,
		authorizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorizations_total",
			Help:      "Authorization decisions by outcome and rejection reason.",
		}, []string{"decision", "reason"}),
		authorizationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "authorization_duration_seconds",
			Help:      "Time spent extracting, verifying and rotating credentials.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"decision"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		housekeepingCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "housekeeping_sessions_cleared_total",
			Help:      "Expired refresh sessions cleared by housekeeping.",
		}),
	}

	if err := register(reg,
		m.authorizations,
		m.authorizationLatency,
		m.httpRequests,
		m.httpDuration,
		m.housekeepingCleared,
	); err != nil {
		return nil, err
	}

	return m, nil
}

func register(reg prometheus.Registerer, cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("metrics: register: %w", err)
		}
	}
	return nil
}

// ObserveAuthorization implements service.Recorder.
func (m *Metrics) ObserveAuthorization(decision domain.Decision, reason string, elapsed time.Duration) {
	if reason == "" {
		reason = "none"
	}
	m.authorizations.WithLabelValues(decision.String(), reason).Inc()
	m.authorizationLatency.WithLabelValues(decision.String()).Observe(elapsed.Seconds())
}

// ObserveHousekeeping records sessions cleared in one housekeeping run.
func (m *Metrics) ObserveHousekeeping(cleared int64) {
	m.housekeepingCleared.Add(float64(cleared))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware counts requests by the ServeMux pattern that matched. It must
// wrap the mux directly so the pattern is visible after dispatch.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
