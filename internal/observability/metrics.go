package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is nil-safe: every method on a nil *Metrics is a no-op.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
	httpRejections   *prometheus.CounterVec
	xpAwarded        *prometheus.CounterVec
	levelUps         prometheus.Counter
	plantTransitions *prometheus.CounterVec
	versionConflicts *prometheus.CounterVec
	sweepRuns        *prometheus.CounterVec
	sweepItems       *prometheus.CounterVec
	sweepDuration    *prometheus.HistogramVec
}

var (
	defaultMetrics *Metrics
	metricsOnce    sync.Once
)

// DefaultMetrics returns the process-wide metrics on their own registry.
func DefaultMetrics() *Metrics {
	metricsOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.NewRegistry())
	})
	return defaultMetrics
}

// NewMetrics registers the garden metrics (prefixed garden_) on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "garden_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "garden_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "garden_http_rejections_total",
			Help: "Failed API calls by route and error code (stage_too_low, position_occupied, ...).",
		}, []string{"route", "code"}),
		xpAwarded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "garden_xp_awarded_total",
			Help: "User XP granted (positive) by activity.",
		}, []string{"activity"}),
		levelUps: f.NewCounter(prometheus.CounterOpts{
			Name: "garden_level_ups_total",
			Help: "User level-ups.",
		}),
		plantTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "garden_plant_transitions_total",
			Help: "Plant lifecycle transitions.",
		}, []string{"to"}),
		versionConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "garden_version_conflicts_total",
			Help: "Optimistic concurrency retries.",
		}, []string{"entity"}),
		sweepRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "garden_sweep_runs_total",
			Help: "Decay/harvest sweep runs by outcome.",
		}, []string{"kind", "outcome"}),
		sweepItems: f.NewCounterVec(prometheus.CounterOpts{
			Name: "garden_sweep_items_total",
			Help: "Items visited by sweeps.",
		}, []string{"kind", "result"}),
		sweepDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "garden_sweep_duration_seconds",
			Help:    "Sweep wall time.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"kind"}),
	}
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) ObserveRejection(route, code string) {
	if m == nil {
		return
	}
	m.httpRejections.WithLabelValues(route, code).Inc()
}

func (m *Metrics) XPAwarded(activity string, xp int) {
	if m == nil || xp <= 0 {
		return
	}
	m.xpAwarded.WithLabelValues(activity).Add(float64(xp))
}

func (m *Metrics) LevelUp() {
	if m == nil {
		return
	}
	m.levelUps.Inc()
}

func (m *Metrics) PlantTransition(to string) {
	if m == nil {
		return
	}
	m.plantTransitions.WithLabelValues(to).Inc()
}

func (m *Metrics) VersionConflict(entity string) {
	if m == nil {
		return
	}
	m.versionConflicts.WithLabelValues(entity).Inc()
}

func (m *Metrics) SweepItem(kind, result string) {
	if m == nil {
		return
	}
	m.sweepItems.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) SweepFinished(kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.sweepRuns.WithLabelValues(kind, outcome).Inc()
	m.sweepDuration.WithLabelValues(kind).Observe(d.Seconds())
}
