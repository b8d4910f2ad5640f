package middleware

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vango-dev/waypoint/pkg/router"
)

// MetricsConfig configures the Prometheus plugin.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "waypoint").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for transition duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus plugin.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "waypoint",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the collectors registered against one registerer.
type metrics struct {
	transitionsTotal    *prometheus.CounterVec
	transitionDuration  *prometheus.HistogramVec
	transitionsInFlight prometheus.Gauge
	transitionErrors    *prometheus.CounterVec
}

// metricsKey identifies a collector set: plugins on one registerer share
// collectors only when their configuration matches.
type metricsKey struct {
	registry    prometheus.Registerer
	namespace   string
	subsystem   string
	constLabels string
	buckets     string
}

func keyOf(config MetricsConfig) metricsKey {
	labels := make([]string, 0, len(config.ConstLabels))
	for k, v := range config.ConstLabels {
		labels = append(labels, k+"="+v)
	}
	sort.Strings(labels)

	return metricsKey{
		registry:    config.Registry,
		namespace:   config.Namespace,
		subsystem:   config.Subsystem,
		constLabels: strings.Join(labels, ","),
		buckets:     fmt.Sprint(config.Buckets),
	}
}

var (
	registered   = map[metricsKey]*metrics{}
	registeredMu sync.Mutex
)

func metricsFor(config MetricsConfig) *metrics {
	registeredMu.Lock()
	defer registeredMu.Unlock()
	key := keyOf(config)
	if m, ok := registered[key]; ok {
		return m
	}
	m := initMetrics(config)
	registered[key] = m
	return m
}

// register registers c, or returns the collector already registered under the
// same descriptors. Histograms that differ only in buckets share the first
// registration.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func initMetrics(config MetricsConfig) *metrics {
	reg := config.Registry

	return &metrics{
		transitionsTotal: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transitions_total",
			Help:        "Total number of finished transitions by target route and status",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "status"})),

		transitionDuration: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transition_duration_seconds",
			Help:        "Transition duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"})),

		transitionsInFlight: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transitions_in_flight",
			Help:        "Number of transitions started but not yet finished",
			ConstLabels: config.ConstLabels,
		})),

		transitionErrors: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transition_errors_total",
			Help:        "Total number of failed transitions by error code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"})),
	}
}

// Metrics is a router plugin recording transition metrics.
type Metrics struct {
	m *metrics

	mu      sync.Mutex
	started map[string]time.Time
}

// Prometheus creates a plugin that collects Prometheus metrics for router
// transitions.
//
// Metrics collected:
//   - waypoint_transitions_total: Counter by route and status (success, cancelled, error)
//   - waypoint_transition_duration_seconds: Histogram of transition duration
//   - waypoint_transitions_in_flight: Gauge of running transitions
//   - waypoint_transition_errors_total: Counter of failures by error code
//
// Example:
//
//	r.Use(middleware.Prometheus(middleware.WithNamespace("myapp")))
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &Metrics{
		m:       metricsFor(config),
		started: make(map[string]time.Time),
	}
}

// Attach registers the transition listeners on r.
func (p *Metrics) Attach(r *router.Router) {
	r.OnTransitionStart(func(to, _ *router.State) {
		p.mu.Lock()
		p.started[to.ID] = time.Now()
		p.mu.Unlock()
		p.m.transitionsInFlight.Inc()
	})
	r.AddListener(func(to, _ *router.State) {
		p.finish(to, "success")
	})
	r.OnTransitionCancel(func(to, _ *router.State) {
		p.finish(to, "cancelled")
	})
	r.OnTransitionError(func(to, _ *router.State, err error) {
		code := string(router.CodeOf(err))
		if code == "" {
			code = "unknown"
		}
		p.m.transitionErrors.WithLabelValues(code).Inc()
		p.finish(to, "error")
	})
}

func (p *Metrics) finish(to *router.State, status string) {
	route := routeLabel(to)
	p.m.transitionsTotal.WithLabelValues(route, status).Inc()

	if to == nil {
		return
	}
	p.mu.Lock()
	start, ok := p.started[to.ID]
	delete(p.started, to.ID)
	p.mu.Unlock()
	if !ok {
		return
	}
	p.m.transitionDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	p.m.transitionsInFlight.Dec()
}

func routeLabel(s *router.State) string {
	if s == nil || s.Name == "" {
		return "unknown"
	}
	return s.Name
}
