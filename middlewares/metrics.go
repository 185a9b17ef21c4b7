package middlewares

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/craghq/topo/internal"
)

// MetricsConfig configures the metrics middleware.
type MetricsConfig struct {
	Namespace  string
	Registerer prometheus.Registerer
}

// MetricsOption configures MetricsConfig.
type MetricsOption func(*MetricsConfig)

// WithMetricsNamespace sets the metric namespace prefix.
func WithMetricsNamespace(ns string) MetricsOption {
	return func(cfg *MetricsConfig) {
		cfg.Namespace = ns
	}
}

// WithMetricsRegisterer sets the Prometheus registerer. Defaults to the
// global registry.
func WithMetricsRegisterer(reg prometheus.Registerer) MetricsOption {
	return func(cfg *MetricsConfig) {
		cfg.Registerer = reg
	}
}

// Metrics returns middleware that records a request counter and a latency
// histogram. Labels use the matched route pattern rather than the raw path,
// so /sectors/{id} stays one series regardless of how many ids are visited.
func Metrics(opts ...MetricsOption) internal.Middleware {
	cfg := &MetricsConfig{
		Registerer: prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	requests := promauto.With(cfg.Registerer).NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, route, and status.",
	}, []string{"method", "route", "status"})

	duration := promauto.With(cfg.Registerer).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Route()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			status := c.ResponseWriter().Status()
			if err != nil {
				if httpErr := internal.AsHTTPError(err); httpErr != nil {
					status = httpErr.StatusCode()
				} else {
					status = 500
				}
			}

			requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
