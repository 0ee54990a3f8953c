// Package metrics provides Prometheus metrics for the HTTP surface, the
// upstream registry client and the fallback cascade.
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen since last cleanup)",
		},
	)

	UpstreamRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Calls made to the drug registry, by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Drug registry call latency, retries included",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"operation"},
	)

	CascadeAttemptTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_attempts_total",
			Help: "Fallback cascade steps executed, by search mode, step and outcome",
		},
		[]string{"mode", "step", "outcome"},
	)

	CascadeAcceptedStep = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_accepted_step_total",
			Help: "Cascade runs by the step whose results were accepted (none when exhausted)",
		},
		[]string{"mode", "step"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(UpstreamRequestTotals)
	prometheus.MustRegister(UpstreamRequestDuration)
	prometheus.MustRegister(CascadeAttemptTotals)
	prometheus.MustRegister(CascadeAcceptedStep)
}
