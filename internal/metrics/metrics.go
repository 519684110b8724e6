// Package metrics exposes Prometheus instrumentation for the timer and
// invoice paths.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	TimerStarts    prometheus.Counter
	TimerStops     prometheus.Counter
	InvoiceSends   *prometheus.CounterVec
	Logins         *prometheus.CounterVec
	RequestSeconds *prometheus.HistogramVec
}

// New registers all collectors on the given registerer. Pass
// prometheus.DefaultRegisterer in production; a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TimerStarts: factory.NewCounter(prometheus.CounterOpts{
			Name: "stopwatch_timer_starts_total",
			Help: "Number of timing intervals opened",
		}),
		TimerStops: factory.NewCounter(prometheus.CounterOpts{
			Name: "stopwatch_timer_stops_total",
			Help: "Number of timing intervals closed",
		}),
		InvoiceSends: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stopwatch_invoice_sends_total",
			Help: "Invoice emails by delivery outcome",
		}, []string{"status"}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stopwatch_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"status"}),
		RequestSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stopwatch_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
