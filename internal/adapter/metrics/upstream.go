package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Probe outcomes.
const (
	OutcomeRedirect         = "redirect"
	OutcomeDirect           = "direct"
	OutcomeNoLocation       = "no_location"
	OutcomeUnexpectedStatus = "unexpected_status"
	OutcomeUnreachable      = "unreachable"
)

// UpstreamMetrics tracks probes against channel base URLs.
type UpstreamMetrics struct {
	ProbesTotal   *prometheus.CounterVec
	ProbeDuration *prometheus.HistogramVec
}

// NewUpstreamMetrics creates and registers upstream probe metrics on the given registry.
func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	m := &UpstreamMetrics{
		ProbesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "probes_total",
			Help:      "Total number of upstream probes, by outcome.",
		}, []string{"outcome"}),
		ProbeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "probe_duration_seconds",
			Help:      "Duration of upstream probes in seconds, by outcome.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.ProbesTotal, m.ProbeDuration)
	return m
}

// Observe records one finished probe.
func (m *UpstreamMetrics) Observe(outcome string, d time.Duration) {
	m.ProbesTotal.WithLabelValues(outcome).Inc()
	m.ProbeDuration.WithLabelValues(outcome).Observe(d.Seconds())
}
