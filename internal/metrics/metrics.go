// Package metrics exposes engine, sweeper and reconciliation measurements to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/assignment"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dispatch"

var _ commands.Metrics = (*Metrics)(nil)

// Metrics implements commands.Metrics on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	AttemptsTotal      *prometheus.CounterVec
	AttemptDuration    *prometheus.HistogramVec
	TransitionsTotal   *prometheus.CounterVec
	LeasesExpiredTotal prometheus.Counter
	SweepDuration      prometheus.Histogram
	LedgerRepairsTotal prometheus.Counter
}

// New registers all collectors on a fresh registry. Go runtime and process
// collectors are included when withRuntime is set.
func New(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		AttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignment_attempts_total",
			Help:      "Assignment attempts by outcome.",
		}, []string{"outcome"}),
		AttemptDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assignment_attempt_duration_seconds",
			Help:      "Duration of assignment attempts, from candidate search to reservation.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"outcome"}),
		TransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignment_transitions_total",
			Help:      "Committed assignment status transitions.",
		}, []string{"from", "to"}),
		LeasesExpiredTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leases_expired_total",
			Help:      "Leases reclaimed by the timeout sweeper.",
		}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lease_sweep_duration_seconds",
			Help:      "Duration of timeout sweeper passes.",
			Buckets:   prometheus.DefBuckets,
		}),
		LedgerRepairsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capacity_ledger_repairs_total",
			Help:      "Partner capacity rows rewritten by reconciliation.",
		}),
	}
}

func (m *Metrics) ObserveAttempt(outcome string, duration time.Duration) {
	m.AttemptsTotal.WithLabelValues(outcome).Inc()
	m.AttemptDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *Metrics) ObserveTransition(from, to assignment.Status) {
	m.TransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
}

func (m *Metrics) ObserveSweep(expired int, duration time.Duration) {
	m.LeasesExpiredTotal.Add(float64(expired))
	m.SweepDuration.Observe(duration.Seconds())
}

func (m *Metrics) ObserveReconcile(repaired int) {
	m.LedgerRepairsTotal.Add(float64(repaired))
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
