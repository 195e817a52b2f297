package reconciler

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Fan-out outcomes.
const (
	OutcomeApplied = "applied"
	OutcomeStale   = "stale"
	OutcomeFailed  = "failed"
)

// Metrics records fan-out results. A nil *Metrics records nothing.
type Metrics struct {
	results    *prometheus.CounterVec
	generation prometheus.Gauge

	mu     sync.Mutex
	latest uint64
}

// NewMetrics creates the reconciler collectors and registers them with reg
// when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orders_console",
			Name:      "fanout_results_total",
			Help:      "Items fetch results by outcome.",
		}, []string{"outcome"}),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "orders_console",
			Name:      "table_generation",
			Help:      "Current order table generation.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.results, m.generation)
	}
	return m
}

func (m *Metrics) result(outcome string) {
	if m == nil {
		return
	}
	m.results.WithLabelValues(outcome).Inc()
}

// setGeneration only moves the gauge forward; concurrent refreshes may report
// out of order.
func (m *Metrics) setGeneration(gen uint64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen <= m.latest {
		return
	}
	m.latest = gen
	m.generation.Set(float64(gen))
}
