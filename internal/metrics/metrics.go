package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the node's Prometheus collectors. Construct once per
// process; collectors register on the default registry, which the http
// api serves at /metrics.
type Metrics struct {
	// Applied instructions by opcode name
	instructions *prometheus.CounterVec

	// Rejected instructions by opcode name
	failures *prometheus.CounterVec

	// Index of the active guardian set
	guardianSetIndex prometheus.Gauge

	// Execution time of the last instruction in milliseconds
	executionTime prometheus.Gauge
}

// New creates and registers the node's collectors under the namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		instructions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instructions_total",
			Help:      "Applied instructions by opcode",
		}, []string{"op"}),
		failures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instruction_failures_total",
			Help:      "Rejected instructions by opcode",
		}, []string{"op"}),
		guardianSetIndex: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "guardian_set_index",
			Help:      "Index of the active guardian set",
		}),
		executionTime: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_execution_time",
			Help:      "Execution time of the last instruction in milliseconds",
		}),
	}
}

// Applied records a successfully applied instruction.
func (m *Metrics) Applied(op string, elapsedMS float64) {
	m.instructions.WithLabelValues(op).Inc()
	m.executionTime.Set(elapsedMS)
}

// Failed records a rejected instruction.
func (m *Metrics) Failed(op string) {
	m.failures.WithLabelValues(op).Inc()
}

// SetGuardianSetIndex records the active guardian set index.
func (m *Metrics) SetGuardianSetIndex(index uint32) {
	m.guardianSetIndex.Set(float64(index))
}
