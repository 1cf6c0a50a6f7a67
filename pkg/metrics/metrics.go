// Package metrics counts session activity with Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aretw0/tenken/pkg/core"
)

// Metrics implements core.Observer.
type Metrics struct {
	PersistenceWrites *prometheus.CounterVec
	Discarded         prometheus.Counter
	SchemaChanges     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PersistenceWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tenken_persistence_writes_total",
			Help: "Storage writes and removals by key and result",
		}, []string{"key", "result"}),
		Discarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "tenken_answers_discarded_total",
			Help: "Answers dropped because their item left the active checklist",
		}),
		SchemaChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tenken_schema_changes_total",
			Help: "Active checklist replacements by trigger",
		}, []string{"trigger"}),
	}
}

// PersistenceWrite records one storage write.
func (m *Metrics) PersistenceWrite(key string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.PersistenceWrites.WithLabelValues(key, result).Inc()
}

// AnswersDiscarded records answers removed by reconciliation.
func (m *Metrics) AnswersDiscarded(n int) {
	m.Discarded.Add(float64(n))
}

// SchemaReplaced records a checklist replacement.
func (m *Metrics) SchemaReplaced(trigger string) {
	m.SchemaChanges.WithLabelValues(trigger).Inc()
}

var _ core.Observer = (*Metrics)(nil)
