package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the clearance subsystem.
type Metrics struct {
	SectionUpdates      *prometheus.CounterVec
	TerminalTransitions *prometheus.CounterVec
	BulkRecords         *prometheus.CounterVec
	ClearancesStarted   prometheus.Counter
}

// New creates and registers all clearance metrics.
func New() *Metrics {
	return &Metrics{
		SectionUpdates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cleargate_section_updates_total",
			Help: "Section status updates applied, by section and resulting status",
		}, []string{"section", "status"}),
		TerminalTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cleargate_terminal_transitions_total",
			Help: "Overall status transitions into approved or rejected",
		}, []string{"outcome"}),
		BulkRecords: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cleargate_bulk_update_records_total",
			Help: "Per-record outcomes of bulk section updates",
		}, []string{"result"}),
		ClearancesStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cleargate_clearances_started_total",
			Help: "Clearance processes started",
		}),
	}
}

func (m *Metrics) ObserveSectionUpdate(section, status string) {
	if m == nil {
		return
	}
	m.SectionUpdates.WithLabelValues(section, status).Inc()
}

func (m *Metrics) ObserveTerminalTransition(outcome string) {
	if m == nil {
		return
	}
	m.TerminalTransitions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveBulkRecord(result string) {
	if m == nil {
		return
	}
	m.BulkRecords.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementClearancesStarted() {
	if m == nil {
		return
	}
	m.ClearancesStarted.Inc()
}
