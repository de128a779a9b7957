package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the certificate subsystem.
type Metrics struct {
	Issued        prometheus.Counter
	IDCollisions  prometheus.Counter
	Verifications *prometheus.CounterVec
}

// New creates and registers all certificate metrics.
func New() *Metrics {
	return &Metrics{
		Issued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cleargate_certificates_issued_total",
			Help: "Certificates successfully issued",
		}),
		IDCollisions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cleargate_certificate_id_collisions_total",
			Help: "Certificate ID collisions that forced a re-mint",
		}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cleargate_certificate_verifications_total",
			Help: "Verification attempts by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementIssued() {
	if m == nil {
		return
	}
	m.Issued.Inc()
}

func (m *Metrics) IncrementIDCollisions() {
	if m == nil {
		return
	}
	m.IDCollisions.Inc()
}

func (m *Metrics) ObserveVerification(outcome string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(outcome).Inc()
}
