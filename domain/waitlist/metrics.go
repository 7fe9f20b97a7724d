package waitlist

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeCreated  = "created"
	outcomeExisting = "existing"
	outcomeInvalid  = "invalid"
	outcomeError    = "error"
)

// RegistrationMetrics counts Register calls by outcome. A nil value is a no-op.
type RegistrationMetrics struct {
	registrations *prometheus.CounterVec
}

// NewRegistrationMetrics returns nil when reg is nil (metrics disabled).
func NewRegistrationMetrics(reg prometheus.Registerer) *RegistrationMetrics {
	if reg == nil {
		return nil
	}

	m := &RegistrationMetrics{
		registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waitlist_registrations_total",
				Help: "Waitlist registration attempts by outcome.",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(m.registrations)
	return m
}

func (m *RegistrationMetrics) observe(outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome).Inc()
}
