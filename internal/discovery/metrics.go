package discovery

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Scan and candidate results used as metric labels.
const (
	resultCompleted = "completed"
	resultFailed    = "failed"
	resultSkipped   = "skipped"

	candidateRegistered = "registered"
	candidateKnown      = "known"
	candidateUnmatched  = "unmatched"
	candidateFailed     = "failed"
)

// Metrics counts scans and candidate outcomes.
type Metrics struct {
	scans      *prometheus.CounterVec
	candidates *prometheus.CounterVec
}

// NewMetrics creates discovery metrics and registers them with reg. A nil
// reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devicesvc",
			Subsystem: "discovery",
			Name:      "scans_total",
			Help:      "Discovery scans by result.",
		}, []string{"result"}),
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devicesvc",
			Subsystem: "discovery",
			Name:      "candidates_total",
			Help:      "Discovered candidates by outcome.",
		}, []string{"outcome"}),
	}

	var err error
	if m.scans, err = register(reg, m.scans); err != nil {
		return nil, err
	}
	if m.candidates, err = register(reg, m.candidates); err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c, reusing the existing collector when an identical one
// is already registered.
func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func (m *Metrics) scan(result string) {
	if m != nil {
		m.scans.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) candidate(outcome string) {
	if m != nil {
		m.candidates.WithLabelValues(outcome).Inc()
	}
}
