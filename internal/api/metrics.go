package api

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/gray-logic-device/internal/callback"
)

// metrics holds the API's Prometheus collectors.
type metrics struct {
	callbacks *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	callbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devicesvc",
		Subsystem: "api",
		Name:      "callbacks_total",
		Help:      "Registry callbacks by resource kind, verb and outcome.",
	}, []string{"kind", "verb", "outcome"})

	if err := reg.Register(callbacks); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		callbacks = existing
	}
	return &metrics{callbacks: callbacks}, nil
}

// observeCallback counts one callback. Labels are bounded: unknown kinds
// and verbs are folded into "other".
func (m *metrics) observeCallback(n *callback.Notification, method, outcome string) {
	kind := "none"
	if n != nil {
		switch n.Type {
		case callback.KindDevice, callback.KindProfile, callback.KindProvisionWatcher,
			callback.KindSchedule, callback.KindScheduleEvent:
			kind = string(n.Type)
		case "":
			kind = "none"
		default:
			kind = "other"
		}
	}

	verb := method
	switch callback.Verb(method) {
	case callback.VerbGet, callback.VerbPost, callback.VerbPut, callback.VerbDelete:
	default:
		verb = "other"
	}

	m.callbacks.WithLabelValues(kind, verb, outcome).Inc()
}
