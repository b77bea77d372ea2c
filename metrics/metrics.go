// Package metrics exports socket lifecycle events to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/workspace-9/zsock"
)

const namespace = "zsock"

// Bus is a zsock.EventBus that counts events. Attach it with
// zsock.WithEventBus, combined with other buses through zsock.MultiBus.
type Bus struct {
	events  *prometheus.CounterVec
	sockets *prometheus.GaugeVec
}

// NewBus creates the collectors and registers them with reg.
func NewBus(reg prometheus.Registerer) (*Bus, error) {
	b := &Bus{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Socket and context lifecycle events.",
		}, []string{"event", "role", "kind"}),
		sockets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_sockets",
			Help:      "Sockets currently open, by role.",
		}, []string{"role"}),
	}

	for _, c := range []prometheus.Collector{b.events, b.sockets} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// MustNewBus is NewBus that panics on registration errors.
func MustNewBus(reg prometheus.Registerer) *Bus {
	b, err := NewBus(reg)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Bus) Post(ev zsock.Event) {
	role := "none"
	if ev.Role != 0 {
		role = ev.Role.String()
	}
	kind := ""
	if ev.EventType == zsock.EventTypeFailed {
		kind = ev.Kind.String()
	}
	b.events.WithLabelValues(ev.EventType.String(), role, kind).Inc()

	switch ev.EventType {
	case zsock.EventTypeOpened:
		b.sockets.WithLabelValues(role).Inc()
	case zsock.EventTypeClosed:
		b.sockets.WithLabelValues(role).Dec()
	}
}
