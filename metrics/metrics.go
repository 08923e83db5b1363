// Package metrics holds the prometheus collectors shared by the bridge
// components. All methods are safe to call on a nil *Metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "touchscenes"

type Metrics struct {
	packetsReceived prometheus.Counter
	packetsDropped  prometheus.Counter
	messagesSent    prometheus.Counter
	sendErrors      prometheus.Counter
	sceneSwitches   prometheus.Counter
	sceneSyncs      prometheus.Counter
	endpointEvents  *prometheus.CounterVec
	remoteConnected prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		packetsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "osc_packets_received_total",
			Help:      "OSC packets read from the listening socket.",
		}),
		packetsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "osc_packets_dropped_total",
			Help:      "Inbound OSC packets discarded because they could not be parsed.",
		}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "osc_messages_sent_total",
			Help:      "OSC messages sent to the remote controller.",
		}),
		sendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "osc_send_errors_total",
			Help:      "OSC sends that failed at the socket level.",
		}),
		sceneSwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scene_switches_total",
			Help:      "Scene switches requested from the host.",
		}),
		sceneSyncs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scene_syncs_total",
			Help:      "Scene name pushes to the remote controller.",
		}),
		endpointEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_endpoint_events_total",
			Help:      "Discovery events applied to the remote endpoint, by kind.",
		}, []string{"kind"}),
		remoteConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "remote_connected",
			Help:      "1 while a remote controller endpoint is known.",
		}),
	}

	reg.MustRegister(
		m.packetsReceived,
		m.packetsDropped,
		m.messagesSent,
		m.sendErrors,
		m.sceneSwitches,
		m.sceneSyncs,
		m.endpointEvents,
		m.remoteConnected,
	)
	return m
}

func (m *Metrics) PacketReceived() {
	if m != nil {
		m.packetsReceived.Inc()
	}
}

func (m *Metrics) PacketDropped() {
	if m != nil {
		m.packetsDropped.Inc()
	}
}

func (m *Metrics) MessageSent() {
	if m != nil {
		m.messagesSent.Inc()
	}
}

func (m *Metrics) SendError() {
	if m != nil {
		m.sendErrors.Inc()
	}
}

func (m *Metrics) SceneSwitched() {
	if m != nil {
		m.sceneSwitches.Inc()
	}
}

func (m *Metrics) SceneNamesSynced() {
	if m != nil {
		m.sceneSyncs.Inc()
	}
}

// EndpointEvent records a discovery event and the resulting connection state.
func (m *Metrics) EndpointEvent(kind string, connected bool) {
	if m == nil {
		return
	}
	m.endpointEvents.WithLabelValues(kind).Inc()
	if connected {
		m.remoteConnected.Set(1)
	} else {
		m.remoteConnected.Set(0)
	}
}
