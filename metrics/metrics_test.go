package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.PacketReceived()
		m.PacketDropped()
		m.MessageSent()
		m.SendError()
		m.SceneSwitched()
		m.SceneNamesSynced()
		m.EndpointEvent("added", true)
	})
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.PacketReceived()
	m.PacketReceived()
	m.PacketDropped()
	m.MessageSent()
	m.EndpointEvent("added", true)
	m.EndpointEvent("removed", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.packetsReceived))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.packetsDropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messagesSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.endpointEvents.WithLabelValues("added")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.remoteConnected))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
