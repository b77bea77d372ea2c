package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workspace-9/zsock"
	"github.com/workspace-9/zsock/internal/ztest"
)

func TestBusCountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	bus, err := NewBus(reg)
	require.NoError(t, err)

	ctx := ztest.Context(t, zsock.WithEventBus(bus))
	server := ztest.Server(t, ctx)
	client := ztest.Client(t, ctx)

	endpoint := ztest.Endpoint()
	require.NoError(t, server.Bind(endpoint))
	require.NoError(t, client.Connect(endpoint))
	assert.Error(t, client.Disconnect(ztest.Endpoint()))

	assert.Equal(t, 1.0, testutil.ToFloat64(bus.sockets.WithLabelValues("SERVER")))
	assert.Equal(t, 1.0, testutil.ToFloat64(bus.sockets.WithLabelValues("CLIENT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(bus.events.WithLabelValues("Bound", "SERVER", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(bus.events.WithLabelValues("Failed", "CLIENT", "not found")))

	require.NoError(t, client.Close())
	assert.Equal(t, 0.0, testutil.ToFloat64(bus.sockets.WithLabelValues("CLIENT")))

	expected := `
# HELP zsock_open_sockets Sockets currently open, by role.
# TYPE zsock_open_sockets gauge
zsock_open_sockets{role="CLIENT"} 0
zsock_open_sockets{role="SERVER"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "zsock_open_sockets"))
}

func TestBusRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustNewBus(reg)

	_, err := NewBus(reg)
	assert.Error(t, err)
	assert.Panics(t, func() { MustNewBus(reg) })
}

func TestContextEventsHaveNoRole(t *testing.T) {
	bus := MustNewBus(prometheus.NewRegistry())
	bus.Post(zsock.Event{EventType: zsock.EventTypeTerminated})

	assert.Equal(t, 1.0, testutil.ToFloat64(bus.events.WithLabelValues("Terminated", "none", "")))
}
