package zsock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/workspace-9/zsock"
	"github.com/workspace-9/zsock/internal/ztest"
)

func TestLogBus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ztest.Context(t, zsock.WithLogger(zap.New(core)))

	server := ztest.Server(t, ctx)
	endpoint := ztest.Endpoint()
	require.NoError(t, server.Bind(endpoint))
	assert.ErrorIs(t, server.Disconnect(endpoint), zsock.NotFound)

	opened := logs.FilterMessage("Opened").All()
	require.Len(t, opened, 1)
	assert.Equal(t, zapcore.DebugLevel, opened[0].Level)
	assert.Equal(t, ctx.ID(), opened[0].ContextMap()["ctx"])
	assert.Equal(t, "SERVER", opened[0].ContextMap()["role"])

	bound := logs.FilterMessage("Bound").All()
	require.Len(t, bound, 1)
	assert.Equal(t, endpoint, bound[0].ContextMap()["endpoint"])

	failed := logs.FilterMessage("Failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.WarnLevel, failed[0].Level)
	assert.Equal(t, "not found", failed[0].ContextMap()["kind"])
}

func TestLogBusWithoutLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		zsock.LogBus{}.Post(zsock.Event{EventType: zsock.EventTypeOpened})
	})
}
