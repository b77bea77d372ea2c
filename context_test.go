package zsock_test

import (
	"context"
	"runtime"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workspace-9/zsock"
	"github.com/workspace-9/zsock/engine/inproc"
	"github.com/workspace-9/zsock/internal/ztest"
	"github.com/workspace-9/zsock/native"
)

func TestContextReleasedAfterLastSocket(t *testing.T) {
	rec := &recorder{}
	ctx, err := zsock.NewContext(zsock.CtxConfig{Engine: inproc.Name}, zsock.WithEventBus(rec))
	require.NoError(t, err)
	assert.Equal(t, inproc.Name, ctx.Engine())
	assert.NotEmpty(t, ctx.ID())

	client, err := zsock.NewClientWithContext(ctx)
	require.NoError(t, err)
	server, err := zsock.NewServerWithContext(ctx)
	require.NoError(t, err)

	require.NoError(t, ctx.Close())
	require.NoError(t, ctx.Close())
	assert.Equal(t, 0, rec.count(zsock.EventTypeReleased, 0))

	require.NoError(t, client.Close())
	assert.Equal(t, 0, rec.count(zsock.EventTypeReleased, 0))

	require.NoError(t, server.Close())
	assert.Equal(t, 1, rec.count(zsock.EventTypeReleased, 0))

	rec.Lock()
	defer rec.Unlock()
	for _, ev := range rec.events {
		assert.Equal(t, ctx.ID(), ev.Context)
	}
}

func TestTerminateWakesBlockedCalls(t *testing.T) {
	ctx := ztest.Context(t)
	client := ztest.Client(t, ctx)
	require.NoError(t, client.Connect(ztest.Endpoint()))

	done := make(chan error, 1)
	go func() {
		_, err := client.RecvMsg()
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	ctx.Terminate()
	ctx.Terminate()
	assert.True(t, ctx.Terminated())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, zsock.CtxTerminated)
	case <-time.After(time.Second):
		t.Fatal("recv did not return after terminate")
	}

	err := client.Send(zsock.MsgString("late"))
	assert.ErrorIs(t, err, zsock.CtxTerminated)
	msg, ok := zsock.ContentOf[zsock.Msg](err)
	require.True(t, ok)
	assert.Equal(t, "late", msg.String())

	assert.ErrorIs(t, client.Bind(ztest.Endpoint()), zsock.CtxTerminated)

	_, err = zsock.NewServerWithContext(ctx)
	assert.ErrorIs(t, err, zsock.CtxTerminated)
}

func TestTerminateOnDone(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctx := ztest.Context(t)
	ctx.TerminateOnDone(parent)
	assert.False(t, ctx.Terminated())

	cancel()
	assert.Eventually(t, ctx.Terminated, time.Second, time.Millisecond)
}

func TestTerminateOnDoneStop(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())

	ctx := ztest.Context(t)
	stop := ctx.TerminateOnDone(parent)
	assert.True(t, stop())

	cancel()
	time.Sleep(10 * time.Millisecond)
	assert.False(t, ctx.Terminated())
}

func TestSocketLimit(t *testing.T) {
	ctx, err := zsock.NewContext(zsock.CtxConfig{Engine: inproc.Name, MaxSockets: 1})
	require.NoError(t, err)
	defer ctx.Close()

	client, err := zsock.NewClientWithContext(ctx)
	require.NoError(t, err)
	defer client.Close()

	_, err = zsock.NewClientWithContext(ctx)
	assert.ErrorIs(t, err, zsock.SocketLimit)
}

func TestFailedOpenKeepsReferences(t *testing.T) {
	rec := &recorder{}
	ctx, err := zsock.NewContext(zsock.CtxConfig{Engine: inproc.Name, MaxSockets: 1}, zsock.WithEventBus(rec))
	require.NoError(t, err)

	client, err := zsock.NewClientWithContext(ctx)
	require.NoError(t, err)

	_, err = zsock.NewServerWithContext(ctx)
	assert.ErrorIs(t, err, zsock.SocketLimit)

	require.NoError(t, ctx.Close())
	assert.Equal(t, 0, rec.count(zsock.EventTypeReleased, 0))

	require.NoError(t, client.Close())
	assert.Equal(t, 1, rec.count(zsock.EventTypeReleased, 0))
}

func TestOpenAfterTerminate(t *testing.T) {
	rec := &recorder{}
	ctx, err := zsock.NewContext(zsock.CtxConfig{Engine: inproc.Name}, zsock.WithEventBus(rec))
	require.NoError(t, err)

	ctx.Terminate()
	_, err = zsock.NewClientWithContext(ctx)
	assert.ErrorIs(t, err, zsock.CtxTerminated)
	assert.Equal(t, 0, rec.count(zsock.EventTypeReleased, 0))

	require.NoError(t, ctx.Close())
	assert.Equal(t, 1, rec.count(zsock.EventTypeReleased, 0))
}

func TestDroppedSocketIsReleased(t *testing.T) {
	rec := &recorder{}
	ctx, err := zsock.NewContext(zsock.CtxConfig{Engine: inproc.Name}, zsock.WithEventBus(rec))
	require.NoError(t, err)

	func() {
		_, err := zsock.NewClientWithContext(ctx)
		require.NoError(t, err)
	}()

	require.NoError(t, ctx.Close())
	assert.Eventually(t, func() bool {
		runtime.GC()
		return rec.count(zsock.EventTypeReleased, 0) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, rec.count(zsock.EventTypeClosed, native.Client))
}

func TestGlobalContext(t *testing.T) {
	global := zsock.Global()
	assert.Same(t, global, zsock.Global())
	assert.Equal(t, inproc.Name, global.Engine())
	assert.NoError(t, global.Close())

	client, err := zsock.NewClient()
	require.NoError(t, err)
	assert.Same(t, global, client.Context())
	require.NoError(t, client.Close())

	// The global context survives its sockets.
	server, err := zsock.NewServer()
	require.NoError(t, err)
	require.NoError(t, server.Close())
}

func TestEngineRegistry(t *testing.T) {
	err := zsock.RegisterEngine(inproc.Name, inproc.Engine{})
	assert.ErrorIs(t, err, zsock.ErrEngineExists)

	names := zsock.Engines()
	assert.Contains(t, names, inproc.Name)
	assert.True(t, sort.StringsAreSorted(names))

	engine, ok := zsock.FindEngine(inproc.Name)
	require.True(t, ok)
	major, minor, patch := engine.Version()
	assert.Equal(t, [3]int{inproc.VersionMajor, inproc.VersionMinor, inproc.VersionPatch}, [3]int{major, minor, patch})
	assert.True(t, engine.Has("draft"))
	assert.False(t, engine.Has("curve"))

	_, err = zsock.NewContext(zsock.CtxConfig{Engine: "missing"})
	assert.ErrorIs(t, err, zsock.ErrEngineNotFound)
}

func TestMultiBus(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	ctx := ztest.Context(t, zsock.WithEventBus(zsock.MultiBus{a, b}))
	ztest.Dish(t, ctx)

	assert.Equal(t, 1, a.count(zsock.EventTypeOpened, native.Dish))
	assert.Equal(t, 1, b.count(zsock.EventTypeOpened, native.Dish))
}
