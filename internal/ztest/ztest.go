// Package ztest holds helpers for tests running on the inproc engine.
package ztest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/workspace-9/zsock"
	"github.com/workspace-9/zsock/engine/inproc"
)

// Endpoint returns an inproc endpoint no other test uses.
func Endpoint() string {
	return "inproc://" + uuid.NewString()
}

// Context creates an inproc context that is terminated and closed when the
// test ends.
func Context(t testing.TB, opts ...zsock.ContextOption) *zsock.Context {
	t.Helper()

	ctx, err := zsock.NewContext(zsock.CtxConfig{Engine: inproc.Name}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx.Terminate()
		require.NoError(t, ctx.Close())
	})
	return ctx
}

func closing[S interface{ Close() error }](t testing.TB, sock S, err error) S {
	t.Helper()

	require.NoError(t, err)
	t.Cleanup(func() {
		sock.Close()
	})
	return sock
}

// Client opens a Client in ctx and closes it when the test ends.
func Client(t testing.TB, ctx *zsock.Context) *zsock.Client {
	t.Helper()
	sock, err := zsock.NewClientWithContext(ctx)
	return closing(t, sock, err)
}

func Server(t testing.TB, ctx *zsock.Context) *zsock.Server {
	t.Helper()
	sock, err := zsock.NewServerWithContext(ctx)
	return closing(t, sock, err)
}

func Radio(t testing.TB, ctx *zsock.Context) *zsock.Radio {
	t.Helper()
	sock, err := zsock.NewRadioWithContext(ctx)
	return closing(t, sock, err)
}

func Dish(t testing.TB, ctx *zsock.Context) *zsock.Dish {
	t.Helper()
	sock, err := zsock.NewDishWithContext(ctx)
	return closing(t, sock, err)
}
