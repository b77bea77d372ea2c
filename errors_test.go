package zsock

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workspace-9/zsock/native"
)

func TestErrorMatchesKind(t *testing.T) {
	err := fmt.Errorf("sending: %w", withContent(WouldBlock, MsgString("payload")))

	assert.ErrorIs(t, err, WouldBlock)
	assert.NotErrorIs(t, err, HostUnreachable)
	assert.Equal(t, WouldBlock, KindOf(err))
	assert.Equal(t, ErrorKind(0), KindOf(errors.New("other")))
	assert.Equal(t, CtxTerminated, KindOf(CtxTerminated))
}

func TestErrorContent(t *testing.T) {
	msg := MsgString("payload")
	err := withContent(HostUnreachable, msg)

	content, ok := ContentOf[Msg](err)
	require.True(t, ok)
	assert.Equal(t, msg, content)

	_, ok = ContentOf[[]byte](err)
	assert.False(t, ok)

	taken, ok := err.TakeContent()
	require.True(t, ok)
	assert.Equal(t, "payload", taken.String())
	_, ok = err.Content()
	assert.False(t, ok)
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "operation would block", newError[struct{}](WouldBlock).Error())
	assert.Equal(t, "invalid input: bad group", newDetailError[struct{}](InvalidInput, "bad group").Error())
	assert.Equal(t, "bad group", newDetailError[struct{}](InvalidInput, "bad group").Detail())
}

func TestFatalPanics(t *testing.T) {
	assert.PanicsWithValue(t, "zsock: invalid socket (errno 156384765: context was terminated)", func() {
		fatal("invalid socket", native.ETERM)
	})
	assert.Panics(t, func() {
		unmapped("send", native.Errno(12345))
	})
}
