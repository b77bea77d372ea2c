package zsock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workspace-9/zsock/native"
)

// recordingSocket keeps the options set on it and fails one of them.
type recordingSocket struct {
	native.Socket
	strings  map[native.Option]string
	bools    map[native.Option]bool
	failOn   native.Option
	failWith native.Errno
}

func (s *recordingSocket) SetString(opt native.Option, value string) error {
	if opt == s.failOn {
		return s.failWith
	}
	s.strings[opt] = value
	return nil
}

func (s *recordingSocket) SetBool(opt native.Option, value bool) error {
	if opt == s.failOn {
		return s.failWith
	}
	s.bools[opt] = value
	return nil
}

func newRecordingRaw(current Mechanism, failOn native.Option) (*rawSocket, *recordingSocket) {
	sock := &recordingSocket{
		strings:  map[native.Option]string{},
		bools:    map[native.Option]bool{},
		failOn:   failOn,
		failWith: native.EINTR,
	}
	return &rawSocket{
		native:    sock,
		ctx:       &Context{bus: nopBus{}},
		role:      native.Client,
		mechanism: current,
	}, sock
}

func TestSetMechanismRestoresPrevious(t *testing.T) {
	old := PlainClient{Username: "old", Password: "old-secret"}
	raw, sock := newRecordingRaw(old, native.CurveSecretKey)

	pair, err := NewCurveKeyPair()
	require.NoError(t, err)
	server, err := NewCurveKeyPair()
	require.NoError(t, err)

	err = raw.setMechanism(CurveClient{Client: pair, ServerKey: server.Public})
	assert.ErrorIs(t, err, Interrupted)
	assert.Equal(t, old, raw.getMechanism())
	assert.Equal(t, "old", sock.strings[native.PlainUsername])
	assert.Equal(t, "old-secret", sock.strings[native.PlainPassword])
}

func TestSetMechanismReportsFailedRestore(t *testing.T) {
	old := PlainClient{Username: "old", Password: "old-secret"}
	raw, _ := newRecordingRaw(old, native.PlainPassword)

	err := raw.setMechanism(PlainClient{Username: "new", Password: "new-secret"})
	assert.ErrorIs(t, err, Interrupted)
	assert.ErrorContains(t, err, "restoring PLAIN mechanism")
	assert.Equal(t, old, raw.getMechanism())
}
