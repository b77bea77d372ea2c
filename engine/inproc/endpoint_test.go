package inproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workspace-9/zsock/native"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		typ      native.SocketType
		raw      string
		bind     bool
		err      error
		key      string
		resolved string
	}{
		{name: "inproc", typ: native.Client, raw: "inproc://a", key: "inproc:a", resolved: "inproc://a"},
		{name: "ipc", typ: native.Server, raw: "ipc:///tmp/sock", bind: true, key: "ipc:/tmp/sock", resolved: "ipc:///tmp/sock"},
		{name: "tcp connect", typ: native.Client, raw: "tcp://127.0.0.1:5555", key: "tcp:5555", resolved: "tcp://127.0.0.1:5555"},
		{name: "tcp wildcard host", typ: native.Server, raw: "tcp://*:5555", bind: true, key: "tcp:5555", resolved: "tcp://0.0.0.0:5555"},
		{name: "tcp ephemeral", typ: native.Server, raw: "tcp://127.0.0.1:*", bind: true, key: "tcp:49152", resolved: "tcp://127.0.0.1:49152"},
		{name: "udp on dish", typ: native.Dish, raw: "udp://*:5556", bind: true, key: "udp:5556", resolved: "udp://0.0.0.0:5556"},
		{name: "missing scheme", typ: native.Client, raw: "127.0.0.1:5555", err: native.EINVAL},
		{name: "empty address", typ: native.Client, raw: "tcp://", err: native.EINVAL},
		{name: "bad port", typ: native.Client, raw: "tcp://127.0.0.1:http", err: native.EINVAL},
		{name: "connect to wildcard port", typ: native.Client, raw: "tcp://127.0.0.1:*", err: native.EINVAL},
		{name: "unknown transport", typ: native.Client, raw: "pgm://eth0;239.0.0.1:5555", err: native.EPROTONOSUPPORT},
		{name: "udp on client", typ: native.Client, raw: "udp://127.0.0.1:5555", err: native.ENOCOMPATPROTO},
		{name: "non local address", typ: native.Server, raw: "tcp://10.1.2.3:5555", bind: true, err: native.EADDRNOTAVAIL},
		{name: "unknown interface", typ: native.Server, raw: "tcp://nosuchif:5555", bind: true, err: native.ENODEV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContext(native.ContextOptions{})
			ep, err := parseEndpoint(c, tt.typ, tt.raw, tt.bind)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.key, ep.key)
			assert.Equal(t, tt.resolved, ep.resolved)
			assert.Equal(t, tt.raw, ep.raw)
		})
	}
}
