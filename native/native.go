// Package native describes the call surface zsock needs from a messaging
// engine. Engines live in their own packages and register themselves with
// zsock.RegisterEngine.
package native

import "time"

// SocketType is the role a native socket is opened with.
type SocketType int

const (
	Client SocketType = iota + 1
	Server
	Radio
	Dish
)

func (t SocketType) String() string {
	switch t {
	case Client:
		return "CLIENT"
	case Server:
		return "SERVER"
	case Radio:
		return "RADIO"
	case Dish:
		return "DISH"
	}

	return "UNKNOWN"
}

// Option identifies a socket option.
type Option int

const (
	Backlog Option = iota + 1
	ConnectTimeout
	HeartbeatInterval
	HeartbeatTimeout
	HeartbeatTTL
	SendHWM
	RecvHWM
	SendTimeout
	RecvTimeout
	NoDrop
	Linger
	LastEndpoint
	PlainServer
	PlainUsername
	PlainPassword
	CurveServer
	CurvePublicKey
	CurveSecretKey
	CurveServerKey
	ZapDomain
)

var optionNames = map[Option]string{
	Backlog:           "backlog",
	ConnectTimeout:    "connect_timeout",
	HeartbeatInterval: "heartbeat_interval",
	HeartbeatTimeout:  "heartbeat_timeout",
	HeartbeatTTL:      "heartbeat_ttl",
	SendHWM:           "send_hwm",
	RecvHWM:           "recv_hwm",
	SendTimeout:       "send_timeout",
	RecvTimeout:       "recv_timeout",
	NoDrop:            "no_drop",
	Linger:            "linger",
	LastEndpoint:      "last_endpoint",
	PlainServer:       "plain_server",
	PlainUsername:     "plain_username",
	PlainPassword:     "plain_password",
	CurveServer:       "curve_server",
	CurvePublicKey:    "curve_publickey",
	CurveSecretKey:    "curve_secretkey",
	CurveServerKey:    "curve_serverkey",
	ZapDomain:         "zap_domain",
}

func (o Option) String() string {
	if name, ok := optionNames[o]; ok {
		return name
	}
	return "unknown_option"
}

// Flag modifies a send or receive call.
type Flag int

const (
	// DontWait makes send and receive return EAGAIN instead of blocking.
	DontWait Flag = 1
)

// Msg is a single part message as seen by the engine. RoutingID is only
// meaningful for SERVER sockets and Group for RADIO/DISH sockets.
type Msg struct {
	Data      []byte
	RoutingID uint32
	Group     string
}

// ContextOptions are applied when an engine context is created.
type ContextOptions struct {
	IOThreads        int
	MaxSockets       int
	RetryOnInterrupt bool
}

// Engine creates contexts and reports library properties.
type Engine interface {
	// Name of the engine, used for registration.
	Name() string

	// NewContext creates an independent engine context.
	NewContext(opts ContextOptions) (Context, error)

	// Version of the underlying library.
	Version() (major, minor, patch int)

	// Has reports whether a named capability (ipc, curve, draft...) is available.
	Has(capability string) bool
}

// Context owns the engine's I/O resources.
type Context interface {
	// NewSocket opens a socket of the given type.
	NewSocket(typ SocketType) (Socket, error)

	// Shutdown makes every blocked and future call on the context's
	// sockets fail with ETERM. It does not wait.
	Shutdown() error

	// Term releases the context. It blocks until every socket is closed.
	Term() error
}

// Socket is a single native socket. Every error returned is an Errno.
type Socket interface {
	Connect(endpoint string) error
	Bind(endpoint string) error
	Disconnect(endpoint string) error
	Unbind(endpoint string) error

	SetInt(opt Option, value int) error
	GetInt(opt Option) (int, error)
	SetBool(opt Option, value bool) error
	GetBool(opt Option) (bool, error)
	// Negative durations mean infinite.
	SetDuration(opt Option, value time.Duration) error
	GetDuration(opt Option) (time.Duration, error)
	SetString(opt Option, value string) error
	GetString(opt Option) (string, error)

	Send(msg Msg, flags Flag) error
	Recv(flags Flag) (Msg, error)

	Join(group string) error
	Leave(group string) error

	Close() error
}
