// Package zmq4 runs zsock on libzmq through github.com/pebbe/zmq4. libzmq
// must be built with the draft API, which CLIENT, SERVER, RADIO and DISH
// sockets need.
//
// The engine registers itself as "zmq4":
//
//	import _ "github.com/workspace-9/zsock/engine/zmq4"
package zmq4

import (
	"errors"
	"fmt"
	"sync"
	"time"

	zmq "github.com/pebbe/zmq4/draft"

	"github.com/workspace-9/zsock"
	"github.com/workspace-9/zsock/internal/socketutil"
	"github.com/workspace-9/zsock/native"
)

const Name = "zmq4"

func init() {
	if err := zsock.RegisterEngine(Name, Engine{}); err != nil {
		panic(err)
	}
}

// Engine implements native.Engine.
type Engine struct{}

func (Engine) Name() string {
	return Name
}

func (Engine) NewContext(opts native.ContextOptions) (native.Context, error) {
	ctx, err := zmq.NewContext()
	if err != nil {
		return nil, errno(err)
	}

	if opts.IOThreads > 0 {
		if err := ctx.SetIoThreads(opts.IOThreads); err != nil {
			return nil, errno(err)
		}
	}
	if opts.MaxSockets > 0 {
		if err := ctx.SetMaxSockets(opts.MaxSockets); err != nil {
			return nil, errno(err)
		}
	}
	ctx.SetRetryAfterEINTR(opts.RetryOnInterrupt)

	return &Context{ctx: ctx, term: socketutil.NewWaitCloser[error]()}, nil
}

func (Engine) Version() (major, minor, patch int) {
	return zmq.Version()
}

func (Engine) Has(capability string) bool {
	switch capability {
	case "ipc":
		return zmq.HasIpc()
	case "pgm":
		return zmq.HasPgm()
	case "tipc":
		return zmq.HasTipc()
	case "norm":
		return zmq.HasNorm()
	case "curve":
		return zmq.HasCurve()
	case "gssapi":
		return zmq.HasGssapi()
	case "draft":
		return true
	}
	return false
}

// errno converts a pebbe error. On the platforms libzmq supports, pebbe
// errnos carry the libzmq codes that native.Errno uses.
func errno(err error) error {
	if err == nil {
		return nil
	}
	if eno := zmq.AsErrno(err); eno != 0 {
		return native.Errno(eno)
	}
	switch {
	case errors.Is(err, zmq.ErrorSocketClosed):
		return native.ENOTSOCK
	case errors.Is(err, zmq.ErrorContextClosed):
		return native.ETERM
	}
	return fmt.Errorf("%w: %s", native.EFAULT, err)
}

// Context wraps a libzmq context. libzmq only offers a blocking term, so
// Shutdown runs it in the background and Term waits for it.
type Context struct {
	ctx  *zmq.Context
	term *socketutil.WaitCloser[error]
}

func (c *Context) NewSocket(typ native.SocketType) (native.Socket, error) {
	var zt zmq.Type
	switch typ {
	case native.Client:
		zt = zmq.CLIENT
	case native.Server:
		zt = zmq.SERVER
	case native.Radio:
		zt = zmq.RADIO
	case native.Dish:
		zt = zmq.DISH
	default:
		return nil, native.EINVAL
	}

	sock, err := c.ctx.NewSocket(zt)
	if err != nil {
		return nil, errno(err)
	}
	return &Socket{sock: sock, typ: typ, cache: defaultCache()}, nil
}

func (c *Context) terminate() error {
	return errno(c.ctx.Term())
}

func (c *Context) Shutdown() error {
	c.term.Start(c.terminate)
	return nil
}

func (c *Context) Term() error {
	return c.term.Close(c.terminate)
}

// optionCache remembers options libzmq does not let us read back.
type optionCache struct {
	sync.Mutex
	durations map[native.Option]time.Duration
	bools     map[native.Option]bool
}

func defaultCache() *optionCache {
	return &optionCache{
		durations: map[native.Option]time.Duration{
			native.ConnectTimeout:    0,
			native.HeartbeatInterval: 0,
			native.HeartbeatTimeout:  -1,
			native.HeartbeatTTL:      0,
		},
		bools: map[native.Option]bool{
			native.NoDrop:      false,
			native.PlainServer: false,
			native.CurveServer: false,
		},
	}
}

// Socket wraps a libzmq socket.
type Socket struct {
	sock  *zmq.Socket
	typ   native.SocketType
	cache *optionCache
}

func (s *Socket) Connect(endpoint string) error {
	return errno(s.sock.Connect(endpoint))
}

func (s *Socket) Bind(endpoint string) error {
	return errno(s.sock.Bind(endpoint))
}

func (s *Socket) Disconnect(endpoint string) error {
	return errno(s.sock.Disconnect(endpoint))
}

func (s *Socket) Unbind(endpoint string) error {
	return errno(s.sock.Unbind(endpoint))
}

func (s *Socket) SetInt(opt native.Option, value int) error {
	switch opt {
	case native.Backlog:
		return errno(s.sock.SetBacklog(value))
	case native.SendHWM:
		return errno(s.sock.SetSndhwm(value))
	case native.RecvHWM:
		return errno(s.sock.SetRcvhwm(value))
	}
	return native.EINVAL
}

func (s *Socket) GetInt(opt native.Option) (int, error) {
	var (
		value int
		err   error
	)
	switch opt {
	case native.Backlog:
		value, err = s.sock.GetBacklog()
	case native.SendHWM:
		value, err = s.sock.GetSndhwm()
	case native.RecvHWM:
		value, err = s.sock.GetRcvhwm()
	default:
		return 0, native.EINVAL
	}
	return value, errno(err)
}

func (s *Socket) SetBool(opt native.Option, value bool) error {
	var err error
	switch opt {
	case native.NoDrop:
		if s.typ != native.Radio {
			return native.EINVAL
		}
		err = s.sock.SetXpubNodrop(value)
	case native.PlainServer:
		err = s.sock.SetPlainServer(boolInt(value))
	case native.CurveServer:
		err = s.sock.SetCurveServer(boolInt(value))
	default:
		return native.EINVAL
	}
	if err != nil {
		return errno(err)
	}

	s.cache.Lock()
	s.cache.bools[opt] = value
	s.cache.Unlock()
	return nil
}

func (s *Socket) GetBool(opt native.Option) (bool, error) {
	s.cache.Lock()
	defer s.cache.Unlock()
	value, ok := s.cache.bools[opt]
	if !ok {
		return false, native.EINVAL
	}
	return value, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// infinite maps every negative duration to the -1 libzmq expects.
func infinite(d time.Duration) time.Duration {
	if d < 0 {
		return -1
	}
	return d
}

func (s *Socket) SetDuration(opt native.Option, value time.Duration) error {
	value = infinite(value)

	var err error
	switch opt {
	case native.SendTimeout:
		return errno(s.sock.SetSndtimeo(value))
	case native.RecvTimeout:
		return errno(s.sock.SetRcvtimeo(value))
	case native.Linger:
		return errno(s.sock.SetLinger(value))
	case native.ConnectTimeout:
		err = s.sock.SetConnectTimeout(value)
	case native.HeartbeatInterval:
		err = s.sock.SetHeartbeatIvl(value)
	case native.HeartbeatTimeout:
		err = s.sock.SetHeartbeatTimeout(value)
	case native.HeartbeatTTL:
		err = s.sock.SetHeartbeatTtl(value)
	default:
		return native.EINVAL
	}
	if err != nil {
		return errno(err)
	}

	s.cache.Lock()
	s.cache.durations[opt] = value
	s.cache.Unlock()
	return nil
}

func (s *Socket) GetDuration(opt native.Option) (time.Duration, error) {
	var (
		value time.Duration
		err   error
	)
	switch opt {
	case native.SendTimeout:
		value, err = s.sock.GetSndtimeo()
	case native.RecvTimeout:
		value, err = s.sock.GetRcvtimeo()
	case native.Linger:
		value, err = s.sock.GetLinger()
	default:
		s.cache.Lock()
		defer s.cache.Unlock()
		cached, ok := s.cache.durations[opt]
		if !ok {
			return 0, native.EINVAL
		}
		return cached, nil
	}
	return infinite(value), errno(err)
}

func (s *Socket) SetString(opt native.Option, value string) error {
	switch opt {
	case native.PlainUsername:
		return errno(s.sock.SetPlainUsername(value))
	case native.PlainPassword:
		return errno(s.sock.SetPlainPassword(value))
	case native.CurvePublicKey:
		return errno(s.sock.SetCurvePublickey(value))
	case native.CurveSecretKey:
		return errno(s.sock.SetCurveSecretkey(value))
	case native.CurveServerKey:
		return errno(s.sock.SetCurveServerkey(value))
	case native.ZapDomain:
		return errno(s.sock.SetZapDomain(value))
	}
	return native.EINVAL
}

func (s *Socket) GetString(opt native.Option) (string, error) {
	if opt != native.LastEndpoint {
		return "", native.EINVAL
	}
	endpoint, err := s.sock.GetLastEndpoint()
	return endpoint, errno(err)
}

func sendFlags(flags native.Flag) zmq.Flag {
	if flags&native.DontWait != 0 {
		return zmq.DONTWAIT
	}
	return 0
}

func (s *Socket) Send(msg native.Msg, flags native.Flag) error {
	var opts []interface{}
	switch s.typ {
	case native.Server:
		opts = append(opts, zmq.OptRoutingId(msg.RoutingID))
	case native.Radio:
		opts = append(opts, zmq.OptGroup(msg.Group))
	}
	_, err := s.sock.SendBytes(msg.Data, sendFlags(flags), opts...)
	return errno(err)
}

func (s *Socket) Recv(flags native.Flag) (native.Msg, error) {
	var opts []interface{}
	switch s.typ {
	case native.Server:
		opts = append(opts, zmq.OptRoutingId(0))
	case native.Dish:
		opts = append(opts, zmq.OptGroup(""))
	}

	data, values, err := s.sock.RecvBytesWithOpts(sendFlags(flags), opts...)
	if err != nil {
		return native.Msg{}, errno(err)
	}

	msg := native.Msg{Data: data}
	for _, value := range values {
		switch value := value.(type) {
		case zmq.OptRoutingId:
			msg.RoutingID = uint32(value)
		case zmq.OptGroup:
			msg.Group = string(value)
		}
	}
	return msg, nil
}

func (s *Socket) Join(group string) error {
	return errno(s.sock.Join(group))
}

func (s *Socket) Leave(group string) error {
	return errno(s.sock.Leave(group))
}

func (s *Socket) Close() error {
	return errno(s.sock.Close())
}
