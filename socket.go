package zsock

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/workspace-9/zsock/native"
)

// rawSocket owns one native socket. It holds a reference on its Context
// until it is closed.
type rawSocket struct {
	native native.Socket
	ctx    *Context
	role   native.SocketType

	mu        sync.Mutex
	connected map[string]struct{}
	// bound maps each endpoint as given to Bind to the address it resolved
	// to, and resolved maps it back.
	bound     map[string]string
	resolved  map[string]string
	groups    []string
	mechanism Mechanism

	closeOnce sync.Once
	closeErr  error
}

func newRawSocket(ctx *Context, role native.SocketType) (*rawSocket, error) {
	sock, err := ctx.newSocket(role)
	if err != nil {
		return nil, err
	}

	s := &rawSocket{
		native:    sock,
		ctx:       ctx,
		role:      role,
		connected: map[string]struct{}{},
		bound:     map[string]string{},
		resolved:  map[string]string{},
		mechanism: Null{},
	}
	// A socket dropped without Close still gives its context reference
	// back. close may block on the engine, so it runs off the finalizer
	// goroutine.
	runtime.SetFinalizer(s, func(s *rawSocket) {
		go s.close()
	})
	return s, nil
}

func (s *rawSocket) post(ev Event) {
	ev.Role = s.role
	s.ctx.post(ev)
}

func (s *rawSocket) fail(endpoint string, kind ErrorKind, detail string) error {
	s.post(Event{EventType: EventTypeFailed, Endpoint: endpoint, Notes: detail, Kind: kind})
	return newDetailError[struct{}](kind, detail)
}

func (s *rawSocket) terminated() error {
	if s.ctx.Terminated() {
		return newError[struct{}](CtxTerminated)
	}
	return nil
}

// endpointError translates the errors shared by connect, bind, disconnect
// and unbind.
func (s *rawSocket) endpointError(op, endpoint string, errno native.Errno) error {
	switch errno {
	case native.EINVAL:
		return s.fail(endpoint, InvalidInput, fmt.Sprintf("invalid endpoint %q", endpoint))
	case native.EPROTONOSUPPORT:
		return s.fail(endpoint, InvalidInput, fmt.Sprintf("unsupported transport in %q", endpoint))
	case native.ENOCOMPATPROTO:
		return s.fail(endpoint, InvalidInput, fmt.Sprintf("transport of %q is incompatible with %s sockets", endpoint, s.role))
	case native.ETERM:
		return newError[struct{}](CtxTerminated)
	case native.ENOTSOCK:
		fatal("invalid socket", errno)
	case native.EMTHREAD:
		fatal("no I/O thread available", errno)
	}
	unmapped(op, errno)
	return nil
}

func (s *rawSocket) connect(endpoint string) error {
	if err := s.terminated(); err != nil {
		return err
	}

	if err := s.native.Connect(endpoint); err != nil {
		return s.endpointError("connect", endpoint, native.AsErrno(err))
	}

	s.mu.Lock()
	s.connected[endpoint] = struct{}{}
	s.mu.Unlock()
	s.post(Event{EventType: EventTypeConnected, Endpoint: endpoint})
	return nil
}

func (s *rawSocket) bind(endpoint string) error {
	if err := s.terminated(); err != nil {
		return err
	}

	if err := s.native.Bind(endpoint); err != nil {
		errno := native.AsErrno(err)
		switch errno {
		case native.EADDRINUSE:
			return s.fail(endpoint, AddrInUse, "")
		case native.EADDRNOTAVAIL, native.ENODEV:
			return s.fail(endpoint, AddrNotAvailable, "")
		}
		return s.endpointError("bind", endpoint, errno)
	}

	resolved, err := s.native.GetString(native.LastEndpoint)
	if err != nil || resolved == "" {
		resolved = endpoint
	}

	s.mu.Lock()
	s.bound[endpoint] = resolved
	s.resolved[resolved] = endpoint
	s.mu.Unlock()
	s.post(Event{EventType: EventTypeBound, Endpoint: endpoint, Notes: resolved})
	return nil
}

func (s *rawSocket) disconnect(endpoint string) error {
	if err := s.terminated(); err != nil {
		return err
	}

	if err := s.native.Disconnect(endpoint); err != nil {
		errno := native.AsErrno(err)
		if errno == native.ENOENT {
			return s.fail(endpoint, NotFound, fmt.Sprintf("endpoint %q is not connected", endpoint))
		}
		return s.endpointError("disconnect", endpoint, errno)
	}

	s.mu.Lock()
	delete(s.connected, endpoint)
	s.mu.Unlock()
	s.post(Event{EventType: EventTypeDisconnected, Endpoint: endpoint})
	return nil
}

func (s *rawSocket) unbind(endpoint string) error {
	if err := s.terminated(); err != nil {
		return err
	}

	if err := s.native.Unbind(endpoint); err != nil {
		errno := native.AsErrno(err)
		if errno == native.ENOENT {
			return s.fail(endpoint, NotFound, fmt.Sprintf("endpoint %q is not bound", endpoint))
		}
		return s.endpointError("unbind", endpoint, errno)
	}

	s.forgetBind(endpoint)
	s.post(Event{EventType: EventTypeUnbound, Endpoint: endpoint})
	return nil
}

func (s *rawSocket) isConnected(endpoint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.connected[endpoint]
	return ok
}

// isBound reports whether endpoint was bound through the socket, either in
// the form given to Bind or in the form it resolved to.
func (s *rawSocket) isBound(endpoint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bound[endpoint]; ok {
		return true
	}
	_, ok := s.resolved[endpoint]
	return ok
}

// forgetBind drops both forms of an unbound endpoint.
func (s *rawSocket) forgetBind(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := endpoint
	if given, ok := s.resolved[endpoint]; ok {
		raw = given
	}
	if resolved, ok := s.bound[raw]; ok {
		delete(s.resolved, resolved)
	}
	delete(s.bound, raw)
	delete(s.resolved, endpoint)
}

// optionError translates the errors of option getters and setters.
func (s *rawSocket) optionError(op string, opt native.Option, errno native.Errno) error {
	switch errno {
	case native.ETERM:
		return newError[struct{}](CtxTerminated)
	case native.EINTR:
		return newError[struct{}](Interrupted)
	case native.EINVAL:
		fatal(fmt.Sprintf("invalid %s for %s socket", opt, s.role), errno)
	case native.ENOTSOCK:
		fatal("invalid socket", errno)
	}
	unmapped(op+" "+opt.String(), errno)
	return nil
}

func (s *rawSocket) setInt(opt native.Option, value int) error {
	if err := s.terminated(); err != nil {
		return err
	}
	if err := s.native.SetInt(opt, value); err != nil {
		return s.optionError("set", opt, native.AsErrno(err))
	}
	return nil
}

func (s *rawSocket) getInt(opt native.Option) (int, error) {
	if err := s.terminated(); err != nil {
		return 0, err
	}
	value, err := s.native.GetInt(opt)
	if err != nil {
		return 0, s.optionError("get", opt, native.AsErrno(err))
	}
	return value, nil
}

func (s *rawSocket) setBool(opt native.Option, value bool) error {
	if err := s.terminated(); err != nil {
		return err
	}
	if err := s.native.SetBool(opt, value); err != nil {
		return s.optionError("set", opt, native.AsErrno(err))
	}
	return nil
}

func (s *rawSocket) getBool(opt native.Option) (bool, error) {
	if err := s.terminated(); err != nil {
		return false, err
	}
	value, err := s.native.GetBool(opt)
	if err != nil {
		return false, s.optionError("get", opt, native.AsErrno(err))
	}
	return value, nil
}

func (s *rawSocket) setDuration(opt native.Option, value time.Duration) error {
	if err := s.terminated(); err != nil {
		return err
	}
	if err := s.native.SetDuration(opt, value); err != nil {
		return s.optionError("set", opt, native.AsErrno(err))
	}
	return nil
}

func (s *rawSocket) getDuration(opt native.Option) (time.Duration, error) {
	if err := s.terminated(); err != nil {
		return 0, err
	}
	value, err := s.native.GetDuration(opt)
	if err != nil {
		return 0, s.optionError("get", opt, native.AsErrno(err))
	}
	return value, nil
}

func (s *rawSocket) getString(opt native.Option) (string, error) {
	if err := s.terminated(); err != nil {
		return "", err
	}
	value, err := s.native.GetString(opt)
	if err != nil {
		return "", s.optionError("get", opt, native.AsErrno(err))
	}
	return value, nil
}

func (s *rawSocket) setMechanism(m Mechanism) error {
	if err := validateMechanism(m); err != nil {
		return s.fail("", InvalidInput, err.Error())
	}
	if err := s.terminated(); err != nil {
		return err
	}
	prev := s.getMechanism()
	if opt, err := m.apply(s.native); err != nil {
		failed := s.optionError("set", opt, native.AsErrno(err))
		// m may be half applied. Putting prev back makes it the active
		// mechanism again; key material m already set may stay behind.
		if _, rerr := prev.apply(s.native); rerr != nil {
			failed = multierr.Append(failed, fmt.Errorf("restoring %s mechanism: %w", prev.Name(), rerr))
		}
		return failed
	}

	s.mu.Lock()
	s.mechanism = m
	s.mu.Unlock()
	return nil
}

func (s *rawSocket) getMechanism() Mechanism {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mechanism
}

func (s *rawSocket) close() error {
	s.closeOnce.Do(func() {
		runtime.SetFinalizer(s, nil)
		if err := s.native.Close(); err != nil {
			errno := native.AsErrno(err)
			if errno == native.ENOTSOCK {
				fatal("invalid socket", errno)
			}
			unmapped("close", errno)
		}
		s.post(Event{EventType: EventTypeClosed})
		s.closeErr = s.ctx.release()
	})
	return s.closeErr
}

// Socket is implemented by every socket role. It can not be implemented
// outside this package.
type Socket interface {
	// Connect to a remote endpoint. The connection is established in the
	// background and re-established when lost.
	Connect(endpoint string) error
	// Bind accepts connections on a local endpoint.
	Bind(endpoint string) error
	Disconnect(endpoint string) error
	Unbind(endpoint string) error
	// LastEndpoint is the endpoint of the last successful bind, with
	// wildcards resolved.
	LastEndpoint() (string, error)

	Backlog() (int, error)
	SetBacklog(backlog int) error
	ConnectTimeout() (time.Duration, error)
	SetConnectTimeout(timeout time.Duration) error
	HeartbeatInterval() (time.Duration, error)
	SetHeartbeatInterval(interval time.Duration) error
	HeartbeatTimeout() (time.Duration, error)
	SetHeartbeatTimeout(timeout time.Duration) error
	HeartbeatTTL() (time.Duration, error)
	SetHeartbeatTTL(ttl time.Duration) error
	Mechanism() Mechanism
	SetMechanism(mechanism Mechanism) error
	Linger() (Period, error)
	SetLinger(linger Period) error

	// Context the socket was opened in.
	Context() *Context
	// Close the socket. Later calls return the result of the first.
	// Every other call on the socket must have returned first: a call
	// still blocked in the engine when the socket closes panics. A socket
	// that is dropped without Close is closed when it is garbage
	// collected.
	Close() error

	raw() *rawSocket
}

type socketCore struct {
	s *rawSocket
}

func (c socketCore) raw() *rawSocket {
	return c.s
}

func (c socketCore) Connect(endpoint string) error {
	return c.s.connect(endpoint)
}

func (c socketCore) Bind(endpoint string) error {
	return c.s.bind(endpoint)
}

func (c socketCore) Disconnect(endpoint string) error {
	return c.s.disconnect(endpoint)
}

func (c socketCore) Unbind(endpoint string) error {
	return c.s.unbind(endpoint)
}

func (c socketCore) LastEndpoint() (string, error) {
	return c.s.getString(native.LastEndpoint)
}

// Backlog is the maximum length of the queue of pending connections.
func (c socketCore) Backlog() (int, error) {
	return c.s.getInt(native.Backlog)
}

func (c socketCore) SetBacklog(backlog int) error {
	if backlog < 0 {
		panic(fmt.Sprintf("zsock: negative backlog %d", backlog))
	}
	return c.s.setInt(native.Backlog, backlog)
}

// ConnectTimeout bounds a single connection attempt. Zero leaves it to the
// operating system.
func (c socketCore) ConnectTimeout() (time.Duration, error) {
	return c.s.getDuration(native.ConnectTimeout)
}

func (c socketCore) SetConnectTimeout(timeout time.Duration) error {
	checkDuration("connect timeout", timeout)
	return c.s.setDuration(native.ConnectTimeout, timeout)
}

func (c socketCore) HeartbeatInterval() (time.Duration, error) {
	return c.s.getDuration(native.HeartbeatInterval)
}

func (c socketCore) SetHeartbeatInterval(interval time.Duration) error {
	checkDuration("heartbeat interval", interval)
	return c.s.setDuration(native.HeartbeatInterval, interval)
}

// HeartbeatTimeout is how long to wait for traffic after a heartbeat. Zero
// means the heartbeat interval is used.
func (c socketCore) HeartbeatTimeout() (time.Duration, error) {
	timeout, err := c.s.getDuration(native.HeartbeatTimeout)
	if timeout < 0 {
		timeout = 0
	}
	return timeout, err
}

func (c socketCore) SetHeartbeatTimeout(timeout time.Duration) error {
	checkDuration("heartbeat timeout", timeout)
	if timeout == 0 {
		return c.s.setDuration(native.HeartbeatTimeout, -1)
	}
	return c.s.setDuration(native.HeartbeatTimeout, timeout)
}

func (c socketCore) HeartbeatTTL() (time.Duration, error) {
	return c.s.getDuration(native.HeartbeatTTL)
}

// SetHeartbeatTTL rejects values above MaxHeartbeatTTL with InvalidInput.
func (c socketCore) SetHeartbeatTTL(ttl time.Duration) error {
	checkDuration("heartbeat ttl", ttl)
	if ttl > MaxHeartbeatTTL {
		return c.s.fail("", InvalidInput, fmt.Sprintf("heartbeat ttl %s exceeds %s", ttl, MaxHeartbeatTTL))
	}
	return c.s.setDuration(native.HeartbeatTTL, ttl)
}

func (c socketCore) Mechanism() Mechanism {
	return c.s.getMechanism()
}

func (c socketCore) SetMechanism(mechanism Mechanism) error {
	return c.s.setMechanism(mechanism)
}

// Linger is how long pending messages are kept after Close.
func (c socketCore) Linger() (Period, error) {
	linger, err := c.s.getDuration(native.Linger)
	if err != nil {
		return Infinite, err
	}
	return periodFromNative(linger), nil
}

func (c socketCore) SetLinger(linger Period) error {
	return c.s.setDuration(native.Linger, linger.native())
}

func (c socketCore) Context() *Context {
	return c.s.ctx
}

func (c socketCore) Close() error {
	return c.s.close()
}
