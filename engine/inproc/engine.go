// Package inproc is a pure Go engine that connects sockets of one process
// in memory. It needs no C library, which makes it the engine of the test
// suite and of hosts without libzmq.
//
// Every transport (inproc, ipc, tcp, udp) is simulated in memory. Bound
// tcp and udp addresses are keyed by port, so "tcp://127.0.0.1:5555"
// reaches "tcp://*:5555". Security mechanisms are accepted but not
// enforced.
package inproc

import (
	"sync"
	"time"

	wk8 "github.com/wk8/go-ordered-map/v2"

	"github.com/workspace-9/zsock"
	"github.com/workspace-9/zsock/native"
)

const Name = "inproc"

// Version reported by the engine.
const (
	VersionMajor = 1
	VersionMinor = 0
	VersionPatch = 0
)

const (
	defaultMaxSockets = 1023
	firstEphemeral    = 49152
)

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
	return NewContext(opts), nil
}

func (Engine) Version() (major, minor, patch int) {
	return VersionMajor, VersionMinor, VersionPatch
}

func (Engine) Has(capability string) bool {
	switch capability {
	case "inproc", "ipc", "tcp", "udp", "draft":
		return true
	}
	return false
}

// Context holds the sockets and bound addresses of one engine context.
// One mutex guards all of them. Every state change closes changed, which
// wakes the calls blocked in wait.
type Context struct {
	mu         sync.Mutex
	changed    chan struct{}
	terminated bool
	maxSockets int
	sockets    map[*socket]struct{}
	bound      map[string]*socket
	nextID     uint32
	ephemeral  int
}

func NewContext(opts native.ContextOptions) *Context {
	maxSockets := opts.MaxSockets
	if maxSockets <= 0 {
		maxSockets = defaultMaxSockets
	}
	return &Context{
		changed:    make(chan struct{}),
		maxSockets: maxSockets,
		sockets:    map[*socket]struct{}{},
		bound:      map[string]*socket{},
		ephemeral:  firstEphemeral,
	}
}

func (c *Context) NewSocket(typ native.SocketType) (native.Socket, error) {
	switch typ {
	case native.Client, native.Server, native.Radio, native.Dish:
	default:
		return nil, native.EINVAL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.terminated {
		return nil, native.ETERM
	}
	if len(c.sockets) >= c.maxSockets {
		return nil, native.EMFILE
	}

	s := &socket{
		ctx:      c,
		typ:      typ,
		pipes:    wk8.New[uint32, *pipe](),
		connects: map[string]*connection{},
		binds:    map[string]endpoint{},
		groups:   map[string]struct{}{},
		ints:     map[native.Option]int{native.SendHWM: 1000, native.RecvHWM: 1000, native.Backlog: 100},
		durations: map[native.Option]time.Duration{
			native.SendTimeout:       -1,
			native.RecvTimeout:       -1,
			native.Linger:            -1,
			native.ConnectTimeout:    0,
			native.HeartbeatInterval: 0,
			native.HeartbeatTimeout:  -1,
			native.HeartbeatTTL:      0,
		},
		bools:   map[native.Option]bool{native.PlainServer: false, native.CurveServer: false},
		strings: map[native.Option]string{},
	}
	if typ == native.Radio {
		s.bools[native.NoDrop] = false
	}
	c.sockets[s] = struct{}{}
	return s, nil
}

// Shutdown makes every blocked and future call fail with ETERM.
func (c *Context) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.terminated = true
	c.notifyLocked()
	return nil
}

// Term shuts the context down and waits until every socket is closed.
func (c *Context) Term() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.terminated = true
	c.notifyLocked()
	for len(c.sockets) > 0 {
		c.waitLocked(nil)
	}
	return nil
}

func (c *Context) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

// waitLocked releases the lock until the next state change or until
// deadline fires. It reports false on deadline.
func (c *Context) waitLocked(deadline <-chan time.Time) bool {
	changed := c.changed
	c.mu.Unlock()
	defer c.mu.Lock()

	select {
	case <-changed:
		return true
	case <-deadline:
		return false
	}
}

func (c *Context) nextPipeID() uint32 {
	c.nextID++
	if c.nextID == 0 {
		c.nextID++
	}
	return c.nextID
}

// nextEphemeral is only called with mu held.
func (c *Context) nextEphemeral() int {
	port := c.ephemeral
	c.ephemeral++
	if c.ephemeral > 65535 {
		c.ephemeral = firstEphemeral
	}
	return port
}
