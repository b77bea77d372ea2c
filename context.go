package zsock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/workspace-9/zsock/native"
)

// Context is the handle to an engine instance. Sockets can only talk to
// sockets that share their Context.
//
// A Context is reference counted: the handle returned by NewContext holds
// one reference and every open socket holds another. The engine context is
// released once Close was called and the last socket is closed.
type Context struct {
	sync.Mutex
	id         string
	engineName string
	native     native.Context
	bus        EventBus
	refs       int
	released   bool
	global     bool
	terminated atomic.Bool
	closeOnce  sync.Once
	termOnce   sync.Once
}

var globalCtx struct {
	once sync.Once
	ctx  *Context
	err  error
}

// Global returns the process wide Context, creating it on first use with the
// default engine. It panics if no engine is linked into the program.
func Global() *Context {
	globalCtx.once.Do(func() {
		ctx, err := NewContext(CtxConfig{})
		if err != nil {
			globalCtx.err = err
			return
		}
		ctx.global = true
		globalCtx.ctx = ctx
	})
	if globalCtx.err != nil {
		panic(fmt.Sprintf("zsock: cannot create global context: %s", globalCtx.err))
	}
	return globalCtx.ctx
}

// NewContext creates an independent Context.
func NewContext(conf CtxConfig, opts ...ContextOption) (*Context, error) {
	engine, err := resolveEngine(conf.Engine)
	if err != nil {
		return nil, err
	}

	nctx, err := engine.NewContext(conf.nativeOptions())
	if err != nil {
		return nil, fmt.Errorf("creating %s context: %w", engine.Name(), err)
	}

	ctx := &Context{
		id:         uuid.NewString(),
		engineName: engine.Name(),
		native:     nctx,
		bus:        nopBus{},
		refs:       1,
	}
	for _, opt := range opts {
		opt(ctx)
	}
	return ctx, nil
}

// ID uniquely identifies the context in logs and events.
func (c *Context) ID() string {
	return c.id
}

// Engine is the name of the engine backing the context.
func (c *Context) Engine() string {
	return c.engineName
}

// Terminated reports whether Terminate was called.
func (c *Context) Terminated() bool {
	return c.terminated.Load()
}

// Terminate shuts the context down. Every call blocked on one of its sockets
// returns CtxTerminated, and so does every later call. Terminate does not
// release the context and is safe to call more than once.
func (c *Context) Terminate() {
	c.termOnce.Do(func() {
		c.terminated.Store(true)
		if err := c.native.Shutdown(); err != nil {
			fatal("cannot terminate context", native.AsErrno(err))
		}
		c.post(Event{EventType: EventTypeTerminated})
	})
}

// TerminateOnDone terminates the context once parent is done. Calling the
// returned stop function detaches the context from parent.
func (c *Context) TerminateOnDone(parent context.Context) (stop func() bool) {
	return context.AfterFunc(parent, c.Terminate)
}

// Close drops the caller's reference. The engine context is released when
// the last socket is closed. Closing the global context is a no-op.
func (c *Context) Close() error {
	if c.global {
		return nil
	}

	var err error
	c.closeOnce.Do(func() {
		err = c.release()
	})
	return err
}

func (c *Context) acquire() {
	c.Lock()
	defer c.Unlock()

	if c.released {
		panic("zsock: context used after release")
	}
	c.refs++
}

func (c *Context) release() error {
	c.Lock()
	c.refs--
	if c.refs > 0 || c.global {
		c.Unlock()
		return nil
	}
	c.released = true
	c.Unlock()

	if err := c.native.Term(); err != nil {
		return fmt.Errorf("releasing context %s: %w", c.id, err)
	}
	c.post(Event{EventType: EventTypeReleased})
	return nil
}

func (c *Context) post(ev Event) {
	ev.Context = c.id
	c.bus.Post(ev)
}

func (c *Context) newSocket(typ native.SocketType) (native.Socket, error) {
	c.acquire()

	// The handle may be closed concurrently, so the release below can be
	// the one that terminates the engine context.
	if c.Terminated() {
		return nil, multierr.Append(newError[struct{}](CtxTerminated), c.release())
	}

	sock, err := c.native.NewSocket(typ)
	if err != nil {
		rerr := c.release()
		errno := native.AsErrno(err)
		switch errno {
		case native.EINVAL:
			fatal("invalid socket type", errno)
		case native.EFAULT:
			fatal("invalid context", errno)
		case native.EMFILE:
			return nil, multierr.Append(newError[struct{}](SocketLimit), rerr)
		case native.ETERM:
			return nil, multierr.Append(newError[struct{}](CtxTerminated), rerr)
		default:
			unmapped("socket", errno)
		}
	}

	c.post(Event{EventType: EventTypeOpened, Role: typ})
	return sock, nil
}
