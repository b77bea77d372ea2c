package zsock

import (
	"go.uber.org/zap"

	"github.com/workspace-9/zsock/native"
)

// CtxConfig configures a Context. Zero fields leave the engine default.
type CtxConfig struct {
	Engine           string `yaml:"engine,omitempty" json:"engine,omitempty" cbor:"engine,omitempty"`
	IOThreads        int    `yaml:"io_threads,omitempty" json:"io_threads,omitempty" cbor:"io_threads,omitempty"`
	MaxSockets       int    `yaml:"max_sockets,omitempty" json:"max_sockets,omitempty" cbor:"max_sockets,omitempty"`
	RetryOnInterrupt bool   `yaml:"retry_on_interrupt,omitempty" json:"retry_on_interrupt,omitempty" cbor:"retry_on_interrupt,omitempty"`
}

// Default fills the config with the engine defaults made explicit.
func (c *CtxConfig) Default() {
	c.IOThreads = 1
	c.MaxSockets = 1023
	c.RetryOnInterrupt = false
}

// Build creates a new Context from the config.
func (c CtxConfig) Build(opts ...ContextOption) (*Context, error) {
	return NewContext(c, opts...)
}

func (c CtxConfig) nativeOptions() native.ContextOptions {
	return native.ContextOptions{
		IOThreads:        c.IOThreads,
		MaxSockets:       c.MaxSockets,
		RetryOnInterrupt: c.RetryOnInterrupt,
	}
}

// ContextOption customises the runtime side of a Context.
type ContextOption func(*Context)

// WithEventBus posts the context's lifecycle events to bus.
func WithEventBus(bus EventBus) ContextOption {
	return func(c *Context) {
		c.bus = bus
	}
}

// WithLogger logs the context's lifecycle events to logger.
func WithLogger(logger *zap.Logger) ContextOption {
	return func(c *Context) {
		c.bus = LogBus{Logger: logger}
	}
}
