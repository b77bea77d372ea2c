package zsock

import (
	"time"

	"go.uber.org/multierr"
)

// SocketConfig holds the options shared by every role. Nil fields leave the
// engine default in place.
type SocketConfig struct {
	Connect        []string
	Bind           []string
	Backlog        *int
	ConnectTimeout *time.Duration
	Mechanism      Mechanism
}

// HeartbeatConfig enables ZMTP heartbeats when Heartbeat is set.
type HeartbeatConfig struct {
	Heartbeat *Heartbeat
}

type SendConfig struct {
	SendHWM     *HighWaterMark
	SendTimeout *Period
}

type RecvConfig struct {
	RecvHWM     *HighWaterMark
	RecvTimeout *Period
}

// applyMechanism runs before any endpoint is used so that every connection
// is made with the configured mechanism.
func (c SocketConfig) applyMechanism(sock socketCore) error {
	if c.Mechanism == nil {
		return nil
	}
	return sock.SetMechanism(c.Mechanism)
}

// applyEndpoints connects, binds, then sets the backlog and the connect
// timeout. Endpoints already connected or bound through sock are skipped.
func (c SocketConfig) applyEndpoints(sock socketCore) error {
	for _, endpoint := range c.Connect {
		if sock.s.isConnected(endpoint) {
			continue
		}
		if err := sock.Connect(endpoint); err != nil {
			return err
		}
	}

	for _, endpoint := range c.Bind {
		if sock.s.isBound(endpoint) {
			continue
		}
		if err := sock.Bind(endpoint); err != nil {
			return err
		}
	}

	if c.Backlog != nil {
		if err := sock.SetBacklog(*c.Backlog); err != nil {
			return err
		}
	}

	if c.ConnectTimeout != nil {
		if err := sock.SetConnectTimeout(*c.ConnectTimeout); err != nil {
			return err
		}
	}
	return nil
}

func (c HeartbeatConfig) apply(sock socketCore) error {
	if c.Heartbeat == nil {
		return nil
	}
	if err := sock.SetHeartbeatInterval(c.Heartbeat.Interval); err != nil {
		return err
	}
	if err := sock.SetHeartbeatTimeout(c.Heartbeat.Timeout); err != nil {
		return err
	}
	return sock.SetHeartbeatTTL(c.Heartbeat.TTL)
}

func (c SendConfig) apply(sock sendCore) error {
	if c.SendHWM != nil {
		if err := sock.SetSendHWM(*c.SendHWM); err != nil {
			return err
		}
	}
	if c.SendTimeout != nil {
		return sock.SetSendTimeout(*c.SendTimeout)
	}
	return nil
}

func (c RecvConfig) apply(sock recvCore) error {
	if c.RecvHWM != nil {
		if err := sock.SetRecvHWM(*c.RecvHWM); err != nil {
			return err
		}
	}
	if c.RecvTimeout != nil {
		return sock.SetRecvTimeout(*c.RecvTimeout)
	}
	return nil
}

// applySteps runs steps in order and stops at the first error.
func applySteps(steps ...func() error) error {
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// built closes sock when err is set so that a half configured socket is
// never handed out.
func built[S Socket](sock S, err error) (S, error) {
	if err != nil {
		var zero S
		return zero, multierr.Append(err, sock.Close())
	}
	return sock, nil
}

// ClientConfig configures a Client.
type ClientConfig struct {
	SocketConfig
	SendConfig
	RecvConfig
	HeartbeatConfig
}

// Apply pushes every set field onto client. Applying the same config twice
// leaves the socket in the same state as applying it once.
func (c ClientConfig) Apply(client *Client) error {
	return applySteps(
		func() error { return c.SendConfig.apply(client.sendCore) },
		func() error { return c.RecvConfig.apply(client.recvCore) },
		func() error { return c.HeartbeatConfig.apply(client.socketCore) },
		func() error { return c.SocketConfig.applyMechanism(client.socketCore) },
		func() error { return c.SocketConfig.applyEndpoints(client.socketCore) },
	)
}

// Build opens a Client in the global context and applies the config.
func (c ClientConfig) Build() (*Client, error) {
	return c.BuildWithContext(Global())
}

func (c ClientConfig) BuildWithContext(ctx *Context) (*Client, error) {
	client, err := NewClientWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return built(client, c.Apply(client))
}

// ServerConfig configures a Server.
type ServerConfig struct {
	SocketConfig
	SendConfig
	RecvConfig
	HeartbeatConfig
}

func (c ServerConfig) Apply(server *Server) error {
	return applySteps(
		func() error { return c.SendConfig.apply(server.sendCore) },
		func() error { return c.RecvConfig.apply(server.recvCore) },
		func() error { return c.HeartbeatConfig.apply(server.socketCore) },
		func() error { return c.SocketConfig.applyMechanism(server.socketCore) },
		func() error { return c.SocketConfig.applyEndpoints(server.socketCore) },
	)
}

func (c ServerConfig) Build() (*Server, error) {
	return c.BuildWithContext(Global())
}

func (c ServerConfig) BuildWithContext(ctx *Context) (*Server, error) {
	server, err := NewServerWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return built(server, c.Apply(server))
}

// RadioConfig configures a Radio.
type RadioConfig struct {
	SocketConfig
	SendConfig
	HeartbeatConfig
	NoDrop *bool
}

func (c RadioConfig) Apply(radio *Radio) error {
	return applySteps(
		func() error { return c.SendConfig.apply(radio.sendCore) },
		func() error { return c.HeartbeatConfig.apply(radio.socketCore) },
		func() error { return c.SocketConfig.applyMechanism(radio.socketCore) },
		func() error { return c.SocketConfig.applyEndpoints(radio.socketCore) },
		func() error {
			if c.NoDrop == nil {
				return nil
			}
			return radio.SetNoDrop(*c.NoDrop)
		},
	)
}

func (c RadioConfig) Build() (*Radio, error) {
	return c.BuildWithContext(Global())
}

func (c RadioConfig) BuildWithContext(ctx *Context) (*Radio, error) {
	radio, err := NewRadioWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return built(radio, c.Apply(radio))
}

// DishConfig configures a Dish. Groups are joined after the endpoints are
// set up; groups the dish already joined are skipped.
type DishConfig struct {
	SocketConfig
	RecvConfig
	HeartbeatConfig
	Groups []string
}

func (c DishConfig) Apply(dish *Dish) error {
	return applySteps(
		func() error { return c.RecvConfig.apply(dish.recvCore) },
		func() error { return c.HeartbeatConfig.apply(dish.socketCore) },
		func() error { return c.SocketConfig.applyMechanism(dish.socketCore) },
		func() error { return c.SocketConfig.applyEndpoints(dish.socketCore) },
		func() error {
			for _, group := range c.Groups {
				if dish.socketCore.s.hasJoined(group) {
					continue
				}
				if err := dish.Join(group); err != nil {
					return err
				}
			}
			return nil
		},
	)
}

func (c DishConfig) Build() (*Dish, error) {
	return c.BuildWithContext(Global())
}

func (c DishConfig) BuildWithContext(ctx *Context) (*Dish, error) {
	dish, err := NewDishWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return built(dish, c.Apply(dish))
}
