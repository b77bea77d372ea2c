package zsock

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// FlatVersion is written into every flat config.
const FlatVersion = 1

// FlatHeartbeat is the persisted form of Heartbeat.
type FlatHeartbeat struct {
	Interval Duration  `yaml:"interval" json:"interval" cbor:"interval"`
	Timeout  *Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" cbor:"timeout,omitempty"`
	TTL      *Duration `yaml:"ttl,omitempty" json:"ttl,omitempty" cbor:"ttl,omitempty"`
}

// FlatMechanism is the persisted form of a Mechanism. Type is one of null,
// plain_client, plain_server, curve_client or curve_server.
type FlatMechanism struct {
	Type      string `yaml:"type" json:"type" cbor:"type"`
	Username  string `yaml:"username,omitempty" json:"username,omitempty" cbor:"username,omitempty"`
	Password  string `yaml:"password,omitempty" json:"password,omitempty" cbor:"password,omitempty"`
	PublicKey string `yaml:"public_key,omitempty" json:"public_key,omitempty" cbor:"public_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty" json:"secret_key,omitempty" cbor:"secret_key,omitempty"`
	ServerKey string `yaml:"server_key,omitempty" json:"server_key,omitempty" cbor:"server_key,omitempty"`
	ZapDomain string `yaml:"zap_domain,omitempty" json:"zap_domain,omitempty" cbor:"zap_domain,omitempty"`
}

// FlatSocketConfig holds the keys shared by every role.
type FlatSocketConfig struct {
	Version        int            `yaml:"version" json:"version" cbor:"version"`
	Connect        []string       `yaml:"connect,omitempty" json:"connect,omitempty" cbor:"connect,omitempty"`
	Bind           []string       `yaml:"bind,omitempty" json:"bind,omitempty" cbor:"bind,omitempty"`
	Backlog        *int           `yaml:"backlog,omitempty" json:"backlog,omitempty" cbor:"backlog,omitempty"`
	ConnectTimeout *Duration      `yaml:"connect_timeout,omitempty" json:"connect_timeout,omitempty" cbor:"connect_timeout,omitempty"`
	Heartbeat      *FlatHeartbeat `yaml:"heartbeat,omitempty" json:"heartbeat,omitempty" cbor:"heartbeat,omitempty"`
	Mechanism      *FlatMechanism `yaml:"mechanism,omitempty" json:"mechanism,omitempty" cbor:"mechanism,omitempty"`
}

type FlatClientConfig struct {
	FlatSocketConfig `yaml:",inline"`
	SendHWM          *HighWaterMark `yaml:"send_hwm,omitempty" json:"send_hwm,omitempty" cbor:"send_hwm,omitempty"`
	SendTimeout      *Period        `yaml:"send_timeout,omitempty" json:"send_timeout,omitempty" cbor:"send_timeout,omitempty"`
	RecvHWM          *HighWaterMark `yaml:"recv_hwm,omitempty" json:"recv_hwm,omitempty" cbor:"recv_hwm,omitempty"`
	RecvTimeout      *Period        `yaml:"recv_timeout,omitempty" json:"recv_timeout,omitempty" cbor:"recv_timeout,omitempty"`
}

type FlatServerConfig struct {
	FlatSocketConfig `yaml:",inline"`
	SendHWM          *HighWaterMark `yaml:"send_hwm,omitempty" json:"send_hwm,omitempty" cbor:"send_hwm,omitempty"`
	SendTimeout      *Period        `yaml:"send_timeout,omitempty" json:"send_timeout,omitempty" cbor:"send_timeout,omitempty"`
	RecvHWM          *HighWaterMark `yaml:"recv_hwm,omitempty" json:"recv_hwm,omitempty" cbor:"recv_hwm,omitempty"`
	RecvTimeout      *Period        `yaml:"recv_timeout,omitempty" json:"recv_timeout,omitempty" cbor:"recv_timeout,omitempty"`
}

type FlatRadioConfig struct {
	FlatSocketConfig `yaml:",inline"`
	SendHWM          *HighWaterMark `yaml:"send_hwm,omitempty" json:"send_hwm,omitempty" cbor:"send_hwm,omitempty"`
	SendTimeout      *Period        `yaml:"send_timeout,omitempty" json:"send_timeout,omitempty" cbor:"send_timeout,omitempty"`
	NoDrop           *bool          `yaml:"no_drop,omitempty" json:"no_drop,omitempty" cbor:"no_drop,omitempty"`
}

type FlatDishConfig struct {
	FlatSocketConfig `yaml:",inline"`
	RecvHWM          *HighWaterMark `yaml:"recv_hwm,omitempty" json:"recv_hwm,omitempty" cbor:"recv_hwm,omitempty"`
	RecvTimeout      *Period        `yaml:"recv_timeout,omitempty" json:"recv_timeout,omitempty" cbor:"recv_timeout,omitempty"`
	Groups           []string       `yaml:"groups,omitempty" json:"groups,omitempty" cbor:"groups,omitempty"`
}

func ref[T any](v *T) *T {
	if v == nil {
		return nil
	}
	copied := *v
	return &copied
}

func cloneStrings(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return slices.Clone(s)
}

func durationRef(d *time.Duration) *Duration {
	if d == nil {
		return nil
	}
	converted := Duration(*d)
	return &converted
}

func stdDurationRef(d *Duration) *time.Duration {
	if d == nil {
		return nil
	}
	converted := d.Std()
	return &converted
}

func flattenMechanism(m Mechanism) *FlatMechanism {
	switch m := m.(type) {
	case Null:
		return &FlatMechanism{Type: "null"}
	case PlainClient:
		return &FlatMechanism{Type: "plain_client", Username: m.Username, Password: m.Password}
	case PlainServer:
		return &FlatMechanism{Type: "plain_server", ZapDomain: m.ZapDomain}
	case CurveClient:
		return &FlatMechanism{
			Type:      "curve_client",
			PublicKey: m.Client.Public,
			SecretKey: m.Client.Secret,
			ServerKey: m.ServerKey,
		}
	case CurveServer:
		return &FlatMechanism{Type: "curve_server", SecretKey: m.Secret, ZapDomain: m.ZapDomain}
	}
	return nil
}

// Mechanism converts the persisted form back.
func (f FlatMechanism) Mechanism() (Mechanism, error) {
	switch f.Type {
	case "null":
		return Null{}, nil
	case "plain_client":
		return PlainClient{Username: f.Username, Password: f.Password}, nil
	case "plain_server":
		return PlainServer{ZapDomain: f.ZapDomain}, nil
	case "curve_client":
		return CurveClient{
			Client:    CurveKeyPair{Public: f.PublicKey, Secret: f.SecretKey},
			ServerKey: f.ServerKey,
		}, nil
	case "curve_server":
		return CurveServer{Secret: f.SecretKey, ZapDomain: f.ZapDomain}, nil
	}
	return nil, fmt.Errorf("unknown mechanism type %q", f.Type)
}

func flattenSocket(sock SocketConfig, hb HeartbeatConfig) FlatSocketConfig {
	flat := FlatSocketConfig{
		Version:        FlatVersion,
		Connect:        cloneStrings(sock.Connect),
		Bind:           cloneStrings(sock.Bind),
		Backlog:        ref(sock.Backlog),
		ConnectTimeout: durationRef(sock.ConnectTimeout),
		Mechanism:      flattenMechanism(sock.Mechanism),
	}

	if hb.Heartbeat != nil {
		flat.Heartbeat = &FlatHeartbeat{Interval: Duration(hb.Heartbeat.Interval)}
		if hb.Heartbeat.Timeout != 0 {
			timeout := Duration(hb.Heartbeat.Timeout)
			flat.Heartbeat.Timeout = &timeout
		}
		if hb.Heartbeat.TTL != 0 {
			ttl := Duration(hb.Heartbeat.TTL)
			flat.Heartbeat.TTL = &ttl
		}
	}
	return flat
}

func (f FlatSocketConfig) layered() (SocketConfig, HeartbeatConfig, error) {
	if f.Version != 0 && f.Version != FlatVersion {
		return SocketConfig{}, HeartbeatConfig{}, fmt.Errorf("unsupported config version %d", f.Version)
	}

	sock := SocketConfig{
		Connect:        cloneStrings(f.Connect),
		Bind:           cloneStrings(f.Bind),
		Backlog:        ref(f.Backlog),
		ConnectTimeout: stdDurationRef(f.ConnectTimeout),
	}
	if f.Mechanism != nil {
		mech, err := f.Mechanism.Mechanism()
		if err != nil {
			return SocketConfig{}, HeartbeatConfig{}, err
		}
		sock.Mechanism = mech
	}

	var hb HeartbeatConfig
	if f.Heartbeat != nil {
		hb.Heartbeat = &Heartbeat{Interval: f.Heartbeat.Interval.Std()}
		if f.Heartbeat.Timeout != nil {
			hb.Heartbeat.Timeout = f.Heartbeat.Timeout.Std()
		}
		if f.Heartbeat.TTL != nil {
			hb.Heartbeat.TTL = f.Heartbeat.TTL.Std()
		}
	}
	return sock, hb, nil
}

// Flatten converts the config to its persisted form.
func (c ClientConfig) Flatten() FlatClientConfig {
	return FlatClientConfig{
		FlatSocketConfig: flattenSocket(c.SocketConfig, c.HeartbeatConfig),
		SendHWM:          ref(c.SendHWM),
		SendTimeout:      ref(c.SendTimeout),
		RecvHWM:          ref(c.RecvHWM),
		RecvTimeout:      ref(c.RecvTimeout),
	}
}

// Layered converts the persisted form back into a ClientConfig.
func (f FlatClientConfig) Layered() (ClientConfig, error) {
	sock, hb, err := f.FlatSocketConfig.layered()
	if err != nil {
		return ClientConfig{}, err
	}
	return ClientConfig{
		SocketConfig:    sock,
		HeartbeatConfig: hb,
		SendConfig:      SendConfig{SendHWM: ref(f.SendHWM), SendTimeout: ref(f.SendTimeout)},
		RecvConfig:      RecvConfig{RecvHWM: ref(f.RecvHWM), RecvTimeout: ref(f.RecvTimeout)},
	}, nil
}

func (c ServerConfig) Flatten() FlatServerConfig {
	return FlatServerConfig{
		FlatSocketConfig: flattenSocket(c.SocketConfig, c.HeartbeatConfig),
		SendHWM:          ref(c.SendHWM),
		SendTimeout:      ref(c.SendTimeout),
		RecvHWM:          ref(c.RecvHWM),
		RecvTimeout:      ref(c.RecvTimeout),
	}
}

func (f FlatServerConfig) Layered() (ServerConfig, error) {
	sock, hb, err := f.FlatSocketConfig.layered()
	if err != nil {
		return ServerConfig{}, err
	}
	return ServerConfig{
		SocketConfig:    sock,
		HeartbeatConfig: hb,
		SendConfig:      SendConfig{SendHWM: ref(f.SendHWM), SendTimeout: ref(f.SendTimeout)},
		RecvConfig:      RecvConfig{RecvHWM: ref(f.RecvHWM), RecvTimeout: ref(f.RecvTimeout)},
	}, nil
}

func (c RadioConfig) Flatten() FlatRadioConfig {
	return FlatRadioConfig{
		FlatSocketConfig: flattenSocket(c.SocketConfig, c.HeartbeatConfig),
		SendHWM:          ref(c.SendHWM),
		SendTimeout:      ref(c.SendTimeout),
		NoDrop:           ref(c.NoDrop),
	}
}

func (f FlatRadioConfig) Layered() (RadioConfig, error) {
	sock, hb, err := f.FlatSocketConfig.layered()
	if err != nil {
		return RadioConfig{}, err
	}
	return RadioConfig{
		SocketConfig:    sock,
		HeartbeatConfig: hb,
		SendConfig:      SendConfig{SendHWM: ref(f.SendHWM), SendTimeout: ref(f.SendTimeout)},
		NoDrop:          ref(f.NoDrop),
	}, nil
}

func (c DishConfig) Flatten() FlatDishConfig {
	return FlatDishConfig{
		FlatSocketConfig: flattenSocket(c.SocketConfig, c.HeartbeatConfig),
		RecvHWM:          ref(c.RecvHWM),
		RecvTimeout:      ref(c.RecvTimeout),
		Groups:           cloneStrings(c.Groups),
	}
}

func (f FlatDishConfig) Layered() (DishConfig, error) {
	sock, hb, err := f.FlatSocketConfig.layered()
	if err != nil {
		return DishConfig{}, err
	}
	return DishConfig{
		SocketConfig:    sock,
		HeartbeatConfig: hb,
		RecvConfig:      RecvConfig{RecvHWM: ref(f.RecvHWM), RecvTimeout: ref(f.RecvTimeout)},
		Groups:          cloneStrings(f.Groups),
	}, nil
}

// Equal compares configs structurally.
func (c ClientConfig) Equal(other ClientConfig) bool {
	return bytes.Equal(canonical(c.Flatten()), canonical(other.Flatten()))
}

// Hash is stable across processes and equal for Equal configs.
func (c ClientConfig) Hash() uint64 {
	return hashFlat(c.Flatten())
}

func (c ServerConfig) Equal(other ServerConfig) bool {
	return bytes.Equal(canonical(c.Flatten()), canonical(other.Flatten()))
}

func (c ServerConfig) Hash() uint64 {
	return hashFlat(c.Flatten())
}

func (c RadioConfig) Equal(other RadioConfig) bool {
	return bytes.Equal(canonical(c.Flatten()), canonical(other.Flatten()))
}

func (c RadioConfig) Hash() uint64 {
	return hashFlat(c.Flatten())
}

func (c DishConfig) Equal(other DishConfig) bool {
	return bytes.Equal(canonical(c.Flatten()), canonical(other.Flatten()))
}

func (c DishConfig) Hash() uint64 {
	return hashFlat(c.Flatten())
}

// decodeFlat unmarshals into a flat config and converts it with layered.
func decodeFlat[F any, L any](unmarshal func(*F) error, layered func(F) (L, error), out *L) error {
	var flat F
	if err := unmarshal(&flat); err != nil {
		return err
	}
	converted, err := layered(flat)
	if err != nil {
		return err
	}
	*out = converted
	return nil
}

func (c ClientConfig) MarshalYAML() (interface{}, error) { return c.Flatten(), nil }
func (c ClientConfig) MarshalJSON() ([]byte, error)      { return json.Marshal(c.Flatten()) }
func (c ClientConfig) MarshalCBOR() ([]byte, error)      { return cborEnc.Marshal(c.Flatten()) }

func (c *ClientConfig) UnmarshalYAML(value *yaml.Node) error {
	return decodeFlat(func(f *FlatClientConfig) error { return value.Decode(f) }, FlatClientConfig.Layered, c)
}

func (c *ClientConfig) UnmarshalJSON(data []byte) error {
	return decodeFlat(func(f *FlatClientConfig) error { return json.Unmarshal(data, f) }, FlatClientConfig.Layered, c)
}

func (c *ClientConfig) UnmarshalCBOR(data []byte) error {
	return decodeFlat(func(f *FlatClientConfig) error { return cborDec.Unmarshal(data, f) }, FlatClientConfig.Layered, c)
}

func (c ServerConfig) MarshalYAML() (interface{}, error) { return c.Flatten(), nil }
func (c ServerConfig) MarshalJSON() ([]byte, error)      { return json.Marshal(c.Flatten()) }
func (c ServerConfig) MarshalCBOR() ([]byte, error)      { return cborEnc.Marshal(c.Flatten()) }

func (c *ServerConfig) UnmarshalYAML(value *yaml.Node) error {
	return decodeFlat(func(f *FlatServerConfig) error { return value.Decode(f) }, FlatServerConfig.Layered, c)
}

func (c *ServerConfig) UnmarshalJSON(data []byte) error {
	return decodeFlat(func(f *FlatServerConfig) error { return json.Unmarshal(data, f) }, FlatServerConfig.Layered, c)
}

func (c *ServerConfig) UnmarshalCBOR(data []byte) error {
	return decodeFlat(func(f *FlatServerConfig) error { return cborDec.Unmarshal(data, f) }, FlatServerConfig.Layered, c)
}

func (c RadioConfig) MarshalYAML() (interface{}, error) { return c.Flatten(), nil }
func (c RadioConfig) MarshalJSON() ([]byte, error)      { return json.Marshal(c.Flatten()) }
func (c RadioConfig) MarshalCBOR() ([]byte, error)      { return cborEnc.Marshal(c.Flatten()) }

func (c *RadioConfig) UnmarshalYAML(value *yaml.Node) error {
	return decodeFlat(func(f *FlatRadioConfig) error { return value.Decode(f) }, FlatRadioConfig.Layered, c)
}

func (c *RadioConfig) UnmarshalJSON(data []byte) error {
	return decodeFlat(func(f *FlatRadioConfig) error { return json.Unmarshal(data, f) }, FlatRadioConfig.Layered, c)
}

func (c *RadioConfig) UnmarshalCBOR(data []byte) error {
	return decodeFlat(func(f *FlatRadioConfig) error { return cborDec.Unmarshal(data, f) }, FlatRadioConfig.Layered, c)
}

func (c DishConfig) MarshalYAML() (interface{}, error) { return c.Flatten(), nil }
func (c DishConfig) MarshalJSON() ([]byte, error)      { return json.Marshal(c.Flatten()) }
func (c DishConfig) MarshalCBOR() ([]byte, error)      { return cborEnc.Marshal(c.Flatten()) }

func (c *DishConfig) UnmarshalYAML(value *yaml.Node) error {
	return decodeFlat(func(f *FlatDishConfig) error { return value.Decode(f) }, FlatDishConfig.Layered, c)
}

func (c *DishConfig) UnmarshalJSON(data []byte) error {
	return decodeFlat(func(f *FlatDishConfig) error { return json.Unmarshal(data, f) }, FlatDishConfig.Layered, c)
}

func (c *DishConfig) UnmarshalCBOR(data []byte) error {
	return decodeFlat(func(f *FlatDishConfig) error { return cborDec.Unmarshal(data, f) }, FlatDishConfig.Layered, c)
}
