package zsock_test

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/workspace-9/zsock"
	"github.com/workspace-9/zsock/internal/ztest"
	"github.com/workspace-9/zsock/native"
)

func ptr[T any](v T) *T {
	return &v
}

type recorder struct {
	sync.Mutex
	events []zsock.Event
}

func (r *recorder) Post(ev zsock.Event) {
	r.Lock()
	defer r.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) count(typ zsock.EventType, role native.SocketType) int {
	r.Lock()
	defer r.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.EventType == typ && ev.Role == role {
			n++
		}
	}
	return n
}

func fullClientConfig(t *testing.T) zsock.ClientConfig {
	pair, err := zsock.NewCurveKeyPair()
	require.NoError(t, err)
	server, err := zsock.NewCurveKeyPair()
	require.NoError(t, err)

	return zsock.ClientConfig{
		SocketConfig: zsock.SocketConfig{
			Connect:        []string{"tcp://127.0.0.1:7001", "inproc://client-config"},
			Backlog:        ptr(20),
			ConnectTimeout: ptr(3 * time.Second),
			Mechanism:      zsock.CurveClient{Client: pair, ServerKey: server.Public},
		},
		SendConfig: zsock.SendConfig{
			SendHWM:     ptr(zsock.Limited(10)),
			SendTimeout: ptr(zsock.Finite(250 * time.Millisecond)),
		},
		RecvConfig: zsock.RecvConfig{
			RecvHWM:     ptr(zsock.Unlimited),
			RecvTimeout: ptr(zsock.Infinite),
		},
		HeartbeatConfig: zsock.HeartbeatConfig{
			Heartbeat: ptr(zsock.NewHeartbeat(time.Second).WithTimeout(2 * time.Second).WithTTL(10 * time.Second)),
		},
	}
}

func sampleConfigs(t *testing.T) []any {
	return []any{
		zsock.ClientConfig{},
		fullClientConfig(t),
		zsock.ServerConfig{
			SocketConfig: zsock.SocketConfig{Bind: []string{"tcp://*:7002"}, Mechanism: zsock.PlainServer{ZapDomain: "global"}},
			SendConfig:   zsock.SendConfig{SendHWM: ptr(zsock.Limited(1))},
		},
		zsock.RadioConfig{
			SocketConfig:    zsock.SocketConfig{Connect: []string{"udp://127.0.0.1:7003"}, Mechanism: zsock.Null{}},
			HeartbeatConfig: zsock.HeartbeatConfig{Heartbeat: ptr(zsock.NewHeartbeat(500 * time.Millisecond))},
			NoDrop:          ptr(true),
		},
		zsock.DishConfig{
			SocketConfig: zsock.SocketConfig{Bind: []string{"udp://*:7003"}},
			RecvConfig:   zsock.RecvConfig{RecvTimeout: ptr(zsock.Finite(time.Minute))},
			Groups:       []string{"weather", "sports"},
		},
	}
}

type codec struct {
	name      string
	marshal   func(any) ([]byte, error)
	unmarshal func([]byte, any) error
}

var codecs = []codec{
	{"yaml", yaml.Marshal, yaml.Unmarshal},
	{"json", json.Marshal, json.Unmarshal},
	{"cbor", cbor.Marshal, cbor.Unmarshal},
}

// roundTrip decodes data into a fresh value of the same type as sample.
func roundTrip(t *testing.T, c codec, sample any, data []byte) any {
	switch sample.(type) {
	case zsock.ClientConfig:
		var out zsock.ClientConfig
		require.NoError(t, c.unmarshal(data, &out))
		return out
	case zsock.ServerConfig:
		var out zsock.ServerConfig
		require.NoError(t, c.unmarshal(data, &out))
		return out
	case zsock.RadioConfig:
		var out zsock.RadioConfig
		require.NoError(t, c.unmarshal(data, &out))
		return out
	case zsock.DishConfig:
		var out zsock.DishConfig
		require.NoError(t, c.unmarshal(data, &out))
		return out
	}
	t.Fatalf("unexpected config %T", sample)
	return nil
}

func configEqual(a, b any) bool {
	switch a := a.(type) {
	case zsock.ClientConfig:
		return a.Equal(b.(zsock.ClientConfig))
	case zsock.ServerConfig:
		return a.Equal(b.(zsock.ServerConfig))
	case zsock.RadioConfig:
		return a.Equal(b.(zsock.RadioConfig))
	case zsock.DishConfig:
		return a.Equal(b.(zsock.DishConfig))
	}
	return false
}

func TestConfigRoundTrip(t *testing.T) {
	for _, c := range codecs {
		t.Run(c.name, func(t *testing.T) {
			for _, sample := range sampleConfigs(t) {
				data, err := c.marshal(sample)
				require.NoError(t, err)

				decoded := roundTrip(t, c, sample, data)
				assert.True(t, configEqual(sample, decoded), "%T did not survive %s:\n%s", sample, c.name, data)
				assert.Equal(t, sample, decoded)

				again, err := c.marshal(decoded)
				require.NoError(t, err)
				assert.Equal(t, data, again)
			}
		})
	}
}

func TestFlatConfigYAML(t *testing.T) {
	const doc = `
connect: [inproc://a]
send_hwm: unlimited
recv_hwm: "500"
recv_timeout: 1s
heartbeat:
  interval: 2s
mechanism:
  type: plain_client
  username: admin
  password: secret
`
	var conf zsock.ClientConfig
	require.NoError(t, yaml.Unmarshal([]byte(doc), &conf))

	assert.Equal(t, []string{"inproc://a"}, conf.Connect)
	assert.Equal(t, zsock.Unlimited, *conf.SendHWM)
	assert.Equal(t, zsock.Limited(500), *conf.RecvHWM)
	assert.Equal(t, zsock.Finite(time.Second), *conf.RecvTimeout)
	assert.Equal(t, zsock.Heartbeat{Interval: 2 * time.Second}, *conf.Heartbeat)
	assert.Equal(t, zsock.PlainClient{Username: "admin", Password: "secret"}, conf.Mechanism)
	assert.Equal(t, 1, conf.Flatten().Version)

	err := yaml.Unmarshal([]byte("version: 2\n"), &conf)
	assert.ErrorContains(t, err, "unsupported config version 2")

	err = yaml.Unmarshal([]byte("mechanism: {type: kerberos}\n"), &conf)
	assert.ErrorContains(t, err, "unknown mechanism")
}

func TestConfigEqualAndHash(t *testing.T) {
	a := fullClientConfig(t)
	b := a
	b.Connect = append([]string(nil), a.Connect...)
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())

	b.Backlog = ptr(21)
	assert.False(t, a.Equal(b))
	assert.NotEqual(t, a.Hash(), b.Hash())

	assert.True(t, zsock.DishConfig{Groups: []string{}}.Equal(zsock.DishConfig{}))
}

type clientState struct {
	sendHWM        zsock.HighWaterMark
	recvHWM        zsock.HighWaterMark
	sendTimeout    zsock.Period
	recvTimeout    zsock.Period
	backlog        int
	connectTimeout time.Duration
	hbInterval     time.Duration
	hbTimeout      time.Duration
	hbTTL          time.Duration
	mechanism      zsock.Mechanism
}

func snapshot(t *testing.T, client *zsock.Client) clientState {
	var (
		st  clientState
		err error
	)
	st.sendHWM, err = client.SendHWM()
	require.NoError(t, err)
	st.recvHWM, err = client.RecvHWM()
	require.NoError(t, err)
	st.sendTimeout, err = client.SendTimeout()
	require.NoError(t, err)
	st.recvTimeout, err = client.RecvTimeout()
	require.NoError(t, err)
	st.backlog, err = client.Backlog()
	require.NoError(t, err)
	st.connectTimeout, err = client.ConnectTimeout()
	require.NoError(t, err)
	st.hbInterval, err = client.HeartbeatInterval()
	require.NoError(t, err)
	st.hbTimeout, err = client.HeartbeatTimeout()
	require.NoError(t, err)
	st.hbTTL, err = client.HeartbeatTTL()
	require.NoError(t, err)
	st.mechanism = client.Mechanism()
	return st
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := ztest.Context(t)
	conf := fullClientConfig(t)
	client := ztest.Client(t, ctx)

	require.NoError(t, conf.Apply(client))
	once := snapshot(t, client)
	require.NoError(t, conf.Apply(client))
	twice := snapshot(t, client)

	assert.Equal(t, once, twice)
	assert.Equal(t, zsock.Limited(10), once.sendHWM)
	assert.Equal(t, 20, once.backlog)
	assert.Equal(t, 10*time.Second, once.hbTTL)
}

func TestDishApplyIsIdempotent(t *testing.T) {
	ctx := ztest.Context(t)
	conf := zsock.DishConfig{
		SocketConfig: zsock.SocketConfig{Bind: []string{ztest.Endpoint()}},
		Groups:       []string{"a", "b"},
	}
	dish := ztest.Dish(t, ctx)

	require.NoError(t, conf.Apply(dish))
	require.NoError(t, conf.Apply(dish))
	assert.Equal(t, []string{"a", "b"}, dish.Groups())
}

func TestApplyRebindsAfterUnbind(t *testing.T) {
	ctx := ztest.Context(t)
	conf := zsock.ServerConfig{
		SocketConfig: zsock.SocketConfig{Bind: []string{"tcp://127.0.0.1:*"}},
	}
	server := ztest.Server(t, ctx)

	require.NoError(t, conf.Apply(server))
	first, err := server.LastEndpoint()
	require.NoError(t, err)
	require.NoError(t, server.Unbind(first))

	require.NoError(t, conf.Apply(server))
	second, err := server.LastEndpoint()
	require.NoError(t, err)

	client := ztest.Client(t, ctx)
	require.NoError(t, client.Connect(second))
	require.NoError(t, client.Send(zsock.MsgString("rebound")))
	req, err := server.RecvMsg()
	require.NoError(t, err)
	assert.Equal(t, "rebound", req.String())
}

func TestBuildClosesFailedSocket(t *testing.T) {
	rec := &recorder{}
	ctx := ztest.Context(t, zsock.WithEventBus(rec))
	taken := ztest.Server(t, ctx)
	require.NoError(t, taken.Bind("tcp://*:7100"))

	server, err := zsock.ServerConfig{
		SocketConfig: zsock.SocketConfig{Bind: []string{"tcp://127.0.0.1:7100"}},
	}.BuildWithContext(ctx)
	assert.Nil(t, server)
	assert.ErrorIs(t, err, zsock.AddrInUse)

	assert.Equal(t, 2, rec.count(zsock.EventTypeOpened, native.Server))
	assert.Equal(t, 1, rec.count(zsock.EventTypeClosed, native.Server))
	assert.Equal(t, 1, rec.count(zsock.EventTypeFailed, native.Server))
}

func TestBuildRoles(t *testing.T) {
	ctx := ztest.Context(t)
	endpoint := ztest.Endpoint()
	const group = "weather"

	radio, err := zsock.RadioConfig{
		SocketConfig: zsock.SocketConfig{Bind: []string{endpoint}},
		NoDrop:       ptr(true),
	}.BuildWithContext(ctx)
	require.NoError(t, err)
	defer radio.Close()

	dish, err := zsock.DishConfig{
		SocketConfig: zsock.SocketConfig{Connect: []string{endpoint}},
		RecvConfig:   zsock.RecvConfig{RecvTimeout: ptr(zsock.Finite(time.Second))},
		Groups:       []string{group},
	}.BuildWithContext(ctx)
	require.NoError(t, err)
	defer dish.Close()

	noDrop, err := radio.NoDrop()
	require.NoError(t, err)
	assert.True(t, noDrop)

	require.NoError(t, radio.Transmit(zsock.MsgString("built"), group))
	got, err := dish.RecvMsg()
	require.NoError(t, err)
	assert.Equal(t, "built", got.String())
}
