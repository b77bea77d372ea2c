package zsock

import "github.com/workspace-9/zsock/native"

// RoutingID names the peer a Server message came from. A zero RoutingID
// means the message carries none.
type RoutingID uint32

// MaxGroupLen is the longest group name the engine accepts, in bytes.
const MaxGroupLen = 15

// Msg is a single part message.
type Msg struct {
	payload   []byte
	routingID RoutingID
	group     string
}

// NewMsg wraps data without copying it.
func NewMsg(data []byte) Msg {
	return Msg{payload: data}
}

// MsgString builds a message from a string.
func MsgString(s string) Msg {
	return Msg{payload: []byte(s)}
}

// Bytes returns the payload.
func (m Msg) Bytes() []byte {
	return m.payload
}

func (m Msg) String() string {
	return string(m.payload)
}

// Len of the payload.
func (m Msg) Len() int {
	return len(m.payload)
}

// RoutingID is set on every message a Server receives.
func (m Msg) RoutingID() (RoutingID, bool) {
	return m.routingID, m.routingID != 0
}

// SetRoutingID addresses the message to a Server peer.
func (m *Msg) SetRoutingID(id RoutingID) {
	m.routingID = id
}

// Group is set on every message a Dish receives.
func (m Msg) Group() (string, bool) {
	return m.group, m.group != ""
}

// SetGroup tags the message for Radio delivery.
func (m *Msg) SetGroup(group string) {
	m.group = group
}

func (m Msg) native() native.Msg {
	return native.Msg{
		Data:      m.payload,
		RoutingID: uint32(m.routingID),
		Group:     m.group,
	}
}

func msgFromNative(msg native.Msg) Msg {
	return Msg{
		payload:   msg.Data,
		routingID: RoutingID(msg.RoutingID),
		group:     msg.Group,
	}
}
