package zsock

import "github.com/workspace-9/zsock/native"

type EventType int

const (
	EventTypeOpened       = EventType(0)
	EventTypeConnected    = EventType(1)
	EventTypeBound        = EventType(2)
	EventTypeDisconnected = EventType(3)
	EventTypeUnbound      = EventType(4)
	EventTypeJoined       = EventType(5)
	EventTypeLeft         = EventType(6)
	EventTypeClosed       = EventType(7)
	EventTypeTerminated   = EventType(8)
	EventTypeReleased     = EventType(9)
	EventTypeFailed       = EventType(10)
)

func (e EventType) String() string {
	switch e {
	case EventTypeOpened:
		return "Opened"
	case EventTypeConnected:
		return "Connected"
	case EventTypeBound:
		return "Bound"
	case EventTypeDisconnected:
		return "Disconnected"
	case EventTypeUnbound:
		return "Unbound"
	case EventTypeJoined:
		return "Joined"
	case EventTypeLeft:
		return "Left"
	case EventTypeClosed:
		return "Closed"
	case EventTypeTerminated:
		return "Terminated"
	case EventTypeReleased:
		return "Released"
	case EventTypeFailed:
		return "Failed"
	}

	return ""
}

// Event describes a lifecycle change of a context or one of its sockets.
// Role is zero for context events. Kind is only set on EventTypeFailed.
type Event struct {
	EventType
	Context  string
	Role     native.SocketType
	Endpoint string
	Notes    string
	Kind     ErrorKind
}

type EventBus interface {
	Post(Event)
}

// MultiBus posts every event to each of its buses in order.
type MultiBus []EventBus

func (m MultiBus) Post(ev Event) {
	for _, bus := range m {
		bus.Post(ev)
	}
}

type nopBus struct{}

func (nopBus) Post(Event) {}
