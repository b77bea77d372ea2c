package zsock

import "github.com/workspace-9/zsock/native"

// Radio distributes messages to the Dish sockets that joined the message's
// group. A subscriber in mute state misses the message unless NoDrop is
// set, in which case Send blocks.
type Radio struct {
	socketCore
	sendCore
}

var (
	_ Socket  = (*Radio)(nil)
	_ SendMsg = (*Radio)(nil)
)

// NewRadio opens a Radio in the global context.
func NewRadio() (*Radio, error) {
	return NewRadioWithContext(Global())
}

func NewRadioWithContext(ctx *Context) (*Radio, error) {
	sock, err := newRawSocket(ctx, native.Radio)
	if err != nil {
		return nil, err
	}
	return &Radio{socketCore{sock}, sendCore{sock}}, nil
}

// Transmit sends msg to group.
func (r *Radio) Transmit(msg Msg, group string) error {
	msg.SetGroup(group)
	return r.Send(msg)
}

// TryTransmit is Transmit failing with WouldBlock instead of blocking.
func (r *Radio) TryTransmit(msg Msg, group string) error {
	msg.SetGroup(group)
	return r.TrySend(msg)
}

// NoDrop reports whether Send blocks on subscribers in mute state.
func (r *Radio) NoDrop() (bool, error) {
	return r.socketCore.s.getBool(native.NoDrop)
}

func (r *Radio) SetNoDrop(enabled bool) error {
	return r.socketCore.s.setBool(native.NoDrop, enabled)
}
