package zsock

import "github.com/workspace-9/zsock/native"

// Client is the connecting side of the client/server pattern. Outgoing
// messages are distributed round robin over the connected peers and
// incoming messages are fair queued. Send blocks in mute state, it never
// drops.
type Client struct {
	socketCore
	sendCore
	recvCore
}

var (
	_ Socket  = (*Client)(nil)
	_ SendMsg = (*Client)(nil)
	_ RecvMsg = (*Client)(nil)
)

// NewClient opens a Client in the global context.
func NewClient() (*Client, error) {
	return NewClientWithContext(Global())
}

func NewClientWithContext(ctx *Context) (*Client, error) {
	sock, err := newRawSocket(ctx, native.Client)
	if err != nil {
		return nil, err
	}
	return &Client{socketCore{sock}, sendCore{sock}, recvCore{sock}}, nil
}
