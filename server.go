package zsock

import "github.com/workspace-9/zsock/native"

// Server is the binding side of the client/server pattern. Every received
// message carries the RoutingID of its peer and every sent message must
// carry the RoutingID of a connected peer, otherwise the send fails with
// HostUnreachable.
type Server struct {
	socketCore
	sendCore
	recvCore
}

var (
	_ Socket  = (*Server)(nil)
	_ SendMsg = (*Server)(nil)
	_ RecvMsg = (*Server)(nil)
)

// NewServer opens a Server in the global context.
func NewServer() (*Server, error) {
	return NewServerWithContext(Global())
}

func NewServerWithContext(ctx *Context) (*Server, error) {
	sock, err := newRawSocket(ctx, native.Server)
	if err != nil {
		return nil, err
	}
	return &Server{socketCore{sock}, sendCore{sock}, recvCore{sock}}, nil
}

// Route sends msg to the peer identified by id.
func (s *Server) Route(msg Msg, id RoutingID) error {
	msg.SetRoutingID(id)
	return s.Send(msg)
}

// TryRoute is Route failing with WouldBlock instead of blocking.
func (s *Server) TryRoute(msg Msg, id RoutingID) error {
	msg.SetRoutingID(id)
	return s.TrySend(msg)
}
