// Package zsock is a typed socket layer over a ZeroMQ style messaging
// engine.
//
// Four socket roles are provided. Client and Server exchange single part
// messages, Server addressing peers by RoutingID. Radio sends messages to
// named groups and Dish receives the groups it joined. Each role exposes
// only the calls its pattern supports: a Dish has no Send and a Radio has
// no Recv.
//
// Sockets live in a Context. Terminating the context makes every blocked
// and future call on its sockets fail with CtxTerminated:
//
//	ctx, err := zsock.NewContext(zsock.CtxConfig{})
//	...
//	server, err := zsock.ServerConfig{
//		SocketConfig: zsock.SocketConfig{Bind: []string{"tcp://127.0.0.1:*"}},
//	}.BuildWithContext(ctx)
//
// Failed sends return an *Error[Msg] holding the message, so nothing is
// lost:
//
//	if err := client.TrySend(msg); errors.Is(err, zsock.WouldBlock) {
//		msg, _ = zsock.ContentOf[zsock.Msg](err)
//	}
//
// The messaging itself is done by an engine that registers itself with
// RegisterEngine. Import one for its side effects:
//
//	import _ "github.com/workspace-9/zsock/engine/zmq4"
package zsock
