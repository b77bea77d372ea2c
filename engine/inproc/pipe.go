package inproc

import (
	wk8 "github.com/wk8/go-ordered-map/v2"

	"github.com/workspace-9/zsock/native"
)

// pipe is one end of a link. queue holds the messages waiting for owner.
type pipe struct {
	id    uint32
	owner *socket
	peer  *pipe
	link  *link
	queue []native.Msg
}

// link joins a connecting socket to a binding one.
type link struct {
	key       string
	connector *pipe
	binder    *pipe
}

// connection is a connect call. link is nil until the endpoint is bound.
type connection struct {
	endpoint endpoint
	link     *link
}

func compatible(a, b native.SocketType) bool {
	switch a {
	case native.Client:
		return b == native.Server
	case native.Server:
		return b == native.Client
	case native.Radio:
		return b == native.Dish
	case native.Dish:
		return b == native.Radio
	}
	return false
}

// attachLocked links connector to binder.
func (c *Context) attachLocked(connector *socket, conn *connection, binder *socket) {
	if conn.link != nil || !compatible(connector.typ, binder.typ) {
		return
	}

	a := &pipe{id: c.nextPipeID(), owner: connector}
	b := &pipe{id: c.nextPipeID(), owner: binder}
	a.peer, b.peer = b, a
	l := &link{key: conn.endpoint.key, connector: a, binder: b}
	a.link, b.link = l, l

	conn.link = l
	connector.pipes.Set(a.id, a)
	binder.pipes.Set(b.id, b)
	c.notifyLocked()
}

// detachLocked drops a link and the messages queued on it. The connector
// keeps its connection so that a later bind reattaches it.
func (c *Context) detachLocked(l *link) {
	l.connector.owner.pipes.Delete(l.connector.id)
	l.binder.owner.pipes.Delete(l.binder.id)
	for _, conn := range l.connector.owner.connects {
		if conn.link == l {
			conn.link = nil
		}
	}
	c.notifyLocked()
}

// attachPendingLocked links every socket waiting to connect to key.
func (c *Context) attachPendingLocked(key string, binder *socket) {
	for sock := range c.sockets {
		for _, conn := range sock.connects {
			if conn.link == nil && conn.endpoint.key == key {
				c.attachLocked(sock, conn, binder)
			}
		}
	}
}

// limit is the number of messages a pipe holds, the sum of both high water
// marks. Zero means unlimited.
func limit(sndhwm, rcvhwm int) int {
	if sndhwm <= 0 || rcvhwm <= 0 {
		return 0
	}
	return sndhwm + rcvhwm
}

// full reports whether sender may not queue another message on dst.
func full(sender *socket, dst *pipe) bool {
	max := limit(sender.ints[native.SendHWM], dst.owner.ints[native.RecvHWM])
	return max > 0 && len(dst.queue) >= max
}

func (p *pipe) push(msg native.Msg) {
	p.queue = append(p.queue, msg)
}

func (p *pipe) pop() native.Msg {
	msg := p.queue[0]
	p.queue[0] = native.Msg{}
	p.queue = p.queue[1:]
	return msg
}

// roundRobin walks pipes starting after last and returns the first pipe
// accept takes, or nil when none does.
func roundRobin(pipes *wk8.OrderedMap[uint32, *pipe], last uint32, accept func(*pipe) bool) *pipe {
	n := pipes.Len()
	if n == 0 {
		return nil
	}

	var cur *wk8.Pair[uint32, *pipe]
	if start := pipes.GetPair(last); start != nil {
		cur = start.Next()
	}
	for i := 0; i < n; i++ {
		if cur == nil {
			cur = pipes.Oldest()
		}
		if accept(cur.Value) {
			return cur.Value
		}
		cur = cur.Next()
	}
	return nil
}
