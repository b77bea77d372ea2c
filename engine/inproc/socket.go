package inproc

import (
	"time"

	wk8 "github.com/wk8/go-ordered-map/v2"

	"github.com/workspace-9/zsock/native"
)

// maxHeartbeatTTL is the largest TTL ZMTP can carry.
const maxHeartbeatTTL = 6553599 * time.Millisecond

const maxGroupLen = 15

type socket struct {
	ctx    *Context
	typ    native.SocketType
	closed bool

	pipes    *wk8.OrderedMap[uint32, *pipe]
	lastOut  uint32
	lastIn   uint32
	connects map[string]*connection
	binds    map[string]endpoint
	last     string
	groups   map[string]struct{}

	ints      map[native.Option]int
	durations map[native.Option]time.Duration
	bools     map[native.Option]bool
	strings   map[native.Option]string
}

func (s *socket) checkLocked() error {
	if s.closed {
		return native.ENOTSOCK
	}
	if s.ctx.terminated {
		return native.ETERM
	}
	return nil
}

func (s *socket) Connect(raw string) error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return err
	}
	ep, err := parseEndpoint(c, s.typ, raw, false)
	if err != nil {
		return err
	}
	if _, ok := s.connects[raw]; ok {
		return nil
	}

	conn := &connection{endpoint: ep}
	s.connects[raw] = conn
	if binder, ok := c.bound[ep.key]; ok {
		c.attachLocked(s, conn, binder)
	}
	return nil
}

func (s *socket) Bind(raw string) error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return err
	}
	ep, err := parseEndpoint(c, s.typ, raw, true)
	if err != nil {
		return err
	}
	if _, ok := c.bound[ep.key]; ok {
		return native.EADDRINUSE
	}

	c.bound[ep.key] = s
	s.binds[ep.resolved] = ep
	s.last = ep.resolved
	c.attachPendingLocked(ep.key, s)
	return nil
}

func (s *socket) Disconnect(raw string) error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return err
	}
	conn, ok := s.connects[raw]
	if !ok {
		return native.ENOENT
	}
	if conn.link != nil {
		c.detachLocked(conn.link)
	}
	delete(s.connects, raw)
	return nil
}

// findBind matches the resolved endpoint first, then the endpoint as given
// to Bind.
func (s *socket) findBind(raw string) (endpoint, bool) {
	if ep, ok := s.binds[raw]; ok {
		return ep, true
	}
	for _, ep := range s.binds {
		if ep.raw == raw {
			return ep, true
		}
	}
	return endpoint{}, false
}

func (s *socket) Unbind(raw string) error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return err
	}
	ep, ok := s.findBind(raw)
	if !ok {
		return native.ENOENT
	}
	s.unbindLocked(ep)
	return nil
}

func (s *socket) unbindLocked(ep endpoint) {
	c := s.ctx
	var links []*link
	for pair := s.pipes.Oldest(); pair != nil; pair = pair.Next() {
		l := pair.Value.link
		if l.binder.owner == s && l.key == ep.key {
			links = append(links, l)
		}
	}
	for _, l := range links {
		c.detachLocked(l)
	}
	delete(c.bound, ep.key)
	delete(s.binds, ep.resolved)
	c.notifyLocked()
}

func (s *socket) SetInt(opt native.Option, value int) error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return err
	}
	if _, ok := s.ints[opt]; !ok || value < 0 {
		return native.EINVAL
	}
	s.ints[opt] = value
	c.notifyLocked()
	return nil
}

func (s *socket) GetInt(opt native.Option) (int, error) {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return 0, err
	}
	value, ok := s.ints[opt]
	if !ok {
		return 0, native.EINVAL
	}
	return value, nil
}

func (s *socket) SetBool(opt native.Option, value bool) error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return err
	}
	if _, ok := s.bools[opt]; !ok {
		return native.EINVAL
	}
	s.bools[opt] = value
	c.notifyLocked()
	return nil
}

func (s *socket) GetBool(opt native.Option) (bool, error) {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return false, err
	}
	value, ok := s.bools[opt]
	if !ok {
		return false, native.EINVAL
	}
	return value, nil
}

func (s *socket) SetDuration(opt native.Option, value time.Duration) error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return err
	}
	if _, ok := s.durations[opt]; !ok {
		return native.EINVAL
	}

	switch opt {
	case native.SendTimeout, native.RecvTimeout, native.Linger, native.HeartbeatTimeout:
		if value < 0 {
			value = -1
		}
	case native.HeartbeatTTL:
		if value < 0 || value > maxHeartbeatTTL {
			return native.EINVAL
		}
	default:
		if value < 0 {
			return native.EINVAL
		}
	}
	s.durations[opt] = value
	return nil
}

func (s *socket) GetDuration(opt native.Option) (time.Duration, error) {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return 0, err
	}
	value, ok := s.durations[opt]
	if !ok {
		return 0, native.EINVAL
	}
	return value, nil
}

func (s *socket) SetString(opt native.Option, value string) error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return err
	}
	switch opt {
	case native.CurvePublicKey, native.CurveSecretKey, native.CurveServerKey:
		if len(value) != 32 && len(value) != 40 {
			return native.EINVAL
		}
	case native.PlainUsername, native.PlainPassword, native.ZapDomain:
		if len(value) > 255 {
			return native.EINVAL
		}
	default:
		return native.EINVAL
	}
	s.strings[opt] = value
	return nil
}

func (s *socket) GetString(opt native.Option) (string, error) {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return "", err
	}
	if opt == native.LastEndpoint {
		return s.last, nil
	}
	value, ok := s.strings[opt]
	if !ok {
		return "", native.EINVAL
	}
	return value, nil
}

func (s *socket) Join(group string) error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return err
	}
	if s.typ != native.Dish {
		return native.ENOTSUP
	}
	if len(group) > maxGroupLen {
		return native.EINVAL
	}
	if _, ok := s.groups[group]; ok {
		return native.EINVAL
	}
	s.groups[group] = struct{}{}
	c.notifyLocked()
	return nil
}

func (s *socket) Leave(group string) error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return err
	}
	if s.typ != native.Dish {
		return native.ENOTSUP
	}
	if _, ok := s.groups[group]; !ok {
		return native.EINVAL
	}
	delete(s.groups, group)
	c.notifyLocked()
	return nil
}

// Close drops every link and bind of the socket. It is allowed after the
// context was shut down.
func (s *socket) Close() error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.closed {
		return native.ENOTSOCK
	}

	var links []*link
	for pair := s.pipes.Oldest(); pair != nil; pair = pair.Next() {
		links = append(links, pair.Value.link)
	}
	for _, l := range links {
		c.detachLocked(l)
	}
	for _, ep := range s.binds {
		delete(c.bound, ep.key)
	}

	s.closed = true
	delete(c.sockets, s)
	c.notifyLocked()
	return nil
}
