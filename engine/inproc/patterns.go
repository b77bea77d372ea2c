package inproc

import (
	"bytes"
	"time"

	"github.com/workspace-9/zsock/native"
)

// Send queues msg following the socket's pattern. Blocking sends wait for
// a state change until the send timeout expires.
func (s *socket) Send(msg native.Msg, flags native.Flag) error {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return err
	}
	if s.typ == native.Dish {
		return native.ENOTSUP
	}
	if s.typ == native.Radio && len(msg.Group) > maxGroupLen {
		return native.EINVAL
	}
	msg.Data = bytes.Clone(msg.Data)

	return s.block(native.SendTimeout, flags, func() (bool, error) {
		return s.trySendLocked(msg)
	})
}

// Recv takes the next message, fair queued across pipes.
func (s *socket) Recv(flags native.Flag) (native.Msg, error) {
	c := s.ctx
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return native.Msg{}, err
	}
	if s.typ == native.Radio {
		return native.Msg{}, native.ENOTSUP
	}

	var msg native.Msg
	err := s.block(native.RecvTimeout, flags, func() (bool, error) {
		var ok bool
		msg, ok = s.tryRecvLocked()
		return ok, nil
	})
	return msg, err
}

// block retries attempt until it succeeds or fails. It gives up with
// EAGAIN when flags hold DontWait or the timeout option expires.
func (s *socket) block(timeoutOpt native.Option, flags native.Flag, attempt func() (bool, error)) error {
	c := s.ctx

	timeout := s.durations[timeoutOpt]
	var deadline <-chan time.Time
	if flags&native.DontWait == 0 && timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		done, err := attempt()
		if err != nil || done {
			return err
		}
		if flags&native.DontWait != 0 || timeout == 0 {
			return native.EAGAIN
		}
		if !c.waitLocked(deadline) {
			return native.EAGAIN
		}
		if err := s.checkLocked(); err != nil {
			return err
		}
	}
}

func (s *socket) trySendLocked(msg native.Msg) (bool, error) {
	c := s.ctx

	switch s.typ {
	case native.Client:
		msg.RoutingID, msg.Group = 0, ""
		p := roundRobin(s.pipes, s.lastOut, func(p *pipe) bool {
			return !full(s, p.peer)
		})
		if p == nil {
			return false, nil
		}
		s.lastOut = p.id
		p.peer.push(msg)

	case native.Server:
		p, ok := s.pipes.Get(msg.RoutingID)
		if !ok {
			return false, native.EHOSTUNREACH
		}
		if full(s, p.peer) {
			return false, nil
		}
		msg.RoutingID, msg.Group = 0, ""
		p.peer.push(msg)

	case native.Radio:
		var targets []*pipe
		for pair := s.pipes.Oldest(); pair != nil; pair = pair.Next() {
			if _, ok := pair.Value.peer.owner.groups[msg.Group]; ok {
				targets = append(targets, pair.Value)
			}
		}
		if s.bools[native.NoDrop] {
			for _, p := range targets {
				if full(s, p.peer) {
					return false, nil
				}
			}
		}
		for _, p := range targets {
			if !full(s, p.peer) {
				p.peer.push(msg)
			}
		}
	}

	c.notifyLocked()
	return true, nil
}

func (s *socket) tryRecvLocked() (native.Msg, bool) {
	c := s.ctx

	dropped := false
	p := roundRobin(s.pipes, s.lastIn, func(p *pipe) bool {
		for s.typ == native.Dish && len(p.queue) > 0 {
			if _, ok := s.groups[p.queue[0].Group]; ok {
				break
			}
			p.pop()
			dropped = true
		}
		return len(p.queue) > 0
	})
	if p == nil {
		if dropped {
			c.notifyLocked()
		}
		return native.Msg{}, false
	}

	s.lastIn = p.id
	msg := p.pop()
	if s.typ == native.Server {
		msg.RoutingID = p.id
	}
	c.notifyLocked()
	return msg, true
}
