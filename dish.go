package zsock

import (
	"fmt"
	"slices"

	"github.com/workspace-9/zsock/native"
)

// Dish receives the messages a Radio sends to the groups it joined.
type Dish struct {
	socketCore
	recvCore
}

var (
	_ Socket  = (*Dish)(nil)
	_ RecvMsg = (*Dish)(nil)
)

// NewDish opens a Dish in the global context.
func NewDish() (*Dish, error) {
	return NewDishWithContext(Global())
}

func NewDishWithContext(ctx *Context) (*Dish, error) {
	sock, err := newRawSocket(ctx, native.Dish)
	if err != nil {
		return nil, err
	}
	return &Dish{socketCore{sock}, recvCore{sock}}, nil
}

// Join subscribes to group. Joining a group twice or a group longer than
// MaxGroupLen fails with InvalidInput.
func (d *Dish) Join(group string) error {
	return d.socketCore.s.join(group)
}

// Leave unsubscribes from group. Leaving a group that was not joined fails
// with InvalidInput.
func (d *Dish) Leave(group string) error {
	return d.socketCore.s.leave(group)
}

// Groups lists the joined groups in join order.
func (d *Dish) Groups() []string {
	return d.socketCore.s.joined()
}

func (s *rawSocket) groupError(op, group string, errno native.Errno) error {
	switch errno {
	case native.EINVAL:
		return s.fail("", InvalidInput, fmt.Sprintf("cannot %s group %q", op, group))
	case native.ETERM:
		return newError[struct{}](CtxTerminated)
	case native.EINTR:
		return newError[struct{}](Interrupted)
	case native.ENOTSUP:
		fatal(fmt.Sprintf("%s is not supported by %s sockets", op, s.role), errno)
	case native.ENOTSOCK:
		fatal("invalid socket", errno)
	}
	unmapped(op, errno)
	return nil
}

func (s *rawSocket) join(group string) error {
	if len(group) > MaxGroupLen {
		return s.fail("", InvalidInput, fmt.Sprintf("group %q is longer than %d bytes", group, MaxGroupLen))
	}
	if err := s.terminated(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.groups, group) {
		return s.fail("", InvalidInput, fmt.Sprintf("group %q already joined", group))
	}
	if err := s.native.Join(group); err != nil {
		return s.groupError("join", group, native.AsErrno(err))
	}
	s.groups = append(s.groups, group)
	s.post(Event{EventType: EventTypeJoined, Notes: group})
	return nil
}

func (s *rawSocket) leave(group string) error {
	if err := s.terminated(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.Index(s.groups, group)
	if idx < 0 {
		return s.fail("", InvalidInput, fmt.Sprintf("group %q not joined", group))
	}
	if err := s.native.Leave(group); err != nil {
		return s.groupError("leave", group, native.AsErrno(err))
	}
	s.groups = slices.Delete(s.groups, idx, idx+1)
	s.post(Event{EventType: EventTypeLeft, Notes: group})
	return nil
}

func (s *rawSocket) joined() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.groups)
}

func (s *rawSocket) hasJoined(group string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.groups, group)
}
