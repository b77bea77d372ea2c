package zsock

import (
	"fmt"

	"github.com/workspace-9/zsock/native"
)

// RecvMsg is implemented by the roles that can receive. A failed receive
// leaves any queued message in place for the next call.
type RecvMsg interface {
	// Recv blocks until a message arrives and stores it in msg.
	Recv(msg *Msg) error
	// TryRecv fails with WouldBlock when no message is queued.
	TryRecv(msg *Msg) error
	// RecvMsg is Recv returning a new message.
	RecvMsg() (Msg, error)
	// TryRecvMsg is TryRecv returning a new message.
	TryRecvMsg() (Msg, error)
	RecvHWM() (HighWaterMark, error)
	SetRecvHWM(hwm HighWaterMark) error
	// RecvTimeout bounds how long Recv blocks before failing with
	// WouldBlock.
	RecvTimeout() (Period, error)
	SetRecvTimeout(timeout Period) error

	raw() *rawSocket
}

func (s *rawSocket) recv(msg *Msg, flags native.Flag) error {
	if err := s.terminated(); err != nil {
		return err
	}

	received, err := s.native.Recv(flags)
	if err == nil {
		*msg = msgFromNative(received)
		return nil
	}

	errno := native.AsErrno(err)
	switch errno {
	case native.EAGAIN:
		return newError[struct{}](WouldBlock)
	case native.ETERM:
		return newError[struct{}](CtxTerminated)
	case native.EINTR:
		return newError[struct{}](Interrupted)
	case native.ENOTSUP:
		fatal(fmt.Sprintf("recv is not supported by %s sockets", s.role), errno)
	case native.EFSM:
		fatal("recv in invalid socket state", errno)
	case native.ENOTSOCK:
		fatal("invalid socket", errno)
	case native.EFAULT:
		fatal("invalid message", errno)
	}
	unmapped("recv", errno)
	return nil
}

type recvCore struct {
	s *rawSocket
}

func (c recvCore) Recv(msg *Msg) error {
	return c.s.recv(msg, 0)
}

func (c recvCore) TryRecv(msg *Msg) error {
	return c.s.recv(msg, native.DontWait)
}

func (c recvCore) RecvMsg() (Msg, error) {
	var msg Msg
	err := c.s.recv(&msg, 0)
	return msg, err
}

func (c recvCore) TryRecvMsg() (Msg, error) {
	var msg Msg
	err := c.s.recv(&msg, native.DontWait)
	return msg, err
}

func (c recvCore) RecvHWM() (HighWaterMark, error) {
	hwm, err := c.s.getInt(native.RecvHWM)
	if err != nil {
		return Unlimited, err
	}
	return hwmFromNative(hwm), nil
}

func (c recvCore) SetRecvHWM(hwm HighWaterMark) error {
	return c.s.setInt(native.RecvHWM, hwm.native())
}

func (c recvCore) RecvTimeout() (Period, error) {
	timeout, err := c.s.getDuration(native.RecvTimeout)
	if err != nil {
		return Infinite, err
	}
	return periodFromNative(timeout), nil
}

func (c recvCore) SetRecvTimeout(timeout Period) error {
	return c.s.setDuration(native.RecvTimeout, timeout.native())
}
