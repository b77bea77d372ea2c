package zsock

import (
	"fmt"

	"github.com/workspace-9/zsock/native"
)

// SendMsg is implemented by the roles that can send. A failed send returns
// an *Error[Msg] holding the message that was not sent:
//
//	if err := client.Send(msg); err != nil {
//		msg, _ = zsock.ContentOf[zsock.Msg](err)
//	}
type SendMsg interface {
	// Send blocks while the socket is in mute state.
	Send(msg Msg) error
	// TrySend fails with WouldBlock instead of blocking.
	TrySend(msg Msg) error
	SendHWM() (HighWaterMark, error)
	SetSendHWM(hwm HighWaterMark) error
	// SendTimeout bounds how long Send blocks before failing with
	// WouldBlock.
	SendTimeout() (Period, error)
	SetSendTimeout(timeout Period) error

	raw() *rawSocket
}

func sendError(kind ErrorKind, detail string, msg Msg) error {
	return &Error[Msg]{kind: kind, detail: detail, content: &msg}
}

func (s *rawSocket) send(msg Msg, flags native.Flag) error {
	if s.role == native.Radio {
		if group, _ := msg.Group(); len(group) > MaxGroupLen {
			return sendError(InvalidInput, fmt.Sprintf("group %q is longer than %d bytes", group, MaxGroupLen), msg)
		}
	}

	if s.ctx.Terminated() {
		return sendError(CtxTerminated, "", msg)
	}

	err := s.native.Send(msg.native(), flags)
	if err == nil {
		return nil
	}

	errno := native.AsErrno(err)
	switch errno {
	case native.EAGAIN:
		return sendError(WouldBlock, "", msg)
	case native.EHOSTUNREACH:
		return sendError(HostUnreachable, "", msg)
	case native.ETERM:
		return sendError(CtxTerminated, "", msg)
	case native.EINTR:
		return sendError(Interrupted, "", msg)
	case native.ENOTSUP:
		fatal(fmt.Sprintf("send is not supported by %s sockets", s.role), errno)
	case native.EFSM:
		fatal("send in invalid socket state", errno)
	case native.ENOTSOCK:
		fatal("invalid socket", errno)
	case native.EFAULT:
		fatal("invalid message", errno)
	}
	unmapped("send", errno)
	return nil
}

type sendCore struct {
	s *rawSocket
}

func (c sendCore) Send(msg Msg) error {
	return c.s.send(msg, 0)
}

func (c sendCore) TrySend(msg Msg) error {
	return c.s.send(msg, native.DontWait)
}

func (c sendCore) SendHWM() (HighWaterMark, error) {
	hwm, err := c.s.getInt(native.SendHWM)
	if err != nil {
		return Unlimited, err
	}
	return hwmFromNative(hwm), nil
}

func (c sendCore) SetSendHWM(hwm HighWaterMark) error {
	return c.s.setInt(native.SendHWM, hwm.native())
}

func (c sendCore) SendTimeout() (Period, error) {
	timeout, err := c.s.getDuration(native.SendTimeout)
	if err != nil {
		return Infinite, err
	}
	return periodFromNative(timeout), nil
}

func (c sendCore) SetSendTimeout(timeout Period) error {
	return c.s.setDuration(native.SendTimeout, timeout.native())
}
