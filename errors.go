package zsock

import (
	"errors"
	"fmt"

	"github.com/workspace-9/zsock/native"
)

// ErrorKind classifies every recoverable failure of a socket call.
//
// ErrorKind implements error so that kinds can be matched with errors.Is:
//
//	if errors.Is(err, zsock.WouldBlock) { ... }
type ErrorKind int

const (
	// WouldBlock is returned by non-blocking calls that cannot complete
	// immediately, and by blocking calls whose timeout expired.
	WouldBlock ErrorKind = iota + 1
	// HostUnreachable is returned when a Server cannot route a message.
	HostUnreachable
	// CtxTerminated is returned by every call on a socket whose context
	// was terminated.
	CtxTerminated
	// Interrupted means the call was interrupted by a signal.
	Interrupted
	// AddrInUse means the address is already bound.
	AddrInUse
	// AddrNotAvailable means the interface does not exist or the address
	// is not local.
	AddrNotAvailable
	// NotFound means the entity named by the call does not exist.
	NotFound
	// SocketLimit means the context's open socket limit was reached.
	SocketLimit
	// InvalidInput means the call broke its usage contract.
	InvalidInput
)

func (k ErrorKind) String() string {
	switch k {
	case WouldBlock:
		return "operation would block"
	case HostUnreachable:
		return "host unreachable"
	case CtxTerminated:
		return "context terminated"
	case Interrupted:
		return "interrupted by signal"
	case AddrInUse:
		return "addr in use"
	case AddrNotAvailable:
		return "addr not available"
	case NotFound:
		return "not found"
	case SocketLimit:
		return "open socket limit was reached"
	case InvalidInput:
		return "invalid input"
	}

	return "unknown error kind"
}

func (k ErrorKind) Error() string {
	return k.String()
}

// Error is the envelope returned by socket calls. When a send fails, the
// message it was given is handed back through Content so nothing is lost.
type Error[T any] struct {
	kind    ErrorKind
	detail  string
	content *T
}

func newError[T any](kind ErrorKind) *Error[T] {
	return &Error[T]{kind: kind}
}

func newDetailError[T any](kind ErrorKind, detail string) *Error[T] {
	return &Error[T]{kind: kind, detail: detail}
}

func withContent[T any](kind ErrorKind, content T) *Error[T] {
	return &Error[T]{kind: kind, content: &content}
}

// Kind of the error.
func (e *Error[T]) Kind() ErrorKind {
	return e.kind
}

// Detail holds extra information for NotFound and InvalidInput errors.
func (e *Error[T]) Detail() string {
	return e.detail
}

// Content returns the payload the failed call gave back, if any.
func (e *Error[T]) Content() (T, bool) {
	if e.content == nil {
		var zero T
		return zero, false
	}
	return *e.content, true
}

// TakeContent returns the payload and removes it from the error.
func (e *Error[T]) TakeContent() (T, bool) {
	content, ok := e.Content()
	e.content = nil
	return content, ok
}

func (e *Error[T]) Error() string {
	if e.detail != "" {
		return fmt.Sprintf("%s: %s", e.kind, e.detail)
	}
	return e.kind.String()
}

// Is matches errors against an ErrorKind.
func (e *Error[T]) Is(target error) bool {
	kind, ok := target.(ErrorKind)
	return ok && kind == e.kind
}

// ContentOf extracts the payload handed back by a failed call.
func ContentOf[T any](err error) (T, bool) {
	var zerr *Error[T]
	if errors.As(err, &zerr) {
		return zerr.Content()
	}
	var zero T
	return zero, false
}

// KindOf returns the ErrorKind of err, or 0 when err is not a socket error.
func KindOf(err error) ErrorKind {
	var kind ErrorKind
	if errors.As(err, &kind) {
		return kind
	}
	for k := WouldBlock; k <= InvalidInput; k++ {
		if errors.Is(err, k) {
			return k
		}
	}
	return 0
}

// fatal aborts on conditions that can only come from misuse of the API or
// from an engine that broke its contract.
func fatal(what string, errno native.Errno) {
	if errno == 0 {
		panic(fmt.Sprintf("zsock: %s", what))
	}
	panic(fmt.Sprintf("zsock: %s (errno %d: %s)", what, int(errno), errno))
}

// unmapped aborts on an error code a call is not documented to return.
func unmapped(op string, errno native.Errno) {
	fatal("unexpected error from "+op, errno)
}
