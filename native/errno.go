package native

import (
	"errors"
	"fmt"
)

// Errno is an engine neutral error code. Engines translate their own codes
// into these values.
type Errno int

// hausnumero is the base libzmq uses for its own error codes. The POSIX
// codes live in errno_unix.go and errno_windows.go.
const hausnumero = 156384712

const (
	EFSM           = Errno(hausnumero + 51)
	ENOCOMPATPROTO = Errno(hausnumero + 52)
	ETERM          = Errno(hausnumero + 53)
	EMTHREAD       = Errno(hausnumero + 54)
)

var errnoNames = map[Errno]string{
	EAGAIN:          "resource temporarily unavailable",
	EINTR:           "interrupted system call",
	EINVAL:          "invalid argument",
	ENOENT:          "no such file or directory",
	EMFILE:          "too many open files",
	EFAULT:          "bad address",
	ENODEV:          "no such device",
	EADDRINUSE:      "address already in use",
	EADDRNOTAVAIL:   "cannot assign requested address",
	EHOSTUNREACH:    "host unreachable",
	ENOTSOCK:        "not a socket",
	ENOTSUP:         "operation not supported",
	EPROTONOSUPPORT: "protocol not supported",
	EFSM:            "operation cannot be accomplished in current state",
	ENOCOMPATPROTO:  "the protocol is not compatible with the socket type",
	ETERM:           "context was terminated",
	EMTHREAD:        "no thread available",
}

func (e Errno) Error() string {
	if name, ok := errnoNames[e]; ok {
		return name
	}
	return fmt.Sprintf("errno %d", int(e))
}

// AsErrno returns the Errno carried by err, or 0 if there is none.
func AsErrno(err error) Errno {
	var errno Errno
	if errors.As(err, &errno) {
		return errno
	}
	return 0
}
