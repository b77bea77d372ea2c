//go:build windows

package native

// libzmq reports the MSVC runtime's errno.h values on Windows, not the
// WSA codes of golang.org/x/sys/windows, so they are spelled out here.
const (
	EAGAIN          = Errno(11)
	EINTR           = Errno(4)
	EINVAL          = Errno(22)
	ENOENT          = Errno(2)
	EMFILE          = Errno(24)
	EFAULT          = Errno(14)
	ENODEV          = Errno(19)
	EADDRINUSE      = Errno(100)
	EADDRNOTAVAIL   = Errno(101)
	EHOSTUNREACH    = Errno(110)
	ENOTSOCK        = Errno(128)
	ENOTSUP         = Errno(129)
	EPROTONOSUPPORT = Errno(135)
)
