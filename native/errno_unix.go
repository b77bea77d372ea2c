//go:build !windows

package native

import "golang.org/x/sys/unix"

const (
	EAGAIN          = Errno(unix.EAGAIN)
	EINTR           = Errno(unix.EINTR)
	EINVAL          = Errno(unix.EINVAL)
	ENOENT          = Errno(unix.ENOENT)
	EMFILE          = Errno(unix.EMFILE)
	EFAULT          = Errno(unix.EFAULT)
	ENODEV          = Errno(unix.ENODEV)
	EADDRINUSE      = Errno(unix.EADDRINUSE)
	EADDRNOTAVAIL   = Errno(unix.EADDRNOTAVAIL)
	EHOSTUNREACH    = Errno(unix.EHOSTUNREACH)
	ENOTSOCK        = Errno(unix.ENOTSOCK)
	ENOTSUP         = Errno(unix.ENOTSUP)
	EPROTONOSUPPORT = Errno(unix.EPROTONOSUPPORT)
)
