package native

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrnoNames(t *testing.T) {
	codes := []Errno{
		EAGAIN, EINTR, EINVAL, ENOENT, EMFILE, EFAULT, ENODEV, EADDRINUSE,
		EADDRNOTAVAIL, EHOSTUNREACH, ENOTSOCK, ENOTSUP, EPROTONOSUPPORT,
		EFSM, ENOCOMPATPROTO, ETERM, EMTHREAD,
	}

	seen := map[Errno]bool{}
	for _, code := range codes {
		assert.False(t, seen[code], "errno %d is used twice", int(code))
		seen[code] = true
		assert.Contains(t, errnoNames, code)
	}
	assert.Len(t, errnoNames, len(codes))
	assert.Equal(t, "errno 7", Errno(7).Error())
}

func TestAsErrno(t *testing.T) {
	assert.Equal(t, ETERM, AsErrno(fmt.Errorf("wrapped: %w", ETERM)))
	assert.Equal(t, Errno(0), AsErrno(assert.AnError))
}
