package traceroute

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestIsRetryableReadError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"host unreachable", unix.EHOSTUNREACH, true},
		{"wrapped connection refused", fmt.Errorf("read: %w", unix.ECONNREFUSED), true},
		{"network unreachable", unix.ENETUNREACH, true},
		{"would block", unix.EAGAIN, false},
		{"some other error", errors.New("foo"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableReadError(tt.err), "isRetryableReadError(%v)", tt.err)
		})
	}
}

func TestIsWouldBlock(t *testing.T) {
	assert.True(t, isWouldBlock(unix.EAGAIN))
	assert.True(t, isWouldBlock(fmt.Errorf("recvmsg: %w", unix.EWOULDBLOCK)))
	assert.False(t, isWouldBlock(unix.EHOSTUNREACH))
	assert.False(t, isWouldBlock(nil))
}
