package fetcher

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForbiddenAddr(t *testing.T) {
	tests := []struct {
		addr      string
		forbidden bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"192.168.0.10", true},
		{"169.254.169.254", true},
		{"fe80::1", true},
		{"fd00::1", true},
		{"100.64.0.1", true},
		{"0.0.0.0", true},
		{"224.0.0.1", true},
		{"::ffff:127.0.0.1", true},
		{"93.184.216.34", false},
		{"2606:2800:220:1:248:1893:25c8:1946", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.forbidden, forbiddenAddr(netip.MustParseAddr(tt.addr)))
		})
	}
}

func TestDialControl(t *testing.T) {
	assert.True(t, errors.Is(dialControl("tcp4", "127.0.0.1:80", nil), ErrForbiddenHost))
	assert.True(t, errors.Is(dialControl("tcp6", "[fe80::1]:443", nil), ErrForbiddenHost))
	assert.True(t, errors.Is(dialControl("tcp", "no-port", nil), ErrForbiddenHost))
	assert.NoError(t, dialControl("tcp4", "93.184.216.34:443", nil))
}
