package scan

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostRangeCounts(t *testing.T) {
	cases := []struct {
		name  string
		ones  int
		count int
	}{
		{"slash24", 24, 254},
		{"slash16", 16, 65534},
		{"slash8 clamped", 8, MaxHosts},
		{"slash30", 30, 2},
		{"slash31", 31, 1},
		{"slash32", 32, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := NewHostRange(net.IPv4(10, 1, 2, 3), net.CIDRMask(tc.ones, 32))
			require.NoError(t, err)
			assert.Equal(t, tc.count, r.Count)
			assert.Equal(t, 32-tc.ones, r.HostBits)
		})
	}
}

func TestHostRangeAddresses(t *testing.T) {
	r, err := NewHostRange(net.IPv4(192, 168, 1, 77), net.CIDRMask(24, 32))
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.0", r.Network.String())
	assert.Equal(t, "192.168.1.1", r.Addr(0).String())
	assert.Equal(t, "192.168.1.254", r.Addr(r.Count-1).String())
}

func TestHostRangeWideNetworkStartsAtNetwork(t *testing.T) {
	r, err := NewHostRange(net.IPv4(10, 20, 30, 40), net.CIDRMask(8, 32))
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.1", r.Addr(0).String())
	assert.Equal(t, "10.0.255.254", r.Addr(r.Count-1).String())
}

func TestHostRangeNonContiguousMask(t *testing.T) {
	r, err := NewHostRange(net.IPv4(10, 0, 0, 1), net.IPv4Mask(255, 255, 0, 255))
	require.NoError(t, err)
	assert.Equal(t, 8, r.HostBits)
	assert.Equal(t, 254, r.Count)
}

func TestHostRangeRejectsIPv6(t *testing.T) {
	_, err := NewHostRange(net.ParseIP("fe80::1"), net.CIDRMask(64, 128))
	assert.Error(t, err)
}
