// internal/scan/subnet.go
package scan

import (
	"encoding/binary"
	"math/bits"
	"net"

	"github.com/pkg/errors"
)

// MaxHosts caps a sweep. Networks wider than /16 are truncated to the first
// MaxHosts addresses after the network address.
const MaxHosts = 65534

// HostRange is the candidate span of an IPv4 network: Count addresses
// starting right after the network address.
type HostRange struct {
	Network  net.IP
	HostBits int
	Count    int
}

// NewHostRange derives the sweep range from a local address and its mask.
// Host bits are the zero bits of the mask, so non-contiguous masks are
// accepted. Ranges that would hold no host (/31, /32) yield one candidate.
func NewHostRange(ip net.IP, mask net.IPMask) (HostRange, error) {
	ip4 := ip.To4()
	if ip4 == nil {
		return HostRange{}, errors.Errorf("scan: %v is not an IPv4 address", ip)
	}
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	if len(mask) != net.IPv4len {
		return HostRange{}, errors.Errorf("scan: invalid mask %v", mask)
	}

	m := binary.BigEndian.Uint32(mask)
	hostBits := 32 - bits.OnesCount32(m)

	network := make(net.IP, net.IPv4len)
	binary.BigEndian.PutUint32(network, binary.BigEndian.Uint32(ip4)&m)

	return HostRange{
		Network:  network,
		HostBits: hostBits,
		Count:    hostCount(hostBits),
	}, nil
}

func hostCount(hostBits int) int {
	switch {
	case hostBits == 0:
		return 1
	case hostBits > 16:
		return MaxHosts
	}
	n := (1 << hostBits) - 2
	if n <= 0 {
		return 1
	}
	return n
}

// Addr returns candidate i (0-based): network + 1 + i.
func (r HostRange) Addr(i int) net.IP {
	out := make(net.IP, net.IPv4len)
	binary.BigEndian.PutUint32(out, binary.BigEndian.Uint32(r.Network)+uint32(i)+1)
	return out
}
