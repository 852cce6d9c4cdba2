// internal/netinfo/netinfo.go
package netinfo

import (
	"net"

	"github.com/pkg/errors"
)

// ErrNoNetwork means no usable IPv4 interface was found.
var ErrNoNetwork = errors.New("netinfo: no up, non-loopback IPv4 interface")

// Network is the local IPv4 attachment the agent sweeps.
type Network struct {
	Interface string
	IP        net.IP     // 4-byte form
	Mask      net.IPMask // 4-byte form
	MAC       string
}

// Interfaces abstracts net.Interfaces for tests.
type Interfaces func() ([]net.Interface, error)

// Source resolves the local network, either from a named interface or from
// the first interface that is up, not loopback, and carries an IPv4 address.
type Source struct {
	Name string
	List Interfaces
}

// LocalNetwork implements scan.NetworkSource.
func (s Source) LocalNetwork() (Network, error) {
	list := s.List
	if list == nil {
		list = net.Interfaces
	}

	ifaces, err := list()
	if err != nil {
		return Network{}, errors.Wrap(err, "netinfo: list interfaces")
	}

	for _, ifc := range ifaces {
		if s.Name != "" && ifc.Name != s.Name {
			continue
		}
		if s.Name == "" && (ifc.Flags&net.FlagUp == 0 || ifc.Flags&net.FlagLoopback != 0) {
			continue
		}

		addrs, err := ifc.Addrs()
		if err != nil {
			continue
		}
		if n, ok := firstIPv4(addrs); ok {
			n.Interface = ifc.Name
			n.MAC = ifc.HardwareAddr.String()
			return n, nil
		}
	}

	if s.Name != "" {
		return Network{}, errors.Errorf("netinfo: interface %q has no IPv4 address", s.Name)
	}
	return Network{}, ErrNoNetwork
}

func firstIPv4(addrs []net.Addr) (Network, bool) {
	for _, a := range addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip4 := ipn.IP.To4()
		if ip4 == nil {
			continue
		}
		mask := ipn.Mask
		if len(mask) == net.IPv6len {
			mask = mask[12:]
		}
		return Network{IP: ip4, Mask: mask}, true
	}
	return Network{}, false
}
