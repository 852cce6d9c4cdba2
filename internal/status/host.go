// internal/status/host.go
package status

import (
	"os"
	"runtime"
	"time"

	"github.com/tamzrod/lanwatch/internal/netinfo"
)

// NetworkSource resolves the local IPv4 attachment.
type NetworkSource interface {
	LocalNetwork() (netinfo.Network, error)
}

// HostSource fills the host half of a Snapshot from the OS and the Go
// runtime. Lookups that fail leave their fields empty.
type HostSource struct {
	Network NetworkSource
	Started time.Time
}

// Fill populates host fields of s, measuring uptime against now.
func (h HostSource) Fill(s *Snapshot, now time.Time) {
	if name, err := os.Hostname(); err == nil {
		s.Hostname = name
	}

	if h.Network != nil {
		if n, err := h.Network.LocalNetwork(); err == nil {
			s.LocalIP = n.IP
			s.Mask = n.Mask
			s.MAC = n.MAC
		}
	}

	if !h.Started.IsZero() {
		s.Uptime = now.Sub(h.Started)
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s.HeapAlloc = ms.HeapAlloc
	s.Goroutines = runtime.NumGoroutine()
}
