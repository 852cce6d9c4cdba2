// internal/status/snapshot.go
package status

import (
	"net"
	"time"
)

// Snapshot is exactly what a status report is allowed to deliver.
// It contains no logic; Encode renders it.
type Snapshot struct {
	Title string
	At    time.Time

	// Host fields. Empty values are omitted from the report.
	Hostname   string
	LocalIP    net.IP
	Mask       net.IPMask
	MAC        string
	Uptime     time.Duration
	HeapAlloc  uint64
	Goroutines int

	// Agent fields.
	TelemetryEnabled  bool
	TelemetryInterval time.Duration
	LastScanAt        time.Time
	ScanInProgress    bool
	Offset            int64
}
