// internal/status/encode.go
package status

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// Encode renders a Snapshot as a plain-text report, one field per line.
// No IO. No side effects.
func Encode(s Snapshot) string {
	var b strings.Builder

	b.WriteString(s.Title)
	b.WriteByte('\n')

	if s.Hostname != "" {
		line(&b, LabelHost, s.Hostname)
	}
	if s.LocalIP != nil {
		ip := s.LocalIP.String()
		if s.Mask != nil {
			ones, _ := s.Mask.Size()
			ip = fmt.Sprintf("%s/%d", ip, ones)
		}
		line(&b, LabelIP, ip)
	}
	if s.MAC != "" {
		line(&b, LabelMAC, s.MAC)
	}
	if s.Uptime > 0 {
		line(&b, LabelUptime, s.Uptime.Truncate(time.Second).String())
	}
	if s.HeapAlloc > 0 {
		line(&b, LabelHeap, fmt.Sprintf("%d bytes", s.HeapAlloc))
	}
	if s.Goroutines > 0 {
		line(&b, LabelGoroutines, fmt.Sprintf("%d", s.Goroutines))
	}

	line(&b, LabelInterval, fmt.Sprintf("%d s", int64(s.TelemetryInterval/time.Second)))
	line(&b, LabelEnabled, yesNo(s.TelemetryEnabled))
	line(&b, LabelLastScan, stamp(s.LastScanAt))
	line(&b, LabelScanning, yesNo(s.ScanInProgress))
	line(&b, LabelOffset, fmt.Sprintf("%d", s.Offset))

	return strings.TrimRight(b.String(), "\n")
}

func line(b *strings.Builder, label, value string) {
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteByte('\n')
}

func yesNo(v bool) string {
	if v {
		return Yes
	}
	return No
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return Never
	}
	return t.Format(time.RFC3339)
}

// MaskString renders a mask in dotted form ("255.255.255.0").
func MaskString(m net.IPMask) string {
	if len(m) != net.IPv4len {
		return m.String()
	}
	return net.IP(m).String()
}
