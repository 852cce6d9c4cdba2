// Package probe implements host reachability checks for subnet sweeps.
package probe

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
)

// Methods accepted by New.
const (
	MethodTCP    = "tcp"
	MethodModbus = "modbus"
	MethodICMP   = "icmp"
)

// Prober reports whether addr answers within the configured timeout.
type Prober interface {
	Probe(ctx context.Context, addr net.IP) bool
}

// Options carries the settings shared by every method.
type Options struct {
	Timeout time.Duration
	Ports   []int // tcp
	UnitID  uint8 // modbus
}

// New selects a prober by method name.
func New(method string, o Options) (Prober, error) {
	if o.Timeout <= 0 {
		o.Timeout = time.Second
	}

	switch method {
	case MethodTCP, "":
		if len(o.Ports) == 0 {
			return nil, errors.New("probe: tcp needs at least one port")
		}
		return &TCP{Ports: o.Ports, Timeout: o.Timeout}, nil
	case MethodModbus:
		return &Modbus{Port: ModbusPort, UnitID: o.UnitID, Timeout: o.Timeout}, nil
	case MethodICMP:
		return &ICMP{Timeout: o.Timeout}, nil
	default:
		return nil, errors.Errorf("probe: unknown method %q", method)
	}
}
