// internal/scan/probe/modbus.go
package probe

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/goburrow/modbus"
	"github.com/pkg/errors"
)

// ModbusPort is the registered Modbus/TCP port.
const ModbusPort = 502

// Modbus opens a Modbus/TCP session and reads one holding register. A data
// response or a Modbus exception both mean a device answered.
type Modbus struct {
	Port    int
	UnitID  uint8
	Timeout time.Duration
}

func (p *Modbus) Probe(ctx context.Context, addr net.IP) bool {
	if ctx.Err() != nil {
		return false
	}

	timeout := p.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return false
	}

	h := modbus.NewTCPClientHandler(net.JoinHostPort(addr.String(), strconv.Itoa(p.Port)))
	h.Timeout = timeout
	h.SlaveId = p.UnitID

	if err := h.Connect(); err != nil {
		return false
	}
	defer h.Close()

	_, err := modbus.NewClient(h).ReadHoldingRegisters(0, 1)
	if err == nil {
		return true
	}

	var exc *modbus.ModbusError
	return errors.As(err, &exc)
}
