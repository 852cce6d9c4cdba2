// internal/scan/probe/tcp.go
package probe

import (
	"context"
	"net"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// errReachable stops the remaining dials once one port answered.
var errReachable = errors.New("reachable")

// DialFunc matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// TCP dials every port concurrently. An accepted connection or an active
// refusal (RST) both prove the host is up.
type TCP struct {
	Ports   []int
	Timeout time.Duration
	Dial    DialFunc // nil = net.Dialer
}

func (p *TCP) Probe(ctx context.Context, addr net.IP) bool {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	dial := p.Dial
	if dial == nil {
		var d net.Dialer
		dial = d.DialContext
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, port := range p.Ports {
		target := net.JoinHostPort(addr.String(), strconv.Itoa(port))
		g.Go(func() error {
			conn, err := dial(gctx, "tcp", target)
			if err == nil {
				conn.Close()
				return errReachable
			}
			if errors.Is(err, syscall.ECONNREFUSED) {
				return errReachable
			}
			return nil
		})
	}

	return errors.Is(g.Wait(), errReachable)
}
