// internal/scan/probe/icmp.go
package probe

import (
	"context"
	"net"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// protocolICMP is the IANA protocol number for ICMPv4.
const protocolICMP = 1

var echoSeq atomic.Uint32

// ICMP sends a single echo request over an unprivileged datagram socket
// (net.ipv4.ping_group_range must admit the process group). No retry.
type ICMP struct {
	Timeout time.Duration
}

func (p *ICMP) Probe(ctx context.Context, addr net.IP) bool {
	conn, err := icmp.ListenPacket("udp4", "0.0.0.0")
	if err != nil {
		return false
	}
	defer conn.Close()

	deadline := time.Now().Add(p.Timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return false
	}

	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   os.Getpid() & 0xffff,
			Seq:  int(echoSeq.Add(1) & 0xffff),
			Data: []byte("lanwatch"),
		},
	}
	wire, err := msg.Marshal(nil)
	if err != nil {
		return false
	}
	if _, err := conn.WriteTo(wire, &net.UDPAddr{IP: addr}); err != nil {
		return false
	}

	buf := make([]byte, 1500)
	for {
		if ctx.Err() != nil {
			return false
		}
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			return false
		}
		reply, err := icmp.ParseMessage(protocolICMP, buf[:n])
		if err != nil || reply.Type != ipv4.ICMPTypeEchoReply {
			continue
		}
		// the kernel rewrites the echo id on datagram sockets, so match on peer
		if u, ok := peer.(*net.UDPAddr); ok && u.IP.Equal(addr) {
			return true
		}
	}
}
