package scan

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tamzrod/lanwatch/internal/clock"
	"github.com/tamzrod/lanwatch/internal/logging/testoutput"
	"github.com/tamzrod/lanwatch/internal/netinfo"
	"github.com/tamzrod/lanwatch/internal/report"
	"github.com/tamzrod/lanwatch/internal/report/reporttest"
	"github.com/tamzrod/lanwatch/internal/state"
)

// ---- fakes ----

type fakeNetwork struct {
	n   netinfo.Network
	err error
}

func (f fakeNetwork) LocalNetwork() (netinfo.Network, error) { return f.n, f.err }

type proberFunc func(ctx context.Context, addr net.IP) bool

func (f proberFunc) Probe(ctx context.Context, addr net.IP) bool { return f(ctx, addr) }

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type harness struct {
	guard *Guard
	clock *clock.Fake
	state *state.State
	store *state.MemStore
	sent  *reporttest.Recorder
	seen  []string
}

func newHarness(t *testing.T, ones int, alive func(net.IP) bool) *harness {
	t.Helper()
	h := &harness{
		clock: clock.NewFake(t0),
		store: state.NewMemStore(),
		sent:  &reporttest.Recorder{},
	}
	h.state = state.Load(h.store, time.Minute)

	network := fakeNetwork{n: netinfo.Network{
		IP:   net.IPv4(192, 168, 1, 10).To4(),
		Mask: net.CIDRMask(ones, 32),
	}}
	prober := proberFunc(func(_ context.Context, addr net.IP) bool {
		h.seen = append(h.seen, addr.String())
		return alive(addr)
	})

	g, err := New(Config{
		Cooldown:       time.Minute,
		FlushThreshold: 800,
		Clock:          h.clock,
		Log:            testoutput.Logger(t, "scan"),
	}, h.state, network, prober, h.sent)
	require.NoError(t, err)
	h.guard = g
	return h
}

func none(net.IP) bool { return false }

// ---- tests ----

func TestRequestScan_SweepsWholeSubnetSkippingSelf(t *testing.T) {
	h := newHarness(t, 24, func(ip net.IP) bool { return ip.To4()[3] == 1 || ip.To4()[3] == 50 })

	out := h.guard.RequestScan(context.Background())

	assert.Equal(t, Started, out.Status)
	assert.Len(t, h.seen, 253, "254 candidates minus the local address")
	assert.NotContains(t, h.seen, "192.168.1.10")
	assert.False(t, h.guard.InProgress())

	msgs := h.sent.Messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "Hosts: 254")
	assert.Contains(t, msgs[0], "Mask: 255.255.255.0")
	assert.Equal(t, report.HeaderFinal+"\n192.168.1.1\n192.168.1.50", msgs[1])
}

func TestRequestScan_NoHostsResponded(t *testing.T) {
	h := newHarness(t, 28, none)

	h.guard.RequestScan(context.Background())

	assert.Equal(t, report.NoHosts, h.sent.Last())
}

func TestRequestScan_PersistsStartTime(t *testing.T) {
	h := newHarness(t, 30, none)

	h.guard.RequestScan(context.Background())

	assert.True(t, h.state.LastScanAt().Equal(t0))
	assert.Equal(t, t0.UnixMilli(), h.store.Int(state.KeyLastScan, 0))
}

func TestRequestScan_ReentrantRequestRefused(t *testing.T) {
	h := newHarness(t, 29, none)

	var inner Outcome
	var innerLastScan time.Time
	calls := 0
	h.guard.prober = proberFunc(func(ctx context.Context, addr net.IP) bool {
		calls++
		if calls == 1 {
			h.clock.Advance(5 * time.Second)
			inner = h.guard.RequestScan(ctx)
			innerLastScan = h.state.LastScanAt()
		}
		return false
	})

	out := h.guard.RequestScan(context.Background())

	assert.Equal(t, Started, out.Status)
	assert.Equal(t, AlreadyRunning, inner.Status)
	assert.True(t, innerLastScan.Equal(t0), "refused request must not touch lastScanAt")
	assert.Equal(t, 1, h.sent.Count(MsgAlreadyRunning))
	assert.Equal(t, 1, h.sent.Count("Scanning network"), "nothing queued")
	assert.False(t, h.guard.InProgress())
}

func TestRequestScan_CooldownRemainingRoundsUp(t *testing.T) {
	h := newHarness(t, 30, none)

	h.guard.RequestScan(context.Background())
	h.sent.Reset()

	h.clock.Advance(10*time.Second + 500*time.Millisecond)
	out := h.guard.RequestScan(context.Background())

	assert.Equal(t, Cooldown, out.Status)
	assert.Equal(t, 49*time.Second+500*time.Millisecond, out.Remaining)
	assert.Equal(t, int64(50), out.RemainingSeconds())
	assert.Equal(t, []string{"⏳ Wait 50 s before scanning again"}, h.sent.Messages())
	assert.True(t, h.state.LastScanAt().Equal(t0))
}

func TestRequestScan_AllowedAfterCooldown(t *testing.T) {
	h := newHarness(t, 30, none)

	h.guard.RequestScan(context.Background())
	h.clock.Advance(time.Minute)
	out := h.guard.RequestScan(context.Background())

	assert.Equal(t, Started, out.Status)
	assert.True(t, h.state.LastScanAt().Equal(t0.Add(time.Minute)))
}

func TestRequestScan_CooldownSurvivesRestart(t *testing.T) {
	h := newHarness(t, 30, none)
	h.guard.RequestScan(context.Background())

	reloaded := state.Load(h.store, time.Minute)
	g2, err := New(Config{Cooldown: time.Minute, Clock: h.clock}, reloaded, fakeNetwork{}, proberFunc(func(context.Context, net.IP) bool { return false }), h.sent)
	require.NoError(t, err)

	h.clock.Advance(30 * time.Second)
	out := g2.RequestScan(context.Background())

	assert.Equal(t, Cooldown, out.Status)
	assert.Equal(t, int64(30), out.RemainingSeconds())
}

func TestRequestScan_FutureLastScanDoesNotBlock(t *testing.T) {
	h := newHarness(t, 30, none)
	require.NoError(t, h.state.MarkScan(t0.Add(time.Hour)))

	out := h.guard.RequestScan(context.Background())

	assert.Equal(t, Started, out.Status)
}

func TestRequestScan_PanicReleasesFlag(t *testing.T) {
	h := newHarness(t, 30, func(net.IP) bool { panic("probe exploded") })

	out := h.guard.RequestScan(context.Background())

	assert.Equal(t, Started, out.Status)
	assert.False(t, h.guard.InProgress())
	assert.Contains(t, h.sent.Last(), MsgAborted)

	h.clock.Advance(time.Minute)
	assert.Equal(t, Started, h.guard.RequestScan(context.Background()).Status)
}

func TestRequestScan_NetworkErrorReleasesFlag(t *testing.T) {
	h := newHarness(t, 24, none)
	h.guard.network = fakeNetwork{err: errors.New("link down")}

	out := h.guard.RequestScan(context.Background())

	assert.Equal(t, Started, out.Status)
	assert.Equal(t, MsgNoNetwork, h.sent.Last())
	assert.False(t, h.guard.InProgress())
}

func TestRequestScan_InterruptedByShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newHarness(t, 24, nil)
	h.guard.prober = proberFunc(func(_ context.Context, addr net.IP) bool {
		h.seen = append(h.seen, addr.String())
		if len(h.seen) == 3 {
			cancel()
		}
		return true
	})

	h.guard.RequestScan(ctx)

	assert.Len(t, h.seen, 3)
	msgs := h.sent.Messages()
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Equal(t, MsgInterrupted, msgs[len(msgs)-1])
	assert.True(t, strings.HasPrefix(msgs[len(msgs)-2], report.HeaderPartial))
	assert.False(t, h.guard.InProgress())
}

func TestRequestScan_LargeListFlushedInChunks(t *testing.T) {
	h := newHarness(t, 24, func(net.IP) bool { return true })

	h.guard.RequestScan(context.Background())

	partial := h.sent.Count(report.HeaderPartial)
	assert.GreaterOrEqual(t, partial, 3, "253 addresses of ~14 bytes exceed 800 bytes several times")
	for _, m := range h.sent.Messages() {
		assert.LessOrEqual(t, len(m), 800+len(report.HeaderPartial)+32)
	}
}

func TestOutcomeRemainingSeconds(t *testing.T) {
	assert.Equal(t, int64(0), Outcome{}.RemainingSeconds())
	assert.Equal(t, int64(1), Outcome{Remaining: time.Millisecond}.RemainingSeconds())
	assert.Equal(t, int64(60), Outcome{Remaining: time.Minute}.RemainingSeconds())
}
