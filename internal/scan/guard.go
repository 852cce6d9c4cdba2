// internal/scan/guard.go
package scan

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tamzrod/lanwatch/internal/clock"
	"github.com/tamzrod/lanwatch/internal/logging"
	"github.com/tamzrod/lanwatch/internal/metrics"
	"github.com/tamzrod/lanwatch/internal/netinfo"
	"github.com/tamzrod/lanwatch/internal/report"
	"github.com/tamzrod/lanwatch/internal/state"
	"github.com/tamzrod/lanwatch/internal/status"
)

// Notices sent by the guard.
const (
	MsgAlreadyRunning = "⏳ A scan is already running"
	MsgCooldown       = "⏳ Wait %d s before scanning again"
	MsgNoNetwork      = "❌ Scan failed: no usable network"
	MsgInterrupted    = "⛔ Scan interrupted"
	MsgAborted        = "⚠️ Scan aborted"
)

// NetworkSource resolves the local IPv4 attachment to sweep.
type NetworkSource interface {
	LocalNetwork() (netinfo.Network, error)
}

// Prober reports whether one address answers. It never returns an error;
// failures count as unreachable.
type Prober interface {
	Probe(ctx context.Context, addr net.IP) bool
}

// Config is the runtime config the guard needs.
type Config struct {
	Cooldown       time.Duration
	FlushThreshold int // bytes of pending host list before a partial message

	Clock   clock.Clock
	Log     logging.Logger
	Metrics *metrics.Metrics
}

// Guard admits at most one sweep at a time and at most one start per
// cooldown window. The sweep runs on the caller's goroutine.
type Guard struct {
	cfg     Config
	state   *state.State
	network NetworkSource
	prober  Prober
	sender  report.Sender

	mu         sync.Mutex
	inProgress bool
}

// New creates a guard. The state must already be loaded.
func New(cfg Config, st *state.State, network NetworkSource, prober Prober, sender report.Sender) (*Guard, error) {
	if st == nil || network == nil || prober == nil || sender == nil {
		return nil, errors.New("scan: state, network, prober and sender required")
	}
	if cfg.Cooldown < 0 {
		return nil, errors.Errorf("scan: negative cooldown %s", cfg.Cooldown)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Log == nil {
		cfg.Log = logging.New("scan")
	}

	return &Guard{
		cfg:     cfg,
		state:   st,
		network: network,
		prober:  prober,
		sender:  sender,
	}, nil
}

// InProgress reports whether a sweep is running.
func (g *Guard) InProgress() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inProgress
}

// RequestScan starts a sweep unless one is running or the cooldown has not
// elapsed. A started sweep completes before RequestScan returns.
func (g *Guard) RequestScan(ctx context.Context) Outcome {
	now := g.cfg.Clock.Now()

	out, ok := g.acquire(now)
	g.cfg.Metrics.ScanRequest(out.Status.String())
	if !ok {
		switch out.Status {
		case AlreadyRunning:
			g.notify(ctx, MsgAlreadyRunning)
		case Cooldown:
			g.notify(ctx, fmt.Sprintf(MsgCooldown, out.RemainingSeconds()))
		}
		g.cfg.Log.WithField("outcome", out.Status).Debug("scan request refused")
		return out
	}

	if err := g.state.MarkScan(now); err != nil {
		g.cfg.Log.WithError(err).Error("scan timestamp not persisted")
	}

	g.sweep(ctx, now)
	return out
}

// acquire checks and sets the in-progress flag in one critical section.
func (g *Guard) acquire(now time.Time) (Outcome, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inProgress {
		return Outcome{Status: AlreadyRunning}, false
	}

	// A last scan in the future means the wall clock was stepped back; it
	// does not block.
	if last := g.state.LastScanAt(); !last.IsZero() {
		if elapsed := now.Sub(last); elapsed >= 0 && elapsed < g.cfg.Cooldown {
			return Outcome{Status: Cooldown, Remaining: g.cfg.Cooldown - elapsed}, false
		}
	}

	g.inProgress = true
	return Outcome{Status: Started}, true
}

func (g *Guard) release() {
	g.mu.Lock()
	g.inProgress = false
	g.mu.Unlock()
}

func (g *Guard) sweep(ctx context.Context, start time.Time) {
	log := g.cfg.Log

	defer g.release()
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("scan aborted")
			g.notify(context.WithoutCancel(ctx), fmt.Sprintf("%s: %v", MsgAborted, r))
		}
	}()

	n, err := g.network.LocalNetwork()
	if err != nil {
		log.WithError(err).Warn("no network to scan")
		g.notify(ctx, MsgNoNetwork)
		return
	}
	rng, err := NewHostRange(n.IP, n.Mask)
	if err != nil {
		log.WithError(err).Warn("unusable network")
		g.notify(ctx, MsgNoNetwork)
		return
	}

	g.notify(ctx, fmt.Sprintf("🔎 Scanning network...\nIP: %s\nMask: %s\nHosts: %d",
		n.IP, status.MaskString(n.Mask), rng.Count))

	log.WithFields(logrus.Fields{
		"network": rng.Network.String(),
		"hosts":   rng.Count,
	}).Info("sweep started")

	list := report.NewListWriter(g.sender, g.cfg.FlushThreshold)
	interrupted := false

	for i := 0; i < rng.Count; i++ {
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		addr := rng.Addr(i)
		if addr.Equal(n.IP) {
			continue
		}
		if g.prober.Probe(ctx, addr) {
			list.Add(ctx, addr.String())
		}
	}

	if interrupted {
		err = list.Abort(context.WithoutCancel(ctx), MsgInterrupted)
	} else {
		err = list.Finish(ctx)
	}
	if err != nil {
		log.WithError(err).Warn("scan report incomplete")
	}

	took := g.cfg.Clock.Now().Sub(start)
	g.cfg.Metrics.ScanFinished(list.Total(), took)

	log.WithFields(logrus.Fields{
		"alive":       list.Total(),
		"took":        took,
		"interrupted": interrupted,
	}).Info("sweep finished")
}

func (g *Guard) notify(ctx context.Context, text string) {
	if err := g.sender.SendMessage(ctx, text); err != nil {
		g.cfg.Log.WithError(err).Debug("scan notice not delivered")
	}
}
