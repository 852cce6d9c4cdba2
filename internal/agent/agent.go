// internal/agent/agent.go
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/tamzrod/lanwatch/internal/clock"
	"github.com/tamzrod/lanwatch/internal/logging"
	"github.com/tamzrod/lanwatch/internal/poller"
	"github.com/tamzrod/lanwatch/internal/report"
	"github.com/tamzrod/lanwatch/internal/scan"
	"github.com/tamzrod/lanwatch/internal/status"
)

// Poller performs one fetch-and-process cycle.
type Poller interface {
	PollOnce(ctx context.Context) poller.Result
}

// Telemetry is the scheduler as seen by the loop.
type Telemetry interface {
	Tick(ctx context.Context, now time.Time)
	SendStatus(ctx context.Context, title string) error
}

// Scanner runs a guarded sweep.
type Scanner interface {
	RequestScan(ctx context.Context) scan.Outcome
}

// Ticker is an extra periodic report checked once per tick.
type Ticker interface {
	Tick(ctx context.Context, now time.Time)
}

// MsgStarted opens the startup announcement.
const MsgStarted = "🚀 lanwatch started"

// Config is the runtime config the loop needs.
type Config struct {
	Tick            time.Duration
	PollPeriod      time.Duration
	AnnounceOnStart bool
	ScanOnStart     bool

	// Weather is optional.
	Weather Ticker

	Clock clock.Clock
	Log   logging.Logger
}

// Agent is the single scheduling loop. Polling, dispatch, sweeps and
// telemetry all run on the goroutine that calls Run.
type Agent struct {
	cfg       Config
	poller    Poller
	telemetry Telemetry
	scanner   Scanner
	sender    report.Sender
	network   status.NetworkSource

	lastPoll time.Time
}

// New creates the loop. network may be nil.
func New(cfg Config, p Poller, t Telemetry, s Scanner, sender report.Sender, network status.NetworkSource) (*Agent, error) {
	if p == nil || t == nil || s == nil || sender == nil {
		return nil, errors.New("agent: poller, telemetry, scanner and sender required")
	}
	if cfg.Tick <= 0 {
		return nil, errors.Errorf("agent: tick must be positive, got %s", cfg.Tick)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Log == nil {
		cfg.Log = logging.New("agent")
	}

	return &Agent{
		cfg:       cfg,
		poller:    p,
		telemetry: t,
		scanner:   s,
		sender:    sender,
		network:   network,
	}, nil
}

// Run announces startup and then ticks until ctx is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	a.Start(ctx)

	ticker := time.NewTicker(a.cfg.Tick)
	defer ticker.Stop()

	a.cfg.Log.WithField("tick", a.cfg.Tick).Info("loop running")

	for {
		select {
		case <-ctx.Done():
			a.cfg.Log.Info("loop stopped")
			return nil
		case <-ticker.C:
			a.Step(ctx, a.cfg.Clock.Now())
		}
	}
}

// Start sends the startup announcement and initial status report when
// enabled, then runs the startup sweep when enabled.
func (a *Agent) Start(ctx context.Context) {
	if a.cfg.AnnounceOnStart {
		a.announce(ctx)
		if err := a.telemetry.SendStatus(ctx, status.TitleStatus); err != nil {
			a.cfg.Log.WithError(err).Warn("initial status not delivered")
		}
	}
	if a.cfg.ScanOnStart {
		out := a.scanner.RequestScan(ctx)
		a.cfg.Log.WithField("outcome", out.Status).Info("startup scan")
	}
}

// Step runs one tick: a poll when PollPeriod has elapsed since the last
// one, then the telemetry and weather checks.
func (a *Agent) Step(ctx context.Context, now time.Time) {
	if a.lastPoll.IsZero() || now.Sub(a.lastPoll) >= a.cfg.PollPeriod {
		a.lastPoll = now
		res := a.poller.PollOnce(ctx)
		if res.Dispatched > 0 || res.Rejected > 0 {
			a.cfg.Log.WithField("dispatched", res.Dispatched).WithField("rejected", res.Rejected).Debug("poll cycle")
		}
	}

	a.telemetry.Tick(ctx, now)
	if a.cfg.Weather != nil {
		a.cfg.Weather.Tick(ctx, now)
	}
}

func (a *Agent) announce(ctx context.Context) {
	text := MsgStarted
	if a.network != nil {
		if n, err := a.network.LocalNetwork(); err == nil {
			text = fmt.Sprintf("%s\nIP: %s", MsgStarted, n.IP)
		}
	}
	if err := a.sender.SendMessage(ctx, text); err != nil {
		a.cfg.Log.WithError(err).Warn("startup announcement not delivered")
	}
}
