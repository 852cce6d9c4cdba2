// internal/telemetry/scheduler.go
package telemetry

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/tamzrod/lanwatch/internal/clock"
	"github.com/tamzrod/lanwatch/internal/logging"
	"github.com/tamzrod/lanwatch/internal/metrics"
	"github.com/tamzrod/lanwatch/internal/report"
	"github.com/tamzrod/lanwatch/internal/state"
	"github.com/tamzrod/lanwatch/internal/status"
)

// ErrIntervalTooShort rejects intervals below state.MinInterval.
var ErrIntervalTooShort = errors.Errorf("telemetry: interval below %s", state.MinInterval)

// HostFiller adds host fields to a snapshot.
type HostFiller interface {
	Fill(s *status.Snapshot, now time.Time)
}

// ScanState reports whether a sweep is running.
type ScanState interface {
	InProgress() bool
}

// Config is the runtime config the scheduler needs.
type Config struct {
	Clock   clock.Clock
	Log     logging.Logger
	Metrics *metrics.Metrics
}

// Scheduler emits a status report every Interval while enabled. It is
// driven by Tick from the scheduling loop and never blocks on its own.
type Scheduler struct {
	cfg    Config
	state  *state.State
	sender report.Sender
	host   HostFiller
	scan   ScanState
}

// New creates a scheduler. host and scan may be nil.
func New(cfg Config, st *state.State, sender report.Sender, host HostFiller, scan ScanState) (*Scheduler, error) {
	if st == nil || sender == nil {
		return nil, errors.New("telemetry: state and sender required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Log == nil {
		cfg.Log = logging.New("telemetry")
	}
	return &Scheduler{cfg: cfg, state: st, sender: sender, host: host, scan: scan}, nil
}

// Tick sends a report when enabled and the interval has elapsed since the
// last one. A failed send still counts as sent; the next attempt waits a
// full interval. A last-sent time in the future (clock stepped back) is due.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	t := s.state.Telemetry()
	if !t.Enabled {
		return
	}
	if !t.LastSentAt.IsZero() {
		if elapsed := now.Sub(t.LastSentAt); elapsed >= 0 && elapsed < t.Interval {
			return
		}
	}

	if err := s.send(ctx, status.TitleTelemetry, now); err != nil {
		s.cfg.Log.WithError(err).Warn("telemetry report not delivered")
	} else {
		s.cfg.Metrics.TelemetrySent()
	}

	if err := s.state.MarkTelemetrySent(now); err != nil {
		s.cfg.Log.WithError(err).Error("telemetry timestamp not persisted")
	}
}

// SendStatus sends one report immediately. It does not move the schedule.
func (s *Scheduler) SendStatus(ctx context.Context, title string) error {
	return s.send(ctx, title, s.cfg.Clock.Now())
}

// SetEnabled turns periodic reports on or off and persists the flag.
func (s *Scheduler) SetEnabled(on bool) {
	if err := s.state.SetTelemetryEnabled(on); err != nil {
		s.cfg.Log.WithError(err).Error("telemetry flag not persisted")
	}
	s.cfg.Log.WithField("enabled", on).Info("telemetry toggled")
}

// SetInterval changes the report period and persists it.
func (s *Scheduler) SetInterval(d time.Duration) error {
	if d < state.MinInterval {
		return ErrIntervalTooShort
	}
	if err := s.state.SetTelemetryInterval(d); err != nil {
		s.cfg.Log.WithError(err).Error("telemetry interval not persisted")
	}
	s.cfg.Log.WithField("interval", d).Info("telemetry interval changed")
	return nil
}

// Snapshot assembles the report content at now.
func (s *Scheduler) Snapshot(title string, now time.Time) status.Snapshot {
	t := s.state.Telemetry()
	snap := status.Snapshot{
		Title:             title,
		At:                now,
		TelemetryEnabled:  t.Enabled,
		TelemetryInterval: t.Interval,
		LastScanAt:        s.state.LastScanAt(),
		Offset:            s.state.Offset(),
	}
	if s.host != nil {
		s.host.Fill(&snap, now)
	}
	if s.scan != nil {
		snap.ScanInProgress = s.scan.InProgress()
	}
	return snap
}

func (s *Scheduler) send(ctx context.Context, title string, now time.Time) error {
	return s.sender.SendMessage(ctx, status.Encode(s.Snapshot(title, now)))
}
