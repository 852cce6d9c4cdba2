// internal/weather/reporter.go
package weather

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/tamzrod/lanwatch/internal/clock"
	"github.com/tamzrod/lanwatch/internal/logging"
	"github.com/tamzrod/lanwatch/internal/metrics"
	"github.com/tamzrod/lanwatch/internal/report"
)

// Source returns current conditions.
type Source interface {
	Current(ctx context.Context) (Report, error)
}

// Config is the runtime config the reporter needs.
type Config struct {
	Interval time.Duration

	Clock   clock.Clock
	Log     logging.Logger
	Metrics *metrics.Metrics
}

// Reporter sends a weather report every Interval. The schedule lives in
// memory only; the first report goes out one interval after start.
type Reporter struct {
	cfg    Config
	source Source
	sender report.Sender

	lastSent time.Time
}

// New creates a reporter.
func New(cfg Config, source Source, sender report.Sender) (*Reporter, error) {
	if source == nil || sender == nil {
		return nil, errors.New("weather: source and sender required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.Errorf("weather: interval must be positive, got %s", cfg.Interval)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Log == nil {
		cfg.Log = logging.New("weather")
	}
	return &Reporter{cfg: cfg, source: source, sender: sender, lastSent: cfg.Clock.Now()}, nil
}

// Tick sends a report when the interval has elapsed. A failed fetch or send
// still moves the schedule. A last send in the future (clock stepped back)
// counts as due.
func (r *Reporter) Tick(ctx context.Context, now time.Time) {
	if elapsed := now.Sub(r.lastSent); elapsed >= 0 && elapsed < r.cfg.Interval {
		return
	}
	r.lastSent = now

	if err := r.SendReport(ctx); err != nil {
		r.cfg.Log.WithError(err).Warn("weather report not delivered")
	}
}

// SendReport fetches and sends one report now. It does not move the
// schedule.
func (r *Reporter) SendReport(ctx context.Context) error {
	rep, err := r.source.Current(ctx)
	if err != nil {
		r.cfg.Metrics.WeatherReport(err)
		return err
	}
	err = r.sender.SendMessage(ctx, rep.Text())
	r.cfg.Metrics.WeatherReport(err)
	return err
}
