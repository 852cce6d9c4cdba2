// internal/agent/builder.go
package agent

import (
	"time"

	"github.com/pkg/errors"
	"github.com/tamzrod/lanwatch/internal/clock"
	"github.com/tamzrod/lanwatch/internal/config"
	"github.com/tamzrod/lanwatch/internal/dispatch"
	"github.com/tamzrod/lanwatch/internal/logging"
	"github.com/tamzrod/lanwatch/internal/metrics"
	"github.com/tamzrod/lanwatch/internal/netinfo"
	"github.com/tamzrod/lanwatch/internal/poller"
	"github.com/tamzrod/lanwatch/internal/report"
	"github.com/tamzrod/lanwatch/internal/scan"
	"github.com/tamzrod/lanwatch/internal/scan/probe"
	"github.com/tamzrod/lanwatch/internal/state"
	"github.com/tamzrod/lanwatch/internal/status"
	"github.com/tamzrod/lanwatch/internal/telegram"
	"github.com/tamzrod/lanwatch/internal/telemetry"
	"github.com/tamzrod/lanwatch/internal/weather"
)

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// Build wires every component from a loaded config. The returned closer
// releases background resources.
// Assumes cfg has passed Validate and Normalize.
func Build(cfg *config.Config, m *metrics.Metrics) (*Agent, func() error, error) {
	if cfg == nil {
		return nil, nil, errors.New("agent: config required")
	}
	clk := clock.Real()

	// ---- state ----
	store, err := state.OpenFileStore(cfg.State.Path)
	if err != nil {
		return nil, nil, err
	}
	st := state.Load(store, ms(cfg.Telemetry.IntervalMsDefault))

	// ---- transport ----
	tg, err := telegram.New(telegram.Config{
		APIURL:          cfg.Telegram.APIURL,
		Token:           cfg.Telegram.Token,
		ChatID:          cfg.Telegram.ChatID,
		LongPollTimeout: time.Duration(cfg.Telegram.LongPollTimeoutS) * time.Second,
		Limit:           cfg.Telegram.FetchLimit,
		RequestTimeout:  ms(cfg.Telegram.RequestTimeoutMs),
	})
	if err != nil {
		return nil, nil, err
	}
	sender := report.Observed{Next: tg, Log: logging.New("telegram"), Metrics: m}

	// ---- scan ----
	network := netinfo.Source{Name: cfg.Scan.Interface}
	prober, err := probe.New(cfg.Scan.Probe.Method, probe.Options{
		Timeout: ms(cfg.Scan.Probe.TimeoutMs),
		Ports:   cfg.Scan.Probe.Ports,
		UnitID:  cfg.Scan.Probe.ModbusUnitID,
	})
	if err != nil {
		return nil, nil, err
	}
	guard, err := scan.New(scan.Config{
		Cooldown:       ms(cfg.Scan.CooldownMs),
		FlushThreshold: cfg.Scan.FlushThresholdBytes,
		Clock:          clk,
		Log:            logging.New("scan"),
		Metrics:        m,
	}, st, network, prober, sender)
	if err != nil {
		return nil, nil, err
	}

	// ---- telemetry ----
	host := status.HostSource{Network: network, Started: clk.Now()}
	sched, err := telemetry.New(telemetry.Config{
		Clock:   clk,
		Log:     logging.New("telemetry"),
		Metrics: m,
	}, st, sender, host, guard)
	if err != nil {
		return nil, nil, err
	}

	// ---- weather (optional) ----
	var wx *weather.Reporter
	if cfg.Weather.Enabled() {
		src, err := weather.NewClient(weather.ClientConfig{
			APIURL:  cfg.Weather.APIURL,
			APIKey:  cfg.Weather.APIKey,
			City:    cfg.Weather.City,
			Units:   cfg.Weather.Units,
			Lang:    cfg.Weather.Lang,
			Timeout: ms(cfg.Weather.TimeoutMs),
		})
		if err != nil {
			return nil, nil, err
		}
		wx, err = weather.New(weather.Config{
			Interval: ms(cfg.Weather.IntervalMs),
			Clock:    clk,
			Log:      logging.New("weather"),
			Metrics:  m,
		}, src, sender)
		if err != nil {
			return nil, nil, err
		}
	}

	// ---- commands ----
	dcfg := dispatch.Config{
		PrincipalID: cfg.Auth.PrincipalID,
		Log:         logging.New("dispatch"),
		Metrics:     m,
	}
	acfg := Config{
		Tick:            ms(cfg.Agent.TickMs),
		PollPeriod:      ms(cfg.Agent.PollPeriodMs),
		AnnounceOnStart: cfg.Agent.AnnounceOnStart != nil && *cfg.Agent.AnnounceOnStart,
		ScanOnStart:     cfg.Scan.OnStart,
		Clock:           clk,
		Log:             logging.New("agent"),
	}
	if wx != nil {
		dcfg.Weather = wx
		acfg.Weather = wx
	}

	disp, err := dispatch.New(dcfg, sender, sched, guard)
	if err != nil {
		return nil, nil, err
	}

	p, err := poller.New(poller.Config{
		PrincipalID: cfg.Auth.PrincipalID,
		Log:         logging.New("poller"),
		Metrics:     m,
	}, tg, disp, st)
	if err != nil {
		return nil, nil, err
	}

	a, err := New(acfg, p, sched, guard, sender, network)
	if err != nil {
		p.Close()
		return nil, nil, err
	}

	closer := func() error {
		p.Close()
		return nil
	}
	return a, closer, nil
}
