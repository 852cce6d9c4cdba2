// internal/config/validate.go
package config

import (
	"fmt"
	"net/url"
	"strings"
)

// MinTelemetryIntervalMs is the smallest accepted telemetry interval.
const MinTelemetryIntervalMs = 1000

// MaxFlushThresholdBytes keeps a partial host list, header included, under
// the 4096 character message limit of the Bot API.
const MaxFlushThresholdBytes = 3500

// MinWeatherIntervalMs is the smallest accepted weather interval.
const MinWeatherIntervalMs = 60 * 1000

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration. Zero values mean "use the default" and
// are accepted here; Normalize fills them in.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	// ------------------------------------------------------------
	// AUTHORIZATION
	// ------------------------------------------------------------

	if cfg.Auth.PrincipalID == 0 {
		return fmt.Errorf("auth.principal_id is required")
	}

	// ------------------------------------------------------------
	// TRANSPORT
	// ------------------------------------------------------------

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram.token is required (or set %s)", TokenEnv)
	}
	if cfg.Telegram.APIURL != "" {
		u, err := url.Parse(cfg.Telegram.APIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("telegram.api_url %q is not an absolute url", cfg.Telegram.APIURL)
		}
	}
	if cfg.Telegram.LongPollTimeoutS < 0 {
		return fmt.Errorf("telegram.long_poll_timeout_s must be >= 0")
	}
	if cfg.Telegram.FetchLimit < 0 || cfg.Telegram.FetchLimit > 100 {
		return fmt.Errorf("telegram.fetch_limit must be within 0..100")
	}
	if cfg.Telegram.RequestTimeoutMs < 0 {
		return fmt.Errorf("telegram.request_timeout_ms must be >= 0")
	}
	if cfg.Telegram.RequestTimeoutMs > 0 && cfg.Telegram.RequestTimeoutMs <= cfg.Telegram.LongPollTimeoutS*1000 {
		return fmt.Errorf(
			"telegram.request_timeout_ms (%d) must exceed long_poll_timeout_s (%ds)",
			cfg.Telegram.RequestTimeoutMs,
			cfg.Telegram.LongPollTimeoutS,
		)
	}

	// ------------------------------------------------------------
	// LOOP / TELEMETRY
	// ------------------------------------------------------------

	if cfg.Agent.TickMs < 0 {
		return fmt.Errorf("agent.tick_ms must be >= 0")
	}
	if cfg.Agent.PollPeriodMs < 0 {
		return fmt.Errorf("agent.poll_period_ms must be >= 0")
	}
	if cfg.Telemetry.IntervalMsDefault != 0 && cfg.Telemetry.IntervalMsDefault < MinTelemetryIntervalMs {
		return fmt.Errorf(
			"telemetry.interval_ms_default must be >= %d, got %d",
			MinTelemetryIntervalMs,
			cfg.Telemetry.IntervalMsDefault,
		)
	}

	// ------------------------------------------------------------
	// SCAN
	// ------------------------------------------------------------

	if cfg.Scan.CooldownMs < 0 {
		return fmt.Errorf("scan.cooldown_ms must be >= 0")
	}
	if cfg.Scan.FlushThresholdBytes < 0 || cfg.Scan.FlushThresholdBytes > MaxFlushThresholdBytes {
		return fmt.Errorf(
			"scan.flush_threshold_bytes must be within 0..%d, got %d",
			MaxFlushThresholdBytes,
			cfg.Scan.FlushThresholdBytes,
		)
	}
	if cfg.Scan.Probe.TimeoutMs < 0 {
		return fmt.Errorf("scan.probe.timeout_ms must be >= 0")
	}

	switch cfg.Scan.Probe.Method {
	case "", "tcp", "modbus", "icmp":
	default:
		return fmt.Errorf("scan.probe.method %q: want tcp, modbus or icmp", cfg.Scan.Probe.Method)
	}

	seen := make(map[int]struct{}, len(cfg.Scan.Probe.Ports))
	for _, p := range cfg.Scan.Probe.Ports {
		if p < 1 || p > 65535 {
			return fmt.Errorf("scan.probe.ports: %d out of range", p)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("scan.probe.ports: %d listed twice", p)
		}
		seen[p] = struct{}{}
	}

	// ------------------------------------------------------------
	// WEATHER
	// ------------------------------------------------------------

	if cfg.Weather.Enabled() {
		if strings.TrimSpace(cfg.Weather.City) == "" {
			return fmt.Errorf("weather.city is required when weather.api_key is set")
		}
		if cfg.Weather.APIURL != "" {
			u, err := url.Parse(cfg.Weather.APIURL)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("weather.api_url %q is not an absolute url", cfg.Weather.APIURL)
			}
		}
	}
	if cfg.Weather.IntervalMs != 0 && cfg.Weather.IntervalMs < MinWeatherIntervalMs {
		return fmt.Errorf(
			"weather.interval_ms must be >= %d, got %d",
			MinWeatherIntervalMs,
			cfg.Weather.IntervalMs,
		)
	}
	if cfg.Weather.TimeoutMs < 0 {
		return fmt.Errorf("weather.timeout_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// LOGGING
	// ------------------------------------------------------------

	switch cfg.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format %q: want text or json", cfg.Log.Format)
	}

	return nil
}
