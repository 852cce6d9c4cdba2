// internal/config/normalize.go
package config

import "strings"

// Defaults. The telemetry, poll and scan values match the firmware this agent
// replaces.
const (
	DefaultTickMs              = 200
	DefaultPollPeriodMs        = 2000
	DefaultAPIURL              = "https://api.telegram.org"
	DefaultFetchLimit          = 5
	DefaultRequestTimeoutMs    = 10000
	DefaultTelemetryIntervalMs = 10 * 60 * 1000
	DefaultScanCooldownMs      = 60 * 1000
	DefaultFlushThresholdBytes = 800
	DefaultProbeMethod         = "tcp"
	DefaultProbeTimeoutMs      = 1000
	DefaultModbusUnitID        = 1
	DefaultWeatherAPIURL       = "https://api.openweathermap.org"
	DefaultWeatherUnits        = "metric"
	DefaultWeatherLang         = "en"
	DefaultWeatherIntervalMs   = 60 * 60 * 1000
	DefaultWeatherTimeoutMs    = 10000
	DefaultStatePath           = "lanwatch-state.yaml"
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "text"
)

// DefaultProbePorts are dialed by the tcp prober when none are configured.
var DefaultProbePorts = []int{22, 80, 443}

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Telegram.Token = strings.TrimSpace(cfg.Telegram.Token)
	cfg.Telegram.APIURL = strings.TrimRight(cfg.Telegram.APIURL, "/")

	if cfg.Agent.TickMs == 0 {
		cfg.Agent.TickMs = DefaultTickMs
	}
	if cfg.Agent.PollPeriodMs == 0 {
		cfg.Agent.PollPeriodMs = DefaultPollPeriodMs
	}
	if cfg.Agent.AnnounceOnStart == nil {
		on := true
		cfg.Agent.AnnounceOnStart = &on
	}

	if cfg.Telegram.APIURL == "" {
		cfg.Telegram.APIURL = DefaultAPIURL
	}
	if cfg.Telegram.ChatID == 0 {
		cfg.Telegram.ChatID = cfg.Auth.PrincipalID
	}
	if cfg.Telegram.FetchLimit == 0 {
		cfg.Telegram.FetchLimit = DefaultFetchLimit
	}
	if cfg.Telegram.RequestTimeoutMs == 0 {
		cfg.Telegram.RequestTimeoutMs = DefaultRequestTimeoutMs + cfg.Telegram.LongPollTimeoutS*1000
	}

	if cfg.Telemetry.IntervalMsDefault == 0 {
		cfg.Telemetry.IntervalMsDefault = DefaultTelemetryIntervalMs
	}

	if cfg.Scan.CooldownMs == 0 {
		cfg.Scan.CooldownMs = DefaultScanCooldownMs
	}
	if cfg.Scan.FlushThresholdBytes == 0 {
		cfg.Scan.FlushThresholdBytes = DefaultFlushThresholdBytes
	}
	if cfg.Scan.Probe.Method == "" {
		cfg.Scan.Probe.Method = DefaultProbeMethod
	}
	if cfg.Scan.Probe.TimeoutMs == 0 {
		cfg.Scan.Probe.TimeoutMs = DefaultProbeTimeoutMs
	}
	if len(cfg.Scan.Probe.Ports) == 0 {
		cfg.Scan.Probe.Ports = append([]int(nil), DefaultProbePorts...)
	}
	if cfg.Scan.Probe.ModbusUnitID == 0 {
		cfg.Scan.Probe.ModbusUnitID = DefaultModbusUnitID
	}

	cfg.Weather.APIKey = strings.TrimSpace(cfg.Weather.APIKey)
	cfg.Weather.APIURL = strings.TrimRight(cfg.Weather.APIURL, "/")
	if cfg.Weather.APIURL == "" {
		cfg.Weather.APIURL = DefaultWeatherAPIURL
	}
	if cfg.Weather.Units == "" {
		cfg.Weather.Units = DefaultWeatherUnits
	}
	if cfg.Weather.Lang == "" {
		cfg.Weather.Lang = DefaultWeatherLang
	}
	if cfg.Weather.IntervalMs == 0 {
		cfg.Weather.IntervalMs = DefaultWeatherIntervalMs
	}
	if cfg.Weather.TimeoutMs == 0 {
		cfg.Weather.TimeoutMs = DefaultWeatherTimeoutMs
	}

	if cfg.State.Path == "" {
		cfg.State.Path = DefaultStatePath
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
