// internal/config/config.go
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Environment overrides for secrets.
const (
	TokenEnv         = "LANWATCH_TELEGRAM_TOKEN"
	WeatherAPIKeyEnv = "LANWATCH_WEATHER_API_KEY"
)

type Config struct {
	Agent     AgentConfig     `yaml:"agent"`
	Auth      AuthConfig      `yaml:"auth"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Scan      ScanConfig      `yaml:"scan"`
	Weather   WeatherConfig   `yaml:"weather"`
	State     StateConfig     `yaml:"state"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

// ---- LOOP ----

type AgentConfig struct {
	TickMs          int   `yaml:"tick_ms"`
	PollPeriodMs    int   `yaml:"poll_period_ms"`
	AnnounceOnStart *bool `yaml:"announce_on_start"`
}

// ---- AUTHORIZATION ----

type AuthConfig struct {
	PrincipalID int64 `yaml:"principal_id"`
}

// ---- TRANSPORT ----

type TelegramConfig struct {
	Token            string `yaml:"token"`
	APIURL           string `yaml:"api_url"`
	ChatID           int64  `yaml:"chat_id"` // defaults to auth.principal_id
	LongPollTimeoutS int    `yaml:"long_poll_timeout_s"`
	FetchLimit       int    `yaml:"fetch_limit"`
	RequestTimeoutMs int    `yaml:"request_timeout_ms"`
}

// ---- TELEMETRY ----

type TelemetryConfig struct {
	IntervalMsDefault int `yaml:"interval_ms_default"`
}

// ---- SCAN ----

type ScanConfig struct {
	CooldownMs          int         `yaml:"cooldown_ms"`
	FlushThresholdBytes int         `yaml:"flush_threshold_bytes"`
	OnStart             bool        `yaml:"on_start"`
	Interface           string      `yaml:"interface"` // empty = first up, non-loopback IPv4
	Probe               ProbeConfig `yaml:"probe"`
}

type ProbeConfig struct {
	Method       string `yaml:"method"` // tcp | modbus | icmp
	TimeoutMs    int    `yaml:"timeout_ms"`
	Ports        []int  `yaml:"ports"`
	ModbusUnitID uint8  `yaml:"modbus_unit_id"`
}

// ---- WEATHER ----

// WeatherConfig enables the OpenWeather report. An empty api_key disables it.
type WeatherConfig struct {
	APIKey     string `yaml:"api_key"`
	APIURL     string `yaml:"api_url"`
	City       string `yaml:"city"` // "Madrid,ES"
	Units      string `yaml:"units"`
	Lang       string `yaml:"lang"`
	IntervalMs int    `yaml:"interval_ms"`
	TimeoutMs  int    `yaml:"timeout_ms"`
}

// Enabled reports whether an api key is configured.
func (w WeatherConfig) Enabled() bool { return strings.TrimSpace(w.APIKey) != "" }

// ---- PERSISTENCE / OBSERVABILITY ----

type StateConfig struct {
	Path string `yaml:"path"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the listener
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads path, applies the environment overrides, validates and
// normalizes. The returned config is ready to use.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config: read")
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrap(err, "config: parse")
	}

	if tok := strings.TrimSpace(os.Getenv(TokenEnv)); tok != "" {
		cfg.Telegram.Token = tok
	}
	if key := strings.TrimSpace(os.Getenv(WeatherAPIKeyEnv)); key != "" {
		cfg.Weather.APIKey = key
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	Normalize(&cfg)

	return &cfg, nil
}
