// internal/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tamzrod/lanwatch/internal/logging"
	"github.com/tamzrod/lanwatch/internal/metrics"
	"github.com/tamzrod/lanwatch/internal/report"
	"github.com/tamzrod/lanwatch/internal/scan"
	"github.com/tamzrod/lanwatch/internal/status"
)

// Telemetry is the part of the scheduler commands can reach.
type Telemetry interface {
	SendStatus(ctx context.Context, title string) error
	SetEnabled(on bool)
	SetInterval(d time.Duration) error
}

// Scanner admits or refuses sweeps.
type Scanner interface {
	RequestScan(ctx context.Context) scan.Outcome
}

// Weather sends a weather report on demand.
type Weather interface {
	SendReport(ctx context.Context) error
}

// Config is the runtime config the dispatcher needs.
type Config struct {
	PrincipalID int64

	// Weather is optional; nil answers /weather with MsgWeatherOff.
	Weather Weather

	Log     logging.Logger
	Metrics *metrics.Metrics
}

// Dispatcher maps command text to actions. Every reply goes through sender;
// every state change is persisted by the component that owns it.
type Dispatcher struct {
	cfg       Config
	sender    report.Sender
	telemetry Telemetry
	scanner   Scanner

	handlers []handler
}

type handler struct {
	prefix string
	name   string
	run    func(ctx context.Context, text string)
}

// New creates a dispatcher.
func New(cfg Config, sender report.Sender, telemetry Telemetry, scanner Scanner) (*Dispatcher, error) {
	if cfg.PrincipalID == 0 {
		return nil, errors.New("dispatch: principal id required")
	}
	if sender == nil || telemetry == nil || scanner == nil {
		return nil, errors.New("dispatch: sender, telemetry and scanner required")
	}
	if cfg.Log == nil {
		cfg.Log = logging.New("dispatch")
	}

	d := &Dispatcher{cfg: cfg, sender: sender, telemetry: telemetry, scanner: scanner}
	d.handlers = []handler{
		{CmdStatus, CmdStatus, d.status},
		{CmdHelp, CmdHelp, d.help},
		{CmdSetInterval, CmdSetInterval, d.setInterval},
		{CmdStartTelemetry, CmdStartTelemetry, d.startTelemetry},
		{CmdStopTelemetry, CmdStopTelemetry, d.stopTelemetry},
		{CmdScan, CmdScan, d.scan},
		{CmdScanAlias, CmdScan, d.scan},
		{CmdWeather, CmdWeather, d.weather},
	}
	return d, nil
}

// Dispatch runs the command in text. It returns false, with no side effect
// beyond the unknown-command reply, when nothing matched, and false with no
// side effect at all when senderID is not the principal.
func (d *Dispatcher) Dispatch(ctx context.Context, text string, senderID int64) bool {
	if senderID != d.cfg.PrincipalID {
		return false
	}

	text = Normalize(text)
	if text == "" {
		return false
	}

	for _, h := range d.handlers {
		if strings.HasPrefix(text, h.prefix) {
			d.cfg.Metrics.Command(h.name)
			d.cfg.Log.WithField("command", h.name).Debug("dispatch")
			h.run(ctx, text)
			return true
		}
	}

	word := text
	if f := strings.Fields(text); len(f) > 0 {
		word = f[0]
	}
	d.cfg.Metrics.Command(cmdUnknown)
	d.reply(ctx, fmt.Sprintf(MsgUnknown, word))
	return false
}

// Normalize lowercases text, drops a leading slash and a "@botname" suffix
// on the command word, and joins the words with single spaces. The result
// is either empty or starts with a non-space character.
func Normalize(text string) string {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return ""
	}

	word := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(word, '@'); i >= 0 {
		word = word[:i]
	}
	if word == "" {
		fields = fields[1:]
	} else {
		fields[0] = word
	}
	return strings.Join(fields, " ")
}

func (d *Dispatcher) status(ctx context.Context, _ string) {
	if err := d.telemetry.SendStatus(ctx, status.TitleStatus); err != nil {
		d.cfg.Log.WithError(err).Warn("status report not delivered")
	}
}

func (d *Dispatcher) weather(ctx context.Context, _ string) {
	if d.cfg.Weather == nil {
		d.reply(ctx, MsgWeatherOff)
		return
	}
	if err := d.cfg.Weather.SendReport(ctx); err != nil {
		d.cfg.Log.WithError(err).Warn("weather report not delivered")
	}
}

func (d *Dispatcher) help(ctx context.Context, _ string) {
	d.reply(ctx, HelpText)
}

func (d *Dispatcher) setInterval(ctx context.Context, text string) {
	secs, ok := parseSeconds(strings.TrimPrefix(text, CmdSetInterval))
	if !ok {
		d.reply(ctx, MsgUsageSetInterval)
		return
	}
	if err := d.telemetry.SetInterval(time.Duration(secs) * time.Second); err != nil {
		d.reply(ctx, MsgUsageSetInterval)
		return
	}
	d.reply(ctx, fmt.Sprintf(MsgIntervalSet, secs))
}

func (d *Dispatcher) startTelemetry(ctx context.Context, _ string) {
	d.telemetry.SetEnabled(true)
	d.reply(ctx, MsgTelemetryOn)
}

func (d *Dispatcher) stopTelemetry(ctx context.Context, _ string) {
	d.telemetry.SetEnabled(false)
	d.reply(ctx, MsgTelemetryOff)
}

func (d *Dispatcher) scan(ctx context.Context, _ string) {
	out := d.scanner.RequestScan(ctx)
	d.cfg.Log.WithField("outcome", out.Status).Info("scan requested")
}

func (d *Dispatcher) reply(ctx context.Context, text string) {
	if err := d.sender.SendMessage(ctx, text); err != nil {
		d.cfg.Log.WithError(err).Warn("reply not delivered")
	}
}

// maxIntervalSeconds keeps the duration conversion from overflowing.
const maxIntervalSeconds = 366 * 24 * 60 * 60

// parseSeconds reads the first field of args as a positive integer.
func parseSeconds(args string) (int, bool) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 1 || n > maxIntervalSeconds {
		return 0, false
	}
	return n, true
}
