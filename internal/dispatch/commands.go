// internal/dispatch/commands.go
package dispatch

// Command words, matched by prefix in this order.
const (
	CmdStatus         = "status"
	CmdHelp           = "help"
	CmdSetInterval    = "setinterval"
	CmdStartTelemetry = "starttelemetry"
	CmdStopTelemetry  = "stoptelemetry"
	CmdScan           = "scan"
	CmdScanAlias      = "escanear"
	CmdWeather        = "weather"
)

// cmdUnknown labels unmatched input in metrics.
const cmdUnknown = "unknown"

// Replies.
const (
	HelpText = `📖 Commands:
/status - current status report
/setinterval <seconds> - telemetry period (min 1)
/starttelemetry - enable periodic reports
/stoptelemetry - disable periodic reports
/scan - sweep the local network (alias /escanear)
/weather - current weather, when configured
/help - this list`

	MsgUsageSetInterval = "⚠️ Usage: /setinterval <seconds>, at least 1"
	MsgIntervalSet      = "⏱ Telemetry interval set to %d s"
	MsgTelemetryOn      = "✅ Telemetry enabled"
	MsgTelemetryOff     = "⛔ Telemetry disabled"
	MsgUnknown          = "❓ unknown command: %s\nSend /help for the list."
	MsgWeatherOff       = "🌫 Weather report not configured"
)
