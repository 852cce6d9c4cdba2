// internal/status/constants.go
package status

// Report titles. The scheduler and the status command share one renderer and
// differ only by title.
const (
	TitleStatus    = "📡 Status"
	TitleTelemetry = "📊 Telemetry"
)

// ---- FIELD LABELS ----

const (
	LabelHost       = "Host"
	LabelIP         = "IP"
	LabelMAC        = "MAC"
	LabelUptime     = "Uptime"
	LabelHeap       = "Heap in use"
	LabelGoroutines = "Goroutines"
	LabelInterval   = "Telemetry interval"
	LabelEnabled    = "Telemetry active"
	LabelLastScan   = "Last scan"
	LabelScanning   = "Scan running"
	LabelOffset     = "Update offset"
)

// Yes and No render booleans.
const (
	Yes = "yes"
	No  = "no"
)

// Never renders a zero timestamp.
const Never = "never"
