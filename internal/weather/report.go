// internal/weather/report.go
package weather

import "fmt"

// Report is one current-conditions reading.
type Report struct {
	City        string
	Description string
	Temp        float64 // °C with metric units
	FeelsLike   float64
	Humidity    int // percent
}

// Text renders r as a single chat message.
func (r Report) Text() string {
	city := r.City
	if city == "" {
		city = "??"
	}
	desc := r.Description
	if desc == "" {
		desc = "no data"
	}
	return fmt.Sprintf("🌤 Weather in %s: %s. T=%.1f°C (feels like %.1f°C). Humidity %d%%.",
		city, desc, r.Temp, r.FeelsLike, r.Humidity)
}
