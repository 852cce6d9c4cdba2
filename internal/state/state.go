// internal/state/state.go
package state

import (
	"time"

	"github.com/pkg/errors"
)

// Persisted keys.
const (
	KeyLastUpdate    = "last_update"
	KeyInterval      = "interval"
	KeyLastTelemetry = "last_telem"
	KeyEnabled       = "enabled"
	KeyLastScan      = "last_scan"
)

// MinInterval is the shortest telemetry interval accepted.
const MinInterval = time.Second

// Telemetry is the telemetry schedule as persisted.
type Telemetry struct {
	Enabled    bool
	Interval   time.Duration
	LastSentAt time.Time
}

// State is the agent's mutable state. It is owned by the scheduling loop;
// every setter writes its key through to the Store before returning, so a
// crash loses at most the in-flight mutation.
//
// On a Store failure the in-memory value is still updated: the running
// process must not reprocess an update or re-send a report because the disk
// was unavailable.
type State struct {
	store Store

	offset     int64
	telemetry  Telemetry
	lastScanAt time.Time
}

// Load restores State from store. Missing keys take defaults: offset 0,
// telemetry enabled at defaultInterval, no previous report or scan.
func Load(store Store, defaultInterval time.Duration) *State {
	if defaultInterval < MinInterval {
		defaultInterval = MinInterval
	}

	interval := time.Duration(store.Int(KeyInterval, defaultInterval.Milliseconds())) * time.Millisecond
	if interval < MinInterval {
		interval = defaultInterval
	}

	return &State{
		store:  store,
		offset: store.Int(KeyLastUpdate, 0),
		telemetry: Telemetry{
			Enabled:    store.Bool(KeyEnabled, true),
			Interval:   interval,
			LastSentAt: fromMillis(store.Int(KeyLastTelemetry, 0)),
		},
		lastScanAt: fromMillis(store.Int(KeyLastScan, 0)),
	}
}

func (s *State) Offset() int64         { return s.offset }
func (s *State) Telemetry() Telemetry  { return s.telemetry }
func (s *State) LastScanAt() time.Time { return s.lastScanAt }

// AdvanceOffset moves the offset to id and persists it. Ids at or below the
// current offset are ignored; the offset never decreases.
func (s *State) AdvanceOffset(id int64) error {
	if id <= s.offset {
		return nil
	}
	s.offset = id
	return errors.WithMessage(s.store.SetInt(KeyLastUpdate, id), "persist offset")
}

func (s *State) SetTelemetryEnabled(on bool) error {
	s.telemetry.Enabled = on
	return errors.WithMessage(s.store.SetBool(KeyEnabled, on), "persist telemetry flag")
}

func (s *State) SetTelemetryInterval(d time.Duration) error {
	if d < MinInterval {
		return errors.Errorf("interval %s below %s", d, MinInterval)
	}
	s.telemetry.Interval = d
	return errors.WithMessage(s.store.SetInt(KeyInterval, d.Milliseconds()), "persist telemetry interval")
}

func (s *State) MarkTelemetrySent(at time.Time) error {
	s.telemetry.LastSentAt = at
	return errors.WithMessage(s.store.SetInt(KeyLastTelemetry, at.UnixMilli()), "persist telemetry timestamp")
}

func (s *State) MarkScan(at time.Time) error {
	s.lastScanAt = at
	return errors.WithMessage(s.store.SetInt(KeyLastScan, at.UnixMilli()), "persist scan timestamp")
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
