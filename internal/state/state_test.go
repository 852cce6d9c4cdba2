package state

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTripAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.yaml")

	fs, err := OpenFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), fs.Int(KeyLastUpdate, 7), "missing key returns default")
	assert.True(t, fs.Bool(KeyEnabled, true))

	require.NoError(t, fs.SetInt(KeyLastUpdate, 1_700_000_000_123))
	require.NoError(t, fs.SetBool(KeyEnabled, false))

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000_123), reopened.Int(KeyLastUpdate, 0))
	assert.False(t, reopened.Bool(KeyEnabled, true))
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	fs, err := OpenFileStore(filepath.Join(dir, "state.yaml"))
	require.NoError(t, err)

	for i := int64(0); i < 5; i++ {
		require.NoError(t, fs.SetInt(KeyLastUpdate, i))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.yaml", entries[0].Name())
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- a\n- b\n"), 0o644))

	_, err := OpenFileStore(path)
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	s := Load(NewMemStore(), 10*time.Minute)

	assert.Equal(t, int64(0), s.Offset())
	assert.True(t, s.Telemetry().Enabled)
	assert.Equal(t, 10*time.Minute, s.Telemetry().Interval)
	assert.True(t, s.Telemetry().LastSentAt.IsZero())
	assert.True(t, s.LastScanAt().IsZero())
}

func TestOffsetIsMonotonic(t *testing.T) {
	store := NewMemStore()
	s := Load(store, time.Minute)

	require.NoError(t, s.AdvanceOffset(10))
	require.NoError(t, s.AdvanceOffset(4))
	require.NoError(t, s.AdvanceOffset(10))

	assert.Equal(t, int64(10), s.Offset())
	assert.Equal(t, int64(10), store.Int(KeyLastUpdate, 0))
	assert.Equal(t, 1, store.Writes, "only the real advance is persisted")
}

func TestIntervalSurvivesRestart(t *testing.T) {
	store := NewMemStore()
	s := Load(store, 10*time.Minute)
	require.NoError(t, s.SetTelemetryInterval(30*time.Second))
	require.NoError(t, s.SetTelemetryEnabled(false))

	reloaded := Load(store, 10*time.Minute)
	assert.Equal(t, 30*time.Second, reloaded.Telemetry().Interval)
	assert.False(t, reloaded.Telemetry().Enabled)
}

func TestIntervalBelowMinimumRejected(t *testing.T) {
	store := NewMemStore()
	s := Load(store, time.Minute)

	assert.Error(t, s.SetTelemetryInterval(500*time.Millisecond))
	assert.Equal(t, time.Minute, s.Telemetry().Interval)
	assert.Equal(t, 0, store.Writes)
}

func TestTimestampsPersistAsWallClock(t *testing.T) {
	store := NewMemStore()
	s := Load(store, time.Minute)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.MarkTelemetrySent(at))
	require.NoError(t, s.MarkScan(at.Add(time.Hour)))

	reloaded := Load(store, time.Minute)
	assert.True(t, reloaded.Telemetry().LastSentAt.Equal(at))
	assert.True(t, reloaded.LastScanAt().Equal(at.Add(time.Hour)))
}

func TestStoreFailureStillAdvancesMemory(t *testing.T) {
	store := NewMemStore()
	store.FailWith = errors.New("disk full")
	s := Load(store, time.Minute)

	err := s.AdvanceOffset(5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, int64(5), s.Offset())
}
