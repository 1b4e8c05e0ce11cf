package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recondo/recondo/pkg/errors"
)

func TestStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	ts := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	in := &RunState{
		RunID:     "run-1",
		Timestamp: ts,
		Metrics: RunMetrics{
			TotalRecords:    10,
			ValueMismatches: 2,
			MatchRate:       0.9,
		},
	}
	require.NoError(t, SaveState(path, in))

	out, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, "run-1", out.RunID)
	assert.True(t, ts.Equal(out.Timestamp))
	assert.Equal(t, 2, out.Metrics.ValueMismatches)
}

func TestSaveStateOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	require.NoError(t, SaveState(path, &RunState{RunID: "first"}))
	require.NoError(t, SaveState(path, &RunState{RunID: "second"}))

	out, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, "second", out.RunID)
}

func TestSaveStateLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, SaveState(path, &RunState{RunID: "x"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}

func TestLoadStateMissing(t *testing.T) {
	_, err := LoadState(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestLoadStateCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadState(path)
	require.Error(t, err)
	var parseErr *errors.ParseError
	assert.ErrorAs(t, err, &parseErr)
}
