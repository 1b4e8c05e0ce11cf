package metrics

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recondo/recondo/pkg/errors"
	"github.com/recondo/recondo/pkg/reconcile"
)

// recordingNotifier captures every delivery for assertions.
type recordingNotifier struct {
	calls []RunMetrics
	err   error
}

func (n *recordingNotifier) Notify(summary RunMetrics) error {
	n.calls = append(n.calls, summary)
	return n.err
}

func TestTrackThreshold(t *testing.T) {
	// sampleResult carries 6 differences: 3 one-sided keys, 3 mismatches.
	tests := []struct {
		name       string
		threshold  int
		wantNotify bool
	}{
		{"below", 10, false},
		{"equal does not fire", 6, false},
		{"strictly above fires", 5, true},
		{"zero threshold fires on any difference", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			tracker := NewTracker(nil,
				WithThreshold(tt.threshold),
				WithNotifier(notifier),
			)

			_, err := tracker.Track(sampleResult(), 12, 13, time.Now())
			require.NoError(t, err)

			if tt.wantNotify {
				require.Len(t, notifier.calls, 1, "notification fires exactly once")
				assert.Equal(t, 6, notifier.calls[0].Differences())
			} else {
				assert.Empty(t, notifier.calls)
			}
		})
	}
}

func TestTrackNotifierFailureIsAbsorbed(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	tracker := NewTracker(nil, WithThreshold(0), WithNotifier(notifier))

	m, err := tracker.Track(sampleResult(), 12, 13, time.Now())
	assert.NoError(t, err, "delivery failure never fails the run")
	assert.Equal(t, 6, m.Differences())
}

func TestTrackPersistsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	finished := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	tracker := NewTracker(nil,
		WithStatePath(path),
		WithClock(func() time.Time { return finished }),
	)

	m, err := tracker.Track(sampleResult(), 12, 13, finished.Add(-2*time.Second))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, m.ElapsedSeconds, 1e-9)

	state, err := LoadState(path)
	require.NoError(t, err)
	assert.NotEmpty(t, state.RunID)
	assert.True(t, finished.Equal(state.Timestamp))
	assert.Equal(t, m.ValueMismatches, state.Metrics.ValueMismatches)
}

func TestTrackPersistFailureReturnsMetrics(t *testing.T) {
	// A state path inside a missing directory cannot be written.
	path := filepath.Join(t.TempDir(), "missing", "state.json")
	tracker := NewTracker(nil, WithStatePath(path))

	m, err := tracker.Track(sampleResult(), 12, 13, time.Now())
	require.Error(t, err)
	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)
	assert.Equal(t, 6, m.Differences(), "metrics survive the persist failure")
}

func TestPriorState(t *testing.T) {
	t.Run("no state path", func(t *testing.T) {
		tracker := NewTracker(nil)
		state, err := tracker.PriorState()
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("first run", func(t *testing.T) {
		tracker := NewTracker(nil, WithStatePath(filepath.Join(t.TempDir(), "state.json")))
		state, err := tracker.PriorState()
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("subsequent run", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		require.NoError(t, SaveState(path, &RunState{RunID: "prior"}))

		tracker := NewTracker(nil, WithStatePath(path))
		state, err := tracker.PriorState()
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, "prior", state.RunID)
	})
}

func TestTrackRunIDsAreUnique(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	tracker := NewTracker(nil, WithStatePath(path))

	_, err := tracker.Track(&reconcile.Result{}, 0, 0, time.Now())
	require.NoError(t, err)
	first, err := LoadState(path)
	require.NoError(t, err)

	_, err = tracker.Track(&reconcile.Result{}, 0, 0, time.Now())
	require.NoError(t, err)
	second, err := LoadState(path)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
}
