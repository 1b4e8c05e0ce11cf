package metrics

import (
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/recondo/recondo/pkg/errors"
	"github.com/recondo/recondo/pkg/logging"
	"github.com/recondo/recondo/pkg/reconcile"
)

// Tracker wraps the reconciliation output into RunMetrics, fires the
// notification collaborator when the difference count crosses the
// threshold, and persists RunState at the end of a run.
type Tracker struct {
	threshold int
	notifier  Notifier
	statePath string
	log       *zerolog.Logger
	now       func() time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithThreshold sets the notification threshold. Notification fires when
// the number of differences is strictly greater than the threshold.
func WithThreshold(n int) TrackerOption {
	return func(t *Tracker) { t.threshold = n }
}

// WithNotifier sets the notification sink.
func WithNotifier(n Notifier) TrackerOption {
	return func(t *Tracker) { t.notifier = n }
}

// WithStatePath sets the run-state file path. Empty disables persistence.
func WithStatePath(path string) TrackerOption {
	return func(t *Tracker) { t.statePath = path }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// NewTracker creates a Tracker. By default it notifies through the log and
// persists nothing.
func NewTracker(log *zerolog.Logger, opts ...TrackerOption) *Tracker {
	if log == nil {
		log = logging.Default()
	}
	t := &Tracker{
		log: log,
		now: time.Now,
	}
	t.notifier = NewLogNotifier(log)
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track derives metrics for a finished run, fires the notifier at most once
// when the threshold is exceeded, and persists the new RunState. A failed
// persist is the run's own failure, but the computed metrics are returned
// regardless; persistence failure never discards results.
func (t *Tracker) Track(result *reconcile.Result, totalA, totalB int, started time.Time) (RunMetrics, error) {
	finished := t.now()
	m := Derive(result, totalA, totalB, finished.Sub(started))

	t.log.Info().
		Float64("match_rate", m.MatchRate).
		Int("only_in_a", m.OnlyInA).
		Int("only_in_b", m.OnlyInB).
		Int("value_mismatches", m.ValueMismatches).
		Int("duplicate_keys", m.DuplicateKeys).
		Msg("reconciliation complete")

	if m.Differences() > t.threshold {
		if err := t.notifier.Notify(m); err != nil {
			// Fire-and-forget: delivery failure never fails the run.
			t.log.Warn().Err(err).Msg("notification delivery failed")
		}
	}

	if t.statePath == "" {
		return m, nil
	}
	state := &RunState{
		RunID:     uuid.NewString(),
		Timestamp: finished,
		Metrics:   m,
	}
	if err := SaveState(t.statePath, state); err != nil {
		return m, err
	}
	return m, nil
}

// PriorState loads the previous run's state for incremental mode. A first
// run (no state file yet) returns nil without error.
func (t *Tracker) PriorState() (*RunState, error) {
	if t.statePath == "" {
		return nil, nil
	}
	state, err := LoadState(t.statePath)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return state, nil
}
