package metrics

import (
	"github.com/rs/zerolog"

	"github.com/recondo/recondo/pkg/logging"
)

// Notifier is the notification collaborator. Delivery is fire-and-forget
// from the Tracker's perspective: a failed notification is logged and never
// retried, and it never fails the run.
type Notifier interface {
	Notify(summary RunMetrics) error
}

// LogNotifier writes the notification to the structured log. It is the
// default sink when no external delivery channel is configured.
type LogNotifier struct {
	log *zerolog.Logger
}

// NewLogNotifier creates a log-backed notifier. A nil logger falls back to
// the default.
func NewLogNotifier(log *zerolog.Logger) *LogNotifier {
	if log == nil {
		log = logging.Default()
	}
	return &LogNotifier{log: log}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(summary RunMetrics) error {
	n.log.Warn().
		Int("differences", summary.Differences()).
		Int("only_in_a", summary.OnlyInA).
		Int("only_in_b", summary.OnlyInB).
		Int("value_mismatches", summary.ValueMismatches).
		Float64("match_rate", summary.MatchRate).
		Msg("reconciliation found significant differences")
	return nil
}
