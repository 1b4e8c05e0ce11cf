// Package metrics derives run metrics from reconciliation results, persists
// run state for incremental runs, and triggers the notification collaborator
// when differences exceed a threshold.
package metrics

import (
	"time"

	"github.com/recondo/recondo/pkg/reconcile"
)

// RunMetrics summarizes one reconciliation run. It is derived entirely from
// a reconcile.Result plus the input sizes; nothing outside the Tracker
// hand-mutates it.
type RunMetrics struct {
	TotalRecords   int `json:"total_records"`
	MatchedRecords int `json:"matched_records"`

	OnlyInA         int `json:"only_in_a"`
	OnlyInB         int `json:"only_in_b"`
	Unkeyable       int `json:"unkeyable"`
	DuplicateKeys   int `json:"duplicate_keys"`
	ValueMismatches int `json:"value_mismatches"`

	MismatchCountsByField map[string]int `json:"mismatch_counts_by_field"`

	MatchRate      float64 `json:"match_rate"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// Derive computes metrics from a result and the raw input sizes. Elapsed
// wall-clock time is supplied by the Tracker.
func Derive(result *reconcile.Result, totalA, totalB int, elapsed time.Duration) RunMetrics {
	counts := make(map[string]int, len(result.Mismatches))
	for field, list := range result.Mismatches {
		counts[field] = len(list)
	}

	return RunMetrics{
		TotalRecords:          totalA + totalB,
		MatchedRecords:        result.CommonKeys - result.MismatchedKeys(),
		OnlyInA:               len(result.OnlyInA),
		OnlyInB:               len(result.OnlyInB),
		Unkeyable:             result.UnkeyableA + result.UnkeyableB,
		DuplicateKeys:         result.DuplicateKeysA + result.DuplicateKeysB,
		ValueMismatches:       result.TotalMismatches(),
		MismatchCountsByField: counts,
		MatchRate:             result.MatchRate(),
		ElapsedSeconds:        elapsed.Seconds(),
	}
}

// Differences is the notification trigger quantity: records on one side
// only plus field-level mismatches.
func (m RunMetrics) Differences() int {
	return m.OnlyInA + m.OnlyInB + m.ValueMismatches
}
