package reconcile

import (
	"fmt"
	"strings"

	"github.com/recondo/recondo/pkg/fields"
	"github.com/recondo/recondo/pkg/index"
)

// Mismatch records one field disagreement between the two sides.
type Mismatch struct {
	Key index.Key
	A   fields.Value
	B   fields.Value
}

// Result is the outcome of one reconciliation pass. It is produced fresh
// per run and never mutated after being returned.
type Result struct {
	// OnlyInA and OnlyInB are the keys present on exactly one side,
	// sorted.
	OnlyInA []index.Key
	OnlyInB []index.Key

	// UnkeyableA and UnkeyableB count records excluded for Null/absent
	// key fields.
	UnkeyableA int
	UnkeyableB int

	// DuplicateKeysA and DuplicateKeysB count last-write-wins
	// overwrites during indexing.
	DuplicateKeysA int
	DuplicateKeysB int

	// Mismatches maps each comparable field to its disagreements, in
	// common-key order.
	Mismatches map[string][]Mismatch

	// CommonKeys is the size of the key intersection.
	CommonKeys int

	// ComparableFields are the fields evaluated for the intersection,
	// sorted: present on both sides, excluding the key fields.
	ComparableFields []string
}

// TotalMismatches counts all field-level disagreements.
func (r *Result) TotalMismatches() int {
	total := 0
	for _, list := range r.Mismatches {
		total += len(list)
	}
	return total
}

// MismatchedKeys counts distinct common keys that appear in any mismatch
// list.
func (r *Result) MismatchedKeys() int {
	seen := make(map[index.Key]bool)
	for _, list := range r.Mismatches {
		for _, m := range list {
			seen[m.Key] = true
		}
	}
	return len(seen)
}

// TotalComparisons is |common| x |comparableFields|.
func (r *Result) TotalComparisons() int {
	return r.CommonKeys * len(r.ComparableFields)
}

// MatchRate is 1 minus the mismatch fraction, and 1.0 when nothing was
// comparable.
func (r *Result) MatchRate() float64 {
	total := r.TotalComparisons()
	if total == 0 {
		return 1.0
	}
	return 1.0 - float64(r.TotalMismatches())/float64(total)
}

// HasDifferences reports whether the sides disagree at all.
func (r *Result) HasDifferences() bool {
	return len(r.OnlyInA) > 0 || len(r.OnlyInB) > 0 || r.TotalMismatches() > 0
}

// String returns a one-line summary.
func (r *Result) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("%d common", r.CommonKeys))
	if len(r.OnlyInA) > 0 {
		parts = append(parts, fmt.Sprintf("%d only in A", len(r.OnlyInA)))
	}
	if len(r.OnlyInB) > 0 {
		parts = append(parts, fmt.Sprintf("%d only in B", len(r.OnlyInB)))
	}
	if n := r.TotalMismatches(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d field mismatches", n))
	}
	return fmt.Sprintf("Reconciliation: %s (match rate %.2f%%)",
		strings.Join(parts, ", "), r.MatchRate()*100)
}
