package reconcile

import (
	"fmt"
	"sort"

	"github.com/recondo/recondo/pkg/errors"
	"github.com/recondo/recondo/pkg/index"
)

// Reconcile compares two indexed sides. It computes the key set difference,
// then evaluates every comparable field for every common key under its
// configured policy. A nil policy set means Exact everywhere.
//
// Preconditions are checked before any comparison: both sides must be
// present (reconciliation is strictly pairwise) and must have been indexed
// with the same key fields, each of which must appear in both vocabularies.
// Violations are configuration errors; nothing is silently coerced.
func Reconcile(a, b *index.Index, policies *Policies) (*Result, error) {
	if err := preflight(a, b); err != nil {
		return nil, err
	}

	result := newResult(a, b)
	compareKeys(a, b, policies, a.Keys(), b.Keys(), result)
	return result, nil
}

// preflight validates the pairing and key-field configuration.
func preflight(a, b *index.Index) error {
	if a == nil || b == nil {
		return errors.ErrPairwiseOnly
	}

	aKey, bKey := a.KeyFields(), b.KeyFields()
	if len(aKey) == 0 {
		return errors.NewConfigError("reconcile", "no key fields configured", nil)
	}
	if len(aKey) != len(bKey) {
		return errors.NewConfigError("reconcile", "sides indexed with different key fields", nil)
	}
	for i := range aKey {
		if aKey[i] != bKey[i] {
			return errors.NewConfigError("reconcile", "sides indexed with different key fields", nil)
		}
	}

	for _, field := range aKey {
		if !a.HasField(field) && a.Len() > 0 {
			return errors.NewConfigError("reconcile",
				fmt.Sprintf("key field %q absent from side %s", field, a.Source()), nil)
		}
		if !b.HasField(field) && b.Len() > 0 {
			return errors.NewConfigError("reconcile",
				fmt.Sprintf("key field %q absent from side %s", field, b.Source()), nil)
		}
	}
	return nil
}

// newResult seeds a Result with the side-wide counters and the comparable
// field set.
func newResult(a, b *index.Index) *Result {
	return &Result{
		UnkeyableA:       a.Unkeyable(),
		UnkeyableB:       b.Unkeyable(),
		DuplicateKeysA:   a.Duplicates(),
		DuplicateKeysB:   b.Duplicates(),
		Mismatches:       make(map[string][]Mismatch),
		ComparableFields: comparableFields(a, b),
	}
}

// comparableFields is the vocabulary intersection minus the key fields,
// sorted. A field present on only one side is never compared; that
// asymmetry tolerance is deliberate.
func comparableFields(a, b *index.Index) []string {
	keySet := make(map[string]bool, len(a.KeyFields()))
	for _, f := range a.KeyFields() {
		keySet[f] = true
	}

	var out []string
	for _, f := range a.Fields() {
		if keySet[f] || !b.HasField(f) {
			continue
		}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// compareKeys runs the set and field comparison over the given (sorted)
// key slices and accumulates into result. Shard workers call this with
// disjoint key subsets.
func compareKeys(a, b *index.Index, policies *Policies, aKeys, bKeys []index.Key, result *Result) {
	var common []index.Key
	for _, key := range aKeys {
		if _, ok := b.Get(key); ok {
			common = append(common, key)
		} else {
			result.OnlyInA = append(result.OnlyInA, key)
		}
	}
	for _, key := range bKeys {
		if _, ok := a.Get(key); !ok {
			result.OnlyInB = append(result.OnlyInB, key)
		}
	}
	result.CommonKeys += len(common)

	// Common keys are iterated in sorted order, so each per-field
	// mismatch list comes out deterministic.
	for _, key := range common {
		recA, _ := a.Get(key)
		recB, _ := b.Get(key)
		for _, field := range result.ComparableFields {
			valA, _ := recA.Get(field)
			valB, _ := recB.Get(field)
			if policies.For(field).match(valA, valB) {
				continue
			}
			result.Mismatches[field] = append(result.Mismatches[field], Mismatch{
				Key: key,
				A:   valA,
				B:   valB,
			})
		}
	}
}
