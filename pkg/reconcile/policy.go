// Package reconcile computes set differences and tolerance-aware field
// comparisons between two indexed sides, producing a deterministic Result.
package reconcile

import (
	"fmt"
	"time"

	"github.com/recondo/recondo/pkg/errors"
	"github.com/recondo/recondo/pkg/fields"
)

// Comparator selects how two field values are compared.
type Comparator uint8

// Comparator kinds.
const (
	// CompareExact matches on structural equality. String comparison is
	// case-sensitive; case-folding belongs in the normalizer stage.
	CompareExact Comparator = iota

	// CompareNumeric matches when |a-b| <= epsilon. The boundary is
	// inclusive.
	CompareNumeric

	// CompareTime matches when the absolute duration between two
	// instants is <= delta. The boundary is inclusive.
	CompareTime
)

// String returns the comparator name.
func (c Comparator) String() string {
	switch c {
	case CompareExact:
		return "exact"
	case CompareNumeric:
		return "numeric"
	case CompareTime:
		return "time"
	default:
		return fmt.Sprintf("comparator(%d)", uint8(c))
	}
}

// Policy is the comparison rule for one canonical field.
type Policy struct {
	Comparator Comparator
	Epsilon    float64       // CompareNumeric only
	Delta      time.Duration // CompareTime only
}

// Exact returns the default policy.
func Exact() Policy {
	return Policy{Comparator: CompareExact}
}

// NumericTolerance returns a numeric policy with the given epsilon.
func NumericTolerance(epsilon float64) Policy {
	return Policy{Comparator: CompareNumeric, Epsilon: epsilon}
}

// TimeTolerance returns a temporal policy with the given delta.
func TimeTolerance(delta time.Duration) Policy {
	return Policy{Comparator: CompareTime, Delta: delta}
}

// match applies the policy to one value pair. Null values never fall into
// tolerance arithmetic: under any comparator, two Nulls match and a Null
// against a value does not.
func (p Policy) match(a, b fields.Value) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull()
	}

	switch p.Comparator {
	case CompareNumeric:
		fa, okA := a.AsFloat()
		fb, okB := b.AsFloat()
		if !okA || !okB {
			return a.Equal(b)
		}
		diff := fa - fb
		if diff < 0 {
			diff = -diff
		}
		return diff <= p.Epsilon

	case CompareTime:
		ta, okA := a.AsTime()
		tb, okB := b.AsTime()
		if !okA || !okB {
			return a.Equal(b)
		}
		diff := ta.Sub(tb)
		if diff < 0 {
			diff = -diff
		}
		return diff <= p.Delta

	default:
		return a.Equal(b)
	}
}

// Policies maps canonical field names to comparison policies. Fields
// without an explicit policy default to Exact.
type Policies struct {
	overrides map[string]Policy
}

// NewPolicies creates an empty policy set.
func NewPolicies() *Policies {
	return &Policies{overrides: make(map[string]Policy)}
}

// Set attaches a policy to a field, replacing any previous one.
func (ps *Policies) Set(field string, policy Policy) *Policies {
	ps.overrides[field] = policy
	return ps
}

// For returns the policy for a field, defaulting to Exact.
func (ps *Policies) For(field string) Policy {
	if ps == nil {
		return Exact()
	}
	if p, ok := ps.overrides[field]; ok {
		return p
	}
	return Exact()
}

// Overridden returns the fields with explicit policies.
func (ps *Policies) Overridden() []string {
	out := make([]string, 0, len(ps.overrides))
	for f := range ps.overrides {
		out = append(out, f)
	}
	return out
}

// Validate checks every override against the canonical field vocabulary and
// its value kinds. A tolerance policy on a field of the wrong kind would
// silently degrade to exact comparison, so it is rejected up front as a
// configuration error.
func (ps *Policies) Validate(kinds map[string]fields.Kind) error {
	if ps == nil {
		return nil
	}
	for field, policy := range ps.overrides {
		kind, known := kinds[field]
		if !known {
			return errors.NewConfigError("policy",
				fmt.Sprintf("field %q is not in the canonical vocabulary", field), nil)
		}
		switch policy.Comparator {
		case CompareNumeric:
			if !kind.Numeric() {
				return errors.NewConfigError("policy",
					fmt.Sprintf("numeric tolerance on non-numeric field %q (%s)", field, kind), nil)
			}
			if policy.Epsilon < 0 {
				return errors.NewConfigError("policy",
					fmt.Sprintf("negative epsilon on field %q", field), nil)
			}
		case CompareTime:
			if kind != fields.KindTime {
				return errors.NewConfigError("policy",
					fmt.Sprintf("time tolerance on non-timestamp field %q (%s)", field, kind), nil)
			}
			if policy.Delta < 0 {
				return errors.NewConfigError("policy",
					fmt.Sprintf("negative delta on field %q", field), nil)
			}
		}
	}
	return nil
}
