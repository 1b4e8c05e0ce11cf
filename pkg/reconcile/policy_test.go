package reconcile

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/recondo/recondo/pkg/errors"
	"github.com/recondo/recondo/pkg/fields"
)

func TestExactPolicy(t *testing.T) {
	p := Exact()

	assert.True(t, p.match(fields.String("a"), fields.String("a")))
	assert.False(t, p.match(fields.String("a"), fields.String("A")), "exact comparison is case-sensitive")
	assert.False(t, p.match(fields.Int(1), fields.Float(1.0)), "kind mismatch is a mismatch")
}

func TestNumericTolerance(t *testing.T) {
	const eps = 0.01
	p := NumericTolerance(eps)

	t.Run("inside", func(t *testing.T) {
		assert.True(t, p.match(fields.Float(150.50), fields.Float(150.505)))
	})

	t.Run("boundary is inclusive", func(t *testing.T) {
		// 1.5, 1.75 and 0.25 are all exactly representable, so the
		// difference lands exactly on epsilon.
		q := NumericTolerance(0.25)
		assert.True(t, q.match(fields.Float(1.5), fields.Float(1.75)))
	})

	t.Run("just past boundary", func(t *testing.T) {
		q := NumericTolerance(0.25)
		past := math.Nextafter(0.25, 1)
		assert.False(t, q.match(fields.Float(0), fields.Float(past)))
	})

	t.Run("outside", func(t *testing.T) {
		assert.False(t, p.match(fields.Float(150.50), fields.Float(150.75)))
	})

	t.Run("int and float mix", func(t *testing.T) {
		assert.True(t, p.match(fields.Int(100), fields.Float(100.005)))
	})

	t.Run("symmetric", func(t *testing.T) {
		a, b := fields.Float(1.0), fields.Float(1.009)
		assert.Equal(t, p.match(a, b), p.match(b, a))
	})

	t.Run("non-numeric falls back to exact", func(t *testing.T) {
		assert.True(t, p.match(fields.String("x"), fields.String("x")))
		assert.False(t, p.match(fields.String("x"), fields.String("y")))
	})
}

func TestTimeTolerance(t *testing.T) {
	p := TimeTolerance(time.Minute)
	base := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("inside", func(t *testing.T) {
		assert.True(t, p.match(fields.Time(base), fields.Time(base.Add(30*time.Second))))
	})

	t.Run("boundary is inclusive", func(t *testing.T) {
		assert.True(t, p.match(fields.Time(base), fields.Time(base.Add(time.Minute))))
	})

	t.Run("past boundary", func(t *testing.T) {
		assert.False(t, p.match(fields.Time(base), fields.Time(base.Add(time.Minute+time.Nanosecond))))
	})

	t.Run("symmetric", func(t *testing.T) {
		a := fields.Time(base)
		b := fields.Time(base.Add(59 * time.Second))
		assert.Equal(t, p.match(a, b), p.match(b, a))
	})
}

func TestNullHandling(t *testing.T) {
	for name, p := range map[string]Policy{
		"exact":   Exact(),
		"numeric": NumericTolerance(1000),
		"time":    TimeTolerance(time.Hour),
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, p.match(fields.Null(), fields.Null()), "two Nulls match")
			assert.False(t, p.match(fields.Null(), fields.Float(0)), "Null vs value mismatches")
			assert.False(t, p.match(fields.Float(0), fields.Null()))
		})
	}
}

func TestPoliciesFor(t *testing.T) {
	ps := NewPolicies().Set("amount", NumericTolerance(0.01))

	assert.Equal(t, CompareNumeric, ps.For("amount").Comparator)
	assert.Equal(t, CompareExact, ps.For("anything_else").Comparator)

	var nilPs *Policies
	assert.Equal(t, CompareExact, nilPs.For("amount").Comparator)
}

func TestPoliciesValidate(t *testing.T) {
	kinds := map[string]fields.Kind{
		"amount":   fields.KindFloat,
		"quantity": fields.KindInt,
		"status":   fields.KindString,
		"modified": fields.KindTime,
	}

	t.Run("valid", func(t *testing.T) {
		ps := NewPolicies().
			Set("amount", NumericTolerance(0.01)).
			Set("quantity", NumericTolerance(0)).
			Set("modified", TimeTolerance(time.Second))
		assert.NoError(t, ps.Validate(kinds))
	})

	t.Run("numeric tolerance on string field", func(t *testing.T) {
		ps := NewPolicies().Set("status", NumericTolerance(0.01))
		assert.True(t, errors.IsInvalidConfig(ps.Validate(kinds)))
	})

	t.Run("time tolerance on float field", func(t *testing.T) {
		ps := NewPolicies().Set("amount", TimeTolerance(time.Second))
		assert.True(t, errors.IsInvalidConfig(ps.Validate(kinds)))
	})

	t.Run("unknown field", func(t *testing.T) {
		ps := NewPolicies().Set("ghost", NumericTolerance(0.01))
		assert.True(t, errors.IsInvalidConfig(ps.Validate(kinds)))
	})

	t.Run("negative epsilon", func(t *testing.T) {
		ps := NewPolicies().Set("amount", NumericTolerance(-0.01))
		assert.True(t, errors.IsInvalidConfig(ps.Validate(kinds)))
	})

	t.Run("negative delta", func(t *testing.T) {
		ps := NewPolicies().Set("modified", TimeTolerance(-time.Second))
		assert.True(t, errors.IsInvalidConfig(ps.Validate(kinds)))
	})
}
