package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/recondo/recondo/pkg/fields"
	"github.com/recondo/recondo/pkg/index"
	"github.com/recondo/recondo/pkg/reconcile"
)

func sampleResult() *reconcile.Result {
	return &reconcile.Result{
		OnlyInA:          []index.Key{index.MakeKey("9")},
		OnlyInB:          []index.Key{index.MakeKey("7"), index.MakeKey("8")},
		UnkeyableA:       1,
		DuplicateKeysB:   2,
		CommonKeys:       10,
		ComparableFields: []string{"amount", "status"},
		Mismatches: map[string][]reconcile.Mismatch{
			"amount": {
				{Key: index.MakeKey("1"), A: fields.Float(1), B: fields.Float(2)},
				{Key: index.MakeKey("2"), A: fields.Float(3), B: fields.Float(4)},
			},
			"status": {
				{Key: index.MakeKey("1"), A: fields.String("a"), B: fields.String("b")},
			},
		},
	}
}

func TestDerive(t *testing.T) {
	m := Derive(sampleResult(), 12, 13, 1500*time.Millisecond)

	assert.Equal(t, 25, m.TotalRecords)
	// Keys 1 and 2 carry mismatches, so 8 of the 10 common keys matched.
	assert.Equal(t, 8, m.MatchedRecords)
	assert.Equal(t, 1, m.OnlyInA)
	assert.Equal(t, 2, m.OnlyInB)
	assert.Equal(t, 1, m.Unkeyable)
	assert.Equal(t, 2, m.DuplicateKeys)
	assert.Equal(t, 3, m.ValueMismatches)
	assert.Equal(t, map[string]int{"amount": 2, "status": 1}, m.MismatchCountsByField)
	// 3 mismatches out of 10x2 comparisons.
	assert.InDelta(t, 0.85, m.MatchRate, 1e-9)
	assert.InDelta(t, 1.5, m.ElapsedSeconds, 1e-9)

	assert.Equal(t, 6, m.Differences())
}

func TestDeriveEmptyResult(t *testing.T) {
	m := Derive(&reconcile.Result{}, 0, 0, 0)
	assert.Zero(t, m.TotalRecords)
	assert.Equal(t, 1.0, m.MatchRate, "nothing comparable means a perfect rate")
	assert.Zero(t, m.Differences())
}
