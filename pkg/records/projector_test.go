package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recondo/recondo/pkg/fields"
	"github.com/recondo/recondo/pkg/profile"
)

func customersProfile(t *testing.T) *profile.Profile {
	t.Helper()
	p := &profile.Profile{
		Source: "customers",
		Rules: []profile.Rule{
			{Path: []string{"id"}, Field: "customer_id", Type: fields.CoerceInt},
			{Path: []string{"contact", "full_name"}, Field: "contact", Derive: profile.DeriveName},
			{Path: []string{"contact", "email"}, Field: "email", Derive: profile.DeriveEmail},
			{Path: []string{"orders", profile.ListMarker, "order_id"}, Field: "order_id", Type: fields.CoerceInt},
			{Path: []string{"orders", profile.ListMarker, "amount"}, Field: "amount", Type: fields.CoerceFloat},
		},
	}
	require.NoError(t, p.Validate())
	return p
}

func rawCustomer(id float64, name, email string, orders ...map[string]any) map[string]any {
	list := make([]any, 0, len(orders))
	for _, o := range orders {
		list = append(list, o)
	}
	return map[string]any{
		"id": id,
		"contact": map[string]any{
			"full_name": name,
			"email":     email,
		},
		"orders": list,
	}
}

func TestProjectRepeatingGroup(t *testing.T) {
	p := customersProfile(t)
	pj := NewProjector(nil)

	raw := rawCustomer(1, "Dr. John Smith", "JOHN+work@Example.com",
		map[string]any{"order_id": 101.0, "amount": 150.5},
		map[string]any{"order_id": 102.0, "amount": 99.99},
	)

	recs, stats := pj.ProjectAll([]any{raw}, p)
	require.Len(t, recs, 2, "one record per group element")
	assert.Equal(t, Stats{Projected: 2}, stats)

	// Meta fields are copied onto every emitted record.
	for _, rec := range recs {
		v, ok := rec.Get("customer_id")
		require.True(t, ok)
		assert.True(t, fields.Int(1).Equal(v))

		v, _ = rec.Get("contact_first")
		assert.True(t, fields.String("John").Equal(v))
		v, _ = rec.Get("contact_title")
		assert.True(t, fields.String("Dr.").Equal(v))
		v, _ = rec.Get("contact_middle")
		assert.True(t, v.IsNull())

		v, _ = rec.Get("email")
		assert.True(t, fields.String("john@example.com").Equal(v))
	}

	v, _ := recs[0].Get("order_id")
	assert.True(t, fields.Int(101).Equal(v))
	v, _ = recs[1].Get("amount")
	assert.True(t, fields.Float(99.99).Equal(v))

	// Row ids are unique and increasing.
	assert.Less(t, recs[0].Row, recs[1].Row)
}

func TestProjectSkips(t *testing.T) {
	p := customersProfile(t)
	pj := NewProjector(nil)

	t.Run("missing meta field", func(t *testing.T) {
		raw := map[string]any{"contact": map[string]any{"full_name": "A B", "email": "a@b.com"}}
		recs, stats := pj.ProjectAll([]any{raw}, p)
		assert.Empty(t, recs)
		assert.Equal(t, 1, stats.Skipped)
	})

	t.Run("empty group", func(t *testing.T) {
		raw := rawCustomer(2, "Jane Doe", "jane@example.com")
		recs, stats := pj.ProjectAll([]any{raw}, p)
		assert.Empty(t, recs)
		assert.Equal(t, 1, stats.Skipped)
	})

	t.Run("group not a list", func(t *testing.T) {
		raw := rawCustomer(3, "Jane Doe", "jane@example.com")
		raw["orders"] = "oops"
		recs, stats := pj.ProjectAll([]any{raw}, p)
		assert.Empty(t, recs)
		assert.Equal(t, 1, stats.Skipped)
	})
}

func TestProjectCoercionWarnings(t *testing.T) {
	p := customersProfile(t)
	pj := NewProjector(nil)

	raw := rawCustomer(1, "John Smith", "john@example.com",
		map[string]any{"order_id": 101.0, "amount": "not-a-number"},
	)

	recs, stats := pj.ProjectAll([]any{raw}, p)
	require.Len(t, recs, 1)

	// Coercion failure yields Null plus a warning; the record survives.
	v, ok := recs[0].Get("amount")
	assert.True(t, ok)
	assert.True(t, v.IsNull())
	assert.Equal(t, 1, stats.Warnings)
	assert.Equal(t, 1, recs[0].Warnings)
}

func TestProjectInvalidEmailIsNull(t *testing.T) {
	p := customersProfile(t)
	pj := NewProjector(nil)

	raw := rawCustomer(1, "John Smith", "john@doe@example.com",
		map[string]any{"order_id": 101.0, "amount": 1.0},
	)

	recs, stats := pj.ProjectAll([]any{raw}, p)
	require.Len(t, recs, 1)

	v, ok := recs[0].Get("email")
	assert.True(t, ok)
	assert.True(t, v.IsNull())
	assert.Zero(t, stats.Warnings, "unparseable email is expected input, not a warning")
}

func TestProjectFlatProfile(t *testing.T) {
	p := &profile.Profile{
		Source: "ledger",
		Rules: []profile.Rule{
			{Path: []string{"txn"}, Field: "txn_id", Type: fields.CoerceInt},
			{Path: []string{"payee"}, Field: "payee", Fold: true},
		},
	}
	require.NoError(t, p.Validate())

	pj := NewProjector(nil)
	recs, stats := pj.ProjectAll([]any{
		map[string]any{"txn": 1.0, "payee": "ACME Corp"},
	}, p)
	require.Len(t, recs, 1)
	assert.Equal(t, Stats{Projected: 1}, stats)

	// Fold-configured fields are case-folded during projection.
	v, _ := recs[0].Get("payee")
	assert.True(t, fields.String(fields.Fold("acme corp")).Equal(v))
}

func TestRecordGet(t *testing.T) {
	rec := &Record{Fields: map[string]fields.Value{
		"present": fields.Int(1),
		"null":    fields.Null(),
	}}

	_, ok := rec.Get("present")
	assert.True(t, ok)

	v, ok := rec.Get("null")
	assert.True(t, ok, "present Null is distinct from missing")
	assert.True(t, v.IsNull())

	v, ok = rec.Get("absent")
	assert.False(t, ok)
	assert.True(t, v.IsNull())

	assert.Equal(t, []string{"null", "present"}, rec.FieldNames())
}
