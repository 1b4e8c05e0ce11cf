package index

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recondo/recondo/pkg/fields"
	"github.com/recondo/recondo/pkg/records"
)

func rec(source string, row int64, vals map[string]fields.Value) *records.Record {
	return &records.Record{Source: source, Row: row, Fields: vals}
}

func TestKey(t *testing.T) {
	k := MakeKey("1", "101")
	assert.Equal(t, []string{"1", "101"}, k.Parts())
	assert.Equal(t, "(1, 101)", k.String())

	// Distinct tuples never collide even when their concatenations match.
	assert.NotEqual(t, MakeKey("12", "3"), MakeKey("1", "23"))
}

func TestKeyEncodingInjective(t *testing.T) {
	// Components may contain the separator and escape bytes themselves.
	assert.NotEqual(t, MakeKey("a\x1fb"), MakeKey("a", "b"))
	assert.NotEqual(t, MakeKey("a\x1e", "b"), MakeKey("a", "\x1eb"))

	for _, parts := range [][]string{
		{"a\x1fb"},
		{"a\x1e", "b"},
		{"\x1e0", "\x1e1"},
		{"", "\x1f\x1e"},
	} {
		assert.Equal(t, parts, MakeKey(parts...).Parts(), "round trip %q", parts)
	}
}

func TestBuild(t *testing.T) {
	r := rec("a", 1, map[string]fields.Value{
		"customer_id": fields.Int(1),
		"order_id":    fields.Int(101),
		"amount":      fields.Float(5),
	})

	t.Run("ok", func(t *testing.T) {
		key, ok := Build(r, []string{"customer_id", "order_id"})
		require.True(t, ok)
		assert.Equal(t, MakeKey("1", "101"), key)
	})

	t.Run("order matters", func(t *testing.T) {
		key, _ := Build(r, []string{"order_id", "customer_id"})
		assert.Equal(t, MakeKey("101", "1"), key)
	})

	t.Run("absent key field", func(t *testing.T) {
		_, ok := Build(r, []string{"customer_id", "missing"})
		assert.False(t, ok)
	})

	t.Run("null key field", func(t *testing.T) {
		r2 := rec("a", 2, map[string]fields.Value{
			"customer_id": fields.Null(),
			"order_id":    fields.Int(101),
		})
		_, ok := Build(r2, []string{"customer_id", "order_id"})
		assert.False(t, ok)
	})
}

func TestNew(t *testing.T) {
	keyFields := []string{"customer_id", "order_id"}

	t.Run("unique keys", func(t *testing.T) {
		var recs []*records.Record
		for i := 1; i <= 5; i++ {
			recs = append(recs, rec("a", int64(i), map[string]fields.Value{
				"customer_id": fields.Int(1),
				"order_id":    fields.Int(int64(100 + i)),
			}))
		}

		idx := New("a", recs, keyFields)
		assert.Equal(t, len(recs), idx.Len(), "unique keys index every record")
		assert.Zero(t, idx.Duplicates())
		assert.Zero(t, idx.Unkeyable())
	})

	t.Run("duplicate key last write wins", func(t *testing.T) {
		first := rec("a", 1, map[string]fields.Value{
			"customer_id": fields.Int(1),
			"order_id":    fields.Int(101),
			"amount":      fields.Float(10),
		})
		second := rec("a", 2, map[string]fields.Value{
			"customer_id": fields.Int(1),
			"order_id":    fields.Int(101),
			"amount":      fields.Float(20),
		})

		idx := New("a", []*records.Record{first, second}, keyFields)
		assert.Equal(t, 1, idx.Len())
		assert.Equal(t, 1, idx.Duplicates())

		got, ok := idx.Get(MakeKey("1", "101"))
		require.True(t, ok)
		assert.Equal(t, int64(2), got.Row)
	})

	t.Run("unkeyable counted and dropped", func(t *testing.T) {
		keyed := rec("a", 1, map[string]fields.Value{
			"customer_id": fields.Int(1),
			"order_id":    fields.Int(101),
		})
		unkeyed := rec("a", 2, map[string]fields.Value{
			"customer_id": fields.Int(2),
			"order_id":    fields.Null(),
		})

		idx := New("a", []*records.Record{keyed, unkeyed}, keyFields)
		assert.Equal(t, 1, idx.Len())
		assert.Equal(t, 1, idx.Unkeyable())
	})
}

func TestKeysSorted(t *testing.T) {
	var recs []*records.Record
	for i := 9; i >= 0; i-- {
		recs = append(recs, rec("a", int64(i), map[string]fields.Value{
			"id": fields.String(fmt.Sprintf("k%02d", i)),
		}))
	}

	idx := New("a", recs, []string{"id"})
	keys := idx.Keys()
	require.Len(t, keys, 10)
	for i := 1; i < len(keys); i++ {
		assert.Less(t, keys[i-1], keys[i])
	}
}

func TestFieldVocabulary(t *testing.T) {
	recs := []*records.Record{
		rec("a", 1, map[string]fields.Value{"id": fields.Int(1), "amount": fields.Float(1)}),
		rec("a", 2, map[string]fields.Value{"id": fields.Int(2), "status": fields.String("ok")}),
	}

	idx := New("a", recs, []string{"id"})
	assert.True(t, idx.HasField("amount"))
	assert.True(t, idx.HasField("status"))
	assert.False(t, idx.HasField("nope"))
	assert.Equal(t, []string{"amount", "id", "status"}, idx.Fields())
}
