package fields

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValueKinds(t *testing.T) {
	assert.Equal(t, KindNull, Null().Kind())
	assert.Equal(t, KindString, String("x").Kind())
	assert.Equal(t, KindInt, Int(1).Kind())
	assert.Equal(t, KindFloat, Float(1.5).Kind())
	assert.Equal(t, KindTime, Time(time.Now()).Kind())

	var zero Value
	assert.True(t, zero.IsNull(), "zero Value must be null")
}

func TestValueEqual(t *testing.T) {
	t.Run("same kind same payload", func(t *testing.T) {
		assert.True(t, Null().Equal(Null()))
		assert.True(t, String("a").Equal(String("a")))
		assert.True(t, Int(42).Equal(Int(42)))
		assert.True(t, Float(1.25).Equal(Float(1.25)))
	})

	t.Run("case sensitive strings", func(t *testing.T) {
		assert.False(t, String("Alice").Equal(String("alice")))
	})

	t.Run("kind mismatch never equal", func(t *testing.T) {
		assert.False(t, Int(1).Equal(Float(1.0)))
		assert.False(t, String("1").Equal(Int(1)))
		assert.False(t, Null().Equal(String("")))
	})

	t.Run("equal instants in different zones", func(t *testing.T) {
		est := time.FixedZone("EST", -5*3600)
		a := Time(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))
		b := Time(time.Date(2024, 3, 15, 7, 0, 0, 0, est))
		assert.True(t, a.Equal(b))
	})
}

func TestValueCanonical(t *testing.T) {
	assert.Equal(t, "", Null().Canonical())
	assert.Equal(t, "hello", String("hello").Canonical())
	assert.Equal(t, "42", Int(42).Canonical())
	assert.Equal(t, "-7", Int(-7).Canonical())
	assert.Equal(t, "1.5", Float(1.5).Canonical())

	ts := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-15T12:30:00Z", Time(ts).Canonical())
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "<null>", Null().String())
	assert.Equal(t, "42", Int(42).String())
}

func TestAsFloatCoversInt(t *testing.T) {
	f, ok := Int(3).AsFloat()
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)

	f, ok = Float(2.5).AsFloat()
	assert.True(t, ok)
	assert.Equal(t, 2.5, f)

	_, ok = String("3").AsFloat()
	assert.False(t, ok)
}
