// Package fields defines the typed value model shared by canonical records.
// A Value is a small tagged union (Null, String, Int, Float, Time) with
// explicit, total coercion functions. Failure to coerce is a first-class
// value (Null plus a not-ok flag), never an error or a panic.
package fields

import (
	"fmt"
	"strconv"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindTime
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Numeric reports whether values of this kind can participate in
// numeric-tolerance comparison.
func (k Kind) Numeric() bool {
	return k == KindInt || k == KindFloat
}

// Value is a canonical field value. The zero Value is Null.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	ts   time.Time
}

// Null returns the null value.
func Null() Value {
	return Value{}
}

// String returns a string value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Int returns an integer value.
func Int(i int64) Value {
	return Value{kind: KindInt, num: i}
}

// Float returns a float value.
func Float(f float64) Value {
	return Value{kind: KindFloat, flt: f}
}

// Time returns a timestamp value. The instant is stored in UTC so that
// equal instants compare equal regardless of source zone notation.
func Time(t time.Time) Value {
	return Value{kind: KindTime, ts: t.UTC()}
}

// Kind returns the variant held by the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// AsString returns the string payload if the value is a string.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsInt returns the integer payload if the value is an integer.
func (v Value) AsInt() (int64, bool) {
	return v.num, v.kind == KindInt
}

// AsFloat returns the numeric payload as a float64 for both integer and
// float values.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.flt, true
	case KindInt:
		return float64(v.num), true
	default:
		return 0, false
	}
}

// AsTime returns the timestamp payload if the value is a timestamp.
func (v Value) AsTime() (time.Time, bool) {
	return v.ts, v.kind == KindTime
}

// Equal reports exact structural equality. String comparison is
// case-sensitive; callers wanting case-insensitivity fold upstream during
// normalization.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindInt:
		return v.num == o.num
	case KindFloat:
		return v.flt == o.flt
	case KindTime:
		return v.ts.Equal(o.ts)
	default:
		return false
	}
}

// Canonical returns the stable string form used for identity keys.
// Two values with equal canonical forms are the same key component.
func (v Value) Canonical() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return strconv.FormatFloat(v.flt, 'g', -1, 64)
	case KindTime:
		return v.ts.UTC().Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// String returns a human-readable form for logs and reports.
func (v Value) String() string {
	if v.kind == KindNull {
		return "<null>"
	}
	return v.Canonical()
}
