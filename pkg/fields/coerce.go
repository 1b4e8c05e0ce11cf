package fields

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
	"golang.org/x/text/cases"
)

// Coercion names the target type a raw scalar is coerced into during
// projection.
type Coercion uint8

// Coercion targets.
const (
	CoerceString Coercion = iota
	CoerceInt
	CoerceFloat
	CoerceTime
)

// String returns the coercion name as it appears in profile files.
func (c Coercion) String() string {
	switch c {
	case CoerceString:
		return "string"
	case CoerceInt:
		return "int"
	case CoerceFloat:
		return "float"
	case CoerceTime:
		return "time"
	default:
		return fmt.Sprintf("coercion(%d)", uint8(c))
	}
}

// Kind returns the value kind a successful coercion produces.
func (c Coercion) Kind() Kind {
	switch c {
	case CoerceString:
		return KindString
	case CoerceInt:
		return KindInt
	case CoerceFloat:
		return KindFloat
	case CoerceTime:
		return KindTime
	default:
		return KindNull
	}
}

// ParseCoercion parses a coercion name from a profile file.
func ParseCoercion(s string) (Coercion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "str":
		return CoerceString, nil
	case "int", "integer":
		return CoerceInt, nil
	case "float", "number":
		return CoerceFloat, nil
	case "time", "timestamp", "datetime":
		return CoerceTime, nil
	default:
		return CoerceString, fmt.Errorf("unknown coercion %q", s)
	}
}

// timestampLayouts are the accepted textual timestamp forms, tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Coerce converts a raw scalar from a decoded JSON tree into a typed Value.
// It is total: a nil input coerces to Null with ok=true, and any value that
// cannot be represented as the target type yields Null with ok=false so the
// caller can count a coercion warning instead of failing the batch.
func Coerce(raw any, c Coercion) (Value, bool) {
	if raw == nil {
		return Null(), true
	}

	switch c {
	case CoerceString:
		s, err := cast.ToStringE(raw)
		if err != nil {
			return Null(), false
		}
		return String(s), true

	case CoerceInt:
		// cast truncates fractional floats; a non-integral number is not
		// representable as an int, the same as its textual form.
		switch f := raw.(type) {
		case float64:
			if f != math.Trunc(f) {
				return Null(), false
			}
		case float32:
			if float64(f) != math.Trunc(float64(f)) {
				return Null(), false
			}
		}
		i, err := cast.ToInt64E(raw)
		if err != nil {
			return Null(), false
		}
		return Int(i), true

	case CoerceFloat:
		f, err := cast.ToFloat64E(raw)
		if err != nil {
			return Null(), false
		}
		return Float(f), true

	case CoerceTime:
		return coerceTime(raw)

	default:
		return Null(), false
	}
}

// coerceTime parses timestamps. Textual input must be ISO-8601/RFC-3339
// (with a few lenient layouts); anything else goes through cast.
func coerceTime(raw any) (Value, bool) {
	switch t := raw.(type) {
	case time.Time:
		return Time(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return Null(), true
		}
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return Time(ts), true
			}
		}
		return Null(), false
	default:
		ts, err := cast.ToTimeE(raw)
		if err != nil {
			return Null(), false
		}
		return Time(ts), true
	}
}

// folder performs Unicode case folding for fold-configured string fields.
var folder = cases.Fold()

// Fold case-folds a string so that Exact comparison behaves
// case-insensitively for fields normalized with it.
func Fold(s string) string {
	return folder.String(s)
}
