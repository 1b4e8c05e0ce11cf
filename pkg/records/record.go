// Package records defines the canonical flat record and the projector that
// produces it from raw nested input through a field-mapping profile.
package records

import (
	"sort"

	"github.com/recondo/recondo/pkg/fields"
)

// Record is the flattened, typed projection of one raw record, or of one
// element of its repeating group. Within one reconciliation run all records
// from both sides share the same canonical field vocabulary for any field
// used as a key or compared field.
type Record struct {
	// Source is the provenance label of the side this record came from.
	Source string

	// Row is a monotonically increasing id for stable ordering and
	// debugging. It carries no identity semantics.
	Row int64

	// Fields maps canonical field names to typed values.
	Fields map[string]fields.Value

	// Warnings counts coercion failures absorbed while building this
	// record. A warning means the affected field is Null, not that the
	// record is unusable.
	Warnings int
}

// Get returns the value of a canonical field. Absent fields read as Null
// with ok=false so callers can distinguish "missing" from "present Null".
func (r *Record) Get(field string) (fields.Value, bool) {
	v, ok := r.Fields[field]
	if !ok {
		return fields.Null(), false
	}
	return v, true
}

// FieldNames returns the record's field names in sorted order.
func (r *Record) FieldNames() []string {
	out := make([]string, 0, len(r.Fields))
	for f := range r.Fields {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
