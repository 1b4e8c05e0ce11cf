// Package index derives composite identity keys from canonical records and
// builds hash indexes for O(1) lookup and set operations.
package index

import (
	"sort"
	"strings"

	"github.com/recondo/recondo/pkg/records"
)

// keySeparator joins key components. A JSON string may legally contain the
// separator byte, so components are escaped before joining to keep the
// tuple encoding injective.
const (
	keySeparator = "\x1f"
	keyEscape    = "\x1e"
)

var (
	escapeKeyPart   = strings.NewReplacer(keyEscape, keyEscape+"0", keySeparator, keyEscape+"1")
	unescapeKeyPart = strings.NewReplacer(keyEscape+"0", keyEscape, keyEscape+"1", keySeparator)
)

// Key is an ordered tuple of canonical field values in string form. Two
// canonical records denote the same entity iff their keys are equal; there
// is no tolerance at the key level.
type Key string

// MakeKey joins pre-rendered key components.
func MakeKey(parts ...string) Key {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = escapeKeyPart.Replace(p)
	}
	return Key(strings.Join(escaped, keySeparator))
}

// Parts splits the key back into its components.
func (k Key) Parts() []string {
	escaped := strings.Split(string(k), keySeparator)
	parts := make([]string, len(escaped))
	for i, p := range escaped {
		parts[i] = unescapeKeyPart.Replace(p)
	}
	return parts
}

// String renders the key for logs and reports, e.g. "(1, 101)".
func (k Key) String() string {
	return "(" + strings.Join(k.Parts(), ", ") + ")"
}

// Build derives the identity key for a record. It returns ok=false when any
// key field is absent or Null; such a record is unkeyable and excluded from
// set and value comparison.
func Build(rec *records.Record, keyFields []string) (Key, bool) {
	parts := make([]string, 0, len(keyFields))
	for _, field := range keyFields {
		v, present := rec.Get(field)
		if !present || v.IsNull() {
			return "", false
		}
		parts = append(parts, v.Canonical())
	}
	return MakeKey(parts...), true
}

// Index is a hash index over one side's canonical records.
type Index struct {
	source    string
	keyFields []string
	entries   map[Key]*records.Record
	fieldSet  map[string]bool

	duplicates int
	unkeyable  int
}

// New indexes a slice of canonical records. A duplicate key within one side
// overwrites the previous record (last write wins) and increments the
// Duplicates counter; unkeyable records are counted and dropped.
func New(source string, recs []*records.Record, keyFields []string) *Index {
	idx := &Index{
		source:    source,
		keyFields: append([]string(nil), keyFields...),
		entries:   make(map[Key]*records.Record, len(recs)),
		fieldSet:  make(map[string]bool),
	}

	for _, rec := range recs {
		for f := range rec.Fields {
			idx.fieldSet[f] = true
		}
		key, ok := Build(rec, keyFields)
		if !ok {
			idx.unkeyable++
			continue
		}
		if _, exists := idx.entries[key]; exists {
			idx.duplicates++
		}
		idx.entries[key] = rec
	}
	return idx
}

// Source returns the provenance label of the indexed side.
func (idx *Index) Source() string {
	return idx.source
}

// KeyFields returns the configured key fields in order.
func (idx *Index) KeyFields() []string {
	return idx.keyFields
}

// Len returns the number of distinct keys.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Get returns the record for a key.
func (idx *Index) Get(key Key) (*records.Record, bool) {
	rec, ok := idx.entries[key]
	return rec, ok
}

// Keys returns all keys in sorted order for deterministic iteration.
func (idx *Index) Keys() []Key {
	out := make([]Key, 0, len(idx.entries))
	for k := range idx.entries {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasField reports whether any indexed record carries the field.
func (idx *Index) HasField(field string) bool {
	return idx.fieldSet[field]
}

// Fields returns the side's canonical field vocabulary in sorted order.
func (idx *Index) Fields() []string {
	out := make([]string, 0, len(idx.fieldSet))
	for f := range idx.fieldSet {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Duplicates returns the number of duplicate-key overwrites.
func (idx *Index) Duplicates() int {
	return idx.duplicates
}

// Unkeyable returns the number of records excluded for Null/absent key
// fields.
func (idx *Index) Unkeyable() int {
	return idx.unkeyable
}
