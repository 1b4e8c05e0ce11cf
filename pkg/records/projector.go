package records

import (
	"github.com/rs/zerolog"

	"github.com/recondo/recondo/pkg/fields"
	"github.com/recondo/recondo/pkg/logging"
	"github.com/recondo/recondo/pkg/names"
	"github.com/recondo/recondo/pkg/profile"
)

// Stats aggregates the non-fatal outcomes of a projection batch.
type Stats struct {
	// Projected counts canonical records emitted.
	Projected int

	// Skipped counts raw records that yielded zero canonical records
	// (missing meta field, missing or empty repeating group).
	Skipped int

	// Warnings counts coercion failures across all emitted records.
	Warnings int
}

// Projector turns raw nested records into canonical records. It owns the
// run-wide row counter; use one projector per run so row ids stay unique
// across both sides.
type Projector struct {
	log     *zerolog.Logger
	nextRow int64
}

// NewProjector creates a projector. A nil logger falls back to the default.
func NewProjector(log *zerolog.Logger) *Projector {
	if log == nil {
		log = logging.Default()
	}
	return &Projector{log: log}
}

// ProjectAll projects a batch of raw records. Per-record problems are
// absorbed into Stats; the batch never fails.
func (pj *Projector) ProjectAll(raws []any, p *profile.Profile) ([]*Record, Stats) {
	var stats Stats
	out := make([]*Record, 0, len(raws))
	for _, raw := range raws {
		recs := pj.Project(raw, p, &stats)
		if len(recs) == 0 {
			stats.Skipped++
			continue
		}
		out = append(out, recs...)
	}
	pj.log.Info().
		Str("source", p.Source).
		Int("raw", len(raws)).
		Int("projected", stats.Projected).
		Int("skipped", stats.Skipped).
		Int("warnings", stats.Warnings).
		Msg("projection complete")
	return out, stats
}

// Project projects one raw record. It emits one canonical record per
// element of the repeating group (or a single record when the profile has
// no group), with every meta field copied onto each. A missing meta field
// or an empty group yields zero records.
func (pj *Projector) Project(raw any, p *profile.Profile, stats *Stats) []*Record {
	meta := make(map[string]fields.Value)
	var metaWarnings int
	for _, rule := range p.MetaRules() {
		v, ok := lookup(raw, rule.Path)
		if !ok {
			pj.log.Debug().
				Str("source", p.Source).
				Str("field", rule.Field).
				Msg("raw record missing meta field, skipping")
			return nil
		}
		metaWarnings += applyRule(meta, rule, v)
	}

	if !p.HasGroup() {
		rec := pj.emit(p.Source, meta, metaWarnings)
		stats.Projected++
		stats.Warnings += rec.Warnings
		return []*Record{rec}
	}

	groupRaw, ok := lookup(raw, p.GroupPath())
	if !ok {
		pj.log.Debug().
			Str("source", p.Source).
			Msg("raw record missing repeating group, skipping")
		return nil
	}
	elements, ok := groupRaw.([]any)
	if !ok || len(elements) == 0 {
		pj.log.Debug().
			Str("source", p.Source).
			Msg("repeating group empty or not a list, skipping")
		return nil
	}

	out := make([]*Record, 0, len(elements))
	for _, element := range elements {
		vals := make(map[string]fields.Value, len(meta)+len(p.GroupRules()))
		for k, v := range meta {
			vals[k] = v
		}
		warnings := metaWarnings
		for _, rule := range p.GroupRules() {
			v, ok := lookup(element, rule.Path)
			if !ok {
				v = nil
			}
			warnings += applyRule(vals, rule, v)
		}
		rec := pj.emit(p.Source, vals, warnings)
		stats.Projected++
		stats.Warnings += rec.Warnings
		out = append(out, rec)
	}
	return out
}

// emit builds a record and assigns the next row id.
func (pj *Projector) emit(source string, vals map[string]fields.Value, warnings int) *Record {
	pj.nextRow++
	return &Record{
		Source:   source,
		Row:      pj.nextRow,
		Fields:   vals,
		Warnings: warnings,
	}
}

// applyRule coerces one raw value into the target map and returns the
// number of coercion warnings incurred.
func applyRule(dst map[string]fields.Value, rule profile.Rule, raw any) int {
	switch rule.Derive {
	case profile.DeriveName:
		applyNameRule(dst, rule, raw)
		return 0
	case profile.DeriveEmail:
		applyEmailRule(dst, rule, raw)
		return 0
	default:
	}

	v, ok := fields.Coerce(raw, rule.Type)
	if rule.Fold {
		if s, isStr := v.AsString(); isStr {
			v = fields.String(fields.Fold(s))
		}
	}
	dst[rule.Field] = v
	if ok {
		return 0
	}
	return 1
}

// applyNameRule fans a free-text name out into the five canonical name
// sub-fields. Parsing is total, so this never warns.
func applyNameRule(dst map[string]fields.Value, rule profile.Rule, raw any) {
	var parsed names.PersonName
	if v, ok := fields.Coerce(raw, fields.CoerceString); ok {
		if s, isStr := v.AsString(); isStr {
			parsed = names.ParseName(s)
		}
	}
	dst[rule.Field+"_title"] = stringOrNull(parsed.Title)
	dst[rule.Field+"_first"] = stringOrNull(parsed.First)
	dst[rule.Field+"_middle"] = stringOrNull(parsed.Middle)
	dst[rule.Field+"_last"] = stringOrNull(parsed.Last)
	dst[rule.Field+"_suffix"] = stringOrNull(parsed.Suffix)
}

// applyEmailRule stores the cleaned address, or Null when the address does
// not validate. An unparseable email is expected input, not a warning.
func applyEmailRule(dst map[string]fields.Value, rule profile.Rule, raw any) {
	v, ok := fields.Coerce(raw, fields.CoerceString)
	if !ok {
		dst[rule.Field] = fields.Null()
		return
	}
	s, isStr := v.AsString()
	if !isStr {
		dst[rule.Field] = fields.Null()
		return
	}
	cleaned, valid := names.CleanEmail(s)
	if !valid {
		dst[rule.Field] = fields.Null()
		return
	}
	dst[rule.Field] = fields.String(cleaned)
}

// stringOrNull maps an empty name component to Null.
func stringOrNull(s string) fields.Value {
	if s == "" {
		return fields.Null()
	}
	return fields.String(s)
}

// lookup walks a key path through nested maps. It returns ok=false when any
// segment is absent or the tree shape does not match.
func lookup(raw any, path []string) (any, bool) {
	cur := raw
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
