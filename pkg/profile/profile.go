// Package profile defines the declarative field-mapping profile that drives
// projection of raw nested records into canonical flat records. Profiles are
// configuration: they are created at setup time, validated once, and never
// mutated during a run.
package profile

import (
	"fmt"
	"strings"

	"github.com/recondo/recondo/pkg/errors"
	"github.com/recondo/recondo/pkg/fields"
)

// ListMarker is the path element that marks the repeating group. A rule
// whose path contains the marker maps one field of each group element; all
// other rules are meta rules copied onto every emitted record.
const ListMarker = "[]"

// Derive names a normalizer applied to a string field during projection.
type Derive uint8

// Derivations.
const (
	DeriveNone Derive = iota
	DeriveName
	DeriveEmail
)

// ParseDerive parses a derive name from a profile file.
func ParseDerive(s string) (Derive, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return DeriveNone, nil
	case "name":
		return DeriveName, nil
	case "email":
		return DeriveEmail, nil
	default:
		return DeriveNone, fmt.Errorf("unknown derive %q", s)
	}
}

// NameParts are the canonical sub-fields a derive:name rule fans out into,
// appended to the rule's field name ("contact" becomes "contact_first" and
// so on).
var NameParts = []string{"title", "first", "middle", "last", "suffix"}

// Rule maps one source path to one canonical field.
type Rule struct {
	// Path is the sequence of keys (and at most one ListMarker) from the
	// record root to the source value.
	Path []string

	// Field is the canonical field name the value is stored under.
	Field string

	// Type is the coercion applied to the raw value.
	Type fields.Coercion

	// Derive optionally runs a name/email normalizer on the value.
	Derive Derive

	// Fold case-folds string values so Exact comparison is effectively
	// case-insensitive for this field.
	Fold bool
}

// repeating reports whether the rule's path traverses the repeating group.
func (r Rule) repeating() bool {
	for _, p := range r.Path {
		if p == ListMarker {
			return true
		}
	}
	return false
}

// Profile is an ordered list of mapping rules for one source.
type Profile struct {
	// Source labels records projected through this profile.
	Source string

	// Rules in declaration order.
	Rules []Rule

	groupPath  []string
	metaRules  []Rule
	groupRules []Rule // paths relative to the group element
	validated  bool
}

// Validate checks the profile once at setup time. All problems found here
// are configuration errors: they would make every projected record
// meaningless, so they are fatal rather than absorbed into counters.
func (p *Profile) Validate() error {
	if p.Source == "" {
		return errors.NewConfigError("profile", "source label is required", nil)
	}
	if len(p.Rules) == 0 {
		return errors.NewConfigError("profile", "at least one rule is required", nil)
	}

	p.groupPath = nil
	p.metaRules = p.metaRules[:0]
	p.groupRules = p.groupRules[:0]

	seen := make(map[string]bool, len(p.Rules))
	for i, rule := range p.Rules {
		if len(rule.Path) == 0 {
			return errors.NewConfigError("profile",
				fmt.Sprintf("rule %d: empty path", i), nil)
		}
		if rule.Field == "" {
			return errors.NewConfigError("profile",
				fmt.Sprintf("rule %d: empty field name", i), nil)
		}
		if rule.Derive != DeriveNone && rule.Type != fields.CoerceString {
			return errors.NewConfigError("profile",
				fmt.Sprintf("rule %d: derive requires a string field", i), nil)
		}

		for _, f := range p.ruleFields(rule) {
			if seen[f] {
				return errors.NewConfigError("profile",
					fmt.Sprintf("duplicate canonical field %q", f), nil)
			}
			seen[f] = true
		}

		if !rule.repeating() {
			p.metaRules = append(p.metaRules, rule)
			continue
		}

		prefix, rel, err := splitGroupPath(rule.Path)
		if err != nil {
			return errors.NewConfigError("profile",
				fmt.Sprintf("rule %d (%s): %v", i, rule.Field, err), nil)
		}
		if p.groupPath == nil {
			p.groupPath = prefix
		} else if !pathsEqual(p.groupPath, prefix) {
			return errors.NewConfigError("profile",
				"profiles support a single repeating group; found conflicting group paths", nil)
		}
		rel2 := rule
		rel2.Path = rel
		p.groupRules = append(p.groupRules, rel2)
	}

	p.validated = true
	return nil
}

// splitGroupPath splits a repeating path at the marker and rejects paths
// with more than one marker or a trailing marker with no element field.
func splitGroupPath(path []string) (prefix, rel []string, err error) {
	idx := -1
	for i, seg := range path {
		if seg != ListMarker {
			continue
		}
		if idx >= 0 {
			return nil, nil, fmt.Errorf("path has more than one %s marker", ListMarker)
		}
		idx = i
	}
	if idx == 0 {
		return nil, nil, fmt.Errorf("path starts with %s; the group needs a name", ListMarker)
	}
	return path[:idx], path[idx+1:], nil
}

func pathsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// HasGroup reports whether the profile declares a repeating group.
func (p *Profile) HasGroup() bool {
	return p.groupPath != nil
}

// GroupPath returns the path to the repeating group, or nil.
func (p *Profile) GroupPath() []string {
	return p.groupPath
}

// MetaRules returns the non-repeating rules.
func (p *Profile) MetaRules() []Rule {
	return p.metaRules
}

// GroupRules returns the repeating rules with paths relative to one group
// element.
func (p *Profile) GroupRules() []Rule {
	return p.groupRules
}

// ruleFields expands one rule into the canonical field names it emits.
func (p *Profile) ruleFields(rule Rule) []string {
	if rule.Derive != DeriveName {
		return []string{rule.Field}
	}
	out := make([]string, 0, len(NameParts))
	for _, part := range NameParts {
		out = append(out, rule.Field+"_"+part)
	}
	return out
}

// Fields returns the full canonical field vocabulary this profile emits,
// in rule order, with derive:name fan-out expanded.
func (p *Profile) Fields() []string {
	out := make([]string, 0, len(p.Rules))
	for _, rule := range p.Rules {
		out = append(out, p.ruleFields(rule)...)
	}
	return out
}

// FieldKinds returns the value kind each canonical field holds after a
// successful coercion. Used to check that tolerance policies are attached
// to kind-compatible fields before a run starts.
func (p *Profile) FieldKinds() map[string]fields.Kind {
	kinds := make(map[string]fields.Kind, len(p.Rules))
	for _, rule := range p.Rules {
		for _, f := range p.ruleFields(rule) {
			kinds[f] = rule.Type.Kind()
		}
	}
	return kinds
}
