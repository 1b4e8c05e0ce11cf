package profile

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/recondo/recondo/pkg/errors"
	"github.com/recondo/recondo/pkg/fields"
)

// ruleDoc is the on-disk form of a rule.
type ruleDoc struct {
	Path   []string `yaml:"path"`
	Field  string   `yaml:"field"`
	Type   string   `yaml:"type"`
	Derive string   `yaml:"derive,omitempty"`
	Fold   bool     `yaml:"fold,omitempty"`
}

// profileDoc is the on-disk form of a profile.
type profileDoc struct {
	Source string    `yaml:"source"`
	Rules  []ruleDoc `yaml:"rules"`
}

// Load reads and validates a YAML profile from disk.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		if _, ok := err.(*errors.ConfigError); ok {
			return nil, err
		}
		return nil, errors.WrapParse("yaml", path, err)
	}
	return p, nil
}

// Parse decodes and validates a YAML profile.
func Parse(data []byte) (*Profile, error) {
	var doc profileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	p := &Profile{
		Source: doc.Source,
		Rules:  make([]Rule, 0, len(doc.Rules)),
	}
	for _, rd := range doc.Rules {
		coerce := fields.CoerceString
		if rd.Type != "" {
			var err error
			coerce, err = fields.ParseCoercion(rd.Type)
			if err != nil {
				return nil, errors.WrapConfig("profile", err)
			}
		}
		derive, err := ParseDerive(rd.Derive)
		if err != nil {
			return nil, errors.WrapConfig("profile", err)
		}
		p.Rules = append(p.Rules, Rule{
			Path:   rd.Path,
			Field:  rd.Field,
			Type:   coerce,
			Derive: derive,
			Fold:   rd.Fold,
		})
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
