package bridges

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aescanero/dago-template-bridge/internal/bridge"
)

// Bridge kinds a manifest entry can use
const (
	KindPage     = "page"
	KindMenu     = "menu"
	KindPaging   = "paging"
	KindValidate = "validate"
	KindError    = "error"
)

var kinds = map[string]func(template string) bridge.Factory{
	KindPage:     NewPage,
	KindMenu:     NewMenu,
	KindPaging:   NewPaging,
	KindValidate: NewValidation,
	KindError:    NewErrors,
}

// ExpressionValidator checks prefix rule conditions ahead of time
type ExpressionValidator interface {
	ValidateExpression(expression string) error
}

// Manifest declares prefix rules and bridges in YAML:
//
//	prefixes:
//	  - match: /admin/
//	  - condition: script.startsWith('/mypage/')
//	    prefix: Member
//	bridges:
//	  - name: UsersList
//	    template: users/list.html
//	    css: /css/users.css
//	    js: [/js/table.js, /js/users.js]
type Manifest struct {
	Prefixes []bridge.PrefixRule `yaml:"prefixes"`
	Bridges  []Definition        `yaml:"bridges"`
}

// Definition is one manifest bridge
type Definition struct {
	Name     string        `yaml:"name"`
	Kind     string        `yaml:"kind"`     // page (default), menu, paging, validate or error
	Template string        `yaml:"template"` // relative to the template root
	CSS      StringOrSlice `yaml:"css"`
	JS       StringOrSlice `yaml:"js"`
}

// StringOrSlice supports YAML fields that can be either a string or a slice of strings
type StringOrSlice []string

// UnmarshalYAML implements yaml.Unmarshaler to handle both string and []string
func (s *StringOrSlice) UnmarshalYAML(unmarshal func(any) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*s = []string{single}
		return nil
	}

	var slice []string
	if err := unmarshal(&slice); err != nil {
		return err
	}
	*s = slice
	return nil
}

// LoadManifest reads a manifest file. ${VAR} references are expanded from
// the environment before parsing.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest([]byte(os.ExpandEnv(string(data))))
}

// ParseManifest decodes a manifest, rejecting unknown fields
func ParseManifest(data []byte) (*Manifest, error) {
	m := &Manifest{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: failed to parse manifest: %v", bridge.ErrConfiguration, err)
	}
	return m, nil
}

// Validate checks names, kinds and prefix rules. Conditions are compiled with
// v; a nil v rejects manifests that use conditions.
func (m *Manifest) Validate(v ExpressionValidator) error {
	seen := make(map[string]bool, len(m.Bridges))
	for i, def := range m.Bridges {
		if def.Name == "" {
			return fmt.Errorf("%w: bridge #%d has no name", bridge.ErrConfiguration, i+1)
		}
		if seen[def.Name] {
			return fmt.Errorf("%w: bridge %q declared twice", bridge.ErrConfiguration, def.Name)
		}
		seen[def.Name] = true

		if _, ok := kinds[def.kind()]; !ok {
			return fmt.Errorf("%w: bridge %q has unknown kind %q", bridge.ErrConfiguration, def.Name, def.Kind)
		}
		if def.Template == "" && def.kind() != KindPage {
			return fmt.Errorf("%w: %s bridge %q needs a template", bridge.ErrConfiguration, def.kind(), def.Name)
		}
	}

	for i, rule := range m.Prefixes {
		if rule.Match == "" && rule.Condition == "" {
			return fmt.Errorf("%w: prefix rule #%d needs a match or a condition", bridge.ErrConfiguration, i+1)
		}
		if rule.Condition == "" {
			continue
		}
		if v == nil {
			return fmt.Errorf("%w: prefix rule %q needs an evaluator", bridge.ErrConfiguration, rule.Condition)
		}
		if err := v.ValidateExpression(rule.Condition); err != nil {
			return fmt.Errorf("%w: prefix rule %q: %v", bridge.ErrConfiguration, rule.Condition, err)
		}
	}
	return nil
}

// Register adds every manifest bridge to reg
func (m *Manifest) Register(reg *bridge.Registry) error {
	for _, def := range m.Bridges {
		newFactory, ok := kinds[def.kind()]
		if !ok {
			return fmt.Errorf("%w: bridge %q has unknown kind %q", bridge.ErrConfiguration, def.Name, def.Kind)
		}
		if err := reg.Register(def.Name, withAssets(newFactory(def.Template), def.CSS, def.JS)); err != nil {
			return err
		}
	}
	return nil
}

// PrefixNames returns the prefix every rule assigns, in rule order
func (m *Manifest) PrefixNames() []string {
	names := make([]string, 0, len(m.Prefixes))
	for _, rule := range m.Prefixes {
		names = append(names, rule.Name())
	}
	return names
}

func (d Definition) kind() string {
	if d.Kind == "" {
		return KindPage
	}
	return d.Kind
}

func withAssets(factory bridge.Factory, css, js []string) bridge.Factory {
	if len(css) == 0 && len(js) == 0 {
		return factory
	}
	return func(base *bridge.Base) bridge.Page {
		base.AddCSS(css...)
		base.AddJS(js...)
		return factory(base)
	}
}
