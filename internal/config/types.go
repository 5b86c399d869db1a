package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/searchsync/internal/domain"
	"github.com/kailas-cloud/searchsync/internal/domain/model"
)

// TypeConfig declares a record type in YAML.
type TypeConfig struct {
	Name       string           `yaml:"name"`
	Collection string           `yaml:"collection"`
	Base       bool             `yaml:"base"`
	Fields     []FieldConfig    `yaml:"fields"`
	Relations  []RelationConfig `yaml:"relations"`
	EmbeddedIn *EmbeddingConfig `yaml:"embedded_in"`
	Mapping    map[string]any   `yaml:"mapping"`
}

// FieldConfig is either a bare attribute name or a mapping with a
// computed source:
//
//	fields:
//	  - title
//	  - {name: views, path: stats.views}
//	  - {name: kind, builtin: type_tag}
type FieldConfig struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	Builtin string `yaml:"builtin"`
}

// UnmarshalYAML accepts the scalar shorthand.
func (f *FieldConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		f.Name = node.Value
		return nil
	}
	type plain FieldConfig
	return node.Decode((*plain)(f))
}

// RelationConfig declares a relation and its projected fields.
type RelationConfig struct {
	Name       string        `yaml:"name"`
	Kind       string        `yaml:"kind"` // one | many
	Collection string        `yaml:"collection"`
	ForeignKey string        `yaml:"foreign_key"`
	Fields     []FieldConfig `yaml:"fields"`
}

// EmbeddingConfig places a type inside a parent record.
type EmbeddingConfig struct {
	Parent     string `yaml:"parent"`
	Accessor   string `yaml:"accessor"`
	ForeignKey string `yaml:"foreign_key"`
}

// Model converts the declaration into a validated model.Type.
func (t TypeConfig) Model() (model.Type, error) {
	fields, err := buildFields(t.Fields)
	if err != nil {
		return model.Type{}, fmt.Errorf("%s: %w", t.Name, err)
	}

	out := model.Type{
		Name:       t.Name,
		Collection: t.Collection,
		Base:       t.Base,
		Fields:     fields,
		Mapping:    t.Mapping,
	}

	for _, rc := range t.Relations {
		kind, err := model.ParseRelationKind(rc.Kind)
		if err != nil {
			return model.Type{}, fmt.Errorf("%s.%s: %w", t.Name, rc.Name, err)
		}
		relFields, err := buildFields(rc.Fields)
		if err != nil {
			return model.Type{}, fmt.Errorf("%s.%s: %w", t.Name, rc.Name, err)
		}
		out.Relations = append(out.Relations, model.Relation{
			Name:       rc.Name,
			Kind:       kind,
			Collection: rc.Collection,
			ForeignKey: rc.ForeignKey,
			Fields:     relFields,
		})
	}

	if e := t.EmbeddedIn; e != nil {
		out.EmbeddedIn = &model.Embedding{ParentType: e.Parent, Accessor: e.Accessor, ForeignKey: e.ForeignKey}
	}

	if err := out.Validate(); err != nil {
		return model.Type{}, err
	}
	return out, nil
}

func buildFields(cfgs []FieldConfig) ([]model.Field, error) {
	out := make([]model.Field, 0, len(cfgs))
	for _, fc := range cfgs {
		switch {
		case fc.Path != "" && fc.Builtin != "":
			return nil, fmt.Errorf("%w: field %q sets both path and builtin", domain.ErrInvalidSchema, fc.Name)
		case fc.Path != "":
			out = append(out, model.Computed(fc.Name, model.PathAccessor(fc.Path)))
		case fc.Builtin != "":
			acc, err := model.BuiltinAccessor(fc.Builtin)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", fc.Name, err)
			}
			out = append(out, model.Computed(fc.Name, acc))
		default:
			out = append(out, model.Attr(fc.Name))
		}
	}
	return out, nil
}
