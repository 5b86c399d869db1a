package db

import (
	"fmt"
	"sort"
	"strings"
)

// IndexBuilder is a fluent builder for index definitions.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building an index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{
		def: IndexDefinition{
			Name:     name,
			Mappings: map[string]any{},
		},
	}
}

// Mapping adds the mapping fragment for one type.
func (b *IndexBuilder) Mapping(typeName string, fragment any) *IndexBuilder {
	b.def.Mappings[typeName] = fragment
	return b
}

// Mappings merges a whole mapping document keyed by type.
func (b *IndexBuilder) Mappings(m map[string]any) *IndexBuilder {
	for k, v := range m {
		b.def.Mappings[k] = v
	}
	return b
}

// Setting sets one index setting.
func (b *IndexBuilder) Setting(key string, value any) *IndexBuilder {
	if b.def.Settings == nil {
		b.def.Settings = map[string]any{}
	}
	b.def.Settings[key] = value
	return b
}

// Shards sets number_of_shards when n > 0.
func (b *IndexBuilder) Shards(n int) *IndexBuilder {
	if n > 0 {
		b.Setting("number_of_shards", n)
	}
	return b
}

// Replicas sets number_of_replicas when n >= 0.
func (b *IndexBuilder) Replicas(n int) *IndexBuilder {
	if n >= 0 {
		b.Setting("number_of_replicas", n)
	}
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return &b.def, nil
}

// MustBuild calls Build and panics on error.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// String returns a debug representation of the create call.
func (idx *IndexDefinition) String() string {
	types := make([]string, 0, len(idx.Mappings))
	for t := range idx.Mappings {
		types = append(types, t)
	}
	sort.Strings(types)

	parts := []string{"PUT", idx.Name, "MAPPINGS", "[" + strings.Join(types, ",") + "]"}
	if len(idx.Settings) > 0 {
		keys := make([]string, 0, len(idx.Settings))
		for k := range idx.Settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, idx.Settings[k]))
		}
	}
	return strings.Join(parts, " ")
}
