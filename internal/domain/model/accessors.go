package model

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/searchsync/internal/domain"
	"github.com/kailas-cloud/searchsync/internal/domain/record"
)

// PathAccessor reads a nested attribute by dotted path, e.g. "stats.views".
func PathAccessor(path string) Accessor {
	parts := strings.Split(path, ".")
	return func(rec *record.Record) (any, error) {
		var cur any = rec.Attributes
		for i, p := range parts {
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("path %q: %q is not an object", path, strings.Join(parts[:i], "."))
			}
			if cur, ok = m[p]; !ok {
				return nil, fmt.Errorf("path %q: missing %q", path, p)
			}
		}
		return cur, nil
	}
}

// Builtin accessor names usable from declarative configuration.
const (
	BuiltinTypeTag  = "type_tag"
	BuiltinParentID = "parent_id"
	BuiltinEmbedded = "embedded"
)

// BuiltinAccessor returns a named accessor over record metadata.
func BuiltinAccessor(name string) (Accessor, error) {
	switch name {
	case BuiltinTypeTag:
		return func(rec *record.Record) (any, error) { return rec.TypeTag, nil }, nil
	case BuiltinParentID:
		return func(rec *record.Record) (any, error) {
			id, ok := rec.ParentID()
			if !ok {
				return nil, fmt.Errorf("record %s has no parent", rec.ID)
			}
			return id, nil
		}, nil
	case BuiltinEmbedded:
		return func(rec *record.Record) (any, error) { return rec.Embedded, nil }, nil
	default:
		return nil, fmt.Errorf("%w: unknown builtin accessor %q", domain.ErrInvalidSchema, name)
	}
}
