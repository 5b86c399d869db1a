// Package model describes record type declarations: indexable fields,
// relations and embedding.
package model

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/searchsync/internal/domain"
	"github.com/kailas-cloud/searchsync/internal/domain/record"
)

// Accessor computes a field value from a record when the raw attribute is absent.
type Accessor func(rec *record.Record) (any, error)

// Field is one indexable field. The raw attribute of the same name wins;
// Accessor is consulted only when the attribute is missing.
type Field struct {
	Name     string
	Accessor Accessor
}

// Attr declares a field read from the raw attribute only.
func Attr(name string) Field { return Field{Name: name} }

// Computed declares a field with a fallback accessor.
func Computed(name string, fn Accessor) Field { return Field{Name: name, Accessor: fn} }

// Attrs declares several attribute-only fields.
func Attrs(names ...string) []Field {
	out := make([]Field, len(names))
	for i, n := range names {
		out[i] = Attr(n)
	}
	return out
}

// RelationKind tells how many related records a relation yields.
type RelationKind int

const (
	// ToOne yields a single nested object.
	ToOne RelationKind = iota
	// ToMany yields an ordered sequence of nested objects.
	ToMany
)

func (k RelationKind) String() string {
	switch k {
	case ToOne:
		return "one"
	case ToMany:
		return "many"
	default:
		return fmt.Sprintf("RelationKind(%d)", int(k))
	}
}

// ParseRelationKind parses "one" / "many".
func ParseRelationKind(s string) (RelationKind, error) {
	switch strings.ToLower(s) {
	case "one", "to_one", "":
		return ToOne, nil
	case "many", "to_many":
		return ToMany, nil
	default:
		return 0, fmt.Errorf("%w: relation kind %q", domain.ErrInvalidSchema, s)
	}
}

// ProjectionKind tells how many fields are projected from each related record.
type ProjectionKind int

const (
	// SingleField projects one field.
	SingleField ProjectionKind = iota
	// MultiField projects an ordered list of fields.
	MultiField
)

// Relation declares a cross-document relation and the fields projected from it.
type Relation struct {
	Name       string
	Kind       RelationKind
	Collection string // storage collection of the related records
	ForeignKey string // attribute holding the related id (ToOne) or ids (ToMany)
	Fields     []Field
}

// Projection returns the projection kind implied by the declared fields.
func (r Relation) Projection() ProjectionKind {
	if len(r.Fields) == 1 {
		return SingleField
	}
	return MultiField
}

// Embedding declares that a type lives inside a parent's record.
type Embedding struct {
	ParentType string // registered name of the parent type
	Accessor   string // attribute on the parent holding the collection
	ForeignKey string // rendered as "<ForeignKey>_id" in documents
}

// Type is a registered record type declaration.
type Type struct {
	Name       string
	Collection string // storage collection; defaults to the lower-cased name
	Base       bool   // polymorphic base: untagged records belong to it too
	Fields     []Field
	Relations  []Relation
	EmbeddedIn *Embedding
	Mapping    map[string]any
}

// IsEmbedded reports whether records of t live inside a parent record.
func (t Type) IsEmbedded() bool { return t.EmbeddedIn != nil }

// TypeTags returns the type tags a fetch must match. "" stands for an unset tag.
func (t Type) TypeTags() []string {
	if t.Base {
		return []string{"", t.Name}
	}
	return []string{t.Name}
}

// MatchesTag reports whether a record tagged tag belongs to t.
func (t Type) MatchesTag(tag string) bool {
	for _, want := range t.TypeTags() {
		if want == tag {
			return true
		}
	}
	return false
}

// StorageCollection returns the collection top-level records of t are stored in.
func (t Type) StorageCollection() string {
	if t.Collection != "" {
		return t.Collection
	}
	return strings.ToLower(t.Name)
}

// ForeignKeyField returns the document key that carries the parent id.
func (t Type) ForeignKeyField() string {
	if t.EmbeddedIn == nil {
		return ""
	}
	return t.EmbeddedIn.ForeignKey + "_id"
}

// ParentField is the reserved document key used for parent/child routing.
const ParentField = "_parent"

// IDField is the document key every flattened document starts with.
const IDField = "id"

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

// Validate checks the declaration for collisions and missing pieces.
func (t Type) Validate() error {
	if !namePattern.MatchString(t.Name) {
		return fmt.Errorf("%w: type name %q", domain.ErrInvalidSchema, t.Name)
	}

	seen := map[string]struct{}{IDField: {}}
	if t.IsEmbedded() {
		e := t.EmbeddedIn
		if e.ParentType == "" || e.Accessor == "" || e.ForeignKey == "" {
			return fmt.Errorf("%w: %s: embedding needs parent, accessor and foreign key",
				domain.ErrInvalidSchema, t.Name)
		}
		if e.ParentType == t.Name {
			return fmt.Errorf("%w: %s: embedded in itself", domain.ErrInvalidSchema, t.Name)
		}
		seen[ParentField] = struct{}{}
		seen[t.ForeignKeyField()] = struct{}{}
	}

	for _, f := range t.Fields {
		if err := claim(seen, t.Name, f.Name); err != nil {
			return err
		}
	}

	for _, r := range t.Relations {
		if err := claim(seen, t.Name, r.Name); err != nil {
			return err
		}
		if r.Kind != ToOne && r.Kind != ToMany {
			return fmt.Errorf("%w: %s.%s: relation kind %d", domain.ErrInvalidSchema, t.Name, r.Name, r.Kind)
		}
		if len(r.Fields) == 0 {
			return fmt.Errorf("%w: %s.%s: relation projects no fields", domain.ErrInvalidSchema, t.Name, r.Name)
		}
		projected := map[string]struct{}{}
		for _, f := range r.Fields {
			if err := claim(projected, t.Name+"."+r.Name, f.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func claim(seen map[string]struct{}, owner, name string) error {
	if name == "" {
		return fmt.Errorf("%w: %s: empty field name", domain.ErrInvalidSchema, owner)
	}
	if _, dup := seen[name]; dup {
		return fmt.Errorf("%w: %s: duplicate or reserved field %q", domain.ErrInvalidSchema, owner, name)
	}
	seen[name] = struct{}{}
	return nil
}
