// Package record defines the read-only record instances supplied by the data store.
package record

// Record is one instance read from the document store.
type Record struct {
	ID         string
	TypeTag    string // "" when the store carries no type tag
	Attributes map[string]any

	// Embedded records carry the parent they were reached from.
	Embedded       bool
	Parent         *Record
	ParentAccessor string

	related map[string][]Record
}

// New creates a top-level record.
func New(id, typeTag string, attrs map[string]any) Record {
	if attrs == nil {
		attrs = map[string]any{}
	}
	return Record{ID: id, TypeTag: typeTag, Attributes: attrs}
}

// NewEmbedded creates a record reached through parent's accessor collection.
func NewEmbedded(parent *Record, accessor, id, typeTag string, attrs map[string]any) Record {
	r := New(id, typeTag, attrs)
	r.Embedded = true
	r.Parent = parent
	r.ParentAccessor = accessor
	return r
}

// Attribute returns the raw attribute stored under key.
// A key present with a nil value still counts as present.
func (r *Record) Attribute(key string) (any, bool) {
	v, ok := r.Attributes[key]
	return v, ok
}

// ParentID returns the embedding parent's identifier.
func (r *Record) ParentID() (string, bool) {
	if r.Parent == nil {
		return "", false
	}
	return r.Parent.ID, true
}

// SetRelated attaches the records a relation resolves to.
func (r *Record) SetRelated(relation string, recs []Record) {
	if r.related == nil {
		r.related = make(map[string][]Record)
	}
	r.related[relation] = recs
}

// Related returns the records attached for relation, in fetch order.
func (r *Record) Related(relation string) []Record {
	return r.related[relation]
}
