package searchsync

import (
	"github.com/kailas-cloud/searchsync/internal/domain/model"
	"github.com/kailas-cloud/searchsync/internal/domain/record"
)

// Declaration types. See the model package for field semantics.
type (
	Type         = model.Type
	Field        = model.Field
	Accessor     = model.Accessor
	Relation     = model.Relation
	Embedding    = model.Embedding
	Record       = record.Record
	RelationKind = model.RelationKind
)

// Relation kinds.
const (
	ToOne  = model.ToOne
	ToMany = model.ToMany
)

// Attr declares a field read from the record attribute of the same name.
func Attr(name string) Field { return model.Attr(name) }

// Attrs declares several attribute fields.
func Attrs(names ...string) []Field { return model.Attrs(names...) }

// Computed declares a field produced by fn.
func Computed(name string, fn Accessor) Field { return model.Computed(name, fn) }

// Path returns an accessor reading a dotted attribute path.
func Path(path string) Accessor { return model.PathAccessor(path) }

// NewRecord builds a record for seeding.
func NewRecord(id, typeTag string, attrs map[string]any) Record {
	return record.New(id, typeTag, attrs)
}

// Result is the outcome of one exposed operation.
type Result struct {
	// Message is the human-readable log line for the operation.
	Message string
	// Counts holds documents indexed per type; nil for lifecycle operations.
	Counts map[string]int
	// RunID identifies a sync run; empty for lifecycle operations.
	RunID string
}
