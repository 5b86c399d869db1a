package sync

import (
	"context"

	"github.com/kailas-cloud/searchsync/internal/db"
	"github.com/kailas-cloud/searchsync/internal/domain/model"
	"github.com/kailas-cloud/searchsync/internal/domain/record"
	"github.com/kailas-cloud/searchsync/internal/domain/syncrun"
)

// IndexLifecycle is the part of the index service a sync pass drives.
type IndexLifecycle interface {
	Name() string
	Create(ctx context.Context) error
	Drop(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// RecordSource reads records from the document store.
type RecordSource interface {
	FetchByTypeTag(ctx context.Context, t model.Type) ([]record.Record, error)
	FetchEmbedded(ctx context.Context, parentType model.Type, parent *record.Record, t model.Type) ([]record.Record, error)
	LoadRelated(ctx context.Context, rec *record.Record, rel model.Relation) ([]record.Record, error)
}

// BulkWriter submits a newline-delimited bulk payload.
type BulkWriter interface {
	Bulk(ctx context.Context, payload []byte) (*db.BulkResponse, error)
}

// TypeRegistry resolves registered type declarations.
type TypeRegistry interface {
	Get(name string) (model.Type, bool)
	Names() []string
}

// ReportStore keeps the outcome of the last run.
type ReportStore interface {
	Save(ctx context.Context, rep syncrun.Report) error
}
