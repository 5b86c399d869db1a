package index

import (
	"context"

	"github.com/kailas-cloud/searchsync/internal/db"
)

// Engine is the search index lifecycle contract.
type Engine interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	RefreshIndex(ctx context.Context, name string) error
}

// MappingSource supplies the merged per-type mapping document.
type MappingSource interface {
	Mappings() map[string]any
}
