package chi

import (
	"context"

	"github.com/kailas-cloud/searchsync/internal/domain/syncrun"
	healthuc "github.com/kailas-cloud/searchsync/internal/usecase/health"
)

// IndexService is the index lifecycle the admin API exposes.
type IndexService interface {
	Name() string
	Exists(ctx context.Context) (bool, error)
	Create(ctx context.Context) error
	Drop(ctx context.Context) error
	Rebuild(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// SyncService runs indexing passes.
type SyncService interface {
	IndexData(ctx context.Context, typeNames ...string) (syncrun.Report, error)
	ReindexData(ctx context.Context, typeNames ...string) (syncrun.Report, error)
}

// ReportReader returns the last stored sync report.
type ReportReader interface {
	Last(ctx context.Context) (syncrun.Report, error)
}

// Locker serializes mutating operations.
type Locker interface {
	Acquire(ctx context.Context, name string) (func(context.Context) error, error)
}

// HealthChecker aggregates backend health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
