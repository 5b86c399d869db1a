package searchsync

import (
	"context"

	"github.com/kailas-cloud/searchsync/internal/domain/model"
	"github.com/kailas-cloud/searchsync/internal/domain/record"
	"github.com/kailas-cloud/searchsync/internal/domain/syncrun"
)

// --- indexUseCase mock ---

type mockIndexUC struct {
	existsFn  func(ctx context.Context) (bool, error)
	createFn  func(ctx context.Context) error
	dropFn    func(ctx context.Context) error
	rebuildFn func(ctx context.Context) error
	refreshFn func(ctx context.Context) error
}

func (m *mockIndexUC) Name() string { return "blog" }

func (m *mockIndexUC) Exists(ctx context.Context) (bool, error) { return m.existsFn(ctx) }
func (m *mockIndexUC) Create(ctx context.Context) error         { return m.createFn(ctx) }
func (m *mockIndexUC) Drop(ctx context.Context) error           { return m.dropFn(ctx) }
func (m *mockIndexUC) Rebuild(ctx context.Context) error        { return m.rebuildFn(ctx) }
func (m *mockIndexUC) Refresh(ctx context.Context) error        { return m.refreshFn(ctx) }

// --- syncUseCase mock ---

type mockSyncUC struct {
	indexFn   func(ctx context.Context, types ...string) (syncrun.Report, error)
	reindexFn func(ctx context.Context, types ...string) (syncrun.Report, error)
}

func (m *mockSyncUC) IndexData(ctx context.Context, types ...string) (syncrun.Report, error) {
	return m.indexFn(ctx, types...)
}

func (m *mockSyncUC) ReindexData(ctx context.Context, types ...string) (syncrun.Report, error) {
	return m.reindexFn(ctx, types...)
}

// --- typeRegistry mock ---

type mockRegistry struct {
	registerFn func(t model.Type) error
}

func (m *mockRegistry) Register(t model.Type) error { return m.registerFn(t) }

// --- recordWriter mock ---

type mockRecords struct {
	putFn func(ctx context.Context, collection string, rec record.Record) error
}

func (m *mockRecords) Put(ctx context.Context, collection string, rec record.Record) error {
	return m.putFn(ctx, collection, rec)
}

// --- reportReader mock ---

type mockReports struct {
	lastFn func(ctx context.Context) (syncrun.Report, error)
}

func (m *mockReports) Last(ctx context.Context) (syncrun.Report, error) { return m.lastFn(ctx) }
