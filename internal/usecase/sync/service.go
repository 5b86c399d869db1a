// Package sync runs full indexing passes from the record store into the search index.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchsync/internal/domain"
	"github.com/kailas-cloud/searchsync/internal/domain/bulk"
	"github.com/kailas-cloud/searchsync/internal/domain/flatten"
	"github.com/kailas-cloud/searchsync/internal/domain/model"
	"github.com/kailas-cloud/searchsync/internal/domain/record"
	"github.com/kailas-cloud/searchsync/internal/domain/syncrun"
	"github.com/kailas-cloud/searchsync/internal/logger"
	"github.com/kailas-cloud/searchsync/internal/metrics"
)

// Service orchestrates create, fetch, flatten, bulk write and refresh.
type Service struct {
	index   IndexLifecycle
	records RecordSource
	bulk    BulkWriter
	types   TypeRegistry
	reports ReportStore
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a sync service.
func New(index IndexLifecycle, records RecordSource, bw BulkWriter, types TypeRegistry, l *zap.Logger) *Service {
	return &Service{
		index:   index,
		records: records,
		bulk:    bw,
		types:   types,
		logger:  logger.OrNop(l),
		now:     time.Now,
	}
}

// WithReports enables persisting the report of every run.
func (s *Service) WithReports(r ReportStore) *Service {
	s.reports = r
	return s
}

// IndexData creates the index and fills it with every record of the
// requested types. No names means every registered type.
func (s *Service) IndexData(ctx context.Context, typeNames ...string) (syncrun.Report, error) {
	types, err := s.resolve(typeNames)
	if err != nil {
		return syncrun.Report{}, err
	}
	run := s.start(syncrun.OpIndex, types)
	err = s.indexData(ctx, types, &run)
	return s.finish(ctx, run, err)
}

// ReindexData drops the index and runs IndexData. A failed drop stops the pass.
func (s *Service) ReindexData(ctx context.Context, typeNames ...string) (syncrun.Report, error) {
	types, err := s.resolve(typeNames)
	if err != nil {
		return syncrun.Report{}, err
	}
	run := s.start(syncrun.OpReindex, types)
	if err := s.index.Drop(ctx); err != nil {
		return s.finish(ctx, run, err)
	}
	err = s.indexData(ctx, types, &run)
	return s.finish(ctx, run, err)
}

// resolve maps names to declarations before anything touches a backend.
func (s *Service) resolve(names []string) ([]model.Type, error) {
	if len(names) == 0 {
		names = s.types.Names()
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]model.Type, 0, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}

		t, ok := s.types.Get(n)
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownType, n)
		}
		if t.IsEmbedded() {
			if _, ok := s.types.Get(t.EmbeddedIn.ParentType); !ok {
				return nil, fmt.Errorf("%w: %q (parent of %s)", domain.ErrUnknownType, t.EmbeddedIn.ParentType, n)
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Service) start(op syncrun.Op, types []model.Type) syncrun.Report {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name
	}
	return syncrun.Report{
		RunID:     uuid.NewString(),
		Op:        op,
		Index:     s.index.Name(),
		Types:     names,
		Counts:    make(map[string]int, len(types)),
		StartedAt: s.now(),
	}
}

func (s *Service) indexData(ctx context.Context, types []model.Type, run *syncrun.Report) error {
	log := logger.WithRun(s.logger, run.RunID, run.Index)

	if err := s.index.Create(ctx); err != nil {
		return err
	}

	b := bulk.NewBuilder()
	for _, t := range types {
		recs, err := s.fetch(ctx, t)
		if err != nil {
			return err
		}
		for i := range recs {
			if err := s.add(ctx, b, t, &recs[i]); err != nil {
				return err
			}
			run.Counts[t.Name]++
		}
		log.Debug("type collected", zap.String("type", t.Name), zap.Int("documents", run.Counts[t.Name]))
	}

	if b.Len() == 0 {
		log.Info("nothing to index, skipping bulk request")
	} else if err := s.submit(ctx, b); err != nil {
		return err
	}

	if err := s.index.Refresh(ctx); err != nil {
		return err
	}

	for name, n := range run.Counts {
		metrics.DocumentsIndexedTotal.WithLabelValues(name).Add(float64(n))
	}
	return nil
}

// fetch returns the records of t. Embedded records are collected parent by parent.
func (s *Service) fetch(ctx context.Context, t model.Type) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewSyncFailed("fetch "+t.Name, err)
	}
	if !t.IsEmbedded() {
		recs, err := s.records.FetchByTypeTag(ctx, t)
		if err != nil {
			return nil, domain.NewSyncFailed("fetch "+t.Name, err)
		}
		return recs, nil
	}

	parentType, _ := s.types.Get(t.EmbeddedIn.ParentType)
	parents, err := s.records.FetchByTypeTag(ctx, parentType)
	if err != nil {
		return nil, domain.NewSyncFailed("fetch "+parentType.Name, err)
	}

	var out []record.Record
	for i := range parents {
		if err := ctx.Err(); err != nil {
			return nil, domain.NewSyncFailed("fetch "+t.Name, err)
		}
		recs, err := s.records.FetchEmbedded(ctx, parentType, &parents[i], t)
		if err != nil {
			return nil, domain.NewSyncFailed(fmt.Sprintf("fetch %s of %s %s", t.Name, parentType.Name, parents[i].ID), err)
		}
		out = append(out, recs...)
	}
	return out, nil
}

// add hydrates rec's relations, flattens it and adds it to the payload.
func (s *Service) add(ctx context.Context, b *bulk.Builder, t model.Type, rec *record.Record) error {
	for _, rel := range t.Relations {
		if err := ctx.Err(); err != nil {
			return domain.NewSyncFailed("load "+t.Name+"."+rel.Name, err)
		}
		related, err := s.records.LoadRelated(ctx, rec, rel)
		if err != nil {
			return domain.NewSyncFailed(fmt.Sprintf("load %s.%s of %s", t.Name, rel.Name, rec.ID), err)
		}
		rec.SetRelated(rel.Name, related)
	}

	doc, err := flatten.Flatten(rec, t)
	if err != nil {
		return err
	}

	a := bulk.Action{Index: s.index.Name(), Type: t.Name, ID: rec.ID}
	if pid, ok := rec.ParentID(); ok {
		a.Parent = pid
	}
	if err := b.Append(a, doc); err != nil {
		return fmt.Errorf("encode %s %s: %w", t.Name, rec.ID, err)
	}
	return nil
}

// submit sends the payload. Any rejected item fails the whole batch; nothing is rolled back.
func (s *Service) submit(ctx context.Context, b *bulk.Builder) error {
	if err := ctx.Err(); err != nil {
		return domain.NewSyncFailed("bulk", err)
	}
	metrics.BulkPayloadBytes.Observe(float64(b.Size()))

	resp, err := s.bulk.Bulk(ctx, b.Bytes())
	if err != nil {
		return domain.NewSyncFailed("bulk", err)
	}
	if !resp.Failed() {
		return nil
	}

	failed := resp.FailedItems()
	ids := make([]string, len(failed))
	for i, it := range failed {
		ids[i] = it.ID
	}
	return &domain.SyncFailedError{Stage: "bulk", Response: string(resp.Raw), FailedIDs: ids}
}

func (s *Service) finish(ctx context.Context, run syncrun.Report, err error) (syncrun.Report, error) {
	run.FinishedAt = s.now()
	run.Status = syncrun.StatusSucceeded
	if err != nil {
		run.Status = syncrun.StatusFailed
		run.Error = err.Error()
	}

	metrics.SyncRunsTotal.WithLabelValues(string(run.Op), metrics.Status(err)).Inc()
	metrics.SyncRunDuration.WithLabelValues(string(run.Op)).Observe(run.Duration().Seconds())

	log := logger.WithRun(s.logger, run.RunID, run.Index)
	if err != nil {
		fields := []zap.Field{zap.String("op", string(run.Op)), zap.Error(err)}
		var sfe *domain.SyncFailedError
		if errors.As(err, &sfe) && len(sfe.FailedIDs) > 0 {
			fields = append(fields, zap.Strings("failed_ids", sfe.FailedIDs))
		}
		log.Error(run.Message(), fields...)
	} else {
		log.Info(run.Message(), zap.String("op", string(run.Op)),
			zap.Int("documents", run.Total()), zap.Duration("duration", run.Duration()))
	}

	if s.reports != nil {
		// Saved even when ctx is cancelled.
		if serr := s.reports.Save(context.WithoutCancel(ctx), run); serr != nil {
			log.Warn("failed to save sync report", zap.Error(serr))
		}
	}
	return run, err
}
