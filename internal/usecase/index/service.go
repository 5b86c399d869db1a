// Package index manages the lifecycle of the single search index.
package index

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchsync/internal/db"
	"github.com/kailas-cloud/searchsync/internal/domain"
	"github.com/kailas-cloud/searchsync/internal/logger"
	"github.com/kailas-cloud/searchsync/internal/metrics"
)

// Lifecycle operation names, used in errors, logs and metrics.
const (
	OpExists  = "exists"
	OpCreate  = "create"
	OpDrop    = "drop"
	OpRebuild = "rebuild"
	OpRefresh = "refresh"
)

// Service creates, drops, rebuilds and refreshes one named index.
type Service struct {
	engine   Engine
	mappings MappingSource
	name     string
	shards   int
	replicas int
	logger   *zap.Logger
}

// New creates an index service for the index called name.
func New(engine Engine, mappings MappingSource, name string, l *zap.Logger) *Service {
	return &Service{
		engine:   engine,
		mappings: mappings,
		name:     name,
		replicas: -1,
		logger:   logger.OrNop(l),
	}
}

// WithSettings sets shard and replica counts sent on create.
// Zero shards and negative replicas leave the engine defaults.
func (s *Service) WithSettings(shards, replicas int) *Service {
	s.shards = shards
	s.replicas = replicas
	return s
}

// Name returns the managed index name.
func (s *Service) Name() string { return s.name }

// Exists reports whether the index is present.
func (s *Service) Exists(ctx context.Context) (bool, error) {
	ok, err := s.engine.IndexExists(ctx, s.name)
	if err != nil {
		return false, domain.NewIndexOperationError(OpExists, s.name, err)
	}
	return ok, nil
}

// Create creates the index with the registry mappings.
// A present index fails with domain.ErrIndexConflict and nothing is sent.
func (s *Service) Create(ctx context.Context) (err error) {
	defer s.observe(OpCreate, &err)

	present, err := s.Exists(ctx)
	if err != nil {
		return err
	}
	if present {
		return fmt.Errorf("%w: %q", domain.ErrIndexConflict, s.name)
	}
	return s.create(ctx)
}

func (s *Service) create(ctx context.Context) error {
	b := db.NewIndex(s.name).Mappings(s.mappings.Mappings()).Shards(s.shards)
	if s.replicas >= 0 {
		b = b.Replicas(s.replicas)
	}
	def, err := b.Build()
	if err != nil {
		return domain.NewIndexOperationError(OpCreate, s.name, err)
	}

	s.logger.Debug("creating index", zap.Stringer("definition", def))
	if err := s.engine.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return fmt.Errorf("%w: %q", domain.ErrIndexConflict, s.name)
		}
		return domain.NewIndexOperationError(OpCreate, s.name, err)
	}
	return nil
}

// Drop deletes the index. An absent index is left alone.
// The index must be gone afterwards, whatever the delete call answered.
func (s *Service) Drop(ctx context.Context) (err error) {
	defer s.observe(OpDrop, &err)

	present, err := s.Exists(ctx)
	if err != nil || !present {
		return err
	}
	return s.drop(ctx)
}

func (s *Service) drop(ctx context.Context) error {
	delErr := s.engine.DropIndex(ctx, s.name)
	if errors.Is(delErr, db.ErrIndexNotFound) {
		delErr = nil
	}

	still, err := s.engine.IndexExists(ctx, s.name)
	if err != nil {
		return domain.NewIndexOperationError(OpDrop, s.name, errors.Join(delErr, err))
	}
	if still {
		if delErr == nil {
			delErr = errors.New("index still present after delete")
		}
		return domain.NewIndexOperationError(OpDrop, s.name, delErr)
	}
	if delErr != nil {
		s.logger.Warn("delete reported an error but the index is gone", zap.Error(delErr))
	}
	return nil
}

// Rebuild drops and re-creates a present index.
// An absent index fails with domain.ErrIndexNotFound and nothing is sent.
func (s *Service) Rebuild(ctx context.Context) (err error) {
	defer s.observe(OpRebuild, &err)

	present, err := s.Exists(ctx)
	if err != nil {
		return err
	}
	if !present {
		return fmt.Errorf("%w: %q", domain.ErrIndexNotFound, s.name)
	}
	if err := s.drop(ctx); err != nil {
		return err
	}
	return s.create(ctx)
}

// Refresh makes written documents visible to search.
func (s *Service) Refresh(ctx context.Context) (err error) {
	defer s.observe(OpRefresh, &err)

	if err := s.engine.RefreshIndex(ctx, s.name); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("%w: %q", domain.ErrIndexNotFound, s.name)
		}
		return domain.NewIndexOperationError(OpRefresh, s.name, err)
	}
	return nil
}

// Message renders the log line for a successful lifecycle operation.
func Message(op, name string) string {
	switch op {
	case OpCreate:
		return fmt.Sprintf("created index %q", name)
	case OpDrop:
		return fmt.Sprintf("dropped index %q", name)
	case OpRebuild:
		return fmt.Sprintf("rebuilt index %q", name)
	case OpRefresh:
		return fmt.Sprintf("refreshed index %q", name)
	default:
		return fmt.Sprintf("%s index %q", op, name)
	}
}

func (s *Service) observe(op string, errp *error) {
	err := *errp
	metrics.IndexOperationsTotal.WithLabelValues(op, metrics.Status(err)).Inc()
	if err != nil {
		s.logger.Error("index operation failed", zap.String("op", op), zap.String("index", s.name), zap.Error(err))
		return
	}
	s.logger.Info(Message(op, s.name), zap.String("op", op), zap.String("index", s.name))
}
