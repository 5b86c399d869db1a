package searchsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/searchsync/internal/db/elastic"
	dbRedis "github.com/kailas-cloud/searchsync/internal/db/redis"
	"github.com/kailas-cloud/searchsync/internal/domain/model"
	"github.com/kailas-cloud/searchsync/internal/domain/record"
	"github.com/kailas-cloud/searchsync/internal/domain/syncrun"
	"github.com/kailas-cloud/searchsync/internal/registry"
	recordrepo "github.com/kailas-cloud/searchsync/internal/repository/record"
	"github.com/kailas-cloud/searchsync/internal/repository/syncstate"
	indexuc "github.com/kailas-cloud/searchsync/internal/usecase/index"
	syncuc "github.com/kailas-cloud/searchsync/internal/usecase/sync"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultTimeout          = 30 * time.Second
	defaultKeyPrefix        = "searchsync:"
)

// Внутренние интерфейсы для подмены в тестах.
type indexUseCase interface {
	Name() string
	Exists(ctx context.Context) (bool, error)
	Create(ctx context.Context) error
	Drop(ctx context.Context) error
	Rebuild(ctx context.Context) error
	Refresh(ctx context.Context) error
}

type syncUseCase interface {
	IndexData(ctx context.Context, types ...string) (syncrun.Report, error)
	ReindexData(ctx context.Context, types ...string) (syncrun.Report, error)
}

type typeRegistry interface {
	Register(t model.Type) error
}

type recordWriter interface {
	Put(ctx context.Context, collection string, rec record.Record) error
}

type reportReader interface {
	Last(ctx context.Context) (syncrun.Report, error)
}

// Client is the searchsync SDK entry point.
type Client struct {
	store   *dbRedis.Store
	index   indexUseCase
	sync    syncUseCase
	types   typeRegistry
	records recordWriter
	reports reportReader
	obs     *observer
}

// New creates a Client for the named index and connects to the record store.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, index string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		timeout:   defaultTimeout,
		keyPrefix: defaultKeyPrefix,
		replicas:  -1,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if index == "" {
		return nil, errors.New("searchsync: index name required")
	}
	if len(cfg.addrs) == 0 {
		return nil, errors.New("searchsync: record store address required (use WithRedis)")
	}
	if cfg.baseURL == "" {
		return nil, errors.New("searchsync: search engine URL required (use WithElasticsearch)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	engine, err := elastic.NewClient(elastic.Config{
		BaseURL:  cfg.baseURL,
		Username: cfg.searchUser,
		Password: cfg.searchPassword,
		Timeout:  cfg.timeout,
		Breaker:  elastic.BreakerConfig{Name: "searchsync-" + index},
		Logger:   cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("searchsync: create search client: %w", err)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.db,
	})
	if err != nil {
		return nil, fmt.Errorf("searchsync: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("searchsync: record store not ready: %w", err)
	}

	types := registry.New()
	records := recordrepo.New(store, cfg.keyPrefix)
	reports := syncstate.New(store, cfg.keyPrefix)
	indexSvc := indexuc.New(engine, types, index, cfg.logger).WithSettings(cfg.shards, cfg.replicas)
	syncSvc := syncuc.New(indexSvc, records, engine, types, cfg.logger).WithReports(reports)

	return &Client{
		store:   store,
		index:   indexSvc,
		sync:    syncSvc,
		types:   types,
		records: records,
		reports: reports,
		obs:     obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Register adds record type declarations. Registering a name again replaces it.
func (c *Client) Register(types ...Type) error {
	for _, t := range types {
		if err := c.types.Register(t); err != nil {
			return fmt.Errorf("searchsync: %w", err)
		}
	}
	return nil
}

// Put stores a record in collection. Intended for seeding and tests.
func (c *Client) Put(ctx context.Context, collection string, rec Record) error {
	if err := c.records.Put(ctx, collection, rec); err != nil {
		return fmt.Errorf("searchsync: put %s/%s: %w", collection, rec.ID, err)
	}
	return nil
}

// IndexExists reports whether the index is present.
func (c *Client) IndexExists(ctx context.Context) (ok bool, err error) {
	start := time.Now()
	ok, err = c.index.Exists(ctx)
	state := "is absent"
	if ok {
		state = "exists"
	}
	c.obs.observe(indexuc.OpExists, start, fmt.Sprintf("index %q %s", c.index.Name(), state), err)
	return ok, err
}

// CreateIndex creates the index with the mappings of every registered type.
func (c *Client) CreateIndex(ctx context.Context) (Result, error) {
	return c.lifecycle(ctx, indexuc.OpCreate, c.index.Create)
}

// DropIndex deletes the index. Dropping an absent index is a no-op.
func (c *Client) DropIndex(ctx context.Context) (Result, error) {
	return c.lifecycle(ctx, indexuc.OpDrop, c.index.Drop)
}

// RebuildIndex drops and recreates an existing index.
func (c *Client) RebuildIndex(ctx context.Context) (Result, error) {
	return c.lifecycle(ctx, indexuc.OpRebuild, c.index.Rebuild)
}

// RefreshIndex makes recent writes visible to search.
func (c *Client) RefreshIndex(ctx context.Context) (Result, error) {
	return c.lifecycle(ctx, indexuc.OpRefresh, c.index.Refresh)
}

// IndexData creates the index and fills it with the given types, or with
// every registered type when none are named.
func (c *Client) IndexData(ctx context.Context, types ...string) (Result, error) {
	return c.run(ctx, "index_data", c.sync.IndexData, types)
}

// ReindexData drops the index and runs IndexData.
func (c *Client) ReindexData(ctx context.Context, types ...string) (Result, error) {
	return c.run(ctx, "reindex_data", c.sync.ReindexData, types)
}

// LastSync returns the outcome of the most recent sync run.
func (c *Client) LastSync(ctx context.Context) (Result, error) {
	rep, err := c.reports.Last(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("last sync: %w", err)
	}
	return resultOf(rep), nil
}

func (c *Client) lifecycle(ctx context.Context, op string, fn func(context.Context) error) (Result, error) {
	start := time.Now()
	msg := indexuc.Message(op, c.index.Name())
	err := fn(ctx)
	c.obs.observe(op, start, msg, err)
	if err != nil {
		return Result{}, fmt.Errorf("%s index: %w", op, err)
	}
	return Result{Message: msg}, nil
}

func (c *Client) run(
	ctx context.Context, op string,
	fn func(context.Context, ...string) (syncrun.Report, error), types []string,
) (Result, error) {
	start := time.Now()
	rep, err := fn(ctx, types...)
	c.obs.observe(op, start, rep.Message(), err)
	if err != nil {
		return resultOf(rep), fmt.Errorf("%s: %w", op, err)
	}
	return resultOf(rep), nil
}

func resultOf(rep syncrun.Report) Result {
	return Result{Message: rep.Message(), Counts: rep.Counts, RunID: rep.RunID}
}
