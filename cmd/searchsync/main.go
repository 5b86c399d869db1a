package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchsync/internal/config"
	"github.com/kailas-cloud/searchsync/internal/db/elastic"
	dbRedis "github.com/kailas-cloud/searchsync/internal/db/redis"
	logpkg "github.com/kailas-cloud/searchsync/internal/logger"
	"github.com/kailas-cloud/searchsync/internal/metrics"
	"github.com/kailas-cloud/searchsync/internal/registry"
	recordrepo "github.com/kailas-cloud/searchsync/internal/repository/record"
	"github.com/kailas-cloud/searchsync/internal/repository/synclock"
	"github.com/kailas-cloud/searchsync/internal/repository/syncstate"
	healthuc "github.com/kailas-cloud/searchsync/internal/usecase/health"
	indexuc "github.com/kailas-cloud/searchsync/internal/usecase/index"
	syncuc "github.com/kailas-cloud/searchsync/internal/usecase/sync"
	"github.com/kailas-cloud/searchsync/internal/version"
)

const usage = "usage: searchsync [serve|exists|create|drop|rebuild|refresh|index|reindex|last|version] [types...]"

// app is the wired object graph shared by every command.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	store   *dbRedis.Store
	index   *indexuc.Service
	sync    *syncuc.Service
	reports *syncstate.Repo
	locker  *synclock.Locker
	health  *healthuc.Service
}

func main() {
	cmd, args := "serve", []string(nil)
	if len(os.Args) > 1 {
		cmd, args = os.Args[1], os.Args[2:]
	}
	if cmd == "version" {
		fmt.Println(version.String())
		return
	}
	if _, ok := commands[cmd]; !ok {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting "+version.String(),
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("command", cmd),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("search_url", cfg.Search.BaseURL),
		zap.String("index", cfg.Search.Index),
	)

	a, err := build(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer a.store.Close()

	if err := commands[cmd](context.Background(), a, args); err != nil {
		logger.Error("Command failed", zap.String("command", cmd), zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// build is the composition root.
func build(cfg config.Config, logger *zap.Logger) (*app, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create record store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("record store not ready: %w", err)
	}
	logger.Info("Connected to record store")

	// Register metrics explicitly (no init())
	metrics.RegisterSyncMetrics()
	metrics.RegisterHTTPMetrics()

	br := cfg.Search.Breaker
	engine, err := elastic.NewClient(elastic.Config{
		BaseURL:  cfg.Search.BaseURL,
		Username: cfg.Search.Username,
		Password: cfg.Search.Password,
		Timeout:  time.Duration(cfg.Search.TimeoutSec) * time.Second,
		Breaker: elastic.BreakerConfig{
			Name:         "search-" + cfg.Search.Index,
			MaxRequests:  br.MaxRequests,
			Interval:     time.Duration(br.IntervalSec) * time.Second,
			Timeout:      time.Duration(br.TimeoutSec) * time.Second,
			MinRequests:  br.MinRequests,
			FailureRatio: br.FailureRatio,
		},
		Logger: logger,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create search client: %w", err)
	}

	types := registry.New()
	for _, tc := range cfg.Types {
		t, err := tc.Model()
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("type %s: %w", tc.Name, err)
		}
		if err := types.Register(t); err != nil {
			store.Close()
			return nil, err
		}
	}
	logger.Info("Types registered", zap.Strings("types", types.Names()))

	prefix := cfg.Storage.KeyPrefix
	records := recordrepo.New(store, prefix)
	reports := syncstate.New(store, prefix)
	locker := synclock.New(store, prefix, time.Duration(cfg.Sync.LockTTLSec)*time.Second).WithLogger(logger)

	indexSvc := indexuc.New(engine, types, cfg.Search.Index, logger).
		WithSettings(cfg.Search.Shards, cfg.Search.ReplicaCount())
	syncSvc := syncuc.New(indexSvc, records, engine, types, logger).
		WithReports(reports)

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		index:   indexSvc,
		sync:    syncSvc,
		reports: reports,
		locker:  locker,
		health:  healthuc.New(store, engine),
	}, nil
}
