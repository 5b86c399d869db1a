package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchsync/internal/domain/syncrun"
	chiTransport "github.com/kailas-cloud/searchsync/internal/transport/chi"
	indexuc "github.com/kailas-cloud/searchsync/internal/usecase/index"
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"serve":   serve,
	"exists":  exists,
	"create":  lifecycle(indexuc.OpCreate, func(a *app) func(context.Context) error { return a.index.Create }),
	"drop":    lifecycle(indexuc.OpDrop, func(a *app) func(context.Context) error { return a.index.Drop }),
	"rebuild": lifecycle(indexuc.OpRebuild, func(a *app) func(context.Context) error { return a.index.Rebuild }),
	"refresh": refresh,
	"index":   runSync(func(a *app) syncFunc { return a.sync.IndexData }),
	"reindex": runSync(func(a *app) syncFunc { return a.sync.ReindexData }),
	"last":    last,
}

type syncFunc func(ctx context.Context, types ...string) (syncrun.Report, error)

func serve(_ context.Context, a *app, _ []string) error {
	server := chiTransport.NewServer(a.index, a.sync, a.reports, a.locker, a.health, a.logger)
	r := chiTransport.NewRouter(server, a.cfg.Auth.APIKeys, a.logger)

	addr := fmt.Sprintf(":%d", a.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
		a.logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Error during shutdown", zap.Error(err))
	}

	a.logger.Info("Server stopped gracefully")
	return nil
}

func exists(ctx context.Context, a *app, _ []string) error {
	ok, err := a.index.Exists(ctx)
	if err != nil {
		return err
	}
	state := "is absent"
	if ok {
		state = "exists"
	}
	a.logger.Info(fmt.Sprintf("index %q %s", a.index.Name(), state))
	return nil
}

func lifecycle(op string, pick func(a *app) func(context.Context) error) command {
	return func(ctx context.Context, a *app, _ []string) error {
		if err := a.withLock(ctx, pick(a)); err != nil {
			return err
		}
		a.logger.Info(indexuc.Message(op, a.index.Name()))
		return nil
	}
}

func refresh(ctx context.Context, a *app, _ []string) error {
	if err := a.index.Refresh(ctx); err != nil {
		return err
	}
	a.logger.Info(indexuc.Message(indexuc.OpRefresh, a.index.Name()))
	return nil
}

func runSync(pick func(a *app) syncFunc) command {
	return func(ctx context.Context, a *app, types []string) error {
		var rep syncrun.Report
		err := a.withLock(ctx, func(ctx context.Context) error {
			var runErr error
			rep, runErr = pick(a)(ctx, types...)
			return runErr
		})
		if err != nil {
			return err
		}
		a.logger.Info(rep.Message(), zap.String("run_id", rep.RunID), zap.Duration("duration", rep.Duration()))
		return nil
	}
}

func last(ctx context.Context, a *app, _ []string) error {
	rep, err := a.reports.Last(ctx)
	if err != nil {
		return err
	}
	a.logger.Info(rep.Message(),
		zap.String("run_id", rep.RunID),
		zap.Time("finished_at", rep.FinishedAt),
		zap.String("status", string(rep.Status)),
	)
	return nil
}

// withLock holds the index lock around fn, same as the admin API does.
func (a *app) withLock(ctx context.Context, fn func(context.Context) error) error {
	release, err := a.locker.Acquire(ctx, a.index.Name())
	if err != nil {
		return err
	}
	defer func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			a.logger.Warn("failed to release index lock", zap.Error(rerr))
		}
	}()
	return fn(ctx)
}
