// Package chi serves the admin HTTP API over the index and sync services.
package chi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchsync/internal/domain"
	"github.com/kailas-cloud/searchsync/internal/domain/syncrun"
	logpkg "github.com/kailas-cloud/searchsync/internal/logger"
	"github.com/kailas-cloud/searchsync/internal/metrics"
	healthuc "github.com/kailas-cloud/searchsync/internal/usecase/health"
	indexuc "github.com/kailas-cloud/searchsync/internal/usecase/index"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements the admin API handlers.
type Server struct {
	index         IndexService
	sync          SyncService
	reports       ReportReader
	locker        Locker
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the admin API server. reports and locker may be nil.
func NewServer(
	index IndexService,
	sync SyncService,
	reports ReportReader,
	locker Locker,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		index:   index,
		sync:    sync,
		reports: reports,
		locker:  locker,
		health:  health,
		logger:  logpkg.OrNop(logger),
	}
	s.errorHandlers = []errorHandler{
		syncFailedHandler,
		sentinelHandler(domain.ErrSyncInProgress, http.StatusConflict, CodeSyncInProgress),
		sentinelHandler(domain.ErrIndexConflict, http.StatusConflict, CodeIndexConflict),
		sentinelHandler(domain.ErrIndexNotFound, http.StatusNotFound, CodeIndexNotFound),
		sentinelHandler(domain.ErrUnknownType, http.StatusBadRequest, CodeUnknownType),
		sentinelHandler(domain.ErrInvalidSchema, http.StatusBadRequest, CodeValidation),
		sentinelHandler(domain.ErrFieldResolution, http.StatusUnprocessableEntity, CodeFieldResolution),
		sentinelHandler(domain.ErrIndexOperation, http.StatusBadGateway, CodeIndexOperation),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
	}
	return s
}

// Routes mounts the admin API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/index", func(r chi.Router) {
		r.Get("/", s.IndexExists)
		r.Put("/", s.CreateIndex)
		r.Delete("/", s.DropIndex)
		r.Post("/rebuild", s.RebuildIndex)
		r.Post("/refresh", s.RefreshIndex)
	})

	r.Post("/sync", s.IndexData)
	r.Post("/resync", s.ReindexData)
	r.Get("/sync/last", s.LastSync)
}

// NewRouter builds the full admin router with the middleware chain.
func NewRouter(s *Server, apiKeys []string, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	s.Routes(r)
	return r
}

// IndexExists handles GET /index.
func (s *Server) IndexExists(w http.ResponseWriter, r *http.Request) {
	ok, err := s.index.Exists(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	state := "is absent"
	if ok {
		state = "exists"
	}
	msg := fmt.Sprintf("index %q %s", s.index.Name(), state)
	s.logLine(r, msg)
	writeJSON(w, http.StatusOK, Response{Status: statusOK, Message: msg, Index: s.index.Name(), Exists: &ok})
}

// CreateIndex handles PUT /index.
func (s *Server) CreateIndex(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, indexuc.OpCreate, http.StatusCreated, s.index.Create)
}

// DropIndex handles DELETE /index.
func (s *Server) DropIndex(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, indexuc.OpDrop, http.StatusOK, s.index.Drop)
}

// RebuildIndex handles POST /index/rebuild.
func (s *Server) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, indexuc.OpRebuild, http.StatusOK, s.index.Rebuild)
}

// RefreshIndex handles POST /index/refresh.
func (s *Server) RefreshIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.index.Refresh(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	msg := indexuc.Message(indexuc.OpRefresh, s.index.Name())
	s.logLine(r, msg)
	writeJSON(w, http.StatusOK, Response{Status: statusOK, Message: msg, Index: s.index.Name()})
}

func (s *Server) lifecycle(
	w http.ResponseWriter, r *http.Request, op string, status int, fn func(context.Context) error,
) {
	if err := s.locked(r.Context(), fn); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	msg := indexuc.Message(op, s.index.Name())
	s.logLine(r, msg)
	writeJSON(w, status, Response{Status: statusOK, Message: msg, Index: s.index.Name()})
}

// IndexData handles POST /sync?types=A&types=B.
func (s *Server) IndexData(w http.ResponseWriter, r *http.Request) {
	s.runSync(w, r, s.sync.IndexData)
}

// ReindexData handles POST /resync?types=A&types=B.
func (s *Server) ReindexData(w http.ResponseWriter, r *http.Request) {
	s.runSync(w, r, s.sync.ReindexData)
}

func (s *Server) runSync(
	w http.ResponseWriter, r *http.Request,
	fn func(context.Context, ...string) (syncrun.Report, error),
) {
	types, err := bindTypes(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid types parameter")
		return
	}

	var rep syncrun.Report
	err = s.locked(r.Context(), func(ctx context.Context) error {
		var runErr error
		rep, runErr = fn(ctx, types...)
		return runErr
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{
		Status:  statusOK,
		Message: rep.Message(),
		Index:   rep.Index,
		Report:  reportBody(rep),
	})
}

// LastSync handles GET /sync/last.
func (s *Server) LastSync(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "sync reports are disabled")
		return
	}
	rep, err := s.reports.Last(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{
		Status:  statusOK,
		Message: rep.Message(),
		Index:   rep.Index,
		Report:  reportBody(rep),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// locked runs fn under the index lock when a locker is configured.
func (s *Server) locked(ctx context.Context, fn func(context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	release, err := s.locker.Acquire(ctx, s.index.Name())
	if err != nil {
		return err
	}
	defer func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			s.logger.Warn("failed to release index lock", zap.Error(rerr))
		}
	}()
	return fn(ctx)
}

// bindTypes reads the repeated "types" query parameter. "A,B" is accepted too.
func bindTypes(r *http.Request) ([]string, error) {
	var raw []string
	if err := runtime.BindQueryParameter("form", true, false, "types", r.URL.Query(), &raw); err != nil {
		return nil, fmt.Errorf("bind types: %w", err)
	}
	var out []string
	for _, v := range raw {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	return out, nil
}

func (s *Server) logLine(r *http.Request, msg string) {
	logpkg.FromContext(r.Context()).Info(msg, zap.String("index", s.index.Name()))
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// syncFailedHandler reports rejected item ids along with the failure.
func syncFailedHandler(w http.ResponseWriter, err error, msg string) bool {
	var sfe *domain.SyncFailedError
	if !errors.As(err, &sfe) {
		return false
	}
	writeJSON(w, http.StatusBadGateway, ErrorResponse{
		Status:    statusError,
		Code:      CodeSyncFailed,
		Message:   msg,
		FailedIDs: sfe.FailedIDs,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
}
