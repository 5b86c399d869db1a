package chi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/searchsync/internal/domain"
	"github.com/kailas-cloud/searchsync/internal/domain/syncrun"
	healthuc "github.com/kailas-cloud/searchsync/internal/usecase/health"
)

// --- Mocks ---

type mockIndex struct {
	exists bool
	err    error
	calls  []string
}

func (m *mockIndex) Name() string { return "blog" }

func (m *mockIndex) record(op string) error {
	m.calls = append(m.calls, op)
	return m.err
}

func (m *mockIndex) Exists(context.Context) (bool, error) { return m.exists, m.record("exists") }
func (m *mockIndex) Create(context.Context) error         { return m.record("create") }
func (m *mockIndex) Drop(context.Context) error           { return m.record("drop") }
func (m *mockIndex) Rebuild(context.Context) error        { return m.record("rebuild") }
func (m *mockIndex) Refresh(context.Context) error        { return m.record("refresh") }

type mockSync struct {
	rep      syncrun.Report
	err      error
	op       string
	gotTypes []string
}

func (m *mockSync) IndexData(_ context.Context, types ...string) (syncrun.Report, error) {
	m.op, m.gotTypes = "index", types
	return m.rep, m.err
}

func (m *mockSync) ReindexData(_ context.Context, types ...string) (syncrun.Report, error) {
	m.op, m.gotTypes = "reindex", types
	return m.rep, m.err
}

type mockReports struct {
	rep syncrun.Report
	err error
}

func (m *mockReports) Last(context.Context) (syncrun.Report, error) { return m.rep, m.err }

type mockLocker struct {
	held     bool
	acquired int
	released int
}

func (m *mockLocker) Acquire(_ context.Context, name string) (func(context.Context) error, error) {
	if m.held {
		return nil, domain.ErrSyncInProgress
	}
	m.acquired++
	return func(context.Context) error {
		m.released++
		return nil
	}, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type fixture struct {
	index   *mockIndex
	sync    *mockSync
	reports *mockReports
	locker  *mockLocker
	health  *mockHealth
	handler http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		index:   &mockIndex{},
		sync:    &mockSync{},
		reports: &mockReports{},
		locker:  &mockLocker{},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{healthuc.RecordStore: healthuc.CheckOK},
		}},
	}
	srv := NewServer(f.index, f.sync, f.reports, f.locker, f.health, nil)
	f.handler = NewRouter(srv, nil, nil)
	return f
}

func (f *fixture) do(t *testing.T, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, http.NoBody)
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %s %s: %v (%s)", method, target, err, rr.Body.String())
	}
	return rr, body
}

// --- Tests ---

func TestIndexExists(t *testing.T) {
	f := newFixture()
	f.index.exists = true

	rr, body := f.do(t, http.MethodGet, "/index")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d", rr.Code)
	}
	if body["exists"] != true || body["message"] != `index "blog" exists` {
		t.Errorf("unexpected body: %v", body)
	}
	if f.locker.acquired != 0 {
		t.Error("read-only call must not lock")
	}
}

func TestLifecycleRoutes(t *testing.T) {
	tests := []struct {
		method, path string
		wantCall     string
		wantStatus   int
		wantMessage  string
	}{
		{http.MethodPut, "/index", "create", http.StatusCreated, `created index "blog"`},
		{http.MethodDelete, "/index", "drop", http.StatusOK, `dropped index "blog"`},
		{http.MethodPost, "/index/rebuild", "rebuild", http.StatusOK, `rebuilt index "blog"`},
		{http.MethodPost, "/index/refresh", "refresh", http.StatusOK, `refreshed index "blog"`},
	}
	for _, tc := range tests {
		t.Run(tc.wantCall, func(t *testing.T) {
			f := newFixture()
			rr, body := f.do(t, tc.method, tc.path)
			if rr.Code != tc.wantStatus {
				t.Fatalf("got %d, want %d", rr.Code, tc.wantStatus)
			}
			if body["status"] != "ok" || body["message"] != tc.wantMessage {
				t.Errorf("unexpected body: %v", body)
			}
			if len(f.index.calls) != 1 || f.index.calls[0] != tc.wantCall {
				t.Errorf("unexpected calls: %v", f.index.calls)
			}
		})
	}
}

func TestMutationsAreLocked(t *testing.T) {
	f := newFixture()
	f.do(t, http.MethodPut, "/index")
	f.do(t, http.MethodPost, "/sync")
	if f.locker.acquired != 2 || f.locker.released != 2 {
		t.Errorf("expected balanced locking, got %d/%d", f.locker.acquired, f.locker.released)
	}

	f.locker.held = true
	rr, body := f.do(t, http.MethodPost, "/index/rebuild")
	if rr.Code != http.StatusConflict || body["code"] != string(CodeSyncInProgress) {
		t.Errorf("expected sync_in_progress conflict, got %d %v", rr.Code, body)
	}
	if len(f.index.calls) != 1 {
		t.Errorf("rebuild must not run while locked, calls: %v", f.index.calls)
	}
}

func TestDomainErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorCode
	}{
		{"conflict", domain.ErrIndexConflict, http.StatusConflict, CodeIndexConflict},
		{"not found", domain.ErrIndexNotFound, http.StatusNotFound, CodeIndexNotFound},
		{"operation", domain.NewIndexOperationError("drop", "blog", errors.New("x")), http.StatusBadGateway, CodeIndexOperation},
		{"internal", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.index.err = tc.err
			rr, body := f.do(t, http.MethodPut, "/index")
			if rr.Code != tc.wantStatus || body["code"] != string(tc.wantCode) {
				t.Errorf("got %d %v", rr.Code, body)
			}
			if body["status"] != "error" {
				t.Errorf("expected error status, got %v", body["status"])
			}
		})
	}
}

func TestSync_Types(t *testing.T) {
	f := newFixture()
	f.sync.rep = syncrun.Report{
		RunID:  "r1",
		Op:     syncrun.OpIndex,
		Index:  "blog",
		Types:  []string{"Article", "Comment"},
		Counts: map[string]int{"Article": 2, "Comment": 1},
		Status: syncrun.StatusSucceeded,
	}

	rr, body := f.do(t, http.MethodPost, "/sync?types=Article&types=Comment")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %v", rr.Code, body)
	}
	if !reflect.DeepEqual(f.sync.gotTypes, []string{"Article", "Comment"}) {
		t.Errorf("unexpected types: %v", f.sync.gotTypes)
	}
	if body["message"] != `indexed 3 document(s) into "blog" (Article: 2, Comment: 1)` {
		t.Errorf("unexpected message: %v", body["message"])
	}
	report, ok := body["report"].(map[string]any)
	if !ok || report["run_id"] != "r1" || report["total"] != float64(3) {
		t.Errorf("unexpected report: %v", body["report"])
	}

	f.do(t, http.MethodPost, "/resync?types=Article,Comment")
	if f.sync.op != "reindex" || !reflect.DeepEqual(f.sync.gotTypes, []string{"Article", "Comment"}) {
		t.Errorf("unexpected resync call: %s %v", f.sync.op, f.sync.gotTypes)
	}

	f.do(t, http.MethodPost, "/sync")
	if len(f.sync.gotTypes) != 0 {
		t.Errorf("expected all types, got %v", f.sync.gotTypes)
	}
}

func TestSync_Failed(t *testing.T) {
	f := newFixture()
	f.sync.err = &domain.SyncFailedError{Stage: "bulk", FailedIDs: []string{"7"}}

	rr, body := f.do(t, http.MethodPost, "/sync")
	if rr.Code != http.StatusBadGateway || body["code"] != string(CodeSyncFailed) {
		t.Fatalf("got %d %v", rr.Code, body)
	}
	ids, _ := body["failed_ids"].([]any)
	if len(ids) != 1 || ids[0] != "7" {
		t.Errorf("unexpected failed ids: %v", body["failed_ids"])
	}
}

func TestSync_UnknownType(t *testing.T) {
	f := newFixture()
	f.sync.err = domain.ErrUnknownType
	rr, body := f.do(t, http.MethodPost, "/sync?types=Nope")
	if rr.Code != http.StatusBadRequest || body["code"] != string(CodeUnknownType) {
		t.Errorf("got %d %v", rr.Code, body)
	}
}

func TestLastSync(t *testing.T) {
	f := newFixture()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.reports.rep = syncrun.Report{
		Op: syncrun.OpReindex, Index: "blog", Status: syncrun.StatusFailed, Error: "boom",
		StartedAt: start, FinishedAt: start.Add(time.Second),
	}

	rr, body := f.do(t, http.MethodGet, "/sync/last")
	if rr.Code != http.StatusOK || body["message"] != `reindex of "blog" failed: boom` {
		t.Fatalf("got %d %v", rr.Code, body)
	}

	f.reports.err = domain.ErrNotFound
	rr, body = f.do(t, http.MethodGet, "/sync/last")
	if rr.Code != http.StatusNotFound || body["code"] != string(CodeNotFound) {
		t.Errorf("got %d %v", rr.Code, body)
	}
}

func TestHealthCheck(t *testing.T) {
	f := newFixture()
	rr, body := f.do(t, http.MethodGet, "/health")
	if rr.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("got %d %v", rr.Code, body)
	}

	f.health.report.Status = healthuc.Degraded
	rr, _ = f.do(t, http.MethodGet, "/health")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("degraded: got %d", rr.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture()
	rr, body := f.do(t, http.MethodGet, "/collections")
	if rr.Code != http.StatusNotFound || body["code"] != string(CodeNotFound) {
		t.Errorf("got %d %v", rr.Code, body)
	}
}

func TestRouter_RequestIDAndAuth(t *testing.T) {
	f := newFixture()
	srv := NewServer(f.index, f.sync, f.reports, nil, f.health, nil)
	h := NewRouter(srv, []string{"secret"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/index", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/index", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestJSONRecoverer(t *testing.T) {
	h := JSONRecoverer(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("got %d", rr.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body.Code != CodeInternal {
		t.Errorf("unexpected body %s", rr.Body.String())
	}
}
