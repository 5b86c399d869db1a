package chi

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/searchsync/internal/domain"
	"github.com/kailas-cloud/searchsync/internal/domain/syncrun"
)

// ErrorCode is the machine-readable error kind in error responses.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest      ErrorCode = "bad_request"
	CodeUnauthorized    ErrorCode = "unauthorized"
	CodeValidation      ErrorCode = "validation_failed"
	CodeUnknownType     ErrorCode = "unknown_type"
	CodeNotFound        ErrorCode = "not_found"
	CodeIndexConflict   ErrorCode = "index_conflict"
	CodeIndexNotFound   ErrorCode = "index_not_found"
	CodeIndexOperation  ErrorCode = "index_operation_failed"
	CodeFieldResolution ErrorCode = "field_resolution_failed"
	CodeSyncFailed      ErrorCode = "sync_failed"
	CodeSyncInProgress  ErrorCode = "sync_in_progress"
	CodeInternal        ErrorCode = "internal_error"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

// Response is the body of every successful admin call.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Index   string      `json:"index,omitempty"`
	Exists  *bool       `json:"exists,omitempty"`
	Report  *ReportBody `json:"report,omitempty"`
}

// ErrorResponse is the body of every failed admin call.
type ErrorResponse struct {
	Status    string    `json:"status"`
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	FailedIDs []string  `json:"failed_ids,omitempty"`
}

// ReportBody renders a sync report.
type ReportBody struct {
	RunID      string         `json:"run_id"`
	Op         string         `json:"op"`
	Index      string         `json:"index"`
	Types      []string       `json:"types"`
	Counts     map[string]int `json:"counts"`
	Total      int            `json:"total"`
	Status     string         `json:"status"`
	Error      string         `json:"error,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	DurationMS int64          `json:"duration_ms"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func reportBody(r syncrun.Report) *ReportBody {
	return &ReportBody{
		RunID:      r.RunID,
		Op:         string(r.Op),
		Index:      r.Index,
		Types:      r.Types,
		Counts:     r.Counts,
		Total:      r.Total(),
		Status:     string(r.Status),
		Error:      r.Error,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		DurationMS: r.Duration().Milliseconds(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Status: statusError, Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrIndexConflict,
		domain.ErrIndexNotFound,
		domain.ErrUnknownType,
		domain.ErrInvalidSchema,
		domain.ErrSyncInProgress,
		domain.ErrFieldResolution,
		domain.ErrIndexOperation,
		domain.ErrSyncFailed,
		domain.ErrNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}
