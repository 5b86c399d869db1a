package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidSchema signals an invalid record type declaration.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrUnknownType signals a record type that was never registered.
	ErrUnknownType = errors.New("unknown record type")

	// ErrIndexConflict signals a create attempted on a present index.
	ErrIndexConflict = errors.New("index already exists")
	// ErrIndexNotFound signals an operation that requires a present index.
	ErrIndexNotFound = errors.New("index not found")
	// ErrIndexOperation signals a lifecycle call that missed its post-condition.
	ErrIndexOperation = errors.New("index operation failed")
	// ErrFieldResolution signals a declared field with neither attribute nor accessor.
	ErrFieldResolution = errors.New("field resolution failed")
	// ErrSyncFailed signals a failed fetch or bulk write.
	ErrSyncFailed = errors.New("sync failed")
	// ErrSyncInProgress signals that another sync holds the index lock.
	ErrSyncInProgress = errors.New("sync already in progress")
)

// IndexOperationError reports a drop/create/refresh that did not reach the expected state.
type IndexOperationError struct {
	Op    string
	Index string
	Err   error
}

func (e *IndexOperationError) Error() string {
	msg := fmt.Sprintf("%s: %s %q", ErrIndexOperation.Error(), e.Op, e.Index)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *IndexOperationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrIndexOperation}
	}
	return []error{ErrIndexOperation, e.Err}
}

// NewIndexOperationError creates an index operation error.
func NewIndexOperationError(op, index string, err error) error {
	return &IndexOperationError{Op: op, Index: index, Err: err}
}

// FieldResolutionError reports the field that could not be resolved for a type.
type FieldResolutionError struct {
	Type  string
	Field string
	Err   error // accessor failure, nil when the field is simply missing
}

func (e *FieldResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s.%s: %v", ErrFieldResolution.Error(), e.Type, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %s.%s has neither attribute nor accessor", ErrFieldResolution.Error(), e.Type, e.Field)
}

func (e *FieldResolutionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFieldResolution}
	}
	return []error{ErrFieldResolution, e.Err}
}

// NewFieldResolutionError creates a field resolution error.
func NewFieldResolutionError(typeName, field string, cause error) error {
	return &FieldResolutionError{Type: typeName, Field: field, Err: cause}
}

// SyncFailedError wraps a fetch, hydrate or bulk write failure.
// Response holds the raw search engine body when the failure came from there.
type SyncFailedError struct {
	Stage     string
	Response  string
	FailedIDs []string
	Err       error
}

func (e *SyncFailedError) Error() string {
	var b strings.Builder
	b.WriteString(ErrSyncFailed.Error())
	b.WriteString(": ")
	b.WriteString(e.Stage)
	if len(e.FailedIDs) > 0 {
		fmt.Fprintf(&b, ": %d item(s) rejected", len(e.FailedIDs))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *SyncFailedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSyncFailed}
	}
	return []error{ErrSyncFailed, e.Err}
}

// NewSyncFailed wraps a collaborator error raised during the given stage.
func NewSyncFailed(stage string, err error) error {
	return &SyncFailedError{Stage: stage, Err: err}
}
