package searchsync

import "github.com/kailas-cloud/searchsync/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrIndexConflict   = domain.ErrIndexConflict
	ErrIndexNotFound   = domain.ErrIndexNotFound
	ErrIndexOperation  = domain.ErrIndexOperation
	ErrFieldResolution = domain.ErrFieldResolution
	ErrSyncFailed      = domain.ErrSyncFailed
	ErrUnknownType     = domain.ErrUnknownType
	ErrInvalidSchema   = domain.ErrInvalidSchema
	ErrNotFound        = domain.ErrNotFound
)

// SyncFailedError carries the engine response and rejected item ids of a failed bulk write.
type SyncFailedError = domain.SyncFailedError
