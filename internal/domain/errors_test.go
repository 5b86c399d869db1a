package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestIndexOperationError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewIndexOperationError("drop", "blog", cause)

	if !errors.Is(err, ErrIndexOperation) || !errors.Is(err, cause) {
		t.Fatalf("expected both sentinel and cause, got %v", err)
	}
	var ioe *IndexOperationError
	if !errors.As(err, &ioe) || ioe.Op != "drop" || ioe.Index != "blog" {
		t.Errorf("unexpected detail: %#v", ioe)
	}
	if !strings.Contains(err.Error(), `drop "blog"`) {
		t.Errorf("unexpected message: %s", err)
	}

	if !errors.Is(NewIndexOperationError("create", "blog", nil), ErrIndexOperation) {
		t.Error("nil cause must still match the sentinel")
	}
}

func TestFieldResolutionError(t *testing.T) {
	err := NewFieldResolutionError("Article", "body", nil)
	if !errors.Is(err, ErrFieldResolution) {
		t.Fatal("expected ErrFieldResolution")
	}
	if !strings.Contains(err.Error(), "Article.body") {
		t.Errorf("unexpected message: %s", err)
	}

	cause := errors.New("bad path")
	err = NewFieldResolutionError("Article", "slug", cause)
	if !errors.Is(err, cause) {
		t.Error("expected accessor cause in chain")
	}
}

func TestSyncFailedError(t *testing.T) {
	err := &SyncFailedError{Stage: "bulk", Response: `{"errors":true}`, FailedIDs: []string{"1", "2"}}
	if !errors.Is(err, ErrSyncFailed) {
		t.Fatal("expected ErrSyncFailed")
	}
	if !strings.Contains(err.Error(), "2 item(s) rejected") {
		t.Errorf("unexpected message: %s", err)
	}

	cause := errors.New("timeout")
	wrapped := NewSyncFailed("fetch Article", cause)
	if !errors.Is(wrapped, cause) || !errors.Is(wrapped, ErrSyncFailed) {
		t.Errorf("unexpected chain: %v", wrapped)
	}
}
