package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatus(t *testing.T) {
	if Status(nil) != "ok" {
		t.Error("nil error must be ok")
	}
	if Status(errors.New("x")) != "error" {
		t.Error("non-nil error must be error")
	}
}

func TestRegisterSyncMetrics_Idempotent(t *testing.T) {
	RegisterSyncMetrics()
	RegisterSyncMetrics()

	SyncRunsTotal.WithLabelValues("index", "ok").Inc()
	if v := testutil.ToFloat64(SyncRunsTotal.WithLabelValues("index", "ok")); v < 1 {
		t.Errorf("expected sync_runs_total >= 1, got %f", v)
	}
}
