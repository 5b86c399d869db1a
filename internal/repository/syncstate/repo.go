// Package syncstate persists the report of the most recent sync run.
package syncstate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/searchsync/internal/domain"
	"github.com/kailas-cloud/searchsync/internal/domain/syncrun"
)

// store is the consumer interface for sync reports (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// Repo keeps the last report in a single hash.
type Repo struct {
	store store
	key   string
}

// New creates a report repository writing to {prefix}sync:last.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, key: prefix + "sync:last"}
}

// Save overwrites the stored report with rep.
func (r *Repo) Save(ctx context.Context, rep syncrun.Report) error {
	counts, err := json.Marshal(rep.Counts)
	if err != nil {
		return fmt.Errorf("marshal counts: %w", err)
	}
	fields := map[string]string{
		"run_id":      rep.RunID,
		"op":          string(rep.Op),
		"index":       rep.Index,
		"types":       strings.Join(rep.Types, ","),
		"counts":      string(counts),
		"status":      string(rep.Status),
		"error":       rep.Error,
		"started_at":  formatTime(rep.StartedAt),
		"finished_at": formatTime(rep.FinishedAt),
	}
	if err := r.store.HSet(ctx, r.key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", r.key, err)
	}
	return nil
}

// Last returns the stored report, or domain.ErrNotFound if no run was saved.
func (r *Repo) Last(ctx context.Context) (syncrun.Report, error) {
	m, err := r.store.HGetAll(ctx, r.key)
	if err != nil {
		return syncrun.Report{}, fmt.Errorf("hgetall %s: %w", r.key, err)
	}
	if len(m) == 0 {
		return syncrun.Report{}, fmt.Errorf("last sync report: %w", domain.ErrNotFound)
	}

	rep := syncrun.Report{
		RunID:  m["run_id"],
		Op:     syncrun.Op(m["op"]),
		Index:  m["index"],
		Status: syncrun.Status(m["status"]),
		Error:  m["error"],
	}
	if t := m["types"]; t != "" {
		rep.Types = strings.Split(t, ",")
	}
	if c := m["counts"]; c != "" && c != "null" {
		if err := json.Unmarshal([]byte(c), &rep.Counts); err != nil {
			return syncrun.Report{}, fmt.Errorf("decode counts: %w", err)
		}
	}
	if rep.StartedAt, err = parseTime(m["started_at"]); err != nil {
		return syncrun.Report{}, err
	}
	if rep.FinishedAt, err = parseTime(m["finished_at"]); err != nil {
		return syncrun.Report{}, err
	}
	return rep, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
