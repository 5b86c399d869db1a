// Package syncrun describes the outcome of one indexing pass.
package syncrun

import (
	"fmt"
	"strings"
	"time"
)

// Status of a sync run.
type Status string

const (
	// StatusSucceeded marks a run whose bulk write and refresh went through.
	StatusSucceeded Status = "succeeded"
	// StatusFailed marks a run that stopped on an error.
	StatusFailed Status = "failed"
)

// Op names the exposed operation that produced the run.
type Op string

const (
	// OpIndex is an indexing pass into a new index.
	OpIndex Op = "index"
	// OpReindex is a drop followed by an indexing pass.
	OpReindex Op = "reindex"
)

// Report summarizes one indexing pass.
type Report struct {
	RunID      string
	Op         Op
	Index      string
	Types      []string
	Counts     map[string]int
	Status     Status
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Total returns the number of documents across all types.
func (r Report) Total() int {
	n := 0
	for _, c := range r.Counts {
		n += c
	}
	return n
}

// Duration returns how long the run took.
func (r Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Message renders the human-readable log line for the run.
func (r Report) Message() string {
	if r.Status == StatusFailed {
		return fmt.Sprintf("%s of %q failed: %s", r.Op, r.Index, r.Error)
	}
	parts := make([]string, 0, len(r.Types))
	for _, t := range r.Types {
		parts = append(parts, fmt.Sprintf("%s: %d", t, r.Counts[t]))
	}
	return fmt.Sprintf("indexed %d document(s) into %q (%s)", r.Total(), r.Index, strings.Join(parts, ", "))
}
