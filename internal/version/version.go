// Package version holds build metadata injected via ldflags:
//
//	go build -ldflags "-X github.com/kailas-cloud/searchsync/internal/version.Version=v1.2.0"
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build in one line, e.g. "searchsync v1.2.0 (abc123, 2024-05-01)".
func String() string {
	return fmt.Sprintf("searchsync %s (%s, %s)", Version, Commit, Date)
}
