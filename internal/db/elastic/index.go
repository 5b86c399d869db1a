package elastic

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/searchsync/internal/db"
)

// IndexExists probes the index status endpoint. A 404 or an error marker
// in the body means the index is absent.
func (c *Client) IndexExists(ctx context.Context, name string) (bool, error) {
	resp, err := c.do(ctx, db.OpIndexStatus, http.MethodGet, indexPath(name, "/_status"), nil, "")
	if err != nil {
		return false, err
	}
	if resp.status == http.StatusNotFound || db.ContainsErrorMarker(resp.body) {
		return false, nil
	}
	if resp.status >= 300 {
		return false, &db.Error{Op: db.OpIndexStatus, Err: statusError(resp)}
	}
	return true, nil
}

// CreateIndex creates the index with its mappings and optional settings.
func (c *Client) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	payload, err := json.Marshal(def.Body())
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: fmt.Errorf("encode body: %w", err)}
	}

	resp, err := c.do(ctx, db.OpCreateIndex, http.MethodPut, indexPath(def.Name, ""), payload, "application/json")
	if err != nil {
		return err
	}
	if resp.status < 300 && !db.ContainsErrorMarker(resp.body) {
		return nil
	}
	if alreadyExists(resp.body) {
		return db.ErrIndexExists
	}
	return &db.Error{Op: db.OpCreateIndex, Err: statusError(resp)}
}

// DropIndex deletes the index.
func (c *Client) DropIndex(ctx context.Context, name string) error {
	resp, err := c.do(ctx, db.OpDropIndex, http.MethodDelete, indexPath(name, ""), nil, "")
	if err != nil {
		return err
	}
	if resp.status == http.StatusNotFound {
		return db.ErrIndexNotFound
	}
	if resp.status >= 300 || db.ContainsErrorMarker(resp.body) {
		return &db.Error{Op: db.OpDropIndex, Err: statusError(resp)}
	}
	return nil
}

// RefreshIndex makes recent writes visible to search.
func (c *Client) RefreshIndex(ctx context.Context, name string) error {
	resp, err := c.do(ctx, db.OpRefreshIndex, http.MethodPost, indexPath(name, "/_refresh"), nil, "")
	if err != nil {
		return err
	}
	if resp.status == http.StatusNotFound {
		return db.ErrIndexNotFound
	}
	if resp.status >= 300 || db.ContainsErrorMarker(resp.body) {
		return &db.Error{Op: db.OpRefreshIndex, Err: statusError(resp)}
	}
	return nil
}

func alreadyExists(body []byte) bool {
	s := strings.ToLower(string(body))
	return strings.Contains(s, "already_exists") || strings.Contains(s, "alreadyexists") ||
		strings.Contains(s, "already exists")
}
