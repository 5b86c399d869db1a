package elastic

import (
	"context"
	"net/http"

	"github.com/kailas-cloud/searchsync/internal/db"
)

// Bulk submits a newline-delimited payload. The reply is returned parsed;
// deciding whether it failed is left to the caller.
func (c *Client) Bulk(ctx context.Context, payload []byte) (*db.BulkResponse, error) {
	resp, err := c.do(ctx, db.OpBulk, http.MethodPost, "/_bulk", payload, "application/x-ndjson")
	if err != nil {
		return nil, err
	}
	return db.ParseBulkResponse(resp.status, resp.body), nil
}
