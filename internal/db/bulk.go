package db

import "github.com/goccy/go-json"

// BulkResponse is the decoded reply to a bulk write.
type BulkResponse struct {
	Took   int             `json:"took"`
	Errors bool            `json:"errors"`
	Error  json.RawMessage `json:"error,omitempty"`
	Items  []BulkItem      `json:"-"`

	// Status is the HTTP status of the reply; 0 when unknown.
	Status int `json:"-"`
	// Raw is the body exactly as the engine returned it.
	Raw []byte `json:"-"`
	// Parsed is false when the body was not a JSON object.
	Parsed bool `json:"-"`
}

// BulkItem is the per-action outcome.
type BulkItem struct {
	Action string          `json:"-"`
	ID     string          `json:"_id"`
	Index  string          `json:"_index"`
	Type   string          `json:"_type"`
	Status int             `json:"status"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// Failed reports whether the item was rejected.
func (i BulkItem) Failed() bool {
	return hasValue(i.Error) || i.Status >= 300
}

// FailedItems returns the rejected items in response order.
func (r *BulkResponse) FailedItems() []BulkItem {
	var out []BulkItem
	for _, it := range r.Items {
		if it.Failed() {
			out = append(out, it)
		}
	}
	return out
}

// Failed reports whether the batch as a whole must be treated as failed.
// Unparsed bodies fall back to looking for an error marker in the raw text.
func (r *BulkResponse) Failed() bool {
	if r.Status >= 300 {
		return true
	}
	if !r.Parsed {
		return ContainsErrorMarker(r.Raw)
	}
	return r.Errors || hasValue(r.Error) || len(r.FailedItems()) > 0
}

// ParseBulkResponse decodes a bulk reply. A body that is not a JSON object
// is kept raw with Parsed set to false.
func ParseBulkResponse(status int, body []byte) *BulkResponse {
	resp := &BulkResponse{Status: status, Raw: body}

	var envelope struct {
		Took   int                          `json:"took"`
		Errors bool                         `json:"errors"`
		Error  json.RawMessage              `json:"error"`
		Items  []map[string]json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return resp
	}

	resp.Parsed = true
	resp.Took = envelope.Took
	resp.Errors = envelope.Errors
	resp.Error = envelope.Error
	for _, wrapped := range envelope.Items {
		for action, raw := range wrapped {
			var it BulkItem
			if err := json.Unmarshal(raw, &it); err != nil {
				it = BulkItem{Error: raw}
			}
			it.Action = action
			resp.Items = append(resp.Items, it)
		}
	}
	return resp
}

// ContainsErrorMarker reports whether a search engine reply signals an error:
// a top-level "error" value, "errors": true, or, for non-JSON bodies,
// the word "error" anywhere in the text.
func ContainsErrorMarker(body []byte) bool {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return containsFold(body, "error")
	}
	if hasValue(top["error"]) {
		return true
	}
	if raw, ok := top["errors"]; ok && string(raw) == "true" {
		return true
	}
	return false
}

func hasValue(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null" && string(raw) != "false"
}

func containsFold(b []byte, sub string) bool {
	n := len(sub)
	for i := 0; i+n <= len(b); i++ {
		match := true
		for j := 0; j < n; j++ {
			c := b[i+j]
			if c >= 'A' && c <= 'Z' {
				c += 'a' - 'A'
			}
			if c != sub[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
