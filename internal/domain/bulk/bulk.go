// Package bulk builds newline-delimited bulk-write payloads.
package bulk

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Action identifies where one document goes. Parent is omitted when empty.
type Action struct {
	Index  string
	Type   string
	ID     string
	Parent string
}

type descriptor struct {
	Index   string `json:"_index"`
	Type    string `json:"_type"`
	ID      string `json:"_id"`
	Parent  string `json:"_parent,omitempty"`
	Refresh bool   `json:"refresh"`
}

type actionLine struct {
	Index descriptor `json:"index"`
}

// Fragment renders one action line and one document line, each newline-terminated.
func Fragment(a Action, doc any) ([]byte, error) {
	head, err := json.Marshal(actionLine{Index: descriptor{
		Index:   a.Index,
		Type:    a.Type,
		ID:      a.ID,
		Parent:  a.Parent,
		Refresh: true,
	}})
	if err != nil {
		return nil, fmt.Errorf("encode action %s/%s: %w", a.Type, a.ID, err)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document %s/%s: %w", a.Type, a.ID, err)
	}

	out := make([]byte, 0, len(head)+len(body)+2)
	out = append(out, head...)
	out = append(out, '\n')
	out = append(out, CollapseNewlines(body)...)
	out = append(out, '\n')
	return out, nil
}

// CollapseNewlines replaces every CRLF, CR or LF with a single space.
func CollapseNewlines(b []byte) []byte {
	if bytes.IndexAny(b, "\r\n") < 0 {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case '\r':
			if i+1 < len(b) && b[i+1] == '\n' {
				i++
			}
			out = append(out, ' ')
		case '\n':
			out = append(out, ' ')
		default:
			out = append(out, b[i])
		}
	}
	return out
}

// Builder accumulates fragments in append order.
type Builder struct {
	buf bytes.Buffer
	n   int
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Append renders and appends one action/document pair.
func (b *Builder) Append(a Action, doc any) error {
	frag, err := Fragment(a, doc)
	if err != nil {
		return err
	}
	b.buf.Write(frag)
	b.n++
	return nil
}

// Len returns the number of actions appended.
func (b *Builder) Len() int { return b.n }

// Size returns the payload size in bytes.
func (b *Builder) Size() int { return b.buf.Len() }

// Bytes returns the accumulated payload.
func (b *Builder) Bytes() []byte { return b.buf.Bytes() }
