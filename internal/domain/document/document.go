// Package document holds the flattened indexing unit.
package document

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Document is an insertion-ordered flat key-value document.
// Keys encode in the order they were first set, so equal inputs
// always produce byte-identical JSON.
type Document struct {
	keys   []string
	values map[string]any
}

// New creates an empty Document.
func New() *Document {
	return &Document{values: make(map[string]any)}
}

// Set stores v under key. Overwriting keeps the original position.
func (d *Document) Set(key string, v any) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (any, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Has reports whether key is present.
func (d *Document) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (d *Document) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of keys.
func (d *Document) Len() int { return len(d.keys) }

// ID returns the "id" value when it is a string.
func (d *Document) ID() string {
	id, _ := d.values["id"].(string)
	return id
}

// Map converts the document, and nested documents, to plain maps.
func (d *Document) Map() map[string]any {
	out := make(map[string]any, len(d.keys))
	for _, k := range d.keys {
		out[k] = plain(d.values[k])
	}
	return out
}

func plain(v any) any {
	switch t := v.(type) {
	case *Document:
		return t.Map()
	case []*Document:
		out := make([]any, len(t))
		for i, d := range t {
			out[i] = d.Map()
		}
		return out
	default:
		return v
	}
}

// MarshalJSON encodes the document with keys in insertion order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(d.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
