// Package record reads and seeds records kept as RedisJSON documents.
package record

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/searchsync/internal/db"
	"github.com/kailas-cloud/searchsync/internal/domain/model"
	domrec "github.com/kailas-cloud/searchsync/internal/domain/record"
)

// Reserved keys inside a stored record.
const (
	idKey   = "_id"
	typeKey = "_type"
)

// mgetChunk bounds the number of keys per JSON.MGET.
const mgetChunk = 256

// store is the consumer interface for records (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONMGet(ctx context.Context, keys []string, path string) ([][]byte, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/sync.RecordSource.
type Repo struct {
	store  store
	prefix string
}

// New creates a record repository. Keys are laid out as {prefix}rec:{collection}:{id}.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// FetchByTypeTag returns the top-level records of t's collection whose type
// tag belongs to t, ordered by key.
func (r *Repo) FetchByTypeTag(ctx context.Context, t model.Type) ([]domrec.Record, error) {
	collection := t.StorageCollection()
	keys, err := r.store.Scan(ctx, r.key(collection, "*"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", collection, err)
	}
	sort.Strings(keys)

	out := make([]domrec.Record, 0, len(keys))
	for start := 0; start < len(keys); start += mgetChunk {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+mgetChunk, len(keys))
		chunk := keys[start:end]

		raws, err := r.store.JSONMGet(ctx, chunk, "$")
		if err != nil {
			return nil, fmt.Errorf("json.mget %s: %w", collection, err)
		}
		for i, raw := range raws {
			if raw == nil {
				continue // deleted between SCAN and MGET
			}
			m, err := unwrapRoot(raw)
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", chunk[i], err)
			}
			if m == nil {
				continue
			}
			rec := decode(m, r.idFromKey(collection, chunk[i]))
			if t.MatchesTag(rec.TypeTag) {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

// FetchEmbedded returns the records of t held in parent's accessor collection.
// A parent that vanished or carries no such collection yields no records.
func (r *Repo) FetchEmbedded(
	ctx context.Context, parentType model.Type, parent *domrec.Record, t model.Type,
) ([]domrec.Record, error) {
	if t.EmbeddedIn == nil {
		return nil, fmt.Errorf("%s is not embedded", t.Name)
	}
	accessor := t.EmbeddedIn.Accessor
	key := r.key(parentType.StorageCollection(), parent.ID)

	raw, err := r.store.JSONGet(ctx, key, "$."+accessor)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("json.get %s: %w", key, err)
	}

	// JSONPath wraps the match: [[{...},{...}]] or [] when absent.
	var matches [][]map[string]any
	if err := decodeJSON(raw, &matches); err != nil {
		return nil, fmt.Errorf("decode %s.%s: %w", key, accessor, err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	out := make([]domrec.Record, 0, len(matches[0]))
	for i, m := range matches[0] {
		id, ok := idOf(m[idKey])
		if !ok {
			return nil, fmt.Errorf("%s.%s[%d]: missing %s", key, accessor, i, idKey)
		}
		tag, _ := m[typeKey].(string)
		if !t.MatchesTag(tag) {
			continue
		}
		out = append(out, domrec.NewEmbedded(parent, accessor, id, tag, attributes(m)))
	}
	return out, nil
}

// LoadRelated resolves rel for rec through its foreign-key attribute.
// Missing targets are skipped; order follows the stored ids.
func (r *Repo) LoadRelated(ctx context.Context, rec *domrec.Record, rel model.Relation) ([]domrec.Record, error) {
	fk := rel.ForeignKey
	if fk == "" {
		fk = rel.Name + "_id"
	}
	collection := rel.Collection
	if collection == "" {
		collection = strings.ToLower(rel.Name)
	}

	v, ok := rec.Attribute(fk)
	if !ok || v == nil {
		return nil, nil
	}
	ids, err := idList(v)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", rec.ID, fk, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(collection, id)
	}
	raws, err := r.store.JSONMGet(ctx, keys, "$")
	if err != nil {
		return nil, fmt.Errorf("json.mget %s: %w", collection, err)
	}

	out := make([]domrec.Record, 0, len(raws))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		m, err := unwrapRoot(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		if m != nil {
			out = append(out, decode(m, ids[i]))
		}
	}
	return out, nil
}

// Put stores rec as a top-level record of collection.
func (r *Repo) Put(ctx context.Context, collection string, rec domrec.Record) error {
	m := make(map[string]any, len(rec.Attributes)+2)
	for k, v := range rec.Attributes {
		m[k] = v
	}
	m[idKey] = rec.ID
	if rec.TypeTag != "" {
		m[typeKey] = rec.TypeTag
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	key := r.key(collection, rec.ID)
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

func (r *Repo) key(collection, id string) string {
	return r.prefix + "rec:" + collection + ":" + id
}

func (r *Repo) idFromKey(collection, key string) string {
	return strings.TrimPrefix(key, r.prefix+"rec:"+collection+":")
}

// decodeJSON keeps numbers as json.Number so attribute values reach the
// document exactly as stored.
func decodeJSON(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// unwrapRoot decodes a "$" reply, which RedisJSON wraps in a one-element array.
func unwrapRoot(raw []byte) (map[string]any, error) {
	var docs []map[string]any
	if err := decodeJSON(raw, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

func decode(m map[string]any, fallbackID string) domrec.Record {
	id, ok := idOf(m[idKey])
	if !ok {
		id = fallbackID
	}
	tag, _ := m[typeKey].(string)
	return domrec.New(id, tag, attributes(m))
}

func attributes(m map[string]any) map[string]any {
	attrs := make(map[string]any, len(m))
	for k, v := range m {
		if k == idKey || k == typeKey {
			continue
		}
		attrs[k] = v
	}
	return attrs
}

func idOf(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case json.Number:
		return id.String(), id != ""
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	default:
		return "", false
	}
}

func idList(v any) ([]string, error) {
	if list, ok := v.([]any); ok {
		ids := make([]string, 0, len(list))
		for i, item := range list {
			id, ok := idOf(item)
			if !ok {
				return nil, fmt.Errorf("element %d: unsupported id %v", i, item)
			}
			ids = append(ids, id)
		}
		return ids, nil
	}
	id, ok := idOf(v)
	if !ok {
		return nil, fmt.Errorf("unsupported id %v", v)
	}
	return []string{id}, nil
}
