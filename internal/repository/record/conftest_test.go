package record

import (
	"context"
	"strings"

	"github.com/kailas-cloud/searchsync/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetFn  func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn  func(ctx context.Context, key string, paths ...string) ([]byte, error)
	jsonMGetFn func(ctx context.Context, keys []string, path string) ([][]byte, error)
	scanFn     func(ctx context.Context, pattern string) ([]string, error)
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) JSONMGet(ctx context.Context, keys []string, path string) ([][]byte, error) {
	if m.jsonMGetFn != nil {
		return m.jsonMGetFn(ctx, keys, path)
	}
	return make([][]byte, len(keys)), nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

// kvStore serves JSON.MGET from a fixed key -> document map.
func kvStore(docs map[string]string) *mockStore {
	return &mockStore{
		scanFn: func(_ context.Context, pattern string) ([]string, error) {
			prefix := strings.TrimSuffix(pattern, "*")
			var keys []string
			for k := range docs {
				if strings.HasPrefix(k, prefix) {
					keys = append(keys, k)
				}
			}
			return keys, nil
		},
		jsonMGetFn: func(_ context.Context, keys []string, _ string) ([][]byte, error) {
			out := make([][]byte, len(keys))
			for i, k := range keys {
				if d, ok := docs[k]; ok {
					out[i] = []byte("[" + d + "]")
				}
			}
			return out, nil
		},
	}
}
