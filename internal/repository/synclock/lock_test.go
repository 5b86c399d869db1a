package synclock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/searchsync/internal/domain"
)

// memStore emulates SET NX, compare-and-delete and compare-and-extend.
type memStore struct {
	mu       sync.Mutex
	values   map[string]string
	lastTTL  time.Duration
	setErr   error
	attempts int
	extended int
	renewTTL time.Duration
}

func (m *memStore) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return false, m.setErr
	}
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.lastTTL = ttl
	if _, held := m.values[key]; held {
		return false, nil
	}
	m.values[key] = string(value)
	return true, nil
}

func (m *memStore) DelIfEqual(_ context.Context, key string, value []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values[key] != string(value) {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func (m *memStore) PExpireIfEqual(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.values[key] != string(value) {
		return false, nil
	}
	m.extended++
	m.renewTTL = ttl
	return true, nil
}

func (m *memStore) counts() (attempts, extended int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts, m.extended
}

func (m *memStore) set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAcquire_Exclusive(t *testing.T) {
	s := &memStore{}
	l := New(s, "ss:", time.Minute)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "blog")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, ok := s.values["ss:lock:blog"]; !ok {
		t.Fatalf("expected key ss:lock:blog, got %v", s.values)
	}
	if s.lastTTL != time.Minute {
		t.Errorf("unexpected ttl %v", s.lastTTL)
	}

	if _, err := l.Acquire(ctx, "blog"); !errors.Is(err, domain.ErrSyncInProgress) {
		t.Fatalf("expected ErrSyncInProgress, got %v", err)
	}

	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	release, err = l.Acquire(ctx, "blog")
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	_ = release(ctx)
}

func TestRelease_KeepsForeignOwner(t *testing.T) {
	s := &memStore{}
	l := New(s, "", 0)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "blog")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if s.lastTTL != DefaultTTL {
		t.Errorf("expected default ttl, got %v", s.lastTTL)
	}

	// Lock expired and another process took it.
	s.values["lock:blog"] = "someone-else"
	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if s.values["lock:blog"] != "someone-else" {
		t.Error("foreign lock must survive release")
	}
}

func TestAcquire_StoreError(t *testing.T) {
	boom := errors.New("boom")
	_, err := New(&memStore{setErr: boom}, "", time.Second).Acquire(context.Background(), "blog")
	if !errors.Is(err, boom) || errors.Is(err, domain.ErrSyncInProgress) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestAcquire_ExtendsWhileHeld(t *testing.T) {
	s := &memStore{}
	l := New(s, "", 30*time.Millisecond)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "blog")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	waitFor(t, func() bool {
		_, ext := s.counts()
		return ext >= 2
	})
	s.mu.Lock()
	ttl := s.renewTTL
	s.mu.Unlock()
	if ttl != 30*time.Millisecond {
		t.Errorf("expected extension to the full ttl, got %v", ttl)
	}

	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	after, _ := s.counts()
	time.Sleep(50 * time.Millisecond)
	if now, _ := s.counts(); now != after {
		t.Errorf("extension continued after release: %d -> %d", after, now)
	}
	if err := release(ctx); err != nil {
		t.Errorf("second release must be a no-op, got %v", err)
	}
}

func TestAcquire_StopsExtendingOnceLost(t *testing.T) {
	s := &memStore{}
	l := New(s, "", 30*time.Millisecond)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "blog")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	s.set("lock:blog", "someone-else")

	waitFor(t, func() bool {
		att, ext := s.counts()
		return att > ext
	})
	lost, _ := s.counts()
	time.Sleep(50 * time.Millisecond)
	if now, _ := s.counts(); now != lost {
		t.Errorf("expected no attempts after losing the lock: %d -> %d", lost, now)
	}

	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values["lock:blog"] != "someone-else" {
		t.Error("foreign lock must survive release")
	}
}
