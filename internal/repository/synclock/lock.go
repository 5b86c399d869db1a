// Package synclock serializes mutating index operations across processes.
package synclock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchsync/internal/domain"
	logpkg "github.com/kailas-cloud/searchsync/internal/logger"
)

// DefaultTTL bounds how long a crashed holder keeps the lock.
const DefaultTTL = 10 * time.Minute

// store is the consumer interface for the lock (ISP).
type store interface {
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	DelIfEqual(ctx context.Context, key string, value []byte) (bool, error)
	PExpireIfEqual(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}

// Locker hands out a single named lock per key. A held lock is extended
// every ttl/3 until it is released, so a pass may outlive the ttl.
type Locker struct {
	store      store
	prefix     string
	ttl        time.Duration
	renewEvery time.Duration
	logger     *zap.Logger
}

// New creates a Locker. Non-positive ttl falls back to DefaultTTL.
func New(s store, prefix string, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Locker{store: s, prefix: prefix, ttl: ttl, renewEvery: ttl / 3, logger: zap.NewNop()}
}

// WithLogger sets the logger used for renewal failures.
func (l *Locker) WithLogger(logger *zap.Logger) *Locker {
	l.logger = logpkg.OrNop(logger)
	return l
}

// Acquire takes the lock called name and returns the func that gives it back.
// It fails with domain.ErrSyncInProgress while another holder owns it.
func (l *Locker) Acquire(ctx context.Context, name string) (func(context.Context) error, error) {
	key := l.prefix + "lock:" + name
	owner := []byte(uuid.NewString())

	ok, err := l.store.SetNX(ctx, key, owner, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrSyncInProgress)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.renew(key, owner, stop, done)

	var once sync.Once
	return func(ctx context.Context) error {
		var err error
		once.Do(func() {
			close(stop)
			<-done
			// Expired and re-taken by someone else: nothing to release.
			if _, derr := l.store.DelIfEqual(ctx, key, owner); derr != nil {
				err = fmt.Errorf("release %s: %w", key, derr)
			}
		})
		return err
	}, nil
}

func (l *Locker) renew(key string, owner []byte, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.renewEvery)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.renewEvery)
			ok, err := l.store.PExpireIfEqual(ctx, key, owner, l.ttl)
			cancel()
			switch {
			case err != nil:
				l.logger.Warn("failed to extend lock", zap.String("key", key), zap.Error(err))
			case !ok:
				l.logger.Warn("lock lost before release", zap.String("key", key))
				return
			}
		}
	}
}
