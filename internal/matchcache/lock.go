package matchcache

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dealradar/dealradar/internal/cache"
)

const (
	lockPrefix        = "lock:match:"
	lockRetryAttempts = 3
	lockRetryDelay    = 100 * time.Millisecond
)

// GoalLockKey names the advisory lock for one goal's matching run
func GoalLockKey(goalID string) string {
	return lockPrefix + "goal:" + goalID
}

// DealLockKey names the advisory lock for one deal's matching run
func DealLockKey(dealID string) string {
	return lockPrefix + "deal:" + dealID
}

// RunLocker serializes concurrent matching runs for the same id with a
// short-lived advisory lock. The lock is best-effort: matching runs are
// idempotent last-write-wins overwrites, so a failed acquisition degrades
// to unserialized execution rather than blocking the run.
type RunLocker struct {
	cache cache.Cache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewRunLocker creates a run locker. A zero ttl falls back to TTLRunLock.
func NewRunLocker(c cache.Cache, ttl time.Duration, log zerolog.Logger) *RunLocker {
	if ttl <= 0 {
		ttl = TTLRunLock
	}
	return &RunLocker{
		cache: c,
		ttl:   ttl,
		log:   log.With().Str("component", "run_locker").Logger(),
	}
}

// Acquire tries to take the named lock, retrying briefly when it is held.
// It returns a release func and whether the lock was actually held.
// On store failure or exhausted retries the caller proceeds without the
// lock; the release func is always safe to call.
func (l *RunLocker) Acquire(ctx context.Context, key string) (release func(), held bool) {
	for attempt := 0; attempt < lockRetryAttempts; attempt++ {
		ok, err := l.cache.SetNX(ctx, key, []byte("1"), l.ttl)
		if err != nil {
			l.log.Warn().Err(err).Str("key", key).Msg("Lock store unavailable, proceeding unserialized")
			return func() {}, false
		}
		if ok {
			return func() {
				if err := l.cache.Delete(context.WithoutCancel(ctx), key); err != nil {
					l.log.Warn().Err(err).Str("key", key).Msg("Failed to release lock, will expire via TTL")
				}
			}, true
		}

		select {
		case <-ctx.Done():
			return func() {}, false
		case <-time.After(lockRetryDelay):
		}
	}

	l.log.Debug().Str("key", key).Msg("Lock held elsewhere, proceeding last-write-wins")
	return func() {}, false
}
