package matchcache

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dealradar/dealradar/internal/cache"
)

const notifiedPrefix = "notified:"

// PairKey builds the dedup key for the goal->deals direction
func PairKey(goalID, dealID string) string {
	return notifiedPrefix + goalID + ":" + dealID
}

// UserKey builds the dedup key for the deal->goals direction, where one
// notification bundles all of a user's new matches for a deal
func UserKey(userID, dealID string) string {
	return notifiedPrefix + "user:" + userID + ":" + dealID
}

// DedupTracker records which pairs have already triggered a notification.
// Presence of a key means a notification was sent; absence guarantees
// nothing (TTL expiry clears keys), which errs on the side of re-alerting
// rather than missing an alert.
type DedupTracker struct {
	cache cache.Cache
	log   zerolog.Logger
}

// NewDedupTracker creates a notification dedup tracker
func NewDedupTracker(c cache.Cache, log zerolog.Logger) *DedupTracker {
	return &DedupTracker{
		cache: c,
		log:   log.With().Str("component", "notify_dedup").Logger(),
	}
}

// HasNotified reports whether a notification was already sent for key
func (t *DedupTracker) HasNotified(ctx context.Context, key string) (bool, error) {
	data, err := t.cache.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

// MarkNotified claims the right to send the notification for key.
// The mark uses SETNX so two concurrent match runs cannot both claim the
// same send: exactly one caller gets true within the TTL window.
// Callers must mark before sending; if marking fails, skip the send -
// the key stays absent and the next run retries.
func (t *DedupTracker) MarkNotified(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = TTLPairDedup
	}

	claimed, err := t.cache.SetNX(ctx, key, []byte("1"), ttl)
	if err != nil {
		return false, err
	}
	return claimed, nil
}
