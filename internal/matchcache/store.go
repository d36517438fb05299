// Package matchcache persists computed match records with a TTL.
// Records live under match:{goalID}:{dealID} with set indexes
// goal:{goalID}:matches and deal:{dealID}:matches for both lookup
// directions. The cache is an optimization: callers fall back to
// recomputing scores when it is unavailable, so every operation here
// degrades rather than escalates.
package matchcache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/dealradar/dealradar/internal/cache"
	"github.com/dealradar/dealradar/internal/domain"
)

// Key layout in the backing store.
const (
	matchKeyPrefix = "match:"
	goalSetPrefix  = "goal:"
	dealSetPrefix  = "deal:"
	setSuffix      = ":matches"
)

func matchKey(goalID, dealID string) string {
	return matchKeyPrefix + goalID + ":" + dealID
}

func goalSetKey(goalID string) string {
	return goalSetPrefix + goalID + setSuffix
}

func dealSetKey(dealID string) string {
	return dealSetPrefix + dealID + setSuffix
}

// Store is the TTL-backed match record cache.
type Store struct {
	cache cache.Cache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewStore creates a match store. A zero ttl falls back to TTLMatchRecord.
func NewStore(c cache.Cache, ttl time.Duration, log zerolog.Logger) *Store {
	if ttl <= 0 {
		ttl = TTLMatchRecord
	}
	return &Store{
		cache: c,
		ttl:   ttl,
		log:   log.With().Str("component", "match_store").Logger(),
	}
}

// encodeRecord serializes a match record for storage. Serialization is
// restricted to the fixed MatchRecord shape.
func encodeRecord(rec domain.MatchRecord) ([]byte, error) {
	data, err := msgpack.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal match record: %w", err)
	}
	return data, nil
}

// decodeRecord deserializes a stored match record
func decodeRecord(data []byte) (domain.MatchRecord, error) {
	var rec domain.MatchRecord
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("failed to unmarshal match record: %w", err)
	}
	return rec, nil
}

// Put stores one match record and indexes it in both directions.
// The TTL is refreshed on every Put.
func (s *Store) Put(ctx context.Context, rec domain.MatchRecord) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	if err := s.cache.Set(ctx, matchKey(rec.GoalID, rec.DealID), data, s.ttl); err != nil {
		return err
	}
	if err := s.cache.SetAdd(ctx, goalSetKey(rec.GoalID), s.ttl, rec.DealID); err != nil {
		return err
	}
	if err := s.cache.SetAdd(ctx, dealSetKey(rec.DealID), s.ttl, rec.GoalID); err != nil {
		return err
	}
	return nil
}

// Get returns the cached record for a (goal, deal) pair, nil on miss
func (s *Store) Get(ctx context.Context, goalID, dealID string) (*domain.MatchRecord, error) {
	data, err := s.cache.Get(ctx, matchKey(goalID, dealID))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	rec, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetAllForGoal returns all cached match records for a goal. Index
// members whose record has expired ahead of the index are returned in
// missing so callers can rehydrate them per item instead of serving a
// silently shrunken set.
func (s *Store) GetAllForGoal(ctx context.Context, goalID string) (records []domain.MatchRecord, missing []string, err error) {
	dealIDs, err := s.cache.SetMembers(ctx, goalSetKey(goalID))
	if err != nil {
		return nil, nil, err
	}

	for _, dealID := range dealIDs {
		rec, err := s.Get(ctx, goalID, dealID)
		if err != nil {
			return nil, nil, err
		}
		if rec == nil {
			missing = append(missing, dealID)
			continue
		}
		records = append(records, *rec)
	}
	return records, missing, nil
}

// GetAllForDeal returns all cached match records for a deal, with the
// goal ids of expired entries in missing
func (s *Store) GetAllForDeal(ctx context.Context, dealID string) (records []domain.MatchRecord, missing []string, err error) {
	goalIDs, err := s.cache.SetMembers(ctx, dealSetKey(dealID))
	if err != nil {
		return nil, nil, err
	}

	for _, goalID := range goalIDs {
		rec, err := s.Get(ctx, goalID, dealID)
		if err != nil {
			return nil, nil, err
		}
		if rec == nil {
			missing = append(missing, goalID)
			continue
		}
		records = append(records, *rec)
	}
	return records, missing, nil
}

// ReplaceForGoal atomically (in delete-then-insert terms, not transactional
// terms) replaces the full match set for a goal. The previous records and
// the goal's index entry are removed first, including the reverse index
// entries on each deal's set, then the new set is written.
func (s *Store) ReplaceForGoal(ctx context.Context, goalID string, records []domain.MatchRecord) error {
	if err := s.DeleteForGoal(ctx, goalID); err != nil {
		return err
	}

	for _, rec := range records {
		if err := s.Put(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceForDeal replaces the full match set for a deal
func (s *Store) ReplaceForDeal(ctx context.Context, dealID string, records []domain.MatchRecord) error {
	if err := s.DeleteForDeal(ctx, dealID); err != nil {
		return err
	}

	for _, rec := range records {
		if err := s.Put(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// DeleteForGoal clears a goal's whole match set and its index entries
func (s *Store) DeleteForGoal(ctx context.Context, goalID string) error {
	dealIDs, err := s.cache.SetMembers(ctx, goalSetKey(goalID))
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(dealIDs)+1)
	for _, dealID := range dealIDs {
		keys = append(keys, matchKey(goalID, dealID))
		// Reverse index entry on the deal side
		if err := s.cache.SetRemove(ctx, dealSetKey(dealID), goalID); err != nil {
			return err
		}
	}
	keys = append(keys, goalSetKey(goalID))

	return s.cache.Delete(ctx, keys...)
}

// DeleteForDeal clears a deal's whole match set and its index entries
func (s *Store) DeleteForDeal(ctx context.Context, dealID string) error {
	goalIDs, err := s.cache.SetMembers(ctx, dealSetKey(dealID))
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(goalIDs)+1)
	for _, goalID := range goalIDs {
		keys = append(keys, matchKey(goalID, dealID))
		if err := s.cache.SetRemove(ctx, goalSetKey(goalID), dealID); err != nil {
			return err
		}
	}
	keys = append(keys, dealSetKey(dealID))

	return s.cache.Delete(ctx, keys...)
}
