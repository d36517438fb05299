package matchcache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealradar/dealradar/internal/cache"
	"github.com/dealradar/dealradar/internal/domain"
)

func newTestStore(ttl time.Duration) (*Store, *cache.Memory) {
	mem := cache.NewMemory()
	return NewStore(mem, ttl, zerolog.Nop()), mem
}

func record(goalID, dealID string, score float64) domain.MatchRecord {
	return domain.MatchRecord{
		MatchedAt:  time.Now().UTC().Truncate(time.Second),
		GoalID:     goalID,
		DealID:     dealID,
		UserID:     "u1",
		Quality:    domain.QualityForScore(score),
		Reasons:    []string{"Price is within your budget"},
		Components: map[string]float64{"price_range": score},
		Score:      score,
	}
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	store, _ := newTestStore(0)
	ctx := context.Background()

	rec := record("g1", "d1", 0.85)
	require.NoError(t, store.Put(ctx, rec))

	got, err := store.Get(ctx, "g1", "d1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.GoalID, got.GoalID)
	assert.Equal(t, rec.DealID, got.DealID)
	assert.Equal(t, rec.Score, got.Score)
	assert.Equal(t, rec.Quality, got.Quality)
	assert.Equal(t, rec.Reasons, got.Reasons)
	assert.InDelta(t, rec.Components["price_range"], got.Components["price_range"], 1e-9)
}

func TestStore_GetMiss(t *testing.T) {
	store, _ := newTestStore(0)

	got, err := store.Get(context.Background(), "g1", "d1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_BothDirectionIndexes(t *testing.T) {
	store, _ := newTestStore(0)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, record("g1", "d1", 0.9)))
	require.NoError(t, store.Put(ctx, record("g1", "d2", 0.8)))
	require.NoError(t, store.Put(ctx, record("g2", "d1", 0.7)))

	forGoal, _, err := store.GetAllForGoal(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, forGoal, 2)

	forDeal, _, err := store.GetAllForDeal(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, forDeal, 2)
}

func TestStore_ExpiredRecordsSkipped(t *testing.T) {
	store, _ := newTestStore(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, record("g1", "d1", 0.9)))
	time.Sleep(25 * time.Millisecond)

	got, err := store.Get(ctx, "g1", "d1")
	require.NoError(t, err)
	assert.Nil(t, got)

	forGoal, _, err := store.GetAllForGoal(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, forGoal)
}

func TestStore_ExpiredEntriesReportedAsMissing(t *testing.T) {
	store, mem := newTestStore(0)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, record("g1", "d1", 0.9)))
	require.NoError(t, store.Put(ctx, record("g1", "d2", 0.8)))

	// A record can expire ahead of the index that references it
	require.NoError(t, mem.Delete(ctx, "match:g1:d1"))

	records, missing, err := store.GetAllForGoal(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "d2", records[0].DealID)
	assert.Equal(t, []string{"d1"}, missing)

	// Same hole seen from the deal direction
	records, missing, err = store.GetAllForDeal(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, []string{"g1"}, missing)
}

func TestStore_ReplaceForGoal(t *testing.T) {
	store, _ := newTestStore(0)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, record("g1", "d1", 0.9)))
	require.NoError(t, store.Put(ctx, record("g1", "d2", 0.8)))

	require.NoError(t, store.ReplaceForGoal(ctx, "g1", []domain.MatchRecord{
		record("g1", "d3", 0.95),
	}))

	forGoal, _, err := store.GetAllForGoal(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, forGoal, 1)
	assert.Equal(t, "d3", forGoal[0].DealID)

	// Old records are gone, not just unindexed
	old, err := store.Get(ctx, "g1", "d1")
	require.NoError(t, err)
	assert.Nil(t, old)

	// Reverse indexes reflect the replacement
	forD1, _, err := store.GetAllForDeal(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, forD1)
	forD3, _, err := store.GetAllForDeal(ctx, "d3")
	require.NoError(t, err)
	assert.Len(t, forD3, 1)
}

func TestStore_ReplaceForGoal_Empty(t *testing.T) {
	store, _ := newTestStore(0)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, record("g1", "d1", 0.9)))
	require.NoError(t, store.ReplaceForGoal(ctx, "g1", nil))

	forGoal, _, err := store.GetAllForGoal(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, forGoal)
}

func TestStore_DeleteForDeal(t *testing.T) {
	store, _ := newTestStore(0)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, record("g1", "d1", 0.9)))
	require.NoError(t, store.Put(ctx, record("g2", "d1", 0.8)))
	require.NoError(t, store.Put(ctx, record("g1", "d2", 0.7)))

	require.NoError(t, store.DeleteForDeal(ctx, "d1"))

	forDeal, _, err := store.GetAllForDeal(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, forDeal)

	// g1's set no longer references d1 but keeps d2
	forGoal, _, err := store.GetAllForGoal(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, forGoal, 1)
	assert.Equal(t, "d2", forGoal[0].DealID)
}
