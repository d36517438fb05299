package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealradar/dealradar/internal/cache"
	"github.com/dealradar/dealradar/internal/domain"
	"github.com/dealradar/dealradar/internal/matchcache"
	"github.com/dealradar/dealradar/internal/matching"
	"github.com/dealradar/dealradar/internal/notify"
	dtesting "github.com/dealradar/dealradar/internal/testing"
)

type sweepHarness struct {
	goals      *dtesting.MockGoalRepository
	deals      *dtesting.MockDealRepository
	store      *matchcache.Store
	dispatcher *notify.MemoryDispatcher
	sched      *Scheduler
}

func newSweepHarness(t *testing.T) *sweepHarness {
	t.Helper()

	log := zerolog.Nop()
	goals := dtesting.NewMockGoalRepository()
	deals := dtesting.NewMockDealRepository()
	mem := cache.NewMemory()
	store := matchcache.NewStore(mem, matchcache.TTLMatchRecord, log)
	dedup := matchcache.NewDedupTracker(mem, log)
	locker := matchcache.NewRunLocker(mem, matchcache.TTLRunLock, log)
	dispatcher := notify.NewMemoryDispatcher()

	selector := matching.NewCandidateSelector(goals, deals, 0, log)
	cfg := matching.Config{
		PairDedupTTL: matchcache.TTLPairDedup,
		UserDedupTTL: matchcache.TTLUserDedup,
	}
	gm := matching.NewGoalMatcher(goals, selector, store, dedup, locker, dispatcher, cfg, log)
	dm := matching.NewDealMatcher(deals, selector, store, dedup, locker, dispatcher, cfg, log)

	return &sweepHarness{
		goals:      goals,
		deals:      deals,
		store:      store,
		dispatcher: dispatcher,
		sched:      New(goals, deals, gm, dm, 6, log),
	}
}

func sweepGoal(id, userID string) domain.Goal {
	return domain.Goal{
		ID:                    id,
		UserID:                userID,
		Title:                 "gaming laptop",
		Category:              "electronics",
		Keywords:              []string{"gaming", "laptop"},
		Status:                domain.GoalStatusActive,
		NotificationThreshold: 0.8,
		CreatedAt:             time.Now().UTC(),
	}
}

func sweepDeal(id string, createdAt time.Time) domain.Deal {
	orig := 2000.0
	return domain.Deal{
		ID:            id,
		Title:         "gaming laptop sale",
		Price:         1000,
		OriginalPrice: &orig,
		Category:      "electronics",
		Status:        domain.DealStatusActive,
		CreatedAt:     createdAt,
	}
}

func TestRunSweep_MatchesEveryActiveGoal(t *testing.T) {
	h := newSweepHarness(t)
	h.goals.SetGoals(sweepGoal("g1", "u1"), sweepGoal("g2", "u2"))
	h.deals.SetDeals(sweepDeal("d1", time.Now().Add(-72*time.Hour)))

	h.sched.runSweep(context.Background())

	for _, goalID := range []string{"g1", "g2"} {
		matches, _, err := h.store.GetAllForGoal(context.Background(), goalID)
		require.NoError(t, err)
		assert.Len(t, matches, 1, "goal %s should have its match persisted", goalID)
	}
}

func TestRunSweep_RecentDealsPass(t *testing.T) {
	h := newSweepHarness(t)
	h.goals.SetGoals(sweepGoal("g1", "u1"))
	// The old deal is outside the sweep window, the fresh one inside it.
	// Both still match through the goal direction; the deal pass only
	// decides which deal ids get their own run (and reverse index).
	h.deals.SetDeals(
		sweepDeal("d-old", time.Now().Add(-30*24*time.Hour)),
		sweepDeal("d-new", time.Now().Add(-time.Minute)),
	)

	h.sched.runSweep(context.Background())

	matches, _, err := h.store.GetAllForDeal(context.Background(), "d-new")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestRunSweep_GoalFailureDoesNotAbort(t *testing.T) {
	h := newSweepHarness(t)
	h.goals.SetGoals(sweepGoal("g1", "u1"))
	h.deals.SetDeals(sweepDeal("d1", time.Now().Add(-time.Minute)))

	// A second sweep with the repos intact must still succeed after the
	// first one ran with a failing deal repo.
	h.deals.SetError(assert.AnError)
	h.sched.runSweep(context.Background())
	h.deals.SetError(nil)

	h.sched.runSweep(context.Background())

	matches, _, err := h.store.GetAllForGoal(context.Background(), "g1")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestRunSweep_CancelledContextAborts(t *testing.T) {
	h := newSweepHarness(t)
	h.goals.SetGoals(sweepGoal("g1", "u1"))
	h.deals.SetDeals(sweepDeal("d1", time.Now().Add(-time.Minute)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h.sched.runSweep(ctx)

	matches, _, err := h.store.GetAllForGoal(context.Background(), "g1")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestNew_DefaultsInterval(t *testing.T) {
	h := newSweepHarness(t)
	assert.Equal(t, "@every 6h", h.sched.spec)

	s := New(h.goals, h.deals, nil, nil, 0, zerolog.Nop())
	assert.Equal(t, "@every 6h", s.spec)
	assert.Equal(t, 6*time.Hour, s.interval)
}
