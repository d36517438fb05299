package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dealradar/dealradar/internal/domain"
	"github.com/dealradar/dealradar/internal/matchcache"
	"github.com/dealradar/dealradar/internal/metrics"
)

// GoalMatcher runs the goal->deals direction: given one goal, find the
// active deals worth alerting its owner about.
type GoalMatcher struct {
	goals      domain.GoalRepository
	selector   *CandidateSelector
	store      *matchcache.Store
	dedup      *matchcache.DedupTracker
	locker     *matchcache.RunLocker
	dispatcher domain.NotificationDispatcher
	cfg        Config
	log        zerolog.Logger
}

// GoalRunResult summarizes one goal matching run.
type GoalRunResult struct {
	GoalID     string               `json:"goal_id"`
	Status     RunStatus            `json:"status"`
	Matches    []domain.MatchRecord `json:"matches"`
	Notified   int                  `json:"notified"`
	Candidates int                  `json:"candidates"`
}

func NewGoalMatcher(
	goals domain.GoalRepository,
	selector *CandidateSelector,
	store *matchcache.Store,
	dedup *matchcache.DedupTracker,
	locker *matchcache.RunLocker,
	dispatcher domain.NotificationDispatcher,
	cfg Config,
	log zerolog.Logger,
) *GoalMatcher {
	return &GoalMatcher{
		goals:      goals,
		selector:   selector,
		store:      store,
		dedup:      dedup,
		locker:     locker,
		dispatcher: dispatcher,
		cfg:        cfg,
		log:        log.With().Str("component", "goal_matcher").Logger(),
	}
}

// Run executes a full matching pass for one goal: select candidates, score
// them, persist the surviving matches, and notify the owner about pairs
// they have not been told about yet.
//
// Runs are idempotent: repeating a run with unchanged catalog data yields
// the same match set and sends no further notifications.
func (m *GoalMatcher) Run(ctx context.Context, goalID string, opts RunOptions) (*GoalRunResult, error) {
	start := time.Now()

	goal, err := m.goals.Get(ctx, goalID)
	if err != nil {
		metrics.MatchRunsTotal.WithLabelValues("goal", "error").Inc()
		return nil, err
	}

	if !goal.Status.IsActive() {
		m.log.Debug().
			Str("goal_id", goalID).
			Str("status", string(goal.Status)).
			Msg("Goal is not active, skipping matching run")
		metrics.MatchRunsTotal.WithLabelValues("goal", "inactive").Inc()
		return &GoalRunResult{GoalID: goalID, Status: RunStatusInactive}, nil
	}

	// Serialize concurrent runs for the same goal. If the lock cannot be
	// taken the run proceeds anyway: a full run is idempotent, so two
	// overlapping runs converge on the same state (last write wins).
	release, held := m.locker.Acquire(ctx, matchcache.GoalLockKey(goalID))
	defer release()
	if !held {
		m.log.Warn().Str("goal_id", goalID).Msg("Proceeding without run lock")
	}

	candidates, err := m.selector.DealsForGoal(ctx, goal)
	if err != nil {
		metrics.MatchRunsTotal.WithLabelValues("goal", "error").Inc()
		return nil, fmt.Errorf("selecting candidate deals for goal %s: %w", goalID, err)
	}

	now := time.Now().UTC()
	minScore := m.cfg.minScore(opts)

	records := make([]domain.MatchRecord, 0, len(candidates))
	for _, sd := range scoreDealsForGoal(goal, candidates, m.cfg.Concurrency, m.log) {
		if sd.Result.Score < minScore {
			continue
		}
		records = append(records, newRecord(goal, &sd.Deal, sd.Result, now))
	}

	sortMatches(records, true)
	if max := m.cfg.maxMatches(opts); len(records) > max {
		records = records[:max]
	}

	if err := m.store.ReplaceForGoal(ctx, goalID, records); err != nil {
		// Cache persistence is best-effort: the run result is still
		// valid, reads just recompute until the cache recovers.
		metrics.CacheErrorsTotal.Inc()
		m.log.Warn().Err(err).Str("goal_id", goalID).Msg("Failed to persist matches")
	}

	notified := 0
	if opts.Notify {
		notified = m.notifyOwner(ctx, goal, records)
	}

	metrics.MatchRunsTotal.WithLabelValues("goal", "ok").Inc()
	metrics.MatchesFoundTotal.WithLabelValues("goal").Add(float64(len(records)))
	metrics.MatchRunDuration.WithLabelValues("goal").Observe(time.Since(start).Seconds())

	m.log.Info().
		Str("goal_id", goalID).
		Int("candidates", len(candidates)).
		Int("matches", len(records)).
		Int("notified", notified).
		Dur("duration", time.Since(start)).
		Msg("Goal matching run complete")

	return &GoalRunResult{
		GoalID:     goalID,
		Status:     RunStatusOK,
		Matches:    records,
		Notified:   notified,
		Candidates: len(candidates),
	}, nil
}

// notifyOwner sends at most one notification covering every match the owner
// has not yet been alerted about. Each pair is claimed (mark-then-send)
// before dispatch, so a crash between claim and send drops the alert rather
// than risking a duplicate.
func (m *GoalMatcher) notifyOwner(ctx context.Context, goal *domain.Goal, records []domain.MatchRecord) int {
	fresh := make([]domain.MatchRecord, 0, len(records))
	for _, rec := range records {
		if rec.Score < goal.NotificationThreshold {
			continue
		}
		key := matchcache.PairKey(rec.GoalID, rec.DealID)
		seen, err := m.dedup.HasNotified(ctx, key)
		if err != nil || seen {
			// Tracker errors suppress the alert. Annoying a user with a
			// repeat is worse than a late first notification.
			continue
		}
		claimed, err := m.dedup.MarkNotified(ctx, key, m.cfg.PairDedupTTL)
		if err != nil || !claimed {
			continue
		}
		fresh = append(fresh, rec)
	}

	if len(fresh) == 0 {
		return 0
	}

	n := domain.MatchNotification{
		UserID:     goal.UserID,
		GoalID:     goal.ID,
		Matches:    representatives(fresh),
		TotalCount: len(fresh),
	}
	if err := m.dispatcher.DispatchMatches(ctx, n); err != nil {
		m.log.Error().Err(err).
			Str("goal_id", goal.ID).
			Str("user_id", goal.UserID).
			Msg("Failed to dispatch match notification")
		return len(fresh)
	}

	metrics.NotificationsSentTotal.Inc()
	return len(fresh)
}
