package matching

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/dealradar/dealradar/internal/domain"
	"github.com/dealradar/dealradar/internal/matchcache"
	"github.com/dealradar/dealradar/internal/metrics"
)

// DealMatcher runs the deal->goals direction: given one deal (typically
// just ingested), find every active goal it satisfies and alert each owner
// once.
type DealMatcher struct {
	deals      domain.DealRepository
	selector   *CandidateSelector
	store      *matchcache.Store
	dedup      *matchcache.DedupTracker
	locker     *matchcache.RunLocker
	dispatcher domain.NotificationDispatcher
	cfg        Config
	log        zerolog.Logger
}

// DealRunResult summarizes one deal matching run.
type DealRunResult struct {
	DealID     string               `json:"deal_id"`
	Status     RunStatus            `json:"status"`
	Matches    []domain.MatchRecord `json:"matches"`
	Notified   int                  `json:"notified"`
	Candidates int                  `json:"candidates"`
}

func NewDealMatcher(
	deals domain.DealRepository,
	selector *CandidateSelector,
	store *matchcache.Store,
	dedup *matchcache.DedupTracker,
	locker *matchcache.RunLocker,
	dispatcher domain.NotificationDispatcher,
	cfg Config,
	log zerolog.Logger,
) *DealMatcher {
	return &DealMatcher{
		deals:      deals,
		selector:   selector,
		store:      store,
		dedup:      dedup,
		locker:     locker,
		dispatcher: dispatcher,
		cfg:        cfg,
		log:        log.With().Str("component", "deal_matcher").Logger(),
	}
}

// Run executes a full matching pass for one deal. Unlike the goal
// direction the match set is not capped: every goal owner with a
// qualifying goal should hear about the deal. Notifications are deduped
// per (user, deal), so a user with several goals matching the same deal
// gets a single bundled alert.
func (m *DealMatcher) Run(ctx context.Context, dealID string, opts RunOptions) (*DealRunResult, error) {
	start := time.Now()

	deal, err := m.deals.Get(ctx, dealID)
	if err != nil {
		metrics.MatchRunsTotal.WithLabelValues("deal", "error").Inc()
		return nil, err
	}

	if deal.Status != domain.DealStatusActive {
		m.log.Debug().
			Str("deal_id", dealID).
			Str("status", string(deal.Status)).
			Msg("Deal is not active, skipping matching run")
		metrics.MatchRunsTotal.WithLabelValues("deal", "inactive").Inc()
		return &DealRunResult{DealID: dealID, Status: RunStatusInactive}, nil
	}

	release, held := m.locker.Acquire(ctx, matchcache.DealLockKey(dealID))
	defer release()
	if !held {
		m.log.Warn().Str("deal_id", dealID).Msg("Proceeding without run lock")
	}

	candidates, err := m.selector.GoalsForDeal(ctx, deal)
	if err != nil {
		metrics.MatchRunsTotal.WithLabelValues("deal", "error").Inc()
		return nil, fmt.Errorf("selecting candidate goals for deal %s: %w", dealID, err)
	}

	now := time.Now().UTC()
	minScore := m.cfg.minScore(opts)

	matches := make([]ownerMatch, 0, len(candidates))
	for _, sg := range scoreGoalsForDeal(deal, candidates, m.cfg.Concurrency, m.log) {
		if sg.Result.Score < minScore {
			continue
		}
		matches = append(matches, ownerMatch{goal: sg.Goal, rec: newRecord(&sg.Goal, deal, sg.Result, now)})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].rec.Score != matches[j].rec.Score {
			return matches[i].rec.Score > matches[j].rec.Score
		}
		return matches[i].rec.GoalID < matches[j].rec.GoalID
	})

	records := make([]domain.MatchRecord, len(matches))
	for i, om := range matches {
		records[i] = om.rec
	}

	if err := m.store.ReplaceForDeal(ctx, dealID, records); err != nil {
		metrics.CacheErrorsTotal.Inc()
		m.log.Warn().Err(err).Str("deal_id", dealID).Msg("Failed to persist matches")
	}

	notified := 0
	if opts.Notify {
		notified = m.notifyOwners(ctx, deal, matches)
	}

	metrics.MatchRunsTotal.WithLabelValues("deal", "ok").Inc()
	metrics.MatchesFoundTotal.WithLabelValues("deal").Add(float64(len(records)))
	metrics.MatchRunDuration.WithLabelValues("deal").Observe(time.Since(start).Seconds())

	m.log.Info().
		Str("deal_id", dealID).
		Int("candidates", len(candidates)).
		Int("matches", len(records)).
		Int("notified", notified).
		Dur("duration", time.Since(start)).
		Msg("Deal matching run complete")

	return &DealRunResult{
		DealID:     dealID,
		Status:     RunStatusOK,
		Matches:    records,
		Notified:   notified,
		Candidates: len(candidates),
	}, nil
}

type ownerMatch struct {
	goal domain.Goal
	rec  domain.MatchRecord
}

// notifyOwners bundles matches per owning user and sends at most one alert
// per user for this deal. The (user, deal) dedup key is claimed before
// sending, same mark-then-send rule as the goal direction.
func (m *DealMatcher) notifyOwners(ctx context.Context, deal *domain.Deal, matches []ownerMatch) int {
	// Preserve score order within each user's bundle.
	byUser := make(map[string][]domain.MatchRecord)
	order := make([]string, 0)
	for _, om := range matches {
		if om.rec.Score < om.goal.NotificationThreshold {
			continue
		}
		if _, ok := byUser[om.goal.UserID]; !ok {
			order = append(order, om.goal.UserID)
		}
		byUser[om.goal.UserID] = append(byUser[om.goal.UserID], om.rec)
	}

	notified := 0
	for _, userID := range order {
		key := matchcache.UserKey(userID, deal.ID)
		seen, err := m.dedup.HasNotified(ctx, key)
		if err != nil || seen {
			continue
		}
		claimed, err := m.dedup.MarkNotified(ctx, key, m.cfg.UserDedupTTL)
		if err != nil || !claimed {
			continue
		}

		recs := byUser[userID]
		n := domain.MatchNotification{
			UserID:     userID,
			DealID:     deal.ID,
			Matches:    representatives(recs),
			TotalCount: len(recs),
		}
		if err := m.dispatcher.DispatchMatches(ctx, n); err != nil {
			m.log.Error().Err(err).
				Str("deal_id", deal.ID).
				Str("user_id", userID).
				Msg("Failed to dispatch match notification")
		} else {
			metrics.NotificationsSentTotal.Inc()
		}
		notified++
	}
	return notified
}
