// Package matching exposes the matching engine as a module: a service
// wrapping the two matchers and the cached-match read paths, plus HTTP
// handlers under handlers/.
package matching

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/dealradar/dealradar/internal/domain"
	engine "github.com/dealradar/dealradar/internal/matching"
	"github.com/dealradar/dealradar/internal/matchcache"
)

// Service coordinates matching runs and cached-match reads.
type Service struct {
	goalMatcher *engine.GoalMatcher
	dealMatcher *engine.DealMatcher
	store       *matchcache.Store
	goals       domain.GoalRepository
	deals       domain.DealRepository
	cfg         engine.Config
	log         zerolog.Logger
}

// NewService creates a new matching service
func NewService(
	goalMatcher *engine.GoalMatcher,
	dealMatcher *engine.DealMatcher,
	store *matchcache.Store,
	goals domain.GoalRepository,
	deals domain.DealRepository,
	cfg engine.Config,
	log zerolog.Logger,
) *Service {
	return &Service{
		goalMatcher: goalMatcher,
		dealMatcher: dealMatcher,
		store:       store,
		goals:       goals,
		deals:       deals,
		cfg:         cfg,
		log:         log.With().Str("service", "matching").Logger(),
	}
}

// MatchDealsToGoal runs the goal->deals direction for one goal.
func (s *Service) MatchDealsToGoal(ctx context.Context, goalID string, opts engine.RunOptions) (*engine.GoalRunResult, error) {
	return s.goalMatcher.Run(ctx, goalID, opts)
}

// MatchDealToGoals runs the deal->goals direction for one deal.
func (s *Service) MatchDealToGoals(ctx context.Context, dealID string, opts engine.RunOptions) (*engine.DealRunResult, error) {
	return s.dealMatcher.Run(ctx, dealID, opts)
}

// MatchesForGoal returns the cached matches for a goal. An empty cache
// triggers a full silent recompute; index entries whose record expired
// ahead of the index are rehydrated per item. Results are ordered by
// score descending, deal id ascending on ties.
func (s *Service) MatchesForGoal(ctx context.Context, goalID string, limit, offset int) ([]domain.MatchRecord, error) {
	records, missing, err := s.store.GetAllForGoal(ctx, goalID)
	if err != nil {
		s.log.Warn().Err(err).Str("goal_id", goalID).Msg("Match cache read failed, recomputing")
		records, missing = nil, nil
	}

	if len(records) == 0 && len(missing) == 0 {
		opts := engine.DefaultRunOptions()
		opts.Notify = false
		res, err := s.goalMatcher.Run(ctx, goalID, opts)
		if err != nil {
			return nil, err
		}
		records = res.Matches
	} else if len(missing) > 0 {
		records = append(records, s.rescoreDealsForGoal(ctx, goalID, missing)...)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		return records[i].DealID < records[j].DealID
	})

	return page(records, limit, offset), nil
}

// MatchesForDeal returns the cached matches for a deal, with the same
// recompute-on-empty and per-item rehydration behavior as the goal
// direction. Ordered by score descending, goal id ascending on ties.
func (s *Service) MatchesForDeal(ctx context.Context, dealID string, limit, offset int) ([]domain.MatchRecord, error) {
	records, missing, err := s.store.GetAllForDeal(ctx, dealID)
	if err != nil {
		s.log.Warn().Err(err).Str("deal_id", dealID).Msg("Match cache read failed, recomputing")
		records, missing = nil, nil
	}

	if len(records) == 0 && len(missing) == 0 {
		opts := engine.DefaultRunOptions()
		opts.Notify = false
		res, err := s.dealMatcher.Run(ctx, dealID, opts)
		if err != nil {
			return nil, err
		}
		records = res.Matches
	} else if len(missing) > 0 {
		records = append(records, s.rescoreGoalsForDeal(ctx, dealID, missing)...)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		return records[i].GoalID < records[j].GoalID
	})

	return page(records, limit, offset), nil
}

// rescoreDealsForGoal rebuilds the expired records for one goal by
// hydrating the deals in bulk and scoring them again. Deals that vanished
// from the catalog, went inactive, or no longer clear the score floor are
// dropped. Failures degrade to serving the surviving records.
func (s *Service) rescoreDealsForGoal(ctx context.Context, goalID string, dealIDs []string) []domain.MatchRecord {
	goal, err := s.goals.Get(ctx, goalID)
	if err != nil || !goal.Status.IsActive() {
		return nil
	}

	candidates, err := s.deals.GetByIDs(ctx, dealIDs)
	if err != nil {
		s.log.Warn().Err(err).Str("goal_id", goalID).Msg("Failed to hydrate expired match entries")
		return nil
	}

	now := time.Now().UTC()
	var out []domain.MatchRecord
	for i := range candidates {
		deal := &candidates[i]
		if !deal.Status.IsActive() {
			continue
		}
		rec, ok := s.rescorePair(ctx, goal, deal, now)
		if ok {
			out = append(out, rec)
		}
	}
	return out
}

// rescoreGoalsForDeal is the deal-direction counterpart. Goals are
// hydrated one by one; the repository has no bulk fetch because goal sets
// per deal stay small.
func (s *Service) rescoreGoalsForDeal(ctx context.Context, dealID string, goalIDs []string) []domain.MatchRecord {
	deal, err := s.deals.Get(ctx, dealID)
	if err != nil || !deal.Status.IsActive() {
		return nil
	}

	now := time.Now().UTC()
	var out []domain.MatchRecord
	for _, goalID := range goalIDs {
		goal, err := s.goals.Get(ctx, goalID)
		if err != nil {
			if !errors.Is(err, domain.ErrGoalNotFound) {
				s.log.Warn().Err(err).Str("goal_id", goalID).Msg("Failed to hydrate expired match entry")
			}
			continue
		}
		if !goal.Status.IsActive() {
			continue
		}
		rec, ok := s.rescorePair(ctx, goal, deal, now)
		if ok {
			out = append(out, rec)
		}
	}
	return out
}

// rescorePair scores one (goal, deal) pair and writes the refreshed
// record back to the cache when it still qualifies as a match.
func (s *Service) rescorePair(ctx context.Context, goal *domain.Goal, deal *domain.Deal, now time.Time) (domain.MatchRecord, bool) {
	minScore := s.cfg.MinScore
	if minScore <= 0 {
		minScore = engine.DefaultMinScore
	}

	res := engine.CalculateMatch(goal, deal)
	if res.Score < minScore {
		return domain.MatchRecord{}, false
	}

	rec := domain.MatchRecord{
		MatchedAt:  now,
		GoalID:     goal.ID,
		DealID:     deal.ID,
		UserID:     goal.UserID,
		Quality:    res.Quality,
		Reasons:    res.Reasons,
		Components: res.Components,
		Score:      res.Score,
	}
	if err := s.store.Put(ctx, rec); err != nil {
		s.log.Warn().Err(err).
			Str("goal_id", goal.ID).
			Str("deal_id", deal.ID).
			Msg("Failed to persist rehydrated match")
	}
	return rec, true
}

func page(records []domain.MatchRecord, limit, offset int) []domain.MatchRecord {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) {
		return []domain.MatchRecord{}
	}
	records = records[offset:]
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}
