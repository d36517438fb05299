package matching

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dealradar/dealradar/internal/domain"
)

// DefaultCandidateFetchSize bounds how many deals are fetched per goal
// before the expensive scoring pass
const DefaultCandidateFetchSize = 50

// CandidateSelector fetches a bounded candidate set with cheap storage
// filters (status, category, price bounds) before scoring. Returned order
// is not significant; the orchestrators sort after scoring.
type CandidateSelector struct {
	goals     domain.GoalRepository
	deals     domain.DealRepository
	fetchSize int
	log       zerolog.Logger
}

// NewCandidateSelector creates a candidate selector. A non-positive
// fetchSize falls back to DefaultCandidateFetchSize.
func NewCandidateSelector(goals domain.GoalRepository, deals domain.DealRepository, fetchSize int, log zerolog.Logger) *CandidateSelector {
	if fetchSize <= 0 {
		fetchSize = DefaultCandidateFetchSize
	}
	return &CandidateSelector{
		goals:     goals,
		deals:     deals,
		fetchSize: fetchSize,
		log:       log.With().Str("component", "candidate_selector").Logger(),
	}
}

// DealsForGoal returns active deals worth scoring against the goal.
// The price window is pushed down to storage only when the goal has both
// bounds; open-ended goals score every active deal in the fetch window.
func (s *CandidateSelector) DealsForGoal(ctx context.Context, goal *domain.Goal) ([]domain.Deal, error) {
	filter := domain.DealFilter{
		Category: goal.Category,
		Limit:    s.fetchSize,
	}
	if goal.HasPriceRange() {
		filter.PriceMin = goal.PriceMin
		filter.PriceMax = goal.PriceMax
	}

	candidates, err := s.deals.ListActive(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deal candidates for goal %s: %w", goal.ID, err)
	}

	s.log.Debug().Str("goal_id", goal.ID).Int("candidates", len(candidates)).Msg("Fetched deal candidates")
	return candidates, nil
}

// GoalsForDeal returns all active goals. Goals may have open-ended price
// bounds, so no price pre-filter is applied in this direction.
func (s *CandidateSelector) GoalsForDeal(ctx context.Context, deal *domain.Deal) ([]domain.Goal, error) {
	candidates, err := s.goals.ListActive(ctx, domain.GoalFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch goal candidates for deal %s: %w", deal.ID, err)
	}

	s.log.Debug().Str("deal_id", deal.ID).Int("candidates", len(candidates)).Msg("Fetched goal candidates")
	return candidates, nil
}
