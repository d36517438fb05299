package matching

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealradar/dealradar/internal/domain"
	dtesting "github.com/dealradar/dealradar/internal/testing"
)

func TestCandidateSelector_DealsForGoal(t *testing.T) {
	goals := dtesting.NewMockGoalRepository()
	deals := dtesting.NewMockDealRepository()
	deals.SetDeals(
		domain.Deal{ID: "d1", Category: "electronics", Price: 500, Status: domain.DealStatusActive},
		domain.Deal{ID: "d2", Category: "electronics", Price: 5000, Status: domain.DealStatusActive},
		domain.Deal{ID: "d3", Category: "clothing", Price: 500, Status: domain.DealStatusActive},
		domain.Deal{ID: "d4", Category: "electronics", Price: 500, Status: domain.DealStatusExpired},
	)
	selector := NewCandidateSelector(goals, deals, 0, zerolog.Nop())

	goal := &domain.Goal{
		ID:       "g1",
		Category: "electronics",
		PriceMin: floatPtr(100),
		PriceMax: floatPtr(1000),
		Status:   domain.GoalStatusActive,
	}

	got, err := selector.DealsForGoal(context.Background(), goal)
	require.NoError(t, err)

	// Category and price window push down to the repository; inactive
	// deals never come back.
	require.Len(t, got, 1)
	assert.Equal(t, "d1", got[0].ID)
}

func TestCandidateSelector_DealsForGoal_NoConstraints(t *testing.T) {
	goals := dtesting.NewMockGoalRepository()
	deals := dtesting.NewMockDealRepository()
	deals.SetDeals(
		domain.Deal{ID: "d1", Category: "electronics", Price: 500, Status: domain.DealStatusActive},
		domain.Deal{ID: "d3", Category: "clothing", Price: 500, Status: domain.DealStatusActive},
	)
	selector := NewCandidateSelector(goals, deals, 0, zerolog.Nop())

	goal := &domain.Goal{ID: "g1", Status: domain.GoalStatusActive}

	got, err := selector.DealsForGoal(context.Background(), goal)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCandidateSelector_GoalsForDeal(t *testing.T) {
	goals := dtesting.NewMockGoalRepository()
	deals := dtesting.NewMockDealRepository()
	goals.SetGoals(
		domain.Goal{ID: "g1", UserID: "u1", Status: domain.GoalStatusActive},
		domain.Goal{ID: "g2", UserID: "u2", Status: domain.GoalStatusPaused},
	)
	selector := NewCandidateSelector(goals, deals, 0, zerolog.Nop())

	deal := &domain.Deal{ID: "d1", Price: 100, Status: domain.DealStatusActive}

	got, err := selector.GoalsForDeal(context.Background(), deal)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "g1", got[0].ID)
}
