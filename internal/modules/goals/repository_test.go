package goals

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealradar/dealradar/internal/domain"
	dtesting "github.com/dealradar/dealradar/internal/testing"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, cleanup := dtesting.NewTestDB(t)
	t.Cleanup(cleanup)
	return NewRepository(db, zerolog.Nop())
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	goal := &domain.Goal{
		UserID:   "u1",
		Title:    "Gaming laptop",
		Category: "electronics",
		Keywords: []string{"gaming", "laptop"},
		PriceMin: floatPtr(100),
		PriceMax: floatPtr(1500),
	}
	require.NoError(t, repo.Create(ctx, goal))

	// Defaults applied on create
	assert.NotEmpty(t, goal.ID)
	assert.Equal(t, domain.GoalStatusActive, goal.Status)
	assert.Equal(t, 0.8, goal.NotificationThreshold)

	got, err := repo.Get(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, goal.UserID, got.UserID)
	assert.Equal(t, goal.Title, got.Title)
	assert.Equal(t, goal.Category, got.Category)
	assert.Equal(t, goal.Keywords, got.Keywords)
	require.NotNil(t, got.PriceMin)
	require.NotNil(t, got.PriceMax)
	assert.Equal(t, 100.0, *got.PriceMin)
	assert.Equal(t, 1500.0, *got.PriceMax)
}

func TestRepository_Get_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrGoalNotFound)
}

func TestRepository_Create_InvalidPriceRange(t *testing.T) {
	repo := newTestRepository(t)

	goal := &domain.Goal{
		UserID:   "u1",
		Title:    "Bad range",
		PriceMin: floatPtr(500),
		PriceMax: floatPtr(100),
	}

	assert.Error(t, repo.Create(context.Background(), goal))
}

func TestRepository_Create_NoPriceBounds(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	goal := &domain.Goal{UserID: "u1", Title: "Anything nice"}
	require.NoError(t, repo.Create(ctx, goal))

	got, err := repo.Get(ctx, goal.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PriceMin)
	assert.Nil(t, got.PriceMax)
	assert.False(t, got.HasPriceRange())
}

func TestRepository_ListActive(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	active := &domain.Goal{UserID: "u1", Title: "Laptop", Category: "electronics"}
	paused := &domain.Goal{UserID: "u1", Title: "Keyboard", Status: domain.GoalStatusPaused}
	other := &domain.Goal{UserID: "u2", Title: "Sofa", Category: "home"}
	require.NoError(t, repo.Create(ctx, active))
	require.NoError(t, repo.Create(ctx, paused))
	require.NoError(t, repo.Create(ctx, other))

	all, err := repo.ListActive(ctx, domain.GoalFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	electronics, err := repo.ListActive(ctx, domain.GoalFilter{Category: "Electronics"})
	require.NoError(t, err)
	require.Len(t, electronics, 1)
	assert.Equal(t, active.ID, electronics[0].ID)

	limited, err := repo.ListActive(ctx, domain.GoalFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRepository_UpdateStatus(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	goal := &domain.Goal{UserID: "u1", Title: "Laptop"}
	require.NoError(t, repo.Create(ctx, goal))

	require.NoError(t, repo.UpdateStatus(ctx, goal.ID, domain.GoalStatusCompleted))

	got, err := repo.Get(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GoalStatusCompleted, got.Status)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, "missing", domain.GoalStatusPaused), domain.ErrGoalNotFound)
}

func TestRepository_Delete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	goal := &domain.Goal{UserID: "u1", Title: "Laptop"}
	require.NoError(t, repo.Create(ctx, goal))

	require.NoError(t, repo.Delete(ctx, goal.ID))

	_, err := repo.Get(ctx, goal.ID)
	assert.ErrorIs(t, err, domain.ErrGoalNotFound)
}

func TestRepository_CreatedAtRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created := time.Date(2026, 4, 1, 12, 30, 0, 0, time.UTC)
	goal := &domain.Goal{ID: "g1", UserID: "u1", Title: "Laptop", CreatedAt: created}
	require.NoError(t, repo.Create(ctx, goal))

	got, err := repo.Get(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, created.Equal(got.CreatedAt))
}
