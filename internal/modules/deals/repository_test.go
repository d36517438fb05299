package deals

import (
	"context"
	"testing"

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

	deal := &domain.Deal{
		Title:         "Gaming laptop RTX",
		Description:   "High refresh display",
		Category:      "electronics",
		Price:         1299,
		OriginalPrice: floatPtr(1999),
		Seller:        &domain.SellerInfo{Name: "TechStore", Rating: 4.7, ReviewCount: 812},
		Metadata:      map[string]string{"source": "scraper-eu"},
	}
	require.NoError(t, repo.Create(ctx, deal))
	assert.NotEmpty(t, deal.ID)
	assert.Equal(t, domain.DealStatusActive, deal.Status)

	got, err := repo.Get(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, deal.Title, got.Title)
	assert.Equal(t, deal.Price, got.Price)
	require.NotNil(t, got.OriginalPrice)
	assert.Equal(t, 1999.0, *got.OriginalPrice)
	require.NotNil(t, got.Seller)
	assert.Equal(t, "TechStore", got.Seller.Name)
	assert.Equal(t, 4.7, got.Seller.Rating)
	assert.Equal(t, map[string]string{"source": "scraper-eu"}, got.Metadata)
	assert.True(t, got.HasDiscount())
	assert.InDelta(t, 35.0, got.DiscountPct(), 0.1)
}

func TestRepository_Get_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrDealNotFound)
}

func TestRepository_Create_NegativePrice(t *testing.T) {
	repo := newTestRepository(t)

	assert.Error(t, repo.Create(context.Background(), &domain.Deal{Title: "Bad", Price: -5}))
}

func TestRepository_ListActive_PriceWindow(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	cheap := &domain.Deal{Title: "Cheap", Category: "electronics", Price: 50}
	inRange := &domain.Deal{Title: "Mid", Category: "electronics", Price: 500}
	expensive := &domain.Deal{Title: "Pricey", Category: "electronics", Price: 5000}
	expired := &domain.Deal{Title: "Gone", Category: "electronics", Price: 500, Status: domain.DealStatusExpired}
	require.NoError(t, repo.Create(ctx, cheap))
	require.NoError(t, repo.Create(ctx, inRange))
	require.NoError(t, repo.Create(ctx, expensive))
	require.NoError(t, repo.Create(ctx, expired))

	got, err := repo.ListActive(ctx, domain.DealFilter{
		Category: "electronics",
		PriceMin: floatPtr(100),
		PriceMax: floatPtr(1000),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, inRange.ID, got[0].ID)

	// Price window only applies when both bounds are set
	all, err := repo.ListActive(ctx, domain.DealFilter{PriceMin: floatPtr(100)})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRepository_ListActive_Limit(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &domain.Deal{Title: "Deal", Price: 10}))
	}

	got, err := repo.ListActive(ctx, domain.DealFilter{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestRepository_GetByIDs(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	d1 := &domain.Deal{Title: "One", Price: 10}
	d2 := &domain.Deal{Title: "Two", Price: 20}
	require.NoError(t, repo.Create(ctx, d1))
	require.NoError(t, repo.Create(ctx, d2))

	// Missing ids are skipped, not errors
	got, err := repo.GetByIDs(ctx, []string{d1.ID, "missing", d2.ID})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	empty, err := repo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepository_UpdateStatus(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	deal := &domain.Deal{Title: "Deal", Price: 10}
	require.NoError(t, repo.Create(ctx, deal))

	require.NoError(t, repo.UpdateStatus(ctx, deal.ID, domain.DealStatusSoldOut))

	got, err := repo.Get(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DealStatusSoldOut, got.Status)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, "missing", domain.DealStatusRemoved), domain.ErrDealNotFound)
}
