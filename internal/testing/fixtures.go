package testing

import (
	"time"

	"github.com/dealradar/dealradar/internal/domain"
)

// Float returns a pointer to the given float64, for filling optional fields
func Float(v float64) *float64 {
	return &v
}

// NewGoalFixtures returns a set of test goals for use in tests
func NewGoalFixtures() []domain.Goal {
	return []domain.Goal{
		{
			ID:                    "goal-laptop",
			UserID:                "user-1",
			Title:                 "Gaming laptop under 1500",
			Category:              "electronics",
			Keywords:              []string{"gaming", "laptop", "rtx"},
			PriceMin:              Float(800),
			PriceMax:              Float(1500),
			NotificationThreshold: 0.7,
			Status:                domain.GoalStatusActive,
			CreatedAt:             time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:                    "goal-espresso",
			UserID:                "user-2",
			Title:                 "Espresso machine",
			Category:              "home",
			Keywords:              []string{"espresso", "machine"},
			PriceMax:              Float(400),
			NotificationThreshold: 0.8,
			Status:                domain.GoalStatusActive,
			CreatedAt:             time.Date(2026, 2, 2, 14, 30, 0, 0, time.UTC),
		},
		{
			ID:                    "goal-paused",
			UserID:                "user-1",
			Title:                 "Mechanical keyboard",
			Category:              "electronics",
			Keywords:              []string{"mechanical", "keyboard"},
			NotificationThreshold: 0.8,
			Status:                domain.GoalStatusPaused,
			CreatedAt:             time.Date(2026, 1, 20, 11, 0, 0, 0, time.UTC),
		},
	}
}

// NewDealFixtures returns a set of test deals for use in tests
func NewDealFixtures() []domain.Deal {
	return []domain.Deal{
		{
			ID:            "deal-laptop",
			Title:         "RTX gaming laptop 16GB",
			Description:   "High refresh display, RTX graphics, 16GB RAM",
			Price:         1299,
			OriginalPrice: Float(1999),
			Category:      "electronics",
			Status:        domain.DealStatusActive,
			Seller:        &domain.SellerInfo{Name: "TechStore", Rating: 4.7, ReviewCount: 812},
			CreatedAt:     time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		},
		{
			ID:            "deal-espresso",
			Title:         "Barista espresso machine with grinder",
			Description:   "15 bar pump, built-in grinder",
			Price:         349,
			OriginalPrice: Float(499),
			Category:      "home",
			Status:        domain.DealStatusActive,
			Seller:        &domain.SellerInfo{Name: "HomeGoods", Rating: 4.2, ReviewCount: 233},
			CreatedAt:     time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:        "deal-expired",
			Title:     "Old phone clearance",
			Price:     99,
			Category:  "electronics",
			Status:    domain.DealStatusExpired,
			CreatedAt: time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		},
	}
}
