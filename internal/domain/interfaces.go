package domain

import (
	"context"
	"time"
)

// GoalRepository defines read access to purchase goals.
// The matching engine never mutates goals; the goal-management service
// owns writes. Implementations return ErrGoalNotFound for missing ids.
type GoalRepository interface {
	// Get returns the goal with the given id
	Get(ctx context.Context, id string) (*Goal, error)

	// ListActive returns active goals, capped to filter.Limit when > 0
	ListActive(ctx context.Context, filter GoalFilter) ([]Goal, error)
}

// GoalFilter narrows ListActive queries
type GoalFilter struct {
	Category string
	Limit    int
}

// DealRepository defines read access to discovered deals.
// Implementations return ErrDealNotFound for missing ids.
type DealRepository interface {
	// Get returns the deal with the given id
	Get(ctx context.Context, id string) (*Deal, error)

	// ListActive returns active deals matching the filter
	ListActive(ctx context.Context, filter DealFilter) ([]Deal, error)

	// GetByIDs returns the deals for the given ids, skipping missing ones
	GetByIDs(ctx context.Context, ids []string) ([]Deal, error)
}

// DealFilter narrows ListActive queries. Price bounds are applied only
// when both are present (open-ended goals skip the price pre-filter).
type DealFilter struct {
	Category     string
	PriceMin     *float64
	PriceMax     *float64
	CreatedAfter *time.Time
	Limit        int
}

// MatchNotification is the bounded summary handed to the dispatcher when
// new matches qualify for a user alert. Matches holds at most a few
// representative records; TotalCount carries the full number.
type MatchNotification struct {
	UserID     string        `json:"user_id"`
	GoalID     string        `json:"goal_id,omitempty"` // set on the goal->deals direction
	DealID     string        `json:"deal_id,omitempty"` // set on the deal->goals direction
	Matches    []MatchRecord `json:"matches"`
	TotalCount int           `json:"total_count"`
}

// NotificationDispatcher delivers match alerts to users. Dispatch is
// fire-and-forget relative to the matching run: callers log failures and
// never roll back match state because an alert did not go out.
type NotificationDispatcher interface {
	DispatchMatches(ctx context.Context, n MatchNotification) error
}
