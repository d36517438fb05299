// Package domain provides core domain models and types.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors surfaced unchanged to callers.
var (
	ErrGoalNotFound = errors.New("goal not found")
	ErrDealNotFound = errors.New("deal not found")
)

// GoalStatus represents the lifecycle state of a purchase goal
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusPaused    GoalStatus = "paused"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusExpired   GoalStatus = "expired"
	GoalStatusCancelled GoalStatus = "cancelled"
	GoalStatusError     GoalStatus = "error"
)

// ParseGoalStatus normalizes a raw status string into a GoalStatus.
// This is the single normalization point at the system boundary -
// business logic only ever sees the typed enum.
func ParseGoalStatus(s string) (GoalStatus, error) {
	switch GoalStatus(strings.ToLower(strings.TrimSpace(s))) {
	case GoalStatusActive:
		return GoalStatusActive, nil
	case GoalStatusPaused:
		return GoalStatusPaused, nil
	case GoalStatusCompleted:
		return GoalStatusCompleted, nil
	case GoalStatusExpired:
		return GoalStatusExpired, nil
	case GoalStatusCancelled:
		return GoalStatusCancelled, nil
	case GoalStatusError:
		return GoalStatusError, nil
	}
	return "", fmt.Errorf("unknown goal status: %q", s)
}

// IsActive reports whether a goal in this status should be matched
func (s GoalStatus) IsActive() bool {
	return s == GoalStatusActive
}

// DealStatus represents the lifecycle state of a discovered deal
type DealStatus string

const (
	DealStatusActive  DealStatus = "active"
	DealStatusExpired DealStatus = "expired"
	DealStatusSoldOut DealStatus = "sold_out"
	DealStatusRemoved DealStatus = "removed"
)

// ParseDealStatus normalizes a raw status string into a DealStatus
func ParseDealStatus(s string) (DealStatus, error) {
	switch DealStatus(strings.ToLower(strings.TrimSpace(s))) {
	case DealStatusActive:
		return DealStatusActive, nil
	case DealStatusExpired:
		return DealStatusExpired, nil
	case DealStatusSoldOut:
		return DealStatusSoldOut, nil
	case DealStatusRemoved:
		return DealStatusRemoved, nil
	}
	return "", fmt.Errorf("unknown deal status: %q", s)
}

// IsActive reports whether a deal in this status is still offerable
func (s DealStatus) IsActive() bool {
	return s == DealStatusActive
}

// MatchQuality is the coarse display bucket derived from a match score
type MatchQuality string

const (
	QualityExcellent MatchQuality = "excellent"
	QualityGood      MatchQuality = "good"
	QualityFair      MatchQuality = "fair"
	QualityPoor      MatchQuality = "poor"
)

// QualityForScore maps a [0,1] match score onto its quality tier
func QualityForScore(score float64) MatchQuality {
	switch {
	case score >= 0.8:
		return QualityExcellent
	case score >= 0.6:
		return QualityGood
	case score >= 0.4:
		return QualityFair
	default:
		return QualityPoor
	}
}

// Goal is a user's standing request to be alerted about matching deals.
// Goals are created and mutated by the goal-management service; the
// matching engine treats them as read-only.
type Goal struct {
	CreatedAt             time.Time  `json:"created_at"`
	ID                    string     `json:"id"`
	UserID                string     `json:"user_id"`
	Title                 string     `json:"title"`
	Category              string     `json:"category,omitempty"` // empty = no category constraint
	Status                GoalStatus `json:"status"`
	Keywords              []string   `json:"keywords,omitempty"`
	PriceMin              *float64   `json:"price_min,omitempty"`
	PriceMax              *float64   `json:"price_max,omitempty"`
	NotificationThreshold float64    `json:"notification_threshold"`
}

// HasPriceRange reports whether both price bounds are set
func (g *Goal) HasPriceRange() bool {
	return g.PriceMin != nil && g.PriceMax != nil
}

// SellerInfo carries optional marketplace seller attributes on a deal
type SellerInfo struct {
	Name        string  `json:"name"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}

// Deal is a priced offer discovered from some marketplace.
// Read-only to the matching engine.
type Deal struct {
	CreatedAt     time.Time         `json:"created_at"`
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	Category      string            `json:"category,omitempty"`
	Status        DealStatus        `json:"status"`
	Price         float64           `json:"price"`
	OriginalPrice *float64          `json:"original_price,omitempty"`
	Seller        *SellerInfo       `json:"seller,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// HasDiscount reports whether the deal carries a genuine discount
// (original price present and strictly above the current price)
func (d *Deal) HasDiscount() bool {
	return d.OriginalPrice != nil && *d.OriginalPrice > d.Price
}

// DiscountPct returns the discount percentage, 0 if no discount
func (d *Deal) DiscountPct() float64 {
	if !d.HasDiscount() {
		return 0
	}
	return (*d.OriginalPrice - d.Price) / *d.OriginalPrice * 100
}

// MatchRecord is the persisted result of scoring one goal against one deal.
// Records are always replaced atomically, never partially updated.
// Serialization is schema-first: only this fixed flat shape ever enters the
// cache, so encoding needs no recursion or depth guarding.
type MatchRecord struct {
	MatchedAt  time.Time          `json:"matched_at" msgpack:"matched_at"`
	GoalID     string             `json:"goal_id" msgpack:"goal_id"`
	DealID     string             `json:"deal_id" msgpack:"deal_id"`
	UserID     string             `json:"user_id" msgpack:"user_id"`
	Quality    MatchQuality       `json:"quality" msgpack:"quality"`
	Reasons    []string           `json:"reasons" msgpack:"reasons"`
	Components map[string]float64 `json:"components" msgpack:"components"`
	Score      float64            `json:"score" msgpack:"score"`
}
