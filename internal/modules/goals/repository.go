// Package goals provides persistence for purchase goals.
package goals

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dealradar/dealradar/internal/database"
	"github.com/dealradar/dealradar/internal/domain"
)

// goalColumns is the list of columns for the goals table.
// Used to avoid SELECT * which can break when the schema changes.
// Column order must match scanGoal() expectations.
const goalColumns = `id, user_id, title, category, price_min, price_max, keywords,
status, notification_threshold, created_at`

// Repository handles goal database operations
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a new goal repository
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "goals").Logger(),
	}
}

// Create inserts a new goal. An id is generated when absent; the
// notification threshold defaults to 0.8 and the status to active.
func (r *Repository) Create(ctx context.Context, g *domain.Goal) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Status == "" {
		g.Status = domain.GoalStatusActive
	}
	if g.NotificationThreshold == 0 {
		g.NotificationThreshold = 0.8
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	if g.HasPriceRange() && *g.PriceMin >= *g.PriceMax {
		return fmt.Errorf("invalid price range for goal %s: min %v >= max %v", g.ID, *g.PriceMin, *g.PriceMax)
	}

	keywordsJSON, err := json.Marshal(g.Keywords)
	if err != nil {
		return fmt.Errorf("failed to marshal keywords: %w", err)
	}

	query := `
		INSERT INTO goals
		(id, user_id, title, category, price_min, price_max, keywords,
		 status, notification_threshold, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		g.ID,
		g.UserID,
		strings.TrimSpace(g.Title),
		nullString(g.Category),
		nullFloat64Ptr(g.PriceMin),
		nullFloat64Ptr(g.PriceMax),
		string(keywordsJSON),
		string(g.Status),
		g.NotificationThreshold,
		g.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}

	r.log.Info().Str("goal_id", g.ID).Str("user_id", g.UserID).Msg("Goal created")
	return nil
}

// Get returns the goal with the given id, or domain.ErrGoalNotFound
func (r *Repository) Get(ctx context.Context, id string) (*domain.Goal, error) {
	query := "SELECT " + goalColumns + " FROM goals WHERE id = ?"

	rows, err := r.db.QueryContext(ctx, query, strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query goal: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to query goal: %w", err)
		}
		return nil, domain.ErrGoalNotFound
	}

	goal, err := r.scanGoal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan goal: %w", err)
	}

	return &goal, nil
}

// ListActive returns active goals, optionally narrowed by category and
// capped to filter.Limit when positive
func (r *Repository) ListActive(ctx context.Context, filter domain.GoalFilter) ([]domain.Goal, error) {
	query := "SELECT " + goalColumns + " FROM goals WHERE status = ?"
	args := []interface{}{string(domain.GoalStatusActive)}

	if filter.Category != "" {
		query += " AND category = ? COLLATE NOCASE"
		args = append(args, filter.Category)
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query active goals: %w", err)
	}
	defer rows.Close()

	var goals []domain.Goal
	for rows.Next() {
		goal, err := r.scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, goal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goals: %w", err)
	}

	return goals, nil
}

// UpdateStatus transitions a goal to the given status
func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.GoalStatus) error {
	result, err := r.db.ExecContext(ctx, "UPDATE goals SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update goal status: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrGoalNotFound
	}

	r.log.Info().Str("goal_id", id).Str("status", string(status)).Msg("Goal status updated")
	return nil
}

// scanGoal scans a database row into a domain.Goal
func (r *Repository) scanGoal(rows *sql.Rows) (domain.Goal, error) {
	var goal domain.Goal
	var category, keywordsJSON sql.NullString
	var priceMin, priceMax sql.NullFloat64
	var status string
	var createdAt int64

	err := rows.Scan(
		&goal.ID,
		&goal.UserID,
		&goal.Title,
		&category,
		&priceMin,
		&priceMax,
		&keywordsJSON,
		&status,
		&goal.NotificationThreshold,
		&createdAt,
	)
	if err != nil {
		return goal, err
	}

	if category.Valid {
		goal.Category = category.String
	}
	if priceMin.Valid {
		v := priceMin.Float64
		goal.PriceMin = &v
	}
	if priceMax.Valid {
		v := priceMax.Float64
		goal.PriceMax = &v
	}
	if keywordsJSON.Valid && keywordsJSON.String != "" {
		if err := json.Unmarshal([]byte(keywordsJSON.String), &goal.Keywords); err != nil {
			return goal, fmt.Errorf("failed to unmarshal keywords for goal %s: %w", goal.ID, err)
		}
	}

	parsed, err := domain.ParseGoalStatus(status)
	if err != nil {
		// Unknown status in storage is treated as error state rather than
		// silently excluded from or included in matching.
		r.log.Warn().Str("goal_id", goal.ID).Str("status", status).Msg("Unknown goal status in database")
		parsed = domain.GoalStatusError
	}
	goal.Status = parsed
	goal.CreatedAt = time.Unix(createdAt, 0).UTC()

	return goal, nil
}

// Delete removes a goal by id. Used by tests and maintenance tooling.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM goals WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrGoalNotFound
	}

	r.log.Info().Str("goal_id", id).Msg("Goal deleted")
	return nil
}

// nullString converts an empty string to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullFloat64Ptr converts an optional float to sql.NullFloat64
func nullFloat64Ptr(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
