// Package deals provides persistence for discovered deals.
package deals

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

// dealColumns is the list of columns for the deals table.
// Column order must match scanDeal() expectations.
const dealColumns = `id, title, description, price, original_price, category,
status, seller, metadata, created_at`

// Repository handles deal database operations
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a new deal repository
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "deals").Logger(),
	}
}

// Create inserts a new deal. An id is generated when absent.
func (r *Repository) Create(ctx context.Context, d *domain.Deal) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = domain.DealStatusActive
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if d.Price < 0 {
		return fmt.Errorf("deal %s has negative price %v", d.ID, d.Price)
	}

	var sellerJSON sql.NullString
	if d.Seller != nil {
		data, err := json.Marshal(d.Seller)
		if err != nil {
			return fmt.Errorf("failed to marshal seller info: %w", err)
		}
		sellerJSON = sql.NullString{String: string(data), Valid: true}
	}

	var metadataJSON sql.NullString
	if len(d.Metadata) > 0 {
		data, err := json.Marshal(d.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadataJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT INTO deals
		(id, title, description, price, original_price, category,
		 status, seller, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		d.ID,
		strings.TrimSpace(d.Title),
		nullString(d.Description),
		d.Price,
		nullFloat64Ptr(d.OriginalPrice),
		nullString(d.Category),
		string(d.Status),
		sellerJSON,
		metadataJSON,
		d.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert deal: %w", err)
	}

	r.log.Info().Str("deal_id", d.ID).Str("title", d.Title).Msg("Deal created")
	return nil
}

// Get returns the deal with the given id, or domain.ErrDealNotFound
func (r *Repository) Get(ctx context.Context, id string) (*domain.Deal, error) {
	query := "SELECT " + dealColumns + " FROM deals WHERE id = ?"

	rows, err := r.db.QueryContext(ctx, query, strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query deal: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to query deal: %w", err)
		}
		return nil, domain.ErrDealNotFound
	}

	deal, err := r.scanDeal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan deal: %w", err)
	}

	return &deal, nil
}

// ListActive returns active deals matching the filter. The price window is
// applied only when both bounds are present; results are capped to
// filter.Limit when positive to bound downstream scoring cost.
func (r *Repository) ListActive(ctx context.Context, filter domain.DealFilter) ([]domain.Deal, error) {
	query := "SELECT " + dealColumns + " FROM deals WHERE status = ?"
	args := []interface{}{string(domain.DealStatusActive)}

	if filter.Category != "" {
		query += " AND category = ? COLLATE NOCASE"
		args = append(args, filter.Category)
	}

	if filter.PriceMin != nil && filter.PriceMax != nil {
		query += " AND price >= ? AND price <= ?"
		args = append(args, *filter.PriceMin, *filter.PriceMax)
	}

	if filter.CreatedAfter != nil {
		query += " AND created_at > ?"
		args = append(args, filter.CreatedAfter.Unix())
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query active deals: %w", err)
	}
	defer rows.Close()

	return r.collectDeals(rows)
}

// GetByIDs returns the deals for the given ids. Missing ids are skipped
// rather than treated as errors - callers use this to hydrate cached match
// sets whose members may have expired from the catalog.
func (r *Repository) GetByIDs(ctx context.Context, ids []string) ([]domain.Deal, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	query := "SELECT " + dealColumns + " FROM deals WHERE id IN (" + placeholders + ")"
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query deals by ids: %w", err)
	}
	defer rows.Close()

	return r.collectDeals(rows)
}

// UpdateStatus transitions a deal to the given status
func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.DealStatus) error {
	result, err := r.db.ExecContext(ctx, "UPDATE deals SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update deal status: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrDealNotFound
	}

	r.log.Info().Str("deal_id", id).Str("status", string(status)).Msg("Deal status updated")
	return nil
}

// collectDeals scans all rows into a slice of deals
func (r *Repository) collectDeals(rows *sql.Rows) ([]domain.Deal, error) {
	var deals []domain.Deal
	for rows.Next() {
		deal, err := r.scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, deal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deals: %w", err)
	}

	return deals, nil
}

// scanDeal scans a database row into a domain.Deal
func (r *Repository) scanDeal(rows *sql.Rows) (domain.Deal, error) {
	var deal domain.Deal
	var description, category, sellerJSON, metadataJSON sql.NullString
	var originalPrice sql.NullFloat64
	var status string
	var createdAt int64

	err := rows.Scan(
		&deal.ID,
		&deal.Title,
		&description,
		&deal.Price,
		&originalPrice,
		&category,
		&status,
		&sellerJSON,
		&metadataJSON,
		&createdAt,
	)
	if err != nil {
		return deal, err
	}

	if description.Valid {
		deal.Description = description.String
	}
	if category.Valid {
		deal.Category = category.String
	}
	if originalPrice.Valid {
		v := originalPrice.Float64
		deal.OriginalPrice = &v
	}
	if sellerJSON.Valid && sellerJSON.String != "" {
		var seller domain.SellerInfo
		if err := json.Unmarshal([]byte(sellerJSON.String), &seller); err != nil {
			return deal, fmt.Errorf("failed to unmarshal seller for deal %s: %w", deal.ID, err)
		}
		deal.Seller = &seller
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &deal.Metadata); err != nil {
			return deal, fmt.Errorf("failed to unmarshal metadata for deal %s: %w", deal.ID, err)
		}
	}

	parsed, err := domain.ParseDealStatus(status)
	if err != nil {
		r.log.Warn().Str("deal_id", deal.ID).Str("status", status).Msg("Unknown deal status in database")
		parsed = domain.DealStatusRemoved
	}
	deal.Status = parsed
	deal.CreatedAt = time.Unix(createdAt, 0).UTC()

	return deal, nil
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
