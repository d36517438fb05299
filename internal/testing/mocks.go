// Package testing provides testing utilities and helpers for the dealradar project.
package testing

import (
	"context"
	"strings"
	"sync"

	"github.com/dealradar/dealradar/internal/domain"
)

// MockGoalRepository is a mock implementation of domain.GoalRepository for testing
type MockGoalRepository struct {
	mu    sync.RWMutex
	goals map[string]domain.Goal
	err   error
}

// NewMockGoalRepository creates a new mock goal repository
func NewMockGoalRepository() *MockGoalRepository {
	return &MockGoalRepository{goals: make(map[string]domain.Goal)}
}

// SetGoals replaces the stored goals
func (m *MockGoalRepository) SetGoals(goals ...domain.Goal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.goals = make(map[string]domain.Goal, len(goals))
	for _, g := range goals {
		m.goals[g.ID] = g
	}
}

// SetError sets the error to return from every call
func (m *MockGoalRepository) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Get returns the goal with the given ID
func (m *MockGoalRepository) Get(_ context.Context, id string) (*domain.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	g, ok := m.goals[id]
	if !ok {
		return nil, domain.ErrGoalNotFound
	}
	return &g, nil
}

// ListActive returns active goals matching the filter
func (m *MockGoalRepository) ListActive(_ context.Context, filter domain.GoalFilter) ([]domain.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Goal, 0, len(m.goals))
	for _, g := range m.goals {
		if !g.Status.IsActive() {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(g.Category, filter.Category) {
			continue
		}
		out = append(out, g)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// MockDealRepository is a mock implementation of domain.DealRepository for testing
type MockDealRepository struct {
	mu    sync.RWMutex
	deals map[string]domain.Deal
	err   error
}

// NewMockDealRepository creates a new mock deal repository
func NewMockDealRepository() *MockDealRepository {
	return &MockDealRepository{deals: make(map[string]domain.Deal)}
}

// SetDeals replaces the stored deals
func (m *MockDealRepository) SetDeals(deals ...domain.Deal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deals = make(map[string]domain.Deal, len(deals))
	for _, d := range deals {
		m.deals[d.ID] = d
	}
}

// SetError sets the error to return from every call
func (m *MockDealRepository) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Get returns the deal with the given ID
func (m *MockDealRepository) Get(_ context.Context, id string) (*domain.Deal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	d, ok := m.deals[id]
	if !ok {
		return nil, domain.ErrDealNotFound
	}
	return &d, nil
}

// ListActive returns active deals matching the filter
func (m *MockDealRepository) ListActive(_ context.Context, filter domain.DealFilter) ([]domain.Deal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Deal, 0, len(m.deals))
	for _, d := range m.deals {
		if !d.Status.IsActive() {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(d.Category, filter.Category) {
			continue
		}
		if filter.PriceMin != nil && filter.PriceMax != nil {
			if d.Price < *filter.PriceMin || d.Price > *filter.PriceMax {
				continue
			}
		}
		if filter.CreatedAfter != nil && !d.CreatedAt.After(*filter.CreatedAfter) {
			continue
		}
		out = append(out, d)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// GetByIDs returns the deals matching the given IDs, skipping missing ones
func (m *MockDealRepository) GetByIDs(_ context.Context, ids []string) ([]domain.Deal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Deal, 0, len(ids))
	for _, id := range ids {
		if d, ok := m.deals[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}
