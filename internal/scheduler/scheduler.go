// Package scheduler wires up the cron job that periodically re-runs
// matching for every active goal, so goals pick up deals that arrived
// since their last run and shed matches whose deals expired.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/dealradar/dealradar/internal/domain"
	"github.com/dealradar/dealradar/internal/matching"
)

// Scheduler wraps robfig/cron and manages the periodic matching sweep.
type Scheduler struct {
	cron        *cron.Cron
	goals       domain.GoalRepository
	deals       domain.DealRepository
	goalMatcher *matching.GoalMatcher
	dealMatcher *matching.DealMatcher
	interval    time.Duration
	spec        string // cron spec, e.g. "@every 6h"
	log         zerolog.Logger

	mu        sync.Mutex
	lastSweep time.Time
}

// New creates a Scheduler that sweeps every intervalHours hours.
func New(goals domain.GoalRepository, deals domain.DealRepository, goalMatcher *matching.GoalMatcher, dealMatcher *matching.DealMatcher, intervalHours int, log zerolog.Logger) *Scheduler {
	if intervalHours <= 0 {
		intervalHours = 6
	}
	return &Scheduler{
		cron:        cron.New(),
		goals:       goals,
		deals:       deals,
		goalMatcher: goalMatcher,
		dealMatcher: dealMatcher,
		interval:    time.Duration(intervalHours) * time.Hour,
		spec:        fmt.Sprintf("@every %dh", intervalHours),
		log:         log.With().Str("component", "scheduler").Logger(),
	}
}

// Start registers the sweep job and starts the scheduler. One sweep runs
// immediately so fresh deployments have matches without waiting for the
// first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info().Str("spec", s.spec).Msg("Matching sweep scheduled")

	go s.runSweep(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler, waiting for a running sweep
// to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// runSweep re-matches every active goal, then runs the deal direction for
// deals created since the previous sweep so their owners get alerted
// without waiting for each goal's next visit. A failed run is logged and
// the sweep continues; one bad record must never starve the rest.
func (s *Scheduler) runSweep(ctx context.Context) {
	start := time.Now()

	s.mu.Lock()
	since := s.lastSweep
	if since.IsZero() {
		since = start.Add(-s.interval)
	}
	s.lastSweep = start
	s.mu.Unlock()

	s.log.Info().Msg("Matching sweep started")

	goals, err := s.goals.ListActive(ctx, domain.GoalFilter{})
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list active goals, skipping sweep")
		return
	}

	failures := 0
	for _, goal := range goals {
		if ctx.Err() != nil {
			s.log.Warn().Msg("Sweep aborted, context cancelled")
			return
		}
		if _, err := s.goalMatcher.Run(ctx, goal.ID, matching.DefaultRunOptions()); err != nil {
			failures++
			s.log.Error().Err(err).Str("goal_id", goal.ID).Msg("Sweep run failed for goal")
		}
	}

	recent, err := s.deals.ListActive(ctx, domain.DealFilter{CreatedAfter: &since})
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list recent deals, skipping deal pass")
	}
	for _, deal := range recent {
		if ctx.Err() != nil {
			s.log.Warn().Msg("Sweep aborted, context cancelled")
			return
		}
		if _, err := s.dealMatcher.Run(ctx, deal.ID, matching.DefaultRunOptions()); err != nil {
			failures++
			s.log.Error().Err(err).Str("deal_id", deal.ID).Msg("Sweep run failed for deal")
		}
	}

	s.log.Info().
		Int("goals", len(goals)).
		Int("recent_deals", len(recent)).
		Int("failures", failures).
		Dur("duration", time.Since(start)).
		Msg("Matching sweep complete")
}
