package matching

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/dealradar/dealradar/internal/domain"
)

// DefaultConcurrency bounds how many candidates are scored in parallel.
// Scoring is CPU-only so a small pool keeps runs fast without starving
// the HTTP handlers.
const DefaultConcurrency = 8

type scoredDeal struct {
	Deal   domain.Deal
	Result MatchResult
}

type scoredGoal struct {
	Goal   domain.Goal
	Result MatchResult
}

// scoreDealsForGoal scores every candidate deal against one goal using a
// bounded worker pool. A panic while scoring a single candidate is logged
// and that candidate is skipped; the rest of the run continues.
func scoreDealsForGoal(goal *domain.Goal, deals []domain.Deal, concurrency int, log zerolog.Logger) []scoredDeal {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if len(deals) < concurrency {
		concurrency = len(deals)
	}

	jobs := make(chan domain.Deal)
	results := make([]scoredDeal, 0, len(deals))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for deal := range jobs {
				res, ok := safeScore(goal, &deal, log)
				if !ok {
					continue
				}
				mu.Lock()
				results = append(results, scoredDeal{Deal: deal, Result: res})
				mu.Unlock()
			}
		}()
	}

	for _, deal := range deals {
		jobs <- deal
	}
	close(jobs)
	wg.Wait()

	return results
}

// scoreGoalsForDeal is the reverse direction: one deal against many goals.
func scoreGoalsForDeal(deal *domain.Deal, goals []domain.Goal, concurrency int, log zerolog.Logger) []scoredGoal {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if len(goals) < concurrency {
		concurrency = len(goals)
	}

	jobs := make(chan domain.Goal)
	results := make([]scoredGoal, 0, len(goals))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for goal := range jobs {
				res, ok := safeScore(&goal, deal, log)
				if !ok {
					continue
				}
				mu.Lock()
				results = append(results, scoredGoal{Goal: goal, Result: res})
				mu.Unlock()
			}
		}()
	}

	for _, goal := range goals {
		jobs <- goal
	}
	close(jobs)
	wg.Wait()

	return results
}

func safeScore(goal *domain.Goal, deal *domain.Deal, log zerolog.Logger) (res MatchResult, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("goal_id", goal.ID).
				Str("deal_id", deal.ID).
				Msg("Scoring panicked, skipping candidate")
			ok = false
		}
	}()
	return CalculateMatch(goal, deal), true
}
