package matching

import (
	"time"

	"github.com/dealradar/dealradar/internal/domain"
)

// Defaults applied when a Config field is zero.
const (
	DefaultMinScore   = 0.7
	DefaultMaxMatches = 10

	// notifyRepresentatives caps how many full match records ride along in
	// a single notification. TotalCount still reports the real number.
	notifyRepresentatives = 3
)

// Config tunes a matching run. Zero values fall back to the defaults above,
// so an empty Config is usable.
type Config struct {
	// MinScore is the floor below which a scored pair is not a match.
	MinScore float64

	// MaxMatches caps how many matches a goal run keeps. Deal runs are
	// uncapped: every interested goal owner should hear about a new deal.
	MaxMatches int

	// PairDedupTTL bounds how long a (goal, deal) pair suppresses repeat
	// notifications on the goal direction.
	PairDedupTTL time.Duration

	// UserDedupTTL bounds how long a (user, deal) pair suppresses repeat
	// notifications on the deal direction.
	UserDedupTTL time.Duration

	// Concurrency bounds the scoring worker pool.
	Concurrency int
}

// RunOptions are per-run overrides. Zero numeric fields fall back to the
// matcher's Config, then to the package defaults.
type RunOptions struct {
	// MaxMatches overrides the match-set cap (goal direction only).
	MaxMatches int

	// MinScore overrides the match threshold.
	MinScore float64

	// Notify controls whether qualifying matches are alerted on. A run
	// with Notify false leaves the dedup state untouched, so a later
	// notifying run can still alert.
	Notify bool
}

// DefaultRunOptions returns the options a plain run uses: configured
// thresholds and notifications on.
func DefaultRunOptions() RunOptions {
	return RunOptions{Notify: true}
}

func (c Config) minScore(opts RunOptions) float64 {
	if opts.MinScore > 0 {
		return opts.MinScore
	}
	if c.MinScore > 0 {
		return c.MinScore
	}
	return DefaultMinScore
}

func (c Config) maxMatches(opts RunOptions) int {
	if opts.MaxMatches > 0 {
		return opts.MaxMatches
	}
	if c.MaxMatches > 0 {
		return c.MaxMatches
	}
	return DefaultMaxMatches
}

// RunStatus reports how a matching run ended.
type RunStatus string

const (
	RunStatusOK       RunStatus = "ok"
	RunStatusInactive RunStatus = "inactive"
)

func newRecord(goal *domain.Goal, deal *domain.Deal, res MatchResult, at time.Time) domain.MatchRecord {
	return domain.MatchRecord{
		MatchedAt:  at,
		GoalID:     goal.ID,
		DealID:     deal.ID,
		UserID:     goal.UserID,
		Quality:    res.Quality,
		Reasons:    res.Reasons,
		Components: res.Components,
		Score:      res.Score,
	}
}

func representatives(records []domain.MatchRecord) []domain.MatchRecord {
	if len(records) <= notifyRepresentatives {
		return records
	}
	return records[:notifyRepresentatives]
}
