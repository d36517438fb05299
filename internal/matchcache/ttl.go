package matchcache

import "time"

// TTL defaults for the matching cache. These are added to time.Now() when
// storing. All three are overridable through configuration; the asymmetry
// between the long match-record TTL and the shorter per-user dedup TTL is
// deliberate - re-alerting a user about a still-listed deal after a week
// is acceptable, serving a month-old match record is not.
const (
	// TTLMatchRecord - cached (goal, deal) match records and their set indexes
	TTLMatchRecord = 30 * 24 * time.Hour

	// TTLPairDedup - notification dedup per (goal, deal) pair
	TTLPairDedup = 30 * 24 * time.Hour

	// TTLUserDedup - notification dedup per (user, deal) pair
	TTLUserDedup = 7 * 24 * time.Hour

	// TTLRunLock - advisory lock serializing concurrent runs for one id
	TTLRunLock = 30 * time.Second
)
