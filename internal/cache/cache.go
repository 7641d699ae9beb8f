// Package cache holds computed habit statistics between ledger writes.
// Entries are keyed by habit and by the day they were computed for, and a
// habit's entries are dropped together whenever its ledger or definition
// changes.
package cache

import (
	"context"
	"time"

	"github.com/julianstephens/habitual/internal/models"
)

type StatsCache interface {
	// Get reports ok=false on a miss.
	Get(ctx context.Context, habitID string, day time.Time) (st models.HabitStats, ok bool, err error)
	// Set stores st under (st.HabitID, st.AsOf).
	Set(ctx context.Context, st models.HabitStats) error
	Invalidate(ctx context.Context, habitID string) error
	Close() error
}

// New connects to Redis when redisURL is set. Without Redis, only a store
// that lives inside this process (processLocal) gets the in-process cache:
// another process writing to a shared database could never invalidate it, so
// those stores get Noop.
func New(ctx context.Context, redisURL string, processLocal bool) (StatsCache, error) {
	switch {
	case redisURL != "":
		return NewRedis(ctx, redisURL)
	case processLocal:
		return NewMemory(), nil
	default:
		return Noop{}, nil
	}
}
