package evaluator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// rateWindow is the per-user rolling window of submission timestamps.
const rateWindow = time.Minute

/*
A governor enforces the two process-wide admission mechanisms: a counting
semaphore capping concurrent query runs and a per-user rolling-window
rate limit.

The rate limiter is process-local: under n worker processes the effective
per-user limit is n times the configured one. That is an accepted
constraint of the current deployment model; a shared backend could replace
the window map without changing the contract.
*/
type governor struct {
	sem       *semaphore.Weighted
	rateLimit int

	mu      sync.Mutex // guards windows and every per-user window mutation.
	windows map[string][]time.Time

	inFlight atomic.Int64

	now func() time.Time // clock injection for tests.
}

func newGovernor(maxConcurrentRuns, rateLimit int) *governor {
	return &governor{
		sem:       semaphore.NewWeighted(int64(maxConcurrentRuns)),
		rateLimit: rateLimit,
		windows:   map[string][]time.Time{},
		now:       time.Now,
	}
}

// acquire blocks until a run permit is available or ctx is done.
// Every successful acquire must be paired with exactly one release.
func (g *governor) acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	g.inFlight.Add(1)
	return nil
}

func (g *governor) release() {
	g.inFlight.Add(-1)
	g.sem.Release(1)
}

// admit reports whether the user may submit now. Timestamps older than
// the window are pruned on access; an admitted submission appends its
// timestamp. Lookup, pruning and append happen under one lock, so admit
// is linearizable per user.
func (g *governor) admit(userID string) bool {
	now := g.now()
	cutoff := now.Add(-rateWindow)

	g.mu.Lock()
	defer g.mu.Unlock()

	window := g.windows[userID]
	live := window[:0]
	for _, t := range window {
		if t.After(cutoff) {
			live = append(live, t)
		}
	}
	if len(live) >= g.rateLimit {
		g.windows[userID] = live
		return false
	}
	g.windows[userID] = append(live, now)
	return true
}
