// Package costguard enforces the daily cost ceiling (spec.md §5): once
// cumulative estimated spend crosses DAILY_COST_THRESHOLD_USD, further calls
// fail fast with CostLimitError until the next UTC day boundary.
//
// Grounded on internal/middleware/ratelimit.go's RateLimiter — the same
// "bucket per key, reset on a rolling boundary" shape, generalized from
// requests-per-user-per-window to cumulative-cost-per-day with a single
// global bucket rather than one per caller.
package costguard

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCostLimitExceeded is the sentinel wrapped by CostLimitError. Callers
// that only need to branch on "was this a cost trip" can use errors.Is.
var ErrCostLimitExceeded = errors.New("costguard: daily cost ceiling exceeded")

// CostLimitError reports the cumulative spend already recorded when a call
// was rejected, and the daily ceiling it was checked against.
type CostLimitError struct {
	Spent     float64
	Threshold float64
}

func (e *CostLimitError) Error() string {
	return fmt.Sprintf("costguard: spent $%.4f of $%.2f daily ceiling", e.Spent, e.Threshold)
}

func (e *CostLimitError) Unwrap() error { return ErrCostLimitExceeded }

// Guard is a circuit breaker over cumulative daily cost. Safe for
// concurrent use. The zero value is not usable; construct with New.
type Guard struct {
	mu        sync.Mutex
	threshold float64
	spent     float64
	day       string
	nowFunc   func() time.Time
}

// New builds a Guard with the given daily threshold in USD.
func New(thresholdUSD float64) *Guard {
	return &Guard{threshold: thresholdUSD, nowFunc: time.Now}
}

// Charge records cost and trips the breaker if the running total for the
// current UTC day would exceed the threshold. On rejection the charge is
// not recorded, so a caller can back off and retry the same amount later
// without double-counting.
func (g *Guard) Charge(cost float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.resetIfNewDay()

	if g.spent+cost > g.threshold {
		return &CostLimitError{Spent: g.spent, Threshold: g.threshold}
	}
	g.spent += cost
	return nil
}

// Spent returns the running total for the current UTC day.
func (g *Guard) Spent() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetIfNewDay()
	return g.spent
}

func (g *Guard) resetIfNewDay() {
	today := g.nowFunc().UTC().Format("2006-01-02")
	if today != g.day {
		g.day = today
		g.spent = 0
	}
}
