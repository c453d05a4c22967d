package points

import (
	"sync"
	"time"
)

// ComboWindow is the maximum gap between reviews before the session
// combo resets.
const ComboWindow = 5 * time.Minute

// comboThresholds maps combo counts to their one-shot bonus, paid when
// the counter lands exactly on the threshold.
var comboThresholds = []struct {
	Count int
	Bonus int
}{
	{5, 25},
	{10, 75},
	{25, 200},
	{50, 500},
}

// ComboTracker counts consecutive reviews within the combo window.
//
// The counter is deliberately in-memory only: combos are per-process,
// never persisted and never synchronized across instances.
type ComboTracker struct {
	mu         sync.Mutex
	count      int
	lastReview time.Time
	now        func() time.Time
}

// NewComboTracker creates a tracker using the wall clock.
func NewComboTracker() *ComboTracker {
	return &ComboTracker{now: time.Now}
}

// newComboTrackerAt creates a tracker with an injected clock, for tests.
func newComboTrackerAt(now func() time.Time) *ComboTracker {
	return &ComboTracker{now: now}
}

// Record registers one scored review and returns the combo count plus
// any bonus earned by this review. A gap longer than ComboWindow resets
// the streak, so the triggering review counts as the first of a new run.
func (c *ComboTracker) Record() (count, bonus int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !c.lastReview.IsZero() && now.Sub(c.lastReview) > ComboWindow {
		c.count = 0
	}
	c.count++
	c.lastReview = now

	return c.count, comboBonusAt(c.count)
}

// Count returns the current combo count without recording a review.
func (c *ComboTracker) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.lastReview.IsZero() && c.now().Sub(c.lastReview) > ComboWindow {
		return 0
	}
	return c.count
}

// Reset clears the combo.
func (c *ComboTracker) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count = 0
	c.lastReview = time.Time{}
}

// ComboBonus returns the highest threshold bonus met by count.
func ComboBonus(count int) int {
	bonus := 0
	for _, t := range comboThresholds {
		if count >= t.Count {
			bonus = t.Bonus
		}
	}
	return bonus
}

// comboBonusAt pays out only when count lands exactly on a threshold.
func comboBonusAt(count int) int {
	for _, t := range comboThresholds {
		if count == t.Count {
			return t.Bonus
		}
	}
	return 0
}
