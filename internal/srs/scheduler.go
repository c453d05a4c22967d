package srs

import (
	"math"
	"time"
)

// ScheduleResult is the outcome of scheduling one review.
type ScheduleResult struct {
	NextReviewAt    time.Time `json:"next_review_at"`
	IntervalDays    float64   `json:"interval_days"`
	MasteryProgress float64   `json:"mastery_progress"`
	WillBeMastered  bool      `json:"will_be_mastered"`
}

// ComputeNextReview computes the next due time for an item being
// reviewed at now. Pure function of (item, mode, now).
//
// The review count indexes the mode's interval table, clamped to the
// last entry, so every review past the end of the table reuses the
// mastery interval. The due time keeps millisecond precision; cram
// modes rely on sub-hour intervals.
func ComputeNextReview(item *Item, mode Mode, now time.Time) ScheduleResult {
	idx := item.ReviewCount
	if idx > len(mode.Intervals)-1 {
		idx = len(mode.Intervals) - 1
	}
	hours := mode.Intervals[idx]

	next := now.Add(time.Duration(hours * float64(time.Hour)))

	// WillBeMastered uses the pre-increment count: it means "mastered
	// once this review completes", and first flips on the review taken
	// when ReviewCount already equals the requirement.
	return ScheduleResult{
		NextReviewAt:    next,
		IntervalDays:    hours / 24,
		MasteryProgress: math.Min(float64(item.ReviewCount+1)/float64(MasteryReviewsRequired), 1),
		WillBeMastered:  item.ReviewCount >= MasteryReviewsRequired,
	}
}

// ApplyReview mutates the item with the result of a review taken at
// now: bumps the count and stamps both review timestamps.
func ApplyReview(item *Item, res ScheduleResult, now time.Time) {
	item.ReviewCount++
	t := now
	item.LastReviewedAt = &t
	next := res.NextReviewAt
	item.NextReviewAt = &next
}
