package srs

import (
	"log"
	"math"
	"sort"
	"time"
)

// TimingStatus classifies a review's wall-clock time against its due time.
type TimingStatus string

const (
	TimingEarly    TimingStatus = "early"
	TimingPerfect  TimingStatus = "perfect"
	TimingInWindow TimingStatus = "in_window"
	TimingLate     TimingStatus = "late"
)

// Timing is the result of classifying one review.
type Timing struct {
	Status TimingStatus `json:"status"`
	// HoursOffset is now minus due time in hours; negative means the
	// review happened before the item was due.
	HoursOffset float64 `json:"hours_offset"`
}

// Classify places now relative to the item's due time.
//
// The perfect window is a fixed global constant; the early/late window
// comes from the mode. Items without a due date (never reviewed, or
// malformed) classify as perfect with zero offset so a first review
// always earns the on-time rate.
func Classify(item *Item, mode Mode, now time.Time) Timing {
	if item.NextReviewAt == nil {
		return Timing{Status: TimingPerfect}
	}

	due := *item.NextReviewAt
	offset := now.Sub(due).Hours()

	if math.Abs(offset) <= PerfectWindowHours {
		return Timing{Status: TimingPerfect, HoursOffset: offset}
	}

	earliest := due.Add(-time.Duration(mode.WindowBefore * float64(time.Hour)))
	latest := due.Add(time.Duration(mode.WindowAfter * float64(time.Hour)))

	switch {
	case now.Before(earliest):
		return Timing{Status: TimingEarly, HoursOffset: offset}
	case now.After(latest):
		return Timing{Status: TimingLate, HoursOffset: offset}
	default:
		return Timing{Status: TimingInWindow, HoursOffset: offset}
	}
}

// IsDue reports whether the item belongs in the due queue at now.
// Never-reviewed items are excluded: they are ready to learn, not due.
// Malformed items are excluded with a warning rather than crashing the
// queue.
func IsDue(item *Item, mode Mode, now time.Time) bool {
	if item.ReviewCount == 0 {
		return false
	}
	if item.NextReviewAt == nil {
		log.Printf("[srs] item %s has %d reviews but no due date, skipping", item.ID, item.ReviewCount)
		return false
	}
	earliest := item.NextReviewAt.Add(-time.Duration(mode.WindowBefore * float64(time.Hour)))
	return !now.Before(earliest)
}

// DueQueue filters items to those due at now and sorts them for review:
// descending priority, then ascending due time. Items without a due
// date sort first; that only matters for malformed state that slipped
// past the filter.
func DueQueue(items []*Item, now time.Time) []*Item {
	var due []*Item
	for _, it := range items {
		if IsDue(it, ModeOrDefault(it.Mode), now) {
			due = append(due, it)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i], due[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.NextReviewAt == nil {
			return b.NextReviewAt != nil
		}
		if b.NextReviewAt == nil {
			return false
		}
		return a.NextReviewAt.Before(*b.NextReviewAt)
	})

	return due
}
