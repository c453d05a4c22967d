package srs

import (
	"fmt"
	"time"
)

// MasteryStatus is the lifecycle state of a learning item.
type MasteryStatus string

const (
	StatusActive      MasteryStatus = "active"
	StatusMastered    MasteryStatus = "mastered"
	StatusMaintenance MasteryStatus = "maintenance"
	StatusArchived    MasteryStatus = "archived"
	StatusRepeat      MasteryStatus = "repeat"
)

// Item is one atomic fact to be learned.
//
// Invariant: ReviewCount == 0 if and only if NextReviewAt == nil. A never-reviewed
// item has no due date; it is "ready to learn", never "due".
type Item struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	TopicID string `json:"topic_id"`
	Content string `json:"content"`

	// Priority 1 (lowest) to 5 (highest). Feeds queue ordering and the
	// points priority multiplier.
	Priority int `json:"priority"`

	ReviewCount    int        `json:"review_count"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	NextReviewAt   *time.Time `json:"next_review_at,omitempty"`

	// EaseFactor is carried for compatibility with per-item tuning but is
	// not altered by the scheduler.
	EaseFactor float64 `json:"ease_factor"`

	Status MasteryStatus `json:"status"`

	// MaintenanceIntervalDays is set only while Status is maintenance.
	MaintenanceIntervalDays *int `json:"maintenance_interval_days,omitempty"`

	Mode      ModeID    `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
}

// NewItem creates an unreviewed item with sane defaults.
func NewItem(id, userID, topicID, content string, mode ModeID) *Item {
	return &Item{
		ID:         id,
		UserID:     userID,
		TopicID:    topicID,
		Content:    content,
		Priority:   3,
		EaseFactor: 2.5,
		Status:     StatusActive,
		Mode:       mode,
		CreatedAt:  time.Now(),
	}
}

// MasteryEligible reports whether the item has enough reviews to be
// offered a mastery transition. The transition itself is a user
// decision, never automatic.
func (it *Item) MasteryEligible() bool {
	return it.ReviewCount >= MasteryReviewsRequired
}

// Malformed reports the reviewed-but-undated integrity violation. Such
// items are excluded from the due queue instead of crashing it.
func (it *Item) Malformed() bool {
	return it.ReviewCount > 0 && it.NextReviewAt == nil
}

// Transition applies an explicit status change, adjusting the interval
// state as each status requires.
func (it *Item) Transition(to MasteryStatus, maintenanceDays int, now time.Time) error {
	switch to {
	case StatusRepeat:
		// Start the interval sequence over from scratch.
		it.ReviewCount = 0
		it.LastReviewedAt = nil
		it.NextReviewAt = nil
		it.MaintenanceIntervalDays = nil
	case StatusMastered, StatusArchived:
		// Freeze progression where it stands.
		it.MaintenanceIntervalDays = nil
	case StatusMaintenance:
		if maintenanceDays <= 0 {
			return fmt.Errorf("srs: maintenance interval must be positive, got %d", maintenanceDays)
		}
		d := maintenanceDays
		it.MaintenanceIntervalDays = &d
		next := now.Add(time.Duration(maintenanceDays) * 24 * time.Hour)
		it.NextReviewAt = &next
	case StatusActive:
		it.MaintenanceIntervalDays = nil
	default:
		return fmt.Errorf("srs: unknown mastery status %q", to)
	}
	it.Status = to
	return nil
}
