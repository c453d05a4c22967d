// Package points implements the gamification layer: per-review scoring,
// session combos, streak bonuses and level progression.
package points

import (
	"math"

	"github.com/studyloop/studyloop/internal/srs"
)

// BasePoints is the flat score of one review before multipliers.
const BasePoints = 10

// priorityMultipliers maps item priority 1..5 to its scoring factor.
var priorityMultipliers = map[int]float64{
	1: 0.5,
	2: 0.75,
	3: 1.0,
	4: 1.25,
	5: 1.5,
}

// ReviewScore is the points breakdown for one review.
type ReviewScore struct {
	BasePoints      int     `json:"base_points"`
	TimeBonus       float64 `json:"time_bonus"`
	PriorityBonus   float64 `json:"priority_bonus"`
	TotalPoints     int     `json:"total_points"`
	IsPerfectTiming bool    `json:"is_perfect_timing"`
}

// ScoreReview computes the points for a review classified as timing.
//
// The mode table has no early multiplier, so early reviews score at the
// late rate. That asymmetry is load-bearing for historical totals; do
// not "fix" it here.
func ScoreReview(item *srs.Item, mode srs.Mode, timing srs.Timing) ReviewScore {
	var timeBonus float64
	switch timing.Status {
	case srs.TimingPerfect:
		timeBonus = mode.Points.OnTime
	case srs.TimingInWindow:
		timeBonus = mode.Points.InWindow
	default: // late and early
		timeBonus = mode.Points.Late
	}

	priorityBonus, ok := priorityMultipliers[item.Priority]
	if !ok {
		priorityBonus = 1.0
	}

	return ReviewScore{
		BasePoints:      BasePoints,
		TimeBonus:       timeBonus,
		PriorityBonus:   priorityBonus,
		TotalPoints:     int(math.Round(BasePoints * timeBonus * priorityBonus)),
		IsPerfectTiming: timing.Status == srs.TimingPerfect,
	}
}
