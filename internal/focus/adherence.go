// Package focus implements focus-session tracking: the work/break
// state machine, adherence scoring and session recovery.
package focus

import "math"

// SessionPointsPerMinute converts work minutes into session base
// points. Distinct from the per-review constant in the points package.
const SessionPointsPerMinute = 2

// Adherence returns the work share of a session as a percentage.
// A session with no recorded time counts as fully adherent.
func Adherence(workMinutes, breakMinutes float64) float64 {
	total := workMinutes + breakMinutes
	if total == 0 {
		return 100
	}
	return workMinutes / total * 100
}

// PenaltyResult is the outcome of applying the penalty tiers.
type PenaltyResult struct {
	Penalty      int     `json:"penalty"`
	Rate         float64 `json:"rate"`
	IsIncomplete bool    `json:"is_incomplete"`
}

// Penalty applies the adherence penalty tiers to a session's base
// points. Tiers are evaluated high to low and do not overlap; sessions
// under 60% adherence are additionally marked incomplete.
func Penalty(adherence float64, basePoints int) PenaltyResult {
	var rate float64
	var incomplete bool
	switch {
	case adherence >= 80:
		rate = 0
	case adherence >= 60:
		rate = 0.25
	case adherence >= 40:
		rate = 0.5
		incomplete = true
	default:
		rate = 0.75
		incomplete = true
	}
	return PenaltyResult{
		Penalty:      int(math.Round(float64(basePoints) * rate)),
		Rate:         rate,
		IsIncomplete: incomplete,
	}
}

// SessionBasePoints is the pre-penalty score of a focus session.
func SessionBasePoints(workMinutes float64) int {
	return int(math.Round(workMinutes)) * SessionPointsPerMinute
}

// NetPoints applies a penalty to base points, floored at zero.
func NetPoints(basePoints, penalty int) int {
	net := basePoints - penalty
	if net < 0 {
		return 0
	}
	return net
}

// RecommendedBreakMinutes suggests a break length for the given work
// time, Pomodoro-style: five minutes per 25 worked, clamped to 5..20.
func RecommendedBreakMinutes(workMinutes float64) int {
	rec := int(math.Round(workMinutes / 25 * 5))
	if rec < 5 {
		return 5
	}
	if rec > 20 {
		return 20
	}
	return rec
}
