// Package srs implements the spaced-repetition core: the learning mode
// table, the review scheduler and the review-timing classifier.
package srs

import "fmt"

// Global scheduling constants shared by every mode.
const (
	// MasteryReviewsRequired is how many completed reviews an item needs
	// before it is eligible for a mastery transition.
	MasteryReviewsRequired = 5

	// PerfectWindowHours is the half-width of the "perfect" timing window
	// around the due time. Mode tolerances do not affect it.
	PerfectWindowHours = 0.5
)

// ModeID identifies a learning mode.
type ModeID string

const (
	ModeUltracram ModeID = "ultracram"
	ModeCram      ModeID = "cram"
	ModeSteady    ModeID = "steady"
	ModeExtended  ModeID = "extended"
	ModeTest      ModeID = "test"
)

// Multipliers holds the per-timing-status scoring factors for a mode.
// There is deliberately no Early entry: early reviews score at the Late
// rate. Changing that would change historical point totals.
type Multipliers struct {
	OnTime   float64
	InWindow float64
	Late     float64
}

// Mode is an immutable learning mode definition.
type Mode struct {
	ID ModeID

	// Intervals holds hours-until-next-review indexed by review count.
	// The last entry is the mastery interval and repeats forever.
	Intervals []float64

	// WindowBefore and WindowAfter are the review-window tolerances in
	// hours around the due time.
	WindowBefore float64
	WindowAfter  float64

	Points Multipliers
}

// modes is the compiled-in mode table. Intervals are hours; sub-hour
// entries exist so the cram modes can schedule sub-minute reviews.
var modes = map[ModeID]Mode{
	ModeUltracram: {
		ID:           ModeUltracram,
		Intervals:    []float64{0.05, 0.25, 1, 3, 12, 24},
		WindowBefore: 0.1,
		WindowAfter:  0.25,
		Points:       Multipliers{OnTime: 2.0, InWindow: 1.5, Late: 0.75},
	},
	ModeCram: {
		ID:           ModeCram,
		Intervals:    []float64{1, 4, 12, 24, 72},
		WindowBefore: 0.5,
		WindowAfter:  1,
		Points:       Multipliers{OnTime: 1.75, InWindow: 1.25, Late: 0.75},
	},
	ModeSteady: {
		ID:           ModeSteady,
		Intervals:    []float64{24, 72, 168, 336, 720},
		WindowBefore: 12,
		WindowAfter:  24,
		Points:       Multipliers{OnTime: 1.5, InWindow: 1.0, Late: 0.5},
	},
	ModeExtended: {
		ID:           ModeExtended,
		Intervals:    []float64{48, 168, 504, 1008, 2160},
		WindowBefore: 24,
		WindowAfter:  48,
		Points:       Multipliers{OnTime: 1.5, InWindow: 1.0, Late: 0.5},
	},
	ModeTest: {
		ID:           ModeTest,
		Intervals:    []float64{12, 24, 48, 96, 168},
		WindowBefore: 6,
		WindowAfter:  12,
		Points:       Multipliers{OnTime: 1.5, InWindow: 1.0, Late: 0.5},
	},
}

// GetMode looks up a mode by id.
func GetMode(id ModeID) (Mode, error) {
	m, ok := modes[id]
	if !ok {
		return Mode{}, fmt.Errorf("srs: unknown learning mode %q", id)
	}
	return m, nil
}

// ModeOrDefault returns the mode for id, falling back to steady when the
// id is unknown. Persisted items may carry mode ids from older builds.
func ModeOrDefault(id ModeID) Mode {
	if m, ok := modes[id]; ok {
		return m
	}
	return modes[ModeSteady]
}

// Modes returns all known mode ids.
func Modes() []ModeID {
	ids := make([]ModeID, 0, len(modes))
	for id := range modes {
		ids = append(ids, id)
	}
	return ids
}
