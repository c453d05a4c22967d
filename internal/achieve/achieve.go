// Package achieve scans aggregate user stats against achievement
// thresholds and reports which achievements newly unlock.
package achieve

// Stats is the aggregate snapshot the evaluator reads. It is assembled
// from reconciled values, never raw stored counters.
type Stats struct {
	TotalReviews  int     `json:"total_reviews"`
	CurrentStreak int     `json:"current_streak"`
	MasteredItems int     `json:"mastered_items"`
	Level         int     `json:"level"`
	TotalPoints   int     `json:"total_points"`
	FocusSessions int     `json:"focus_sessions"`
	FocusMinutes  float64 `json:"focus_minutes"`
}

// Achievement is one unlockable milestone. Bonus points feed back into
// the level computation once the unlock is recorded.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Bonus       int    `json:"bonus"`
	met         func(Stats) bool
}

// Catalog is the full achievement table, in display order.
var Catalog = []Achievement{
	{"first-review", "First Steps", "Complete your first review", 10,
		func(s Stats) bool { return s.TotalReviews >= 1 }},
	{"reviews-50", "Getting Serious", "Complete 50 reviews", 25,
		func(s Stats) bool { return s.TotalReviews >= 50 }},
	{"reviews-250", "Dedicated", "Complete 250 reviews", 75,
		func(s Stats) bool { return s.TotalReviews >= 250 }},
	{"reviews-1000", "Relentless", "Complete 1000 reviews", 200,
		func(s Stats) bool { return s.TotalReviews >= 1000 }},
	{"streak-3", "Warming Up", "Review 3 days in a row", 15,
		func(s Stats) bool { return s.CurrentStreak >= 3 }},
	{"streak-7", "One Week Strong", "Review 7 days in a row", 50,
		func(s Stats) bool { return s.CurrentStreak >= 7 }},
	{"streak-30", "Habit Formed", "Review 30 days in a row", 150,
		func(s Stats) bool { return s.CurrentStreak >= 30 }},
	{"mastered-1", "First Mastery", "Master your first item", 20,
		func(s Stats) bool { return s.MasteredItems >= 1 }},
	{"mastered-25", "Scholar", "Master 25 items", 100,
		func(s Stats) bool { return s.MasteredItems >= 25 }},
	{"mastered-100", "Walking Library", "Master 100 items", 300,
		func(s Stats) bool { return s.MasteredItems >= 100 }},
	{"level-5", "Climbing", "Reach level 5", 50,
		func(s Stats) bool { return s.Level >= 5 }},
	{"level-10", "High Achiever", "Reach level 10", 150,
		func(s Stats) bool { return s.Level >= 10 }},
	{"points-1000", "Point Collector", "Earn 1000 total points", 50,
		func(s Stats) bool { return s.TotalPoints >= 1000 }},
	{"points-10000", "Point Hoarder", "Earn 10000 total points", 250,
		func(s Stats) bool { return s.TotalPoints >= 10000 }},
	{"focus-first", "In the Zone", "Complete your first focus session", 15,
		func(s Stats) bool { return s.FocusSessions >= 1 }},
	{"focus-10h", "Deep Worker", "Accumulate 10 hours of focus time", 100,
		func(s Stats) bool { return s.FocusMinutes >= 600 }},
	{"focus-100h", "Monk Mode", "Accumulate 100 hours of focus time", 500,
		func(s Stats) bool { return s.FocusMinutes >= 6000 }},
}

// Evaluate returns the achievements whose threshold stats meets and
// that are not already in unlocked. Idempotent: evaluating the same
// stats against the resulting unlocked set yields nothing.
func Evaluate(stats Stats, unlocked map[string]bool) []Achievement {
	var fresh []Achievement
	for _, a := range Catalog {
		if unlocked[a.ID] {
			continue
		}
		if a.met(stats) {
			fresh = append(fresh, a)
		}
	}
	return fresh
}

// Lookup returns the catalog entry for id.
func Lookup(id string) (Achievement, bool) {
	for _, a := range Catalog {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}
