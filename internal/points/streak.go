package points

import "time"

// streakThresholds maps consecutive-day streak lengths to their bonus.
var streakThresholds = []struct {
	Days  int
	Bonus int
}{
	{3, 10},
	{7, 25},
	{14, 50},
	{30, 100},
	{60, 250},
	{100, 500},
	{365, 1000},
}

// StreakBonus returns the highest threshold bonus met by a streak.
func StreakBonus(days int) int {
	bonus := 0
	for _, t := range streakThresholds {
		if days >= t.Days {
			bonus = t.Bonus
		}
	}
	return bonus
}

// ReconcileStreak recomputes the current consecutive-day streak from
// raw review timestamps. The stored streak counter is only a cache and
// is allowed to drift; history is the source of truth, so this runs on
// every stats read.
//
// Days are UTC calendar days. The walk starts from today if a review
// happened today, otherwise from yesterday: a streak is not broken
// merely because today's review has not happened yet.
func ReconcileStreak(reviews []time.Time, now time.Time) int {
	if len(reviews) == 0 {
		return 0
	}

	days := make(map[string]bool, len(reviews))
	for _, r := range reviews {
		days[r.UTC().Format("2006-01-02")] = true
	}

	day := now.UTC().Truncate(24 * time.Hour)
	if !days[day.Format("2006-01-02")] {
		day = day.Add(-24 * time.Hour)
		if !days[day.Format("2006-01-02")] {
			return 0
		}
	}

	streak := 0
	for days[day.Format("2006-01-02")] {
		streak++
		day = day.Add(-24 * time.Hour)
	}
	return streak
}
