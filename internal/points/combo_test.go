package points

import (
	"testing"
	"time"
)

func TestComboBonusAtThresholds(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tracker := newComboTrackerAt(func() time.Time { return now })

	wantBonus := map[int]int{5: 25, 10: 75, 25: 200, 50: 500}

	for i := 1; i <= 50; i++ {
		now = now.Add(time.Minute)
		count, bonus := tracker.Record()
		if count != i {
			t.Fatalf("count = %d, want %d", count, i)
		}
		if bonus != wantBonus[i] {
			t.Errorf("review %d: bonus = %d, want %d", i, bonus, wantBonus[i])
		}
	}
}

func TestComboResetsAfterGap(t *testing.T) {
	// Scenario: five tight reviews earn the 5-combo bonus; a 6-minute
	// gap resets the run, so the next review counts as 1 again.
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tracker := newComboTrackerAt(func() time.Time { return now })

	var lastBonus int
	for i := 0; i < 5; i++ {
		now = now.Add(4 * time.Minute)
		_, lastBonus = tracker.Record()
	}
	if lastBonus != 25 {
		t.Errorf("5th review bonus = %d, want 25", lastBonus)
	}

	now = now.Add(6 * time.Minute)
	count, bonus := tracker.Record()
	if count != 1 {
		t.Errorf("count after gap = %d, want 1", count)
	}
	if bonus != 0 {
		t.Errorf("bonus after gap = %d, want 0", bonus)
	}
}

func TestComboCountExpires(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tracker := newComboTrackerAt(func() time.Time { return now })

	tracker.Record()
	tracker.Record()
	if got := tracker.Count(); got != 2 {
		t.Errorf("Count = %d, want 2", got)
	}

	now = now.Add(10 * time.Minute)
	if got := tracker.Count(); got != 0 {
		t.Errorf("Count after expiry = %d, want 0", got)
	}
}

func TestComboBonusLookup(t *testing.T) {
	tests := []struct {
		count, want int
	}{
		{0, 0}, {4, 0}, {5, 25}, {9, 25}, {10, 75}, {24, 75},
		{25, 200}, {49, 200}, {50, 500}, {80, 500},
	}
	for _, tt := range tests {
		if got := ComboBonus(tt.count); got != tt.want {
			t.Errorf("ComboBonus(%d) = %d, want %d", tt.count, got, tt.want)
		}
	}
}

func TestStreakReconciliation(t *testing.T) {
	day := func(offset int) time.Time {
		return time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	}
	now := day(0)

	tests := []struct {
		name    string
		reviews []time.Time
		want    int
	}{
		{"no history", nil, 0},
		{"today only", []time.Time{day(0)}, 1},
		{"three consecutive ending today", []time.Time{day(-2), day(-1), day(0)}, 3},
		{"yesterday ended run, today pending", []time.Time{day(-2), day(-1)}, 2},
		{"gap two days ago", []time.Time{day(-3), day(-1), day(0)}, 2},
		{"stale history", []time.Time{day(-5), day(-4)}, 0},
		{"duplicate same-day reviews", []time.Time{day(0), day(0).Add(time.Hour), day(-1)}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReconcileStreak(tt.reviews, now); got != tt.want {
				t.Errorf("ReconcileStreak = %d, want %d", got, tt.want)
			}
		})
	}
}
