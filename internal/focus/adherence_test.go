package focus

import (
	"math"
	"testing"
)

func TestAdherenceEdgeCases(t *testing.T) {
	if got := Adherence(0, 0); got != 100 {
		t.Errorf("Adherence(0,0) = %v, want 100", got)
	}
	if got := Adherence(50, 0); got != 100 {
		t.Errorf("Adherence(50,0) = %v, want 100", got)
	}
	if got := Adherence(0, 30); got != 0 {
		t.Errorf("Adherence(0,30) = %v, want 0", got)
	}
}

func TestPenaltyTiers(t *testing.T) {
	tests := []struct {
		adherence      float64
		wantRate       float64
		wantIncomplete bool
	}{
		{100, 0, false},
		{80, 0, false},
		{79.9, 0.25, false},
		{60, 0.25, false},
		{59.9, 0.5, true},
		{40, 0.5, true},
		{39.9, 0.75, true},
		{0, 0.75, true},
	}
	for _, tt := range tests {
		got := Penalty(tt.adherence, 100)
		if got.Rate != tt.wantRate {
			t.Errorf("Penalty(%v).Rate = %v, want %v", tt.adherence, got.Rate, tt.wantRate)
		}
		if got.IsIncomplete != tt.wantIncomplete {
			t.Errorf("Penalty(%v).IsIncomplete = %v, want %v", tt.adherence, got.IsIncomplete, tt.wantIncomplete)
		}
	}
}

func TestPenaltyMonotonic(t *testing.T) {
	// Penalty never increases as adherence improves, and incomplete
	// holds exactly below 60%.
	prev := math.MaxInt
	for a := 0.0; a <= 100; a += 0.5 {
		got := Penalty(a, 200)
		if got.Penalty > prev {
			t.Fatalf("penalty increased at adherence %v", a)
		}
		prev = got.Penalty
		if got.IsIncomplete != (a < 60) {
			t.Errorf("IsIncomplete at %v = %v", a, got.IsIncomplete)
		}
	}
}

func TestSessionScoring(t *testing.T) {
	// Scenario: 50 work / 10 break is 83.33%, no penalty.
	adherence := Adherence(50, 10)
	if math.Abs(adherence-83.3333) > 0.001 {
		t.Errorf("adherence = %v, want 83.33", adherence)
	}
	base := SessionBasePoints(50)
	if base != 100 {
		t.Errorf("base = %d, want 100", base)
	}
	pen := Penalty(adherence, base)
	if pen.Penalty != 0 || pen.IsIncomplete {
		t.Errorf("penalty = %+v, want none", pen)
	}
	if got := NetPoints(base, pen.Penalty); got != 100 {
		t.Errorf("net = %d, want 100", got)
	}

	// Scenario: 20 work / 30 break is 40%, half penalty, incomplete.
	adherence = Adherence(20, 30)
	if adherence != 40 {
		t.Errorf("adherence = %v, want 40", adherence)
	}
	base = SessionBasePoints(20)
	if base != 40 {
		t.Errorf("base = %d, want 40", base)
	}
	pen = Penalty(adherence, base)
	if pen.Penalty != 20 || !pen.IsIncomplete {
		t.Errorf("penalty = %+v, want 20/incomplete", pen)
	}
	if got := NetPoints(base, pen.Penalty); got != 20 {
		t.Errorf("net = %d, want 20", got)
	}
}

func TestNetPointsFloor(t *testing.T) {
	if got := NetPoints(10, 25); got != 0 {
		t.Errorf("NetPoints(10,25) = %d, want 0", got)
	}
}

func TestRecommendedBreakMinutes(t *testing.T) {
	tests := []struct {
		work float64
		want int
	}{
		{0, 5}, {10, 5}, {25, 5}, {50, 10}, {75, 15}, {100, 20}, {300, 20},
	}
	for _, tt := range tests {
		if got := RecommendedBreakMinutes(tt.work); got != tt.want {
			t.Errorf("RecommendedBreakMinutes(%v) = %d, want %d", tt.work, got, tt.want)
		}
	}
}
