package storage

import (
	"testing"
	"time"

	"github.com/studyloop/studyloop/internal/focus"
	"github.com/studyloop/studyloop/internal/srs"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestItemRoundTrip(t *testing.T) {
	s := newTestStore(t)

	it := srs.NewItem("item-1", "user-1", "topic-1", "kanji radicals", srs.ModeSteady)
	it.Priority = 5
	if err := s.CreateItem(it); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	got, err := s.Item("item-1")
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if got == nil {
		t.Fatal("Item returned nil")
	}
	if got.Priority != 5 || got.Mode != srs.ModeSteady || got.Status != srs.StatusActive {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.LastReviewedAt != nil || got.NextReviewAt != nil {
		t.Error("fresh item should have nil review timestamps")
	}

	next := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	got.ReviewCount = 3
	got.NextReviewAt = &next
	if err := s.UpdateItem(got); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	again, err := s.Item("item-1")
	if err != nil {
		t.Fatalf("Item after update: %v", err)
	}
	if again.ReviewCount != 3 {
		t.Errorf("ReviewCount = %d, want 3", again.ReviewCount)
	}
	if again.NextReviewAt == nil || !again.NextReviewAt.Equal(next) {
		t.Errorf("NextReviewAt = %v, want %v", again.NextReviewAt, next)
	}
}

func TestItemMissing(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Item("nope")
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if got != nil {
		t.Errorf("missing item returned %+v", got)
	}
}

func TestItemsForUserExcludesArchived(t *testing.T) {
	s := newTestStore(t)

	a := srs.NewItem("a", "u", "", "alpha", srs.ModeSteady)
	b := srs.NewItem("b", "u", "", "beta", srs.ModeSteady)
	b.Status = srs.StatusArchived
	for _, it := range []*srs.Item{a, b} {
		if err := s.CreateItem(it); err != nil {
			t.Fatalf("CreateItem: %v", err)
		}
	}

	items, err := s.ItemsForUser("u")
	if err != nil {
		t.Fatalf("ItemsForUser: %v", err)
	}
	if len(items) != 1 || items[0].ID != "a" {
		t.Errorf("got %d items, want only the active one", len(items))
	}
}

func TestMasteredCount(t *testing.T) {
	s := newTestStore(t)

	for i, status := range []srs.MasteryStatus{srs.StatusMastered, srs.StatusMastered, srs.StatusActive} {
		it := srs.NewItem(string(rune('a'+i)), "u", "", "x", srs.ModeSteady)
		it.Status = status
		if err := s.CreateItem(it); err != nil {
			t.Fatalf("CreateItem: %v", err)
		}
	}

	n, err := s.MasteredCount("u")
	if err != nil {
		t.Fatalf("MasteredCount: %v", err)
	}
	if n != 2 {
		t.Errorf("MasteredCount = %d, want 2", n)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	start := time.Now().UTC().Truncate(time.Second)

	sess := &focus.Session{
		ID:          "sess-1",
		UserID:      "u",
		StartedAt:   start,
		GoalMinutes: 60,
		IsActive:    true,
	}
	if err := s.CreateSession(sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	active, err := s.ActiveSession("u")
	if err != nil {
		t.Fatalf("ActiveSession: %v", err)
	}
	if active == nil || active.ID != "sess-1" {
		t.Fatalf("ActiveSession = %+v", active)
	}

	end := start.Add(50 * time.Minute)
	sess.EndedAt = &end
	sess.IsActive = false
	sess.TotalWorkMinutes = 45
	sess.TotalBreakMinutes = 5
	sess.AdherencePct = 90
	sess.PointsEarned = 90
	if err := s.UpdateSession(sess); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	if active, err = s.ActiveSession("u"); err != nil {
		t.Fatalf("ActiveSession after end: %v", err)
	} else if active != nil {
		t.Errorf("ended session still reported active: %+v", active)
	}

	got, err := s.Session("sess-1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if got.EndedAt == nil || got.TotalWorkMinutes != 45 || got.PointsEarned != 90 {
		t.Errorf("ended session mismatch: %+v", got)
	}

	count, minutes, err := s.FocusAggregates("u")
	if err != nil {
		t.Fatalf("FocusAggregates: %v", err)
	}
	if count != 1 || minutes != 45 {
		t.Errorf("FocusAggregates = (%d, %v), want (1, 45)", count, minutes)
	}
}

func TestSegmentsAndDiscard(t *testing.T) {
	s := newTestStore(t)
	start := time.Now().UTC().Truncate(time.Second)

	sess := &focus.Session{ID: "sess-1", UserID: "u", StartedAt: start, GoalMinutes: 60, IsActive: true}
	if err := s.CreateSession(sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	seg := &focus.Segment{ID: "seg-1", SessionID: "sess-1", Type: focus.SegmentWork, StartedAt: start}
	if err := s.CreateSegment(seg); err != nil {
		t.Fatalf("CreateSegment: %v", err)
	}

	open, err := s.OpenSegment("sess-1")
	if err != nil {
		t.Fatalf("OpenSegment: %v", err)
	}
	if open == nil || open.ID != "seg-1" || open.Type != focus.SegmentWork {
		t.Fatalf("OpenSegment = %+v", open)
	}

	if err := s.CloseSegment("seg-1", start.Add(25*time.Minute), 25); err != nil {
		t.Fatalf("CloseSegment: %v", err)
	}
	if open, err = s.OpenSegment("sess-1"); err != nil {
		t.Fatalf("OpenSegment after close: %v", err)
	} else if open != nil {
		t.Errorf("closed segment still open: %+v", open)
	}

	segs, err := s.Segments("sess-1")
	if err != nil {
		t.Fatalf("Segments: %v", err)
	}
	if len(segs) != 1 || segs[0].DurationMinutes != 25 || segs[0].EndedAt == nil {
		t.Errorf("Segments = %+v", segs)
	}

	if err := s.DiscardSession("sess-1"); err != nil {
		t.Fatalf("DiscardSession: %v", err)
	}
	if got, err := s.Session("sess-1"); err != nil || got != nil {
		t.Errorf("discarded session still present: %+v, %v", got, err)
	}
	if segs, err = s.Segments("sess-1"); err != nil || len(segs) != 0 {
		t.Errorf("discarded segments still present: %+v, %v", segs, err)
	}
}

func TestCompletionQueue(t *testing.T) {
	s := newTestStore(t)

	if err := s.EnqueueCompletion("sess-1", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("EnqueueCompletion: %v", err)
	}
	// Same key overwrites rather than duplicating.
	if err := s.EnqueueCompletion("sess-1", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("EnqueueCompletion again: %v", err)
	}

	pending, err := s.PendingCompletions()
	if err != nil {
		t.Fatalf("PendingCompletions: %v", err)
	}
	if len(pending) != 1 || string(pending["sess-1"]) != `{"v":2}` {
		t.Errorf("pending = %v", pending)
	}

	if err := s.DeleteCompletion("sess-1"); err != nil {
		t.Fatalf("DeleteCompletion: %v", err)
	}
	if pending, err = s.PendingCompletions(); err != nil || len(pending) != 0 {
		t.Errorf("queue not drained: %v, %v", pending, err)
	}
}

func TestReviewLogAndStats(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	for i := 0; i < 3; i++ {
		at := now.Add(time.Duration(-i) * 24 * time.Hour)
		if err := s.AppendReviewEvent("u", "item-1", at, "perfect", 15); err != nil {
			t.Fatalf("AppendReviewEvent: %v", err)
		}
	}

	times, err := s.ReviewTimes("u")
	if err != nil {
		t.Fatalf("ReviewTimes: %v", err)
	}
	if len(times) != 3 {
		t.Fatalf("ReviewTimes returned %d entries", len(times))
	}
	if !times[0].Before(times[1]) || !times[1].Before(times[2]) {
		t.Error("ReviewTimes not in ascending order")
	}

	if n, err := s.ReviewCount("u"); err != nil || n != 3 {
		t.Errorf("ReviewCount = %d, %v", n, err)
	}

	count, pts, err := s.ReviewActivitySince("u", now.Add(-36*time.Hour))
	if err != nil {
		t.Fatalf("ReviewActivitySince: %v", err)
	}
	if count != 2 || pts != 30 {
		t.Errorf("activity since = (%d, %d), want (2, 30)", count, pts)
	}

	st, err := s.UserStats("u")
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if st.TotalPoints != 0 {
		t.Errorf("fresh stats row has points: %+v", st)
	}

	st.TotalPoints = 45
	st.CurrentStreak = 3
	st.LongestStreak = 3
	if err := s.SaveUserStats(st); err != nil {
		t.Fatalf("SaveUserStats: %v", err)
	}
	if err := s.AddPoints("u", 10); err != nil {
		t.Fatalf("AddPoints: %v", err)
	}

	st, err = s.UserStats("u")
	if err != nil {
		t.Fatalf("UserStats reload: %v", err)
	}
	if st.TotalPoints != 55 || st.CurrentStreak != 3 {
		t.Errorf("stats after save = %+v", st)
	}
}

func TestAchievementUnlocks(t *testing.T) {
	s := newTestStore(t)

	if err := s.RecordUnlock("u", "first-review"); err != nil {
		t.Fatalf("RecordUnlock: %v", err)
	}
	// Re-recording is a no-op, not an error.
	if err := s.RecordUnlock("u", "first-review"); err != nil {
		t.Fatalf("RecordUnlock twice: %v", err)
	}
	if err := s.RecordUnlock("u", "streak-3"); err != nil {
		t.Fatalf("RecordUnlock: %v", err)
	}

	unlocked, err := s.UnlockedAchievements("u")
	if err != nil {
		t.Fatalf("UnlockedAchievements: %v", err)
	}
	if len(unlocked) != 2 || !unlocked["first-review"] || !unlocked["streak-3"] {
		t.Errorf("unlocked = %v", unlocked)
	}
}
