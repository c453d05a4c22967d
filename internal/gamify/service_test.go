package gamify

import (
	"testing"
	"time"

	"github.com/studyloop/studyloop/internal/events"
	"github.com/studyloop/studyloop/internal/focus"
	"github.com/studyloop/studyloop/internal/srs"
	"github.com/studyloop/studyloop/internal/storage"
)

func newTestService(t *testing.T, now time.Time) (*Service, *storage.Store, *events.Bus) {
	t.Helper()
	store, err := storage.NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	bus := events.NewBus()
	svc := NewService(store, bus)
	svc.clock = func() time.Time { return now }
	return svc, store, bus
}

func seedItem(t *testing.T, store *storage.Store, id string) *srs.Item {
	t.Helper()
	it := srs.NewItem(id, "u", "topic", "content", srs.ModeSteady)
	if err := store.CreateItem(it); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return it
}

func TestRecordReviewFirstReview(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, store, _ := newTestService(t, now)
	seedItem(t, store, "item-1")

	res, err := svc.RecordReview("u", "item-1")
	if err != nil {
		t.Fatalf("RecordReview: %v", err)
	}

	// First review of a fresh item is perfect: 10 x 1.5 x 1.0.
	if res.Timing.Status != srs.TimingPerfect {
		t.Errorf("Timing = %s, want perfect", res.Timing.Status)
	}
	if res.Score.TotalPoints != 15 {
		t.Errorf("Score.TotalPoints = %d, want 15", res.Score.TotalPoints)
	}
	if res.ComboCount != 1 || res.ComboBonus != 0 {
		t.Errorf("combo = (%d, %d), want (1, 0)", res.ComboCount, res.ComboBonus)
	}
	if res.MasteryEligible {
		t.Error("one review should not be mastery eligible")
	}

	item, err := store.Item("item-1")
	if err != nil || item == nil {
		t.Fatalf("Item reload: %v", err)
	}
	if item.ReviewCount != 1 {
		t.Errorf("ReviewCount = %d, want 1", item.ReviewCount)
	}
	wantNext := now.Add(24 * time.Hour)
	if item.NextReviewAt == nil || !item.NextReviewAt.Equal(wantNext) {
		t.Errorf("NextReviewAt = %v, want %v", item.NextReviewAt, wantNext)
	}

	var gotFirst bool
	for _, a := range res.Unlocked {
		if a.ID == "first-review" {
			gotFirst = true
		}
	}
	if !gotFirst {
		t.Errorf("first review did not unlock first-review: %+v", res.Unlocked)
	}

	// 15 review points plus the 10-point unlock bonus.
	st, err := store.UserStats("u")
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if st.TotalPoints != 25 {
		t.Errorf("TotalPoints = %d, want 25", st.TotalPoints)
	}
}

func TestRecordReviewUnknownItem(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)

	if _, err := svc.RecordReview("u", "ghost"); err != ErrItemNotFound {
		t.Errorf("err = %v, want ErrItemNotFound", err)
	}
}

func TestRecordReviewWrongUser(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, store, _ := newTestService(t, now)
	seedItem(t, store, "item-1")

	if _, err := svc.RecordReview("someone-else", "item-1"); err != ErrItemNotFound {
		t.Errorf("err = %v, want ErrItemNotFound", err)
	}
}

func TestRecordReviewMasteryBoundary(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, store, _ := newTestService(t, now)

	it := seedItem(t, store, "item-1")
	it.ReviewCount = 5
	due := now
	it.NextReviewAt = &due
	if err := store.UpdateItem(it); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	res, err := svc.RecordReview("u", "item-1")
	if err != nil {
		t.Fatalf("RecordReview: %v", err)
	}
	if !res.Schedule.WillBeMastered {
		t.Error("sixth review should report WillBeMastered")
	}
	if !res.MasteryEligible {
		t.Error("item should be mastery eligible after sixth review")
	}
	if res.Schedule.MasteryProgress != 1 {
		t.Errorf("MasteryProgress = %v, want 1", res.Schedule.MasteryProgress)
	}

	// Mastery stays a user decision: status must not flip on its own.
	item, _ := store.Item("item-1")
	if item.Status != srs.StatusActive {
		t.Errorf("Status = %s, want active", item.Status)
	}
}

func TestRecordReviewStreakBonus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, store, _ := newTestService(t, now)
	seedItem(t, store, "item-1")

	// Two prior days of reviews; today's review makes a 3-day streak.
	for _, daysAgo := range []int{2, 1} {
		at := now.Add(time.Duration(-daysAgo) * 24 * time.Hour)
		if err := store.AppendReviewEvent("u", "old-item", at, "perfect", 15); err != nil {
			t.Fatalf("AppendReviewEvent: %v", err)
		}
	}

	res, err := svc.RecordReview("u", "item-1")
	if err != nil {
		t.Fatalf("RecordReview: %v", err)
	}
	if res.StreakBonus != 10 {
		t.Errorf("StreakBonus = %d, want 10", res.StreakBonus)
	}

	var gotStreak3 bool
	for _, a := range res.Unlocked {
		if a.ID == "streak-3" {
			gotStreak3 = true
		}
	}
	if !gotStreak3 {
		t.Errorf("3-day streak did not unlock streak-3: %+v", res.Unlocked)
	}

	st, err := store.UserStats("u")
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if st.CurrentStreak != 3 || st.LongestStreak != 3 {
		t.Errorf("streak cache = (%d, %d), want (3, 3)", st.CurrentStreak, st.LongestStreak)
	}
}

func TestRecordReviewStreakBonusNotRepaid(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, store, _ := newTestService(t, now)
	seedItem(t, store, "item-1")
	seedItem(t, store, "item-2")

	for _, daysAgo := range []int{2, 1} {
		at := now.Add(time.Duration(-daysAgo) * 24 * time.Hour)
		if err := store.AppendReviewEvent("u", "old-item", at, "perfect", 15); err != nil {
			t.Fatalf("AppendReviewEvent: %v", err)
		}
	}

	first, err := svc.RecordReview("u", "item-1")
	if err != nil {
		t.Fatalf("RecordReview: %v", err)
	}
	if first.StreakBonus != 10 {
		t.Fatalf("first StreakBonus = %d, want 10", first.StreakBonus)
	}

	// A second review the same day keeps the streak at 3: no new bonus.
	second, err := svc.RecordReview("u", "item-2")
	if err != nil {
		t.Fatalf("RecordReview: %v", err)
	}
	if second.StreakBonus != 0 {
		t.Errorf("second StreakBonus = %d, want 0", second.StreakBonus)
	}
}

func TestStatsSelfHeals(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, store, _ := newTestService(t, now)

	for _, daysAgo := range []int{1, 0} {
		at := now.Add(time.Duration(-daysAgo) * 24 * time.Hour)
		if err := store.AppendReviewEvent("u", "item", at, "perfect", 15); err != nil {
			t.Fatalf("AppendReviewEvent: %v", err)
		}
	}
	// Drifted cache: claims a streak the log does not support.
	if err := store.SaveUserStats(&storage.UserStats{UserID: "u", TotalPoints: 30, CurrentStreak: 99}); err != nil {
		t.Fatalf("SaveUserStats: %v", err)
	}

	view, err := svc.Stats("u")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if view.CurrentStreak != 2 {
		t.Errorf("CurrentStreak = %d, want 2", view.CurrentStreak)
	}
	if view.TotalReviews != 2 || view.TotalPoints != 30 {
		t.Errorf("view = %+v", view)
	}
	if view.ReviewsToday != 1 || view.PointsToday != 15 {
		t.Errorf("today counters = (%d, %d), want (1, 15)", view.ReviewsToday, view.PointsToday)
	}
	if view.Level.Level != 1 || view.Level.PointsIntoLevel != 30 {
		t.Errorf("Level = %+v", view.Level)
	}

	st, err := store.UserStats("u")
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if st.CurrentStreak != 2 {
		t.Errorf("cache not healed: streak = %d", st.CurrentStreak)
	}
}

func TestStatsEmptyUser(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newTestService(t, now)

	view, err := svc.Stats("nobody")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if view.TotalPoints != 0 || view.CurrentStreak != 0 || view.Level.Level != 1 {
		t.Errorf("empty view = %+v", view)
	}
}

func TestDueQueueOrdering(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, store, _ := newTestService(t, now)

	overdue := now.Add(-48 * time.Hour)
	lessOverdue := now.Add(-24 * time.Hour)

	low := seedItem(t, store, "low")
	low.Priority = 1
	low.ReviewCount = 1
	low.NextReviewAt = &overdue

	high := seedItem(t, store, "high")
	high.Priority = 5
	high.ReviewCount = 1
	high.NextReviewAt = &lessOverdue

	seedItem(t, store, "fresh") // never reviewed, must not appear

	for _, it := range []*srs.Item{low, high} {
		if err := store.UpdateItem(it); err != nil {
			t.Fatalf("UpdateItem: %v", err)
		}
	}

	queue, err := svc.DueQueue("u")
	if err != nil {
		t.Fatalf("DueQueue: %v", err)
	}
	if len(queue) != 2 {
		t.Fatalf("queue length = %d, want 2", len(queue))
	}
	if queue[0].ID != "high" || queue[1].ID != "low" {
		t.Errorf("queue order = [%s, %s], want [high, low]", queue[0].ID, queue[1].ID)
	}
}

func TestTransitionItemToMastered(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, store, _ := newTestService(t, now)

	it := seedItem(t, store, "item-1")
	it.ReviewCount = 5
	if err := store.UpdateItem(it); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	got, err := svc.TransitionItem("u", "item-1", srs.StatusMastered, 0)
	if err != nil {
		t.Fatalf("TransitionItem: %v", err)
	}
	if got.Status != srs.StatusMastered {
		t.Errorf("Status = %s, want mastered", got.Status)
	}

	unlocked, err := store.UnlockedAchievements("u")
	if err != nil {
		t.Fatalf("UnlockedAchievements: %v", err)
	}
	if !unlocked["mastered-1"] {
		t.Errorf("mastered-1 not unlocked: %v", unlocked)
	}
}

func TestSessionEndedCreditsPoints(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	_, store, bus := newTestService(t, now)

	bus.Publish(events.Event{
		Type:   events.TypeSessionEnded,
		UserID: "u",
		Payload: &focus.Summary{
			SessionID: "sess-1",
			NetPoints: 90,
		},
	})

	st, err := store.UserStats("u")
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if st.TotalPoints != 90 {
		t.Errorf("TotalPoints = %d, want 90", st.TotalPoints)
	}
}
