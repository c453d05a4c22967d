// Package gamify orchestrates the review pipeline: it glues the
// scheduler, timing classifier and points engine to the store, keeps
// aggregate stats reconciled, and hands fresh achievement unlocks to
// the event bus.
package gamify

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/studyloop/studyloop/internal/achieve"
	"github.com/studyloop/studyloop/internal/events"
	"github.com/studyloop/studyloop/internal/focus"
	"github.com/studyloop/studyloop/internal/points"
	"github.com/studyloop/studyloop/internal/srs"
	"github.com/studyloop/studyloop/internal/storage"
)

// ErrItemNotFound is returned when a review targets an unknown item.
var ErrItemNotFound = errors.New("gamify: item not found")

// Service runs the review and stats pipeline for all users.
type Service struct {
	store *storage.Store
	bus   *events.Bus
	combo *points.ComboTracker
	clock func() time.Time
}

// NewService creates the service and wires it to the bus: ended focus
// sessions feed their net points into the user's total.
func NewService(store *storage.Store, bus *events.Bus) *Service {
	s := &Service{
		store: store,
		bus:   bus,
		combo: points.NewComboTracker(),
		clock: time.Now,
	}
	if bus != nil {
		bus.Subscribe(s.onSessionEnded, events.TypeSessionEnded)
	}
	return s
}

// ReviewResult is everything one completed review produced.
type ReviewResult struct {
	Item     *srs.Item          `json:"item"`
	Timing   srs.Timing         `json:"timing"`
	Schedule srs.ScheduleResult `json:"schedule"`
	Score    points.ReviewScore `json:"score"`

	ComboCount  int `json:"combo_count"`
	ComboBonus  int `json:"combo_bonus,omitempty"`
	StreakBonus int `json:"streak_bonus,omitempty"`
	// TotalPoints is the review score plus combo and streak bonuses.
	TotalPoints int `json:"total_points"`

	// MasteryEligible flags that the item may now be transitioned to
	// mastered. The transition itself stays a user decision.
	MasteryEligible bool `json:"mastery_eligible"`

	Unlocked []achieve.Achievement `json:"unlocked,omitempty"`
}

// RecordReview processes one completed review of an item.
//
// The item update is the only write that can fail the review: once the
// item's new schedule is persisted, every downstream failure (event
// log, stats cache, unlock rows) is logged and skipped rather than
// rolled back: the review happened, and reconciliation heals the
// caches from the event log later.
func (s *Service) RecordReview(userID, itemID string) (*ReviewResult, error) {
	item, err := s.store.Item(itemID)
	if err != nil {
		return nil, fmt.Errorf("gamify: load item: %w", err)
	}
	if item == nil || item.UserID != userID {
		return nil, ErrItemNotFound
	}

	now := s.clock()
	mode := srs.ModeOrDefault(item.Mode)

	timing := srs.Classify(item, mode, now)
	schedule := srs.ComputeNextReview(item, mode, now)
	score := points.ScoreReview(item, mode, timing)
	srs.ApplyReview(item, schedule, now)

	if err := s.store.UpdateItem(item); err != nil {
		return nil, fmt.Errorf("gamify: persist review: %w", err)
	}

	comboCount, comboBonus := s.combo.Record()
	total := score.TotalPoints + comboBonus

	if err := s.store.AppendReviewEvent(userID, itemID, now, string(timing.Status), total); err != nil {
		log.Printf("[gamify] review event append failed: %v", err)
	}

	streakBonus := s.settleStreak(userID, now)
	total += streakBonus

	if err := s.store.AddPoints(userID, total); err != nil {
		log.Printf("[gamify] points update failed: %v", err)
	}

	result := &ReviewResult{
		Item:            item,
		Timing:          timing,
		Schedule:        schedule,
		Score:           score,
		ComboCount:      comboCount,
		ComboBonus:      comboBonus,
		StreakBonus:     streakBonus,
		TotalPoints:     total,
		MasteryEligible: item.MasteryEligible(),
	}
	result.Unlocked = s.settleAchievements(userID)

	s.publish(events.TypeStatsChanged, userID, nil)
	return result, nil
}

// settleStreak reconciles the streak from the review log and pays the
// threshold bonus when the streak lands on a new one. Returns the bonus.
func (s *Service) settleStreak(userID string, now time.Time) int {
	times, err := s.store.ReviewTimes(userID)
	if err != nil {
		log.Printf("[gamify] streak reconciliation failed: %v", err)
		return 0
	}
	streak := points.ReconcileStreak(times, now)

	st, err := s.store.UserStats(userID)
	if err != nil {
		log.Printf("[gamify] stats load failed: %v", err)
		return 0
	}

	bonus := 0
	if streak > st.CurrentStreak && points.StreakBonus(streak) != points.StreakBonus(streak-1) {
		bonus = points.StreakBonus(streak)
	}

	st.CurrentStreak = streak
	if streak > st.LongestStreak {
		st.LongestStreak = streak
	}
	t := now
	st.LastReviewDate = &t
	if err := s.store.SaveUserStats(st); err != nil {
		log.Printf("[gamify] stats save failed: %v", err)
	}
	return bonus
}

// settleAchievements evaluates the catalog against fresh aggregates,
// records new unlocks, pays their bonuses and announces them.
func (s *Service) settleAchievements(userID string) []achieve.Achievement {
	stats, err := s.aggregate(userID)
	if err != nil {
		log.Printf("[gamify] achievement aggregation failed: %v", err)
		return nil
	}
	unlocked, err := s.store.UnlockedAchievements(userID)
	if err != nil {
		log.Printf("[gamify] unlock lookup failed: %v", err)
		return nil
	}

	fresh := achieve.Evaluate(stats, unlocked)
	for _, a := range fresh {
		if err := s.store.RecordUnlock(userID, a.ID); err != nil {
			log.Printf("[gamify] unlock record failed for %s: %v", a.ID, err)
			continue
		}
		if err := s.store.AddPoints(userID, a.Bonus); err != nil {
			log.Printf("[gamify] unlock bonus failed for %s: %v", a.ID, err)
		}
		log.Printf("[gamify] achievement unlocked for %s: %s", userID, a.ID)
		s.publish(events.TypeAchievementUnlocked, userID, a)
	}
	return fresh
}

// aggregate assembles the evaluator's stats snapshot from the store.
func (s *Service) aggregate(userID string) (achieve.Stats, error) {
	reviews, err := s.store.ReviewCount(userID)
	if err != nil {
		return achieve.Stats{}, err
	}
	mastered, err := s.store.MasteredCount(userID)
	if err != nil {
		return achieve.Stats{}, err
	}
	sessions, minutes, err := s.store.FocusAggregates(userID)
	if err != nil {
		return achieve.Stats{}, err
	}
	st, err := s.store.UserStats(userID)
	if err != nil {
		return achieve.Stats{}, err
	}

	return achieve.Stats{
		TotalReviews:  reviews,
		CurrentStreak: st.CurrentStreak,
		MasteredItems: mastered,
		Level:         points.LevelForPoints(st.TotalPoints).Level,
		TotalPoints:   st.TotalPoints,
		FocusSessions: sessions,
		FocusMinutes:  minutes,
	}, nil
}

// StatsView is the user-facing stats snapshot.
type StatsView struct {
	UserID        string           `json:"user_id"`
	TotalPoints   int              `json:"total_points"`
	TotalReviews  int              `json:"total_reviews"`
	CurrentStreak int              `json:"current_streak"`
	LongestStreak int              `json:"longest_streak"`
	ReviewsToday  int              `json:"reviews_today"`
	PointsToday   int              `json:"points_today"`
	Level         points.LevelInfo `json:"level"`
	ComboCount    int              `json:"combo_count"`
	MasteredItems int              `json:"mastered_items"`
	FocusSessions int              `json:"focus_sessions"`
	FocusMinutes  float64          `json:"focus_minutes"`
}

// Stats returns the reconciled stats snapshot. The streak is always
// recomputed from the review log; a drifted cache row is healed in
// place.
func (s *Service) Stats(userID string) (*StatsView, error) {
	st, err := s.store.UserStats(userID)
	if err != nil {
		return nil, fmt.Errorf("gamify: load stats: %w", err)
	}

	times, err := s.store.ReviewTimes(userID)
	if err != nil {
		return nil, fmt.Errorf("gamify: load review log: %w", err)
	}
	streak := points.ReconcileStreak(times, s.clock())
	if streak != st.CurrentStreak || streak > st.LongestStreak {
		st.CurrentStreak = streak
		if streak > st.LongestStreak {
			st.LongestStreak = streak
		}
		if err := s.store.SaveUserStats(st); err != nil {
			log.Printf("[gamify] stats heal failed: %v", err)
		}
	}

	mastered, err := s.store.MasteredCount(userID)
	if err != nil {
		return nil, fmt.Errorf("gamify: mastered count: %w", err)
	}
	sessions, minutes, err := s.store.FocusAggregates(userID)
	if err != nil {
		return nil, fmt.Errorf("gamify: focus aggregates: %w", err)
	}

	dayStart := s.clock().UTC().Truncate(24 * time.Hour)
	reviewsToday, pointsToday, err := s.store.ReviewActivitySince(userID, dayStart)
	if err != nil {
		return nil, fmt.Errorf("gamify: today counters: %w", err)
	}

	return &StatsView{
		UserID:        userID,
		TotalPoints:   st.TotalPoints,
		TotalReviews:  len(times),
		ReviewsToday:  reviewsToday,
		PointsToday:   pointsToday,
		CurrentStreak: st.CurrentStreak,
		LongestStreak: st.LongestStreak,
		Level:         points.LevelForPoints(st.TotalPoints),
		ComboCount:    s.combo.Count(),
		MasteredItems: mastered,
		FocusSessions: sessions,
		FocusMinutes:  minutes,
	}, nil
}

// DueQueue returns the user's due items in review order.
func (s *Service) DueQueue(userID string) ([]*srs.Item, error) {
	items, err := s.store.ItemsForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("gamify: load items: %w", err)
	}
	return srs.DueQueue(items, s.clock()), nil
}

// TransitionItem applies an explicit mastery-status change to an item.
func (s *Service) TransitionItem(userID, itemID string, to srs.MasteryStatus, maintenanceDays int) (*srs.Item, error) {
	item, err := s.store.Item(itemID)
	if err != nil {
		return nil, fmt.Errorf("gamify: load item: %w", err)
	}
	if item == nil || item.UserID != userID {
		return nil, ErrItemNotFound
	}

	if err := item.Transition(to, maintenanceDays, s.clock()); err != nil {
		return nil, err
	}
	if err := s.store.UpdateItem(item); err != nil {
		return nil, fmt.Errorf("gamify: persist transition: %w", err)
	}

	if to == srs.StatusMastered {
		s.settleAchievements(userID)
	}
	s.publish(events.TypeStatsChanged, userID, nil)
	return item, nil
}

// onSessionEnded credits an ended focus session's net points and
// re-evaluates achievements.
func (s *Service) onSessionEnded(evt events.Event) {
	summary, ok := evt.Payload.(*focus.Summary)
	if !ok || summary == nil {
		return
	}
	if summary.NetPoints > 0 {
		if err := s.store.AddPoints(evt.UserID, summary.NetPoints); err != nil {
			log.Printf("[gamify] session points failed: %v", err)
		}
	}
	s.settleAchievements(evt.UserID)
}

func (s *Service) publish(typ events.Type, userID string, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{Type: typ, UserID: userID, Payload: payload})
}
