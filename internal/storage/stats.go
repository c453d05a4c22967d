package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// UserStats is the cached aggregate row. The review-event log stays the
// source of truth; this row is reconciled against it on read.
type UserStats struct {
	UserID         string     `json:"user_id"`
	TotalPoints    int        `json:"total_points"`
	CurrentStreak  int        `json:"current_streak"`
	LongestStreak  int        `json:"longest_streak"`
	LastReviewDate *time.Time `json:"last_review_date,omitempty"`
}

// AppendReviewEvent adds one entry to the append-only review log.
func (s *Store) AppendReviewEvent(userID, itemID string, reviewedAt time.Time, timingStatus string, points int) error {
	_, err := s.db.Exec(`
		INSERT INTO review_events (user_id, item_id, reviewed_at, timing_status, points)
		VALUES (?, ?, ?, ?, ?)
	`, userID, itemID, reviewedAt, timingStatus, points)
	if err != nil {
		return fmt.Errorf("failed to append review event: %w", err)
	}
	return nil
}

// ReviewTimes returns every review timestamp for a user, oldest first.
// Feeds streak reconciliation.
func (s *Store) ReviewTimes(userID string) ([]time.Time, error) {
	rows, err := s.db.Query(`
		SELECT reviewed_at FROM review_events WHERE user_id = ? ORDER BY reviewed_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// ReviewActivitySince returns the review count and summed points from
// the event log at or after t. Feeds the today-counters on stats reads.
func (s *Store) ReviewActivitySince(userID string, t time.Time) (int, int, error) {
	var count int
	var pts sql.NullInt64
	err := s.db.QueryRow(`
		SELECT COUNT(*), SUM(points) FROM review_events
		WHERE user_id = ? AND reviewed_at >= ?
	`, userID, t).Scan(&count, &pts)
	if err != nil {
		return 0, 0, err
	}
	return count, int(pts.Int64), nil
}

// ReviewCount counts a user's review events.
func (s *Store) ReviewCount(userID string) (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM review_events WHERE user_id = ?
	`, userID).Scan(&n)
	return n, err
}

// UserStats reads the cached stats row, returning a zero row for a user
// with no history yet.
func (s *Store) UserStats(userID string) (*UserStats, error) {
	var st UserStats
	var last sql.NullTime
	err := s.db.QueryRow(`
		SELECT user_id, total_points, current_streak, longest_streak, last_review_date
		FROM user_stats WHERE user_id = ?
	`, userID).Scan(&st.UserID, &st.TotalPoints, &st.CurrentStreak, &st.LongestStreak, &last)
	if err == sql.ErrNoRows {
		return &UserStats{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	if last.Valid {
		t := last.Time
		st.LastReviewDate = &t
	}
	return &st, nil
}

// SaveUserStats upserts the cached stats row.
func (s *Store) SaveUserStats(st *UserStats) error {
	_, err := s.db.Exec(`
		INSERT INTO user_stats (user_id, total_points, current_streak, longest_streak, last_review_date, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			total_points = excluded.total_points,
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			last_review_date = excluded.last_review_date,
			updated_at = CURRENT_TIMESTAMP
	`, st.UserID, st.TotalPoints, st.CurrentStreak, st.LongestStreak, st.LastReviewDate)
	if err != nil {
		return fmt.Errorf("failed to save user stats: %w", err)
	}
	return nil
}

// AddPoints bumps a user's total, creating the row if needed.
func (s *Store) AddPoints(userID string, points int) error {
	_, err := s.db.Exec(`
		INSERT INTO user_stats (user_id, total_points) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			total_points = total_points + excluded.total_points,
			updated_at = CURRENT_TIMESTAMP
	`, userID, points)
	if err != nil {
		return fmt.Errorf("failed to add points: %w", err)
	}
	return nil
}

// UnlockedAchievements returns the set of achievement ids a user holds.
func (s *Store) UnlockedAchievements(userID string) (map[string]bool, error) {
	rows, err := s.db.Query(`
		SELECT achievement_id FROM achievement_unlocks WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	unlocked := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		unlocked[id] = true
	}
	return unlocked, rows.Err()
}

// RecordUnlock persists one achievement unlock. Safe to call twice: the
// composite key makes the second insert a no-op.
func (s *Store) RecordUnlock(userID, achievementID string) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO achievement_unlocks (user_id, achievement_id) VALUES (?, ?)
	`, userID, achievementID)
	if err != nil {
		return fmt.Errorf("failed to record unlock: %w", err)
	}
	return nil
}
