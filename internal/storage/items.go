package storage

import (
	"database/sql"
	"fmt"

	"github.com/studyloop/studyloop/internal/srs"
)

// CreateItem inserts a learning item.
func (s *Store) CreateItem(it *srs.Item) error {
	_, err := s.db.Exec(`
		INSERT INTO learning_items
		(id, user_id, topic_id, content, priority, review_count, last_reviewed_at,
		 next_review_at, ease_factor, status, maintenance_interval_days, mode, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, it.ID, it.UserID, it.TopicID, it.Content, it.Priority, it.ReviewCount,
		it.LastReviewedAt, it.NextReviewAt, it.EaseFactor, string(it.Status),
		it.MaintenanceIntervalDays, string(it.Mode), it.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

// UpdateItem rewrites an item's mutable state.
func (s *Store) UpdateItem(it *srs.Item) error {
	_, err := s.db.Exec(`
		UPDATE learning_items
		SET priority = ?, review_count = ?, last_reviewed_at = ?, next_review_at = ?,
		    ease_factor = ?, status = ?, maintenance_interval_days = ?, mode = ?
		WHERE id = ?
	`, it.Priority, it.ReviewCount, it.LastReviewedAt, it.NextReviewAt,
		it.EaseFactor, string(it.Status), it.MaintenanceIntervalDays, string(it.Mode), it.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

// Item retrieves one item by id. Returns (nil, nil) when absent.
func (s *Store) Item(id string) (*srs.Item, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, topic_id, content, priority, review_count, last_reviewed_at,
		       next_review_at, ease_factor, status, maintenance_interval_days, mode, created_at
		FROM learning_items WHERE id = ?
	`, id)

	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return it, err
}

// ItemsForUser retrieves all non-archived items owned by a user.
func (s *Store) ItemsForUser(userID string) ([]*srs.Item, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, topic_id, content, priority, review_count, last_reviewed_at,
		       next_review_at, ease_factor, status, maintenance_interval_days, mode, created_at
		FROM learning_items
		WHERE user_id = ? AND status != 'archived'
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*srs.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// MasteredCount counts a user's mastered items.
func (s *Store) MasteredCount(userID string) (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM learning_items WHERE user_id = ? AND status = 'mastered'
	`, userID).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*srs.Item, error) {
	var it srs.Item
	var topicID, content, status, mode sql.NullString
	var lastReviewed, nextReview sql.NullTime
	var maintenanceDays sql.NullInt64

	err := row.Scan(&it.ID, &it.UserID, &topicID, &content, &it.Priority,
		&it.ReviewCount, &lastReviewed, &nextReview, &it.EaseFactor,
		&status, &maintenanceDays, &mode, &it.CreatedAt)
	if err != nil {
		return nil, err
	}

	it.TopicID = topicID.String
	it.Content = content.String
	it.Status = srs.MasteryStatus(status.String)
	it.Mode = srs.ModeID(mode.String)
	if lastReviewed.Valid {
		t := lastReviewed.Time
		it.LastReviewedAt = &t
	}
	if nextReview.Valid {
		t := nextReview.Time
		it.NextReviewAt = &t
	}
	if maintenanceDays.Valid {
		d := int(maintenanceDays.Int64)
		it.MaintenanceIntervalDays = &d
	}
	return &it, nil
}
