package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/studyloop/studyloop/internal/focus"
)

// CreateSession inserts a new focus session.
func (s *Store) CreateSession(sess *focus.Session) error {
	_, err := s.db.Exec(`
		INSERT INTO focus_sessions
		(id, user_id, started_at, ended_at, goal_minutes, total_work_minutes,
		 total_break_minutes, adherence_pct, is_active, is_incomplete,
		 points_earned, points_penalty)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.UserID, sess.StartedAt, sess.EndedAt, sess.GoalMinutes,
		sess.TotalWorkMinutes, sess.TotalBreakMinutes, sess.AdherencePct,
		sess.IsActive, sess.IsIncomplete, sess.PointsEarned, sess.PointsPenalty)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// UpdateSession rewrites a session's mutable state.
func (s *Store) UpdateSession(sess *focus.Session) error {
	_, err := s.db.Exec(`
		UPDATE focus_sessions
		SET ended_at = ?, goal_minutes = ?, total_work_minutes = ?,
		    total_break_minutes = ?, adherence_pct = ?, is_active = ?,
		    is_incomplete = ?, points_earned = ?, points_penalty = ?
		WHERE id = ?
	`, sess.EndedAt, sess.GoalMinutes, sess.TotalWorkMinutes,
		sess.TotalBreakMinutes, sess.AdherencePct, sess.IsActive,
		sess.IsIncomplete, sess.PointsEarned, sess.PointsPenalty, sess.ID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// Session retrieves a session by id. Returns (nil, nil) when absent.
func (s *Store) Session(id string) (*focus.Session, error) {
	row := s.db.QueryRow(sessionSelect+` WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sess, err
}

// ActiveSession returns the user's active session, or (nil, nil).
func (s *Store) ActiveSession(userID string) (*focus.Session, error) {
	row := s.db.QueryRow(sessionSelect+`
		WHERE user_id = ? AND is_active = 1
		ORDER BY started_at DESC LIMIT 1
	`, userID)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sess, err
}

// DiscardSession deletes a session and its segments.
func (s *Store) DiscardSession(id string) error {
	if _, err := s.db.Exec(`DELETE FROM focus_segments WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete segments: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM focus_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SessionsForUser returns a user's ended sessions, most recent first.
func (s *Store) SessionsForUser(userID string, limit int) ([]focus.Session, error) {
	rows, err := s.db.Query(sessionSelect+`
		WHERE user_id = ? AND is_active = 0
		ORDER BY started_at DESC LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []focus.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// FocusAggregates returns the ended-session count and total work minutes
// for a user, feeding the achievement evaluator.
func (s *Store) FocusAggregates(userID string) (int, float64, error) {
	var count int
	var minutes sql.NullFloat64
	err := s.db.QueryRow(`
		SELECT COUNT(*), SUM(total_work_minutes)
		FROM focus_sessions
		WHERE user_id = ? AND is_active = 0
	`, userID).Scan(&count, &minutes)
	if err != nil {
		return 0, 0, err
	}
	return count, minutes.Float64, nil
}

// CreateSegment inserts a new (open) segment.
func (s *Store) CreateSegment(seg *focus.Segment) error {
	_, err := s.db.Exec(`
		INSERT INTO focus_segments
		(id, session_id, segment_type, started_at, ended_at, duration_minutes)
		VALUES (?, ?, ?, ?, ?, ?)
	`, seg.ID, seg.SessionID, string(seg.Type), seg.StartedAt, seg.EndedAt, seg.DurationMinutes)
	if err != nil {
		return fmt.Errorf("failed to insert segment: %w", err)
	}
	return nil
}

// CloseSegment stamps a segment's end time and duration.
func (s *Store) CloseSegment(id string, endedAt time.Time, durationMinutes float64) error {
	_, err := s.db.Exec(`
		UPDATE focus_segments SET ended_at = ?, duration_minutes = ? WHERE id = ?
	`, endedAt, durationMinutes, id)
	if err != nil {
		return fmt.Errorf("failed to close segment: %w", err)
	}
	return nil
}

// OpenSegment returns the session's open segment, or (nil, nil).
func (s *Store) OpenSegment(sessionID string) (*focus.Segment, error) {
	row := s.db.QueryRow(`
		SELECT id, session_id, segment_type, started_at, ended_at, duration_minutes
		FROM focus_segments
		WHERE session_id = ? AND ended_at IS NULL
		ORDER BY started_at DESC LIMIT 1
	`, sessionID)
	seg, err := scanSegment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return seg, err
}

// Segments returns all segments of a session in start order.
func (s *Store) Segments(sessionID string) ([]focus.Segment, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, segment_type, started_at, ended_at, duration_minutes
		FROM focus_segments
		WHERE session_id = ?
		ORDER BY started_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segs []focus.Segment
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segs = append(segs, *seg)
	}
	return segs, rows.Err()
}

// EnqueueCompletion stores a session-completion payload for retry. The
// session id is the primary key, so re-queueing the same session
// overwrites rather than duplicates.
func (s *Store) EnqueueCompletion(sessionID string, payload []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO pending_completions (session_id, payload) VALUES (?, ?)
		ON CONFLICT(session_id) DO UPDATE SET payload = excluded.payload
	`, sessionID, string(payload))
	if err != nil {
		return fmt.Errorf("failed to queue completion: %w", err)
	}
	return nil
}

// PendingCompletions returns all queued completion payloads by session id.
func (s *Store) PendingCompletions() (map[string][]byte, error) {
	rows, err := s.db.Query(`SELECT session_id, payload FROM pending_completions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pending := make(map[string][]byte)
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		pending[id] = []byte(payload)
	}
	return pending, rows.Err()
}

// DeleteCompletion removes a replayed completion from the queue.
func (s *Store) DeleteCompletion(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM pending_completions WHERE session_id = ?`, sessionID)
	return err
}

const sessionSelect = `
	SELECT id, user_id, started_at, ended_at, goal_minutes, total_work_minutes,
	       total_break_minutes, adherence_pct, is_active, is_incomplete,
	       points_earned, points_penalty
	FROM focus_sessions`

func scanSession(row rowScanner) (*focus.Session, error) {
	var sess focus.Session
	var endedAt sql.NullTime

	err := row.Scan(&sess.ID, &sess.UserID, &sess.StartedAt, &endedAt,
		&sess.GoalMinutes, &sess.TotalWorkMinutes, &sess.TotalBreakMinutes,
		&sess.AdherencePct, &sess.IsActive, &sess.IsIncomplete,
		&sess.PointsEarned, &sess.PointsPenalty)
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		t := endedAt.Time
		sess.EndedAt = &t
	}
	return &sess, nil
}

func scanSegment(row rowScanner) (*focus.Segment, error) {
	var seg focus.Segment
	var typ string
	var endedAt sql.NullTime

	err := row.Scan(&seg.ID, &seg.SessionID, &typ, &seg.StartedAt, &endedAt, &seg.DurationMinutes)
	if err != nil {
		return nil, err
	}
	seg.Type = focus.SegmentType(typ)
	if endedAt.Valid {
		t := endedAt.Time
		seg.EndedAt = &t
	}
	return &seg, nil
}
