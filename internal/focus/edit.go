package focus

import (
	"errors"
	"fmt"
)

// Duration edits are one-directional: recorded time can only shrink.
// Anything else would let a session's points be inflated after the
// fact.
var (
	ErrSessionNotFound    = errors.New("focus: session not found")
	ErrSessionStillActive = errors.New("focus: cannot edit an active session")
)

// ReduceSessionDuration rewrites an ended session's work minutes to a
// smaller value and recomputes its adherence, penalty and points.
// Invalid edits are rejected outright; no partial mutation is applied.
func (e *Engine) ReduceSessionDuration(sessionID string, newWorkMinutes float64) (*Session, error) {
	s, err := e.store.Session(sessionID)
	if err != nil {
		return nil, fmt.Errorf("focus: load session: %w", err)
	}
	if s == nil {
		return nil, ErrSessionNotFound
	}
	if s.IsActive || s.EndedAt == nil {
		return nil, ErrSessionStillActive
	}
	if newWorkMinutes <= 0 {
		return nil, fmt.Errorf("focus: work minutes must be positive, got %.2f", newWorkMinutes)
	}
	if newWorkMinutes >= s.TotalWorkMinutes {
		return nil, fmt.Errorf("focus: duration edits may only reduce recorded time (%.2f >= %.2f)", newWorkMinutes, s.TotalWorkMinutes)
	}

	s.TotalWorkMinutes = newWorkMinutes
	s.AdherencePct = Adherence(s.TotalWorkMinutes, s.TotalBreakMinutes)

	base := SessionBasePoints(s.TotalWorkMinutes)
	pen := Penalty(s.AdherencePct, base)
	s.IsIncomplete = pen.IsIncomplete
	s.PointsEarned = NetPoints(base, pen.Penalty)
	s.PointsPenalty = pen.Penalty

	if err := e.store.UpdateSession(s); err != nil {
		return nil, fmt.Errorf("focus: persist duration edit: %w", err)
	}
	return s, nil
}
