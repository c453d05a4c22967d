package focus

import (
	"fmt"
	"log"
)

// LoadActive reconstructs engine state from the persisted active
// session, if any. Called on startup and whenever another instance may
// have changed the session.
//
// An open segment older than StaleSegmentAge is healed rather than
// resumed: it is closed with a capped duration and the engine comes up
// idle with a recovery prompt. Stale-and-idle sessions with under a
// minute of work, or an invalid goal, are discarded without prompting.
func (e *Engine) LoadActive() (*RecoveredState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.store.ActiveSession(e.userID)
	if err != nil {
		return nil, fmt.Errorf("focus: load active session: %w", err)
	}
	if s == nil {
		e.status = StatusIdle
		return &RecoveredState{Status: StatusIdle}, nil
	}

	now := e.clock()

	// A freshly discarded session may still be visible to a concurrent
	// read; the fence keeps it dead.
	if e.fencedSessionID == s.ID && now.Sub(e.fencedAt) < DiscardFenceTTL {
		log.Printf("[focus] ignoring fenced session %s", s.ID)
		e.status = StatusIdle
		return &RecoveredState{Status: StatusIdle}, nil
	}

	segs, err := e.store.Segments(s.ID)
	if err != nil {
		return nil, fmt.Errorf("focus: load segments: %w", err)
	}

	var workSec, breakSec float64
	var open *Segment
	for i := range segs {
		seg := segs[i]
		if seg.EndedAt == nil {
			open = &seg
			continue
		}
		if seg.Type == SegmentWork {
			workSec += seg.DurationMinutes * 60
		} else {
			breakSec += seg.DurationMinutes * 60
		}
	}

	status := StatusIdle
	needsPrompt := false

	if open != nil {
		age := now.Sub(open.StartedAt)
		if age > StaleSegmentAge {
			// Heal: close with a capped duration instead of recording
			// hours of phantom time.
			capMin := float64(StaleWorkCapMinutes)
			if open.Type == SegmentBreak {
				capMin = float64(StaleBreakCapMin)
			}
			minutes := age.Minutes()
			if minutes > capMin {
				minutes = capMin
			}
			if err := e.store.CloseSegment(open.ID, now, minutes); err != nil {
				log.Printf("[focus] failed to close stale segment %s: %v", open.ID, err)
			}
			if open.Type == SegmentWork {
				workSec += minutes * 60
			} else {
				breakSec += minutes * 60
			}
			log.Printf("[focus] healed stale %s segment on session %s (capped at %.0f min)", open.Type, s.ID, capMin)
			open = nil
			needsPrompt = true
		} else {
			if open.Type == SegmentWork {
				status = StatusWorking
			} else {
				status = StatusBreak
			}
		}
	}

	// Not worth prompting over: nothing meaningful was at stake. The
	// healed capped time counts as work here; a session whose only work
	// lived in the stale segment still holds real minutes.
	if needsPrompt && (workSec < 60 || s.GoalMinutes <= 0) {
		log.Printf("[focus] auto-discarding recovered session %s (work=%.0fs goal=%d)", s.ID, workSec, s.GoalMinutes)
		if err := e.store.DiscardSession(s.ID); err != nil {
			log.Printf("[focus] auto-discard failed: %v", err)
		}
		e.status = StatusIdle
		return &RecoveredState{Status: StatusIdle}, nil
	}

	e.session = s
	e.openSegment = open
	e.workSeconds = workSec
	e.breakSeconds = breakSec
	e.status = status
	e.needsPrompt = needsPrompt
	e.goalNotified = false
	e.maxDurationSignaled = false
	if status != StatusIdle {
		e.startLoopsLocked()
	}

	return &RecoveredState{
		Status:       status,
		WorkSeconds:  workSec,
		BreakSeconds: breakSec,
		NeedsPrompt:  needsPrompt,
	}, nil
}
