package focus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/studyloop/studyloop/internal/events"
)

// ErrNoActiveSession is returned by operations that need a session.
var ErrNoActiveSession = errors.New("focus: no active session")

// DiscardFenceTTL is how long a discard fences out concurrent loads of
// the same session.
const DiscardFenceTTL = 10 * time.Second

// Store is the persistence collaborator the engine writes through.
// Implemented by *storage.Store.
type Store interface {
	CreateSession(s *Session) error
	UpdateSession(s *Session) error
	Session(id string) (*Session, error)
	ActiveSession(userID string) (*Session, error)
	DiscardSession(id string) error

	CreateSegment(seg *Segment) error
	CloseSegment(id string, endedAt time.Time, durationMinutes float64) error
	OpenSegment(sessionID string) (*Segment, error)
	Segments(sessionID string) ([]Segment, error)

	EnqueueCompletion(sessionID string, payload []byte) error
	PendingCompletions() (map[string][]byte, error)
	DeleteCompletion(sessionID string) error
}

// Notifier surfaces one-shot user-facing signals (goal reached, max
// duration). Implemented by notify.DesktopNotifier via an adapter.
type Notifier interface {
	Notify(title, body string)
}

// Engine is the focus-session state machine for a single user.
//
// Mutations are expected from one active instance at a time; other
// instances converge through event broadcast plus the periodic
// reconcile pass rather than locking. Last writer wins.
type Engine struct {
	store    Store
	bus      *events.Bus
	notifier Notifier
	clock    func() time.Time

	userID      string
	goalMinutes int

	mu          sync.Mutex
	status      Status
	session     *Session
	openSegment *Segment
	// Accumulated seconds from closed segments only; the open segment
	// is added on demand.
	workSeconds  float64
	breakSeconds float64

	goalNotified        bool
	maxDurationSignaled bool
	visible             bool
	needsPrompt         bool

	// Fencing token set by Discard so a concurrent LoadActive in
	// another instance cannot resurrect the session.
	fencedSessionID string
	fencedAt        time.Time

	// syncing guards against a single instance issuing overlapping
	// sync writes to the same session.
	syncing bool

	loopCancel context.CancelFunc
}

// Config configures an Engine.
type Config struct {
	Store       Store
	Bus         *events.Bus
	Notifier    Notifier
	UserID      string
	GoalMinutes int
}

// NewEngine creates an idle engine.
func NewEngine(cfg Config) *Engine {
	goal := cfg.GoalMinutes
	if goal <= 0 {
		goal = 120
	}
	return &Engine{
		store:       cfg.Store,
		bus:         cfg.Bus,
		notifier:    cfg.Notifier,
		clock:       time.Now,
		userID:      cfg.UserID,
		goalMinutes: goal,
		status:      StatusIdle,
		visible:     true,
	}
}

// Status returns the current state-machine status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Snapshot returns the current status and accumulated seconds,
// including the open segment's elapsed time.
func (e *Engine) Snapshot() RecoveredState {
	e.mu.Lock()
	defer e.mu.Unlock()

	work, brk := e.workSeconds, e.breakSeconds
	if e.openSegment != nil {
		elapsed := e.clock().Sub(e.openSegment.StartedAt).Seconds()
		if e.openSegment.Type == SegmentWork {
			work += elapsed
		} else {
			brk += elapsed
		}
	}
	return RecoveredState{Status: e.status, WorkSeconds: work, BreakSeconds: brk, NeedsPrompt: e.needsPrompt}
}

// StartWorking transitions to working: creates a session if none is
// active, closes an open break segment, opens a work segment.
func (e *Engine) StartWorking() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status == StatusWorking {
		return nil
	}

	now := e.clock()
	if e.session == nil {
		// Another instance may have started one already.
		existing, err := e.store.ActiveSession(e.userID)
		if err != nil {
			log.Printf("[focus] active session lookup failed: %v", err)
		}
		if existing != nil {
			e.session = existing
		} else {
			s := &Session{
				ID:          uuid.NewString(),
				UserID:      e.userID,
				StartedAt:   now,
				GoalMinutes: e.goalMinutes,
				IsActive:    true,
			}
			if err := e.store.CreateSession(s); err != nil {
				return fmt.Errorf("focus: create session: %w", err)
			}
			e.session = s
			e.workSeconds = 0
			e.breakSeconds = 0
			e.goalNotified = false
			e.maxDurationSignaled = false
		}
	}

	e.closeOpenSegmentLocked(now)
	if err := e.openSegmentLocked(SegmentWork, now); err != nil {
		return err
	}

	e.status = StatusWorking
	e.needsPrompt = false
	e.startLoopsLocked()
	e.publish(events.TypeWorkStarted, nil)
	return nil
}

// StartBreak transitions from working to break.
func (e *Engine) StartBreak() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return ErrNoActiveSession
	}
	if e.status == StatusBreak {
		return nil
	}

	now := e.clock()
	e.closeOpenSegmentLocked(now)
	if err := e.openSegmentLocked(SegmentBreak, now); err != nil {
		return err
	}

	e.status = StatusBreak
	e.startLoopsLocked()
	e.publish(events.TypeBreakStarted, nil)
	return nil
}

// Stop closes the session and returns its summary. The summary is
// built from locally-held values, so it is produced even when the
// persistence write fails; in that case the completion payload goes to
// the durable retry queue and is replayed once connectivity returns.
func (e *Engine) Stop() (*Summary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil, ErrNoActiveSession
	}

	now := e.clock()
	e.closeOpenSegmentLocked(now)

	workMin := e.workSeconds / 60
	breakMin := e.breakSeconds / 60
	adherence := Adherence(workMin, breakMin)
	base := SessionBasePoints(workMin)
	pen := Penalty(adherence, base)

	s := e.session
	s.EndedAt = &now
	s.IsActive = false
	s.TotalWorkMinutes = workMin
	s.TotalBreakMinutes = breakMin
	s.AdherencePct = adherence
	s.IsIncomplete = pen.IsIncomplete
	s.PointsEarned = NetPoints(base, pen.Penalty)
	s.PointsPenalty = pen.Penalty

	if err := e.store.UpdateSession(s); err != nil {
		log.Printf("[focus] session end write failed, queuing for retry: %v", err)
		if payload, merr := json.Marshal(s); merr == nil {
			if qerr := e.store.EnqueueCompletion(s.ID, payload); qerr != nil {
				log.Printf("[focus] failed to queue completion: %v", qerr)
			}
		}
	}

	summary := &Summary{
		SessionID:         s.ID,
		GoalMinutes:       s.GoalMinutes,
		TotalWorkMinutes:  workMin,
		TotalBreakMinutes: breakMin,
		AdherencePct:      adherence,
		BasePoints:        base,
		Penalty:           pen.Penalty,
		NetPoints:         s.PointsEarned,
		IsIncomplete:      pen.IsIncomplete,
		RecommendedBreak:  RecommendedBreakMinutes(workMin),
	}

	sessionID := s.ID
	e.session = nil
	e.status = StatusIdle
	e.needsPrompt = false
	e.stopLoopsLocked()
	e.publishSession(events.TypeSessionEnded, sessionID, summary)
	e.publish(events.TypeStatsChanged, nil)

	return summary, nil
}

// Resume continues a recovered session after the recovery prompt:
// opens a fresh work segment and clears the prompt. Terminal for the
// prompt, like Discard.
func (e *Engine) Resume() error {
	e.mu.Lock()
	needsPrompt := e.needsPrompt
	e.mu.Unlock()
	if !needsPrompt {
		return ErrNoActiveSession
	}
	return e.StartWorking()
}

// Discard abandons the active session without scoring it. A short-lived
// fencing token stops a concurrent LoadActive in another instance from
// resurrecting the session.
func (e *Engine) Discard() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return ErrNoActiveSession
	}

	now := e.clock()
	e.closeOpenSegmentLocked(now)

	sessionID := e.session.ID
	if err := e.store.DiscardSession(sessionID); err != nil {
		log.Printf("[focus] discard write failed: %v", err)
	}

	e.fencedSessionID = sessionID
	e.fencedAt = now

	e.session = nil
	e.status = StatusIdle
	e.needsPrompt = false
	e.stopLoopsLocked()
	e.publishSession(events.TypeSessionDiscarded, sessionID, nil)
	return nil
}

// SetVisible pauses and resumes the tick and reconcile loops around
// frontend visibility changes, so a backgrounded instance neither
// burns cycles nor drifts silently.
func (e *Engine) SetVisible(visible bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.visible == visible {
		return
	}
	e.visible = visible

	if !visible {
		e.stopLoopsLocked()
		return
	}
	if e.status != StatusIdle {
		e.startLoopsLocked()
		go e.reconcile()
	}
}

// Run drains the completion retry queue until ctx is cancelled. The
// per-session tick loops are managed by the state transitions, not
// here; nothing polls while the engine is idle.
func (e *Engine) Run(ctx context.Context) {
	e.ReplayPending()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.ReplayPending()
		}
	}
}

// ReplayPending retries queued session completions, exactly once per
// session id: a replayed payload is deleted only after the write
// succeeds, and the queue is keyed by session id so re-enqueueing the
// same session cannot duplicate it.
func (e *Engine) ReplayPending() {
	pending, err := e.store.PendingCompletions()
	if err != nil {
		log.Printf("[focus] pending completions lookup failed: %v", err)
		return
	}

	for sessionID, payload := range pending {
		var s Session
		if err := json.Unmarshal(payload, &s); err != nil {
			log.Printf("[focus] dropping malformed completion for %s: %v", sessionID, err)
			e.store.DeleteCompletion(sessionID)
			continue
		}
		if err := e.store.UpdateSession(&s); err != nil {
			log.Printf("[focus] completion replay failed for %s: %v", sessionID, err)
			continue
		}
		if err := e.store.DeleteCompletion(sessionID); err != nil {
			log.Printf("[focus] failed to dequeue completion %s: %v", sessionID, err)
			continue
		}
		log.Printf("[focus] replayed queued completion for session %s", sessionID)
		e.publish(events.TypeStatsChanged, nil)
	}
}

// tick runs once per second of wall-clock session time while the
// engine is working or on break and the frontend is visible.
func (e *Engine) tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status == StatusIdle || e.session == nil || !e.visible {
		return
	}

	now := e.clock()
	elapsed := now.Sub(e.session.StartedAt)
	goal := time.Duration(e.session.GoalMinutes) * time.Minute

	// The absolute cap takes precedence over the goal-based one.
	if elapsed >= AbsoluteMaxDuration {
		e.autoPauseLocked(now, "8-hour limit reached")
		return
	}
	if elapsed >= time.Duration(float64(goal)*MaxDurationFactor) {
		e.autoPauseLocked(now, "maximum session duration reached")
		return
	}
	if elapsed >= goal && !e.goalNotified && !e.maxDurationSignaled {
		e.goalNotified = true
		if e.notifier != nil {
			e.notifier.Notify("Goal reached", fmt.Sprintf("You hit your %d-minute goal. Keep going or wrap up.", e.session.GoalMinutes))
		}
	}
}

// autoPauseLocked pauses to idle without ending the session; the user
// decides what happens next.
func (e *Engine) autoPauseLocked(now time.Time, reason string) {
	e.closeOpenSegmentLocked(now)
	e.status = StatusIdle
	e.maxDurationSignaled = true
	e.stopLoopsLocked()

	log.Printf("[focus] auto-paused session %s: %s", e.session.ID, reason)
	if e.notifier != nil {
		e.notifier.Notify("Session paused", reason)
	}
}

// reconcile re-derives local state from the persisted segments,
// correcting drift against writes made by other instances.
func (e *Engine) reconcile() {
	e.mu.Lock()
	if e.syncing || e.session == nil || !e.visible {
		e.mu.Unlock()
		return
	}
	e.syncing = true
	sessionID := e.session.ID
	e.mu.Unlock()

	segs, err := e.store.Segments(sessionID)

	e.mu.Lock()
	defer func() {
		e.syncing = false
		e.mu.Unlock()
	}()

	if err != nil {
		log.Printf("[focus] reconcile lookup failed: %v", err)
		return
	}
	if e.session == nil || e.session.ID != sessionID {
		return
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

	// Closed segments are the source of truth for accumulated time;
	// minutes another instance recorded must land here too.
	e.workSeconds = workSec
	e.breakSeconds = breakSec

	switch {
	case open == nil && e.status != StatusIdle:
		// Another instance paused or stopped; drop our open segment
		// reference, it is already closed in the store.
		log.Printf("[focus] reconcile: no open segment, going idle")
		e.openSegment = nil
		e.status = StatusIdle
		e.stopLoopsLocked()
	case open != nil && open.Type == SegmentWork && e.status != StatusWorking:
		log.Printf("[focus] reconcile: adopting persisted work segment")
		e.openSegment = open
		e.status = StatusWorking
		e.startLoopsLocked()
	case open != nil && open.Type == SegmentBreak && e.status != StatusBreak:
		log.Printf("[focus] reconcile: adopting persisted break segment")
		e.openSegment = open
		e.status = StatusBreak
		e.startLoopsLocked()
	case open != nil:
		// Status matches but the segment may have been rotated by the
		// other instance; track the persisted one.
		e.openSegment = open
	}
}

func (e *Engine) openSegmentLocked(typ SegmentType, now time.Time) error {
	seg := &Segment{
		ID:        uuid.NewString(),
		SessionID: e.session.ID,
		Type:      typ,
		StartedAt: now,
	}
	if err := e.store.CreateSegment(seg); err != nil {
		return fmt.Errorf("focus: open %s segment: %w", typ, err)
	}
	e.openSegment = seg
	return nil
}

func (e *Engine) closeOpenSegmentLocked(now time.Time) {
	seg := e.openSegment
	if seg == nil {
		return
	}
	minutes := now.Sub(seg.StartedAt).Minutes()
	if minutes < 0 {
		minutes = 0
	}
	if err := e.store.CloseSegment(seg.ID, now, minutes); err != nil {
		log.Printf("[focus] failed to close segment %s: %v", seg.ID, err)
	}
	if seg.Type == SegmentWork {
		e.workSeconds += minutes * 60
	} else {
		e.breakSeconds += minutes * 60
	}
	e.openSegment = nil
}

func (e *Engine) startLoopsLocked() {
	if e.loopCancel != nil || !e.visible {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.loopCancel = cancel
	go e.runLoops(ctx)
}

func (e *Engine) stopLoopsLocked() {
	if e.loopCancel != nil {
		e.loopCancel()
		e.loopCancel = nil
	}
}

func (e *Engine) runLoops(ctx context.Context) {
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	recon := time.NewTicker(15 * time.Second)
	defer recon.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			e.tick()
		case <-recon.C:
			e.reconcile()
		}
	}
}

func (e *Engine) publish(typ events.Type, payload any) {
	sessionID := ""
	if e.session != nil {
		sessionID = e.session.ID
	}
	e.publishSession(typ, sessionID, payload)
}

func (e *Engine) publishSession(typ events.Type, sessionID string, payload any) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(events.Event{
		Type:      typ,
		UserID:    e.userID,
		SessionID: sessionID,
		Payload:   payload,
	})
}
