// Package events provides session-state coordination: a typed
// in-process pub/sub bus plus a unix-socket broadcast layer so multiple
// frontends converge on the same session state.
package events

import (
	"sync"
	"time"
)

// Type identifies a domain event.
type Type string

const (
	TypeWorkStarted         Type = "work_started"
	TypeBreakStarted        Type = "break_started"
	TypeSessionEnded        Type = "session_ended"
	TypeSessionDiscarded    Type = "session_discarded"
	TypeStatsChanged        Type = "stats_changed"
	TypeAchievementUnlocked Type = "achievement_unlocked"
)

// Event is one domain event.
type Event struct {
	Type      Type      `json:"type"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type subscriber struct {
	types map[Type]bool // nil means all types
	fn    func(Event)
}

// Bus is an in-process publish/subscribe hub. Handlers run
// synchronously on the publishing goroutine and must not block.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscriber
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]subscriber)}
}

// Subscribe registers fn for the given event types, or for every event
// when none are named. The returned function cancels the subscription.
func (b *Bus) Subscribe(fn func(Event), types ...Type) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	sub := subscriber{fn: fn}
	if len(types) > 0 {
		sub.types = make(map[Type]bool, len(types))
		for _, t := range types {
			sub.types[t] = true
		}
	}
	b.subs[id] = sub

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers evt to every matching subscriber. A zero timestamp
// is stamped with the current time.
func (b *Bus) Publish(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	b.mu.RLock()
	subs := make([]subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		if s.types == nil || s.types[evt.Type] {
			subs = append(subs, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(evt)
	}
}
