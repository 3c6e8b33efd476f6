// Package identity holds the plumbing shared by the identity providers:
// listener fan-out and session expiry timers.
package identity

import (
	"slices"
	"sync"
	"time"

	"github.com/jask/ideacrowd/internal/session"
)

type listener struct {
	id int
	fn session.Listener
}

// Hub fans notifications out to listeners in registration order. Emit
// calls are serialised so every listener sees the same sequence.
type Hub struct {
	mu        sync.Mutex
	listeners []listener
	nextID    int
	delivery  sync.Mutex
}

func (h *Hub) OnChange(fn session.Listener) func() {
	if fn == nil {
		return func() {}
	}
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners = append(h.listeners, listener{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.listeners = slices.DeleteFunc(h.listeners, func(l listener) bool { return l.id == id })
		})
	}
}

func (h *Hub) Emit(n session.Notification) {
	h.delivery.Lock()
	defer h.delivery.Unlock()
	h.mu.Lock()
	ls := slices.Clone(h.listeners)
	h.mu.Unlock()
	for _, l := range ls {
		l.fn(n)
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// ExpiryTimer fires fn once when a session reaches its expiry. Arming it
// again replaces the previous deadline.
type ExpiryTimer struct {
	mu    sync.Mutex
	timer *time.Timer
	now   func() time.Time
}

func NewExpiryTimer(now func() time.Time) *ExpiryTimer {
	if now == nil {
		now = time.Now
	}
	return &ExpiryTimer{now: now}
}

// Arm schedules fn for s.ExpiresAt. Sessions without expiry disarm the
// timer.
func (e *ExpiryTimer) Arm(s *session.Session, fn func(sessionID string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if s == nil || s.ExpiresAt.IsZero() {
		return
	}
	id := s.ID
	wait := s.ExpiresAt.Sub(e.now())
	if wait < 0 {
		wait = 0
	}
	e.timer = time.AfterFunc(wait, func() { fn(id) })
}

func (e *ExpiryTimer) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}
