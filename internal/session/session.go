// Package session holds the process-wide authentication state of the shell.
//
// The Store wraps an identity Provider: it translates every provider
// notification into exactly one State and publishes it to subscribers in
// the order the provider delivered it. The Store is the only writer of
// State; everything else reads snapshots.
package session

import "time"

// Session is the proof of identity issued by a provider.
type Session struct {
	ID        string
	Identity  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session has passed its expiry. A zero
// ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}

// State is the two-valued projection of session presence used for
// routing. The zero value is Unauthenticated.
type State struct {
	session *Session
}

// Unauthenticated returns the state with no session.
func Unauthenticated() State {
	return State{}
}

// StateOf returns Authenticated for a non-nil session and
// Unauthenticated otherwise.
func StateOf(s *Session) State {
	return State{session: s}
}

func (s State) IsAuthenticated() bool {
	return s.session != nil
}

// Session returns the referenced session, nil when unauthenticated.
func (s State) Session() *Session {
	return s.session
}

func (s State) Identity() string {
	if s.session == nil {
		return ""
	}
	return s.session.Identity
}

// Equal compares states by session identity rather than pointer.
func (s State) Equal(other State) bool {
	if s.session == nil || other.session == nil {
		return s.session == nil && other.session == nil
	}
	return s.session.ID == other.session.ID && s.session.Identity == other.session.Identity
}

func (s State) String() string {
	if s.session == nil {
		return "unauthenticated"
	}
	return "authenticated"
}
