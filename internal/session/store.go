package session

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TransitionRecorder receives one call per published state.
type TransitionRecorder interface {
	RecordSessionTransition(state string)
}

type subscriber struct {
	id int
	fn func(State)
}

// Store is the single writer of State.
type Store struct {
	mu      sync.Mutex
	state   State
	err     error
	seeded  bool
	subs    []subscriber
	nextID  int
	unwatch func()

	// delivery serialises handle so subscribers observe notifications in
	// arrival order even when the provider calls from several goroutines.
	delivery sync.Mutex

	log      zerolog.Logger
	recorder TransitionRecorder
	now      func() time.Time
}

type StoreOption func(*Store)

func WithLogger(log zerolog.Logger) StoreOption {
	return func(s *Store) { s.log = log }
}

func WithRecorder(r TransitionRecorder) StoreOption {
	return func(s *Store) { s.recorder = r }
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore registers with provider and seeds the state from its current
// session. Notifications that arrive before the seed win over it.
func NewStore(provider Provider, opts ...StoreOption) *Store {
	s := &Store{log: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.unwatch = provider.OnChange(s.handle)

	current := provider.CurrentSession()
	s.mu.Lock()
	if !s.seeded {
		s.seeded = true
		s.state = s.project(current)
	}
	state := s.state
	s.mu.Unlock()
	s.log.Debug().Str("state", state.String()).Msg("session store seeded")
	return s
}

// Current returns the latest published state.
func (s *Store) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the sticky failure that forced the store closed, if any.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Subscribe registers fn for every subsequent state. Subscribers run on
// the goroutine that delivered the provider notification and must not
// block.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.subs = slices.DeleteFunc(s.subs, func(sub subscriber) bool { return sub.id == id })
		})
	}
}

// Close detaches the store from its provider. The last state stays
// readable.
func (s *Store) Close() {
	s.mu.Lock()
	unwatch := s.unwatch
	s.unwatch = nil
	s.mu.Unlock()
	if unwatch != nil {
		unwatch()
	}
}

func (s *Store) handle(n Notification) {
	s.delivery.Lock()
	defer s.delivery.Unlock()

	s.mu.Lock()
	if s.err != nil {
		s.mu.Unlock()
		s.log.Debug().Msg("notification ignored after provider failure")
		return
	}
	s.seeded = true
	next := s.project(n.Session)
	if n.Err != nil {
		s.err = fmt.Errorf("%w: %w", ErrProviderUnavailable, n.Err)
		next = Unauthenticated()
	}
	s.state = next
	subs := slices.Clone(s.subs)
	failure := s.err
	s.mu.Unlock()

	if failure != nil {
		s.log.Error().Err(failure).Msg("session store failed closed")
	} else {
		s.log.Info().Str("state", next.String()).Str("identity", next.Identity()).Msg("session changed")
	}
	if s.recorder != nil {
		s.recorder.RecordSessionTransition(next.String())
	}
	for _, sub := range subs {
		sub.fn(next)
	}
}

func (s *Store) project(sess *Session) State {
	if sess == nil || sess.Expired(s.now()) {
		return Unauthenticated()
	}
	return StateOf(sess)
}
