package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/ideacrowd/internal/session"
)

// sessionFeed carries store transitions into the event loop. The store
// delivers synchronously on provider goroutines, so transitions queue
// here in arrival order and wait() hands them over one message at a time.
type sessionFeed struct {
	mu     sync.Mutex
	queue  []session.State
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
	unsub  func()
}

func newSessionFeed(store *session.Store) *sessionFeed {
	f := &sessionFeed{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	f.unsub = store.Subscribe(f.push)
	return f
}

func (f *sessionFeed) push(s session.State) {
	f.mu.Lock()
	f.queue = append(f.queue, s)
	f.mu.Unlock()
	select {
	case f.notify <- struct{}{}:
	default:
	}
}

func (f *sessionFeed) pop() (session.State, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return session.State{}, false
	}
	s := f.queue[0]
	f.queue = f.queue[1:]
	return s, true
}

// wait blocks until the next transition. Re-issue it after every
// SessionChangedMsg.
func (f *sessionFeed) wait() tea.Cmd {
	return func() tea.Msg {
		for {
			if s, ok := f.pop(); ok {
				return SessionChangedMsg{State: s}
			}
			select {
			case <-f.notify:
			case <-f.done:
				return nil
			}
		}
	}
}

func (f *sessionFeed) close() {
	f.once.Do(func() {
		f.unsub()
		close(f.done)
	})
}
