package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/ideacrowd/internal/session"
)

const ScopeSignOut = "screen:signout"

type signOutPhase int

const (
	signOutConfirm signOutPhase = iota
	signOutPending
	signOutFailed
)

// signOutScreen asks for confirmation, waits for the provider, and offers
// a retry when it refuses. It never touches session state itself.
type signOutScreen struct {
	keys     *KeyRegistry
	identity string
	run      tea.Cmd
	phase    signOutPhase
	err      error
}

func newSignOutScreen(keys *KeyRegistry, identity string, run tea.Cmd) *signOutScreen {
	return &signOutScreen{keys: keys, identity: identity, run: run}
}

func (s *signOutScreen) Title() string { return "Log out" }
func (s *signOutScreen) Scope() string { return ScopeSignOut }

func (s *signOutScreen) Update(msg tea.Msg) (Screen, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case SignOutDoneMsg:
		if msg.Err == nil {
			return s, nil, true
		}
		s.phase = signOutFailed
		s.err = msg.Err
		return s, nil, false
	case tea.KeyMsg:
		if s.phase == signOutPending {
			return s, nil, false
		}
		switch {
		case s.keys.IsAction(msg, "close", ScopeSignOut):
			return s, nil, true
		case s.keys.IsAction(msg, "confirm", ScopeSignOut):
			if s.phase == signOutConfirm {
				s.phase = signOutPending
				return s, s.run, false
			}
		case s.keys.IsAction(msg, "retry", ScopeSignOut):
			if s.phase == signOutFailed {
				s.phase = signOutPending
				s.err = nil
				return s, s.run, false
			}
		}
	}
	return s, nil, false
}

func (s *signOutScreen) View(width, height int) string {
	title := screenTitleStyle.Render("Log out")
	switch s.phase {
	case signOutPending:
		return title + "\n\n" + screenHintStyle.Render("Signing out…")
	case signOutFailed:
		reason := s.err.Error()
		if errors.Is(s.err, session.ErrSignOutRejected) {
			reason = "The identity provider refused: " + reason
		}
		return title + "\n\n" + screenErrStyle.Render(reason) + "\n\n" +
			screenHintStyle.Render(s.key("retry")+" retry · "+s.key("close")+" keep session")
	default:
		who := s.identity
		if who == "" {
			who = "this account"
		}
		return title + "\n\n" + "Log out of " + who + "?" + "\n\n" +
			screenHintStyle.Render(s.key("confirm")+" log out · "+s.key("close")+" cancel")
	}
}

func (s *signOutScreen) key(action string) string {
	return s.keys.KeyFor(action, ScopeSignOut)
}
