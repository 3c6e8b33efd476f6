package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/ideacrowd/internal/session"
)

type StatusMsg struct {
	Text  string
	IsErr bool
}

// NavigateMsg asks the shell to show Path.
type NavigateMsg struct {
	Path string
}

// SessionChangedMsg carries one state transition from the session store.
type SessionChangedMsg struct {
	State session.State
}

// SignOutDoneMsg reports how a sign-out request ended.
type SignOutDoneMsg struct {
	Err error
}

type PushScreenMsg struct {
	Screen Screen
}

type PopScreenMsg struct{}

func StatusCmd(text string) tea.Cmd {
	return func() tea.Msg { return StatusMsg{Text: text} }
}

func ErrorCmd(err error) tea.Cmd {
	return func() tea.Msg {
		if err == nil {
			return StatusMsg{Text: "", IsErr: false}
		}
		return StatusMsg{Text: err.Error(), IsErr: true}
	}
}

func NavigateCmd(path string) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{Path: path} }
}
