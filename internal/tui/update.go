package tui

import (
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.refreshFrame()
		return m, nil
	case SessionChangedMsg:
		cmd := m.applySession(msg.State)
		m.refreshFrame()
		return m, tea.Batch(cmd, m.feed.wait())
	case NavigateMsg:
		cmd := m.navigate(msg.Path, true)
		m.refreshFrame()
		return m, cmd
	case StatusMsg:
		m.status = msg.Text
		m.statusErr = msg.IsErr
		return m, nil
	case PushScreenMsg:
		m.screens.Push(msg.Screen)
		return m, nil
	case PopScreenMsg:
		m.screens.Pop()
		return m, nil
	case SignOutDoneMsg:
		if msg.Err != nil {
			m.SetError(msg.Err)
		} else {
			m.SetStatus("Signing out…")
		}
		return m, m.updateScreen(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// everything else goes to whoever might be waiting for it
	screenCmd := m.updateScreen(msg)
	outletCmd := m.updateOutlet(msg)
	return m, tea.Batch(screenCmd, outletCmd)
}

func (m *Model) updateScreen(msg tea.Msg) tea.Cmd {
	top := m.screens.Top()
	if top == nil {
		return nil
	}
	next, cmd, pop := top.Update(msg)
	if pop {
		m.screens.Pop()
		return cmd
	}
	m.screens.ReplaceTop(next)
	return cmd
}

func (m *Model) updateOutlet(msg tea.Msg) tea.Cmd {
	if m.outlet == nil {
		return nil
	}
	next, cmd := m.outlet.Update(msg)
	if next != nil {
		m.outlet = next
	}
	return cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.keys.IsAction(msg, "force-quit", m.ActiveScope()) {
		m.quitting = true
		return m, tea.Quit
	}
	if m.screens.Top() != nil {
		return m, m.updateScreen(msg)
	}
	if m.outlet != nil && m.outlet.Capturing() {
		return m, m.updateOutlet(msg)
	}

	scope := "guest"
	if m.Framed() {
		scope = ScopeFrame
	}
	switch {
	case m.keys.IsAction(msg, "quit", scope):
		m.quitting = true
		return m, tea.Quit
	case m.keys.IsAction(msg, "address", scope):
		m.screens.Push(newAddressScreen(m.keys, m.path))
		return m, nil
	}
	if !m.Framed() {
		return m, m.updateOutlet(msg)
	}

	switch {
	case m.keys.IsAction(msg, "toggle-sidebar", scope):
		m.toggleSidebar()
		m.refreshFrame()
		return m, nil
	case m.keys.IsAction(msg, "nav-down", scope):
		if len(m.nav) > 0 {
			m.cursor = (m.cursor + 1) % len(m.nav)
			m.refreshFrame()
		}
		return m, nil
	case m.keys.IsAction(msg, "nav-up", scope):
		if len(m.nav) > 0 {
			m.cursor = (m.cursor - 1 + len(m.nav)) % len(m.nav)
			m.refreshFrame()
		}
		return m, nil
	case m.keys.IsAction(msg, "nav-open", scope):
		if m.cursor < len(m.nav) {
			cmd := m.navigate(m.nav[m.cursor].Path, true)
			m.refreshFrame()
			return m, cmd
		}
		return m, nil
	case m.keys.IsAction(msg, "sign-out", scope):
		m.screens.Push(newSignOutScreen(m.keys, m.state.Identity(), m.signOutCmd()))
		return m, nil
	}
	if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 && n <= len(m.nav) {
		cmd := m.navigate(m.nav[n-1].Path, true)
		m.refreshFrame()
		return m, cmd
	}
	return m, m.updateOutlet(msg)
}
