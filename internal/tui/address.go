package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const ScopeAddress = "screen:address"

// addressScreen lets the user type any path, like a browser's location bar.
type addressScreen struct {
	keys  *KeyRegistry
	input textinput.Model
}

func newAddressScreen(keys *KeyRegistry, current string) *addressScreen {
	in := textinput.New()
	in.Prompt = "› "
	in.Placeholder = "/projects/new"
	in.CharLimit = 256
	in.Width = 40
	in.SetValue(current)
	in.CursorEnd()
	in.Focus()
	return &addressScreen{keys: keys, input: in}
}

func (s *addressScreen) Title() string { return "Go to" }
func (s *addressScreen) Scope() string { return ScopeAddress }

func (s *addressScreen) Update(msg tea.Msg) (Screen, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case s.keys.IsAction(km, "close", ScopeAddress):
			return s, nil, true
		case s.keys.IsAction(km, "select", ScopeAddress):
			path := strings.TrimSpace(s.input.Value())
			if path == "" {
				return s, nil, true
			}
			return s, NavigateCmd(path), true
		}
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd, false
}

func (s *addressScreen) View(width, height int) string {
	s.input.Width = max(10, min(width-6, 60))
	return screenTitleStyle.Render("Go to") + "\n\n" + s.input.View() + "\n\n" +
		screenHintStyle.Render(s.keys.KeyFor("select", ScopeAddress)+" go · "+s.keys.KeyFor("close", ScopeAddress)+" cancel")
}
