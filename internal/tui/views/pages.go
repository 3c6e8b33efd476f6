package views

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/ideacrowd/internal/tui"
	"github.com/jask/ideacrowd/internal/tui/widgets"
)

// page is a read-only panel.
type page struct {
	title string
	body  func() string
}

func (p *page) Scope() string                      { return scopePage }
func (p *page) Capturing() bool                    { return false }
func (p *page) Update(tea.Msg) (tui.View, tea.Cmd) { return p, nil }

func (p *page) Render(width, height int) string {
	return widgets.Box{Title: p.title, Content: p.body()}.Render(width, height)
}

// newExplore groups every project by type.
func newExplore(catalog *Catalog) *page {
	return &page{title: "Explore", body: func() string {
		byType := map[string][]string{}
		for _, p := range catalog.Search("") {
			t := p.Type
			if t == "" {
				t = "other"
			}
			byType[t] = append(byType[t], fmt.Sprintf("%s  %s", p.Title, mutedStyle.Render("/projects/"+p.ID)))
		}
		types := make([]string, 0, len(byType))
		for t := range byType {
			types = append(types, t)
		}
		sort.Strings(types)
		var b strings.Builder
		for _, t := range types {
			b.WriteString(titleStyle.Render(t) + "\n")
			for _, line := range byType[t] {
				b.WriteString("  " + line + "\n")
			}
		}
		if b.Len() == 0 {
			return mutedStyle.Render("Nothing to explore yet.")
		}
		return strings.TrimSuffix(b.String(), "\n")
	}}
}

func newFriends() *page {
	return &page{title: "Friends", body: func() string {
		return mutedStyle.Render("Friends you collaborate with will show up here.")
	}}
}

func newChats() *page {
	return &page{title: "Chats", body: func() string {
		return mutedStyle.Render("No conversations yet.")
	}}
}

func newSettings(p tui.Props, info SettingsInfo) *page {
	return &page{title: "Settings", body: func() string {
		rows := [][2]string{
			{"Signed in as", p.Identity},
			{"Identity", info.Provider},
			{"Config file", info.ConfigPath},
			{"Log file", info.LogPath},
		}
		lines := make([]string, 0, len(rows)+2)
		for _, r := range rows {
			if r[1] == "" {
				continue
			}
			lines = append(lines, labelStyle.Width(14).Render(r[0])+r[1])
		}
		lines = append(lines, "", mutedStyle.Render("[ toggles the sidebar; the choice is saved to the config file."))
		return strings.Join(lines, "\n")
	}}
}

// notFound explains a miss and offers close matches on a, b and c.
type notFound struct {
	path        string
	err         error
	suggestions []string
}

func newNotFound(p tui.Props) *notFound {
	return &notFound{path: p.Resolved.Path, err: p.Resolved.Err, suggestions: p.Resolved.Suggestions}
}

func (v *notFound) Scope() string   { return scopeNotFound }
func (v *notFound) Capturing() bool { return false }

func (v *notFound) Update(msg tea.Msg) (tui.View, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	s := km.String()
	if len(s) == 1 && s[0] >= 'a' && s[0] <= 'c' {
		if i := int(s[0] - 'a'); i < len(v.suggestions) {
			return v, tui.NavigateCmd(v.suggestions[i])
		}
	}
	return v, nil
}

func (v *notFound) Render(width, height int) string {
	lines := []string{errStyle.Render("Nothing here: " + v.path)}
	if v.err != nil {
		lines = append(lines, mutedStyle.Render(v.err.Error()))
	}
	if len(v.suggestions) > 0 {
		lines = append(lines, "", "Did you mean")
		for i, s := range v.suggestions {
			lines = append(lines, fmt.Sprintf("  %c  %s", 'a'+i, s))
		}
	}
	lines = append(lines, "", mutedStyle.Render("Press : to go somewhere else."))
	return centered(width, height, panelStyle.Render(strings.Join(lines, "\n")))
}
