package views

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/ideacrowd/internal/tui"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6adc8"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#bac2de")).Width(12)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#585b70")).
			Padding(1, 3)
)

const (
	scopeCredentials = "view:credentials"
	scopeDashboard   = "view:dashboard"
	scopeSearch      = "view:dashboard:search"
	scopeForm        = "view:project-form"
	scopeProject     = "view:project"
	scopePage        = "view:page"
	scopeNotFound    = "view:not-found"
)

// KeyBindings describes the views' keys for the footer.
func KeyBindings() []tui.KeyBinding {
	return []tui.KeyBinding{
		{Keys: []string{"tab"}, Action: "next-field", Description: "next field", Scopes: []string{scopeCredentials, scopeForm}},
		{Keys: []string{"enter"}, Action: "submit", Description: "submit", Scopes: []string{scopeCredentials}},
		{Keys: []string{"ctrl+n"}, Action: "switch-mode", Description: "sign in / sign up", Scopes: []string{scopeCredentials}},
		{Keys: []string{"ctrl+s"}, Action: "save", Description: "create", Scopes: []string{scopeForm}},
		{Keys: []string{"esc"}, Action: "cancel", Description: "cancel", Scopes: []string{scopeForm, scopeSearch}},
		{Keys: []string{"/"}, Action: "search", Description: "search", Scopes: []string{scopeDashboard}},
		{Keys: []string{"tab"}, Action: "next-card", Description: "next card", Scopes: []string{scopeDashboard}},
		{Keys: []string{"o"}, Action: "open-card", Description: "open", Scopes: []string{scopeDashboard}},
		{Keys: []string{"enter"}, Action: "apply", Description: "apply", Scopes: []string{scopeSearch}},
		{Keys: []string{"a", "b", "c"}, Action: "suggestion", Description: "go to suggestion", Scopes: []string{scopeNotFound}},
	}
}

func centered(width, height int, content string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
