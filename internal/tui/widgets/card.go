package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var (
	cardBorder   = lipgloss.Color("#585b70")
	cardSelected = lipgloss.Color("#89b4fa")
	cardTitle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#cdd6f4")).Bold(true)
	cardKind     = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6adc8")).Italic(true)
	cardBody     = lipgloss.NewStyle().Foreground(lipgloss.Color("#bac2de"))
)

// Card shows one project: title, type and a wrapped description.
type Card struct {
	Title       string
	Kind        string
	Description string
	Selected    bool
}

func (c Card) Render(width, height int) string {
	if width < 6 || height < 3 {
		return Fit(c.Title, width, height)
	}
	border := cardBorder
	if c.Selected {
		border = cardSelected
	}
	inner := width - 4
	lines := []string{cardTitle.Render(ansi.Truncate(c.Title, inner, "…"))}
	if c.Kind != "" {
		lines = append(lines, cardKind.Render(ansi.Truncate(c.Kind, inner, "…")))
	}
	for _, l := range strings.Split(ansi.Wordwrap(c.Description, inner, ""), "\n") {
		lines = append(lines, cardBody.Render(l))
	}
	body := FitHeight(strings.Join(lines, "\n"), max(1, height-2))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(width - 2).
		Render(body)
}

// Box is a titled bordered panel.
type Box struct {
	Title   string
	Content string
}

func (b Box) Render(width, height int) string {
	if width < 4 || height < 3 {
		return Fit(b.Content, width, height)
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(cardBorder).
		Padding(0, 1).
		Width(width - 2).
		Height(max(1, height-2))
	content := b.Content
	if b.Title != "" {
		content = cardTitle.Render(b.Title) + "\n\n" + content
	}
	return style.Render(FitHeight(content, max(1, height-2)))
}
