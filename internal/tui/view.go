package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/ideacrowd/internal/tui/widgets"
)

const (
	sidebarWidth          = 24
	sidebarCollapsedWidth = 5
)

// frameKey is everything the frame's look depends on. The outlet is not
// part of it.
type frameKey struct {
	width     int
	height    int
	framed    bool
	collapsed bool
	cursor    int
	active    int
	identity  string
}

type frameCache struct {
	key     frameKey
	valid   bool
	header  string
	sidebar string
}

func (m Model) frameKey() frameKey {
	active := -1
	for i, it := range m.nav {
		if it.Path == m.path {
			active = i
		}
	}
	return frameKey{
		width:     m.width,
		height:    m.height,
		framed:    m.Framed(),
		collapsed: m.collapsed,
		cursor:    m.cursor,
		active:    active,
		identity:  m.state.Identity(),
	}
}

// refreshFrame re-renders header and sidebar only if their inputs moved.
func (m *Model) refreshFrame() {
	k := m.frameKey()
	if m.frame.valid && m.frame.key == k {
		return
	}
	m.frame = frameCache{key: k, valid: true}
	if !k.framed {
		return
	}
	m.frame.header = m.renderHeader()
	m.frame.sidebar = m.renderSidebar(k)
	m.frameRenders++
}

func (m Model) View() string {
	if m.quitting {
		return "Goodbye\n"
	}
	status := m.renderStatusBar()
	footer := m.renderFooter()
	header := ""
	if m.Framed() {
		header = m.frame.header
		if !m.frame.valid || m.frame.key != m.frameKey() {
			// Update has not run since the last change; render uncached.
			header = m.renderHeader()
		}
	}

	chrome := lipgloss.Height(status) + lipgloss.Height(footer)
	if header != "" {
		chrome += lipgloss.Height(header)
	}
	bodyHeight := max(0, m.height-chrome)
	width := max(1, m.width)

	var body string
	if bodyHeight > 0 {
		body = m.renderBody(width, bodyHeight)
		if top := m.screens.Top(); top != nil {
			body = widgets.RenderPopup(body, top.View(max(20, width-12), max(6, bodyHeight-6)), width, bodyHeight)
		}
	}
	parts := make([]string, 0, 4)
	if header != "" {
		parts = append(parts, header)
	}
	parts = append(parts, widgets.FitHeight(body, bodyHeight), status, footer)
	view := widgets.FitHeight(strings.Join(parts, "\n"), max(1, m.height))
	return appStyle.Width(width).MaxWidth(width).Render(view)
}

func (m Model) renderBody(width, height int) string {
	var outlet widgets.Widget = widgets.Static{}
	if m.outlet != nil {
		outlet = m.outlet
	}
	if !m.Framed() {
		return outlet.Render(width, height)
	}
	sidebar := m.frame.sidebar
	if !m.frame.valid || m.frame.key != m.frameKey() {
		sidebar = m.renderSidebar(m.frameKey())
	}
	sw := m.sidebarWidth()
	return widgets.HStack{
		Widgets: []widgets.Widget{widgets.Static{Content: sidebar}, outlet},
		Fixed:   []int{sw, 0},
		Gap:     1,
	}.Render(width, height)
}

func (m Model) sidebarWidth() int {
	if m.collapsed {
		return sidebarCollapsedWidth
	}
	return sidebarWidth
}

func (m Model) renderHeader() string {
	left := headerAppStyle.Render(" " + m.deps.AppName)
	right := headerMetaStyle.Render(m.state.Identity() + " ")
	width := max(1, m.width)
	gap := max(1, width-ansi.StringWidth(left)-ansi.StringWidth(right))
	return renderBar(headerBarStyle, width, left+headerBarStyle.Render(strings.Repeat(" ", gap))+right, colorMantle)
}

func (m Model) renderSidebar(k frameKey) string {
	w := m.sidebarWidth()
	inner := w - 1
	lines := make([]string, 0, len(m.nav)+3)
	if k.collapsed {
		lines = append(lines, sidebarTitleStyle.Render(" ≡"), "")
	} else {
		lines = append(lines, sidebarTitleStyle.Render(" "+strings.ToUpper(m.deps.AppName)), "")
	}
	for i, it := range m.nav {
		label := it.Title
		if k.collapsed {
			label = string([]rune(it.Title)[:1])
		}
		marker := "  "
		if i == k.active {
			marker = "▌ "
		}
		text := widgets.PadRight(marker+label, inner)
		switch {
		case i == k.cursor:
			lines = append(lines, sidebarCursorStyle.Render(text))
		case i == k.active:
			lines = append(lines, sidebarActiveStyle.Render(text))
		default:
			lines = append(lines, sidebarItemStyle.Render(text))
		}
	}
	bodyHeight := max(1, k.height-3)
	return sidebarStyle.Width(inner).Render(widgets.FitHeight(strings.Join(lines, "\n"), bodyHeight))
}

func (m Model) renderStatusBar() string {
	msg := strings.TrimSpace(m.status)
	if msg == "" {
		msg = "Ready"
	}
	msg = m.path + "  " + msg
	if m.statusErr {
		return renderBar(statusErrBarStyle, max(1, m.width), msg, colorSurface0)
	}
	return renderBar(statusBarStyle, max(1, m.width), msg, colorSurface0)
}

// renderFooter lists the bindings of the active scope, then the frame's.
func (m Model) renderFooter() string {
	bindings := m.keys.BindingsForScope(m.ActiveScope())
	if m.screens.Top() == nil && (m.outlet == nil || !m.outlet.Capturing()) {
		outer := "guest"
		if m.Framed() {
			outer = ScopeFrame
		}
		bindings = append(bindings, m.keys.BindingsForScope(outer)...)
	}
	bg := colorMantle
	keyStyle := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Background(bg)
	descStyle := lipgloss.NewStyle().Foreground(colorMuted).Background(bg)
	space := lipgloss.NewStyle().Background(bg).Render(" ")
	sep := lipgloss.NewStyle().Background(bg).Render("  ")

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if len(b.Keys) == 0 {
			continue
		}
		kb := key.NewBinding(key.WithKeys(b.Keys...), key.WithHelp(b.Keys[0], b.Description))
		h := kb.Help()
		if h.Key == "" && h.Desc == "" {
			continue
		}
		parts = append(parts, keyStyle.Render(h.Key)+space+descStyle.Render(h.Desc))
	}
	line := strings.Join(parts, sep)
	if line == "" {
		line = lipgloss.NewStyle().Foreground(colorMuted).Background(bg).Render("No shortcuts")
	}
	return renderBar(footerStyle, max(1, m.width), line, bg)
}

func renderBar(style lipgloss.Style, width int, text string, bg lipgloss.TerminalColor) string {
	line := strings.ReplaceAll(text, "\n", " ")
	line = ansi.Truncate(line, width, "")
	lineW := ansi.StringWidth(line)
	if lineW < width {
		line += strings.Repeat(" ", width-lineW)
	}
	return style.
		Background(bg).
		Width(width).
		MaxWidth(width).
		Render(line)
}
