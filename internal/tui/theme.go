package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorText     lipgloss.Color = "#cdd6f4"
	colorMuted    lipgloss.Color = "#a6adc8"
	colorBorder   lipgloss.Color = "#585b70"
	colorAccent   lipgloss.Color = "#89b4fa"
	colorSuccess  lipgloss.Color = "#a6e3a1"
	colorError    lipgloss.Color = "#f38ba8"
	colorTabOff   lipgloss.Color = "#7f849c"
	colorMantle   lipgloss.Color = "#181825"
	colorSurface0 lipgloss.Color = "#313244"
)

var (
	appStyle = lipgloss.NewStyle().Foreground(colorText)

	headerAppStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Background(colorMantle)
	headerBarStyle = lipgloss.NewStyle().
			Background(colorMantle).
			Foreground(colorText)
	headerMetaStyle = lipgloss.NewStyle().Foreground(colorMuted).Background(colorMantle)

	sidebarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(colorBorder)
	sidebarTitleStyle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	sidebarItemStyle   = lipgloss.NewStyle().Foreground(colorTabOff)
	sidebarActiveStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	sidebarCursorStyle = lipgloss.NewStyle().Foreground(colorText).Background(colorSurface0)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Background(colorSurface0)
	statusErrBarStyle = lipgloss.NewStyle().
				Foreground(colorError).
				Background(colorSurface0)
	footerStyle = lipgloss.NewStyle().
			Background(colorMantle)

	screenTitleStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	screenHintStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	screenErrStyle   = lipgloss.NewStyle().Foreground(colorError)
)
