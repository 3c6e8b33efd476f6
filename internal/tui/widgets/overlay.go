package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// RenderPopup draws popup in a bordered card centred over base. Rows the
// card does not cover keep the base content.
func RenderPopup(base, popup string, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	baseCanvas := Fit(base, width, height)
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#89b4fa")).
		Padding(1, 2).
		Render(popup)
	overlayCanvas := Fit(lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card), width, height)
	return overlayOntoBase(baseCanvas, overlayCanvas, width, height)
}

func overlayOntoBase(base, overlay string, width, height int) string {
	baseLines := strings.Split(FitHeight(base, height), "\n")
	overlayLines := strings.Split(FitHeight(overlay, height), "\n")
	out := make([]string, height)
	for i := 0; i < height; i++ {
		baseLine := PadRight(baseLines[i], width)
		overlayLine := PadRight(overlayLines[i], width)
		start, end, has := segmentBounds(overlayLine, width)
		if !has {
			out[i] = baseLine
			continue
		}
		left := ansi.Truncate(baseLine, start, "")
		segment := ansi.Truncate(dropColumns(overlayLine, start), end-start, "")
		right := dropColumns(baseLine, end)
		out[i] = PadRight(left+segment+right, width)
	}
	return strings.Join(out, "\n")
}

// segmentBounds finds the columns the card occupies on one row.
func segmentBounds(line string, width int) (start, end int, ok bool) {
	plain := ansi.Strip(ansi.Truncate(line, width, ""))
	trimmed := strings.TrimRight(plain, " ")
	if trimmed == "" {
		return 0, 0, false
	}
	for start < len(plain) && plain[start] == ' ' {
		start++
	}
	end = ansi.StringWidth(trimmed)
	start = ansi.StringWidth(plain[:start])
	if start >= end {
		return 0, 0, false
	}
	return start, end, true
}

func dropColumns(s string, cols int) string {
	if cols <= 0 {
		return s
	}
	truncated := ansi.Truncate(s, cols, "")
	return strings.TrimPrefix(s, truncated)
}
