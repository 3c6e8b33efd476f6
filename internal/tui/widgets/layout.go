// Package widgets holds the layout primitives the shell draws with. A
// widget renders itself into exactly the box it is given.
package widgets

import (
	"math"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

type Widget interface {
	Render(width, height int) string
}

// Static is pre-rendered content, padded or clipped to its box.
type Static struct {
	Content string
}

func (s Static) Render(width, height int) string {
	return Fit(s.Content, width, height)
}

type VStack struct {
	Widgets []Widget
	Spacing int
	Ratios  []float64
}

func (v VStack) Render(width, height int) string {
	if len(v.Widgets) == 0 || width <= 0 || height <= 0 {
		return ""
	}
	spacingTotal := max(0, v.Spacing*(len(v.Widgets)-1))
	usable := max(1, height-spacingTotal)
	heights := splitSizes(usable, len(v.Widgets), v.Ratios, nil)
	lines := make([]string, 0, len(v.Widgets)*2)
	for i, w := range v.Widgets {
		lines = append(lines, FitHeight(w.Render(width, max(1, heights[i])), max(1, heights[i])))
		if i < len(v.Widgets)-1 {
			for s := 0; s < v.Spacing; s++ {
				lines = append(lines, "")
			}
		}
	}
	return strings.Join(lines, "\n")
}

// HStack lays widgets out in columns. Fixed pins a column to an exact
// width (0 leaves it flexible); flexible columns share what remains by
// Ratios.
type HStack struct {
	Widgets []Widget
	Ratios  []float64
	Fixed   []int
	Gap     int
}

func (h HStack) Render(width, height int) string {
	if len(h.Widgets) == 0 || width <= 0 || height <= 0 {
		return ""
	}
	gapTotal := max(0, h.Gap*(len(h.Widgets)-1))
	usable := max(1, width-gapTotal)
	widths := splitSizes(usable, len(h.Widgets), h.Ratios, h.Fixed)
	rendered := make([][]string, len(h.Widgets))
	maxLines := 0
	for i, w := range h.Widgets {
		if widths[i] <= 0 {
			continue
		}
		part := strings.Split(w.Render(widths[i], height), "\n")
		rendered[i] = part
		maxLines = max(maxLines, len(part))
	}
	maxLines = min(maxLines, height)
	out := make([]string, 0, maxLines)
	for line := 0; line < maxLines; line++ {
		cols := make([]string, 0, len(rendered))
		for i := range rendered {
			if widths[i] <= 0 {
				continue
			}
			if line < len(rendered[i]) {
				cols = append(cols, PadRight(rendered[i][line], widths[i]))
			} else {
				cols = append(cols, strings.Repeat(" ", widths[i]))
			}
		}
		out = append(out, strings.Join(cols, strings.Repeat(" ", h.Gap)))
	}
	return strings.Join(out, "\n")
}

func splitSizes(total, n int, ratios []float64, fixed []int) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, n)
	flex := make([]int, 0, n)
	remaining := total
	for i := 0; i < n; i++ {
		if i < len(fixed) && fixed[i] > 0 {
			out[i] = min(fixed[i], remaining)
			remaining -= out[i]
			continue
		}
		flex = append(flex, i)
	}
	if len(flex) == 0 || remaining <= 0 {
		return out
	}
	weights := make([]float64, len(flex))
	sum := 0.0
	for j, i := range flex {
		w := 1.0
		if len(ratios) == n && ratios[i] > 0 {
			w = ratios[i]
		}
		weights[j] = w
		sum += w
	}
	used := 0
	for j, i := range flex {
		out[i] = int(math.Floor(weights[j] / sum * float64(remaining)))
		used += out[i]
	}
	for j := 0; used < remaining; j = (j + 1) % len(flex) {
		out[flex[j]]++
		used++
	}
	return out
}

// PadRight clips s to width columns and pads it with spaces.
func PadRight(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = ansi.Truncate(s, width, "")
	w := ansi.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// FitHeight clips or pads s to exactly height lines.
func FitHeight(s string, height int) string {
	if height <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// Fit clips or pads s to a width x height canvas.
func Fit(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	lines := strings.Split(FitHeight(s, height), "\n")
	for i := range lines {
		lines[i] = PadRight(lines[i], width)
	}
	return strings.Join(lines, "\n")
}
