package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/ideacrowd/internal/tui"
	"github.com/jask/ideacrowd/internal/tui/widgets"
)

const cardHeight = 7

// dashboard is "My Projects": a search box over a grid of project cards.
type dashboard struct {
	identity  string
	catalog   *Catalog
	search    textinput.Model
	searching bool
	selected  int
	shown     []ProjectInfo
}

func newDashboard(p tui.Props, catalog *Catalog) *dashboard {
	in := textinput.New()
	in.Placeholder = "Search…"
	in.Prompt = "⌕ "
	in.CharLimit = 64
	in.Width = 30
	d := &dashboard{identity: p.Identity, catalog: catalog, search: in}
	d.filter()
	return d
}

func (d *dashboard) Scope() string {
	if d.searching {
		return scopeSearch
	}
	return scopeDashboard
}

func (d *dashboard) Capturing() bool { return d.searching }

func (d *dashboard) filter() {
	d.shown = d.catalog.Search(d.search.Value())
	if d.selected >= len(d.shown) {
		d.selected = max(0, len(d.shown)-1)
	}
}

func (d *dashboard) Update(msg tea.Msg) (tui.View, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if d.searching {
		if ok {
			switch km.String() {
			case "esc":
				d.searching = false
				d.search.Blur()
				d.search.SetValue("")
				d.filter()
				return d, nil
			case "enter":
				d.searching = false
				d.search.Blur()
				return d, nil
			}
		}
		var cmd tea.Cmd
		d.search, cmd = d.search.Update(msg)
		d.filter()
		return d, cmd
	}
	if !ok {
		return d, nil
	}
	switch km.String() {
	case "/":
		d.searching = true
		return d, d.search.Focus()
	case "tab", "l", "right":
		if len(d.shown) > 0 {
			d.selected = (d.selected + 1) % len(d.shown)
		}
	case "shift+tab", "h", "left":
		if len(d.shown) > 0 {
			d.selected = (d.selected - 1 + len(d.shown)) % len(d.shown)
		}
	case "o":
		if d.selected < len(d.shown) {
			return d, tui.NavigateCmd("/projects/" + d.shown[d.selected].ID)
		}
	}
	return d, nil
}

func (d *dashboard) Render(width, height int) string {
	greeting := "My Projects"
	if d.identity != "" {
		greeting += mutedStyle.Render("  ·  " + d.identity)
	}
	head := titleStyle.Render(greeting) + "\n" + d.search.View()
	if q := d.search.Value(); q != "" && !d.searching {
		head += mutedStyle.Render("  (filter: " + q + ")")
	}
	headH := lipgloss.Height(head) + 1
	if len(d.shown) == 0 {
		return widgets.Fit(head+"\n\n"+mutedStyle.Render("No projects match."), width, height)
	}

	cols := max(1, min(3, width/28))
	rows := make([]string, 0, (len(d.shown)+cols-1)/cols)
	for start := 0; start < len(d.shown); start += cols {
		cells := make([]widgets.Widget, 0, cols)
		for i := start; i < min(start+cols, len(d.shown)); i++ {
			p := d.shown[i]
			cells = append(cells, widgets.Card{Title: p.Title, Kind: p.Type, Description: p.Description, Selected: i == d.selected})
		}
		for len(cells) < cols {
			cells = append(cells, widgets.Static{})
		}
		rows = append(rows, widgets.HStack{Widgets: cells, Gap: 1}.Render(width, cardHeight))
	}
	grid := strings.Join(rows, "\n")
	return widgets.Fit(head+"\n\n"+widgets.FitHeight(grid, max(1, height-headH)), width, height)
}
