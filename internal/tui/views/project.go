package views

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/ideacrowd/internal/tui"
	"github.com/jask/ideacrowd/internal/tui/widgets"
)

// projectPage shows /projects/<id>.
type projectPage struct {
	path    string
	project ProjectInfo
	similar []ProjectInfo
	found   bool
}

func newProjectPage(p tui.Props, catalog *Catalog) *projectPage {
	id := strings.Trim(strings.TrimPrefix(p.Resolved.Path, "/projects"), "/")
	proj, ok := catalog.Get(id)
	return &projectPage{path: p.Resolved.Path, project: proj, similar: catalog.Similar(id), found: ok}
}

func (v *projectPage) Scope() string                      { return scopeProject }
func (v *projectPage) Capturing() bool                    { return false }
func (v *projectPage) Update(tea.Msg) (tui.View, tea.Cmd) { return v, nil }

func (v *projectPage) Render(width, height int) string {
	if !v.found {
		return widgets.Box{Title: "Project not found", Content: mutedStyle.Render("Nothing lives at " + v.path + ".")}.Render(width, height)
	}
	body := mutedStyle.Render(v.project.Type) + "\n\n" + v.project.Description
	if len(v.similar) > 0 {
		lines := []string{"", "", labelStyle.Render("Similar")}
		for _, p := range v.similar {
			lines = append(lines, p.Title+"  "+mutedStyle.Render("/projects/"+p.ID))
		}
		body += strings.Join(lines, "\n")
	}
	return widgets.Box{Title: v.project.Title, Content: body}.Render(width, height)
}

// projectForm creates a project in the in-memory catalog.
type projectForm struct {
	catalog *Catalog
	title   textinput.Model
	kind    textinput.Model
	desc    textarea.Model
	focus   int
	err     error
}

func newProjectForm(catalog *Catalog) *projectForm {
	title := textinput.New()
	title.Placeholder = "Project title"
	title.CharLimit = 80
	title.Prompt = ""
	kind := textinput.New()
	kind.Placeholder = "app, community, hardware…"
	kind.CharLimit = 40
	kind.Prompt = ""
	desc := textarea.New()
	desc.Placeholder = "What is it, and who is it for?"
	desc.ShowLineNumbers = false
	desc.SetHeight(4)
	f := &projectForm{catalog: catalog, title: title, kind: kind, desc: desc}
	f.setFocus(0)
	return f
}

func (f *projectForm) Scope() string   { return scopeForm }
func (f *projectForm) Capturing() bool { return true }

func (f *projectForm) setFocus(i int) {
	f.focus = i
	f.title.Blur()
	f.kind.Blur()
	f.desc.Blur()
	switch i {
	case 0:
		f.title.Focus()
	case 1:
		f.kind.Focus()
	default:
		f.desc.Focus()
	}
}

func (f *projectForm) Update(msg tea.Msg) (tui.View, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc":
			return f, tui.NavigateCmd(HomePath)
		case "tab":
			f.setFocus((f.focus + 1) % 3)
			return f, nil
		case "shift+tab":
			f.setFocus((f.focus + 2) % 3)
			return f, nil
		case "ctrl+s":
			p, err := f.catalog.Add(ProjectInfo{Title: f.title.Value(), Type: f.kind.Value(), Description: f.desc.Value()})
			if err != nil {
				f.err = err
				f.setFocus(0)
				return f, nil
			}
			return f, tea.Batch(tui.StatusCmd("Created "+p.Title), tui.NavigateCmd("/projects/"+p.ID))
		}
	}
	var cmd tea.Cmd
	switch f.focus {
	case 0:
		f.title, cmd = f.title.Update(msg)
	case 1:
		f.kind, cmd = f.kind.Update(msg)
	default:
		f.desc, cmd = f.desc.Update(msg)
	}
	return f, cmd
}

func (f *projectForm) Render(width, height int) string {
	inner := max(10, width-20)
	f.title.Width = inner
	f.kind.Width = inner
	f.desc.SetWidth(inner)
	lines := []string{
		labelStyle.Render("Title") + f.title.View(),
		labelStyle.Render("Type") + f.kind.View(),
		labelStyle.Render("Description"),
		f.desc.View(),
	}
	if f.err != nil {
		msg := f.err.Error()
		if !errors.Is(f.err, ErrProjectTitle) {
			msg = "could not create project: " + msg
		}
		lines = append(lines, "", errStyle.Render(msg))
	}
	return widgets.Box{Title: "New Project", Content: strings.Join(lines, "\n")}.Render(width, height)
}
