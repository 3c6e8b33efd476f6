// Package tui is the terminal shell: a persistent navigation frame with a
// single outlet where the view for the current path is mounted. Paths
// are resolved through a route.Guard against the session store's state.
package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jask/ideacrowd/internal/route"
	"github.com/jask/ideacrowd/internal/session"
)

var ErrMissingView = errors.New("no view registered")

// View is what the outlet holds. Views never see the session; they get
// Props from the shell.
type View interface {
	Update(msg tea.Msg) (View, tea.Cmd)
	Render(width, height int) string
	Scope() string
	// Capturing reports that a text input has focus and wants every key.
	Capturing() bool
}

// ViewInitializer is implemented by views that start work when mounted.
type ViewInitializer interface {
	Init() tea.Cmd
}

type Props struct {
	Resolved route.ResolvedView
	// Identity is empty when nobody is signed in.
	Identity string
}

type ViewFactory func(Props) View

// SignOuter ends the current session.
type SignOuter interface {
	Invoke(ctx context.Context) error
}

// ResolutionRecorder counts navigation outcomes.
type ResolutionRecorder interface {
	RecordResolution(outcome string)
}

type Deps struct {
	Store    *session.Store
	Guard    *route.Guard
	SignOut  SignOuter
	Views    map[route.ViewID]ViewFactory
	Keys     *KeyRegistry
	Recorder ResolutionRecorder
	Logger   zerolog.Logger

	AppName          string
	SidebarCollapsed bool
	StartPath        string
	// OnSidebarToggle persists the collapsed flag; optional.
	OnSidebarToggle func(collapsed bool)
}

type navItem struct {
	Path  string
	Title string
}

type Model struct {
	deps   Deps
	keys   *KeyRegistry
	feed   *sessionFeed
	width  int
	height int

	state     session.State
	path      string
	returnTo  string
	resolved  route.ResolvedView
	outletKey outletKey
	outlet    View
	screens   ScreenStack
	status    string
	statusErr bool
	quitting  bool

	nav       []navItem
	collapsed bool
	cursor    int
	frame     frameCache

	// counters for tests and debug logging
	outletMounts int
	frameRenders int
}

type outletKey struct {
	resolved route.ResolvedView
	identity string
}

// New mounts the frame and resolves the start path against the store's
// current state.
func New(deps Deps) (Model, error) {
	if deps.Store == nil || deps.Guard == nil {
		return Model{}, errors.New("tui: store and guard are required")
	}
	if err := checkViews(deps.Guard, deps.Views); err != nil {
		return Model{}, err
	}
	if deps.Keys == nil {
		deps.Keys = NewKeyRegistry(DefaultKeyBindings())
	}
	if deps.AppName == "" {
		deps.AppName = "IdeaCrowd"
	}
	m := Model{
		deps:      deps,
		keys:      deps.Keys,
		width:     100,
		height:    32,
		state:     deps.Store.Current(),
		status:    "Ready",
		collapsed: deps.SidebarCollapsed,
		nav:       navItems(deps.Guard.Registry()),
	}
	if err := deps.Store.Err(); err != nil {
		m.SetError(err)
	}
	m.feed = newSessionFeed(deps.Store)
	start := deps.StartPath
	if start == "" {
		start = deps.Guard.DefaultPath()
	}
	m.navigate(start, true)
	m.refreshFrame()
	return m, nil
}

func checkViews(g *route.Guard, views map[route.ViewID]ViewFactory) error {
	var errs []error
	need := []route.ViewID{}
	for _, d := range g.Registry().Descriptors() {
		need = append(need, d.View)
	}
	need = append(need, g.NotFoundView())
	for _, id := range need {
		if views[id] == nil {
			errs = append(errs, fmt.Errorf("%w: %q", ErrMissingView, id))
		}
	}
	return errors.Join(errs...)
}

// navItems are the titled exact routes a signed-in user can open.
func navItems(r *route.Registry) []navItem {
	var out []navItem
	for _, d := range r.Descriptors() {
		if d.Title == "" || d.IsPrefix() || d.Required != route.AuthenticatedOnly {
			continue
		}
		out = append(out, navItem{Path: route.Normalize(d.Path), Title: d.Title})
	}
	return out
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.feed.wait(), m.initOutlet())
}

func (m Model) initOutlet() tea.Cmd {
	if v, ok := m.outlet.(ViewInitializer); ok {
		return v.Init()
	}
	return nil
}

func (m *Model) SetStatus(msg string) {
	m.status = msg
	m.statusErr = false
}

func (m *Model) SetError(err error) {
	if err == nil {
		m.status = ""
		m.statusErr = false
		return
	}
	m.status = err.Error()
	m.statusErr = true
}

// Path is the path currently shown.
func (m Model) Path() string { return m.path }

func (m Model) Resolved() route.ResolvedView { return m.resolved }

func (m Model) State() session.State { return m.state }

func (m Model) SidebarCollapsed() bool { return m.collapsed }

// Framed reports whether the navigation frame is drawn. Guests see their
// views full screen.
func (m Model) Framed() bool { return m.state.IsAuthenticated() }

func (m Model) ActiveScope() string {
	if top := m.screens.Top(); top != nil {
		return top.Scope()
	}
	if m.outlet != nil {
		return m.outlet.Scope()
	}
	return "app"
}

// navigate resolves path and mounts the result. A redirect to sign-in
// remembers where the visitor wanted to go when remember is set.
func (m *Model) navigate(path string, remember bool) tea.Cmd {
	res := m.deps.Guard.Dispatch(path, m.state)
	switch {
	case res.NotFound() || errors.Is(res.Err, route.ErrRedirectLoop):
		m.record("not_found")
	case res.Redirected():
		m.record("redirect")
	default:
		m.record("render")
	}
	if res.Redirected() {
		m.deps.Logger.Debug().Str("from", res.Requested).Str("to", res.Path).Msg("redirected")
		if remember && res.Path == m.deps.Guard.SignInPath() {
			m.returnTo = res.Requested
		}
	}
	m.path = res.Path
	m.syncCursor()
	if m.Compose(res.ResolvedView) {
		return m.initOutlet()
	}
	return nil
}

func (m *Model) record(outcome string) {
	if m.deps.Recorder != nil {
		m.deps.Recorder.RecordResolution(outcome)
	}
}

// Compose mounts a view for resolved unless the outlet already shows it
// for the same identity. It reports whether the outlet changed. The
// frame is untouched.
func (m *Model) Compose(resolved route.ResolvedView) bool {
	key := outletKey{resolved: resolved, identity: m.state.Identity()}
	if m.outlet != nil && m.outletKey.resolved.Equal(resolved) && m.outletKey.identity == key.identity {
		return false
	}
	factory := m.deps.Views[resolved.View]
	if factory == nil {
		factory = m.deps.Views[m.deps.Guard.NotFoundView()]
	}
	m.resolved = resolved
	m.outletKey = key
	m.outlet = factory(Props{Resolved: resolved, Identity: key.identity})
	m.outletMounts++
	return true
}

// applySession re-resolves the current location after a transition.
func (m *Model) applySession(s session.State) tea.Cmd {
	was := m.state.IsAuthenticated()
	m.state = s
	target := m.path
	if s.IsAuthenticated() && !was && m.returnTo != "" {
		target = m.returnTo
		m.returnTo = ""
	}
	switch {
	case s.IsAuthenticated() && !was:
		m.SetStatus("Signed in as " + s.Identity())
	case !s.IsAuthenticated() && was:
		m.SetStatus("Signed out")
	}
	if err := m.deps.Store.Err(); err != nil {
		m.SetError(err)
	}
	return m.navigate(target, false)
}

func (m *Model) syncCursor() {
	for i, it := range m.nav {
		if it.Path == m.path {
			m.cursor = i
			return
		}
	}
}

func (m *Model) toggleSidebar() {
	m.collapsed = !m.collapsed
	if m.deps.OnSidebarToggle != nil {
		m.deps.OnSidebarToggle(m.collapsed)
	}
}

func (m Model) signOutCmd() tea.Cmd {
	action := m.deps.SignOut
	return func() tea.Msg {
		if action == nil {
			return SignOutDoneMsg{Err: errors.New("sign-out is not available")}
		}
		return SignOutDoneMsg{Err: action.Invoke(context.Background())}
	}
}

// Close detaches the shell from the session store.
func (m Model) Close() {
	m.feed.close()
}
