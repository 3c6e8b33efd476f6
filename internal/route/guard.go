package route

import (
	"fmt"

	"github.com/jask/ideacrowd/internal/session"
)

type GuardConfig struct {
	// SignInPath is where unauthenticated visitors of protected routes go.
	SignInPath string
	// DefaultPath is where authenticated visitors of guest-only routes go.
	DefaultPath string
	// NotFoundView renders paths no descriptor matches.
	NotFoundView ViewID
}

// Guard is a pure function of (path, state) over a fixed registry.
type Guard struct {
	registry *Registry
	cfg      GuardConfig
}

// NewGuard checks statically that neither redirect target redirects again
// in the state that sends visitors there. A configuration that would loop
// never gets a Guard.
func NewGuard(registry *Registry, cfg GuardConfig) (*Guard, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: nil registry", ErrInvalidRoute)
	}
	if cfg.NotFoundView == "" {
		return nil, fmt.Errorf("%w: not-found view is required", ErrInvalidRoute)
	}
	cfg.SignInPath = Normalize(cfg.SignInPath)
	cfg.DefaultPath = Normalize(cfg.DefaultPath)

	if err := checkTarget(registry, cfg.SignInPath, UnauthenticatedOnly, "sign-in"); err != nil {
		return nil, err
	}
	if err := checkTarget(registry, cfg.DefaultPath, AuthenticatedOnly, "default"); err != nil {
		return nil, err
	}
	return &Guard{registry: registry, cfg: cfg}, nil
}

// checkTarget verifies that target renders for the state implied by
// arrival. Arriving at the sign-in path means the visitor is
// unauthenticated; arriving at the default path means authenticated.
func checkTarget(registry *Registry, target string, arrival RequiredState, name string) error {
	desc, ok := registry.Lookup(target)
	if !ok {
		return fmt.Errorf("%w: %s path %q is not registered", ErrInvalidRoute, name, target)
	}
	var state session.State
	if arrival == AuthenticatedOnly {
		state = session.StateOf(&session.Session{})
	}
	if !desc.Required.Admits(state) {
		return fmt.Errorf("%w: %s path %q requires %s and would redirect again", ErrRedirectLoop, name, target, desc.Required)
	}
	return nil
}

func (g *Guard) SignInPath() string  { return g.cfg.SignInPath }
func (g *Guard) DefaultPath() string { return g.cfg.DefaultPath }

func (g *Guard) NotFoundView() ViewID { return g.cfg.NotFoundView }

func (g *Guard) Registry() *Registry { return g.registry }

// Resolve evaluates path once against state.
func (g *Guard) Resolve(path string, state session.State) ResolvedView {
	p := Normalize(path)
	desc, ok := g.registry.Lookup(p)
	if !ok {
		return ResolvedView{
			Kind:        Render,
			View:        g.cfg.NotFoundView,
			Path:        p,
			Err:         fmt.Errorf("%w: %s", ErrRouteNotFound, p),
			Suggestions: g.suggest(p, state),
		}
	}
	switch {
	case desc.Required == AuthenticatedOnly && !state.IsAuthenticated():
		return RedirectTo(g.cfg.SignInPath)
	case desc.Required == UnauthenticatedOnly && state.IsAuthenticated():
		return RedirectTo(g.cfg.DefaultPath)
	default:
		return RenderOf(desc.View, p)
	}
}

// Dispatch resolves path and follows at most one redirect, so the result
// is always renderable.
func (g *Guard) Dispatch(path string, state session.State) Resolution {
	requested := Normalize(path)
	first := g.Resolve(requested, state)
	if first.Kind == Render {
		return Resolution{ResolvedView: first, Requested: requested}
	}
	second := g.Resolve(first.Path, state)
	if second.Kind == Render {
		return Resolution{ResolvedView: second, Requested: requested}
	}
	// NewGuard rejects configurations that reach here.
	return Resolution{
		ResolvedView: ResolvedView{
			Kind: Render,
			View: g.cfg.NotFoundView,
			Path: requested,
			Err:  fmt.Errorf("%w: %s -> %s -> %s", ErrRedirectLoop, requested, first.Path, second.Path),
		},
		Requested: requested,
	}
}
