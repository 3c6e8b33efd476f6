// Package route maps requested paths to views and enforces the session
// requirement each view declares.
//
// A Registry is built once at startup from Descriptors and never changes.
// A Guard evaluates a (path, session state) pair against it; evaluation is
// pure, so the same inputs always produce the same ResolvedView.
package route

import (
	"errors"
	"fmt"
	pathpkg "path"
	"slices"
	"strings"

	"github.com/jask/ideacrowd/internal/session"
)

var (
	ErrInvalidRoute   = errors.New("invalid route")
	ErrAmbiguousRoute = errors.New("ambiguous route")
	ErrRedirectLoop   = errors.New("redirect loop")
	ErrRouteNotFound  = errors.New("route not found")
)

// RequiredState is the session requirement of a route.
type RequiredState uint8

const (
	Any RequiredState = iota
	AuthenticatedOnly
	UnauthenticatedOnly
)

func (r RequiredState) String() string {
	switch r {
	case Any:
		return "any"
	case AuthenticatedOnly:
		return "authenticated-only"
	case UnauthenticatedOnly:
		return "unauthenticated-only"
	default:
		return fmt.Sprintf("required-state(%d)", uint8(r))
	}
}

// Admits reports whether a route with this requirement may render in state.
func (r RequiredState) Admits(state session.State) bool {
	switch r {
	case AuthenticatedOnly:
		return state.IsAuthenticated()
	case UnauthenticatedOnly:
		return !state.IsAuthenticated()
	default:
		return true
	}
}

// ViewID names a render target.
type ViewID string

// Descriptor is one static routing rule. A Path ending in "/*" matches
// the prefix and every path below it; any other Path matches exactly.
type Descriptor struct {
	Path     string
	Required RequiredState
	View     ViewID
	Title    string
}

func (d Descriptor) IsPrefix() bool {
	return strings.HasSuffix(d.Path, "/*")
}

// Kind discriminates a ResolvedView.
type Kind uint8

const (
	Render Kind = iota + 1
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// ResolvedView is the outcome of evaluating a path. For Render, Path is
// the path being shown; for Redirect, it is the target.
type ResolvedView struct {
	Kind        Kind
	View        ViewID
	Path        string
	Err         error
	Suggestions []string
}

func RenderOf(view ViewID, path string) ResolvedView {
	return ResolvedView{Kind: Render, View: view, Path: path}
}

func RedirectTo(path string) ResolvedView {
	return ResolvedView{Kind: Redirect, Path: path}
}

func (r ResolvedView) NotFound() bool {
	return errors.Is(r.Err, ErrRouteNotFound)
}

// Equal compares every field; errors compare by identity of their chain
// roots so two not-found results for the same path are equal.
func (r ResolvedView) Equal(o ResolvedView) bool {
	if r.Kind != o.Kind || r.View != o.View || r.Path != o.Path {
		return false
	}
	if (r.Err == nil) != (o.Err == nil) {
		return false
	}
	if r.Err != nil && r.Err.Error() != o.Err.Error() {
		return false
	}
	return slices.Equal(r.Suggestions, o.Suggestions)
}

func (r ResolvedView) String() string {
	if r.Kind == Redirect {
		return "redirect(" + r.Path + ")"
	}
	return "render(" + string(r.View) + " @ " + r.Path + ")"
}

// Resolution is a fully settled navigation: the view to render plus the
// path that was asked for.
type Resolution struct {
	ResolvedView
	Requested string
}

func (r Resolution) Redirected() bool {
	return r.Requested != r.Path
}

// Normalize turns raw input from the address bar or a link into the form
// patterns are matched against: leading slash, no trailing slash, no
// query or fragment, dot segments removed.
func Normalize(raw string) string {
	p := strings.TrimSpace(raw)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return pathpkg.Clean(p)
}
