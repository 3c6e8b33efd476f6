package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/ideacrowd/internal/session"
)

var (
	signedOut = session.Unauthenticated()
	signedIn  = session.StateOf(&session.Session{ID: "s1", Identity: "ada@example.com"})
)

func testGuard(t *testing.T) *Guard {
	t.Helper()
	reg, err := NewRegistry(
		Descriptor{Path: "/", Required: AuthenticatedOnly, View: "dashboard"},
		Descriptor{Path: "/sign-in", Required: UnauthenticatedOnly, View: "sign-in"},
		Descriptor{Path: "/sign-up", Required: UnauthenticatedOnly, View: "sign-up"},
		Descriptor{Path: "/explore", Required: AuthenticatedOnly, View: "explore"},
		Descriptor{Path: "/settings", Required: AuthenticatedOnly, View: "settings"},
		Descriptor{Path: "/about", Required: Any, View: "about"},
		Descriptor{Path: "/projects/*", Required: AuthenticatedOnly, View: "project"},
	)
	require.NoError(t, err)
	g, err := NewGuard(reg, GuardConfig{SignInPath: "/sign-in", DefaultPath: "/", NotFoundView: "not-found"})
	require.NoError(t, err)
	return g
}

func TestResolveSignInScenario(t *testing.T) {
	reg, err := NewRegistry(
		Descriptor{Path: "/", Required: AuthenticatedOnly, View: "dashboard"},
		Descriptor{Path: "/sign-in", Required: UnauthenticatedOnly, View: "sign-in"},
	)
	require.NoError(t, err)
	g, err := NewGuard(reg, GuardConfig{SignInPath: "/sign-in", DefaultPath: "/", NotFoundView: "not-found"})
	require.NoError(t, err)

	assert.True(t, g.Resolve("/", signedOut).Equal(RedirectTo("/sign-in")))
	assert.True(t, g.Resolve("/sign-in", signedOut).Equal(RenderOf("sign-in", "/sign-in")))
	assert.True(t, g.Resolve("/", signedIn).Equal(RenderOf("dashboard", "/")))
	assert.True(t, g.Resolve("/sign-in", signedIn).Equal(RedirectTo("/")))
}

func TestResolveIsDeterministic(t *testing.T) {
	g := testGuard(t)
	paths := []string{"/", "/sign-in", "/sign-up", "/explore", "/about", "/projects/9", "/unknown", "/explor"}
	for _, state := range []session.State{signedOut, signedIn} {
		for _, p := range paths {
			first := g.Resolve(p, state)
			for i := 0; i < 5; i++ {
				assert.Truef(t, first.Equal(g.Resolve(p, state)), "resolve(%q, %s) changed", p, state)
			}
		}
	}
}

func TestAuthenticatedOnlyAlwaysRedirectsWhenSignedOut(t *testing.T) {
	g := testGuard(t)
	for _, d := range g.Registry().Descriptors() {
		if d.Required != AuthenticatedOnly {
			continue
		}
		p := d.Path
		if d.IsPrefix() {
			p = d.Path[:len(d.Path)-2] + "/sample"
		}
		got := g.Resolve(p, signedOut)
		assert.Equalf(t, Redirect, got.Kind, "resolve(%q)", p)
		assert.Equal(t, "/sign-in", got.Path)
	}
}

func TestUnauthenticatedOnlyAlwaysRedirectsWhenSignedIn(t *testing.T) {
	g := testGuard(t)
	for _, d := range g.Registry().Descriptors() {
		if d.Required != UnauthenticatedOnly {
			continue
		}
		got := g.Resolve(d.Path, signedIn)
		assert.Equalf(t, Redirect, got.Kind, "resolve(%q)", d.Path)
		assert.Equal(t, "/", got.Path)
	}
}

func TestAnyRendersInBothStates(t *testing.T) {
	g := testGuard(t)
	for _, state := range []session.State{signedOut, signedIn} {
		got := g.Resolve("/about", state)
		assert.Equal(t, Render, got.Kind)
		assert.Equal(t, ViewID("about"), got.View)
	}
}

func TestUnknownPathRendersNotFound(t *testing.T) {
	g := testGuard(t)
	for _, state := range []session.State{signedOut, signedIn} {
		got := g.Resolve("/unknown", state)
		assert.Equal(t, Render, got.Kind)
		assert.Equal(t, ViewID("not-found"), got.View)
		assert.True(t, got.NotFound())
		assert.ErrorIs(t, got.Err, ErrRouteNotFound)
		assert.Equal(t, "/unknown", got.Path)
	}
}

func TestNotFoundSuggestsReachablePaths(t *testing.T) {
	g := testGuard(t)

	got := g.Resolve("/explor", signedIn)
	require.True(t, got.NotFound())
	assert.Equal(t, []string{"/explore"}, got.Suggestions)

	// /explore is not reachable signed out, so it is not suggested
	got = g.Resolve("/explor", signedOut)
	assert.Empty(t, got.Suggestions)

	got = g.Resolve("/sign-inn", signedOut)
	assert.Equal(t, "/sign-in", got.Suggestions[0])
}

func TestDispatchFollowsOneRedirect(t *testing.T) {
	g := testGuard(t)

	res := g.Dispatch("/explore", signedOut)
	assert.Equal(t, Render, res.Kind)
	assert.Equal(t, ViewID("sign-in"), res.View)
	assert.Equal(t, "/sign-in", res.Path)
	assert.Equal(t, "/explore", res.Requested)
	assert.True(t, res.Redirected())

	res = g.Dispatch("/sign-up", signedIn)
	assert.Equal(t, ViewID("dashboard"), res.View)
	assert.True(t, res.Redirected())

	res = g.Dispatch("/explore/", signedIn)
	assert.Equal(t, ViewID("explore"), res.View)
	assert.False(t, res.Redirected())
}

func TestSignInNotificationRendersDashboard(t *testing.T) {
	g := testGuard(t)
	assert.Equal(t, Redirect, g.Resolve("/", signedOut).Kind)
	res := g.Dispatch("/", signedIn)
	assert.Equal(t, ViewID("dashboard"), res.View)
	assert.False(t, res.Redirected())
}

func TestNewGuardRejectsRedirectLoops(t *testing.T) {
	reg, err := NewRegistry(
		Descriptor{Path: "/", Required: AuthenticatedOnly, View: "dashboard"},
		Descriptor{Path: "/sign-in", Required: AuthenticatedOnly, View: "sign-in"},
	)
	require.NoError(t, err)
	_, err = NewGuard(reg, GuardConfig{SignInPath: "/sign-in", DefaultPath: "/", NotFoundView: "nf"})
	require.ErrorIs(t, err, ErrRedirectLoop)

	reg, err = NewRegistry(
		Descriptor{Path: "/", Required: UnauthenticatedOnly, View: "dashboard"},
		Descriptor{Path: "/sign-in", Required: UnauthenticatedOnly, View: "sign-in"},
	)
	require.NoError(t, err)
	_, err = NewGuard(reg, GuardConfig{SignInPath: "/sign-in", DefaultPath: "/", NotFoundView: "nf"})
	require.ErrorIs(t, err, ErrRedirectLoop)
}

func TestNewGuardRejectsMissingTargets(t *testing.T) {
	reg, err := NewRegistry(Descriptor{Path: "/", Required: AuthenticatedOnly, View: "dashboard"})
	require.NoError(t, err)

	_, err = NewGuard(reg, GuardConfig{SignInPath: "/sign-in", DefaultPath: "/", NotFoundView: "nf"})
	require.ErrorIs(t, err, ErrInvalidRoute)

	_, err = NewGuard(reg, GuardConfig{SignInPath: "/", DefaultPath: "/"})
	require.ErrorIs(t, err, ErrInvalidRoute)

	_, err = NewGuard(nil, GuardConfig{NotFoundView: "nf"})
	require.ErrorIs(t, err, ErrInvalidRoute)
}

func TestDispatchStopsAtSecondRedirect(t *testing.T) {
	reg, err := NewRegistry(
		Descriptor{Path: "/", Required: AuthenticatedOnly, View: "dashboard"},
		Descriptor{Path: "/sign-in", Required: AuthenticatedOnly, View: "sign-in"},
	)
	require.NoError(t, err)
	// bypass NewGuard validation to exercise the request-time backstop
	g := &Guard{registry: reg, cfg: GuardConfig{SignInPath: "/sign-in", DefaultPath: "/", NotFoundView: "nf"}}

	res := g.Dispatch("/", signedOut)
	assert.Equal(t, Render, res.Kind)
	assert.Equal(t, ViewID("nf"), res.View)
	assert.ErrorIs(t, res.Err, ErrRedirectLoop)
}
