package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryExactAndPrefixMatching(t *testing.T) {
	reg, err := NewRegistry(
		Descriptor{Path: "/", Required: AuthenticatedOnly, View: "dashboard"},
		Descriptor{Path: "/projects/*", Required: AuthenticatedOnly, View: "project"},
		Descriptor{Path: "/projects/new", Required: AuthenticatedOnly, View: "new-project"},
	)
	require.NoError(t, err)

	cases := map[string]ViewID{
		"/":                "dashboard",
		"/projects":        "project",
		"/projects/42":     "project",
		"/projects/42/x":   "project",
		"/projects/new":    "new-project",
		"/projects/new/":   "new-project",
		"projects/new?x=1": "new-project",
	}
	for path, want := range cases {
		got, ok := reg.Lookup(path)
		require.Truef(t, ok, "lookup %q", path)
		assert.Equalf(t, want, got.View, "lookup %q", path)
	}

	_, ok := reg.Lookup("/projectsx")
	assert.False(t, ok, "prefix must match whole segments")
	_, ok = reg.Lookup("/explore")
	assert.False(t, ok)
}

func TestRegistryIsOrderIndependent(t *testing.T) {
	a, err := NewRegistry(
		Descriptor{Path: "/projects/*", View: "project"},
		Descriptor{Path: "/projects/new", View: "new"},
	)
	require.NoError(t, err)
	b, err := NewRegistry(
		Descriptor{Path: "/projects/new", View: "new"},
		Descriptor{Path: "/projects/*", View: "project"},
	)
	require.NoError(t, err)

	for _, p := range []string{"/projects/new", "/projects/7", "/projects"} {
		da, _ := a.Lookup(p)
		db, _ := b.Lookup(p)
		assert.Equal(t, da.View, db.View, p)
	}
}

func TestRegistryRootPrefixCatchesEverything(t *testing.T) {
	reg, err := NewRegistry(
		Descriptor{Path: "/*", View: "fallback"},
		Descriptor{Path: "/about", View: "about"},
	)
	require.NoError(t, err)

	d, ok := reg.Lookup("/anything/at/all")
	require.True(t, ok)
	assert.Equal(t, ViewID("fallback"), d.View)
	d, _ = reg.Lookup("/about")
	assert.Equal(t, ViewID("about"), d.View)
}

func TestRegistryRejectsTies(t *testing.T) {
	_, err := NewRegistry(
		Descriptor{Path: "/a", View: "one"},
		Descriptor{Path: "/a/", View: "two"},
	)
	require.ErrorIs(t, err, ErrAmbiguousRoute)

	_, err = NewRegistry(
		Descriptor{Path: "/projects", View: "list"},
		Descriptor{Path: "/projects/*", View: "detail"},
	)
	require.ErrorIs(t, err, ErrAmbiguousRoute)
}

func TestRegistryRejectsInvalidDescriptors(t *testing.T) {
	cases := []Descriptor{
		{Path: "", View: "x"},
		{Path: "nope", View: "x"},
		{Path: "/ok"},
		{Path: "/a*b", View: "x"},
		{Path: "/x", View: "x", Required: RequiredState(9)},
	}
	for _, d := range cases {
		_, err := NewRegistry(d)
		assert.ErrorIsf(t, err, ErrInvalidRoute, "descriptor %+v", d)
	}
}

func TestRegistryReportsEveryProblem(t *testing.T) {
	_, err := NewRegistry(
		Descriptor{Path: "/a", View: "a"},
		Descriptor{Path: "/a", View: "b"},
		Descriptor{Path: "/b"},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousRoute)
	assert.ErrorIs(t, err, ErrInvalidRoute)
}

func TestRegistryDescriptorsKeepDeclarationOrder(t *testing.T) {
	reg, err := NewRegistry(
		Descriptor{Path: "/b", View: "b"},
		Descriptor{Path: "/a/long/path", View: "a"},
	)
	require.NoError(t, err)
	got := reg.Descriptors()
	require.Len(t, got, 2)
	assert.Equal(t, "/b", got[0].Path)

	got[0].Path = "/mutated"
	assert.Equal(t, "/b", reg.Descriptors()[0].Path)
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":              "/",
		"  ":            "/",
		"/":             "/",
		"explore":       "/explore",
		"/explore/":     "/explore",
		"/a//b/../c":    "/a/c",
		"/sign-in?x=1":  "/sign-in",
		"/chats#recent": "/chats",
	}
	for in, want := range cases {
		assert.Equalf(t, want, Normalize(in), "Normalize(%q)", in)
	}
}
