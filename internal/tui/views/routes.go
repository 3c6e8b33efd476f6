// Package views holds the pages mounted in the shell's outlet and the
// route table that maps paths to them.
package views

import (
	"context"

	"github.com/jask/ideacrowd/internal/route"
	"github.com/jask/ideacrowd/internal/tui"
)

const (
	Dashboard  route.ViewID = "dashboard"
	SignIn     route.ViewID = "sign-in"
	SignUp     route.ViewID = "sign-up"
	NewProject route.ViewID = "new-project"
	Project    route.ViewID = "project"
	Explore    route.ViewID = "explore"
	Friends    route.ViewID = "friends"
	Chats      route.ViewID = "chats"
	Settings   route.ViewID = "settings"
	NotFound   route.ViewID = "not-found"
)

const (
	SignInPath = "/sign-in"
	SignUpPath = "/sign-up"
	HomePath   = "/"
)

// Routes is the application's route table. Titled protected routes show
// up in the sidebar in this order.
func Routes() []route.Descriptor {
	return []route.Descriptor{
		{Path: HomePath, Required: route.AuthenticatedOnly, View: Dashboard, Title: "My Projects"},
		{Path: "/else", Required: route.AuthenticatedOnly, View: Dashboard},
		{Path: "/projects/new", Required: route.AuthenticatedOnly, View: NewProject, Title: "New Project"},
		{Path: "/projects/*", Required: route.AuthenticatedOnly, View: Project},
		{Path: "/explore", Required: route.AuthenticatedOnly, View: Explore, Title: "Explore"},
		{Path: "/friends", Required: route.AuthenticatedOnly, View: Friends, Title: "Friends"},
		{Path: "/chats", Required: route.AuthenticatedOnly, View: Chats, Title: "Chats"},
		{Path: "/settings", Required: route.AuthenticatedOnly, View: Settings, Title: "Settings"},
		{Path: SignInPath, Required: route.UnauthenticatedOnly, View: SignIn, Title: "Sign in"},
		{Path: SignUpPath, Required: route.UnauthenticatedOnly, View: SignUp, Title: "Sign up"},
	}
}

// Authenticator starts sessions. The identity providers implement it.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password string) error
}

// SettingsInfo is what the settings page reports.
type SettingsInfo struct {
	Provider   string
	ConfigPath string
	LogPath    string
}

type Deps struct {
	Auth     Authenticator
	Catalog  *Catalog
	Settings SettingsInfo
}

// Factories builds one factory per view in Routes plus the not-found view.
func Factories(d Deps) map[route.ViewID]tui.ViewFactory {
	if d.Catalog == nil {
		d.Catalog = NewCatalog(SampleProjects()...)
	}
	return map[route.ViewID]tui.ViewFactory{
		Dashboard:  func(p tui.Props) tui.View { return newDashboard(p, d.Catalog) },
		SignIn:     func(p tui.Props) tui.View { return newCredentials(modeSignIn, d.Auth) },
		SignUp:     func(p tui.Props) tui.View { return newCredentials(modeSignUp, d.Auth) },
		NewProject: func(p tui.Props) tui.View { return newProjectForm(d.Catalog) },
		Project:    func(p tui.Props) tui.View { return newProjectPage(p, d.Catalog) },
		Explore:    func(p tui.Props) tui.View { return newExplore(d.Catalog) },
		Friends:    func(p tui.Props) tui.View { return newFriends() },
		Chats:      func(p tui.Props) tui.View { return newChats() },
		Settings:   func(p tui.Props) tui.View { return newSettings(p, d.Settings) },
		NotFound:   func(p tui.Props) tui.View { return newNotFound(p) },
	}
}
