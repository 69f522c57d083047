// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

// Package nav models the site navigation: which view is shown, how the
// admin entry resolves, and the menu state.
package nav

// View is a top-level page.
type View string

// Views.
const (
	Home     View = "home"
	News     View = "noticias"
	Jobs     View = "vagas"
	Events   View = "eventos"
	Location View = "localizacao"
	Login    View = "login"
	Admin    View = "admin"
)

// Screen is what is actually rendered for a view.
type Screen string

// Screens. Only Admin resolves to something other than its own view.
const (
	ScreenHome           Screen = "home"
	ScreenNews           Screen = "noticias"
	ScreenJobs           Screen = "vagas"
	ScreenEvents         Screen = "eventos"
	ScreenLocation       Screen = "localizacao"
	ScreenLogin          Screen = "login"
	ScreenAdminDashboard Screen = "admin"
)

// Resolve maps a view to the screen shown for it. The admin view needs a
// token; without one the login screen is shown. Unknown views fall back
// to home.
func Resolve(v View, authenticated bool) Screen {
	switch v {
	case Admin:
		if authenticated {
			return ScreenAdminDashboard
		}
		return ScreenLogin
	case News:
		return ScreenNews
	case Jobs:
		return ScreenJobs
	case Events:
		return ScreenEvents
	case Location:
		return ScreenLocation
	case Login:
		return ScreenLogin
	default:
		return ScreenHome
	}
}

// ShowsChrome reports whether the public header and footer surround the
// view. The admin dashboard has its own layout.
func ShowsChrome(s Screen) bool {
	return s != ScreenAdminDashboard
}

// Item is a menu entry.
type Item struct {
	View  View
	Label string
	Path  string
	Icon  string
}

var items = []Item{
	{View: Home, Label: "Início", Path: "/"},
	{View: News, Label: "Notícias", Path: "/noticias", Icon: "newspaper"},
	{View: Jobs, Label: "Vagas", Path: "/vagas", Icon: "briefcase"},
	{View: Events, Label: "Eventos", Path: "/eventos", Icon: "calendar"},
	{View: Location, Label: "Localização", Path: "/localizacao", Icon: "map-pin"},
}

// Items returns the public menu in display order.
func Items() []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// AdminEntry returns the menu button leading to the admin area.
func AdminEntry(authenticated bool) Item {
	if authenticated {
		return Item{View: Admin, Label: "Admin", Path: "/admin"}
	}
	return Item{View: Login, Label: "Área Admin", Path: "/login"}
}

// ViewForPath maps a request path to its view.
func ViewForPath(path string) View {
	switch {
	case path == "/" || path == "":
		return Home
	case hasPrefix(path, "/noticias"):
		return News
	case hasPrefix(path, "/vagas"):
		return Jobs
	case hasPrefix(path, "/eventos"):
		return Events
	case hasPrefix(path, "/localizacao"):
		return Location
	case hasPrefix(path, "/login"):
		return Login
	case hasPrefix(path, "/admin"):
		return Admin
	}
	return Home
}

// hasPrefix matches a path segment prefix: "/vagas" matches "/vagas" and
// "/vagas/1" but not "/vagasx".
func hasPrefix(path, prefix string) bool {
	if len(path) < len(prefix) || path[:len(prefix)] != prefix {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
