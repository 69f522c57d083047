// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package nav

// State is the shell state a page is rendered with.
type State struct {
	View        View
	MenuOpen    bool
	ScrollToTop bool
}

// Initial is the shell before any view is selected.
func Initial() State {
	return State{View: Home}
}

// Select moves the shell to v. A view change always closes the mobile
// menu and scrolls the page to the top.
func (s State) Select(v View) State {
	s.View = v
	s.MenuOpen = false
	s.ScrollToTop = true
	return s
}

// ForPath is the shell state for a page load of path.
func ForPath(path string) State {
	return Initial().Select(ViewForPath(path))
}

// Menu is the rendered navigation for one request.
type Menu struct {
	Items       []MenuItem
	Admin       MenuItem
	Current     View
	Chrome      bool
	MenuOpen    bool
	ScrollToTop bool
}

// MenuItem is a menu entry with its active flag.
type MenuItem struct {
	Item
	Active bool
}

// BuildMenu prepares the navigation for the shell state being rendered.
func BuildMenu(s State, authenticated bool) Menu {
	m := Menu{
		Current:     s.View,
		Chrome:      ShowsChrome(Resolve(s.View, authenticated)),
		MenuOpen:    s.MenuOpen,
		ScrollToTop: s.ScrollToTop,
	}
	for _, it := range Items() {
		m.Items = append(m.Items, MenuItem{Item: it, Active: it.View == s.View})
	}
	admin := AdminEntry(authenticated)
	m.Admin = MenuItem{Item: admin, Active: s.View == Admin || s.View == Login}
	return m
}
