// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

// Package workflow implements the admin create/edit/delete cycle for one
// resource kind as a pure state machine plus the draft-to-payload rules.
// HTTP handlers rebuild the state for each request and render the result.
package workflow

import (
	"github.com/fundacaoguia/portal/internal/model"
)

// Mode is the admin panel mode for the selected kind.
type Mode int

const (
	// Listing means the record list is being (re)loaded.
	Listing Mode = iota
	// FormClosed shows the loaded list with no form open.
	FormClosed
	// FormOpenCreate shows an empty form for a new record.
	FormOpenCreate
	// FormOpenEdit shows a form seeded from an existing record.
	FormOpenEdit
)

func (m Mode) String() string {
	switch m {
	case Listing:
		return "listing"
	case FormClosed:
		return "form-closed"
	case FormOpenCreate:
		return "form-open-create"
	case FormOpenEdit:
		return "form-open-edit"
	}
	return "unknown"
}

// FormOpen reports whether a form is shown.
func (m Mode) FormOpen() bool {
	return m == FormOpenCreate || m == FormOpenEdit
}

// ActionType enumerates workflow events.
type ActionType int

const (
	SelectTab ActionType = iota
	Loaded
	New
	Edit
	Submit
	SubmitFailed
	Saved
	Cancel
)

// Action is a workflow event. Only the fields relevant to Type are read.
type Action struct {
	Type    ActionType
	Kind    string
	Record  model.Record
	Draft   Draft
	Missing []string
	Err     string
}

// State is the admin panel state for one kind.
type State struct {
	Kind     string
	Mode     Mode
	Draft    Draft
	Original model.Record
	Missing  []string
	Err      string
	Saving   bool
}

// Editing reports whether the form edits an existing record.
func (s State) Editing() bool { return s.Mode == FormOpenEdit }

// Reduce returns the state after applying an action. Actions that do not
// apply to the current mode leave the state unchanged.
func Reduce(s State, a Action) State {
	switch a.Type {
	case SelectTab:
		return State{Kind: a.Kind, Mode: Listing}

	case Loaded:
		if s.Mode == Listing {
			s.Mode = FormClosed
		}
		return s

	case New:
		if s.Mode.FormOpen() {
			return s
		}
		return State{Kind: s.Kind, Mode: FormOpenCreate, Draft: Draft{}}

	case Edit:
		if s.Mode.FormOpen() || a.Record == nil {
			return s
		}
		draft := a.Draft
		if draft == nil {
			draft = Draft{}
		}
		return State{Kind: s.Kind, Mode: FormOpenEdit, Draft: draft, Original: a.Record}

	case Submit:
		if !s.Mode.FormOpen() {
			return s
		}
		s.Draft = a.Draft
		s.Missing = nil
		s.Err = ""
		s.Saving = true
		return s

	case SubmitFailed:
		if !s.Mode.FormOpen() {
			return s
		}
		s.Saving = false
		s.Missing = a.Missing
		s.Err = a.Err
		return s

	case Saved:
		if !s.Mode.FormOpen() {
			return s
		}
		// The list is always re-read after a mutation.
		return State{Kind: s.Kind, Mode: Listing}

	case Cancel:
		if !s.Mode.FormOpen() {
			return s
		}
		return State{Kind: s.Kind, Mode: FormClosed}
	}
	return s
}
