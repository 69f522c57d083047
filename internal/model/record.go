// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the records exchanged with the foundation backend.
package model

import (
	"maps"

	"github.com/fundacaoguia/portal/internal/codec"
)

// Record is an untyped backend record as decoded from JSON. The admin
// panel works on records so that one code path serves every resource kind.
type Record map[string]any

// ID returns the backend-assigned id as text. Ids may be strings or numbers.
func (r Record) ID() string {
	return codec.Text(r["id"])
}

// Text returns a field rendered as text, or "" when absent.
func (r Record) Text(field string) string {
	return codec.Text(r[field])
}

// Has reports whether the field holds a non-empty value.
func (r Record) Has(field string) bool {
	v, ok := r[field]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString {
		return s != ""
	}
	return true
}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}
	return maps.Clone(r)
}
