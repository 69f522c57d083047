// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package workflow

import (
	"net/url"
	"strings"
	"time"

	"github.com/fundacaoguia/portal/internal/codec"
	"github.com/fundacaoguia/portal/internal/model"
	"github.com/fundacaoguia/portal/internal/schema"
)

// MissingPrefix starts the message listing missing required fields.
const MissingPrefix = "Preencha os campos obrigatórios: "

// Draft holds form values as typed, keyed by field name.
type Draft map[string]string

// Seed builds an edit draft from a record. Date fields are converted to
// calendar dates in loc; other fields are rendered as text.
func Seed(kind *schema.Kind, rec model.Record, loc *time.Location) Draft {
	d := make(Draft, len(kind.Fields))
	for _, f := range kind.Fields {
		d[f.Name] = codec.ToFormValue(rec[f.Name], f.Kind, loc)
	}
	return d
}

// DraftFromForm reads the kind's fields from submitted form values.
func DraftFromForm(kind *schema.Kind, form url.Values) Draft {
	d := make(Draft, len(kind.Fields))
	for _, f := range kind.Fields {
		d[f.Name] = form.Get(f.Name)
	}
	return d
}

// BuildPayload turns a draft into the record sent to the backend and
// lists the required fields still missing, in table order.
//
// When original is non-nil the draft edits that record: a required field
// left empty is restored from the original, and optional fields left
// empty are sent as "" so the backend clears them.
func BuildPayload(kind *schema.Kind, draft Draft, original model.Record, loc *time.Location) (model.Record, []string) {
	editing := original != nil
	payload := make(model.Record, len(kind.Fields))

	for _, f := range kind.Fields {
		var (
			v   any
			set bool
		)
		value := draft[f.Name]
		switch {
		case strings.TrimSpace(value) != "":
			v, set = codec.ToWireValue(value, f.Kind, loc)
		case editing && f.Required && original.Has(f.Name):
			v, set = original[f.Name], true
		case editing:
			v, set = "", true
		}
		if !set {
			continue
		}
		if v != nil && kind.IsStringField(f.Name) {
			v = codec.Text(v)
		}
		payload[f.Name] = v
	}

	return payload, Missing(kind, payload)
}

// Missing returns the required fields absent or empty in the payload.
func Missing(kind *schema.Kind, payload model.Record) []string {
	var missing []string
	for _, name := range kind.Required {
		v, ok := payload[name]
		if !ok || v == nil {
			missing = append(missing, name)
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// MissingMessage formats the validation message for missing fields.
func MissingMessage(missing []string) string {
	if len(missing) == 0 {
		return ""
	}
	return MissingPrefix + strings.Join(missing, ", ")
}
