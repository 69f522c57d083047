// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

// Package codec converts record fields between the backend wire encoding
// and the values used in admin forms and on rendered pages.
//
// Every function is total: malformed input degrades to an empty or literal
// value, never to a panic or an error.
package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FieldKind identifies how a record field is encoded on the wire.
type FieldKind int

const (
	// Plain fields are free text sent as typed.
	Plain FieldKind = iota
	// Date fields are epoch milliseconds on the wire and YYYY-MM-DD in forms.
	Date
	// Number fields are numeric on the wire and text while edited.
	Number
	// List fields are a bare string or a JSON-array-encoded string.
	List
)

// FormDateLayout is the layout of date input values.
const FormDateLayout = "2006-01-02"

// DisplayDateLayout is the pt-BR short date layout used on public pages.
const DisplayDateLayout = "02/01/2006"

// NoDate is shown when a record carries no usable date.
const NoDate = "Data não informada"

// maxMillis bounds the timestamps a browser date accepts.
const maxMillis = 8_640_000_000_000_000

// String returns the kind name as used in the resource schema.
func (k FieldKind) String() string {
	switch k {
	case Date:
		return "date"
	case Number:
		return "number"
	case List:
		return "list"
	default:
		return "plain"
	}
}

// ParseFieldKind parses a kind name. Empty means Plain.
func ParseFieldKind(s string) (FieldKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "plain", "text", "textarea":
		return Plain, nil
	case "date":
		return Date, nil
	case "number":
		return Number, nil
	case "list":
		return List, nil
	}
	return Plain, fmt.Errorf("unknown field kind %q", s)
}

// ToFormValue renders a wire value as the text an admin form shows.
// Dates that do not parse yield an empty string.
func ToFormValue(wire any, kind FieldKind, loc *time.Location) string {
	if wire == nil {
		return ""
	}
	if kind != Date {
		return Text(wire)
	}
	if ms, ok := Millis(wire); ok {
		return FormatDate(ms, loc)
	}
	// Already a calendar date, e.g. a draft being re-rendered.
	if s, ok := wire.(string); ok {
		if _, err := time.ParseInLocation(FormDateLayout, strings.TrimSpace(s), location(loc)); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// ToWireValue converts a form value to its wire encoding. The boolean
// reports whether the field is set; empty and unparsable values are not.
func ToWireValue(form string, kind FieldKind, loc *time.Location) (any, bool) {
	s := strings.TrimSpace(form)
	if s == "" {
		return nil, false
	}
	switch kind {
	case Date:
		ms, ok := ParseFormDate(s, loc)
		if !ok {
			return nil, false
		}
		return ms, true
	case Number:
		n, ok := ParseNumber(s)
		if !ok {
			return nil, false
		}
		return n, true
	default:
		return s, true
	}
}

// FormatDate formats epoch milliseconds as a calendar date in loc.
func FormatDate(ms int64, loc *time.Location) string {
	if ms > maxMillis || ms < -maxMillis {
		return ""
	}
	return time.UnixMilli(ms).In(location(loc)).Format(FormDateLayout)
}

// ParseFormDate parses YYYY-MM-DD and returns epoch milliseconds for
// 12:00:00 of that day in loc. Noon keeps the calendar day stable for
// every offset between UTC-12 and UTC+14.
func ParseFormDate(s string, loc *time.Location) (int64, bool) {
	loc = location(loc)
	d, err := time.ParseInLocation(FormDateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return 0, false
	}
	noon := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, loc)
	return noon.UnixMilli(), true
}

// ParseNumber parses a numeric form value. Empty and non-finite input
// report false.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// DisplayDate formats a wire date for public pages.
func DisplayDate(wire any, loc *time.Location) string {
	ms, ok := Millis(wire)
	if !ok || ms == 0 || ms > maxMillis || ms < -maxMillis {
		return NoDate
	}
	return time.UnixMilli(ms).In(location(loc)).Format(DisplayDateLayout)
}

// Millis extracts epoch milliseconds from a decoded JSON value. Numeric
// strings are accepted.
func Millis(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int64(t), true
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, true
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return Millis(f)
	case string:
		s := strings.TrimSpace(t)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		if f, ok := ParseNumber(s); ok {
			return int64(f), true
		}
	}
	return 0, false
}

// Text renders any decoded JSON value as text. Arrays and objects are
// re-encoded as JSON so list fields survive an edit unchanged.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
