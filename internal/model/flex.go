// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"

	"github.com/fundacaoguia/portal/internal/codec"
)

var jsonNull = []byte("null")

// Text is a string field that also accepts numbers, booleans, arrays and
// objects. Non-string values keep their raw JSON text.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(data)
	return nil
}

// String returns the text.
func (t Text) String() string { return string(t) }

// Millis is an epoch-milliseconds timestamp. Zero means absent.
type Millis int64

// UnmarshalJSON accepts numbers and numeric strings; anything else
// decodes to zero.
func (m *Millis) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	ms, _ := codec.Millis(v)
	*m = Millis(ms)
	return nil
}

// Number is a numeric field that may arrive as a numeric string.
type Number struct {
	Value float64
	Set   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*n = Number{Value: t, Set: true}
	case string:
		f, ok := codec.ParseNumber(t)
		*n = Number{Value: f, Set: ok}
	default:
		*n = Number{}
	}
	return nil
}

// String renders the number without a trailing fraction, or "" when unset.
func (n Number) String() string {
	if !n.Set {
		return ""
	}
	return codec.Text(n.Value)
}

// OneOrMany decodes either a single JSON object or an array of them.
type OneOrMany[T any] []T

// UnmarshalJSON implements json.Unmarshaler.
func (o *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		*o = nil
		return nil
	}
	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*o = items
		return nil
	}
	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	*o = OneOrMany[T]{item}
	return nil
}
