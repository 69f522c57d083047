// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

// Package schema describes the resource kinds managed from the admin panel.
// The table is loaded from YAML so that one generic form renderer and one
// validator serve every kind.
package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fundacaoguia/portal/internal/codec"
	"github.com/fundacaoguia/portal/internal/model"
)

//go:embed resources.yaml
var defaultTable []byte

// Input types rendered by the admin form.
const (
	InputText     = "text"
	InputTextarea = "textarea"
	InputDate     = "date"
	InputNumber   = "number"
)

// Field is one form field of a resource kind.
type Field struct {
	Name     string          `yaml:"name"`
	Label    string          `yaml:"label"`
	Input    string          `yaml:"input"`
	Rows     int             `yaml:"rows"`
	KindName string          `yaml:"kind"`
	Kind     codec.FieldKind `yaml:"-"`
	Required bool            `yaml:"-"`
}

// InputType returns the HTML input type for the field.
func (f Field) InputType() string {
	switch {
	case f.Input == InputTextarea:
		return InputTextarea
	case f.Kind == codec.Date:
		return InputDate
	case f.Kind == codec.Number:
		return InputNumber
	default:
		return InputText
	}
}

// IsTextarea reports whether the field renders as a textarea.
func (f Field) IsTextarea() bool { return f.InputType() == InputTextarea }

// Endpoint is a backend path with fixed query parameters.
type Endpoint struct {
	Path  string            `yaml:"path"`
	Query map[string]string `yaml:"query"`
}

// Kind is one resource kind: its endpoints and field table.
type Kind struct {
	Name         string   `yaml:"name"`
	Label        string   `yaml:"label"`
	Singular     string   `yaml:"singular"`
	ResponseKey  string   `yaml:"response_key"`
	List         Endpoint `yaml:"list"`
	Create       string   `yaml:"create"`
	Update       string   `yaml:"update"`
	Delete       string   `yaml:"delete"`
	TitleFields  []string `yaml:"title_fields"`
	StringFields []string `yaml:"string_fields"`
	Required     []string `yaml:"required"`
	Fields       []Field  `yaml:"fields"`

	byName map[string]int
}

// Field looks up a field by name.
func (k *Kind) Field(name string) (Field, bool) {
	i, ok := k.byName[name]
	if !ok {
		return Field{}, false
	}
	return k.Fields[i], true
}

// IsStringField reports whether the field is always sent as a string.
func (k *Kind) IsStringField(name string) bool {
	return slices.Contains(k.StringFields, name)
}

// CanUpdate reports whether the backend accepts updates for this kind.
func (k *Kind) CanUpdate() bool { return k.Update != "" }

// Title returns the text shown for a record in admin listings.
func (k *Kind) Title(rec model.Record) string {
	for _, f := range k.TitleFields {
		if t := rec.Text(f); t != "" {
			return t
		}
	}
	for _, f := range []string{"titulo", "cargo", "nome"} {
		if t := rec.Text(f); t != "" {
			return t
		}
	}
	return rec.ID()
}

// ListQuery returns a copy of the fixed list query parameters.
func (k *Kind) ListQuery() map[string]string {
	return maps.Clone(k.List.Query)
}

// Registry holds the configured resource kinds in display order.
type Registry struct {
	kinds  []*Kind
	byName map[string]*Kind
}

// table is the YAML document layout.
type table struct {
	Kinds []*Kind `yaml:"kinds"`
}

// Default loads the built-in resource table.
func Default() (*Registry, error) {
	return Parse(defaultTable)
}

// Parse loads and validates a resource table.
func Parse(data []byte) (*Registry, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing resource table: %w", err)
	}
	if len(t.Kinds) == 0 {
		return nil, errors.New("resource table defines no kinds")
	}

	r := &Registry{byName: make(map[string]*Kind, len(t.Kinds))}
	for _, k := range t.Kinds {
		if err := k.prepare(); err != nil {
			return nil, err
		}
		if _, dup := r.byName[k.Name]; dup {
			return nil, fmt.Errorf("duplicate resource kind %q", k.Name)
		}
		r.byName[k.Name] = k
		r.kinds = append(r.kinds, k)
	}
	return r, nil
}

func (k *Kind) prepare() error {
	k.Name = strings.TrimSpace(k.Name)
	if k.Name == "" {
		return errors.New("resource kind without name")
	}
	if k.ResponseKey == "" {
		k.ResponseKey = k.Name
	}
	if k.List.Path == "" {
		return fmt.Errorf("kind %s: list path is required", k.Name)
	}
	if k.Create == "" || k.Delete == "" {
		return fmt.Errorf("kind %s: create and delete endpoints are required", k.Name)
	}
	if k.Label == "" {
		k.Label = k.Name
	}
	if k.Singular == "" {
		k.Singular = strings.TrimSuffix(k.Name, "s")
	}

	k.byName = make(map[string]int, len(k.Fields))
	for i := range k.Fields {
		f := &k.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("kind %s: field %d has no name", k.Name, i)
		}
		if _, dup := k.byName[f.Name]; dup {
			return fmt.Errorf("kind %s: duplicate field %q", k.Name, f.Name)
		}
		kind, err := codec.ParseFieldKind(f.KindName)
		if err != nil {
			return fmt.Errorf("kind %s field %s: %w", k.Name, f.Name, err)
		}
		f.Kind = kind
		if f.Label == "" {
			f.Label = f.Name
		}
		k.byName[f.Name] = i
	}

	for _, name := range k.Required {
		i, ok := k.byName[name]
		if !ok {
			return fmt.Errorf("kind %s: required field %q is not a form field", k.Name, name)
		}
		k.Fields[i].Required = true
	}
	return nil
}

// Kinds returns the kinds in display order.
func (r *Registry) Kinds() []*Kind { return r.kinds }

// Get looks up a kind by name.
func (r *Registry) Get(name string) (*Kind, bool) {
	k, ok := r.byName[name]
	return k, ok
}

// First returns the kind shown when the admin panel opens.
func (r *Registry) First() *Kind { return r.kinds[0] }

// SetListQuery overrides one fixed list query parameter of a kind.
func (r *Registry) SetListQuery(kind, key, value string) error {
	k, ok := r.byName[kind]
	if !ok {
		return fmt.Errorf("unknown resource kind %q", kind)
	}
	if k.List.Query == nil {
		k.List.Query = make(map[string]string)
	}
	k.List.Query[key] = value
	return nil
}
