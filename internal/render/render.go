// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render parses the embedded HTML templates and executes them with
// the per-request navigation and flash message.
package render

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alexedwards/scs/v2"

	"github.com/fundacaoguia/portal/internal/middleware"
	"github.com/fundacaoguia/portal/internal/nav"
)

// Flash kinds; the templates use them as CSS suffixes.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

const sessionKeyFlash = "flash"

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Message string
	Kind    string
}

func init() {
	// scs stores session values with gob.
	gob.Register(Flash{})
}

// pageSets maps each page directory to the layouts its pages are parsed
// with. Every set also gets all partials.
var pageSets = []struct {
	dir     string
	layouts []string
}{
	{"pages", []string{"layouts/base.html"}},
	{"auth", []string{"layouts/base.html"}},
	{"admin", []string{"layouts/base.html", "layouts/admin.html"}},
}

// Renderer executes parsed page templates.
type Renderer struct {
	pages    map[string]*template.Template
	sessions *scs.SessionManager
	loc      *time.Location
	assetURL func(name string) string
}

// Config holds renderer configuration. SessionManager may be nil, which
// disables flash messages.
type Config struct {
	TemplatesFS    fs.FS
	SessionManager *scs.SessionManager
	Location       *time.Location
	// AssetURL maps an asset file name to its URL for the asset template
	// func. Defaults to /static/dist/<name>.
	AssetURL func(name string) string
}

// New parses every page under the page directories of TemplatesFS.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		pages:    make(map[string]*template.Template),
		sessions: cfg.SessionManager,
		loc:      cfg.Location,
		assetURL: cfg.AssetURL,
	}
	if r.loc == nil {
		r.loc = time.Local
	}
	if r.assetURL == nil {
		r.assetURL = func(name string) string { return "/static/dist/" + name }
	}

	partials, err := htmlFiles(cfg.TemplatesFS, "partials")
	if err != nil {
		return nil, err
	}

	for _, set := range pageSets {
		pages, err := htmlFiles(cfg.TemplatesFS, set.dir)
		if err != nil {
			return nil, err
		}
		if len(pages) == 0 {
			continue
		}

		shared, err := template.New("").Funcs(r.templateFuncs()).
			ParseFS(cfg.TemplatesFS, append(slices.Clone(set.layouts), partials...)...)
		if err != nil {
			return nil, fmt.Errorf("parsing %s layouts: %w", set.dir, err)
		}

		for _, file := range pages {
			name := set.dir + "/" + strings.TrimSuffix(path.Base(file), ".html")
			t, err := shared.Clone()
			if err == nil {
				t, err = t.ParseFS(cfg.TemplatesFS, file)
			}
			if err != nil {
				return nil, fmt.Errorf("parsing template %s: %w", name, err)
			}
			r.pages[name] = t
		}
	}

	return r, nil
}

// htmlFiles lists the .html files directly inside dir. A missing
// directory yields no files.
func htmlFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".html") {
			files = append(files, path.Join(dir, e.Name()))
		}
	}
	return files, nil
}

func (r *Renderer) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDateTime": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.In(r.loc).Format("02/01/2006 15:04")
		},
		"truncate": func(s string, n int) string {
			if utf8.RuneCountInString(s) <= n {
				return s
			}
			return string([]rune(s)[:n]) + "..."
		},
		"join":  strings.Join,
		"add":   func(a, b int) int { return a + b },
		"asset": func(name string) string { return r.assetURL(name) },
	}
}

// TemplateData is the model every page is executed with.
type TemplateData struct {
	Title         string
	Data          any
	Flash         string
	FlashType     string
	CurrentYear   int
	Nav           nav.Menu
	Authenticated bool
}

// Has reports whether a page template is loaded.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Render renders a page with status 200.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, name string, data TemplateData) error {
	return r.RenderStatus(w, req, http.StatusOK, name, data)
}

// RenderStatus executes the page into a buffer and writes it with status.
// On error nothing is written. A pending flash is consumed unless data
// already carries one.
func (r *Renderer) RenderStatus(w http.ResponseWriter, req *http.Request, status int, name string, data TemplateData) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	data.CurrentYear = time.Now().In(r.loc).Year()
	data.Authenticated = middleware.IsAuthenticated(req)
	data.Nav = nav.BuildMenu(nav.ForPath(req.URL.Path), data.Authenticated)
	if data.Flash == "" {
		if f, ok := r.popFlash(req); ok {
			data.Flash, data.FlashType = f.Message, f.Kind
		}
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}

// SetFlash queues a message for the next rendered page.
func (r *Renderer) SetFlash(req *http.Request, message, kind string) {
	if r.sessions == nil {
		return
	}
	r.sessions.Put(req.Context(), sessionKeyFlash, Flash{Message: message, Kind: kind})
}

func (r *Renderer) popFlash(req *http.Request) (Flash, bool) {
	if r.sessions == nil {
		return Flash{}, false
	}
	f, ok := r.sessions.Pop(req.Context(), sessionKeyFlash).(Flash)
	if !ok || f.Message == "" {
		return Flash{}, false
	}
	if f.Kind == "" {
		f.Kind = FlashInfo
	}
	return f, true
}
