// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fundacaoguia/portal/internal/backend"
	"github.com/fundacaoguia/portal/internal/logging"
	"github.com/fundacaoguia/portal/internal/model"
	"github.com/fundacaoguia/portal/internal/render"
	"github.com/fundacaoguia/portal/internal/scheduler"
	"github.com/fundacaoguia/portal/internal/schema"
	"github.com/fundacaoguia/portal/internal/session"
	"github.com/fundacaoguia/portal/internal/workflow"
)

// maxDiagnosticLogs caps the warnings shown on the admin panel.
const maxDiagnosticLogs = 10

const msgProbeDisabled = "A verificação automática da API está desativada."

// ProbeReporter exposes the latest backend probe report.
type ProbeReporter interface {
	Last() (scheduler.Report, bool)
}

// JobRegistry lists and triggers scheduled jobs.
type JobRegistry interface {
	List() []scheduler.JobInfo
	Run(name string) error
}

// RecentLogs exposes recent warnings kept in memory.
type RecentLogs interface {
	Recent() []logging.Entry
}

// AdminConfig holds the admin handler dependencies. Probe, Jobs and Logs
// are optional.
type AdminConfig struct {
	Client   *backend.Client
	Kinds    *schema.Registry
	Renderer *render.Renderer
	Tokens   *session.TokenStore
	Forms    *session.Forms
	Location *time.Location
	Probe    ProbeReporter
	Jobs     JobRegistry
	Logs     RecentLogs
}

// AdminHandler serves the admin CRUD panel.
type AdminHandler struct {
	client   *backend.Client
	kinds    *schema.Registry
	renderer *render.Renderer
	tokens   *session.TokenStore
	forms    *session.Forms
	loc      *time.Location
	probe    ProbeReporter
	jobs     JobRegistry
	logs     RecentLogs
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(cfg AdminConfig) *AdminHandler {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &AdminHandler{
		client:   cfg.Client,
		kinds:    cfg.Kinds,
		renderer: cfg.Renderer,
		tokens:   cfg.Tokens,
		forms:    cfg.Forms,
		loc:      loc,
		probe:    cfg.Probe,
		jobs:     cfg.Jobs,
		logs:     cfg.Logs,
	}
}

// AdminTab is one resource kind tab.
type AdminTab struct {
	Name   string
	Label  string
	Path   string
	Active bool
}

// AdminRow is one record in the admin listing.
type AdminRow struct {
	ID         string
	Title      string
	EditPath   string
	DeletePath string
}

// FormField is one input of the admin form.
type FormField struct {
	Name     string
	Label    string
	Input    string
	Rows     int
	Required bool
	Missing  bool
	Value    string
}

// AdminForm is the create/edit form.
type AdminForm struct {
	Title  string
	Action string
	Nonce  string
	Error  string
	Fields []FormField
}

// Diagnostics is the backend status panel.
type Diagnostics struct {
	Report    scheduler.Report
	HasReport bool
	Jobs      []scheduler.JobInfo
	Logs      []logging.Entry
	CanProbe  bool
}

// AdminPage is the model shared by the admin templates.
type AdminPage struct {
	Tabs        []AdminTab
	Kind        *schema.Kind
	Mode        string
	Rows        []AdminRow
	Empty       string
	ListPath    string
	NewPath     string
	CanUpdate   bool
	Form        *AdminForm
	Record      AdminRow
	Nonce       string
	Diagnostics Diagnostics
}

// Dashboard handles GET /admin by opening the first tab.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, adminKindPath(h.kinds.First()), http.StatusSeeOther)
}

// List handles GET /admin/{kind}.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindFromRequest(w, r)
	if !ok {
		return
	}

	state, records := h.open(r.Context(), kind)
	page := h.page(kind, state, records)
	h.render(w, r, http.StatusOK, tmplAdminList, kind, page)
}

// NewForm handles GET /admin/{kind}/new.
func (h *AdminHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindFromRequest(w, r)
	if !ok {
		return
	}

	state, records := h.open(r.Context(), kind)
	state = workflow.Reduce(state, workflow.Action{Type: workflow.New})

	nonce := h.forms.IssueNonce(r.Context())
	h.renderForm(w, r, http.StatusOK, kind, state, records, nonce, "")
}

// Create handles POST /admin/{kind}/new.
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindFromRequest(w, r)
	if !ok {
		return
	}
	nonce, ok := h.consumeForm(w, r, kind)
	if !ok {
		return
	}

	state := workflow.Reduce(selectKind(kind), workflow.Action{Type: workflow.New})
	h.submit(w, r, kind, state, nonce, "")
}

// EditForm handles GET /admin/{kind}/{id}/edit. The form is seeded from a
// fresh list read and the record is remembered for the submit.
func (h *AdminHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindFromRequest(w, r)
	if !ok {
		return
	}
	if !kind.CanUpdate() {
		flashError(w, r, h.renderer, adminKindPath(kind), msgUpdateUnsupported)
		return
	}

	id := chi.URLParam(r, "id")
	state, records := h.open(r.Context(), kind)
	rec, found := findRecord(records, id)
	if !found {
		flashError(w, r, h.renderer, adminKindPath(kind), msgRecordNotFound)
		return
	}

	if err := h.forms.PutOriginal(r.Context(), kind.Name, rec); err != nil {
		internalError(w, r, "failed to store edit snapshot", "kind", kind.Name, "id", id, "error", err)
		return
	}

	state = workflow.Reduce(state, workflow.Action{
		Type:   workflow.Edit,
		Record: rec,
		Draft:  workflow.Seed(kind, rec, h.loc),
	})

	nonce := h.forms.IssueNonce(r.Context())
	h.renderForm(w, r, http.StatusOK, kind, state, records, nonce, id)
}

// Update handles POST /admin/{kind}/{id}/edit.
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindFromRequest(w, r)
	if !ok {
		return
	}
	if !kind.CanUpdate() {
		flashError(w, r, h.renderer, adminKindPath(kind), msgUpdateUnsupported)
		return
	}
	nonce, ok := h.consumeForm(w, r, kind)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	original, found := h.forms.Original(r.Context(), kind.Name, id)
	if !found {
		// The snapshot is gone (expired session data); fall back to the backend.
		original, found = h.client.Resource(kind).Find(r.Context(), id)
	}
	if !found {
		flashError(w, r, h.renderer, adminKindPath(kind), msgRecordNotFound)
		return
	}

	state := workflow.Reduce(selectKind(kind), workflow.Action{
		Type:   workflow.Edit,
		Record: original,
		Draft:  workflow.Seed(kind, original, h.loc),
	})
	h.submit(w, r, kind, state, nonce, id)
}

// submit validates the posted draft, sends it and either redirects to the
// refreshed list or re-renders the form with the failure.
func (h *AdminHandler) submit(w http.ResponseWriter, r *http.Request, kind *schema.Kind, state workflow.State, nonce, id string) {
	ctx := r.Context()

	draft := workflow.DraftFromForm(kind, r.PostForm)
	state = workflow.Reduce(state, workflow.Action{Type: workflow.Submit, Draft: draft})

	payload, missing := workflow.BuildPayload(kind, draft, state.Original, h.loc)
	if len(missing) > 0 {
		state = workflow.Reduce(state, workflow.Action{
			Type:    workflow.SubmitFailed,
			Missing: missing,
			Err:     workflow.MissingMessage(missing),
		})
		h.forms.RestoreNonce(ctx, nonce)
		h.renderForm(w, r, http.StatusUnprocessableEntity, kind, state, nil, nonce, id)
		return
	}

	editing := state.Editing()
	res := h.client.Resource(kind)
	token := h.tokens.Token(ctx)

	var err error
	if editing {
		_, err = res.Update(ctx, token, id, payload)
	} else {
		_, err = res.Create(ctx, token, payload)
	}
	if err != nil {
		if errors.Is(err, backend.ErrNoToken) {
			flashError(w, r, h.renderer, RouteLogin, msgSessionExpired)
			return
		}
		msg, status := saveFailure(err)
		slog.WarnContext(r.Context(), "admin save failed", "category", "admin", "kind", kind.Name, "id", id, "error", err)
		state = workflow.Reduce(state, workflow.Action{Type: workflow.SubmitFailed, Err: msg})
		h.forms.RestoreNonce(ctx, nonce)
		h.renderForm(w, r, status, kind, state, nil, nonce, id)
		return
	}

	// A saved form closes onto the re-read list of its kind.
	state = workflow.Reduce(state, workflow.Action{Type: workflow.Saved})
	if editing {
		h.forms.DropOriginal(ctx, kind.Name, id)
		slog.InfoContext(r.Context(), "admin record updated", "category", "admin", "kind", kind.Name, "id", id)
	} else {
		slog.InfoContext(r.Context(), "admin record created", "category", "admin", "kind", kind.Name)
	}

	flashSuccess(w, r, h.renderer, adminListPath(state), msgSaved)
}

// saveFailure maps a write error to the form message and status.
func saveFailure(err error) (string, int) {
	var rej *backend.RejectionError
	switch {
	case errors.As(err, &rej):
		return rej.Error(), http.StatusUnprocessableEntity
	case errors.Is(err, backend.ErrUnsupported):
		return msgUpdateUnsupported, http.StatusBadRequest
	default:
		return msgSaveUnreachable, http.StatusBadGateway
	}
}

// DeleteConfirm handles GET /admin/{kind}/{id}/delete.
func (h *AdminHandler) DeleteConfirm(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindFromRequest(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	state, records := h.open(r.Context(), kind)

	page := h.page(kind, state, records)
	page.Record = AdminRow{ID: id, Title: id}
	if rec, found := findRecord(records, id); found {
		page.Record = h.row(kind, rec)
	}
	page.Nonce = h.forms.IssueNonce(r.Context())

	h.render(w, r, http.StatusOK, tmplAdminDel, kind, page)
}

// Delete handles POST /admin/{kind}/{id}/delete. Success or failure, the
// list is shown again.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindFromRequest(w, r)
	if !ok {
		return
	}
	if _, ok := h.consumeForm(w, r, kind); !ok {
		return
	}

	id := chi.URLParam(r, "id")
	listPath := adminKindPath(kind)

	if err := h.client.Resource(kind).Remove(r.Context(), h.tokens.Token(r.Context()), id); err != nil {
		if errors.Is(err, backend.ErrNoToken) {
			flashError(w, r, h.renderer, RouteLogin, msgSessionExpired)
			return
		}
		slog.WarnContext(r.Context(), "admin delete failed", "category", "admin", "kind", kind.Name, "id", id, "error", err)
		msg := msgDeleteFailed
		var rej *backend.RejectionError
		if errors.As(err, &rej) {
			msg += ": " + rej.Error()
		}
		flashError(w, r, h.renderer, listPath, msg)
		return
	}

	h.forms.DropOriginal(r.Context(), kind.Name, id)
	slog.InfoContext(r.Context(), "admin record deleted", "category", "admin", "kind", kind.Name, "id", id)
	flashSuccess(w, r, h.renderer, listPath, msgDeleted)
}

// TriggerProbe handles POST /admin/diagnostico/verificar.
func (h *AdminHandler) TriggerProbe(w http.ResponseWriter, r *http.Request) {
	back := RouteAdmin
	if ref := r.PostFormValue("voltar"); isAdminPath(ref) {
		back = ref
	}

	if h.jobs == nil {
		flashAndRedirect(w, r, h.renderer, back, msgProbeDisabled, render.FlashInfo)
		return
	}
	err := h.jobs.Run(scheduler.ProbeJobName)
	if errors.Is(err, scheduler.ErrJobRunning) {
		flashAndRedirect(w, r, h.renderer, back, msgProbeRunning, render.FlashInfo)
		return
	}
	if err != nil {
		slog.WarnContext(r.Context(), "manual backend probe failed", "category", "backend", "error", err)
		flashError(w, r, h.renderer, back, msgProbeFailed)
		return
	}
	flashSuccess(w, r, h.renderer, back, msgProbeOK)
}

// kindFromRequest resolves the {kind} route parameter.
func (h *AdminHandler) kindFromRequest(w http.ResponseWriter, r *http.Request) (*schema.Kind, bool) {
	name := chi.URLParam(r, "kind")
	kind, ok := h.kinds.Get(name)
	if !ok {
		slog.Debug("unknown admin resource kind", "kind", name)
		flashError(w, r, h.renderer, RouteAdmin, msgUnknownKind)
		return nil, false
	}
	return kind, true
}

// consumeForm parses a POSTed admin form and spends its nonce. A nonce
// that was never issued or already used refuses the submit.
func (h *AdminHandler) consumeForm(w http.ResponseWriter, r *http.Request, kind *schema.Kind) (string, bool) {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, adminKindPath(kind), msgInvalidForm)
		return "", false
	}
	nonce := r.PostForm.Get(formNonceField)
	if !h.forms.ConsumeNonce(r.Context(), nonce) {
		slog.WarnContext(r.Context(), "admin form refused: nonce already used or unknown", "category", "admin", "kind", kind.Name)
		flashError(w, r, h.renderer, adminKindPath(kind), msgDuplicateSubmit)
		return "", false
	}
	return nonce, true
}

// selectKind is the state after opening a kind's tab and loading it.
func selectKind(kind *schema.Kind) workflow.State {
	state := workflow.Reduce(workflow.State{}, workflow.Action{Type: workflow.SelectTab, Kind: kind.Name})
	return workflow.Reduce(state, workflow.Action{Type: workflow.Loaded})
}

// open selects a kind and reads its list.
func (h *AdminHandler) open(ctx context.Context, kind *schema.Kind) (workflow.State, []model.Record) {
	state := workflow.Reduce(workflow.State{}, workflow.Action{Type: workflow.SelectTab, Kind: kind.Name})
	records := h.client.Resource(kind).List(ctx, nil)
	return workflow.Reduce(state, workflow.Action{Type: workflow.Loaded}), records
}

func (h *AdminHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, kind *schema.Kind, state workflow.State, records []model.Record, nonce, id string) {
	if records == nil {
		records = h.client.Resource(kind).List(r.Context(), nil)
	}
	page := h.page(kind, state, records)
	page.Form = buildForm(kind, state, nonce, id)
	h.render(w, r, status, tmplAdminForm, kind, page)
}

func (h *AdminHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, kind *schema.Kind, page AdminPage) {
	renderPage(w, r, h.renderer, status, name, render.TemplateData{
		Title: "Painel Administrativo - " + kind.Label,
		Data:  page,
	})
}

// page builds the admin model around a list of records.
func (h *AdminHandler) page(kind *schema.Kind, state workflow.State, records []model.Record) AdminPage {
	page := AdminPage{
		Kind:        kind,
		Mode:        state.Mode.String(),
		Empty:       msgNoItems,
		ListPath:    adminKindPath(kind),
		NewPath:     adminKindPath(kind) + RouteSuffixNew,
		CanUpdate:   kind.CanUpdate(),
		Diagnostics: h.diagnostics(),
	}
	for _, k := range h.kinds.Kinds() {
		page.Tabs = append(page.Tabs, AdminTab{
			Name:   k.Name,
			Label:  k.Label,
			Path:   adminKindPath(k),
			Active: k.Name == kind.Name,
		})
	}
	for _, rec := range records {
		page.Rows = append(page.Rows, h.row(kind, rec))
	}
	return page
}

func (h *AdminHandler) row(kind *schema.Kind, rec model.Record) AdminRow {
	id := rec.ID()
	base := adminKindPath(kind) + "/" + url.PathEscape(id)
	return AdminRow{
		ID:         id,
		Title:      kind.Title(rec),
		EditPath:   base + RouteSuffixEdit,
		DeletePath: base + RouteSuffixDelete,
	}
}

func (h *AdminHandler) diagnostics() Diagnostics {
	var d Diagnostics
	if h.probe != nil {
		d.Report, d.HasReport = h.probe.Last()
	}
	if h.jobs != nil {
		d.Jobs = h.jobs.List()
		d.CanProbe = true
	}
	if h.logs != nil {
		d.Logs = h.logs.Recent()
		if len(d.Logs) > maxDiagnosticLogs {
			d.Logs = d.Logs[:maxDiagnosticLogs]
		}
	}
	return d
}

// buildForm lays out the kind's fields with the draft values.
func buildForm(kind *schema.Kind, state workflow.State, nonce, id string) *AdminForm {
	missing := make(map[string]bool, len(state.Missing))
	for _, name := range state.Missing {
		missing[name] = true
	}

	form := &AdminForm{
		Nonce:  nonce,
		Error:  state.Err,
		Action: adminKindPath(kind) + RouteSuffixNew,
		Title:  "Novo Item",
	}
	if state.Editing() {
		form.Action = adminKindPath(kind) + "/" + url.PathEscape(id) + RouteSuffixEdit
		form.Title = "Editar " + kind.Singular
	}

	for _, f := range kind.Fields {
		rows := f.Rows
		if f.IsTextarea() && rows <= 0 {
			rows = 3
		}
		form.Fields = append(form.Fields, FormField{
			Name:     f.Name,
			Label:    f.Label,
			Input:    f.InputType(),
			Rows:     rows,
			Required: f.Required,
			Missing:  missing[f.Name],
			Value:    state.Draft[f.Name],
		})
	}
	return form
}

func findRecord(records []model.Record, id string) (model.Record, bool) {
	for _, rec := range records {
		if rec.ID() == id {
			return rec, true
		}
	}
	return nil, false
}

func adminKindPath(kind *schema.Kind) string {
	return RouteAdmin + "/" + kind.Name
}

// adminListPath is the list a workflow state shows.
func adminListPath(s workflow.State) string {
	return RouteAdmin + "/" + s.Kind
}

// isAdminPath accepts local admin paths only, so the redirect target
// cannot leave the site.
func isAdminPath(p string) bool {
	return strings.HasPrefix(p, RouteAdmin+"/")
}
