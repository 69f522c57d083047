// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/fundacaoguia/portal/internal/backend"
	"github.com/fundacaoguia/portal/internal/listing"
	"github.com/fundacaoguia/portal/internal/middleware"
	"github.com/fundacaoguia/portal/internal/render"
	"github.com/fundacaoguia/portal/internal/scheduler"
	"github.com/fundacaoguia/portal/internal/schema"
	"github.com/fundacaoguia/portal/internal/session"
	"github.com/fundacaoguia/portal/web"
)

const (
	testToken = "Bearer tok-123"

	newsJSON = `{"codigoStatus":200,"body":{"noticias":[
		{"id":"1","titulo":"Campanha de vacinação","resumo":"Vacinas para toda a família","conteudo":"Texto **completo**","data_publicacao":1735732800000,"tags":"saúde;vacina","imagens":"https://img.example/capa.jpg","noticia_id_fundacao":"N-1"},
		{"id":"2","titulo":"Novo tomógrafo","resumo":"Equipamento de ponta","conteudo":"Mais exames","data_publicacao":1735819200000,"noticia_id_fundacao":"N-2"}
	]}}`

	jobsJSON = `{"codigoStatus":200,"body":{"vagas":[
		{"id":"10","cargo":"Enfermeiro","cidade":"Muriaé","modalidade":"Presencial","tipo_vinculo":"CLT","quantidade":2,"data_publicacao":1735732800000,"requisitos":"COREN ativo","beneficios":"Plano de saúde","como_se_inscrever":"https://vagas.example/10"},
		{"id":"11","cargo":"Analista de TI","cidade":"Belo Horizonte","modalidade":"Remoto","tipo_vinculo":"PJ","quantidade":1,"data_publicacao":1735732800000}
	]}}`

	eventsJSON = `{"codigoStatus":200,"body":{"eventos":[
		{"id":"5","titulo":"Corrida Solidária","descricao":"5 km pela saúde","status":"programado","publico_alvo":"Comunidade","quantidade":300,"data_inicio":1735732800000,"data_fim":1735819200000}
	]}}`

	okJSON = `{"codigoStatus":200,"mensagem":"ok"}`
)

// apiCall is one request seen by the fake API.
type apiCall struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
	Body          map[string]any
}

// fakeAPI is an in-process stand-in for the foundation API.
type fakeAPI struct {
	*httptest.Server
	mu     sync.Mutex
	calls  []apiCall
	routes map[string]func(w http.ResponseWriter, r *http.Request)
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{routes: make(map[string]func(http.ResponseWriter, *http.Request))}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := apiCall{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.Query(),
			Authorization: r.Header.Get("Authorization"),
		}
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			_ = json.Unmarshal(b, &call.Body)
		}
		api.mu.Lock()
		api.calls = append(api.calls, call)
		h, ok := api.routes[r.Method+" "+r.URL.Path]
		api.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"codigoStatus":404,"mensagem":"não encontrado"}`)
			return
		}
		h(w, r)
	}))
	t.Cleanup(api.Close)

	api.handle(http.MethodGet, backend.PathNews, http.StatusOK, newsJSON)
	api.handle(http.MethodGet, backend.PathJobs, http.StatusOK, jobsJSON)
	api.handle(http.MethodGet, backend.PathEvents, http.StatusOK, eventsJSON)
	api.handle(http.MethodPost, backend.PathLogin, http.StatusOK,
		`{"codigoStatus":200,"mensagem":"Login realizado. `+backend.TokenMarker+` `+testToken+`"}`)
	return api
}

func (a *fakeAPI) handle(method, path string, status int, body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.routes[method+" "+path] = func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// find returns the calls matching method and path.
func (a *fakeAPI) find(method, path string) []apiCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []apiCall
	for _, c := range a.calls {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// fakeJobs is a JobRegistry that records manual triggers.
type fakeJobs struct {
	mu        sync.Mutex
	triggered int
	err       error
}

func (f *fakeJobs) List() []scheduler.JobInfo {
	return []scheduler.JobInfo{{Name: scheduler.ProbeJobName, Schedule: "@every 1m"}}
}

func (f *fakeJobs) Run(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggered++
	return f.err
}

// testApp is the portal wired against a fake API.
type testApp struct {
	api    *fakeAPI
	server *httptest.Server
	client *http.Client
	lp     *middleware.LoginProtection
}

type appOption func(*AdminConfig)

func withJobs(j JobRegistry) appOption {
	return func(c *AdminConfig) { c.Jobs = j }
}

func newTestApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()
	return newTestAppWithBase(t, newFakeAPI(t), "", opts...)
}

// newTestAppWithBase wires the app; a non-empty baseURL overrides the fake
// API address for the backend client.
func newTestAppWithBase(t *testing.T, api *fakeAPI, baseURL string, opts ...appOption) *testApp {
	t.Helper()

	if baseURL == "" {
		baseURL = api.URL
	}
	client := backend.New(baseURL, backend.WithHTTPClient(&http.Client{Timeout: 2 * time.Second}))

	kinds, err := schema.Default()
	require.NoError(t, err)

	sm := session.New(session.Config{IsDev: true})
	tokens := session.NewTokenStore(sm)
	forms := session.NewForms(sm)

	renderer, err := render.New(render.Config{TemplatesFS: web.Templates(), SessionManager: sm, Location: time.UTC, AssetURL: web.AssetURL})
	require.NoError(t, err)

	lp := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	t.Cleanup(lp.Close)

	adminCfg := AdminConfig{
		Client:   client,
		Kinds:    kinds,
		Renderer: renderer,
		Tokens:   tokens,
		Forms:    forms,
		Location: time.UTC,
	}
	for _, opt := range opts {
		opt(&adminCfg)
	}

	public := NewPublicHandler(client, renderer, listing.NewCards(time.UTC, listing.NewContentRenderer()), 10)
	auth := NewAuthHandler(client, renderer, tokens, lp)
	admin := NewAdminHandler(adminCfg)

	r := chi.NewRouter()
	r.Use(middleware.RequestPath)
	r.Use(sm.LoadAndSave)
	r.Use(middleware.LoadAuth(tokens))

	r.Get(RouteRoot, public.Home)
	r.Get(RouteNews, public.News)
	r.Get(RouteNews+RouteParamID, public.NewsDetail)
	r.Get(RouteJobs, public.Jobs)
	r.Get(RouteEvents, public.Events)
	r.Get(RouteLocation, public.Location)
	r.Get(RouteLogin, auth.LoginForm)
	r.With(lp.Middleware()).Post(RouteLogin, auth.Login)
	r.Post(RouteLogout, auth.Logout)
	r.Route(RouteAdmin, func(r chi.Router) {
		r.Use(middleware.RequireToken(tokens))
		r.Use(middleware.NoStore)
		r.Get(RouteRoot, admin.Dashboard)
		r.Post(RouteProbe, admin.TriggerProbe)
		r.Get(RouteParamKind, admin.List)
		r.Get(RouteParamKind+RouteSuffixNew, admin.NewForm)
		r.Post(RouteParamKind+RouteSuffixNew, admin.Create)
		r.Get(RouteParamKind+RouteParamID+RouteSuffixEdit, admin.EditForm)
		r.Post(RouteParamKind+RouteParamID+RouteSuffixEdit, admin.Update)
		r.Get(RouteParamKind+RouteParamID+RouteSuffixDelete, admin.DeleteConfirm)
		r.Post(RouteParamKind+RouteParamID+RouteSuffixDelete, admin.Delete)
	})
	r.NotFound(public.NotFound)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testApp{
		api:    api,
		server: srv,
		lp:     lp,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// page is a fetched response with its parsed document.
type page struct {
	Status   int
	Location string
	Header   http.Header
	Doc      *goquery.Document
	Body     string
}

func (app *testApp) get(t *testing.T, path string) page {
	t.Helper()
	resp, err := app.client.Get(app.server.URL + path)
	require.NoError(t, err)
	return readPage(t, resp)
}

func (app *testApp) post(t *testing.T, path string, form url.Values) page {
	t.Helper()
	resp, err := app.client.PostForm(app.server.URL+path, form)
	require.NoError(t, err)
	return readPage(t, resp)
}

func readPage(t *testing.T, resp *http.Response) page {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	p := page{Status: resp.StatusCode, Location: resp.Header.Get("Location"), Header: resp.Header, Body: string(b)}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		p.Doc, err = goquery.NewDocumentFromReader(strings.NewReader(p.Body))
		require.NoError(t, err)
	}
	return p
}

// login signs the app's client in.
func (app *testApp) login(t *testing.T) {
	t.Helper()
	p := app.post(t, RouteLogin, url.Values{"email": {"admin@fundacaoguia.org.br"}, "senha": {"segredo"}})
	require.Equal(t, http.StatusSeeOther, p.Status, p.Body)
	require.Equal(t, RouteAdmin, p.Location)
}

func text(p page, selector string) string {
	if p.Doc == nil {
		return ""
	}
	return strings.TrimSpace(p.Doc.Find(selector).Text())
}
