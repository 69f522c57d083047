// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fundacaoguia/portal/internal/backend"
	"github.com/fundacaoguia/portal/internal/listing"
	"github.com/fundacaoguia/portal/internal/render"
)

// homeNewsCount is how many headlines the home page shows.
const homeNewsCount = 3

// PublicHandler serves the public pages.
type PublicHandler struct {
	client     *backend.Client
	renderer   *render.Renderer
	cards      *listing.Cards
	newsRecent int
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(client *backend.Client, renderer *render.Renderer, cards *listing.Cards, newsRecent int) *PublicHandler {
	return &PublicHandler{
		client:     client,
		renderer:   renderer,
		cards:      cards,
		newsRecent: newsRecent,
	}
}

// HomeData is the home page model.
type HomeData struct {
	Headlines []listing.NewsCard
}

// Home handles GET /.
func (h *PublicHandler) Home(w http.ResponseWriter, r *http.Request) {
	news := h.client.ListNews(r.Context(), homeNewsCount)
	if len(news) > homeNewsCount {
		news = news[:homeNewsCount]
	}

	renderPage(w, r, h.renderer, http.StatusOK, tmplHome, render.TemplateData{
		Title: "Início",
		Data:  HomeData{Headlines: h.cards.NewsList(news)},
	})
}

// NewsData is the news list model.
type NewsData struct {
	Items []listing.NewsCard
	Empty string
}

// News handles GET /noticias.
func (h *PublicHandler) News(w http.ResponseWriter, r *http.Request) {
	items := h.client.ListNews(r.Context(), h.newsRecent)

	renderPage(w, r, h.renderer, http.StatusOK, tmplNews, render.TemplateData{
		Title: "Notícias",
		Data:  NewsData{Items: h.cards.NewsList(items), Empty: msgNoItems},
	})
}

// NewsDetail handles GET /noticias/{id}.
func (h *PublicHandler) NewsDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, ok := h.client.FindNews(r.Context(), id, h.newsRecent)
	if !ok {
		slog.Debug("news item not found", "id", id)
		h.NotFound(w, r)
		return
	}

	card := h.cards.NewsDetail(item)
	renderPage(w, r, h.renderer, http.StatusOK, tmplNewsDetail, render.TemplateData{
		Title: card.Titulo,
		Data:  card,
	})
}

// JobsData is the jobs list model. Every job is rendered; jobs outside
// Query are hidden so clearing the filter in the browser shows them again.
type JobsData struct {
	Query   string
	Jobs    []listing.JobCard
	Total   int
	Visible int
	Empty   string
}

// Jobs handles GET /vagas. The q parameter sets the initial filter by
// cargo or cidade.
func (h *PublicHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	jobs := h.client.ListJobs(r.Context())
	cards, visible := h.cards.Jobs(jobs, q)

	renderPage(w, r, h.renderer, http.StatusOK, tmplJobs, render.TemplateData{
		Title: "Vagas",
		Data: JobsData{
			Query:   q,
			Jobs:    cards,
			Total:   len(jobs),
			Visible: visible,
			Empty:   msgNoJobs,
		},
	})
}

// EventsData is the events page model.
type EventsData struct {
	Events []listing.EventCard
	Empty  string
}

// Events handles GET /eventos.
func (h *PublicHandler) Events(w http.ResponseWriter, r *http.Request) {
	events := h.client.ListEvents(r.Context())

	renderPage(w, r, h.renderer, http.StatusOK, tmplEvents, render.TemplateData{
		Title: "Eventos",
		Data:  EventsData{Events: h.cards.Events(events), Empty: msgNoItems},
	})
}

// LocationOption is one entry of the search kind selector.
type LocationOption struct {
	Value    string
	Label    string
	Selected bool
}

// LocationData is the location search model.
type LocationData struct {
	Options  []LocationOption
	Kind     backend.LocationKind
	Query    string
	Searched bool
	Groups   []listing.PlaceGroup
	Empty    string
	Error    string
}

// Location handles GET /localizacao. A search runs only when q is set.
func (h *PublicHandler) Location(w http.ResponseWriter, r *http.Request) {
	kind := backend.ParseLocationKind(r.URL.Query().Get("tipo"))
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	data := LocationData{Kind: kind, Query: q, Empty: listing.NoResults}
	for _, k := range backend.LocationKinds {
		data.Options = append(data.Options, LocationOption{
			Value:    string(k),
			Label:    k.Label(),
			Selected: k == kind,
		})
	}

	if q != "" {
		data.Searched = true
		res, err := h.client.SearchLocation(r.Context(), kind, q)
		if err != nil {
			slog.WarnContext(r.Context(), "location search failed", "kind", kind, "error", err)
			data.Error = msgLocationFailed
		} else {
			data.Groups = listing.LocationGroups(res)
		}
	}

	renderPage(w, r, h.renderer, http.StatusOK, tmplLocation, render.TemplateData{
		Title: "Localização",
		Data:  data,
	})
}

// NotFound renders the 404 page.
func (h *PublicHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, http.StatusNotFound, tmplNotFound, render.TemplateData{
		Title: "Página não encontrada",
	})
}
