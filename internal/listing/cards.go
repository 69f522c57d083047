// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package listing

import (
	"html/template"
	"time"

	"github.com/fundacaoguia/portal/internal/codec"
	"github.com/fundacaoguia/portal/internal/model"
)

// Display fallbacks.
const (
	DefaultModalidade = "Modalidade não informada"
	DefaultStatus     = "programado"
	DefaultPublico    = "Geral"
	NoEventDate       = "-"
	DefaultApplyLink  = "#"
)

// NewsCard is a news item prepared for display.
type NewsCard struct {
	ID     string
	Titulo string
	Resumo string
	Date   string
	Cover  string
	Tags   []string
	Links  []string
	Body   template.HTML
}

// JobCard is a job posting prepared for display.
type JobCard struct {
	ID          string
	Cargo       string
	Cidade      string
	Modalidade  string
	Horas       string
	Quantidade  string
	TipoVinculo string
	Date        string
	ApplyURL    string
	Atividades  string
	Requisitos  string
	Beneficios  string

	// Folded filter keys, see SearchKey.
	CargoKey  string
	CidadeKey string
	// Hidden is set for jobs outside the current filter.
	Hidden bool
}

// EventCard is an event prepared for display.
type EventCard struct {
	ID          string
	Titulo      string
	Descricao   string
	Status      string
	Inicio      string
	Fim         string
	PublicoAlvo string
	Quantidade  string
}

// Cards builds display models using loc for dates.
type Cards struct {
	loc      *time.Location
	renderer *ContentRenderer
}

// NewCards creates a card builder.
func NewCards(loc *time.Location, renderer *ContentRenderer) *Cards {
	if loc == nil {
		loc = time.Local
	}
	if renderer == nil {
		renderer = NewContentRenderer()
	}
	return &Cards{loc: loc, renderer: renderer}
}

// News builds a news card without the rendered body.
func (c *Cards) News(n model.NewsItem) NewsCard {
	return NewsCard{
		ID:     n.ID.String(),
		Titulo: n.Titulo.String(),
		Resumo: n.Resumo.String(),
		Date:   codec.DisplayDate(int64(n.DataPublicacao), c.loc),
		Cover:  codec.CoverImage(n.Imagens.String()),
		Tags:   codec.SplitTags(n.Tags.String()),
	}
}

// NewsDetail builds a news card including the rendered article body.
func (c *Cards) NewsDetail(n model.NewsItem) NewsCard {
	card := c.News(n)
	card.Body = c.renderer.Render(n.Conteudo.String())
	card.Links = codec.DecodeList(n.OutrosLinks.String())
	return card
}

// NewsList builds cards for a list of news items.
func (c *Cards) NewsList(items []model.NewsItem) []NewsCard {
	out := make([]NewsCard, 0, len(items))
	for _, n := range items {
		out = append(out, c.News(n))
	}
	return out
}

// Job builds a job card.
func (c *Cards) Job(j model.JobPosting) JobCard {
	card := JobCard{
		ID:          j.ID.String(),
		Cargo:       j.Cargo.String(),
		Cidade:      j.Cidade.String(),
		Modalidade:  j.Modalidade.String(),
		Horas:       j.Horas.String(),
		TipoVinculo: j.TipoVinculo.String(),
		ApplyURL:    j.ComoSeInscrever.String(),
		Atividades:  j.PrincipaisAtividades.String(),
		Requisitos:  codec.StripBrackets(j.Requisitos.String()),
		Beneficios:  codec.StripBrackets(j.Beneficios.String()),
		CargoKey:    SearchKey(j.Cargo.String()),
		CidadeKey:   SearchKey(j.Cidade.String()),
	}
	if card.Modalidade == "" {
		card.Modalidade = DefaultModalidade
	}
	if card.ApplyURL == "" {
		card.ApplyURL = DefaultApplyLink
	}
	// Zero openings is not shown.
	if j.Quantidade.Set && j.Quantidade.Value != 0 {
		card.Quantidade = j.Quantidade.String()
	}
	if j.DataPublicacao != 0 {
		card.Date = codec.DisplayDate(int64(j.DataPublicacao), c.loc)
	}
	return card
}

// Jobs builds cards for every job; jobs not matching q are Hidden. It
// also returns how many cards are visible.
func (c *Cards) Jobs(items []model.JobPosting, q string) ([]JobCard, int) {
	m := NewJobMatcher(q)
	out := make([]JobCard, 0, len(items))
	visible := 0
	for _, j := range items {
		card := c.Job(j)
		card.Hidden = !m.Match(j)
		if !card.Hidden {
			visible++
		}
		out = append(out, card)
	}
	return out, visible
}

// Event builds an event card.
func (c *Cards) Event(e model.Event) EventCard {
	card := EventCard{
		ID:          e.ID.String(),
		Titulo:      e.Titulo.String(),
		Descricao:   e.Descricao.String(),
		Status:      e.Status.String(),
		PublicoAlvo: e.PublicoAlvo.String(),
		Inicio:      NoEventDate,
		Fim:         NoEventDate,
	}
	if card.Status == "" {
		card.Status = DefaultStatus
	}
	if card.PublicoAlvo == "" {
		card.PublicoAlvo = DefaultPublico
	}
	if e.DataInicio != 0 {
		card.Inicio = codec.DisplayDate(int64(e.DataInicio), c.loc)
	}
	if e.DataFim != 0 {
		card.Fim = codec.DisplayDate(int64(e.DataFim), c.loc)
	}
	if e.Quantidade.Set && e.Quantidade.Value != 0 {
		card.Quantidade = e.Quantidade.String()
	}
	return card
}

// Events builds cards for a list of events.
func (c *Cards) Events(items []model.Event) []EventCard {
	out := make([]EventCard, 0, len(items))
	for _, e := range items {
		out = append(out, c.Event(e))
	}
	return out
}
