// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fundacaoguia/portal/internal/model"
)

// Backend paths outside the admin resource table.
const (
	PathNews     = "/noticias"
	PathJobs     = "/vagas"
	PathEvents   = "/eventos"
	PathLocation = "/localizacao"
	PathLogin    = "/loginAdmin"
)

// ListNews returns the most recent news items.
func (c *Client) ListNews(ctx context.Context, recent int) []model.NewsItem {
	q := url.Values{}
	if recent > 0 {
		q.Set("recentes", strconv.Itoa(recent))
	}
	return decodeList[model.NewsItem](ctx, c, PathNews, q, "noticias")
}

// FindNews looks a news item up among the most recent ones. The backend
// has no single-item endpoint.
func (c *Client) FindNews(ctx context.Context, id string, recent int) (model.NewsItem, bool) {
	for _, n := range c.ListNews(ctx, recent) {
		if n.ID.String() == id {
			return n, true
		}
	}
	return model.NewsItem{}, false
}

// ListJobs returns every open position.
func (c *Client) ListJobs(ctx context.Context) []model.JobPosting {
	return decodeList[model.JobPosting](ctx, c, PathJobs, nil, "vagas")
}

// ListEvents returns every event.
func (c *Client) ListEvents(ctx context.Context) []model.Event {
	return decodeList[model.Event](ctx, c, PathEvents, nil, "eventos")
}

// LocationKind selects what a location search matches.
type LocationKind string

// Location search kinds.
const (
	LocationSector LocationKind = "setor"
	LocationBlock  LocationKind = "bloco"
	LocationExam   LocationKind = "exame"
)

// LocationKinds lists the search kinds in display order.
var LocationKinds = []LocationKind{LocationSector, LocationBlock, LocationExam}

// ParseLocationKind validates a search kind, defaulting to sector.
func ParseLocationKind(s string) LocationKind {
	switch LocationKind(strings.ToLower(strings.TrimSpace(s))) {
	case LocationBlock:
		return LocationBlock
	case LocationExam:
		return LocationExam
	default:
		return LocationSector
	}
}

// Label returns the display name of the kind.
func (k LocationKind) Label() string {
	switch k {
	case LocationBlock:
		return "Bloco"
	case LocationExam:
		return "Exame"
	default:
		return "Setor"
	}
}

// SearchLocation searches sectors, blocks or exams. A non-200 envelope is
// an empty result; only transport failures return an error.
func (c *Client) SearchLocation(ctx context.Context, kind LocationKind, query string) (model.LocationResult, error) {
	q := url.Values{}
	q.Set(string(kind), strings.TrimSpace(query))

	res, err := c.do(ctx, http.MethodGet, PathLocation, q, "", nil)
	if err != nil {
		return model.LocationResult{}, fmt.Errorf("location search: %w", err)
	}
	if res.decodeErr != nil || !res.env.OK() {
		return model.LocationResult{}, nil
	}
	return decodeLocation(res.env), nil
}

func decodeLocation(env Envelope) model.LocationResult {
	var out model.LocationResult
	collect := func(key string, dst *[]model.Place) {
		raw, ok := env.Field(key)
		if !ok {
			return
		}
		var places model.OneOrMany[model.Place]
		if err := json.Unmarshal(raw, &places); err == nil {
			*dst = append(*dst, places...)
		}
	}
	collect("exames", &out.Exames)
	collect("exame", &out.Exames)
	collect("setor", &out.Setores)
	collect("setores", &out.Setores)
	collect("bloco", &out.Blocos)
	collect("blocos", &out.Blocos)
	return out
}

// Probe reports whether a list endpoint answers with codigoStatus 200.
func (c *Client) Probe(ctx context.Context, path string) error {
	res, err := c.do(ctx, http.MethodGet, path, nil, "", nil)
	if err != nil {
		return err
	}
	if res.decodeErr != nil {
		return res.decodeErr
	}
	if !res.env.OK() {
		return fmt.Errorf("codigoStatus %d", res.env.CodigoStatus)
	}
	return nil
}
