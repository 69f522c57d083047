// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package listing

import (
	"github.com/fundacaoguia/portal/internal/model"
)

// NoResults is shown when a location search finds nothing.
const NoResults = "Nenhum resultado encontrado."

// PlaceGroup is one kind of location search hit.
type PlaceGroup struct {
	Kind   string
	Label  string
	Places []model.Place
}

// LocationGroups orders search hits for display: exams, sectors, blocks.
// Empty groups are dropped.
func LocationGroups(res model.LocationResult) []PlaceGroup {
	groups := []PlaceGroup{
		{Kind: "exame", Label: "Exame", Places: res.Exames},
		{Kind: "setor", Label: "Setor", Places: res.Setores},
		{Kind: "bloco", Label: "Bloco", Places: res.Blocos},
	}
	out := groups[:0]
	for _, g := range groups {
		if len(g.Places) > 0 {
			out = append(out, g)
		}
	}
	return out
}
