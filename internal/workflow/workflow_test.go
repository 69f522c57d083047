// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package workflow

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundacaoguia/portal/internal/codec"
	"github.com/fundacaoguia/portal/internal/model"
	"github.com/fundacaoguia/portal/internal/schema"
)

var brt = time.FixedZone("BRT", -3*3600)

func mustKind(t *testing.T, name string) *schema.Kind {
	t.Helper()
	reg, err := schema.Default()
	require.NoError(t, err)
	k, ok := reg.Get(name)
	require.True(t, ok)
	return k
}

func noon(t *testing.T, day string) int64 {
	t.Helper()
	ms, ok := codec.ParseFormDate(day, brt)
	require.True(t, ok)
	return ms
}

func TestReduce_Lifecycle(t *testing.T) {
	s := Reduce(State{}, Action{Type: SelectTab, Kind: "vagas"})
	assert.Equal(t, State{Kind: "vagas", Mode: Listing}, s)

	s = Reduce(s, Action{Type: Loaded})
	assert.Equal(t, FormClosed, s.Mode)

	s = Reduce(s, Action{Type: New})
	assert.Equal(t, FormOpenCreate, s.Mode)
	assert.False(t, s.Editing())

	s = Reduce(s, Action{Type: Submit, Draft: Draft{"cargo": "x"}})
	assert.True(t, s.Saving)
	assert.Equal(t, "x", s.Draft["cargo"])

	s = Reduce(s, Action{Type: SubmitFailed, Missing: []string{"cidade"}})
	assert.False(t, s.Saving)
	assert.Equal(t, FormOpenCreate, s.Mode)
	assert.Equal(t, []string{"cidade"}, s.Missing)
	assert.Equal(t, "x", s.Draft["cargo"], "draft survives a failed submit")

	s = Reduce(s, Action{Type: Submit, Draft: Draft{"cargo": "y"}})
	assert.Nil(t, s.Missing)

	s = Reduce(s, Action{Type: Saved})
	assert.Equal(t, State{Kind: "vagas", Mode: Listing}, s)
}

func TestReduce_EditAndCancel(t *testing.T) {
	rec := model.Record{"id": "1", "cargo": "Enfermeiro"}
	s := State{Kind: "vagas", Mode: FormClosed}

	s = Reduce(s, Action{Type: Edit, Record: rec, Draft: Draft{"cargo": "Enfermeiro"}})
	assert.Equal(t, FormOpenEdit, s.Mode)
	assert.True(t, s.Editing())
	assert.Equal(t, rec, s.Original)

	s = Reduce(s, Action{Type: Cancel})
	assert.Equal(t, State{Kind: "vagas", Mode: FormClosed}, s)
}

func TestReduce_IgnoresInapplicableActions(t *testing.T) {
	closed := State{Kind: "eventos", Mode: FormClosed}
	for _, a := range []ActionType{Submit, SubmitFailed, Saved, Cancel} {
		if got := Reduce(closed, Action{Type: a}); got.Mode != FormClosed {
			t.Errorf("action %d on closed form moved to %s", a, got.Mode)
		}
	}

	open := State{Kind: "eventos", Mode: FormOpenCreate, Draft: Draft{"titulo": "t"}}
	got := Reduce(open, Action{Type: Edit, Record: model.Record{"id": "2"}})
	assert.Equal(t, open, got, "edit while a form is open is ignored")

	got = Reduce(closed, Action{Type: Edit})
	assert.Equal(t, closed, got, "edit without a record is ignored")

	got = Reduce(open, Action{Type: Loaded})
	assert.Equal(t, open, got)
}

func TestReduce_SelectTabResets(t *testing.T) {
	s := State{Kind: "vagas", Mode: FormOpenEdit, Draft: Draft{"a": "b"}, Original: model.Record{"id": "1"}}
	s = Reduce(s, Action{Type: SelectTab, Kind: "exames"})
	assert.Equal(t, State{Kind: "exames", Mode: Listing}, s)
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "form-open-edit", FormOpenEdit.String())
	assert.Equal(t, "unknown", Mode(42).String())
}

func TestSeed(t *testing.T) {
	k := mustKind(t, "eventos")
	rec := model.Record{
		"id":          "ev1",
		"titulo":      "Campanha",
		"data_inicio": float64(noon(t, "2024-10-01")),
		"data_fim":    "lixo",
		"quantidade":  float64(40),
		"extra":       "ignored",
	}

	d := Seed(k, rec, brt)

	assert.Equal(t, "Campanha", d["titulo"])
	assert.Equal(t, "2024-10-01", d["data_inicio"])
	assert.Equal(t, "", d["data_fim"])
	assert.Equal(t, "40", d["quantidade"])
	assert.Equal(t, "", d["status"])
	_, hasExtra := d["extra"]
	assert.False(t, hasExtra)
}

func TestDraftFromForm(t *testing.T) {
	k := mustKind(t, "exames")
	form := url.Values{"nome": {"Raio-X"}, "local_id": {"loc-1"}, "hack": {"x"}}

	d := DraftFromForm(k, form)
	assert.Equal(t, Draft{"nome": "Raio-X", "descricao": "", "local_id": "loc-1"}, d)
}

func TestBuildPayload_Create(t *testing.T) {
	k := mustKind(t, "vagas")
	draft := Draft{
		"cargo":           "Enfermeiro",
		"cidade":          "Campinas",
		"modalidade":      "Presencial",
		"tipo_vinculo":    "CLT",
		"quantidade":      "3",
		"data_publicacao": "2024-03-01",
		"horas":           "",
	}

	payload, missing := BuildPayload(k, draft, nil, brt)

	assert.Empty(t, missing)
	assert.Equal(t, float64(3), payload["quantidade"])
	assert.Equal(t, noon(t, "2024-03-01"), payload["data_publicacao"])
	_, hasHoras := payload["horas"]
	assert.False(t, hasHoras, "empty optional fields are omitted on create")
}

func TestBuildPayload_MissingBlocksSubmission(t *testing.T) {
	k := mustKind(t, "vagas")
	draft := Draft{"cargo": "Enfermeiro", "quantidade": "", "data_publicacao": "01/03/2024"}

	_, missing := BuildPayload(k, draft, nil, brt)

	assert.Equal(t, []string{"modalidade", "cidade", "data_publicacao", "tipo_vinculo", "quantidade"}, missing)
	assert.Equal(t,
		"Preencha os campos obrigatórios: modalidade, cidade, data_publicacao, tipo_vinculo, quantidade",
		MissingMessage(missing))
}

func TestBuildPayload_ZeroIsSet(t *testing.T) {
	k := mustKind(t, "eventos")
	draft := Draft{
		"titulo":      "Palestra",
		"data_inicio": "2024-05-01",
		"data_fim":    "2024-05-02",
		"status":      "programado",
		"quantidade":  "0",
	}

	payload, missing := BuildPayload(k, draft, nil, brt)
	assert.Empty(t, missing)
	assert.Equal(t, float64(0), payload["quantidade"])
}

func TestBuildPayload_EditRestoresRequired(t *testing.T) {
	k := mustKind(t, "noticias")
	original := model.Record{
		"id":                  "n1",
		"titulo":              "Original",
		"conteudo":            "Texto",
		"noticia_id_fundacao": float64(77),
		"data_publicacao":     float64(noon(t, "2023-12-25")),
		"resumo":              "antigo",
	}
	draft := Seed(k, original, brt)
	draft["titulo"] = ""
	draft["noticia_id_fundacao"] = ""
	draft["resumo"] = ""
	draft["conteudo"] = "Novo texto"

	payload, missing := BuildPayload(k, draft, original, brt)

	require.Empty(t, missing)
	assert.Equal(t, "Original", payload["titulo"])
	assert.Equal(t, "77", payload["noticia_id_fundacao"], "legacy id always sent as a string")
	assert.Equal(t, "Novo texto", payload["conteudo"])
	assert.Equal(t, "", payload["resumo"], "cleared optional field is sent empty")
	assert.Equal(t, noon(t, "2023-12-25"), payload["data_publicacao"])
	_, hasID := payload["id"]
	assert.False(t, hasID)
}

func TestBuildPayload_EditStillMissing(t *testing.T) {
	k := mustKind(t, "exames")
	original := model.Record{"id": "e1", "nome": "Raio-X", "descricao": "", "local_id": "loc-1"}
	draft := Draft{"nome": "", "descricao": "", "local_id": "loc-2"}

	payload, missing := BuildPayload(k, draft, original, brt)

	assert.Equal(t, []string{"descricao"}, missing)
	assert.Equal(t, "Raio-X", payload["nome"])
	assert.Equal(t, "loc-2", payload["local_id"])
}

func TestBuildPayload_LegacyIDCoercedOnCreate(t *testing.T) {
	k := mustKind(t, "noticias")
	draft := Draft{
		"titulo":              "T",
		"conteudo":            "C",
		"noticia_id_fundacao": "123",
		"data_publicacao":     "2024-01-10",
		"tags":                "a;b",
	}

	payload, missing := BuildPayload(k, draft, nil, brt)
	assert.Empty(t, missing)
	assert.Equal(t, "123", payload["noticia_id_fundacao"])
	assert.Equal(t, "a;b", payload["tags"])
}

func TestMissingMessage_Empty(t *testing.T) {
	assert.Equal(t, "", MissingMessage(nil))
}
