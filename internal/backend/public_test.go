// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListNews(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle(http.MethodGet, "/noticias", http.StatusOK, `{"codigoStatus":200,"body":{"noticias":[
		{"id":1,"titulo":"Inauguração","data_publicacao":1709294400000,"tags":["saúde","obra"],"noticia_id_fundacao":42}
	]}}`)

	news := quietClient(fb.URL).ListNews(context.Background(), 10)

	require.Len(t, news, 1)
	assert.Equal(t, "recentes=10", fb.last().RawQuery)
	n := news[0]
	assert.Equal(t, "1", n.ID.String())
	assert.Equal(t, "Inauguração", n.Titulo.String())
	assert.EqualValues(t, 1709294400000, n.DataPublicacao)
	assert.Equal(t, `["saúde","obra"]`, n.Tags.String())
	assert.Equal(t, "42", n.NoticiaIDFundacao.String())
}

func TestListJobs_TolerantNumbers(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle(http.MethodGet, "/vagas", http.StatusOK, `{"codigoStatus":200,"body":{"vagas":[
		{"id":"v1","cargo":"Enfermeiro","quantidade":"3","data_publicacao":"1709294400000"},
		{"id":"v2","cargo":"Médico","quantidade":2},
		{"id":"v3","cargo":"Técnico"}
	]}}`)

	jobs := quietClient(fb.URL).ListJobs(context.Background())

	require.Len(t, jobs, 3)
	assert.Equal(t, "3", jobs[0].Quantidade.String())
	assert.EqualValues(t, 1709294400000, jobs[0].DataPublicacao)
	assert.Equal(t, "2", jobs[1].Quantidade.String())
	assert.False(t, jobs[2].Quantidade.Set)
}

func TestListEvents_Empty(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle(http.MethodGet, "/eventos", http.StatusOK, `{"codigoStatus":404,"mensagem":"nenhum evento"}`)

	events := quietClient(fb.URL).ListEvents(context.Background())
	assert.Empty(t, events)
}

func TestFindNews(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle(http.MethodGet, "/noticias", http.StatusOK,
		`{"codigoStatus":200,"body":{"noticias":[{"id":"x"},{"id":"y","titulo":"Y"}]}}`)

	c := quietClient(fb.URL)
	n, ok := c.FindNews(context.Background(), "y", 100)
	require.True(t, ok)
	assert.Equal(t, "Y", n.Titulo.String())

	_, ok = c.FindNews(context.Background(), "nope", 100)
	assert.False(t, ok)
}

func TestSearchLocation(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle(http.MethodGet, "/localizacao", http.StatusOK, `{"codigoStatus":200,"body":{
		"setor":{"nome":"Radiologia","andar":"2","descricao":"Ala norte"},
		"exames":[{"nome":"Raio-X","local_id":"loc-12"},{"nome":"Ultrassom","local_id":"loc-13"}]
	}}`)

	res, err := quietClient(fb.URL).SearchLocation(context.Background(), LocationSector, " radio ")

	require.NoError(t, err)
	assert.Equal(t, "setor=radio", fb.last().RawQuery)
	require.Len(t, res.Setores, 1)
	assert.Equal(t, "2", res.Setores[0].Andar.String())
	require.Len(t, res.Exames, 2)
	assert.Equal(t, "loc-13", res.Exames[1].LocalID.String())
	assert.Empty(t, res.Blocos)
	assert.False(t, res.Empty())
}

func TestSearchLocation_NoResults(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle(http.MethodGet, "/localizacao", http.StatusOK, `{"codigoStatus":200,"body":{}}`)

	res, err := quietClient(fb.URL).SearchLocation(context.Background(), LocationExam, "ressonância")

	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Equal(t, "exame=resson%C3%A2ncia", fb.last().RawQuery)
}

func TestSearchLocation_NotOK(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle(http.MethodGet, "/localizacao", http.StatusNotFound, `{"codigoStatus":404,"mensagem":"não encontrado"}`)

	res, err := quietClient(fb.URL).SearchLocation(context.Background(), LocationBlock, "bloco 9")
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestSearchLocation_Unreachable(t *testing.T) {
	fb := newFakeBackend(t)
	url := fb.URL
	fb.Close()

	_, err := quietClient(url).SearchLocation(context.Background(), LocationBlock, "x")
	assert.Error(t, err)
}

func TestParseLocationKind(t *testing.T) {
	tests := map[string]LocationKind{
		"setor": LocationSector,
		"BLOCO": LocationBlock,
		"exame": LocationExam,
		"":      LocationSector,
		"sala":  LocationSector,
	}
	for in, want := range tests {
		if got := ParseLocationKind(in); got != want {
			t.Errorf("ParseLocationKind(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProbe(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle(http.MethodGet, "/vagas", http.StatusOK, `{"codigoStatus":200,"body":{"vagas":[]}}`)
	fb.handle(http.MethodGet, "/eventos", http.StatusOK, `{"codigoStatus":500}`)

	c := quietClient(fb.URL)
	assert.NoError(t, c.Probe(context.Background(), "/vagas"))
	assert.Error(t, c.Probe(context.Background(), "/eventos"))
	assert.Error(t, c.Probe(context.Background(), "/inexistente"))
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr error
	}{
		{"adds scheme", http.StatusOK, `{"codigoStatus":200,"mensagem":"Login ok. Token Gerado: abc.def.ghi "}`, "Bearer abc.def.ghi", nil},
		{"keeps scheme", http.StatusOK, `{"codigoStatus":200,"mensagem":"Token Gerado: Bearer xyz"}`, "Bearer xyz", nil},
		{"no marker", http.StatusOK, `{"codigoStatus":200,"mensagem":"bem-vindo"}`, "", ErrInvalidCredentials},
		{"empty token", http.StatusOK, `{"codigoStatus":200,"mensagem":"Token Gerado:   "}`, "", ErrInvalidCredentials},
		{"rejected", http.StatusUnauthorized, `{"codigoStatus":401,"mensagem":"Senha incorreta"}`, "", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend(t)
			fb.handle(http.MethodPost, "/loginAdmin", tt.status, tt.body)

			got, err := quietClient(fb.URL).Login(context.Background(), "admin@guia.org", "s3nha")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			body := fb.last().Body
			assert.Equal(t, "admin@guia.org", body["email"])
			assert.Equal(t, "s3nha", body["senha"])
		})
	}
}

func TestLogin_ConnectionErrors(t *testing.T) {
	fb := newFakeBackend(t)
	fb.handle(http.MethodPost, "/loginAdmin", http.StatusOK, `not json`)

	_, err := quietClient(fb.URL).Login(context.Background(), "a@b.c", "x")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidCredentials))

	url := fb.URL
	fb.Close()
	_, err = quietClient(url).Login(context.Background(), "a@b.c", "x")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidCredentials))
}
