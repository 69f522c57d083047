// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// NewsItem is a published news article.
type NewsItem struct {
	ID                Text   `json:"id"`
	Titulo            Text   `json:"titulo"`
	Resumo            Text   `json:"resumo"`
	Conteudo          Text   `json:"conteudo"`
	NoticiaIDFundacao Text   `json:"noticia_id_fundacao"`
	DataPublicacao    Millis `json:"data_publicacao"`
	Tags              Text   `json:"tags"`
	Imagens           Text   `json:"imagens"`
	OutrosLinks       Text   `json:"outros_links"`
}

// JobPosting is an open position.
type JobPosting struct {
	ID                   Text   `json:"id"`
	Cargo                Text   `json:"cargo"`
	Cidade               Text   `json:"cidade"`
	Modalidade           Text   `json:"modalidade"`
	Horas                Text   `json:"horas"`
	PrincipaisAtividades Text   `json:"principais_atividades"`
	Beneficios           Text   `json:"beneficios"`
	Requisitos           Text   `json:"requisitos"`
	TipoVinculo          Text   `json:"tipo_vinculo"`
	Quantidade           Number `json:"quantidade"`
	DataPublicacao       Millis `json:"data_publicacao"`
	ComoSeInscrever      Text   `json:"como_se_inscrever"`
}

// Event is a foundation event.
type Event struct {
	ID          Text   `json:"id"`
	Titulo      Text   `json:"titulo"`
	Descricao   Text   `json:"descricao"`
	DataInicio  Millis `json:"data_inicio"`
	DataFim     Millis `json:"data_fim"`
	Status      Text   `json:"status"`
	PublicoAlvo Text   `json:"publico_alvo"`
	Quantidade  Number `json:"quantidade"`
}

// Place is one location search hit: an exam, a sector or a building block.
type Place struct {
	ID        Text `json:"id"`
	Nome      Text `json:"nome"`
	Descricao Text `json:"descricao"`
	Andar     Text `json:"andar"`
	LocalID   Text `json:"local_id"`
}

// LocationResult groups location search hits by kind.
type LocationResult struct {
	Exames  []Place
	Setores []Place
	Blocos  []Place
}

// Empty reports whether the search found nothing.
func (r LocationResult) Empty() bool {
	return len(r.Exames) == 0 && len(r.Setores) == 0 && len(r.Blocos) == 0
}
