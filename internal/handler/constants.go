// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteNews is the news list route.
	RouteNews = "/noticias"
	// RouteJobs is the jobs list route.
	RouteJobs = "/vagas"
	// RouteEvents is the events route.
	RouteEvents = "/eventos"
	// RouteLocation is the location search route.
	RouteLocation = "/localizacao"

	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RouteAdmin is the admin panel root.
	RouteAdmin = "/admin"

	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteParamKind is the resource kind parameter pattern.
	RouteParamKind = "/{kind}"
	// RouteSuffixNew is the suffix for "new" routes.
	RouteSuffixNew = "/new"
	// RouteSuffixEdit is the suffix for edit routes.
	RouteSuffixEdit = "/edit"
	// RouteSuffixDelete is the suffix for delete routes.
	RouteSuffixDelete = "/delete"
	// RouteProbe triggers the backend probe from the admin panel.
	RouteProbe = "/diagnostico/verificar"

	// RouteHealth is the health check route.
	RouteHealth = "/health"
)

// Template names.
const (
	tmplHome       = "pages/home"
	tmplNews       = "pages/news"
	tmplNewsDetail = "pages/news_detail"
	tmplJobs       = "pages/jobs"
	tmplEvents     = "pages/events"
	tmplLocation   = "pages/location"
	tmplNotFound   = "pages/not_found"
	tmplLogin      = "auth/login"
	tmplAdminList  = "admin/list"
	tmplAdminForm  = "admin/form"
	tmplAdminDel   = "admin/delete"
)

// Form field carrying the one-time submit nonce.
const formNonceField = "_nonce"

// User-facing messages.
const (
	msgInvalidForm       = "Dados do formulário inválidos."
	msgLoginInput        = "Informe um e-mail válido e a senha."
	msgLoginInvalid      = "Credenciais inválidas."
	msgLoginUnreachable  = "Erro ao conectar com servidor."
	msgLoginLocked       = "Acesso bloqueado por excesso de tentativas. Tente novamente em %s."
	msgLoginRemaining    = "Credenciais inválidas. Restam %d tentativa(s)."
	msgLoggedOut         = "Sessão encerrada."
	msgUnknownKind       = "Tipo de registro desconhecido."
	msgRecordNotFound    = "Registro não encontrado."
	msgUpdateUnsupported = "Este tipo de registro não pode ser editado."
	msgDuplicateSubmit   = "Este formulário já foi enviado."
	msgSaved             = "Registro salvo com sucesso."
	msgDeleted           = "Registro excluído."
	msgDeleteFailed      = "Erro ao deletar"
	msgSaveUnreachable   = "Erro ao conectar com servidor. Tente novamente."
	msgSessionExpired    = "Sessão expirada. Faça login novamente."
	msgLocationFailed    = "Não foi possível consultar a localização agora."
	msgProbeOK           = "API da Fundação respondendo normalmente."
	msgProbeFailed       = "A API da Fundação não respondeu a todas as verificações."
	msgProbeRunning      = "Uma verificação já está em andamento."
	msgNoItems           = "Nenhum item encontrado."
	msgNoJobs            = "Nenhuma vaga encontrada."
)
