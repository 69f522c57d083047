// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundacaoguia/portal/internal/backend"
)

func TestLoginForm(t *testing.T) {
	app := newTestApp(t)

	p := app.get(t, RouteLogin)
	require.Equal(t, http.StatusOK, p.Status)

	assert.Equal(t, "Acesso Administrativo", text(p, ".login h1"))
	assert.Equal(t, 1, p.Doc.Find("input[name=email]").Length())
	assert.Equal(t, 1, p.Doc.Find("input[name=senha][type=password]").Length())
	assert.Equal(t, "Área Admin", text(p, ".nav-admin"))
}

func TestLogin_Success(t *testing.T) {
	app := newTestApp(t)

	app.login(t)

	calls := app.api.find(http.MethodPost, backend.PathLogin)
	require.Len(t, calls, 1)
	assert.Equal(t, "admin@fundacaoguia.org.br", calls[0].Body["email"])
	assert.Equal(t, "segredo", calls[0].Body["senha"])

	// Signed in: /login goes straight to the panel.
	p := app.get(t, RouteLogin)
	assert.Equal(t, http.StatusSeeOther, p.Status)
	assert.Equal(t, RouteAdmin, p.Location)

	p = app.get(t, RouteRoot)
	assert.Equal(t, "Admin", text(p, ".nav-admin"))
}

func TestLogin_Rejected(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		status     int
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "invalid email",
			form:       url.Values{"email": {"nao-e-email"}, "senha": {"x"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  msgLoginInput,
		},
		{
			name:       "missing password",
			form:       url.Values{"email": {"admin@fundacaoguia.org.br"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  msgLoginInput,
		},
		{
			name:       "wrong credentials",
			form:       url.Values{"email": {"admin@fundacaoguia.org.br"}, "senha": {"errada"}},
			status:     http.StatusUnauthorized,
			body:       `{"codigoStatus":401,"mensagem":"Usuário ou senha incorretos"}`,
			wantStatus: http.StatusUnauthorized,
			wantError:  msgLoginInvalid,
		},
		{
			name:       "no token in message",
			form:       url.Values{"email": {"admin@fundacaoguia.org.br"}, "senha": {"errada"}},
			status:     http.StatusOK,
			body:       `{"codigoStatus":200,"mensagem":"ok"}`,
			wantStatus: http.StatusUnauthorized,
			wantError:  msgLoginInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t)
			if tt.body != "" {
				api.handle(http.MethodPost, backend.PathLogin, tt.status, tt.body)
			}
			app := newTestAppWithBase(t, api, "")

			p := app.post(t, RouteLogin, tt.form)
			assert.Equal(t, tt.wantStatus, p.Status)
			assert.Equal(t, tt.wantError, text(p, ".login .flash-error"))

			email, _ := p.Doc.Find("input[name=email]").Attr("value")
			assert.Equal(t, tt.form.Get("email"), email, "email is kept")
			pass, _ := p.Doc.Find("input[name=senha]").Attr("value")
			assert.Empty(t, pass, "password is never echoed")

			// Still signed out.
			p = app.get(t, RouteAdmin+"/noticias")
			assert.Equal(t, http.StatusSeeOther, p.Status)
			assert.True(t, strings.HasPrefix(p.Location, RouteLogin+"?"), p.Location)
		})
	}
}

func TestLogin_Unreachable(t *testing.T) {
	app := newTestAppWithBase(t, newFakeAPI(t), "http://127.0.0.1:1")

	p := app.post(t, RouteLogin, url.Values{"email": {"admin@fundacaoguia.org.br"}, "senha": {"segredo"}})
	assert.Equal(t, http.StatusBadGateway, p.Status)
	assert.Equal(t, msgLoginUnreachable, text(p, ".login .flash-error"))
}

func TestLogin_RemainingAttemptsAndLockout(t *testing.T) {
	api := newFakeAPI(t)
	api.handle(http.MethodPost, backend.PathLogin, http.StatusUnauthorized, `{"codigoStatus":401}`)
	app := newTestAppWithBase(t, api, "")

	form := url.Values{"email": {"admin@fundacaoguia.org.br"}, "senha": {"errada"}}

	p := app.post(t, RouteLogin, form)
	assert.Equal(t, msgLoginInvalid, text(p, ".login .flash-error"))

	p = app.post(t, RouteLogin, form)
	assert.Equal(t, fmt.Sprintf(msgLoginRemaining, 3), text(p, ".login .flash-error"))

	app.post(t, RouteLogin, form)
	app.post(t, RouteLogin, form)

	p = app.post(t, RouteLogin, form)
	assert.Equal(t, http.StatusTooManyRequests, p.Status)
	assert.Contains(t, text(p, ".login .flash-error"), "Acesso bloqueado")

	assert.True(t, app.lp.Status("ADMIN@fundacaoguia.org.br ").Locked,
		"lockout is keyed on the normalized e-mail")
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	app.login(t)

	p := app.get(t, RouteAdmin+"/noticias")
	require.Equal(t, http.StatusOK, p.Status)

	p = app.post(t, RouteLogout, nil)
	assert.Equal(t, http.StatusSeeOther, p.Status)
	assert.Equal(t, RouteRoot, p.Location)

	p = app.get(t, RouteRoot)
	assert.Equal(t, msgLoggedOut, text(p, ".flash-info"))

	p = app.get(t, RouteAdmin+"/noticias")
	assert.Equal(t, http.StatusSeeOther, p.Status)
	assert.Equal(t, "/login?voltar=%2Fadmin%2Fnoticias", p.Location)
}

func TestLogin_ReturnsToRequestedPage(t *testing.T) {
	app := newTestApp(t)

	p := app.get(t, RouteAdmin+"/exames")
	require.Equal(t, http.StatusSeeOther, p.Status)

	p = app.get(t, p.Location)
	require.Equal(t, http.StatusOK, p.Status)
	back, ok := p.Doc.Find("form input[name=voltar]").Attr("value")
	require.True(t, ok, "login form should carry the target")
	assert.Equal(t, RouteAdmin+"/exames", back)

	p = app.post(t, RouteLogin, url.Values{
		"email":  {"admin@fundacaoguia.org.br"},
		"senha":  {"segredo"},
		"voltar": {back},
	})
	assert.Equal(t, http.StatusSeeOther, p.Status)
	assert.Equal(t, RouteAdmin+"/exames", p.Location)
}

func TestLogin_IgnoresForeignReturn(t *testing.T) {
	app := newTestApp(t)

	p := app.get(t, RouteLogin+"?voltar=https%3A%2F%2Fevil.example%2Fadmin%2F")
	assert.Equal(t, 0, p.Doc.Find("form input[name=voltar]").Length())

	p = app.post(t, RouteLogin, url.Values{
		"email":  {"admin@fundacaoguia.org.br"},
		"senha":  {"segredo"},
		"voltar": {"//evil.example/admin/"},
	})
	assert.Equal(t, RouteAdmin, p.Location)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30 segundos"},
		{time.Minute, "1 minuto"},
		{15 * time.Minute, "15 minutos"},
		{time.Hour, "1 hora"},
		{3 * time.Hour, "3 horas"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d), tt.d.String())
	}
}
