// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fundacaoguia/portal/internal/backend"
	"github.com/fundacaoguia/portal/internal/middleware"
	"github.com/fundacaoguia/portal/internal/render"
	"github.com/fundacaoguia/portal/internal/session"
)

// loginInput is the submitted login form.
type loginInput struct {
	Email string `validate:"required,email,max=254"`
	Senha string `validate:"required,max=256"`
}

// LoginData is the login page model.
type LoginData struct {
	Email  string
	Error  string
	Return string // admin page to open after signing in
}

// returnTarget accepts only admin pages as the post-login target.
func returnTarget(raw string) string {
	if isAdminPath(raw) {
		return raw
	}
	return ""
}

// AuthHandler handles the admin login and logout.
type AuthHandler struct {
	client          *backend.Client
	renderer        *render.Renderer
	tokens          *session.TokenStore
	loginProtection *middleware.LoginProtection
	validate        *validator.Validate
}

// NewAuthHandler creates a new AuthHandler. lp may be nil.
func NewAuthHandler(client *backend.Client, renderer *render.Renderer, tokens *session.TokenStore, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		client:          client,
		renderer:        renderer,
		tokens:          tokens,
		loginProtection: lp,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
	}
}

// LoginForm renders the login page. A session that already holds a token
// goes straight to the admin panel.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	ret := returnTarget(r.URL.Query().Get(middleware.ReturnParam))
	if h.tokens.Authenticated(r.Context()) {
		http.Redirect(w, r, cmp.Or(ret, RouteAdmin), http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, LoginData{Return: ret})
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, LoginData{Error: msgInvalidForm})
		return
	}

	in := loginInput{
		Email: strings.TrimSpace(r.PostForm.Get("email")),
		Senha: r.PostForm.Get("senha"),
	}
	data := LoginData{Email: in.Email, Return: returnTarget(r.PostForm.Get(middleware.ReturnParam))}

	if err := h.validate.Struct(in); err != nil {
		slog.Debug("login input rejected", "error", err)
		data.Error = msgLoginInput
		h.renderLogin(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	if h.loginProtection != nil {
		if st := h.loginProtection.Status(in.Email); st.Locked {
			slog.WarnContext(r.Context(), "login attempt on locked account", "category", "auth", "email", in.Email, "ip", middleware.GetClientIP(r))
			data.Error = fmt.Sprintf(msgLoginLocked, formatDuration(st.RetryAfter))
			h.renderLogin(w, r, http.StatusTooManyRequests, data)
			return
		}
	}

	token, err := h.client.Login(r.Context(), in.Email, in.Senha)
	if err != nil {
		if !errors.Is(err, backend.ErrInvalidCredentials) {
			slog.WarnContext(r.Context(), "login request failed", "category", "auth", "error", err)
			data.Error = msgLoginUnreachable
			h.renderLogin(w, r, http.StatusBadGateway, data)
			return
		}

		slog.WarnContext(r.Context(), "login failed: invalid credentials", "category", "auth", "email", in.Email, "ip", middleware.GetClientIP(r))
		data.Error = msgLoginInvalid
		if h.loginProtection != nil {
			st := h.loginProtection.Fail(in.Email)
			if st.Locked {
				data.Error = fmt.Sprintf(msgLoginLocked, formatDuration(st.RetryAfter))
				h.renderLogin(w, r, http.StatusTooManyRequests, data)
				return
			}
			if st.Remaining > 0 && st.Remaining <= 3 {
				data.Error = fmt.Sprintf(msgLoginRemaining, st.Remaining)
			}
		}
		h.renderLogin(w, r, http.StatusUnauthorized, data)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.Succeed(in.Email)
	}

	if err := h.tokens.SetToken(r.Context(), token); err != nil {
		internalError(w, r, "session renewal error", "error", err)
		return
	}

	slog.InfoContext(r.Context(), "admin logged in", "category", "auth", "email", in.Email)
	http.Redirect(w, r, cmp.Or(data.Return, RouteAdmin), http.StatusSeeOther)
}

// Logout drops the token and returns to the home page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.tokens.Clear(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "session destroy error", "error", err)
	}

	slog.InfoContext(r.Context(), "admin logged out", "category", "auth")
	flashAndRedirect(w, r, h.renderer, RouteRoot, msgLoggedOut, render.FlashInfo)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data LoginData) {
	renderPage(w, r, h.renderer, status, tmplLogin, render.TemplateData{
		Title: "Acesso Administrativo",
		Data:  data,
	})
}

// formatDuration formats a lockout duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d segundos", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minuto"
		}
		return fmt.Sprintf("%d minutos", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hora"
	}
	return fmt.Sprintf("%d horas", hours)
}
