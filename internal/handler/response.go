// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fundacaoguia/portal/internal/render"
)

// msgInternal is the body of an unexpected 500.
const msgInternal = "Erro interno. Tente novamente em instantes."

// flashAndRedirect stores a flash of the given kind and answers 303, so a
// reload of the target never resubmits the form.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, to, message, kind string) {
	renderer.SetFlash(r, message, kind)
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func flashError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, to, message string) {
	flashAndRedirect(w, r, renderer, to, message, render.FlashError)
}

func flashSuccess(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, to, message string) {
	flashAndRedirect(w, r, renderer, to, message, render.FlashSuccess)
}

// internalError logs what went wrong with the request path and answers a
// plain 500.
func internalError(w http.ResponseWriter, r *http.Request, logMsg string, args ...any) {
	slog.ErrorContext(r.Context(), logMsg, append(args, "method", r.Method)...)
	w.Header().Set("Cache-Control", "no-store")
	http.Error(w, msgInternal, http.StatusInternalServerError)
}

// renderPage renders a template. The renderer buffers, so a failing
// template leaves the response untouched for the 500.
func renderPage(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, status int, name string, data render.TemplateData) {
	if err := renderer.RenderStatus(w, r, status, name, data); err != nil {
		internalError(w, r, "failed to render template", "template", name, "error", err)
	}
}

// writeJSON answers v as uncached JSON.
func writeJSON(w http.ResponseWriter, status int, v any) {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}
