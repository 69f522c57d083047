// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"github.com/go-chi/chi/v5"

	"github.com/fundacaoguia/portal/internal/handler"
	"github.com/fundacaoguia/portal/internal/middleware"
)

// registerPublicRoutes registers the public pages.
func registerPublicRoutes(r chi.Router, h *handler.PublicHandler) {
	r.Get(handler.RouteRoot, h.Home)
	r.Get(handler.RouteNews, h.News)
	r.Get(handler.RouteNews+handler.RouteParamID, h.NewsDetail)
	r.Get(handler.RouteJobs, h.Jobs)
	r.Get(handler.RouteEvents, h.Events)
	r.Get(handler.RouteLocation, h.Location)
}

// registerAuthRoutes registers login and logout. Only the login POST is
// rate limited.
func registerAuthRoutes(r chi.Router, h *handler.AuthHandler, lp *middleware.LoginProtection) {
	r.Get(handler.RouteLogin, h.LoginForm)
	r.With(lp.Middleware()).Post(handler.RouteLogin, h.Login)
	r.Post(handler.RouteLogout, h.Logout)
}

// registerAdminRoutes registers the admin panel under /admin.
// Routes: GET /, POST /diagnostico/verificar, GET /{kind},
// GET|POST /{kind}/new, GET|POST /{kind}/{id}/edit, GET|POST /{kind}/{id}/delete
func registerAdminRoutes(r chi.Router, h *handler.AdminHandler) {
	r.Get(handler.RouteRoot, h.Dashboard)
	r.Post(handler.RouteProbe, h.TriggerProbe)

	kind := handler.RouteParamKind
	record := kind + handler.RouteParamID
	r.Get(kind, h.List)
	r.Get(kind+handler.RouteSuffixNew, h.NewForm)
	r.Post(kind+handler.RouteSuffixNew, h.Create)
	r.Get(record+handler.RouteSuffixEdit, h.EditForm)
	r.Post(record+handler.RouteSuffixEdit, h.Update) // HTML forms can't send PUT
	r.Get(record+handler.RouteSuffixDelete, h.DeleteConfirm)
	r.Post(record+handler.RouteSuffixDelete, h.Delete)
}

// registerHealthRoutes registers the health endpoints.
func registerHealthRoutes(r chi.Router, h *handler.HealthHandler) {
	r.Get(handler.RouteHealth, h.Health)
	r.Get(handler.RouteHealth+"/live", h.Liveness)
	r.Get(handler.RouteHealth+"/ready", h.Readiness)
}
