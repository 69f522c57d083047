// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/fundacaoguia/portal/internal/backend"
	"github.com/fundacaoguia/portal/internal/config"
	"github.com/fundacaoguia/portal/internal/handler"
	"github.com/fundacaoguia/portal/internal/listing"
	"github.com/fundacaoguia/portal/internal/logging"
	"github.com/fundacaoguia/portal/internal/middleware"
	"github.com/fundacaoguia/portal/internal/render"
	"github.com/fundacaoguia/portal/internal/scheduler"
	"github.com/fundacaoguia/portal/internal/schema"
	"github.com/fundacaoguia/portal/internal/session"
	"github.com/fundacaoguia/portal/internal/version"
	"github.com/fundacaoguia/portal/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

const envHelp = `
Environment:
  GUIA_SESSION_SECRET    session and CSRF key, at least 32 bytes (required)
  GUIA_API_BASE_URL      backend API root (default http://localhost:3003)
  GUIA_API_TIMEOUT       backend call timeout (default 15s)
  GUIA_SERVER_HOST       listen host (default localhost)
  GUIA_SERVER_PORT       listen port (default 8080)
  GUIA_ENV               development or production (default development)
  GUIA_LOG_LEVEL         debug, info, warn or error (default info)
  GUIA_PUBLIC_ORIGINS    extra origins allowed to post forms, comma separated
  GUIA_REDIS_URL         Redis URL for a shared login rate limit (optional)
  GUIA_PROBE_SCHEDULE    backend probe cron spec, "off" to disable (default @every 1m)

A .env file in the working directory is read first when present.
`

// probePaths are the read endpoints checked by the scheduled probe.
var probePaths = []string{"/noticias", "/vagas", "/eventos"}

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Portal da Fundação Guia\n\nUsage: %s [options]\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
		_, _ = fmt.Fprint(os.Stderr, envHelp)
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}.FromBuild()

	if *showVersion {
		_, _ = fmt.Println(versionInfo.String())
		os.Exit(0)
	}

	if err := run(versionInfo); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(versionInfo version.Info) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var logLevel slog.Level
	levelErr := logLevel.UnmarshalText([]byte(cfg.LogLevel))
	if levelErr != nil {
		logLevel = slog.LevelInfo
	}

	// WARN and ERROR records are also kept in memory for the admin panel
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	recentLogs := logging.NewRecentHandler(textHandler, logging.DefaultCapacity)
	logger := slog.New(recentLogs)
	slog.SetDefault(logger)
	if levelErr != nil {
		slog.Warn("unknown GUIA_LOG_LEVEL, using info", "level", cfg.LogLevel)
	}

	loc := cfg.Location()

	kinds, err := schema.Default()
	if err != nil {
		return fmt.Errorf("loading resource kinds: %w", err)
	}
	if err := kinds.SetListQuery("noticias", "recentes", strconv.Itoa(cfg.AdminNewsRecent)); err != nil {
		return fmt.Errorf("configuring news listing: %w", err)
	}
	if err := kinds.SetListQuery("exames", "bloco", cfg.ExamListBlock); err != nil {
		return fmt.Errorf("configuring exam listing: %w", err)
	}

	client := backend.New(cfg.APIBaseURL,
		backend.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}),
		backend.WithLogger(logger.With("component", "backend")),
	)
	slog.Info("backend client initialized", "base_url", client.BaseURL(), "timeout", cfg.APITimeout)

	sessionManager := session.New(session.Config{
		IsDev:       cfg.IsDevelopment(),
		IdleTimeout: cfg.SessionIdleTimeout,
	})
	tokens := session.NewTokenStore(sessionManager)
	forms := session.NewForms(sessionManager)

	renderer, err := render.New(render.Config{
		TemplatesFS:    web.Templates(),
		SessionManager: sessionManager,
		Location:       loc,
		AssetURL:       web.AssetURL,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	cards := listing.NewCards(loc, listing.NewContentRenderer())

	// Login protection, optionally sharing its IP limit through Redis
	lpConfig := middleware.DefaultLoginProtectionConfig()
	if cfg.UseRedis() {
		redisOpts := middleware.DefaultRedisLimiterOptions()
		redisOpts.URL = cfg.RedisURL
		redisLimiter, err := middleware.NewRedisLimiter(redisOpts)
		if err != nil {
			slog.Warn("redis unavailable, login rate limit stays per instance", "error", err)
		} else {
			defer func() { _ = redisLimiter.Close() }()
			lpConfig.Shared = redisLimiter
			slog.Info("shared login rate limit enabled", "prefix", redisOpts.Prefix)
		}
	}
	loginProtection := middleware.NewLoginProtection(lpConfig)
	defer loginProtection.Close()
	slog.Info("login protection initialized",
		"ip_rate_limit", "0.5 req/s",
		"max_failed_attempts", lpConfig.MaxFailedAttempts,
		"lockout_duration", lpConfig.LockoutDuration,
	)

	// Backend probe
	sched := scheduler.New(logger)
	var probe *scheduler.BackendProbe
	if cfg.ProbeEnabled() {
		probe = scheduler.NewBackendProbe(client, probePaths, cfg.APITimeout, logger)
		if err := sched.AddProbe(cfg.ProbeSchedule, probe); err != nil {
			return fmt.Errorf("scheduling backend probe: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		slog.Info("backend probe scheduled", "schedule", cfg.ProbeSchedule)
	} else {
		slog.Info("backend probe disabled")
	}

	publicHandler := handler.NewPublicHandler(client, renderer, cards, cfg.NewsRecent)
	authHandler := handler.NewAuthHandler(client, renderer, tokens, loginProtection)
	adminCfg := handler.AdminConfig{
		Client:   client,
		Kinds:    kinds,
		Renderer: renderer,
		Tokens:   tokens,
		Forms:    forms,
		Location: loc,
		Logs:     recentLogs,
	}
	var healthHandler *handler.HealthHandler
	if probe != nil {
		adminCfg.Probe = probe
		adminCfg.Jobs = sched.Registry()
		healthHandler = handler.NewHealthHandler(probe, versionInfo.Version)
	} else {
		healthHandler = handler.NewHealthHandler(nil, versionInfo.Version)
	}
	adminHandler := handler.NewAdminHandler(adminCfg)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5)) // Gzip compression with level 5
	r.Use(chimw.GetHead)     // Handle HEAD requests for uptime monitoring
	// Page deadline outlives two backend calls in a row.
	r.Use(middleware.Timeout(middleware.PageTimeout(cfg.APITimeout)))
	r.Use(middleware.StripTrailingSlash) // Redirect /path/ to /path (301)

	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())
	r.Use(middleware.SecurityHeaders(securityConfig))
	r.Use(middleware.RequestPath)

	// Every page load fans out to the backend
	publicRateLimiter := middleware.NewPageRateLimiter(10.0, 20)
	defer publicRateLimiter.Close()
	slog.Info("page rate limiter initialized", "rate", "10 req/s", "burst", 20)

	// Static assets are served before sessions and rate limiting
	r.With(middleware.StaticCache(365 * 24 * time.Hour)).
		Handle(web.StaticPrefix+"*", http.StripPrefix(web.StaticPrefix, http.FileServer(http.FS(web.Static()))))

	// Health checks skip rate limiting and CSRF; the session only decides
	// how much detail is shown.
	r.Group(func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Use(middleware.LoadAuth(tokens))
		registerHealthRoutes(r, healthHandler)
	})

	csrfConfig := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.ServerAddr(), cfg.PublicOrigins...)
	slog.Info("CSRF protection initialized", "trusted_origins", csrfConfig.TrustedOrigins)

	r.Group(func(r chi.Router) {
		r.Use(publicRateLimiter.Middleware())
		r.Use(sessionManager.LoadAndSave)
		r.Use(middleware.LoadAuth(tokens))
		r.Use(middleware.CSRF(csrfConfig))

		registerPublicRoutes(r, publicHandler)
		registerAuthRoutes(r, authHandler, loginProtection)

		r.Route(handler.RouteAdmin, func(r chi.Router) {
			r.Use(middleware.RequireToken(tokens))
			r.Use(middleware.NoStore)
			registerAdminRoutes(r, adminHandler)
		})

		r.NotFound(publicHandler.NotFound)
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      middleware.PageTimeout(cfg.APITimeout) + 10*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
