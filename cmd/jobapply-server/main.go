// Package main provides the entry point for the job-apply service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/patrykgolabek/jobapply/internal/auth"
	"github.com/patrykgolabek/jobapply/internal/config"
	"github.com/patrykgolabek/jobapply/internal/cover"
	"github.com/patrykgolabek/jobapply/internal/dedup"
	"github.com/patrykgolabek/jobapply/internal/httpapi"
	"github.com/patrykgolabek/jobapply/internal/httpmw"
	"github.com/patrykgolabek/jobapply/internal/llm"
	"github.com/patrykgolabek/jobapply/internal/logging"
	"github.com/patrykgolabek/jobapply/internal/orchestrator"
	"github.com/patrykgolabek/jobapply/internal/pdftext"
	"github.com/patrykgolabek/jobapply/internal/platform"
	"github.com/patrykgolabek/jobapply/internal/platform/genericats"
	"github.com/patrykgolabek/jobapply/internal/render"
	"github.com/patrykgolabek/jobapply/internal/resume"
	"github.com/patrykgolabek/jobapply/internal/session"
	"github.com/patrykgolabek/jobapply/internal/shutdown"
	"github.com/patrykgolabek/jobapply/internal/store"
	"github.com/patrykgolabek/jobapply/internal/version"
)

func main() {
	cfg := config.Load()
	logger := logging.SetDefault()

	logger.Info("starting job-apply server",
		"version", version.Get().Version,
		"port", cfg.Port,
		"max_concurrent_applies", cfg.MaxConcurrentApplies,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.New(cfg.DatabasePath, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	contextManager := platform.NewContextManager(cfg, logger)
	defer contextManager.Close()
	go contextManager.StartIdleReaper(ctx)

	platforms := platform.NewRegistry()
	if cfg.GenericATSLoginURL != "" {
		atsCfg := genericats.Config{
			Key:         cfg.GenericATSKey,
			LoginURL:    cfg.GenericATSLoginURL,
			SearchURL:   cfg.GenericATSSearchURL,
			FormTimeout: cfg.ATSFormFillTimeout,
		}
		candidate := cfg.CandidateProfile()
		err := platforms.RegisterBrowserPlatform(cfg.GenericATSKey, cfg.GenericATSKey, []string{"apply"}, func() platform.BrowserPlatform {
			return genericats.New(atsCfg, contextManager, candidate, logger)
		})
		if err != nil {
			logger.Error("failed to register generic ATS adapter", "error", err)
			os.Exit(1)
		}
		logger.Info("generic ATS adapter registered", "key", cfg.GenericATSKey)
	} else {
		logger.Warn("no job board configured - set GENERIC_ATS_LOGIN_URL to enable applying")
	}

	dedupOracle := dedup.New(db)
	resumeResolver := resume.New(db, cfg.CandidateResumePath, logger)
	invoker := llm.New(cfg.LLMCommand, cfg.LLMModel, cfg.LLMTimeout, cfg.LLMBreakerMaxFail)

	renderer := render.New(func(ctx context.Context) (render.PagePrinter, error) {
		page, err := contextManager.Acquire(ctx, "render")
		if err != nil {
			return nil, err
		}
		return &render.RodPagePrinter{Page: page}, nil
	})

	resumePipeline := resume.NewPipeline(pdftext.ExtractText, invoker, renderer, db, cfg.TailoredResumesDir, logger)
	coverPipeline := cover.New(pdftext.ExtractText, invoker, renderer, db, cfg.TailoredResumesDir, logger)

	applyRegistry := session.NewRegistry()
	orch := orchestrator.New(
		applyRegistry,
		db,
		dedupOracle,
		resumeResolver,
		platforms,
		db,
		db,
		cfg.MaxConcurrentApplies,
		cfg.EventQueueCapacity,
		cfg.ConfirmTimeout,
		logger,
	)

	applyHandler := httpapi.NewApplyHandler(orch, cfg.StreamKeepalive, logger)
	resumeHandler := httpapi.NewResumeHandler(resumePipeline, db, cfg.CandidateResumePath, cfg.CandidateProfile(), cfg.EventQueueCapacity, cfg.StreamKeepalive, logger)
	coverHandler := httpapi.NewCoverHandler(coverPipeline, db, cfg.CandidateResumePath, cfg.CandidateProfile(), cfg.EventQueueCapacity, cfg.StreamKeepalive, logger)

	var verifier *auth.Verifier
	if cfg.JWKSIssuer != "" {
		verifier = auth.NewVerifier(cfg.JWKSIssuer)
		logger.Info("dashboard JWT verification enabled", "issuer", cfg.JWKSIssuer)
	}
	authConfig := httpmw.AuthConfig{
		Verifier:             verifier,
		SharedSecret:         cfg.DashboardSharedSecret,
		AllowUnauthenticated: cfg.AllowUnauthenticated,
		Logger:               logger,
	}
	authEnabled := verifier != nil || cfg.DashboardSharedSecret != ""
	if cfg.AllowUnauthenticated {
		logger.Warn("authentication disabled - ALLOW_UNAUTHENTICATED is set")
	} else if authEnabled {
		logger.Info("authentication middleware enabled", "has_jwks", verifier != nil, "has_shared_secret", cfg.DashboardSharedSecret != "")
	} else {
		logger.Warn("no authentication configured - service is unprotected")
	}

	idleMonitor := shutdown.NewIdleMonitor(shutdown.IdleMonitorConfig{
		Timeout: cfg.IdleTimeout,
		Logger:  logger,
	})
	idleMonitor.Start()
	defer idleMonitor.Stop()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// No blanket middleware.Timeout here, unlike the captcha server: apply
	// and tailoring runs legitimately stay open for minutes (ConfirmTimeout
	// plus form-fill time) and are streamed over SSE, so a fixed request
	// deadline would sever a still-healthy run.
	r.Use(idleMonitor.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	humaConfig := huma.DefaultConfig("Job Apply Service", version.Get().Version)
	humaConfig.Info.Description = "Concurrent job-application orchestrator with resume-tailoring and cover-letter generation pipelines."
	api := humachi.New(r, humaConfig)

	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"Health"},
	}, httpapi.Health)

	protectedRouter := chi.NewRouter()
	if authEnabled || cfg.AllowUnauthenticated {
		protectedRouter.Use(httpmw.Auth(authConfig))
	}
	protectedAPI := humachi.New(protectedRouter, humaConfig)

	huma.Register(protectedAPI, huma.Operation{
		OperationID: "startApply",
		Method:      http.MethodPost,
		Path:        "/jobs/{key}/apply",
		Summary:     "Start an apply attempt",
		Tags:        []string{"Apply"},
	}, applyHandler.StartApply)
	huma.Register(protectedAPI, huma.Operation{
		OperationID: "confirmApply",
		Method:      http.MethodPost,
		Path:        "/jobs/{key}/apply/confirm",
		Summary:     "Confirm an in-flight apply at its confirmation gate",
		Tags:        []string{"Apply"},
	}, applyHandler.ConfirmApply)
	huma.Register(protectedAPI, huma.Operation{
		OperationID: "cancelApply",
		Method:      http.MethodPost,
		Path:        "/jobs/{key}/apply/cancel",
		Summary:     "Cancel an in-flight apply",
		Tags:        []string{"Apply"},
	}, applyHandler.CancelApply)
	applyHandler.RegisterDocs(protectedAPI)

	huma.Register(protectedAPI, huma.Operation{
		OperationID: "startResumeTailor",
		Method:      http.MethodPost,
		Path:        "/jobs/{key}/tailor-resume",
		Summary:     "Start a resume-tailoring run",
		Tags:        []string{"Resume"},
	}, resumeHandler.StartTailor)

	huma.Register(protectedAPI, huma.Operation{
		OperationID: "startCoverLetter",
		Method:      http.MethodPost,
		Path:        "/jobs/{key}/cover-letter",
		Summary:     "Start a cover-letter generation run",
		Tags:        []string{"CoverLetter"},
	}, coverHandler.StartCoverLetter)

	protectedRouter.Get("/jobs/{key}/apply/stream", applyHandler.StreamApply)
	protectedRouter.Get("/jobs/{key}/tailor-resume/stream", resumeHandler.StreamTailor)
	protectedRouter.Get("/jobs/{key}/cover-letter/stream", coverHandler.StreamCoverLetter)

	r.Mount("/", protectedRouter)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.ATSFormFillTimeout + 120*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutdown signal received")
	case <-idleMonitor.ShutdownChan():
		logger.Info("idle shutdown triggered")
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}
