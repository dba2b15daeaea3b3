// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tcas-genius/tcas-genius-go/internal/advisor"
	"github.com/tcas-genius/tcas-genius-go/internal/buildinfo"
	"github.com/tcas-genius/tcas-genius-go/internal/config"
	"github.com/tcas-genius/tcas-genius-go/internal/genai"
	"github.com/tcas-genius/tcas-genius-go/internal/logger"
	"github.com/tcas-genius/tcas-genius-go/internal/metrics"
	"github.com/tcas-genius/tcas-genius-go/internal/r2client"
	"github.com/tcas-genius/tcas-genius-go/internal/ratelimit"
	"github.com/tcas-genius/tcas-genius-go/internal/sentry"
	"github.com/tcas-genius/tcas-genius-go/internal/session"
	"github.com/tcas-genius/tcas-genius-go/internal/snapshot"
	"github.com/tcas-genius/tcas-genius-go/internal/storage"
	"github.com/tcas-genius/tcas-genius-go/internal/web"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg           *config.Config
	logger        *logger.Logger
	db            *storage.DB
	metrics       *metrics.Metrics
	registry      *prometheus.Registry
	generator     *genai.FallbackGenerator
	advisor       *advisor.Service
	sessions      *session.Manager
	clientLimiter *ratelimit.KeyedLimiter
	snapshots     *snapshot.Manager // nil when R2 snapshots are disabled
	server        *http.Server
	wg            sync.WaitGroup // Track background goroutines for graceful shutdown
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	opts := logger.Options{}
	if cfg.BetterStack.Enabled {
		opts.BetterStackToken = cfg.BetterStack.Token
		opts.BetterStackEndpoint = cfg.BetterStack.Endpoint
	}
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, opts)
	log = log.WithField("service", "tcas-genius").WithField("instance_id", cfg.ServerName)

	// Package-level slog.*Context calls go through the ContextHandler,
	// which adds request and session IDs.
	slog.SetDefault(log.Logger)

	log.WithField("version", buildinfo.Release()).
		WithField("commit", buildinfo.Commit).
		WithField("build_date", buildinfo.BuildDate).
		Info("Initializing application...")
	if opts.BetterStackToken != "" {
		log.WithField("endpoint", cfg.BetterStack.Endpoint).Info("Better Stack logging enabled")
	}

	if cfg.Sentry.Enabled {
		release := cfg.Sentry.Release
		if release == "" {
			release = buildinfo.Release()
		}
		if err := sentry.Initialize(sentry.Config{
			DSN:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			Release:          release,
			ServerName:       cfg.ServerName,
			SampleRate:       cfg.Sentry.SampleRate,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			log.WithError(err).Warn("Sentry initialization failed")
		} else if sentry.IsEnabled() {
			log.WithField("environment", cfg.Sentry.Environment).Info("Sentry error tracking enabled")
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	var snapshots *snapshot.Manager
	if cfg.R2.Enabled {
		var err error
		if snapshots, err = newSnapshotManager(ctx, cfg, m); err != nil {
			return nil, fmt.Errorf("snapshots: %w", err)
		}
		restoreSnapshot(ctx, log, snapshots, cfg.SQLitePath())
	}

	db, err := storage.New(ctx, cfg.SQLitePath(), cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.WithField("path", cfg.SQLitePath()).WithField("cache_ttl", cfg.CacheTTL).Info("Database connected")

	llmCfg := BuildLLMConfig(cfg)
	generator, err := genai.CreateGenerator(ctx, llmCfg, m)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("llm: %w", err)
	}
	providers := llmCfg.ConfiguredProviders()
	providerNames := make([]string, len(providers))
	for i, p := range providers {
		providerNames[i] = p.String()
	}
	log.WithField("providers", providerNames).WithField("models", generator.Len()).Info("LLM providers enabled")

	adv := advisor.New(generator, db, m)
	sessions := session.NewManager(db, m)

	clientLimiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          "client",
		Burst:         cfg.RateLimit.ClientBurst,
		RefillRate:    cfg.RateLimit.ClientRefill,
		DailyLimit:    cfg.RateLimit.ClientDaily,
		CleanupPeriod: config.RateLimiterCleanupInterval,
		Metrics:       m,
	})
	globalLimiter := ratelimit.New(cfg.RateLimit.GlobalRPS, cfg.RateLimit.GlobalRPS)

	handler, err := web.NewHandler(web.HandlerConfig{
		Advisor:       adv,
		Sessions:      sessions,
		ClientLimiter: clientLimiter,
		GlobalLimiter: globalLimiter,
		Metrics:       m,
	})
	if err != nil {
		clientLimiter.Stop()
		_ = generator.Close()
		_ = db.Close()
		return nil, fmt.Errorf("web: %w", err)
	}

	app := &Application{
		cfg:           cfg,
		logger:        log,
		db:            db,
		metrics:       m,
		registry:      registry,
		generator:     generator,
		advisor:       adv,
		sessions:      sessions,
		clientLimiter: clientLimiter,
		snapshots:     snapshots,
	}

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.newRouter(handler),
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// newRouter builds the gin engine: operational endpoints plus the web UI.
func (a *Application) newRouter(handler *web.Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sentry.Middleware())
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.logger))
	router.Use(httpMetricsMiddleware(a.metrics))

	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	router.GET("/metrics",
		metricsAuthMiddleware(a.cfg.Metrics.AuthEnabled, a.cfg.Metrics.Username, a.cfg.Metrics.Password),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	handler.Register(router)
	return router
}

func newSnapshotManager(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*snapshot.Manager, error) {
	client, err := r2client.New(ctx, r2client.Config{
		Endpoint:        r2client.EndpointForAccount(cfg.R2.AccountID),
		AccessKeyID:     cfg.R2.AccessKeyID,
		SecretAccessKey: cfg.R2.SecretAccessKey,
		BucketName:      cfg.R2.BucketName,
	})
	if err != nil {
		return nil, err
	}
	return snapshot.New(client, snapshot.Config{
		SnapshotKey: cfg.R2.SnapshotKey,
		Interval:    cfg.R2.UploadInterval,
		TempDir:     cfg.DataDir,
	}, m), nil
}

// restoreSnapshot seeds an empty data directory from the latest snapshot.
// Failures only cost a cold cache, so they are logged and ignored.
func restoreSnapshot(ctx context.Context, log *logger.Logger, snapshots *snapshot.Manager, dbPath string) {
	restored, err := snapshots.Restore(ctx, dbPath)
	switch {
	case err != nil:
		log.WithError(err).Warn("Snapshot restore failed; starting with an empty cache")
	case restored:
		log.WithField("path", dbPath).Info("Database restored from snapshot")
	default:
		log.Debug("Snapshot restore skipped")
	}
}

// BuildLLMConfig maps the environment LLM settings onto the generator chain
// configuration, keeping the configured provider order.
func BuildLLMConfig(cfg *config.Config) genai.LLMConfig {
	llmCfg := genai.LLMConfig{
		Gemini:   genai.ProviderConfig{APIKey: cfg.LLM.GeminiAPIKey, Models: cfg.LLM.GeminiModels},
		Groq:     genai.ProviderConfig{APIKey: cfg.LLM.GroqAPIKey, Models: cfg.LLM.GroqModels},
		Cerebras: genai.ProviderConfig{APIKey: cfg.LLM.CerebrasAPIKey, Models: cfg.LLM.CerebrasModels},
		RetryConfig: genai.RetryConfig{
			MaxAttempts:  genai.DefaultMaxRetryAttempts,
			InitialDelay: config.LLMRetryInitial,
			MaxDelay:     config.LLMRetryMax,
		},
	}

	providers := make([]genai.Provider, 0, len(cfg.LLM.Providers))
	for _, p := range cfg.LLM.Providers {
		switch p {
		case config.ProviderGemini:
			providers = append(providers, genai.ProviderGemini)
		case config.ProviderGroq:
			providers = append(providers, genai.ProviderGroq)
		case config.ProviderCerebras:
			providers = append(providers, genai.ProviderCerebras)
		default:
			slog.Warn("ignoring unknown provider", "name", p)
		}
	}
	if len(providers) > 0 {
		llmCfg.Providers = providers
	}

	return llmCfg
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.ReadinessCheck)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: database unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"database": "connected",
		"cache":    a.getCacheStats(ctx),
		"version":  buildinfo.Release(),
		"features": gin.H{
			"llm_models":    a.generator.Len(),
			"snapshots":     a.snapshots != nil,
			"snapshot_etag": a.snapshots.LastETag(),
			"warmup":        a.cfg.Warmup.Enabled,
		},
	})
}

func (a *Application) getCacheStats(ctx context.Context) map[string]int {
	stats := make(map[string]int)

	if count, err := a.db.CountResponses(ctx); err == nil {
		stats["ai_responses"] = count
	} else {
		a.logger.WithError(err).Warn("Failed to count cached responses")
	}
	if count, err := a.db.CountSessions(ctx); err == nil {
		stats["sessions"] = count
	} else {
		a.logger.WithError(err).Warn("Failed to count sessions")
	}

	return stats
}

// Run starts the HTTP server and background jobs, then blocks until
// SIGINT or SIGTERM.
//
// Background jobs are stopped and awaited before resources close, so a
// cleanup or snapshot never runs against a closed database.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)
	serverErr := a.startHTTPServer()

	select {
	case sig := <-a.waitForShutdownSignal():
		a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErr:
		a.logger.WithError(err).Error("HTTP server stopped unexpectedly")
	}

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return a.shutdown()
}

// startHTTPServer starts the HTTP server in a goroutine. The returned
// channel receives the error if the server fails to serve.
func (a *Application) startHTTPServer() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

// waitForShutdownSignal returns a channel that receives SIGINT/SIGTERM.
func (a *Application) waitForShutdownSignal() <-chan os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return quit
}

// shutdown stops the HTTP server, waits for in-flight requests (including
// open chat streams), then closes resources.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.logger.Info("Closing resources...")

	if err := a.generator.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "llm").Error("Component close error")
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "database").Error("Component close error")
	}

	a.clientLimiter.Stop()

	if sentry.IsEnabled() && !sentry.Flush(5*time.Second) {
		a.logger.Warn("Sentry flush timed out")
	}

	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}

	a.logger.Info("Shutdown complete")
	return nil
}
