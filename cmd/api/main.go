// Package main is the entrypoint for the MemEmage API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mememage/mememage/internal/auth"
	"github.com/mememage/mememage/internal/compositor"
	"github.com/mememage/mememage/internal/config"
	"github.com/mememage/mememage/internal/events"
	"github.com/mememage/mememage/internal/handler"
	"github.com/mememage/mememage/internal/metrics"
	"github.com/mememage/mememage/internal/middleware"
	"github.com/mememage/mememage/internal/migrations"
	"github.com/mememage/mememage/internal/repository"
	"github.com/mememage/mememage/internal/router"
	"github.com/mememage/mememage/internal/server"
	"github.com/mememage/mememage/internal/service"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if err := migrations.Up(ctx, cfg.DatabaseURL); err != nil {
		logger.Error("failed to apply migrations",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		logger.Error("failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database", slog.Int("max_conns", int(cfg.DBMaxConns)))

	recorder, metricsExport := newMetrics(cfg)
	logger.Info("metrics enabled", slog.String("backend", cfg.MetricsBackend))

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		logger.Error("failed to create token service", "error", err)
		os.Exit(1)
	}

	raster, err := compositor.NewRaster()
	if err != nil {
		logger.Error("failed to initialise compositor", "error", err)
		os.Exit(1)
	}

	memesDir := filepath.Join(cfg.UploadDir, "memes")
	scratchDir := filepath.Join(cfg.UploadDir, "tmp")
	for _, dir := range []string{memesDir, scratchDir, cfg.TemplatesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create upload directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}
	templates := compositor.NewTemplateResolver(cfg.TemplatesDir, scratchDir, int(cfg.MaxRequestBodySize))

	// Activity events are optional.
	var (
		publisher   service.EventPublisher = events.Noop{}
		streamCheck handler.HealthChecker
		eventStream *events.Publisher
		closeRedis  func() error
	)
	if cfg.RedisEnabled() {
		client, err := events.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			os.Exit(1)
		}
		eventStream = events.NewPublisher(client, logger, recorder)
		publisher, streamCheck, closeRedis = eventStream, eventStream, client.Close
		logger.Info("publishing activity events", slog.String("stream", events.StreamKey))
	} else {
		logger.Info("activity events disabled")
	}

	authService := service.NewAuthService(repo, tokens, cfg.BcryptCost, publisher, recorder, logger)
	memeService := service.NewMemeService(repo, raster, templates, memesDir, publisher, recorder, logger)

	h := router.New(router.Deps{
		Logger:        logger,
		Metrics:       recorder,
		Tokens:        tokens,
		Auth:          handler.NewAuthHandler(authService, logger),
		Memes:         handler.NewMemeHandler(memeService, logger),
		Health:        handler.NewHealthHandler(version, repo, streamCheck, logger),
		MetricsExport: metricsExport,
		CORS:          corsConfig(cfg),
		Security:      middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()},
		MaxBodySize:   cfg.MaxRequestBodySize,
		UploadDir:     cfg.UploadDir,
		FrontendDir:   cfg.FrontendDir,
	})

	srv := server.New(h, server.Config{
		Addr:            cfg.Addr(),
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// LIFO: pending events flush before Redis closes, the pool closes last.
	srv.OnShutdown("database", func(ctx context.Context) error {
		repo.Close()
		return nil
	})
	if eventStream != nil {
		srv.OnShutdown("redis", func(ctx context.Context) error { return closeRedis() })
		srv.OnShutdown("events", eventStream.Wait)
	}

	logger.Info("starting server",
		"addr", cfg.Addr(),
		"env", cfg.AppEnv,
		"version", version,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newMetrics builds the configured recorder and the /metrics handler reading from it.
func newMetrics(cfg *config.Config) (metrics.Recorder, *handler.MetricsHandler) {
	if cfg.MetricsBackend == config.MetricsMemory {
		rec := metrics.NewInMemory()
		return rec, handler.NewMetricsHandler(nil, rec)
	}
	rec := metrics.NewPrometheus()
	return rec, handler.NewMetricsHandler(rec.Handler(), nil)
}

func corsConfig(cfg *config.Config) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	if origins := cfg.GetCORSAllowedOrigins(); origins != nil {
		c.AllowedOrigins = origins
	}
	return c
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
