// Command server runs the conversation backend: a multi-chat AI assistant
// API with automatic conversation titling.
//
// Startup order: env → config → logger → tracing → database → AI gateway →
// HTTP router → serve. Shutdown drains in-flight requests before closing the
// tracer provider.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/converseai/converse-backend/internal/ai"
	"github.com/converseai/converse-backend/internal/config"
	httpapi "github.com/converseai/converse-backend/internal/http"
	"github.com/converseai/converse-backend/internal/observability"
	"github.com/converseai/converse-backend/internal/repo"
	"github.com/converseai/converse-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

// gatewayConfig maps the env-driven AI settings onto the gateway client
// config. Sampling knobs narrow from float64 to the float32 the provider
// API takes.
func gatewayConfig(cfg config.Config) ai.Config {
	return ai.Config{
		APIKey:        cfg.AI.APIKey,
		BaseURL:       cfg.AI.BaseURL,
		Model:         cfg.AI.Model,
		Timeout:       cfg.AI.Timeout,
		ContextWindow: cfg.AI.ContextWindow,
		Temperature:   float32(cfg.AI.Temperature),
		TopP:          float32(cfg.AI.TopP),
		MaxTokens:     cfg.AI.MaxTokens,
	}
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()
	shutdownTracing, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database open failed")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Warn().Err(err).Msg("database tracing disabled")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	gw, err := ai.NewClient(gatewayConfig(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("ai gateway setup failed")
	}
	titler := ai.NewTitler(gw)

	r := gin.New()
	httpapi.RegisterRoutes(r, db, gw, titler, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracer shutdown failed")
	}
	log.Info().Msg("server stopped")
}
