package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/graph"
	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/model"
	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/repo"
	"github.com/Chative-core-poc-v1/commerce-agent/internal/catalog"
	"github.com/Chative-core-poc-v1/commerce-agent/internal/core"
	"github.com/Chative-core-poc-v1/commerce-agent/internal/httpapi"
	logx "github.com/Chative-core-poc-v1/commerce-agent/pkg/logger"
	pkgredis "github.com/Chative-core-poc-v1/commerce-agent/pkg/redis"
)

// AppConfig defines all configurable parameters of the service,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string           `envconfig:"LOG_LEVEL"`
	HTTPAddr    string           `envconfig:"HTTP_ADDR" default:":5000"`

	// Infrastructure
	Redis   pkgredis.Config
	Session model.SessionConfig
	Catalog catalog.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Classifier   model.ClassifierModelConfig
	Extractor    model.ExtractorModelConfig
	Response     model.ResponseModelConfig
	LLM          model.LLMConfig
	Prompt       model.PromptConfig
	Conversation model.ConversationConfig
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}
	logx.Init(logx.LoggerOpts{Environment: envCfg.Environment, Level: envCfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, closeSessions, err := newSessionRepository(ctx, envCfg)
	if err != nil {
		logx.Fatal().Err(err).Str("backend", envCfg.Session.Backend).Msg("Failed to initialise session store")
	}
	defer closeSessions()

	db, err := envCfg.Catalog.Open(ctx)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to open catalog")
	}
	store, err := catalog.Load(ctx, db)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to load catalog")
	}
	if sqlDB, err := db.DB(); err == nil {
		// the store is fully in memory from here on
		_ = sqlDB.Close()
	}

	runner, err := graph.BuildTurnGraph(ctx, graph.Config{
		APIKey:       envCfg.APIKey,
		BaseURL:      envCfg.BaseURL,
		Classifier:   envCfg.Classifier,
		Extractor:    envCfg.Extractor,
		Response:     envCfg.Response,
		LLM:          envCfg.LLM,
		Prompt:       envCfg.Prompt,
		Conversation: envCfg.Conversation,
		SessionRepo:  sessions,
		Resolver:     catalog.NewResolver(store),
		Categories:   store.Categories(),
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build graph")
	}

	if envCfg.Environment.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              envCfg.HTTPAddr,
		Handler:           httpapi.NewRouter(runner),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logx.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logx.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), envCfg.LLM.Timeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func newSessionRepository(ctx context.Context, cfg AppConfig) (model.SessionRepository, func(), error) {
	switch strings.ToLower(cfg.Session.Backend) {
	case "redis":
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			return nil, nil, err
		}
		logx.Info().Msg("Connected to Redis successfully")
		return repo.NewRedisSessionRepository(rdb, cfg.Session.TTL), func() { _ = rdb.Close() }, nil
	case "file":
		logx.Info().Str("path", cfg.Session.File).Msg("Using file session store")
		return repo.NewFileSessionRepository(cfg.Session.File), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}
