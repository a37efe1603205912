package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/octadion/rag/internal/api"
	"github.com/octadion/rag/internal/auth"
	"github.com/octadion/rag/internal/config"
	"github.com/octadion/rag/internal/core"
	"github.com/octadion/rag/internal/ingest"
	"github.com/octadion/rag/internal/llm"
	"github.com/octadion/rag/internal/store"
	"github.com/octadion/rag/internal/vector"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		zap.NewExample().Fatal("loading config", zap.Error(err))
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		zap.NewExample().Fatal("building logger", zap.Error(err))
	}
	defer logger.Sync()

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}

	st, err := store.New(db)
	if err != nil {
		logger.Fatal("initializing store", zap.Error(err))
	}

	vectors := vector.NewManager(logger)
	llms := llm.NewFactory(cfg, logger)
	ingestor := ingest.NewIngestor(logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret)

	openRetriever := func(location string, embed vector.EmbedFunc) (core.Retriever, error) {
		return vectors.Open(location, embed)
	}

	factory := llmFactoryAdapter{llms}

	assistants := core.NewAssistantService(st, vectors, factory, ingestor, cfg.Storage.DataDir, logger)
	queries := core.NewQueryService(st, openRetriever, factory, logger)
	handler := api.NewAPIHandler(assistants, queries, tokens, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

// llmFactoryAdapter bridges the llm package's named interface return types
// to the core package's structurally identical ones.
type llmFactoryAdapter struct{ f *llm.Factory }

func (a llmFactoryAdapter) Generator(provider, model string) (core.Generator, error) {
	return a.f.Generator(provider, model)
}

func (a llmFactoryAdapter) Embedder(provider, model string) (core.Embedder, error) {
	return a.f.Embedder(provider, model)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
