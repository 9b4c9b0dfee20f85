package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"citabot/internal/config"
	"citabot/internal/core"
	"citabot/internal/db"
	httpserver "citabot/internal/http"
	"citabot/internal/llm"

	_ "github.com/lib/pq"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	dbConn, err := db.Open(ctx, cfg.DatabaseURL, db.RetryPolicy{
		Attempts:  cfg.DBConnectAttempts,
		BaseDelay: cfg.DBConnectDelay,
	}, logger)
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}
	defer dbConn.Close()

	if err := db.Migrate(ctx, dbConn); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	repo := db.NewRepository(dbConn)
	llmClient := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	matcher := core.NewMatcher(llmClient, repo, logger)
	engine := core.NewEngine(repo, matcher, repo, repo, logger, cfg.CollaboratorTimeout)
	sessions := core.NewSessionStore()

	srv := httpserver.NewServer(sessions, engine, repo, logger)
	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, srv.Router(cfg.CORSOrigins)); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
