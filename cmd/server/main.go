package main

import (
	"context"
	"log"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/steprace/backend/internal/config"
	"github.com/steprace/backend/internal/httpapi"
	"github.com/steprace/backend/internal/hub"
	"github.com/steprace/backend/internal/logging"
	"github.com/steprace/backend/internal/room"
	"github.com/steprace/backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	var lb *storage.Leaderboard
	var recorder room.Recorder
	if cfg.Redis.Addr != "" {
		lb = storage.NewLeaderboard(redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr}))
		recorder = lb
		logger.Info("leaderboard enabled", zap.String("redis", cfg.Redis.Addr))
	}

	ctx := context.Background()
	h := hub.NewHub(ctx, cfg.Game.Settings(), logger, recorder)

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(logger, h, lb)

	logger.Info("listening",
		zap.String("addr", cfg.Server.Addr),
		zap.Int("goal", cfg.Game.Goal),
		zap.Ints("choices", cfg.Game.Choices),
		zap.Int("roster_size", cfg.Game.RosterSize))
	if err := http.ListenAndServe(cfg.Server.Addr, handler); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
