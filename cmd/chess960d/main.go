package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/chess960-arena/internal/app"
	appcfg "github.com/park285/chess960-arena/internal/config"
	"github.com/park285/chess960-arena/internal/obslog"
	"go.uber.org/zap"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = obslog.L().Sync() }()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}
	defer func() { _ = deps.Close() }()

	obslog.L().Info("chess960d_start",
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("watch_addr", cfg.WatchAddr),
		zap.Int("allowed_rooms", len(cfg.AllowedRooms)),
		zap.Bool("persist", deps.Repo != nil),
	)
	if err := deps.Run(ctx, 10*time.Second); err != nil {
		obslog.L().Error("chess960d_exit", zap.Error(err))
	}
}
