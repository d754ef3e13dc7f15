// Package app assembles the server from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/chess960-arena/internal/config"
	"github.com/park285/chess960-arena/internal/engine"
	"github.com/park285/chess960-arena/internal/httpapi"
	"github.com/park285/chess960-arena/internal/msgcat"
	"github.com/park285/chess960-arena/internal/obslog"
	"github.com/park285/chess960-arena/internal/pvpchan"
	"github.com/park285/chess960-arena/internal/pvpchess"
	"github.com/park285/chess960-arena/internal/watch"
	"go.uber.org/zap"
)

type Deps struct {
	Config  *config.AppConfig
	Catalog *msgcat.Catalog
	PvP     *pvpchess.Manager
	Lobby   *pvpchan.Manager
	Repo    *pvpchess.Repository
	API     *httpapi.Server
	Watch   *watch.Server
}

// New builds every component. Redis is required; Postgres is used only when
// DATABASE_URL is set.
func New(ctx context.Context, cfg *config.AppConfig) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	pvp, err := pvpchess.NewManager(cfg.RedisURL,
		pvpchess.WithTTL(cfg.GameTTL()),
		pvpchess.WithCatalog(cat),
		pvpchess.WithEngineOptions(engine.WithLogger(obslog.L().Named("engine"))),
	)
	if err != nil {
		return nil, fmt.Errorf("init pvp manager: %w", err)
	}
	d := &Deps{Config: cfg, Catalog: cat, PvP: pvp}

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		repo, err := pvpchess.NewRepository(cfg.DatabaseURL)
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("init repository: %w", err)
		}
		d.Repo = repo
		mctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = repo.Migrate(mctx)
		cancel()
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		pvp.AttachRepository(repo)
	} else {
		obslog.L().Warn("app_no_database", zap.String("hint", "results are not persisted without DATABASE_URL"))
	}

	d.Lobby = pvpchan.NewManager(pvp.Client(), pvp)
	d.API = httpapi.New(pvp, d.Lobby, httpapi.WithRoomFilter(cfg.RoomAllowed))
	if cfg.WatchEnabled() {
		d.Watch = watch.New(pvp, watch.WithOriginPatterns(cfg.WatchOrigins...))
	}
	return d, nil
}

// Run serves the API, and the watch feed when enabled, until ctx ends or a
// listener fails. Servers get shutdownTimeout to drain.
func (d *Deps) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 2)
	go func() { errCh <- d.API.ListenAndServe(d.Config.HTTPAddr) }()
	if d.Watch != nil {
		go func() { errCh <- d.Watch.ListenAndServe(d.Config.WatchAddr) }()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		obslog.L().Error("app_listener_failed", zap.Error(runErr))
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	errs := []error{runErr, d.API.Shutdown(sctx)}
	if d.Watch != nil {
		errs = append(errs, d.Watch.Shutdown(sctx))
	}
	obslog.L().Info("app_stopped")
	return errors.Join(errs...)
}

func (d *Deps) Close() error {
	var errs []error
	if d.Repo != nil {
		errs = append(errs, d.Repo.Close())
	}
	if d.PvP != nil {
		errs = append(errs, d.PvP.Close())
	}
	return errors.Join(errs...)
}
