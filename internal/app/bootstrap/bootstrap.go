package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"crossvote/engine"
	"crossvote/engine/adapters/memory"
	postgresadapter "crossvote/engine/adapters/postgres"
	"crossvote/engine/domain/entities"
	"crossvote/engine/application/workers"
	"crossvote/internal/platform/config"
	"crossvote/internal/platform/db"
	"crossvote/internal/platform/httpserver"
	"crossvote/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres  *db.Postgres
	scheduler *workers.Scheduler
	logger    *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	module := buildEngineModule(pg, cfg, logger)
	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	module := buildEngineModule(pg, cfg, logger)
	return &WorkerApp{
		postgres: pg,
		scheduler: &workers.Scheduler{
			Entitlements: module.EntitlementExpirer,
			Pins:         module.PinExpirer,
			Interval:     cfg.SweepInterval,
			Logger:       logger,
		},
		logger: logger,
	}, nil
}

func buildEngineModule(pg *db.Postgres, cfg config.Config, logger *slog.Logger) engine.Module {
	repo := postgresadapter.NewRepository(pg.DB, logger)
	bus := messaging.NewBus(logger)
	return engine.NewModule(engine.Dependencies{
		Posts:          repo,
		Links:          repo,
		Votes:          repo,
		Bans:           repo,
		Entitlements:   repo,
		Quotas:         repo,
		Pins:           repo,
		Spaces:         repo,
		Markers:        repo,
		// The messaging platform is an external collaborator owned by the bot
		// gateway; the in-process adapters implement its transport and
		// notifier ports here.
		Transport:      memory.NewTransport(),
		Notifier:       memory.NewNotifier(),
		Publisher:      bus,
		Clock:          postgresadapter.SystemClock{},
		IDGen:          postgresadapter.UUIDGenerator{},
		DailyLimit:     cfg.DailyPostLimit,
		PinDuration:    cfg.PinDuration,
		FallbackSpaces: fallbackSpaces(cfg.LinkedSpaces),
		Logger:         logger,
	})
}

// fallbackSpaces turns "spaceID:channelID" config entries into replication
// destinations. Entries without a channel are skipped: a destination the
// transport cannot post into is not a destination.
func fallbackSpaces(entries []string) []entities.SpaceSettings {
	var spaces []entities.SpaceSettings
	for _, entry := range entries {
		spaceID, channelID, found := strings.Cut(strings.TrimSpace(entry), ":")
		if !found || spaceID == "" || channelID == "" {
			continue
		}
		spaces = append(spaces, entities.SpaceSettings{
			SpaceID:       spaceID,
			PostChannelID: channelID,
		})
	}
	return spaces
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	w.scheduler.Start(ctx)
	<-ctx.Done()
	return nil
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
