// Package main serves the delve dungeon over Telnet. Each connection plays its
// own game; saves go to files or PostgreSQL depending on configuration.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/content"
	"github.com/cory-johannsen/delve/internal/config"
	"github.com/cory-johannsen/delve/internal/frontend/handlers"
	"github.com/cory-johannsen/delve/internal/frontend/telnet"
	"github.com/cory-johannsen/delve/internal/game/command"
	"github.com/cory-johannsen/delve/internal/game/dice"
	"github.com/cory-johannsen/delve/internal/game/engine"
	"github.com/cory-johannsen/delve/internal/game/spawner"
	"github.com/cory-johannsen/delve/internal/observability"
	"github.com/cory-johannsen/delve/internal/savegame"
	"github.com/cory-johannsen/delve/internal/server"
	"github.com/cory-johannsen/delve/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "delve")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	lifecycle := server.NewLifecycle(logger)

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Telemetry)
	if err != nil {
		logger.Fatal("setting up tracing", zap.Error(err))
	}
	lifecycle.AddCleanup("tracing", server.CleanupFunc(shutdownTracing))

	catalog, err := loadCatalog(cfg.Game.ContentDir)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.String("content_dir", cfg.Game.ContentDir),
		zap.Int("monsters", len(catalog.Monsters)),
		zap.Int("items", len(catalog.Items)),
	)

	store, err := openStore(ctx, cfg, lifecycle, logger)
	if err != nil {
		logger.Fatal("opening save store", zap.Error(err))
	}

	newGame := func(_ context.Context, slot string) (*engine.Game, error) {
		return engine.New(engine.Config{
			MapWidth:         cfg.Game.MapWidth,
			MapHeight:        cfg.Game.MapHeight,
			DiagonalMovement: cfg.Game.DiagonalMovement,
			Slot:             slot,
			Spawn: spawner.Config{
				MonstersPerRoom: cfg.Game.MonstersPerRoom,
				ItemsPerRoom:    cfg.Game.ItemsPerRoom,
				ViewRange:       cfg.Game.ViewRange,
			},
			Tracer: observability.Tracer("engine"),
		}, catalog, dice.NewLoggedRoller(randomSource(cfg.Game.Seed), logger), store, logger.With(zap.String("slot", slot)))
	}

	sessions := handlers.NewSessionHandler(newGame, command.DefaultRegistry(), cfg.Saves.Slot, logger)
	acceptor := telnet.NewAcceptor(cfg.Telnet, sessions, logger)
	lifecycle.Add("telnet", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})

	logger.Info("delve initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.String("saves_backend", cfg.Saves.Backend),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func loadCatalog(dir string) (*spawner.Catalog, error) {
	if dir == "" {
		return spawner.LoadCatalog(content.FS)
	}
	return spawner.LoadCatalogDir(dir)
}

// randomSource is deterministic when seed is non-zero.
func randomSource(seed uint64) dice.Source {
	if seed != 0 {
		return dice.NewSeededSource(seed)
	}
	return dice.NewCryptoSource()
}

func openStore(ctx context.Context, cfg config.Config, lifecycle *server.Lifecycle, logger *zap.Logger) (savegame.Store, error) {
	switch cfg.Saves.Backend {
	case config.BackendFile:
		store, err := savegame.NewFileStore(cfg.Saves.Dir)
		if err != nil {
			return nil, err
		}
		logger.Info("saving to files", zap.String("dir", cfg.Saves.Dir))
		return store, nil
	case config.BackendPostgres:
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Name),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		if err := pool.CheckSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		lifecycle.Add("postgres", healthService(pool, logger))
		lifecycle.AddCleanup("postgres", func(context.Context) error {
			pool.Close()
			return nil
		})
		return postgres.NewSaveRepository(pool.DB()), nil
	default:
		return nil, fmt.Errorf("unknown saves backend %q", cfg.Saves.Backend)
	}
}

// healthService pings the database every 30s until stopped.
func healthService(pool *postgres.Pool, logger *zap.Logger) server.Service {
	stop := make(chan struct{})
	return &server.FuncService{
		StartFn: func() error {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return nil
				case <-ticker.C:
					if err := pool.Health(context.Background(), 5*time.Second); err != nil {
						logger.Warn("database health check failed", zap.Error(err))
					}
				}
			}
		},
		StopFn: func() { close(stop) },
	}
}
