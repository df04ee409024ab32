package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lazypower/verdict/internal/config"
	"github.com/lazypower/verdict/internal/engine"
	"github.com/lazypower/verdict/internal/logging"
	"github.com/lazypower/verdict/internal/store"
)

// app bundles what every command needs: config, logger, store and engine.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	db     *store.DB
	engine *engine.Engine
}

func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return config.Config{}, err
		}
	}
	return config.Load(path)
}

// openApp loads configuration, opens the database and builds the engine.
// The caller must Close the returned app.
func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	eng := engine.New(db, engine.Options{
		Logger:          logger,
		ConflictWorkers: cfg.Engine.ConflictWorkers,
		DefaultLimit:    cfg.Engine.DefaultLimit,
		Cache:           engine.NewSearchCache(cfg.Engine.CacheSize, cfg.Engine.CacheTTL),
	})

	return &app{cfg: cfg, logger: logger, db: db, engine: eng}, nil
}

func (a *app) Close() {
	a.db.Close()
	a.logger.Sync()
}
