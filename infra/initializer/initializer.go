package initializer

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/amirasaad/onlinebank/infra"
	"github.com/amirasaad/onlinebank/infra/memory"
	infra_repository "github.com/amirasaad/onlinebank/infra/repository"
	"github.com/amirasaad/onlinebank/pkg/accountnumber"
	"github.com/amirasaad/onlinebank/pkg/config"
	"github.com/amirasaad/onlinebank/pkg/currency"
	"gorm.io/gorm"
)

// InitializeDependencies wires the store selected by cfg.Store and returns the
// dependencies with a cleanup function releasing them.
func InitializeDependencies(cfg *config.App, logOutput io.Writer) (
	deps *config.Deps,
	cleanup func(),
	err error,
) {
	logger := SetupLogger(logOutput, cfg.Log)
	registry := currency.Default()
	deps = &config.Deps{
		CurrencyRegistry: registry,
		NumberGenerator:  accountnumber.NewRandom(registry),
		Logger:           logger,
		Config:           cfg,
	}
	cleanup = func() {}

	switch cfg.Store {
	case "memory":
		logger.Info("Using in-memory store")
		deps.Uow = memory.NewUoW(memory.NewStore())
	case "postgres":
		db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
		if err != nil {
			logger.Error("Failed to initialize database", "error", err)
			return nil, nil, err
		}
		cleanup = closeDB(db, logger)
		if cfg.DB.MigrateOnStart {
			if err := infra.RunMigrations(db); err != nil {
				cleanup()
				return nil, nil, err
			}
			logger.Info("Database migrations applied")
		}
		deps.Uow = infra_repository.NewUoW(db)
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
	return deps, cleanup, nil
}

func closeDB(db *gorm.DB, logger *slog.Logger) func() {
	return func() {
		sqlDB, err := db.DB()
		if err != nil {
			return
		}
		if err := sqlDB.Close(); err != nil {
			logger.Warn("Failed to close database", "error", err)
		}
	}
}
