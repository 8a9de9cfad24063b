// Bakery API - read-only JSON service over bakeries and their baked goods.
//
// This is the main entry point. It loads configuration, opens the configured
// store (SQLite with embedded migrations, or gorm over SQLite/PostgreSQL),
// and serves the HTTP API until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/bakery-api/migrations"

	"github.com/nerrad567/bakery-api/internal/api"
	"github.com/nerrad567/bakery-api/internal/bakery"
	"github.com/nerrad567/bakery-api/internal/infrastructure/config"
	"github.com/nerrad567/bakery-api/internal/infrastructure/database"
	"github.com/nerrad567/bakery-api/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Bakery API",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.LoadOptional(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath, "driver", cfg.Database.Driver)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	repo, health, closeStore, err := openStore(ctx, cfg, log.Component("store"))
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database")
		if closeErr := closeStore(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	server, err := api.New(api.Deps{
		Config:  cfg.API,
		Tracing: cfg.Tracing,
		Logger:  log,
		Repo:    repo,
		Health:  health,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("Bakery API started", "address", server.Addr())

	<-ctx.Done()
	log.Info("shutdown signal received")
	return nil
}

// openStore connects the configured backend and returns its repository,
// health checker and close function.
func openStore(ctx context.Context, cfg *config.Config, log *logging.Logger) (bakery.Repository, api.HealthChecker, func() error, error) {
	switch cfg.Database.Driver {
	case config.DriverGormSQLite, config.DriverPostgres:
		gcfg := database.GormConfig{
			Dialect: database.DialectPostgres,
			DSN:     cfg.Database.DSN,
		}
		if cfg.Database.Driver == config.DriverGormSQLite {
			gcfg = database.GormConfig{
				Dialect: database.DialectSQLite,
				SQLite: database.Config{
					Path:        cfg.Database.Path,
					WALMode:     cfg.Database.WALMode,
					BusyTimeout: cfg.Database.BusyTimeout,
				},
			}
		}

		gdb, err := database.OpenGorm(ctx, gcfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening database: %w", err)
		}
		repo := bakery.NewGormRepository(gdb)
		if err := repo.AutoMigrate(ctx); err != nil {
			_ = database.CloseGorm(gdb)
			return nil, nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		log.Info("database connected", "driver", cfg.Database.Driver)

		health := api.HealthCheckFunc(func(ctx context.Context) error {
			return database.GormHealthCheck(ctx, gdb)
		})
		return repo, health, func() error { return database.CloseGorm(gdb) }, nil

	default:
		db, err := database.Open(ctx, database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening database: %w", err)
		}
		log.Info("database connected", "path", db.Path())

		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		schemaVersion, err := db.SchemaVersion(ctx)
		if err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		log.Info("database migrations complete", "schema_version", schemaVersion)

		return bakery.NewSQLiteRepository(db.DB), db, db.Close, nil
	}
}

// getConfigPath returns the configuration file path.
// Uses BAKERY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("BAKERY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
