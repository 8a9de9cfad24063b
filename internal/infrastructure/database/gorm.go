package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Gorm dialect names accepted by OpenGorm.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// GormConfig selects and configures a gorm-managed store.
type GormConfig struct {
	// Dialect is "postgres" or "sqlite".
	Dialect string

	// DSN is the PostgreSQL connection string.
	DSN string

	// SQLite carries path and pragmas for the sqlite dialect.
	SQLite Config
}

// OpenGorm opens a gorm connection for the configured dialect and verifies it.
//
// Gorm's own logger is silenced; query failures surface as returned errors and
// are logged by the caller.
func OpenGorm(ctx context.Context, cfg GormConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Dialect {
	case DialectPostgres:
		dialector = postgres.Open(cfg.DSN)
	case DialectSQLite:
		if cfg.SQLite.Path != memoryPath {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), dirPermissions); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		dialector = sqlite.Open(connectionString(cfg.SQLite))
	default:
		return nil, fmt.Errorf("unsupported gorm dialect %q", cfg.Dialect)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", cfg.Dialect, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying connection: %w", err)
	}
	if cfg.Dialect == DialectSQLite && cfg.SQLite.Path == memoryPath {
		sqlDB.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying %s connection: %w", cfg.Dialect, err)
	}

	return gdb, nil
}

// CloseGorm closes the connection pool behind a gorm handle.
func CloseGorm(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("getting underlying connection: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// GormHealthCheck pings the pool behind gdb.
func GormHealthCheck(ctx context.Context, gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("database health check: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	return nil
}
