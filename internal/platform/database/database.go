package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"github.com/phrazzld/service-scaffold/internal/config"
	"github.com/phrazzld/service-scaffold/internal/redact"
)

const (
	// connectionTimeout bounds the initial ping.
	connectionTimeout = 5 * time.Second

	dirPermissions = 0o750

	// memoryDB is the SQLite name for a private in-memory database.
	memoryDB = ":memory:"
)

// Open connects to the database described by cfg and verifies the connection.
// Connections are recycled after cfg.ConnMaxAge; zero keeps them forever.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Engine == config.EngineSQLite && cfg.Name != memoryDB {
		if err := os.MkdirAll(filepath.Dir(cfg.Name), dirPermissions); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open(cfg.DriverName(), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	switch {
	case cfg.Engine == config.EngineSQLite && cfg.Name == memoryDB:
		// Every new connection to :memory: is a fresh, empty database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	case cfg.Engine == config.EngineSQLite:
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(cfg.ConnMaxAge)
	default:
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(cfg.ConnMaxAge)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		slog.String("engine", cfg.Engine),
		slog.String("url", redact.URL(cfg.URL)),
		slog.Duration("conn_max_age", cfg.ConnMaxAge))
	return db, nil
}

// Ping reports whether db answers within the connection timeout.
func Ping(ctx context.Context, db *sql.DB) error {
	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()
	return db.PingContext(pingCtx)
}
