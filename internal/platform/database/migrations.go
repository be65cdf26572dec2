package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/phrazzld/service-scaffold/internal/config"
)

// migrationsDir is the directory within migrationsFS holding the SQL files.
const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// goose keeps its base filesystem, dialect and logger in package state.
var gooseMu sync.Mutex

// MigrationStatus describes one embedded migration.
type MigrationStatus struct {
	Version int64
	Source  string
	Applied bool
}

// slogGooseLogger adapts goose's logger to slog. Fatalf logs at error level
// and does not exit so callers can handle failures.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

func (l *slogGooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

// Dialect returns the goose dialect for the configured engine.
func Dialect(engine string) string {
	if engine == config.EngineSQLite {
		return "sqlite3"
	}
	return "postgres"
}

func prepareGoose(engine string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(&slogGooseLogger{logger: logger.With(slog.String("component", "migrations"))})
	if err := goose.SetDialect(Dialect(engine)); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *sql.DB, engine string, logger *slog.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := prepareGoose(engine, logger); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Status lists the embedded migrations and whether each has been applied.
func Status(ctx context.Context, db *sql.DB, engine string, logger *slog.Logger) ([]MigrationStatus, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := prepareGoose(engine, logger); err != nil {
		return nil, err
	}

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to read database version: %w", err)
	}

	migrations, err := goose.CollectMigrations(migrationsDir, 0, goose.MaxVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to collect migrations: %w", err)
	}

	statuses := make([]MigrationStatus, 0, len(migrations))
	for _, m := range migrations {
		statuses = append(statuses, MigrationStatus{
			Version: m.Version,
			Source:  m.Source,
			Applied: m.Version <= current,
		})
	}
	return statuses, nil
}

// PendingMigrations returns the versions of migrations not yet applied.
func PendingMigrations(ctx context.Context, db *sql.DB, engine string) ([]int64, error) {
	statuses, err := Status(ctx, db, engine, nil)
	if err != nil {
		return nil, err
	}
	var pending []int64
	for _, s := range statuses {
		if !s.Applied {
			pending = append(pending, s.Version)
		}
	}
	return pending, nil
}

// MigrateDown rolls back the most recently applied migration.
func MigrateDown(ctx context.Context, db *sql.DB, engine string, logger *slog.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := prepareGoose(engine, logger); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return nil
}

// Version returns the newest applied migration version, or 0 for a fresh database.
func Version(ctx context.Context, db *sql.DB, engine string) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := prepareGoose(engine, nil); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("failed to read database version: %w", err)
	}
	return v, nil
}
