package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/urfave/cli/v3"

	"github.com/phrazzld/service-scaffold/internal/api/middleware"
	"github.com/phrazzld/service-scaffold/internal/config"
	"github.com/phrazzld/service-scaffold/internal/errtrack"
	"github.com/phrazzld/service-scaffold/internal/health"
	"github.com/phrazzld/service-scaffold/internal/platform/database"
	"github.com/phrazzld/service-scaffold/internal/platform/logger"
	"github.com/phrazzld/service-scaffold/internal/schema"
	"github.com/phrazzld/service-scaffold/internal/service"
	"github.com/phrazzld/service-scaffold/internal/service/auth"
	"github.com/phrazzld/service-scaffold/internal/store"
	"github.com/phrazzld/service-scaffold/internal/templates"
)

// application holds the shared dependencies and ensures they are released
// on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore store.UserStore
	users     service.UserService
	sessions  auth.SessionService
	messages  *middleware.MessageStore

	templates *templates.Engine
	schema    *openapi3.T
	health    *health.Registry
	tracker   *errtrack.Tracker
}

// loadConfig reads settings and configures the default logger. Log lines go
// to the command's error writer so command output stays clean.
func loadConfig(cmd *cli.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(config.WithEnvFile(cmd.Root().String("env-file")))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.SetupWithWriter(cmd.Root().ErrWriter, cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Debug("configuration loaded", slog.Any("settings", cfg.Redacted()))
	return cfg, l, nil
}

// openDatabase loads settings and connects to the configured database.
func openDatabase(ctx context.Context, cmd *cli.Command) (*config.Config, *slog.Logger, *sql.DB, error) {
	cfg, l, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := database.Open(ctx, cfg.Database, l)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, l, db, nil
}

// newApplication creates the application with every service initialized.
// cfg, logger and db must be established beforehand.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		db:      db,
		tracker: errtrack.New(nil),
	}

	active, err := app.tracker.Init(cfg.Sentry, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize error tracking: %w", err)
	}
	logger.Info("error tracking configured", slog.Bool("active", active))

	app.userStore = database.NewSQLUserStore(db, logger)
	app.users, err = newUserService(cfg, app.userStore, db, logger)
	if err != nil {
		return nil, err
	}

	app.sessions, err = auth.NewSessionService(cfg.SecretKey, auth.DefaultSessionLifetime)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session service: %w", err)
	}
	app.messages, err = middleware.NewMessageStore(cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize message store: %w", err)
	}

	app.templates, err = templates.NewEngine(templates.Options{
		Templates: cfg.Templates,
		Debug:     cfg.Debug,
		StaticURL: cfg.Static.URL,
		Location:  cfg.Localization.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize templates: %w", err)
	}

	app.schema, err = schema.Build(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build API schema: %w", err)
	}

	app.health, err = health.FromComponents(cfg, db)
	if err != nil {
		return nil, fmt.Errorf("failed to register health checks: %w", err)
	}

	return app, nil
}

func newUserService(cfg *config.Config, users store.UserStore, db *sql.DB, logger *slog.Logger) (*service.UserServiceImpl, error) {
	validators, err := auth.NewPasswordValidators(cfg.PasswordValidators)
	if err != nil {
		return nil, fmt.Errorf("failed to configure password validators: %w", err)
	}
	bcrypt := auth.NewBcryptVerifier()
	return service.NewUserService(users, db, bcrypt, bcrypt, validators, logger), nil
}

// cleanup releases the application's resources.
func (app *application) cleanup() {
	app.tracker.Flush(flushTimeout)

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
