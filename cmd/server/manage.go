package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v3"

	"github.com/phrazzld/service-scaffold/internal/api/middleware"
	"github.com/phrazzld/service-scaffold/internal/backup"
	"github.com/phrazzld/service-scaffold/internal/platform/database"
	"github.com/phrazzld/service-scaffold/internal/storage"
	"github.com/phrazzld/service-scaffold/internal/templates"
)

var createSuperuserCmd = &cli.Command{
	Name:  "createsuperuser",
	Usage: "Create an admin account with every permission",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "username", Required: true},
		&cli.StringFlag{Name: "email"},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "Password for the new account",
			Sources: cli.EnvVars("SUPERUSER_PASSWORD"),
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		password := cmd.String("password")
		if password == "" {
			return errors.New("a password is required (--password or SUPERUSER_PASSWORD)")
		}

		cfg, logger, db, err := openDatabase(ctx, cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		users, err := newUserService(cfg, database.NewSQLUserStore(db, logger), db, logger)
		if err != nil {
			return err
		}
		user, err := users.CreateSuperuser(ctx, cmd.String("username"), cmd.String("email"), password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.Root().Writer, "Superuser %q created.\n", user.Username)
		return nil
	},
}

var collectStaticCmd = &cli.Command{
	Name:  "collectstatic",
	Usage: "Copy static files into the configured static storage",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		dst, err := storage.Static(ctx, cfg)
		if err != nil {
			return err
		}

		sources := []fs.FS{templates.StaticFiles()}
		if cfg.Static.SourceDir != "" {
			sources = append([]fs.FS{os.DirFS(cfg.Static.SourceDir)}, sources...)
		}
		n, err := storage.CollectStatic(ctx, dst, logger, sources...)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.Root().Writer, "%d static files copied.\n", n)
		return nil
	},
}

var dbBackupCmd = &cli.Command{
	Name:  "dbbackup",
	Usage: "Dump the database to backup storage and prune old backups",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		m, err := backupManager(ctx, cmd)
		if err != nil {
			return err
		}
		name, err := m.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.Root().Writer, "Backup written to %s\n", name)
		return nil
	},
}

var listBackupsCmd = &cli.Command{
	Name:  "listbackups",
	Usage: "List database backups, newest first",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		m, err := backupManager(ctx, cmd)
		if err != nil {
			return err
		}
		objects, err := m.List(ctx)
		if err != nil {
			return err
		}
		for _, o := range objects {
			fmt.Fprintf(cmd.Root().Writer, "%s\t%d\t%s\n", o.Name, o.Size, o.ModTime.UTC().Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func backupManager(ctx context.Context, cmd *cli.Command) (*backup.Manager, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dumper, err := backup.NewDumper(cfg.Database)
	if err != nil {
		return nil, err
	}
	store, err := storage.Backups(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return backup.NewManager(store, dumper, cfg.Backup, logger), nil
}

var checkCmd = &cli.Command{
	Name:  "check",
	Usage: "Validate settings and print a redacted summary",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		var problems *multierror.Error
		for _, name := range cfg.Middleware {
			if !knownMiddleware(name) {
				problems = multierror.Append(problems, fmt.Errorf("%w: %q", middleware.ErrUnknownMiddleware, name))
			}
		}
		if _, err := templates.NewEngine(templates.Options{Templates: cfg.Templates}); err != nil {
			problems = multierror.Append(problems, err)
		}

		settings := cfg.Redacted()
		keys := make([]string, 0, len(settings))
		for k := range settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(cmd.Root().Writer, "%s = %v\n", k, settings[k])
		}

		if err := problems.ErrorOrNil(); err != nil {
			return fmt.Errorf("system check identified %d issues: %w", problems.Len(), err)
		}
		fmt.Fprintln(cmd.Root().Writer, "System check identified no issues.")
		return nil
	},
}

func knownMiddleware(name string) bool {
	for _, n := range middleware.Names() {
		if n == name {
			return true
		}
	}
	return false
}
