package main

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/phrazzld/service-scaffold/internal/platform/database"
)

var migrateCmd = &cli.Command{
	Name:  "migrate",
	Usage: "Manage database migrations",
	Commands: []*cli.Command{
		{
			Name:  "up",
			Usage: "Apply every pending migration",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, logger, db, err := openDatabase(ctx, cmd)
				if err != nil {
					return err
				}
				defer db.Close()

				if err := database.Migrate(ctx, db, cfg.Database.Engine, logger); err != nil {
					return err
				}
				return printVersion(ctx, cmd, db, cfg.Database.Engine)
			},
		},
		{
			Name:  "down",
			Usage: "Roll back the most recent migration",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, logger, db, err := openDatabase(ctx, cmd)
				if err != nil {
					return err
				}
				defer db.Close()

				if err := database.MigrateDown(ctx, db, cfg.Database.Engine, logger); err != nil {
					return err
				}
				return printVersion(ctx, cmd, db, cfg.Database.Engine)
			},
		},
		{
			Name:  "status",
			Usage: "List migrations and whether each is applied",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, logger, db, err := openDatabase(ctx, cmd)
				if err != nil {
					return err
				}
				defer db.Close()

				statuses, err := database.Status(ctx, db, cfg.Database.Engine, logger)
				if err != nil {
					return err
				}
				for _, s := range statuses {
					mark := " "
					if s.Applied {
						mark = "X"
					}
					fmt.Fprintf(cmd.Root().Writer, "[%s] %s\n", mark, filepath.Base(s.Source))
				}
				return nil
			},
		},
		{
			Name:  "version",
			Usage: "Print the current schema version",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, _, db, err := openDatabase(ctx, cmd)
				if err != nil {
					return err
				}
				defer db.Close()
				return printVersion(ctx, cmd, db, cfg.Database.Engine)
			},
		},
	},
}

func printVersion(ctx context.Context, cmd *cli.Command, db *sql.DB, engine string) error {
	v, err := database.Version(ctx, db, engine)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "schema version %d\n", v)
	return nil
}
