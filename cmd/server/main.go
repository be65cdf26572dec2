// Package main is the service entry point. It serves the HTTP application
// and carries the management commands that run against the same settings.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/phrazzld/service-scaffold/internal/version"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newApp builds the command tree. serve runs when no command is named.
func newApp() *cli.Command {
	return &cli.Command{
		Name:           "server",
		Version:        version.Version,
		Usage:          "Run the service or one of its management commands",
		DefaultCommand: "serve",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Usage:   "Read settings overrides from `FILE`; empty disables the file",
				Value:   ".env",
				Sources: cli.EnvVars("ENV_FILE"),
			},
		},
		Commands: []*cli.Command{
			serveCmd,
			migrateCmd,
			createSuperuserCmd,
			collectStaticCmd,
			dbBackupCmd,
			listBackupsCmd,
			checkCmd,
			versionCmd,
		},
	}
}

var versionCmd = &cli.Command{
	Name:  "version",
	Usage: "Print the version information",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		info := version.Get(cmd.Root().Name)
		fmt.Fprintf(cmd.Root().Writer, "%s version %s", info.Name, info.Version)
		if info.Commit != "" {
			fmt.Fprintf(cmd.Root().Writer, " (%s)", info.Commit)
		}
		fmt.Fprintf(cmd.Root().Writer, " %s\n", info.GoVersion)
		return nil
	},
}
