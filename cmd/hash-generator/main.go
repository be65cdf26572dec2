// Command hash-generator prints password hashes in the format the user
// store expects, after checking them against the default password rules.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/phrazzld/service-scaffold/internal/config"
	"github.com/phrazzld/service-scaffold/internal/service/auth"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:      "hash-generator",
		Usage:     "Hash passwords given as arguments, or one per line on stdin",
		ArgsUsage: "[password...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "skip-validation", Usage: "Hash passwords the default rules would reject"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			passwords := cmd.Args().Slice()
			if len(passwords) == 0 {
				var err error
				if passwords, err = readLines(cmd.Root().Reader); err != nil {
					return err
				}
			}
			return hashAll(cmd.Root().Writer, passwords, !cmd.Bool("skip-validation"))
		},
	}
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimRight(sc.Text(), "\r"); line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}

func hashAll(w io.Writer, passwords []string, check bool) error {
	validators, err := auth.NewPasswordValidators(config.DefaultPasswordValidators())
	if err != nil {
		return err
	}
	hasher := auth.NewBcryptVerifier()

	for _, pw := range passwords {
		if check {
			if err := auth.ValidatePassword(pw, nil, validators); err != nil {
				return err
			}
		}
		hash, err := hasher.Hash(pw)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}
		fmt.Fprintln(w, hash)
	}
	return nil
}
