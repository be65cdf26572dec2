package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/phrazzld/service-scaffold/internal/config"
	"github.com/phrazzld/service-scaffold/internal/redact"
)

// Dump file extensions by engine.
const (
	ExtensionPostgres = "psql"
	ExtensionSQLite   = "sqlite3"
)

// Dumper writes a restorable copy of the database.
type Dumper interface {
	Dump(ctx context.Context, w io.Writer) error
	Extension() string
}

// NewDumper picks the dumper for the configured engine.
func NewDumper(cfg config.DatabaseConfig) (Dumper, error) {
	switch cfg.Engine {
	case config.EnginePostgres:
		return &PostgresDumper{DB: cfg, Command: "pg_dump"}, nil
	case config.EngineSQLite:
		if cfg.Name == "" || cfg.Name == ":memory:" {
			return nil, errors.New("cannot back up an in-memory sqlite database")
		}
		return &SQLiteDumper{Path: cfg.Name}, nil
	default:
		return nil, fmt.Errorf("no backup support for engine %q", cfg.Engine)
	}
}

// PostgresDumper runs pg_dump. The password travels in PGPASSWORD, never on
// the command line.
type PostgresDumper struct {
	DB      config.DatabaseConfig
	Command string
}

func (d *PostgresDumper) Extension() string { return ExtensionPostgres }

func (d *PostgresDumper) args() []string {
	args := []string{"--no-owner", "--no-privileges"}
	if d.DB.Host != "" {
		args = append(args, "--host", d.DB.Host)
	}
	if d.DB.Port != 0 {
		args = append(args, "--port", strconv.Itoa(d.DB.Port))
	}
	if d.DB.User != "" {
		args = append(args, "--username", d.DB.User)
	}
	return append(args, d.DB.Name)
}

func (d *PostgresDumper) env() []string {
	env := os.Environ()
	if d.DB.Password != "" {
		env = append(env, "PGPASSWORD="+d.DB.Password)
	}
	if mode, ok := d.DB.Options["sslmode"]; ok {
		env = append(env, "PGSSLMODE="+mode)
	}
	return env
}

func (d *PostgresDumper) Dump(ctx context.Context, w io.Writer) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.Command, d.args()...)
	cmd.Env = d.env()
	cmd.Stdout = w
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(redact.String(stderr.String()))
		if msg != "" {
			return fmt.Errorf("%s failed: %w: %s", d.Command, err, msg)
		}
		return fmt.Errorf("%s failed: %w", d.Command, err)
	}
	return nil
}

// SQLiteDumper copies the database file.
type SQLiteDumper struct {
	Path string
}

func (d *SQLiteDumper) Extension() string { return ExtensionSQLite }

func (d *SQLiteDumper) Dump(_ context.Context, w io.Writer) error {
	f, err := os.Open(d.Path)
	if err != nil {
		return fmt.Errorf("opening sqlite database: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("copying sqlite database: %w", err)
	}
	return nil
}
