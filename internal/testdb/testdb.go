// Package testdb opens migrated databases for tests.
//
// Each Open gets a private in-memory SQLite database unless TEST_DATABASE_URL
// names another database, in which case the same tests run against it and
// the users table is emptied around every test.
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/phrazzld/service-scaffold/internal/config"
	"github.com/phrazzld/service-scaffold/internal/platform/database"
)

// EnvURL names the variable that selects an external test database.
const EnvURL = "TEST_DATABASE_URL"

const memoryURL = "sqlite://"

// URL returns the database URL tests should use.
func URL() string {
	if u := strings.TrimSpace(os.Getenv(EnvURL)); u != "" {
		return u
	}
	return memoryURL
}

// IsExternal reports whether tests run against a shared database.
func IsExternal() bool {
	return URL() != memoryURL
}

// Open connects to the test database and applies every migration. The
// connection is closed when the test ends.
func Open(t testing.TB) (*sql.DB, config.DatabaseConfig) {
	t.Helper()
	ctx := context.Background()

	cfg, err := config.ParseDatabaseURL(URL(), time.Minute)
	require.NoError(t, err, "parsing %s", EnvURL)

	db, err := database.Open(ctx, cfg, nil)
	require.NoError(t, err, "opening test database")
	require.NoError(t, database.Migrate(ctx, db, cfg.Engine, nil), "migrating test database")

	external := IsExternal()
	if external {
		truncate(t, db)
	}
	t.Cleanup(func() {
		if external {
			truncate(t, db)
		}
		_ = db.Close()
	})
	return db, cfg
}

func truncate(t testing.TB, db *sql.DB) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), "DELETE FROM users")
	require.NoError(t, err, "emptying users table")
}

// WithTx runs fn inside a transaction that is always rolled back, so
// nothing fn writes outlives it.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err, "beginning transaction")
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			t.Errorf("rolling back transaction: %v", rbErr)
		}
	}()

	fn(t, tx)
}
