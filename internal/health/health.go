// Package health runs the checks registered by installed components and
// reports them at /health/.
package health

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/service-scaffold/internal/api/shared"
	"github.com/phrazzld/service-scaffold/internal/config"
	"github.com/phrazzld/service-scaffold/internal/platform/database"
	"github.com/phrazzld/service-scaffold/internal/redact"
)

// StatusWorking is reported for a passing check.
const StatusWorking = "working"

// checkTimeout bounds each check.
const checkTimeout = 5 * time.Second

// CheckFunc returns nil when the dependency is healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name string
	fn   CheckFunc
}

// Registry holds the named checks.
type Registry struct {
	mu     sync.RWMutex
	checks []check
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a check. Registering a name twice replaces the earlier check.
func (r *Registry) Register(name string, fn CheckFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.checks {
		if c.name == name {
			r.checks[i].fn = fn
			return
		}
	}
	r.checks = append(r.checks, check{name: name, fn: fn})
}

// Names returns the registered check names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.checks))
	for i, c := range r.checks {
		out[i] = c.name
	}
	return out
}

// Run executes every check concurrently. The result maps each check name to
// StatusWorking or its redacted error text; ok is false if any check failed.
func (r *Registry) Run(ctx context.Context) (results map[string]string, ok bool) {
	r.mu.RLock()
	checks := append([]check(nil), r.checks...)
	r.mu.RUnlock()

	results = make(map[string]string, len(checks))
	var mu sync.Mutex
	ok = true

	var g errgroup.Group
	for _, c := range checks {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()

			status := StatusWorking
			if err := c.fn(checkCtx); err != nil {
				status = redact.Error(err)
				slog.WarnContext(ctx, "health check failed",
					slog.String("check", c.name),
					slog.String("error", status))
			}

			mu.Lock()
			defer mu.Unlock()
			results[c.name] = status
			if status != StatusWorking {
				ok = false
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, ok
}

// Handler serves the check results as JSON: 200 when all pass, 500 otherwise.
// Only format=json is accepted.
func Handler(reg *Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f := r.URL.Query().Get("format"); f != "" && f != "json" {
			shared.RespondWithError(w, r, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", f))
			return
		}

		results, ok := reg.Run(r.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusInternalServerError
		}
		shared.RespondWithJSON(w, r, status, results)
	})
}

// DatabaseCheck pings db and runs a trivial query.
func DatabaseCheck(db *sql.DB) CheckFunc {
	return func(ctx context.Context) error {
		if err := database.Ping(ctx, db); err != nil {
			return fmt.Errorf("unavailable: %w", err)
		}
		var one int
		if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		return nil
	}
}

// MigrationsCheck fails while any embedded migration is unapplied.
func MigrationsCheck(db *sql.DB, engine string) CheckFunc {
	return func(ctx context.Context) error {
		pending, err := database.PendingMigrations(ctx, db, engine)
		if err != nil {
			return err
		}
		if len(pending) > 0 {
			sort.Slice(pending, func(i, j int) bool { return pending[i] < pending[j] })
			return fmt.Errorf("unapplied migrations: %v", pending)
		}
		return nil
	}
}

// FromComponents registers the checks provided by cfg's installed components.
func FromComponents(cfg *config.Config, db *sql.DB) (*Registry, error) {
	reg := NewRegistry()
	if cfg.HasComponent(config.ComponentHealthDB) || cfg.HasComponent(config.ComponentHealthMigrations) {
		if db == nil {
			return nil, errors.New("database health checks require a database")
		}
	}
	if cfg.HasComponent(config.ComponentHealthDB) {
		reg.Register("DatabaseBackend", DatabaseCheck(db))
	}
	if cfg.HasComponent(config.ComponentHealthMigrations) {
		reg.Register("MigrationsHealthCheck", MigrationsCheck(db, cfg.Database.Engine))
	}
	return reg, nil
}
