package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/service-scaffold/internal/config"
	"github.com/phrazzld/service-scaffold/internal/platform/database"
)

func TestRegistryRun(t *testing.T) {
	reg := NewRegistry()
	reg.Register("ok", func(context.Context) error { return nil })
	reg.Register("broken", func(context.Context) error {
		return errors.New("dial postgres://app:hunter2@db/app: refused")
	})
	reg.Register("ok", func(context.Context) error { return nil })

	assert.Equal(t, []string{"ok", "broken"}, reg.Names())

	results, ok := reg.Run(context.Background())
	assert.False(t, ok)
	assert.Equal(t, StatusWorking, results["ok"])
	assert.Contains(t, results["broken"], "refused")
	assert.NotContains(t, results["broken"], "hunter2")
}

func TestHandler(t *testing.T) {
	pass := NewRegistry()
	pass.Register("ok", func(context.Context) error { return nil })
	fail := NewRegistry()
	fail.Register("down", func(context.Context) error { return errors.New("down") })

	tests := []struct {
		name string
		reg  *Registry
		url  string
		want int
	}{
		{"all pass", pass, "/health/", http.StatusOK},
		{"json format", pass, "/health/?format=json", http.StatusOK},
		{"failing check", fail, "/health/", http.StatusInternalServerError},
		{"unknown format", pass, "/health/?format=xml", http.StatusBadRequest},
		{"no checks", NewRegistry(), "/health/", http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Handler(tc.reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.url, nil))
			assert.Equal(t, tc.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestFromComponents(t *testing.T) {
	ctx := context.Background()
	dbCfg, err := config.ParseDatabaseURL("sqlite://", 0)
	require.NoError(t, err)
	db, err := database.Open(ctx, dbCfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{
		Database: dbCfg,
		InstalledComponents: []string{
			config.ComponentHealth,
			config.ComponentHealthDB,
			config.ComponentHealthMigrations,
		},
	}
	reg, err := FromComponents(cfg, db)
	require.NoError(t, err)
	assert.Equal(t, []string{"DatabaseBackend", "MigrationsHealthCheck"}, reg.Names())

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, StatusWorking, body["DatabaseBackend"])
	assert.Equal(t, "unapplied migrations: [1 2]", body["MigrationsHealthCheck"])

	require.NoError(t, database.Migrate(ctx, db, dbCfg.Engine, nil))
	results, ok := reg.Run(ctx)
	assert.True(t, ok, results)

	_, err = FromComponents(cfg, nil)
	assert.Error(t, err)

	empty, err := FromComponents(&config.Config{}, nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Names())
}
