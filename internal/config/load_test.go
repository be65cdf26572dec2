package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// managedVariables lists every variable Load reads so each test starts clean.
var managedVariables = []string{
	"SECRET_KEY", "DEBUG", "ALLOWED_HOSTS", "DATABASE_URL", "DATABASE_CON_MAX_AGE",
	"PORT", "LOG_LEVEL", "PROJECT_NAME", "LOGIN_REDIRECT_URL", "LANGUAGE_CODE", "TIME_ZONE",
	"STATIC_ROOT", "STATIC_SOURCE_DIR", "MEDIA_ROOT", "DEFAULT_FILE_STORAGE", "STATICFILES_STORAGE",
	"AWS_S3_REGION_NAME", "AWS_S3_ENDPOINT_URL", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
	"AWS_STORAGE_BUCKET_NAME", "AWS_DEFAULT_ACL", "AWS_QUERYSTRING_AUTH",
	"DBBACKUP_STORAGE", "DBBACKUP_ACCESS_KEY", "DBBACKUP_SECRET_ACCESS_KEY", "DBBACKUP_BUCKET_NAME",
	"DBBACKUP_ENDPOINT_URL", "DBBACKUP_PROJECT_NAME", "DBBACKUP_ROOT",
	"USE_SENTRY", "SENTRY_DSN", "CORS_ALLOWED_ORIGINS", "TEMPLATE_DIRS", "ENV_FILE",
}

// setupEnv clears every managed variable and then applies envVars.
// t.Setenv restores the original environment when the test ends.
func setupEnv(t *testing.T, envVars map[string]string) {
	t.Helper()
	for _, name := range managedVariables {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
	for name, value := range envVars {
		t.Setenv(name, value)
	}
}

func requiredEnv() map[string]string {
	return map[string]string{
		"SECRET_KEY":    "a-very-secret-key",
		"ALLOWED_HOSTS": "example.com, .example.org",
		"DATABASE_URL":  "postgres://u:p@host:5432/db",
	}
}

func merge(base map[string]string, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// TestLoadDefaults verifies the documented defaults when only required variables are set.
func TestLoadDefaults(t *testing.T) {
	setupEnv(t, requiredEnv())

	cfg, err := Load(WithEnvFile(""))
	require.NoError(t, err, "Load() should not return an error with required variables set")
	require.NotNil(t, cfg)

	assert.False(t, cfg.Debug)
	assert.Equal(t, []string{"example.com", ".example.org"}, cfg.AllowedHosts)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "service", cfg.ProjectName)
	assert.Equal(t, "/admin", cfg.LoginRedirectURL)
	assert.Equal(t, "/tmp/static/", cfg.Static.Root, "STATIC_ROOT should default to /tmp/static/")
	assert.Equal(t, StaticURL, cfg.Static.URL)
	assert.Equal(t, BackendS3, cfg.Static.Backend)
	assert.Equal(t, BackendS3, cfg.Media.Backend)
	assert.Equal(t, "public-read", cfg.Storage.DefaultACL)
	assert.False(t, cfg.Storage.QueryStringAuth)
	assert.Equal(t, 24*time.Hour, cfg.Storage.QueryExpire)
	assert.Equal(t, 24*time.Hour, cfg.Database.ConnMaxAge)
	assert.Equal(t, "en-us", cfg.Localization.LanguageCode)
	assert.Equal(t, time.UTC, cfg.Localization.Location)
	assert.Equal(t, "service-{datetime}.{extension}", cfg.Backup.FilenameTemplate)
	assert.Equal(t, BackupCleanupKeep, cfg.Backup.CleanupKeep)
	assert.Equal(t, "private", cfg.Backup.DefaultACL)
	assert.Equal(t, "service API", cfg.Schema.Title)
	assert.False(t, cfg.Sentry.Active())
	assert.True(t, cfg.Correlation.Generate)
	assert.Equal(t, "X-Correlation-Id", cfg.Correlation.Header)
	assert.Equal(t, DefaultMiddleware, cfg.Middleware)
	assert.True(t, cfg.HasComponent(ComponentHealthDB))
	assert.True(t, cfg.HasComponent(ComponentHealthMigrations))
	assert.Empty(t, cfg.CORS.AllowedOrigins)
}

// TestLoadFromEnv verifies that Load reads every group from environment variables.
func TestLoadFromEnv(t *testing.T) {
	setupEnv(t, merge(requiredEnv(), map[string]string{
		"DEBUG":                   "yes",
		"PORT":                    "9090",
		"LOG_LEVEL":               "DEBUG",
		"PROJECT_NAME":            "acme",
		"DATABASE_CON_MAX_AGE":    "60",
		"STATIC_ROOT":             "/srv/static/",
		"STATICFILES_STORAGE":     "django.core.files.storage.FileSystemStorage",
		"AWS_S3_ENDPOINT_URL":     "https://s3.example.com",
		"AWS_STORAGE_BUCKET_NAME": "assets",
		"AWS_QUERYSTRING_AUTH":    "on",
		"DBBACKUP_PROJECT_NAME":   "acme-prod",
		"USE_SENTRY":              "1",
		"SENTRY_DSN":              "https://key@sentry.example.com/1",
		"CORS_ALLOWED_ORIGINS":    "https://a.example.com,https://b.example.com",
	}))

	cfg, err := Load(WithEnvFile(""))
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "acme", cfg.ProjectName)
	assert.Equal(t, time.Minute, cfg.Database.ConnMaxAge)
	assert.Equal(t, "/srv/static/", cfg.Static.Root)
	assert.Equal(t, BackendFilesystem, cfg.Static.Backend)
	assert.Equal(t, "assets", cfg.Storage.BucketName)
	assert.True(t, cfg.Storage.QueryStringAuth)
	assert.Equal(t, "acme-prod", cfg.Backup.Location)
	assert.Equal(t, "acme-prod-{datetime}.{extension}", cfg.Backup.FilenameTemplate)
	assert.True(t, cfg.Sentry.Active())
	assert.Equal(t, "acme API", cfg.Schema.Title)
	assert.Len(t, cfg.CORS.AllowedOrigins, 2)
}

// TestLoadDatabaseURL verifies the parsed database fields.
func TestLoadDatabaseURL(t *testing.T) {
	setupEnv(t, requiredEnv())

	cfg, err := Load(WithEnvFile(""))
	require.NoError(t, err)

	assert.Equal(t, EnginePostgres, cfg.Database.Engine)
	assert.Equal(t, "u", cfg.Database.User)
	assert.Equal(t, "p", cfg.Database.Password)
	assert.Equal(t, "host", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "db", cfg.Database.Name)
}

// TestLoadMissingRequired verifies every required variable is reported in one error.
func TestLoadMissingRequired(t *testing.T) {
	setupEnv(t, map[string]string{"DEBUG": "true"})

	cfg, err := Load(WithEnvFile(""))
	require.Error(t, err)
	assert.Nil(t, cfg, "Config should be nil when an error occurs")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, ErrMissingVariable)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t, []string{"SECRET_KEY", "ALLOWED_HOSTS", "DATABASE_URL"}, verr.Variables())
	assert.Contains(t, err.Error(), "configuration validation failed")
}

// TestLoadValidationErrors verifies that malformed values fail startup instead of defaulting.
func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name     string
		envVars  map[string]string
		variable string
	}{
		{"Malformed boolean", map[string]string{"DEBUG": "maybe"}, "DEBUG"},
		{"Malformed sentry toggle", map[string]string{"USE_SENTRY": "enabled"}, "USE_SENTRY"},
		{"Malformed port", map[string]string{"PORT": "eighty"}, "PORT"},
		{"Port out of range", map[string]string{"PORT": "999999"}, "PORT"},
		{"Invalid log level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"Malformed max age", map[string]string{"DATABASE_CON_MAX_AGE": "1d"}, "DATABASE_CON_MAX_AGE"},
		{"Unsupported database scheme", map[string]string{"DATABASE_URL": "mssql://h/db"}, "DATABASE_URL"},
		{"Unknown storage backend", map[string]string{"STATICFILES_STORAGE": "ftp"}, "STATICFILES_STORAGE"},
		{"Allowed hosts only commas", map[string]string{"ALLOWED_HOSTS": " , "}, "ALLOWED_HOSTS"},
		{"Bad time zone", map[string]string{"TIME_ZONE": "Mars/Olympus"}, "TIME_ZONE"},
		{"Bad language code", map[string]string{"LANGUAGE_CODE": "not a language"}, "LANGUAGE_CODE"},
		{"Relative redirect", map[string]string{"LOGIN_REDIRECT_URL": "admin"}, "LOGIN_REDIRECT_URL"},
		{"Bad endpoint url", map[string]string{"AWS_S3_ENDPOINT_URL": "not a url"}, "AWS_S3_ENDPOINT_URL"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setupEnv(t, merge(requiredEnv(), tc.envVars))

			cfg, err := Load(WithEnvFile(""))
			require.Error(t, err, "Load() should return an error with invalid configuration")
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Variables(), tc.variable)
		})
	}
}

// TestLoadAggregatesErrors verifies missing and malformed values are reported together.
func TestLoadAggregatesErrors(t *testing.T) {
	setupEnv(t, map[string]string{
		"DEBUG": "perhaps",
		"PORT":  "http",
	})

	_, err := Load(WithEnvFile(""))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Subset(t, verr.Variables(), []string{"SECRET_KEY", "ALLOWED_HOSTS", "DATABASE_URL", "DEBUG", "PORT"})
}

// TestLoadEnvFile verifies the override file fills gaps but never beats the environment.
func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "SECRET_KEY=from-file\n" +
		"ALLOWED_HOSTS=file.example.com\n" +
		"DATABASE_URL=sqlite:///data/app.sqlite3\n" +
		"PROJECT_NAME=fromfile\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	setupEnv(t, map[string]string{
		"PROJECT_NAME": "fromenv",
	})

	cfg, err := Load(WithEnvFile(path))
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.SecretKey)
	assert.Equal(t, []string{"file.example.com"}, cfg.AllowedHosts)
	assert.Equal(t, EngineSQLite, cfg.Database.Engine)
	assert.Equal(t, "data/app.sqlite3", cfg.Database.Name)
	assert.Equal(t, "fromenv", cfg.ProjectName, "environment should take precedence over the env file")
}

// TestLoadMissingEnvFile verifies a missing override file is ignored.
func TestLoadMissingEnvFile(t *testing.T) {
	setupEnv(t, requiredEnv())

	cfg, err := Load(WithEnvFile(filepath.Join(t.TempDir(), "absent.env")))
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

// TestLoadEnvFileFromVariable verifies ENV_FILE selects the override file.
func TestLoadEnvFileFromVariable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.env")
	require.NoError(t, os.WriteFile(path, []byte("SECRET_KEY=custom\n"), 0o600))

	env := requiredEnv()
	delete(env, "SECRET_KEY")
	env["ENV_FILE"] = path
	setupEnv(t, env)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.SecretKey)
}
