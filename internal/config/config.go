package config

import (
	"fmt"
	"time"

	"github.com/phrazzld/service-scaffold/internal/redact"
)

// Literal settings that are not read from the environment.
const (
	StaticURL = "/static/"
	MediaURL  = "/media/"

	// QueryStringExpire is how long presigned object-storage URLs stay valid.
	QueryStringExpire = 24 * time.Hour

	// BackupCleanupKeep is the number of newest backups retained by cleanup.
	BackupCleanupKeep = 7

	// BackupDefaultACL is applied to every uploaded backup object.
	BackupDefaultACL = "private"

	// CorrelationHeader is the inbound request header carrying a correlation id.
	CorrelationHeader = "X-Correlation-Id"

	// CorrelationResponseHeader echoes the correlation id on every response.
	CorrelationResponseHeader = "X-Correlation-Id"
)

// Storage backend kinds.
const (
	BackendS3         = "s3"
	BackendFilesystem = "filesystem"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	SecretKey        string   `validate:"required"`
	Debug            bool
	AllowedHosts     []string `validate:"required,min=1,dive,required"`
	ProjectName      string   `validate:"required"`
	LoginRedirectURL string   `validate:"required,startswith=/"`

	Server              ServerConfig   `validate:"required"`
	InstalledComponents []string       `validate:"required,dive,required"`
	Middleware          []string       `validate:"required,dive,required"`
	Templates           TemplateConfig `validate:"required"`
	Database            DatabaseConfig `validate:"required"`
	PasswordValidators  []PasswordValidatorConfig
	Localization        LocalizationConfig `validate:"required"`
	Static              FilesConfig        `validate:"required"`
	Media               FilesConfig        `validate:"required"`
	REST                RESTConfig
	Logging             LoggingConfig `validate:"required"`
	Storage             S3Config
	Backup              BackupConfig `validate:"required"`
	Schema              SchemaConfig `validate:"required"`
	Sentry              SentryConfig
	Correlation         CorrelationConfig
	CORS                CORSConfig
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `validate:"required,gt=0,lt=65536"`
	LogLevel string `validate:"required,oneof=debug info warn error"`
}

// TemplateConfig configures the HTML template engine.
type TemplateConfig struct {
	// Dirs are searched before the embedded templates.
	Dirs []string
	// AppDirs enables the templates embedded in the binary.
	AppDirs           bool
	ContextProcessors []string `validate:"dive,oneof=debug request auth messages"`
}

// DatabaseConfig is the parsed form of DATABASE_URL.
type DatabaseConfig struct {
	Engine     string `validate:"required,oneof=postgresql sqlite3"`
	Name       string `validate:"required"`
	User       string
	Password   string
	Host       string
	Port       int `validate:"gte=0,lt=65536"`
	Options    map[string]string
	ConnMaxAge time.Duration `validate:"gte=0"`

	// URL is the original connection URL.
	URL string `validate:"required"`
}

// PasswordValidatorConfig names one password rule and its options.
type PasswordValidatorConfig struct {
	Name    string `validate:"required"`
	Options map[string]any
}

// LocalizationConfig mirrors the usual language and time zone settings.
type LocalizationConfig struct {
	LanguageCode string `validate:"required"`
	TimeZone     string `validate:"required"`
	UseI18N      bool
	UseL10N      bool
	UseTZ        bool

	// Location is TimeZone resolved at load time.
	Location *time.Location `validate:"required"`
}

// FilesConfig describes where static or media files live and how they are served.
type FilesConfig struct {
	URL     string `validate:"required,startswith=/,endswith=/"`
	Root    string `validate:"required"`
	Backend string `validate:"required,oneof=s3 filesystem"`
	// SourceDir is only used by collectstatic.
	SourceDir string
}

// RESTConfig holds API-wide defaults.
type RESTConfig struct {
	Renderers      []string
	Parsers        []string
	Authentication []string
	Permissions    []string
	SchemaClass    string
}

// LoggingConfig configures the JSON log pipeline.
type LoggingConfig struct {
	Level        string `validate:"required"`
	Format       string `validate:"required,oneof=json"`
	FieldRenames map[string]string
	// CorrelationField is the attribute name holding the request's correlation id.
	CorrelationField string `validate:"required"`
}

// S3Config holds object-storage credentials for static and media files.
type S3Config struct {
	Region          string
	EndpointURL     string `validate:"omitempty,url"`
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	DefaultACL      string
	QueryStringAuth bool
	QueryExpire     time.Duration
}

// BackupConfig configures database backups.
type BackupConfig struct {
	Backend          string `validate:"required,oneof=s3 filesystem"`
	AccessKey        string
	SecretAccessKey  string
	BucketName       string
	EndpointURL      string `validate:"omitempty,url"`
	Region           string
	DefaultACL       string
	Location         string
	FilenameTemplate string `validate:"required"`
	CleanupKeep      int    `validate:"gt=0"`
	// Root is used when Backend is filesystem.
	Root string
}

// SchemaConfig carries the OpenAPI document metadata.
type SchemaConfig struct {
	Title               string `validate:"required"`
	Description         string
	Version             string `validate:"required"`
	ServePermissions    []string
	ServeAuthentication []string
	PostprocessingHooks []string `validate:"dive,oneof=add_servers"`
}

// SentryConfig gates the optional error-tracking client.
type SentryConfig struct {
	Enabled bool
	DSN     string
}

// Active reports whether error tracking should be initialized.
func (s SentryConfig) Active() bool {
	return s.Enabled && s.DSN != ""
}

// CorrelationConfig controls correlation id handling.
type CorrelationConfig struct {
	Generate       bool
	Header         string
	ResponseHeader string
}

// CORSConfig lists origins allowed for cross-origin requests.
type CORSConfig struct {
	AllowedOrigins []string
}

// HasComponent reports whether name is in the installed component list.
func (c *Config) HasComponent(name string) bool {
	for _, n := range c.InstalledComponents {
		if n == name {
			return true
		}
	}
	return false
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// Redacted returns a log-safe summary of the configuration.
func (c *Config) Redacted() map[string]any {
	return map[string]any{
		"debug":                c.Debug,
		"allowed_hosts":        c.AllowedHosts,
		"project":              c.ProjectName,
		"port":                 c.Server.Port,
		"log_level":            c.Server.LogLevel,
		"database_engine":      c.Database.Engine,
		"database_url":         redact.URL(c.Database.URL),
		"database_host":        c.Database.Host,
		"database_name":        c.Database.Name,
		"static_backend":       c.Static.Backend,
		"media_backend":        c.Media.Backend,
		"backup_backend":       c.Backup.Backend,
		"storage_bucket":       c.Storage.BucketName,
		"secret_key_present":   c.SecretKey != "",
		"sentry_active":        c.Sentry.Active(),
		"installed_components": len(c.InstalledComponents),
	}
}
