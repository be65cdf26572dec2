package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/phrazzld/service-scaffold/internal/version"
)

// DefaultEnvFile is the override file read when ENV_FILE is not set.
const DefaultEnvFile = ".env"

var validate = validator.New()

// Option customizes Load.
type Option func(*loadOptions)

type loadOptions struct {
	envFile string
}

// WithEnvFile reads overrides from path instead of ENV_FILE or .env.
// An empty path disables the override file.
func WithEnvFile(path string) Option {
	return func(o *loadOptions) {
		o.envFile = path
	}
}

// Load configuration from environment variables and the optional override file.
// Environment variables take precedence over values from the file, which take
// precedence over defaults. Returns a populated Config, or a *ValidationError
// listing every missing or malformed setting.
func Load(opts ...Option) (*Config, error) {
	o := loadOptions{envFile: DefaultEnvFile}
	if f, ok := os.LookupEnv("ENV_FILE"); ok {
		o.envFile = f
	}
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if err := mergeEnvFile(v, o.envFile); err != nil {
		return nil, err
	}

	l := &loader{v: v, errs: newValidationError()}
	cfg := l.build()
	if !l.errs.empty() {
		return nil, l.errs
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		for _, fe := range verrs {
			l.errs.add(variableFor(fe.Namespace()), fmt.Errorf("%w: failed on %q", ErrMalformedValue, ruleOf(fe)))
		}
		return nil, l.errs
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DEBUG", "false")
	v.SetDefault("PORT", "8000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PROJECT_NAME", "service")
	v.SetDefault("DATABASE_CON_MAX_AGE", "86400")
	v.SetDefault("LOGIN_REDIRECT_URL", "/admin")
	v.SetDefault("LANGUAGE_CODE", "en-us")
	v.SetDefault("TIME_ZONE", "UTC")
	v.SetDefault("STATIC_ROOT", "/tmp/static/")
	v.SetDefault("STATIC_SOURCE_DIR", "static")
	v.SetDefault("MEDIA_ROOT", "/tmp/media/")
	v.SetDefault("DEFAULT_FILE_STORAGE", BackendS3)
	v.SetDefault("STATICFILES_STORAGE", BackendS3)
	v.SetDefault("AWS_DEFAULT_ACL", "public-read")
	v.SetDefault("AWS_QUERYSTRING_AUTH", "false")
	v.SetDefault("DBBACKUP_STORAGE", BackendS3)
	v.SetDefault("DBBACKUP_ROOT", "/tmp/backups/")
	v.SetDefault("USE_SENTRY", "false")
}

// mergeEnvFile layers the override file beneath the process environment.
// A missing file is not an error.
func mergeEnvFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("%w: reading env file %s: %v", ErrInvalidConfig, path, err)
	}

	m := make(map[string]any, len(values))
	for k, val := range values {
		m[k] = val
	}
	if err := v.MergeConfigMap(m); err != nil {
		return fmt.Errorf("%w: merging env file %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

// loader records every failure instead of stopping at the first one.
type loader struct {
	v    *viper.Viper
	errs *ValidationError
}

func (l *loader) str(key string) string {
	return strings.TrimSpace(l.v.GetString(key))
}

func (l *loader) required(key string) string {
	s := l.str(key)
	if s == "" {
		l.errs.add(key, ErrMissingVariable)
	}
	return s
}

func (l *loader) boolean(key string) bool {
	b, err := ParseBool(l.str(key))
	if err != nil {
		l.errs.add(key, err)
	}
	return b
}

func (l *loader) integer(key string) int {
	n, err := ParseInt(l.str(key))
	if err != nil {
		l.errs.add(key, err)
	}
	return n
}

func (l *loader) list(key string, required bool) []string {
	s := l.str(key)
	if s == "" {
		if required {
			l.errs.add(key, ErrMissingVariable)
		}
		return []string{}
	}
	items := ParseList(s)
	if required && len(items) == 0 {
		l.errs.add(key, fmt.Errorf("%w: list is empty", ErrMalformedValue))
	}
	return items
}

func (l *loader) backend(key string) string {
	b, err := NormalizeStorageBackend(l.str(key))
	if err != nil {
		l.errs.add(key, err)
	}
	return b
}

func (l *loader) build() *Config {
	project := l.str("PROJECT_NAME")

	cfg := &Config{
		SecretKey:           l.required("SECRET_KEY"),
		Debug:               l.boolean("DEBUG"),
		AllowedHosts:        l.list("ALLOWED_HOSTS", true),
		ProjectName:         project,
		LoginRedirectURL:    l.str("LOGIN_REDIRECT_URL"),
		InstalledComponents: installedComponents(),
		Middleware:          append([]string(nil), DefaultMiddleware...),
		Templates: TemplateConfig{
			Dirs:              l.list("TEMPLATE_DIRS", false),
			AppDirs:           true,
			ContextProcessors: append([]string(nil), DefaultContextProcessors...),
		},
		PasswordValidators: DefaultPasswordValidators(),
		REST:               defaultREST(),
		CORS:               CORSConfig{AllowedOrigins: l.list("CORS_ALLOWED_ORIGINS", false)},
	}

	cfg.Server = ServerConfig{
		Port:     l.integer("PORT"),
		LogLevel: strings.ToLower(l.str("LOG_LEVEL")),
	}

	maxAge := l.integer("DATABASE_CON_MAX_AGE")
	if rawURL := l.required("DATABASE_URL"); rawURL != "" {
		db, err := ParseDatabaseURL(rawURL, time.Duration(maxAge)*time.Second)
		if err != nil {
			l.errs.add("DATABASE_URL", err)
		}
		cfg.Database = db
	}

	cfg.Localization = l.localization()

	cfg.Static = FilesConfig{
		URL:       StaticURL,
		Root:      l.str("STATIC_ROOT"),
		Backend:   l.backend("STATICFILES_STORAGE"),
		SourceDir: l.str("STATIC_SOURCE_DIR"),
	}
	cfg.Media = FilesConfig{
		URL:     MediaURL,
		Root:    l.str("MEDIA_ROOT"),
		Backend: l.backend("DEFAULT_FILE_STORAGE"),
	}

	cfg.Storage = S3Config{
		Region:          l.str("AWS_S3_REGION_NAME"),
		EndpointURL:     l.str("AWS_S3_ENDPOINT_URL"),
		AccessKeyID:     l.str("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: l.str("AWS_SECRET_ACCESS_KEY"),
		BucketName:      l.str("AWS_STORAGE_BUCKET_NAME"),
		DefaultACL:      l.str("AWS_DEFAULT_ACL"),
		QueryStringAuth: l.boolean("AWS_QUERYSTRING_AUTH"),
		QueryExpire:     QueryStringExpire,
	}

	backupProject := l.str("DBBACKUP_PROJECT_NAME")
	if backupProject == "" {
		backupProject = project
	}
	cfg.Backup = BackupConfig{
		Backend:          l.backend("DBBACKUP_STORAGE"),
		AccessKey:        l.str("DBBACKUP_ACCESS_KEY"),
		SecretAccessKey:  l.str("DBBACKUP_SECRET_ACCESS_KEY"),
		BucketName:       l.str("DBBACKUP_BUCKET_NAME"),
		EndpointURL:      l.str("DBBACKUP_ENDPOINT_URL"),
		Region:           l.str("AWS_S3_REGION_NAME"),
		DefaultACL:       BackupDefaultACL,
		Location:         l.str("DBBACKUP_PROJECT_NAME"),
		FilenameTemplate: backupProject + "-{datetime}.{extension}",
		CleanupKeep:      BackupCleanupKeep,
		Root:             l.str("DBBACKUP_ROOT"),
	}

	cfg.Logging = LoggingConfig{
		Level:            cfg.Server.LogLevel,
		Format:           "json",
		FieldRenames:     DefaultFieldRenames(),
		CorrelationField: "cid",
	}

	cfg.Schema = SchemaConfig{
		Title:               project + " API",
		Description:         project,
		Version:             version.Version,
		ServePermissions:    []string{"authenticated"},
		ServeAuthentication: []string{"session"},
		PostprocessingHooks: []string{"add_servers"},
	}

	cfg.Sentry = SentryConfig{
		Enabled: l.boolean("USE_SENTRY"),
		DSN:     l.str("SENTRY_DSN"),
	}

	cfg.Correlation = CorrelationConfig{
		Generate:       true,
		Header:         CorrelationHeader,
		ResponseHeader: CorrelationResponseHeader,
	}

	return cfg
}

func (l *loader) localization() LocalizationConfig {
	loc := LocalizationConfig{
		LanguageCode: l.str("LANGUAGE_CODE"),
		TimeZone:     l.str("TIME_ZONE"),
		UseI18N:      true,
		UseL10N:      true,
		UseTZ:        true,
	}

	if _, err := language.Parse(loc.LanguageCode); err != nil {
		l.errs.add("LANGUAGE_CODE", fmt.Errorf("%w: %v", ErrMalformedValue, err))
	}

	tz, err := time.LoadLocation(loc.TimeZone)
	if err != nil {
		l.errs.add("TIME_ZONE", fmt.Errorf("%w: %v", ErrMalformedValue, err))
		tz = time.UTC
	}
	loc.Location = tz

	return loc
}

// namespaceVariables maps struct paths reported by the validator back to the
// environment variable that populated them.
var namespaceVariables = map[string]string{
	"Config.SecretKey":           "SECRET_KEY",
	"Config.AllowedHosts":        "ALLOWED_HOSTS",
	"Config.ProjectName":         "PROJECT_NAME",
	"Config.LoginRedirectURL":    "LOGIN_REDIRECT_URL",
	"Config.Server.Port":         "PORT",
	"Config.Server.LogLevel":     "LOG_LEVEL",
	"Config.Database":            "DATABASE_URL",
	"Config.Static.Root":         "STATIC_ROOT",
	"Config.Media.Root":          "MEDIA_ROOT",
	"Config.Storage.EndpointURL": "AWS_S3_ENDPOINT_URL",
	"Config.Backup.EndpointURL":  "DBBACKUP_ENDPOINT_URL",
}

func variableFor(namespace string) string {
	if v, ok := namespaceVariables[namespace]; ok {
		return v
	}
	for prefix, v := range namespaceVariables {
		if strings.HasPrefix(namespace, prefix+".") || strings.HasPrefix(namespace, prefix+"[") {
			return v
		}
	}
	return strings.TrimPrefix(namespace, "Config.")
}

func ruleOf(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fe.Tag() + "=" + fe.Param()
	}
	return fe.Tag()
}
