package config

// Component names recognised by the application registry.
const (
	ComponentAdmin            = "admin"
	ComponentAuth             = "auth"
	ComponentSessions         = "sessions"
	ComponentMessages         = "messages"
	ComponentStaticFiles      = "staticfiles"
	ComponentSchema           = "schema"
	ComponentCORS             = "cors"
	ComponentHealth           = "health"
	ComponentHealthDB         = "health.db"
	ComponentHealthMigrations = "health.migrations"
	ComponentCorrelation      = "correlation"
)

// BaseComponents are always installed.
var BaseComponents = []string{
	ComponentAdmin,
	ComponentAuth,
	ComponentSessions,
	ComponentMessages,
	ComponentStaticFiles,
}

// ExternalComponents wire the third-party integrations.
var ExternalComponents = []string{
	ComponentSchema,
	ComponentCORS,
	ComponentHealth,
	ComponentHealthDB,
	ComponentHealthMigrations,
	ComponentCorrelation,
}

// ProjectComponents is where project-specific components get registered.
var ProjectComponents = []string{}

// DefaultMiddleware is the ordered middleware chain wrapped around the router.
// The first entry is the outermost handler.
var DefaultMiddleware = []string{
	"correlation",
	"security",
	"sessions",
	"common",
	"csrf",
	"authentication",
	"messages",
	"clickjacking",
	"cors",
}

// DefaultContextProcessors add values to every rendered template.
var DefaultContextProcessors = []string{"debug", "request", "auth", "messages"}

// DefaultPasswordValidators returns the password rules applied to admin accounts.
func DefaultPasswordValidators() []PasswordValidatorConfig {
	return []PasswordValidatorConfig{
		{Name: "user_attribute_similarity", Options: map[string]any{
			"max_similarity": 0.7,
			"attributes":     []string{"username", "email"},
		}},
		{Name: "minimum_length", Options: map[string]any{"min_length": 8}},
		{Name: "common"},
		{Name: "numeric"},
	}
}

// DefaultFieldRenames maps slog field names onto Elastic Common Schema names.
func DefaultFieldRenames() map[string]string {
	return map[string]string{
		"level":           "log.level",
		"msg":             "message",
		"time":            "@timestamp",
		"source.file":     "log.origin.file.name",
		"source.line":     "log.origin.file.line",
		"source.function": "log.origin.function",
		"logger":          "log.logger",
		"pid":             "process.pid",
		"process":         "process.name",
	}
}

func defaultREST() RESTConfig {
	return RESTConfig{
		Renderers:      []string{"json"},
		Parsers:        []string{"json"},
		Authentication: []string{},
		Permissions:    []string{"authenticated"},
		SchemaClass:    "openapi",
	}
}

func installedComponents() []string {
	out := make([]string, 0, len(BaseComponents)+len(ExternalComponents)+len(ProjectComponents))
	out = append(out, BaseComponents...)
	out = append(out, ExternalComponents...)
	out = append(out, ProjectComponents...)
	return out
}
