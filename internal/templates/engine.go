package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aymerick/raymond"

	"github.com/phrazzld/service-scaffold/internal/config"
)

// Extension is the file suffix of every template.
const Extension = ".hbs"

const partialsDir = "partials"

//go:embed files
var embedded embed.FS

// ErrTemplateNotFound is returned when no template directory holds the name.
var ErrTemplateNotFound = errors.New("template not found")

// Options configure an Engine.
type Options struct {
	Templates config.TemplateConfig
	Debug     bool
	StaticURL string
	Location  *time.Location
}

// Engine loads, compiles and caches Handlebars templates.
type Engine struct {
	sources    []fs.FS
	opts       Options
	processors []Processor

	cache map[string]*raymond.Template
	mu    sync.RWMutex
}

// NewEngine creates a template engine searching the configured directories
// before the embedded templates. Unknown context processors are an error.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.StaticURL == "" {
		opts.StaticURL = config.StaticURL
	}

	e := &Engine{
		opts:  opts,
		cache: make(map[string]*raymond.Template),
	}

	for _, dir := range opts.Templates.Dirs {
		e.sources = append(e.sources, os.DirFS(dir))
	}
	if opts.Templates.AppDirs {
		sub, err := fs.Sub(embedded, "files")
		if err != nil {
			return nil, fmt.Errorf("opening embedded templates: %w", err)
		}
		e.sources = append(e.sources, sub)
	}

	for _, name := range opts.Templates.ContextProcessors {
		p, ok := processorsByName[name]
		if !ok {
			return nil, fmt.Errorf("unknown context processor %q", name)
		}
		e.processors = append(e.processors, p)
	}

	return e, nil
}

// Render renders the named template (without extension) with data.
func (e *Engine) Render(name string, data any) (string, error) {
	tmpl, err := e.getTemplate(name)
	if err != nil {
		return "", err
	}

	result, err := tmpl.Exec(data)
	if err != nil {
		return "", fmt.Errorf("template %s execution failed: %w", name, err)
	}
	return result, nil
}

// getTemplate gets a compiled template from cache or compiles it.
// The cache is bypassed in debug mode so template edits show up immediately.
func (e *Engine) getTemplate(name string) (*raymond.Template, error) {
	if !e.opts.Debug {
		e.mu.RLock()
		if tmpl, ok := e.cache[name]; ok {
			e.mu.RUnlock()
			return tmpl, nil
		}
		e.mu.RUnlock()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.cache[name]; ok && !e.opts.Debug {
		return tmpl, nil
	}

	source, err := e.readSource(name + Extension)
	if err != nil {
		return nil, err
	}

	tmpl, err := raymond.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("template %s parse error: %w", name, err)
	}

	partials, err := e.partials()
	if err != nil {
		return nil, err
	}
	tmpl.RegisterPartials(partials)
	e.registerHelpers(tmpl)

	e.cache[name] = tmpl
	return tmpl, nil
}

// readSource returns the first match for path across the template sources.
func (e *Engine) readSource(path string) (string, error) {
	for _, src := range e.sources {
		b, err := fs.ReadFile(src, path)
		if err == nil {
			return string(b), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("reading template %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
}

// partials collects every partial, earlier sources overriding later ones.
func (e *Engine) partials() (map[string]string, error) {
	out := make(map[string]string)
	for i := len(e.sources) - 1; i >= 0; i-- {
		entries, err := fs.ReadDir(e.sources[i], partialsDir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("listing partials: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != Extension {
				continue
			}
			b, err := fs.ReadFile(e.sources[i], partialsDir+"/"+entry.Name())
			if err != nil {
				return nil, fmt.Errorf("reading partial %s: %w", entry.Name(), err)
			}
			out[strings.TrimSuffix(entry.Name(), Extension)] = string(b)
		}
	}
	return out, nil
}

// ClearCache drops every compiled template.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]*raymond.Template)
}

func (e *Engine) registerHelpers(tmpl *raymond.Template) {
	staticURL := e.opts.StaticURL
	loc := e.opts.Location

	tmpl.RegisterHelper("static", func(path string) string {
		return staticURL + strings.TrimPrefix(path, "/")
	})

	tmpl.RegisterHelper("date", func(value any) string {
		switch t := value.(type) {
		case time.Time:
			return t.In(loc).Format("2006-01-02 15:04 MST")
		case *time.Time:
			if t == nil {
				return "-"
			}
			return t.In(loc).Format("2006-01-02 15:04 MST")
		default:
			return "-"
		}
	})

	tmpl.RegisterHelper("yesno", func(value any) string {
		if raymond.IsTrue(value) {
			return "yes"
		}
		return "no"
	})
}
