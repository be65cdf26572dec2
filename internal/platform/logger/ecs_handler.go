package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/phrazzld/service-scaffold/internal/config"
	"github.com/phrazzld/service-scaffold/internal/correlation"
)

// Attribute keys the handler recognizes before renaming.
const (
	LoggerKey      = "logger"
	PIDKey         = "pid"
	ProcessKey     = "process"
	sourceFileKey  = "source.file"
	sourceLineKey  = "source.line"
	sourceFuncKey  = "source.function"
	defaultCIDName = "cid"
)

// ECSHandler is a slog.Handler that renames record fields to their Elastic
// Common Schema names, adds process and source metadata, and attaches the
// correlation id found in the logging context.
type ECSHandler struct {
	// The underlying JSON handler, never grouped so that renamed and
	// enrichment fields stay top-level.
	handler  slog.Handler
	renames  map[string]string
	cidField string
	// Groups and attrs opened through WithGroup, outermost first.
	scopes []scope
}

// scope is either a group name or attrs added inside the open groups.
type scope struct {
	group string
	attrs []slog.Attr
}

// NewECSHandler creates an ECSHandler writing JSON lines to out.
func NewECSHandler(out io.Writer, cfg config.LoggingConfig, level slog.Leveler) *ECSHandler {
	renames := cfg.FieldRenames
	if renames == nil {
		renames = config.DefaultFieldRenames()
	}
	cidField := cfg.CorrelationField
	if cidField == "" {
		cidField = defaultCIDName
	}

	h := &ECSHandler{renames: renames, cidField: cidField}

	jsonHandler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: h.replaceAttr,
	})

	h.handler = jsonHandler.WithAttrs([]slog.Attr{
		slog.Int(PIDKey, os.Getpid()),
		slog.String(ProcessKey, filepath.Base(os.Args[0])),
	})
	return h
}

func (h *ECSHandler) replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	if renamed, ok := h.renames[a.Key]; ok {
		a.Key = renamed
	}
	return a
}

// Enabled implements the slog.Handler interface.
func (h *ECSHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs implements the slog.Handler interface.
func (h *ECSHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	if len(h.scopes) == 0 {
		return &ECSHandler{handler: h.handler.WithAttrs(attrs), renames: h.renames, cidField: h.cidField}
	}
	return h.withScope(scope{attrs: attrs})
}

// WithGroup implements the slog.Handler interface.
func (h *ECSHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.withScope(scope{group: name})
}

func (h *ECSHandler) withScope(s scope) *ECSHandler {
	scopes := make([]scope, len(h.scopes), len(h.scopes)+1)
	copy(scopes, h.scopes)
	return &ECSHandler{
		handler:  h.handler,
		renames:  h.renames,
		cidField: h.cidField,
		scopes:   append(scopes, s),
	}
}

// Handle implements the slog.Handler interface.
func (h *ECSHandler) Handle(ctx context.Context, record slog.Record) error {
	enhanced := record.Clone()
	if len(h.scopes) > 0 {
		enhanced = slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
		enhanced.AddAttrs(h.nest(record)...)
	}

	if record.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{record.PC})
		f, _ := frames.Next()
		enhanced.AddAttrs(
			slog.String(sourceFileKey, f.File),
			slog.Int(sourceLineKey, f.Line),
			slog.String(sourceFuncKey, f.Function),
		)
	}

	if cid := correlation.FromContext(ctx); cid != "" {
		enhanced.AddAttrs(slog.String(h.cidField, cid))
	}

	return h.handler.Handle(ctx, enhanced)
}

// nest wraps the record's attrs in the open groups, innermost first.
func (h *ECSHandler) nest(record slog.Record) []slog.Attr {
	attrs := make([]slog.Attr, 0, record.NumAttrs())
	record.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	for i := len(h.scopes) - 1; i >= 0; i-- {
		s := h.scopes[i]
		if s.group == "" {
			attrs = append(append([]slog.Attr{}, s.attrs...), attrs...)
			continue
		}
		if len(attrs) == 0 {
			continue
		}
		attrs = []slog.Attr{{Key: s.group, Value: slog.GroupValue(attrs...)}}
	}
	return attrs
}
