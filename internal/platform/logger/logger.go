package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/phrazzld/service-scaffold/internal/config"
	"github.com/phrazzld/service-scaffold/internal/correlation"
)

type loggerKey struct{}

// ParseLevel maps a configured level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// Setup initializes the application's logging system from cfg. It creates a
// structured JSON logger writing to stdout and sets it as the default logger,
// so the slog package functions (slog.Info, slog.ErrorContext, ...) use it.
func Setup(cfg config.LoggingConfig) (*slog.Logger, error) {
	return SetupWithWriter(os.Stdout, cfg)
}

// SetupWithWriter is Setup with an explicit destination.
func SetupWithWriter(out io.Writer, cfg config.LoggingConfig) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	logger := slog.New(NewECSHandler(out, cfg, level))
	slog.SetDefault(logger)
	return logger, nil
}

// Named returns l tagged with a logger name, reported as log.logger.
func Named(l *slog.Logger, name string) *slog.Logger {
	return l.With(slog.String(LoggerKey, name))
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored in ctx, or the default logger.
// Records logged through it carry ctx's correlation id even when the
// caller uses the non-Context logging methods.
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOrDefault(ctx, slog.Default())
}

// FromContextOrDefault is FromContext with an explicit fallback logger.
func FromContextOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	l, ok := ctx.Value(loggerKey{}).(*slog.Logger)
	if !ok || l == nil {
		l = fallback
	}
	if correlation.FromContext(ctx) == "" {
		return l
	}
	return slog.New(&boundHandler{Handler: l.Handler(), ctx: ctx})
}

// boundHandler substitutes a stored context when a record is logged without one
// that carries a correlation id.
type boundHandler struct {
	slog.Handler
	ctx context.Context
}

func (h *boundHandler) Handle(ctx context.Context, r slog.Record) error {
	if correlation.FromContext(ctx) == "" {
		ctx = h.ctx
	}
	return h.Handler.Handle(ctx, r)
}

func (h *boundHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &boundHandler{Handler: h.Handler.WithAttrs(attrs), ctx: h.ctx}
}

func (h *boundHandler) WithGroup(name string) slog.Handler {
	return &boundHandler{Handler: h.Handler.WithGroup(name), ctx: h.ctx}
}
