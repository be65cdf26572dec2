// Package errtrack reports unhandled errors to Sentry when it is enabled.
//
// Initialization is an explicit startup step. Nothing happens at import time,
// and a Tracker initializes the client at most once.
package errtrack

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"

	"github.com/phrazzld/service-scaffold/internal/config"
	"github.com/phrazzld/service-scaffold/internal/correlation"
	"github.com/phrazzld/service-scaffold/internal/redact"
	"github.com/phrazzld/service-scaffold/internal/version"
)

// InitFunc initializes the Sentry client. sentry.Init in production.
type InitFunc func(sentry.ClientOptions) error

// Tracker owns the error-tracking client lifecycle.
type Tracker struct {
	initFn InitFunc
	once   sync.Once
	active bool
	err    error
}

// New creates a Tracker that initializes through initFn.
func New(initFn InitFunc) *Tracker {
	if initFn == nil {
		initFn = sentry.Init
	}
	return &Tracker{initFn: initFn}
}

// Init starts error tracking when cfg is enabled and has a DSN; otherwise it
// does nothing. Only the first call has any effect.
func (t *Tracker) Init(cfg config.SentryConfig, debug bool) (bool, error) {
	t.once.Do(func() {
		if !cfg.Active() {
			slog.Debug("error tracking disabled")
			return
		}

		environment := "production"
		if debug {
			environment = "development"
		}
		t.err = t.initFn(sentry.ClientOptions{
			Dsn:              cfg.DSN,
			Release:          version.Version,
			Environment:      environment,
			AttachStacktrace: true,
			BeforeSend:       scrubEvent,
		})
		if t.err != nil {
			slog.Error("failed to initialize error tracking", "error", redact.Error(t.err))
			return
		}
		t.active = true
		slog.Info("error tracking enabled",
			slog.String("release", version.Version),
			slog.String("environment", environment))
	})
	return t.active, t.err
}

// Active reports whether Init started the client.
func (t *Tracker) Active() bool {
	return t.active
}

// Wrap reports panics in h when tracking is active. Panics are re-raised.
func (t *Tracker) Wrap(h http.Handler) http.Handler {
	if !t.active {
		return h
	}
	return sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle(h)
}

// Capture reports err with the request's correlation id as a tag.
func (t *Tracker) Capture(ctx context.Context, err error) {
	if !t.active || err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		if cid := correlation.FromContext(ctx); cid != "" {
			scope.SetTag("cid", cid)
		}
		hub.CaptureException(err)
	})
}

// Flush waits up to timeout for queued events to be sent.
func (t *Tracker) Flush(timeout time.Duration) bool {
	if !t.active {
		return true
	}
	return sentry.Flush(timeout)
}

// scrubEvent masks credentials in exception messages before they leave the process.
func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	event.Message = redact.String(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = redact.String(event.Exception[i].Value)
	}
	return event
}
