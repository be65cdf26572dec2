package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/phrazzld/service-scaffold/internal/config"
	"github.com/phrazzld/service-scaffold/internal/storage"
)

// TimestampLayout formats the {datetime} placeholder.
const TimestampLayout = "2006-01-02-150405"

// Manager creates, lists and prunes backups.
type Manager struct {
	store    storage.Storage
	dumper   Dumper
	template string
	keep     int
	logger   *slog.Logger
	now      func() time.Time
}

// NewManager creates a Manager naming files with cfg.FilenameTemplate and
// keeping cfg.CleanupKeep backups.
func NewManager(store storage.Storage, dumper Dumper, cfg config.BackupConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	keep := cfg.CleanupKeep
	if keep <= 0 {
		keep = config.BackupCleanupKeep
	}
	return &Manager{
		store:    store,
		dumper:   dumper,
		template: cfg.FilenameTemplate,
		keep:     keep,
		logger:   logger.With("component", "dbbackup"),
		now:      time.Now,
	}
}

// Filename expands template for t and ext.
func Filename(template string, t time.Time, ext string) string {
	return strings.NewReplacer(
		"{datetime}", t.UTC().Format(TimestampLayout),
		"{extension}", ext,
	).Replace(template)
}

// pattern matches every name the template can produce.
func (m *Manager) pattern() *regexp.Regexp {
	quoted := regexp.QuoteMeta(m.template)
	quoted = strings.ReplaceAll(quoted, regexp.QuoteMeta("{datetime}"), `\d{4}-\d{2}-\d{2}-\d{6}`)
	quoted = strings.ReplaceAll(quoted, regexp.QuoteMeta("{extension}"), `[a-z0-9]+`)
	return regexp.MustCompile("^" + quoted + "$")
}

// Run dumps the database, uploads the dump and prunes old backups.
// Returns the stored name.
func (m *Manager) Run(ctx context.Context) (string, error) {
	name := Filename(m.template, m.now(), m.dumper.Extension())

	tmp, err := os.CreateTemp("", "dbbackup-*")
	if err != nil {
		return "", fmt.Errorf("creating temporary dump file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if err := m.dumper.Dump(ctx, tmp); err != nil {
		return "", err
	}
	if _, err := tmp.Seek(0, 0); err != nil {
		return "", fmt.Errorf("rewinding dump: %w", err)
	}
	if err := m.store.Save(ctx, name, tmp); err != nil {
		return "", fmt.Errorf("uploading backup: %w", err)
	}
	m.logger.InfoContext(ctx, "backup stored", slog.String("name", name))

	if _, err := m.Cleanup(ctx); err != nil {
		return name, err
	}
	return name, nil
}

// List returns stored backups, newest first.
func (m *Manager) List(ctx context.Context) ([]storage.Object, error) {
	objs, err := m.store.List(ctx, m.prefix())
	if err != nil {
		return nil, fmt.Errorf("listing backups: %w", err)
	}

	re := m.pattern()
	out := objs[:0]
	for _, o := range objs {
		if re.MatchString(o.Name) {
			out = append(out, o)
		}
	}
	// Timestamps in the name sort chronologically.
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

// Cleanup deletes all but the newest backups and returns the deleted names.
func (m *Manager) Cleanup(ctx context.Context) ([]string, error) {
	objs, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(objs) <= m.keep {
		return nil, nil
	}

	var deleted []string
	for _, o := range objs[m.keep:] {
		if err := m.store.Delete(ctx, o.Name); err != nil {
			return deleted, fmt.Errorf("deleting old backup %s: %w", o.Name, err)
		}
		deleted = append(deleted, o.Name)
		m.logger.InfoContext(ctx, "old backup deleted", slog.String("name", o.Name))
	}
	return deleted, nil
}

// prefix is the literal text before the first placeholder.
func (m *Manager) prefix() string {
	if i := strings.Index(m.template, "{"); i >= 0 {
		return m.template[:i]
	}
	return m.template
}
