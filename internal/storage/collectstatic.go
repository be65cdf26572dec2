package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
)

// CollectStatic copies every file from sources into dst. When two sources
// hold the same name the earlier source wins. Returns the number of files copied.
func CollectStatic(ctx context.Context, dst Storage, logger *slog.Logger, sources ...fs.FS) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	seen := make(map[string]bool)
	copied := 0
	for _, src := range sources {
		err := fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() || seen[p] {
				return nil
			}
			seen[p] = true

			f, err := src.Open(p)
			if err != nil {
				return fmt.Errorf("opening %s: %w", p, err)
			}
			defer func() { _ = f.Close() }()

			if err := dst.Save(ctx, p, f); err != nil {
				return err
			}
			logger.DebugContext(ctx, "collected static file", slog.String("name", p))
			copied++
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return copied, fmt.Errorf("collecting static files: %w", err)
		}
	}

	logger.InfoContext(ctx, "static files collected", slog.Int("count", copied))
	return copied, nil
}
