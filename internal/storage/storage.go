package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/phrazzld/service-scaffold/internal/config"
)

// Common errors returned by every backend.
var (
	ErrNotFound    = errors.New("object not found")
	ErrInvalidName = errors.New("invalid object name")
)

// Object describes one stored file.
type Object struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Storage is a flat namespace of named files. Names use forward slashes.
type Storage interface {
	// Save writes r under name, replacing any existing object.
	Save(ctx context.Context, name string, r io.Reader) error

	// Open returns the content of name. Returns ErrNotFound if it does not exist.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Delete removes name. Deleting a missing object is not an error.
	Delete(ctx context.Context, name string) error

	// Exists reports whether name is stored.
	Exists(ctx context.Context, name string) (bool, error)

	// List returns every object whose name starts with prefix, sorted by name.
	List(ctx context.Context, prefix string) ([]Object, error)

	// URL returns the address clients use to fetch name.
	URL(ctx context.Context, name string) (string, error)
}

// cleanName normalizes name and rejects names escaping the storage root.
func cleanName(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	if name == "" || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	cleaned := path.Clean(name)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return cleaned, nil
}

// Static returns the storage for collected static files.
func Static(ctx context.Context, cfg *config.Config) (Storage, error) {
	return open(ctx, cfg.Static.Backend, cfg.Static.Root, cfg.Static.URL, S3Options{
		Bucket:          cfg.Storage.BucketName,
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.EndpointURL,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		DefaultACL:      cfg.Storage.DefaultACL,
		QueryStringAuth: cfg.Storage.QueryStringAuth,
		QueryExpire:     cfg.Storage.QueryExpire,
	})
}

// Media returns the storage for uploaded files.
func Media(ctx context.Context, cfg *config.Config) (Storage, error) {
	return open(ctx, cfg.Media.Backend, cfg.Media.Root, cfg.Media.URL, S3Options{
		Bucket:          cfg.Storage.BucketName,
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.EndpointURL,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		DefaultACL:      cfg.Storage.DefaultACL,
		QueryStringAuth: cfg.Storage.QueryStringAuth,
		QueryExpire:     cfg.Storage.QueryExpire,
	})
}

// Backups returns the private storage database backups are written to.
func Backups(ctx context.Context, cfg *config.Config) (Storage, error) {
	return open(ctx, cfg.Backup.Backend, cfg.Backup.Root, "", S3Options{
		Bucket:          cfg.Backup.BucketName,
		Region:          cfg.Backup.Region,
		Endpoint:        cfg.Backup.EndpointURL,
		AccessKeyID:     cfg.Backup.AccessKey,
		SecretAccessKey: cfg.Backup.SecretAccessKey,
		DefaultACL:      cfg.Backup.DefaultACL,
		Location:        cfg.Backup.Location,
		QueryStringAuth: true,
		QueryExpire:     config.QueryStringExpire,
	})
}

func open(ctx context.Context, backend, root, baseURL string, s3opts S3Options) (Storage, error) {
	switch backend {
	case config.BackendFilesystem:
		return NewFileSystem(root, baseURL)
	case config.BackendS3:
		return NewS3(ctx, s3opts)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
