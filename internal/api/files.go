package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/service-scaffold/internal/config"
)

// MountFiles serves static and media files from disk for the backends that
// use the filesystem. Object-storage backends serve their own URLs.
func MountFiles(r chi.Router, cfg *config.Config) {
	for _, files := range []config.FilesConfig{cfg.Static, cfg.Media} {
		if files.Backend != config.BackendFilesystem {
			continue
		}
		prefix := strings.TrimSuffix(files.URL, "/")
		fs := http.StripPrefix(prefix, noDirListing(http.FileServer(http.Dir(files.Root))))
		r.Handle(prefix+"/*", fs)
	}
}

// noDirListing answers directory requests with 404.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
