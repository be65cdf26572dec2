package templates

import (
	"embed"
	"io/fs"
)

//go:embed static
var staticFiles embed.FS

// StaticFiles returns the assets shipped with the admin templates, rooted so
// that names match their URL below the static prefix.
func StaticFiles() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
