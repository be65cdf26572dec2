// Package version exposes build metadata set through -ldflags.
package version

import (
	"runtime"
	"runtime/debug"
)

// Set during build, e.g.
//
//	go build -ldflags "-X github.com/phrazzld/service-scaffold/internal/version.Version=1.2.0"
var (
	Version   = "0.1.0"
	Commit    = ""
	BuildTime = ""
)

// Info describes the running binary.
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
}

// Get returns build information for the named project. Commit and build time
// fall back to the VCS stamp embedded by the Go toolchain.
func Get(name string) Info {
	info := Info{
		Name:      name,
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			}
		}
	}
	return info
}
