// Package version holds the build identity of repowiki.
package version

import "runtime"

// Overridden at build time:
// go build -ldflags "-X repowiki/internal/version.Version=1.0.0 -X repowiki/internal/version.Commit=abc123"
var (
	Version   = "0.4.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns the version with a short commit suffix when known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Build is the structured form used by `repowiki version --format json`.
type Build struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
}

// Current returns the build identity of the running binary.
func Current() Build {
	return Build{Version: Version, Commit: Commit, BuildDate: BuildDate, GoVersion: runtime.Version()}
}
