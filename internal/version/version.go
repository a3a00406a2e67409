// Package version provides build-time version information for canelevation.
package version

import (
	"fmt"
	"runtime"
	"time"
)

// Build-time variables, set via ldflags:
//
//	go build -ldflags "-X canelevation/internal/version.Version=1.0.0 \
//	                   -X canelevation/internal/version.Commit=abc123 \
//	                   -X canelevation/internal/version.BuildTime=2024-01-01T00:00:00Z"
var (
	Version   = "0.1.0-dev"
	Commit    = "unknown"
	BuildTime = ""
)

// Info contains version information.
type Info struct {
	Version     string    `json:"version" yaml:"version"`
	Commit      string    `json:"commit" yaml:"commit"`
	BuildTime   time.Time `json:"build_time" yaml:"build_time"`
	GoVersion   string    `json:"go_version" yaml:"go_version"`
	OS          string    `json:"os" yaml:"os"`
	Arch        string    `json:"arch" yaml:"arch"`
	PDALVersion string    `json:"pdal_version,omitempty" yaml:"pdal_version,omitempty"`
}

// Get returns the version information.
func Get() Info {
	var buildTime time.Time
	if BuildTime != "" {
		if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
			buildTime = t
		}
	}

	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// String returns a short version string.
func (i Info) String() string {
	if i.Commit != "unknown" && len(i.Commit) > 7 {
		return fmt.Sprintf("%s (%s)", i.Version, i.Commit[:7])
	}
	return i.Version
}

// UserAgent returns the HTTP user agent for outgoing requests.
func UserAgent(base string) string {
	if base == "" {
		base = "canelevation"
	}
	return base + "/" + Version
}
