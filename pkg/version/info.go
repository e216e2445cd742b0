// Package version exposes build metadata for the mongorepo binary.
package version

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	driver "go.mongodb.org/mongo-driver/version"
)

const (
	// Unknown is used when build metadata is not provided.
	Unknown = "unknown"
	// DevelopmentVersion is the default version in local builds.
	DevelopmentVersion = "dev"
	// ServiceName is reported when the caller does not name the binary.
	ServiceName = "mongorepo"
)

var (
	// AppVersion is intended to be overridden at build time:
	// go build -ldflags="-X github.com/nimburion/mongorepo/pkg/version.AppVersion=v1.2.3"
	AppVersion = DevelopmentVersion

	// GitCommit is intended to be overridden at build time.
	GitCommit = Unknown

	// BuildTime is intended to be overridden at build time (RFC3339 recommended).
	BuildTime = Unknown
)

// Info contains version metadata for the binary and the driver it links.
type Info struct {
	Service       string `json:"service" yaml:"service"`
	Version       string `json:"version" yaml:"version"`
	Commit        string `json:"commit" yaml:"commit"`
	BuildTime     string `json:"build_time" yaml:"build_time"`
	GoVersion     string `json:"go_version" yaml:"go_version"`
	DriverVersion string `json:"mongo_driver_version" yaml:"mongo_driver_version"`
}

// Current returns the current build version metadata.
func Current(serviceName string) Info {
	return Info{
		Service:       normalizeOrDefault(serviceName, ServiceName),
		Version:       normalizeOrDefault(AppVersion, DevelopmentVersion),
		Commit:        normalizeOrDefault(GitCommit, Unknown),
		BuildTime:     normalizeOrDefault(BuildTime, Unknown),
		GoVersion:     runtime.Version(),
		DriverVersion: normalizeOrDefault(driver.Driver, Unknown),
	}
}

// ParseBuildTime parses BuildTime as RFC3339 if present.
func (i Info) ParseBuildTime() (time.Time, bool) {
	if i.BuildTime == "" || i.BuildTime == Unknown {
		return time.Time{}, false
	}

	ts, err := time.Parse(time.RFC3339, i.BuildTime)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// String returns a log-friendly representation.
func (i Info) String() string {
	return fmt.Sprintf("%s@%s (commit=%s, build_time=%s, go=%s, mongo-driver=%s)",
		i.Service, i.Version, i.Commit, i.BuildTime, i.GoVersion, i.DriverVersion)
}

func normalizeOrDefault(v, fallback string) string {
	norm := strings.TrimSpace(v)
	if norm == "" {
		return fallback
	}
	return norm
}
