package info

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

var (
	name    = "bufrng"
	license = "GPLv3"

	// Set via ldflags, with "_" instead of spaces.
	version     = "dev build"
	buildSource = "unknown"
	buildTime   = "unknown"

	info     *Info
	loadInfo sync.Once
)

// Info holds the programs meta information.
type Info struct {
	Name          string
	Version       string
	VersionNumber string
	License       string

	Source    string
	BuildTime string
	CGO       bool

	Commit     string
	CommitTime string
	Dirty      bool
}

// Set sets meta information via the main routine. It must be called before
// the first call to GetInfo.
func Set(setName, setVersion, setLicense string) {
	if setName != "" {
		name = setName
	}
	if setVersion != "" {
		version = setVersion
	}
	if setLicense != "" {
		license = setLicense
	}
}

// GetInfo returns all the meta information about the program.
func GetInfo() *Info {
	loadInfo.Do(func() {
		settings := buildSettings()

		v := strings.TrimSpace(strings.ReplaceAll(strings.TrimPrefix(version, "v"), "_", " "))
		if settings["vcs.modified"] == "true" && !strings.HasSuffix(v, "dev build") {
			v += " dev build"
		}
		number := strings.TrimSpace(strings.TrimSuffix(v, "dev build"))
		if number == "" {
			number = "0.0.0"
		}

		info = &Info{
			Name:          name,
			Version:       v,
			VersionNumber: number,
			License:       license,
			Source:        strings.ReplaceAll(buildSource, "_", " "),
			BuildTime:     strings.ReplaceAll(buildTime, "_", " "),
			CGO:           settings["CGO_ENABLED"] == "1",
			Commit:        valueOr(settings["vcs.revision"], "unknown"),
			CommitTime:    valueOr(settings["vcs.time"], "unknown"),
			Dirty:         settings["vcs.modified"] == "true",
		}
	})

	return info
}

func buildSettings() map[string]string {
	settings := make(map[string]string)
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return settings
	}
	for _, setting := range buildInfo.Settings {
		settings[setting.Key] = setting.Value
	}
	return settings
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// Version returns the annotated version.
func Version() string {
	return GetInfo().Version
}

// VersionNumber returns the version number only.
func VersionNumber() string {
	return GetInfo().VersionNumber
}

// FullVersion returns the full and detailed version string, followed by the
// given components as "name: value" lines.
func FullVersion(components ...[2]string) string {
	info := GetInfo()
	builder := new(strings.Builder)

	// Name and version.
	fmt.Fprintf(builder, "%s %s\n", info.Name, info.Version)

	// Build info.
	cgoInfo := "-cgo"
	if info.CGO {
		cgoInfo = "+cgo"
	}
	fmt.Fprintf(builder, "\nbuilt with %s (%s %s) for %s/%s\n", runtime.Version(), runtime.Compiler, cgoInfo, runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(builder, "  at %s\n", info.BuildTime)

	// Commit info.
	dirtyInfo := "clean"
	if info.Dirty {
		dirtyInfo = "dirty"
	}
	fmt.Fprintf(builder, "\ncommit %s (%s)\n", info.Commit, dirtyInfo)
	fmt.Fprintf(builder, "  at %s\n", info.CommitTime)
	fmt.Fprintf(builder, "  from %s\n", info.Source)

	if len(components) > 0 {
		builder.WriteString("\n")
		for _, c := range components {
			fmt.Fprintf(builder, "%s: %s\n", c[0], c[1])
		}
	}

	fmt.Fprintf(builder, "\nLicensed under the %s license.", info.License)

	return builder.String()
}
