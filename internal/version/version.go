// Package version reports the yesand build version.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is set at build time:
//
//	-ldflags="-X github.com/wethinkt/go-yesand/internal/version.Version=v1.0.0"
var Version = ""

// Info is the machine-readable form printed by `yesand version --json`.
type Info struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Revision string `json:"revision,omitempty"`
	Go       string `json:"go,omitempty"`
}

// GetInfo returns version metadata for the named binary.
func GetInfo(name string) Info {
	info := Info{Name: name, Version: Get()}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.Go = bi.GoVersion
		info.Revision = setting(bi, "vcs.revision")
	}
	return info
}

// Get returns the version string: the ldflag value, the module version, a
// dev-<revision> string, or "dev".
func Get() string {
	if Version != "" {
		return Version
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	if rev := setting(bi, "vcs.revision"); len(rev) >= 7 {
		return "dev-" + rev[:7]
	}
	return "dev"
}

// String returns "<name> version <version>".
func String(name string) string {
	return fmt.Sprintf("%s version %s", name, Get())
}

func setting(bi *debug.BuildInfo, key string) string {
	for _, s := range bi.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}
