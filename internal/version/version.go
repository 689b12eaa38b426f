// Package version reports the siteforge build version.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/siteforge/internal/version.Version=v0.3.0".
var Version = "unknown"

// Build metadata, also set via ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Resolved returns Version, falling back to the main module version recorded
// by go install.
func Resolved() string {
	if Version != "unknown" && Version != "" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return Version
}

// String is the one-line form printed by --version.
func String() string {
	return fmt.Sprintf("siteforge %s (commit %s, built %s)", Resolved(), GitCommit, BuildTime)
}
