// Package version exposes build metadata stamped via -ldflags at release
// time. Binaries report these on --version and the monitor serves them
// from /health.
package version

import "fmt"

var (
	// Version is the semantic version of the build, "dev" outside releases.
	Version = "dev"
	// GitSHA is the git commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"
)

// String renders the stamped metadata as a single human-readable line.
func String() string {
	return fmt.Sprintf("wallmask %s (%s, built %s)", Version, GitSHA, BuildTime)
}
