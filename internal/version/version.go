// Package version carries build metadata stamped in at link time via
// -ldflags "-X ...". Unstamped builds identify themselves as dev.
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String renders the stamped metadata as one human-readable line.
func String() string {
	return fmt.Sprintf("%s (%s) built %s", Version, GitSHA, BuildTime)
}
