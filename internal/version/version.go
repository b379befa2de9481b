// Package version carries build metadata injected with -ldflags.
package version

import "fmt"

var (
	// Version is the release tag of sphere-compare.
	Version = "dev"
	// GitSHA is the git commit SHA.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String formats the build metadata for -version output.
func String() string {
	return fmt.Sprintf("sphere-compare %s (commit %s, built %s)", Version, GitSHA, BuildTime)
}
