// Package version holds build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/banshee-data/firemap/internal/version.Version=v0.3.0"
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

// String renders the build metadata on one line for `firemap version`.
func String() string {
	return fmt.Sprintf("firemap %s (%s, built %s)", Version, GitSHA, BuildTime)
}
