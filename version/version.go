// Package version holds build information for the tysh binary.
// The variables can be overridden at build time via -ldflags.
package version

var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""
)

// String returns the version with the commit appended when known.
func String() string {
	if GitCommit == "" {
		return Version
	}
	return Version + " (" + GitCommit + ")"
}
