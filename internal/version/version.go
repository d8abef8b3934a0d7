// Package version holds build identification, stamped via -ldflags.
package version

var (
	// Version is the release version, "dev" for local builds.
	Version = "dev"
	// GitSHA is the git commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String renders the build identification as a single line.
func String() string {
	return Version + " (" + GitSHA + ", built " + BuildTime + ")"
}
