package version

var (
	// Set through -ldflags when a release is tagged
	semver   = "0.3.0"
	revision = "unknown"
)

// Get returns the semantic version of the build.
func Get() string {
	return semver
}

func GetRevision() string {
	return revision
}
