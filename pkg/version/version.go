// Package version holds the build version of the exhibit server.
package version

// Version is replaced at build time:
//
//	go build -ldflags "-X organtour/pkg/version.Version=v0.4.1"
var Version = "v0.4.0"

// Commit is the source revision, empty for local builds.
var Commit = ""

// String returns the version with the commit appended when known.
func String() string {
	if Commit == "" {
		return Version
	}
	return Version + " (" + Commit + ")"
}
