package buildconfig

import "fmt"

// Set with -ldflags "-X github.com/Harshitk-cp/ambient/internal/buildconfig.version=..."
var (
	version = "dev"
	commit  = "unknown"
	date    = ""
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// String formats the build for the version command.
func String() string {
	if date == "" {
		return fmt.Sprintf("%s (%s)", version, commit)
	}
	return fmt.Sprintf("%s (%s, built %s)", version, commit, date)
}
