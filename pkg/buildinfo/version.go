// Package buildinfo reports which mdgraph build is running.
//
// Release builds set the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/mdgraph/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/mdgraph/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/mdgraph/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Anything left unset is filled from the module and VCS stamps the Go
// toolchain embeds, so "go install .../cmd/mdgraph@v1.0.0" and plain
// "go build" in a checkout still report something useful.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

const (
	unsetVersion = "dev"
	unsetCommit  = "none"
	unsetDate    = "unknown"
)

var (
	// Version is the semantic version (e.g., "v1.2.3").
	Version = unsetVersion

	// Commit is the git commit SHA, suffixed with "-dirty" for modified trees.
	Commit = unsetCommit

	// Date is the build or commit timestamp.
	Date = unsetDate
)

func init() {
	fill(debug.ReadBuildInfo)
}

// fill replaces unset variables with values from the embedded build info.
func fill(read func() (*debug.BuildInfo, bool)) {
	info, ok := read()
	if !ok || info == nil {
		return
	}

	if Version == unsetVersion && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	if rev := settings["vcs.revision"]; Commit == unsetCommit && rev != "" {
		Commit = rev
		if settings["vcs.modified"] == "true" {
			Commit += "-dirty"
		}
	}
	if t := settings["vcs.time"]; Date == unsetDate && t != "" {
		Date = t
	}
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
