// Package buildinfo carries version information stamped in at link time:
//
//	go build -ldflags "-X github.com/matzehuels/depmap/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/depmap/pkg/buildinfo.Commit=$(git rev-parse --short HEAD)" \
//	    ./cmd/depmap
//
// Binaries built with `go install` get the module version and VCS revision
// from the embedded build info instead.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"

	// Commit is the git revision.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	fill(info)
}

func fill(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && Commit == "none":
			Commit = s.Value
			if len(Commit) > 12 {
				Commit = Commit[:12]
			}
		case s.Key == "vcs.time" && Date == "unknown":
			Date = s.Value
		}
	}
}

// String returns the formatted build information.
func String() string {
	return fmt.Sprintf("depmap %s (commit %s, built %s)", Version, Commit, Date)
}

// Template returns the cobra version template.
func Template() string {
	return "{{.Name}} " + fmt.Sprintf("%s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
