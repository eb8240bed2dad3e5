// Package buildinfo carries the version stamped in at link time:
//
//	go build -ldflags "-X github.com/m3rciful/shoebot/core/buildinfo.Version=v1.4.0 \
//	  -X github.com/m3rciful/shoebot/core/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/m3rciful/shoebot/core/buildinfo.Date=$(date -u +%FT%TZ)"
package buildinfo

import "runtime/debug"

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// String returns the version with the commit when one is known. Without
// ldflags the commit comes from the VCS stamp of the Go toolchain.
func String() string {
	commit := Commit
	if commit == "" {
		commit = vcsRevision()
	}
	if commit == "" {
		return Version
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return Version + " (" + commit + ")"
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
