// Package version identifies the source revision the binary was built from.
package version

import "runtime/debug"

// Unknown is reported when no revision is available.
const Unknown = "unknown"

// GitCommit is set at build time:
//
//	go build -ldflags "-X github.com/cwbudde/insn-bench/internal/version.GitCommit=$(git rev-parse --short HEAD)"
var GitCommit = Unknown

// Commit returns GitCommit, falling back to the VCS revision the go command
// stamps into module builds, then to Unknown.
func Commit() string {
	if GitCommit != "" && GitCommit != Unknown {
		return GitCommit
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Unknown
	}

	return revision(info.Settings)
}

func revision(settings []debug.BuildSetting) string {
	var rev string

	modified := false

	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}

	if rev == "" {
		return Unknown
	}

	if len(rev) > 12 {
		rev = rev[:12]
	}

	if modified {
		rev += "-dirty"
	}

	return rev
}
