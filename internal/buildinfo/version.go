// Package buildinfo reports the version of the running cursor-bucket binary.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// version can be stamped at link time:
//
//	go build -ldflags "-X github.com/tsukumogami/cursor-bucket/internal/buildinfo.version=v1.2.0"
var version string

// Version returns the version string for the current build.
//
// A linker-stamped version wins. Otherwise a module version from go install
// is used, and development builds report "dev-<hash>[-dirty]", "dev" when
// there is no VCS info, or "unknown" if build info cannot be read.
func Version() string {
	if version != "" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	return fromBuildInfo(info)
}

// UserAgent is the User-Agent sent to the release feed and download host.
func UserAgent() string {
	return fmt.Sprintf("cursor-bucket/%s (%s; %s)", Version(), runtime.GOOS, runtime.GOARCH)
}

func fromBuildInfo(info *debug.BuildInfo) string {
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	var revision string
	var modified bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if revision == "" {
		return "dev"
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}

	v := "dev-" + revision
	if modified {
		v += "-dirty"
	}
	return v
}
