// Package version carries build metadata stamped in by the linker.
package version

import (
	"fmt"
	"runtime"
)

// Set via ldflags at build time:
//
//	go build -ldflags "-X github.com/soyeahso/hubrelay/internal/version.Version=1.0.0
//	  -X github.com/soyeahso/hubrelay/internal/version.Commit=abc123
//	  -X github.com/soyeahso/hubrelay/internal/version.Date=2026-01-01"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns the line printed by `hubrelay version`.
func Info() string {
	return fmt.Sprintf("hubrelay %s (commit: %s, built: %s, %s/%s)",
		Version, ShortCommit(), Date, runtime.GOOS, runtime.GOARCH)
}

// UserAgent identifies hubrelay on outbound calls to HubSpot and the
// completion provider.
func UserAgent() string {
	return fmt.Sprintf("hubrelay/%s (+%s)", Version, ShortCommit())
}

// ShortCommit returns the first seven characters of Commit.
func ShortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
