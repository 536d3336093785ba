// Package version holds build metadata injected via ldflags:
//
//	go build -ldflags "-X github.com/kailas-cloud/matchdex/internal/version.Version=v1.2.0 ..."
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build as "v1.2.0 (abc1234, 2026-01-02)".
func String() string {
	return Version + " (" + Commit + ", " + Date + ")"
}
