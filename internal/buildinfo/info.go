// Package buildinfo holds version metadata stamped into the txenrich binary.
package buildinfo

// Set with -ldflags "-X github.com/cleared-dev/txenrich/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
