// internal/version/version.go

package version

// Version information, overridden at build time with -ldflags "-X".
var (
	Version    = "0.3.0-dev"
	BuildDate  = "undefined"
	CommitHash = "undefined"
)

// Info is the JSON form of the version information.
type Info struct {
	Version    string `json:"version"`
	BuildDate  string `json:"build_date"`
	CommitHash string `json:"commit"`
}

// Current returns the version information of the binary.
func Current() Info {
	return Info{Version: Version, BuildDate: BuildDate, CommitHash: CommitHash}
}

// VersionInfo returns formatted version information for program, e.g.
// "logmonitor (logbridge 0.3.0-dev, build: undefined, commit: undefined)".
func VersionInfo(program string) string {
	return program + " (logbridge " + Version + ", build: " + BuildDate + ", commit: " + CommitHash + ")"
}
