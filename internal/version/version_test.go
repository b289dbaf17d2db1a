package version

import (
	"strings"
	"testing"
)

func TestVersionInfo(t *testing.T) {
	info := VersionInfo("logmonitor")

	if !strings.HasPrefix(info, "logmonitor (logbridge ") {
		t.Errorf("Expected version info to start with the program name, got: %s", info)
	}
	if !strings.Contains(info, Version) {
		t.Errorf("Expected version info to contain version number '%s', got: %s", Version, info)
	}
	if !strings.Contains(info, "build: "+BuildDate) || !strings.Contains(info, "commit: "+CommitHash) {
		t.Errorf("Expected version info to contain build information, got: %s", info)
	}
}

func TestCurrent(t *testing.T) {
	if got := Current(); got.Version != Version || got.CommitHash != CommitHash {
		t.Errorf("Current() = %+v, does not match package variables", got)
	}
}
