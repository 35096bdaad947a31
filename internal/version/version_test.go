package version

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestCurrentUsesOverrides(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	t.Cleanup(func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate })

	Version = "1.2.3"
	GitCommit = "1234567890abcdef1234567890abcdef12345678"
	BuildDate = "2026-01-15T10:30:00Z"

	info := Current()
	if info.Version != "1.2.3" || info.BuildDate != BuildDate {
		t.Fatalf("info = %+v", info)
	}
	if got := info.ShortCommit(); got != "1234567890ab" {
		t.Fatalf("ShortCommit = %q", got)
	}
	if info.GoVersion == "" {
		t.Fatalf("GoVersion should be set")
	}
}

func TestWritePlain(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })

	var buf bytes.Buffer
	info := Info{Version: "0.2.0", GitCommit: "abc123", GoVersion: "go1.25.1"}
	if err := info.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "rtti 0.2.0 (abc123) go1.25.1" {
		t.Fatalf("banner = %q", got)
	}
}
