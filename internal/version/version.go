// Package version holds build information for the rtti CLI. The variables
// can be overridden at build time via -ldflags.
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/fatih/color"
)

var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	nameColor   = color.New(color.FgCyan, color.Bold)
	numberColor = color.New(color.FgYellow, color.Bold)
	dimColor    = color.New(color.Faint)
)

// Info is a snapshot of the build metadata.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
}

// Current returns the build metadata, filling the commit from the module
// build info when it was not set by the linker.
func Current() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
	if info.GitCommit == "" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				switch s.Key {
				case "vcs.revision":
					info.GitCommit = s.Value
				case "vcs.time":
					if info.BuildDate == "" {
						info.BuildDate = s.Value
					}
				}
			}
		}
	}
	return info
}

// ShortCommit returns the first 12 characters of the commit hash.
func (i Info) ShortCommit() string {
	if len(i.GitCommit) > 12 {
		return i.GitCommit[:12]
	}
	return i.GitCommit
}

// Write prints a one-line banner, colored when color output is enabled.
func (i Info) Write(w io.Writer) error {
	line := nameColor.Sprint("rtti") + " " + numberColor.Sprint(i.Version)
	if c := i.ShortCommit(); c != "" {
		line += " " + dimColor.Sprintf("(%s)", c)
	}
	if i.BuildDate != "" {
		line += " " + dimColor.Sprint(i.BuildDate)
	}
	_, err := fmt.Fprintf(w, "%s %s\n", line, dimColor.Sprint(i.GoVersion))
	return err
}
