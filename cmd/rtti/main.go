// Command rtti inspects runtime type tables: it loads declarations or a
// packed table image and describes, compares, reifies and classifies type
// descriptors.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"rtti/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rtti",
		Short:         "Runtime type information tables and operations",
		Long:          `rtti loads type declarations and exercises the runtime type operations on them`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := root.PersistentFlags()
	pf.String("decl", "", "type declaration file (TOML)")
	pf.String("image", "", "packed table image written by 'rtti pack'")
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.String("trace", "", "trace output file ('-' for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	pf.Int("trace-ring-size", 4096, "events kept by the trace ring buffer")
	pf.Duration("trace-heartbeat", 0, "emit a trace heartbeat at this interval (0 disables)")
	pf.String("cpuprofile", "", "write a CPU profile to this file")
	pf.String("memprofile", "", "write a heap profile to this file")
	pf.String("runtime-trace", "", "write a Go execution trace to this file")

	root.AddCommand(
		newDescribeCmd(),
		newCompareCmd(),
		newReifyCmd(),
		newCategorizeCmd(),
		newABICmd(),
		newVerifyCmd(),
		newPackCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
