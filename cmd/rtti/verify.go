package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rtti/internal/rtti"
	"rtti/internal/ui"
	"rtti/internal/verify"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

func shouldUseTUI(mode uiMode) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return isTerminal(os.Stdout)
	}
}

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check ordering, collapse, reification and classification properties of the tables",
		Args:  cobra.NoArgs,
		RunE:  run(verifyExecution),
	}
	cmd.Flags().Int("jobs", 0, "constructors checked in parallel (0 = GOMAXPROCS)")
	cmd.Flags().String("ui", "auto", "progress display (auto|on|off)")
	return cmd
}

func verifyExecution(s *session, _ []string) error {
	jobs, err := s.cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	uiValue, err := s.cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	reg, err := s.registry()
	if err != nil {
		return err
	}

	opts := verify.Options{Jobs: jobs}
	var rep *verify.Report
	err = s.timer.Time("verify", func() error {
		var err error
		if !s.quiet && shouldUseTUI(mode) {
			rep, err = runVerifyWithUI(s.ctx, reg, opts)
		} else {
			rep, err = verify.Run(s.ctx, reg, opts)
		}
		return err
	})
	if err != nil {
		return err
	}

	for _, f := range rep.Failures {
		fmt.Fprintf(s.errOut, "%s %v\n", color.RedString("FAIL"), f)
	}
	summary := fmt.Sprintf("%d constructors, %d samples, %d checks, %d failures",
		rep.Ctors, rep.Samples, rep.Checks, len(rep.Failures))
	if !rep.OK() {
		return fmt.Errorf("verification failed: %s", summary)
	}
	if !s.quiet {
		s.printf("%s %s\n", color.GreenString("ok"), summary)
	}
	return nil
}

type verifyOutcome struct {
	rep *verify.Report
	err error
}

func runVerifyWithUI(ctx context.Context, reg *rtti.Registry, opts verify.Options) (*verify.Report, error) {
	var names []string
	reg.Each(func(_ rtti.CtorID, c *rtti.Constructor) bool {
		names = append(names, c.QualifiedName())
		return true
	})
	events := make(chan verify.Event, 256)
	outcomeCh := make(chan verifyOutcome, 1)

	go func() {
		o := opts
		o.Progress = verify.ChannelSink{Ch: events}
		rep, err := verify.Run(ctx, reg, o)
		outcomeCh <- verifyOutcome{rep: rep, err: err}
		close(events)
	}()

	program := tea.NewProgram(ui.NewVerifyModel("verify", names, events), tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// The UI may quit early (ctrl+c); drain so the verifier can finish.
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.rep, uiErr
	}
	return outcome.rep, outcome.err
}
