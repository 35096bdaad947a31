package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rtti/internal/decl"
	"rtti/internal/image"
	"rtti/internal/observ"
	"rtti/internal/prof"
	"rtti/internal/rtti"
	"rtti/internal/trace"
)

// session holds the per-invocation state shared by every command.
type session struct {
	cmd     *cobra.Command
	ctx     context.Context
	out     io.Writer
	errOut  io.Writer
	quiet   bool
	timings bool
	timer   *observ.Timer

	tracer    trace.Tracer
	heartbeat *trace.Heartbeat
	profile   *prof.Session
	span      *trace.Span
}

type runFunc func(s *session, args []string) error

// run wraps a command body with session setup and teardown. Corrupt-table
// panics raised by the type operations become ordinary errors here.
func run(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		s, err := startSession(cmd)
		if err != nil {
			return err
		}
		defer func() { err = s.finish(err) }()
		defer rtti.Recover(&err)
		return fn(s, args)
	}
}

func startSession(cmd *cobra.Command) (*session, error) {
	pf := cmd.Root().PersistentFlags()
	s := &session{
		cmd:    cmd,
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
		timer:  observ.NewTimer(),
	}
	var err error
	if s.quiet, err = pf.GetBool("quiet"); err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if s.timings, err = pf.GetBool("timings"); err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	colorFlag, err := pf.GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	if err := setupColor(colorFlag); err != nil {
		return nil, err
	}
	if err := s.setupProfiling(); err != nil {
		return nil, err
	}
	if err := s.setupTracing(); err != nil {
		_ = s.profile.Stop() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

func setupColor(value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		color.NoColor = !isTerminal(os.Stdout)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
	return nil
}

func (s *session) setupProfiling() error {
	pf := s.cmd.Root().PersistentFlags()
	var cfg prof.Config
	var err error
	if cfg.CPU, err = pf.GetString("cpuprofile"); err != nil {
		return fmt.Errorf("failed to get cpuprofile flag: %w", err)
	}
	if cfg.Mem, err = pf.GetString("memprofile"); err != nil {
		return fmt.Errorf("failed to get memprofile flag: %w", err)
	}
	if cfg.Trace, err = pf.GetString("runtime-trace"); err != nil {
		return fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	if !cfg.Enabled() {
		return nil
	}
	s.profile, err = prof.Start(cfg)
	return err
}

// setupTracing inspects the trace flags and attaches a tracer to the
// session context.
func (s *session) setupTracing() error {
	pf := s.cmd.Root().PersistentFlags()
	output, err := pf.GetString("trace")
	if err != nil {
		return fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := pf.GetString("trace-level")
	if err != nil {
		return fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := pf.GetString("trace-mode")
	if err != nil {
		return fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	ringSize, err := pf.GetInt("trace-ring-size")
	if err != nil {
		return fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	interval, err := pf.GetDuration("trace-heartbeat")
	if err != nil {
		return fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("invalid trace level: %w", err)
	}
	if output != "" && level == trace.LevelOff {
		level = trace.LevelPhase
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return fmt.Errorf("invalid trace mode: %w", err)
	}

	base := s.cmd.Context()
	if base == nil {
		base = context.Background()
	}
	s.tracer, err = trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: output,
		RingSize:   ringSize,
	})
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	s.ctx = trace.WithTracer(base, s.tracer)
	s.heartbeat = trace.StartHeartbeat(s.tracer, interval)
	s.ctx, s.span = trace.Start(s.ctx, trace.ScopeDriver, "rtti "+s.cmd.Name())
	return nil
}

// finish tears the session down. On failure the trace ring, if any, is
// dumped to stderr.
func (s *session) finish(runErr error) error {
	detail := ""
	if runErr != nil {
		detail = "error"
	}
	s.span.End(detail)
	s.heartbeat.Stop()
	var errs []error
	if runErr != nil {
		if ring, ok := trace.Ring(s.tracer); ok {
			fmt.Fprintln(s.errOut, "trace (most recent events):")
			errs = append(errs, ring.Dump(s.errOut, trace.FormatText))
		}
	}
	errs = append(errs, s.tracer.Flush(), s.tracer.Close(), s.profile.Stop())
	if s.timings {
		fmt.Fprint(s.errOut, s.timer.Summary())
	}
	if err := errors.Join(errs...); err != nil {
		fmt.Fprintf(s.errOut, "rtti: %v\n", err)
	}
	return runErr
}

// registry loads the table source named by --decl or --image.
func (s *session) registry() (*rtti.Registry, error) {
	pf := s.cmd.Root().PersistentFlags()
	declPath, err := pf.GetString("decl")
	if err != nil {
		return nil, fmt.Errorf("failed to get decl flag: %w", err)
	}
	imagePath, err := pf.GetString("image")
	if err != nil {
		return nil, fmt.Errorf("failed to get image flag: %w", err)
	}
	var reg *rtti.Registry
	switch {
	case declPath != "" && imagePath != "":
		return nil, errors.New("--decl and --image are mutually exclusive")
	case declPath != "":
		err = s.timer.Time("load decl", func() error {
			reg, err = decl.Load(s.ctx, declPath)
			return err
		})
	case imagePath != "":
		err = s.timer.Time("load image", func() error {
			reg, err = image.Load(s.ctx, imagePath)
			return err
		})
	default:
		return nil, errors.New("no type tables: pass --decl or --image")
	}
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// parseType parses a command-line type expression against reg.
func (s *session) parseType(reg *rtti.Registry, expr string) (*rtti.TypeInfo, error) {
	var t *rtti.TypeInfo
	err := s.timer.Time("parse", func() error {
		var err error
		t, err = decl.ParseType(reg, expr)
		return err
	})
	return t, err
}

func (s *session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// notef prints non-essential output unless --quiet is set.
func (s *session) notef(format string, args ...any) {
	if !s.quiet {
		fmt.Fprintf(s.errOut, format, args...)
	}
}
