// Package prof collects CPU, heap and execution-trace profiles for one CLI
// invocation.
package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Config names the output files; empty paths disable a profile.
type Config struct {
	CPU   string
	Mem   string
	Trace string
}

// Enabled reports whether any profile is requested.
func (c Config) Enabled() bool {
	return c.CPU != "" || c.Mem != "" || c.Trace != ""
}

// Session is an active set of profiles. Stop must be called once.
type Session struct {
	cfg       Config
	cpuFile   *os.File
	traceFile *os.File
}

// Start begins the CPU profile and the execution trace. On error nothing is
// left running.
func Start(cfg Config) (*Session, error) {
	s := &Session{cfg: cfg}
	if cfg.CPU != "" {
		f, err := os.Create(cfg.CPU)
		if err != nil {
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		s.cpuFile = f
	}
	if cfg.Trace != "" {
		f, err := os.Create(cfg.Trace)
		if err != nil {
			s.stopCPU()
			return nil, fmt.Errorf("execution trace: %w", err)
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			s.stopCPU()
			return nil, fmt.Errorf("execution trace: %w", err)
		}
		s.traceFile = f
	}
	return s, nil
}

// Stop ends the running profiles and writes the heap profile.
func (s *Session) Stop() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.traceFile != nil {
		trace.Stop()
		errs = append(errs, s.traceFile.Close())
		s.traceFile = nil
	}
	errs = append(errs, s.stopCPU())
	if s.cfg.Mem != "" {
		errs = append(errs, writeHeap(s.cfg.Mem))
	}
	return errors.Join(errs...)
}

func (s *Session) stopCPU() error {
	if s.cpuFile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := s.cpuFile.Close()
	s.cpuFile = nil
	return err
}

func writeHeap(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	return nil
}
