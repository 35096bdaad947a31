package prof

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSessionWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		CPU:   filepath.Join(dir, "cpu.pprof"),
		Mem:   filepath.Join(dir, "mem.pprof"),
		Trace: filepath.Join(dir, "exec.trace"),
	}
	if !cfg.Enabled() {
		t.Fatalf("config should be enabled")
	}
	s, err := Start(cfg)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	for _, p := range []string{cfg.CPU, cfg.Mem, cfg.Trace} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s: %v", p, err)
		}
	}
}

func TestStartFailureLeavesNothingRunning(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		CPU:   filepath.Join(dir, "cpu.pprof"),
		Trace: filepath.Join(dir, "missing", "exec.trace"),
	}
	if _, err := Start(cfg); err == nil {
		t.Fatalf("expected an error for an unwritable trace path")
	}
	// A second CPU profile can only start if the first one was stopped.
	s, err := Start(Config{CPU: filepath.Join(dir, "again.pprof")})
	if err != nil {
		t.Fatalf("Start after failure: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestNilSession(t *testing.T) {
	var s *Session
	if err := s.Stop(); err != nil {
		t.Fatalf("nil Stop: %v", err)
	}
	if (Config{}).Enabled() {
		t.Fatalf("empty config should be disabled")
	}
}
