package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Tracer receives events. Implementations are safe for concurrent use.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	// Close flushes and releases the output. Rings stay readable.
	Close() error
	Level() Level
	// Enabled is Level() > LevelOff.
	Enabled() bool
}

// StorageMode selects where events go.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1 // written as they happen
	ModeRing                          // kept in memory for a post-mortem dump
	ModeBoth
)

var modeNames = names{"", "stream", "ring", "both"}

func (m StorageMode) String() string { return modeNames.name(uint8(m)) }

// ParseMode accepts stream, ring or both.
func ParseMode(s string) (StorageMode, error) {
	i, ok := modeNames.parse(s)
	if !ok {
		return ModeRing, fmt.Errorf("invalid storage mode: %q (expected: %s)", s, modeNames.expected())
	}
	return StorageMode(i), nil
}

const defaultRingSize = 4096

// Config describes a tracer.
type Config struct {
	Level Level
	Mode  StorageMode
	// Format of streamed events. FormatAuto picks NDJSON for .ndjson and
	// .jsonl paths, text otherwise.
	Format Format
	// Output receives streamed events. When nil, OutputPath is created;
	// "" and "-" mean stderr.
	Output     io.Writer
	OutputPath string
	RingSize   int // defaultRingSize when <= 0
}

// New builds the tracer cfg describes. LevelOff yields Nop. LevelError
// ignores Mode and records phase events into a ring for dumping after a
// failure.
func New(cfg Config) (Tracer, error) {
	if cfg.RingSize <= 0 {
		cfg.RingSize = defaultRingSize
	}
	switch {
	case cfg.Level == LevelOff:
		return Nop, nil
	case cfg.Level == LevelError:
		return NewRingTracer(cfg.RingSize, LevelPhase), nil
	case cfg.Mode == ModeRing:
		return NewRingTracer(cfg.RingSize, cfg.Level), nil
	case cfg.Mode != ModeStream && cfg.Mode != ModeBoth:
		return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	}

	w, err := cfg.writer()
	if err != nil {
		return nil, err
	}
	stream := NewStreamTracer(w, cfg.Level, cfg.format())
	if cfg.Mode == ModeStream {
		return stream, nil
	}
	return NewMultiTracer(cfg.Level, stream, NewRingTracer(cfg.RingSize, cfg.Level)), nil
}

func (cfg Config) format() Format {
	if cfg.Format != FormatAuto {
		return cfg.Format
	}
	switch filepath.Ext(cfg.OutputPath) {
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	}
	return FormatText
}

func (cfg Config) writer() (io.Writer, error) {
	switch {
	case cfg.Output != nil:
		return cfg.Output, nil
	case cfg.OutputPath == "" || cfg.OutputPath == "-":
		return stderr{os.Stderr}, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, nil
}

// stderr hides the Close method of os.Stderr from StreamTracer.Close.
type stderr struct{ io.Writer }

// Ring finds the ring buffer behind t, if it has one.
func Ring(t Tracer) (*RingTracer, bool) {
	switch tt := t.(type) {
	case *RingTracer:
		return tt, true
	case *MultiTracer:
		for _, inner := range tt.tracers {
			if r, ok := Ring(inner); ok {
				return r, true
			}
		}
	}
	return nil, false
}
