package trace

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// gate carries the level of a sink and decides which events it keeps.
// Heartbeats pass every enabled gate.
type gate struct {
	level Level
}

// Level returns the configured level.
func (g gate) Level() Level { return g.level }

// Enabled reports whether the sink records anything.
func (g gate) Enabled() bool { return g.level > LevelOff }

func (g gate) admits(ev *Event) bool {
	return ev.Kind == KindHeartbeat || g.level.ShouldEmit(ev.Scope)
}

type nopTracer struct{ gate }

func (nopTracer) Emit(*Event)  {}
func (nopTracer) Flush() error { return nil }
func (nopTracer) Close() error { return nil }

// Nop discards everything. Commands run with it when tracing is off.
var Nop Tracer = nopTracer{}

// StreamTracer formats each admitted event and writes it straight away.
// Write errors are ignored; tracing never fails a command.
type StreamTracer struct {
	gate
	format Format

	mu sync.Mutex
	w  io.Writer
}

// NewStreamTracer writes events at or above level to w.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	return &StreamTracer{gate: gate{level: level}, format: format, w: w}
}

// Emit writes ev if the level admits it.
func (t *StreamTracer) Emit(ev *Event) {
	if !t.admits(ev) {
		return
	}
	line := FormatEvent(ev, t.format)
	t.mu.Lock()
	_, _ = t.w.Write(line) //nolint:errcheck
	t.mu.Unlock()
}

// Flush forwards to the writer when it buffers.
func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if f, ok := t.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close flushes, then closes the writer if it is a file or similar.
func (t *StreamTracer) Close() error {
	ferr := t.Flush()
	if c, ok := t.w.(io.Closer); ok {
		return errors.Join(ferr, c.Close())
	}
	return ferr
}

// RingTracer remembers the most recent events so that a failed command can
// show what led up to the failure.
type RingTracer struct {
	gate

	mu    sync.Mutex
	buf   []Event
	total uint64 // events ever admitted
}

// NewRingTracer keeps up to capacity events (4096 when capacity <= 0).
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{gate: gate{level: level}, buf: make([]Event, capacity)}
}

// Emit stores ev, overwriting the oldest event once the ring is full.
func (t *RingTracer) Emit(ev *Event) {
	if !t.admits(ev) {
		return
	}
	t.mu.Lock()
	t.buf[t.total%uint64(len(t.buf))] = *ev
	t.total++
	t.mu.Unlock()
}

// Snapshot returns the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	size := uint64(len(t.buf))
	if t.total <= size {
		return append([]Event(nil), t.buf[:t.total]...)
	}
	head := t.total % size
	out := make([]Event, 0, size)
	out = append(out, t.buf[head:]...)
	return append(out, t.buf[:head]...)
}

// Dropped returns how many events were overwritten.
func (t *RingTracer) Dropped() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := uint64(len(t.buf)); t.total > n {
		return t.total - n
	}
	return 0
}

// Dump writes the stored events to w, preceded by a note when older events
// were lost.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	if n := t.Dropped(); n > 0 && format == FormatText {
		if _, err := fmt.Fprintf(w, "(%d earlier events dropped)\n", n); err != nil {
			return err
		}
	}
	events := t.Snapshot()
	for i := range events {
		if _, err := w.Write(FormatEvent(&events[i], format)); err != nil {
			return err
		}
	}
	return nil
}

// Flush does nothing; the ring lives in memory.
func (t *RingTracer) Flush() error { return nil }

// Close does nothing; the ring stays readable after Close.
func (t *RingTracer) Close() error { return nil }

// MultiTracer fans events out to several sinks, each applying its own level.
type MultiTracer struct {
	gate
	tracers []Tracer
}

// NewMultiTracer combines tracers under one reported level.
func NewMultiTracer(level Level, tracers ...Tracer) *MultiTracer {
	return &MultiTracer{gate: gate{level: level}, tracers: tracers}
}

// Emit forwards ev to every sink.
func (t *MultiTracer) Emit(ev *Event) {
	for _, tr := range t.tracers {
		tr.Emit(ev)
	}
}

// Flush flushes every sink and joins their errors.
func (t *MultiTracer) Flush() error {
	return t.each(Tracer.Flush)
}

// Close closes every sink and joins their errors.
func (t *MultiTracer) Close() error {
	return t.each(Tracer.Close)
}

func (t *MultiTracer) each(fn func(Tracer) error) error {
	errs := make([]error, 0, len(t.tracers))
	for _, tr := range t.tracers {
		errs = append(errs, fn(tr))
	}
	return errors.Join(errs...)
}
