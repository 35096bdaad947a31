package trace

import (
	"bytes"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

// newEvent stamps an event with the next sequence number and the calling
// goroutine.
func newEvent(kind Kind, scope Scope, name string, now time.Time) *Event {
	return &Event{
		Time:  now,
		Seq:   seqCounter.Add(1),
		Kind:  kind,
		Scope: scope,
		GID:   goroutineID(),
		Name:  name,
	}
}

func goroutineID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b, ok := bytes.CutPrefix(b, []byte("goroutine "))
	if !ok {
		return 0
	}
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	gid, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return gid
}

func admits(t Tracer, scope Scope) bool {
	return t != nil && t.Enabled() && t.Level().ShouldEmit(scope)
}

// Span tracks one logical operation from Begin to End. A Span from a
// disabled tracer is inert.
type Span struct {
	tracer  Tracer
	begin   Event
	started time.Time
	extra   map[string]string
	ended   bool
}

// Begin emits a span-begin event under parent (0 for a root span).
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if !admits(t, scope) {
		return &Span{}
	}
	now := time.Now()
	ev := newEvent(KindSpanBegin, scope, name, now)
	ev.SpanID = spanCounter.Add(1)
	ev.ParentID = parent
	t.Emit(ev)
	return &Span{tracer: t, begin: *ev, started: now}
}

// End emits the span-end event carrying detail, the extras and the elapsed
// time, which it also returns. Only the first call emits.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil || s.ended {
		return 0
	}
	s.ended = true
	now := time.Now()
	ev := newEvent(KindSpanEnd, s.begin.Scope, s.begin.Name, now)
	ev.SpanID = s.begin.SpanID
	ev.ParentID = s.begin.ParentID
	ev.Detail = detail
	ev.Elapsed = now.Sub(s.started)
	ev.Extra = s.extra
	s.tracer.Emit(ev)
	return ev.Elapsed
}

// WithExtra attaches key=value to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 4)
	}
	s.extra[key] = value
	return s
}

// ID returns the span ID, 0 for an inert span.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.begin.SpanID
}

// Point emits an instant event under parent.
func Point(t Tracer, scope Scope, name, detail string, parent uint64) {
	if !admits(t, scope) {
		return
	}
	ev := newEvent(KindPoint, scope, name, time.Now())
	ev.SpanID = spanCounter.Add(1)
	ev.ParentID = parent
	ev.Detail = detail
	t.Emit(ev)
}
