package trace

import "time"

// Kind says what an event marks.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

var kindNames = names{"", "begin", "end", "point", "heartbeat"}

func (k Kind) String() string { return kindNames.name(uint8(k)) }

// Scope is the granularity of an event. Lower values are coarser, so a
// level admits every scope up to its finest one.
type Scope uint8

const (
	ScopeDriver Scope = iota + 1 // one CLI command
	ScopePass                    // load, freeze, encode, verify
	ScopeCtor                    // one type constructor
	ScopeOp                      // one descriptor operation
)

var scopeNames = names{"", "driver", "pass", "ctor", "op"}

func (s Scope) String() string { return scopeNames.name(uint8(s)) }

// Event is one trace record. Sinks copy it; emitters must not reuse it.
type Event struct {
	Time    time.Time
	Seq     uint64 // process-wide, increasing
	Kind    Kind
	Scope   Scope
	Name    string // "load", "ctor:list.list/1", ...
	Detail  string
	Elapsed time.Duration // end events only

	// Span linkage. Points get a fresh SpanID; heartbeats have none.
	SpanID   uint64
	ParentID uint64
	GID      uint64

	Extra map[string]string
}
