package trace

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"
)

// names maps the small enums of this package to their flag spellings.
// Index 0 is the zero value's name.
type names []string

func (n names) name(i uint8) string {
	if int(i) < len(n) && n[i] != "" {
		return n[i]
	}
	return "unknown"
}

// parse resolves s case-insensitively. It reports the index and whether s
// was known.
func (n names) parse(s string) (uint8, bool) {
	i := slices.Index(n, strings.ToLower(s))
	if i <= 0 && (i < 0 || n[0] == "") {
		return 0, false
	}
	v, err := safecast.Conv[uint8](i)
	return v, err == nil
}

func (n names) expected() string {
	return strings.Join(slices.DeleteFunc(slices.Clone(n), func(s string) bool { return s == "" }), "|")
}

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota // no tracing
	LevelError               // ring only, dumped after a failure
	LevelPhase               // driver and pass boundaries
	LevelDetail              // per-constructor events
	LevelDebug               // single descriptor operations too
)

var levelNames = names{"off", "error", "phase", "detail", "debug"}

// finest is the finest scope each level lets through. LevelError records
// nothing by itself; New gives it a phase-level ring.
var finest = [...]Scope{
	LevelPhase:  ScopePass,
	LevelDetail: ScopeCtor,
	LevelDebug:  ScopeOp,
}

func (l Level) String() string { return levelNames.name(uint8(l)) }

// ParseLevel accepts off, error, phase, detail or debug.
func ParseLevel(s string) (Level, error) {
	i, ok := levelNames.parse(s)
	if !ok {
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, levelNames.expected())
	}
	return Level(i), nil
}

// ShouldEmit reports whether events of scope pass at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	if int(l) >= len(finest) {
		return false
	}
	return scope != 0 && scope <= finest[l]
}
