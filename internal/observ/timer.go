// Package observ records wall-clock timings of CLI phases.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is one timed step.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// Timer collects phases. It is safe for concurrent use.
type Timer struct {
	mu     sync.Mutex
	phases []Phase
	now    func() time.Time
}

// NewTimer creates an empty Timer.
func NewTimer() *Timer {
	return &Timer{phases: make([]Phase, 0, 8), now: time.Now}
}

// Begin starts a phase and returns its index for End.
func (t *Timer) Begin(name string) int {
	if t == nil {
		return -1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, Phase{Name: name, Start: t.now()})
	return len(t.phases) - 1
}

// End finishes the phase at idx. Unknown indexes are ignored.
func (t *Timer) End(idx int, note string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = t.now().Sub(p.Start)
	p.Note = note
}

// Time runs fn as a phase.
func (t *Timer) Time(name string, fn func() error) error {
	idx := t.Begin(name)
	err := fn()
	note := ""
	if err != nil {
		note = "failed"
	}
	t.End(idx, note)
	return err
}

// PhaseReport is the serializable form of a phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report aggregates the phases.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report returns the phases in start order and their total.
func (t *Timer) Report() Report {
	if t == nil {
		return Report{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	var rep Report
	var total time.Duration
	for _, p := range t.phases {
		total += p.Dur
		rep.Phases = append(rep.Phases, PhaseReport{Name: p.Name, DurationMS: millis(p.Dur), Note: p.Note})
	}
	rep.TotalMS = millis(total)
	return rep
}

// Summary renders the report as an aligned table.
func (t *Timer) Summary() string {
	rep := t.Report()
	var b strings.Builder
	b.WriteString("timings:\n")
	for _, p := range rep.Phases {
		fmt.Fprintf(&b, "  %-20s %7.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			b.WriteString("  // " + p.Note)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "  %-20s %7.2f ms\n", "total", rep.TotalMS)
	return b.String()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
