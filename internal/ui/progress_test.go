package ui

import (
	"strings"
	"testing"

	"rtti/internal/verify"
)

func TestApplyEvents(t *testing.T) {
	m := NewVerifyModel("verify", []string{"list.list", "app.color"}, nil).(*verifyModel)
	m.apply(verify.Event{Stage: verify.StageSample, Status: verify.StatusWorking})
	if m.stage != "sampling" {
		t.Fatalf("run stage = %q", m.stage)
	}
	m.apply(verify.Event{Ctor: "list.list", Stage: verify.StageReify, Status: verify.StatusWorking})
	m.apply(verify.Event{Ctor: "app.color", Stage: verify.StageClassify, Status: verify.StatusError})
	m.apply(verify.Event{Ctor: "app.color", Stage: verify.StageClassify, Status: verify.StatusError})
	m.apply(verify.Event{Ctor: "unknown", Stage: verify.StageOrder, Status: verify.StatusWorking})

	if m.rows[0].status != "reifying" || m.rows[1].status != "error" {
		t.Fatalf("rows = %+v", m.rows)
	}
	if m.failed != 1 {
		t.Fatalf("failed = %d, want 1", m.failed)
	}
	view := m.View()
	for _, want := range []string{"verify (sampling)", "list.list", "1 constructor(s) failed"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestVisibleRowsPrefersBusy(t *testing.T) {
	names := make([]string, maxRows+5)
	for i := range names {
		names[i] = "t" + string(rune('a'+i))
	}
	m := NewVerifyModel("verify", names, nil).(*verifyModel)
	last := names[len(names)-1]
	m.apply(verify.Event{Ctor: last, Stage: verify.StageOrder, Status: verify.StatusWorking})
	rows := m.visibleRows()
	if len(rows) != maxRows {
		t.Fatalf("showing %d rows, want %d", len(rows), maxRows)
	}
	if rows[0] != len(names)-1 {
		t.Fatalf("busy row should come first, got %v", rows)
	}
	if !strings.Contains(m.View(), "5 more") {
		t.Fatalf("hidden rows not summarized:\n%s", m.View())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"list.list", 20, "list.list"},
		{"private_builtin.type_info", 10, "priv..."},
		{"abcdef", 3, "abc"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
