package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

const declFile = "testdata/types.toml"

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--color=off"}, args...))
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"compare builtins", []string{"compare", "float", "int"}, []string{"float < int"}},
		{"compare alias", []string{"compare", "app.ints", "list(int)"}, []string{"app.ints = list.list(int)"}},
		{"compare args", []string{"compare", "list(string)", "list(int)"}, []string{"list.list(string) > list.list(int)"}},
		{"reify", []string{"reify", "list(int)", "list(list($1))"}, []string{"list.list(list.list(int))"}},
		{"reify collapse", []string{"reify", "--collapse", "app.wrapper(int)", "app.same($1)"}, []string{"int\n"}},
		{"categorize", []string{"categorize", "app.shape"}, []string{
			"0 COMPLICATED_CONST", "1 SIMPLE", "2 SIMPLE", "3 COMPLICATED",
		}},
		{"categorize alias", []string{"categorize", "--tag", "1", "app.ints"}, []string{
			"EQUIV\n", "SIMPLE (list.list(int))",
		}},
		{"categorize alias table", []string{"categorize", "app.ints"}, []string{
			"0 EQUIV\n", "3 EQUIV\n", "= list.list(int)", "  1 SIMPLE", "  2 UNKNOWN",
		}},
		{"categorize alias to placeholder", []string{"categorize", "app.same(int)"}, []string{"0 EQUIV_VAR", "= int"}},
		{"categorize unused tag", []string{"categorize", "--tag", "2", "list(int)"}, []string{"UNKNOWN\n"}},
		{"categorize functor", []string{"categorize", "--tag", "3", "--sub", "1", "app.shape"}, []string{
			"COMPLICATED", "poly(list.list(float))",
		}},
		{"describe", []string{"describe", "app.handler(int)"}, []string{
			"app.handler(int)", "func(int, string) = app.color", "layout:",
		}},
		{"describe du", []string{"describe", "app.shape"}, []string{
			"app.shape/0 (DU)", "0 empty", "4 poly(list.list(float))", "0:rect(float, float) 1:poly(list.list(float))",
		}},
		{"abi", []string{"abi", "list(int)"}, []string{"descriptor: [", "arguments from +1", "names from +2"}},
		{"abi pred", []string{"abi", "pred(int)"}, []string{"arity word at +1"}},
		{"verify", []string{"verify", "--ui", "off", "--jobs", "2"}, []string{"ok ", "0 failures"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut, err := execute(t, append([]string{"--decl", declFile}, tt.args...)...)
			if err != nil {
				t.Fatalf("%v\nstderr: %s", err, errOut)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output lacks %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"no tables", []string{"compare", "int", "int"}, "pass --decl or --image"},
		{"both sources", []string{"--decl", declFile, "--image", "x", "compare", "int", "int"}, "mutually exclusive"},
		{"bad type", []string{"--decl", declFile, "describe", "nope"}, "unknown type nope/0"},
		{"bad tag", []string{"--decl", declFile, "categorize", "--tag", "4", "app.shape"}, "invalid --tag"},
		{"sub out of range", []string{"--decl", declFile, "categorize", "--tag", "3", "--sub", "5", "app.shape"}, "invalid --sub"},
		{"sub on unused tag", []string{"--decl", declFile, "categorize", "--tag", "2", "--sub", "0", "list(int)"}, "no functor at tag 2/0"},
		{"unbound placeholder", []string{"--decl", declFile, "reify", "int", "$1"}, "type variable out of range"},
		{"bad color", []string{"--decl", declFile, "--color", "rainbow", "compare", "int", "int"}, "invalid --color"},
		{"bad trace level", []string{"--decl", declFile, "--trace-level", "loud", "compare", "int", "int"}, "trace level"},
		{"pack without output", []string{"--decl", declFile, "pack"}, "-o"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Fatalf("error %q does not mention %q", err, tt.msg)
			}
		})
	}
}

func TestPackThenUseImage(t *testing.T) {
	img := filepath.Join(t.TempDir(), "types.rtti")
	if _, errOut, err := execute(t, "--decl", declFile, "pack", "-o", img); err != nil {
		t.Fatalf("pack: %v\n%s", err, errOut)
	}
	out, errOut, err := execute(t, "--image", img, "compare", "app.handler(int)", "func(int, string) = app.color")
	if err != nil {
		t.Fatalf("compare: %v\n%s", err, errOut)
	}
	if !strings.HasPrefix(out, "app.handler(int) = func(int, string)") {
		t.Fatalf("expected equal types, got %q", out)
	}
}

func TestTraceAndTimings(t *testing.T) {
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "trace.ndjson")
	_, errOut, err := execute(t, "--decl", declFile, "--trace", tracePath, "--trace-level", "detail", "--timings", "compare", "int", "float")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if !strings.Contains(errOut, "timings:") || !strings.Contains(errOut, "load decl") {
		t.Fatalf("timings missing:\n%s", errOut)
	}
}

func TestErrorLevelDumpsRingOnFailure(t *testing.T) {
	_, errOut, err := execute(t, "--decl", declFile, "--trace-level", "error", "describe", "nope")
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !strings.Contains(errOut, "trace (most recent events):") || !strings.Contains(errOut, "decl.build") {
		t.Fatalf("ring dump missing:\n%s", errOut)
	}
}

func TestVersionJSON(t *testing.T) {
	out, _, err := execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, `"version"`) || !strings.Contains(out, `"go_version"`) {
		t.Fatalf("unexpected output %s", out)
	}
}
