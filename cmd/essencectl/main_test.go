package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/danmuck/essence/internal/essence"
	"github.com/danmuck/essence/internal/testutil/testlog"
	"gopkg.in/yaml.v3"
)

func newBufferedPrinter() (*printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errw bytes.Buffer
	return newPrinter(&out, &errw, false), &out, &errw
}

func TestRunSourceSkipsCommentsAndCountsFailures(t *testing.T) {
	testlog.Start(t)

	src := `
# setup
x := 40
n <- x + 2
1 / 0
x ?? 0
`
	d := essence.New(essence.Config{MemorySize: 0})
	p, out, errw := newBufferedPrinter()
	failed := runSource(d, src, p)

	if failed != 1 {
		t.Fatalf("expected one failure, got %d", failed)
	}
	want := "40\nsent 42 to channel n\n40\n"
	if out.String() != want {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
	if !strings.HasPrefix(errw.String(), "error: ") {
		t.Fatalf("expected error line, got %q", errw.String())
	}
	testlog.Logf("essencectl/run: out=%q err=%q", out.String(), errw.String())
}

func TestReplCommands(t *testing.T) {
	testlog.Start(t)

	d := essence.New(essence.Config{MemorySize: 0})
	d.Execute("x := 1")
	p, out, errw := newBufferedPrinter()

	if replCommand(d, p, ":state") {
		t.Fatalf(":state must not exit")
	}
	var snap essence.Snapshot
	if err := yaml.Unmarshal(out.Bytes(), &snap); err != nil {
		t.Fatalf("decode state yaml: %v\n%s", err, out.String())
	}
	if snap.Variables["x"] != 1 {
		t.Fatalf("expected x in state dump, got %#v", snap.Variables)
	}

	out.Reset()
	replCommand(d, p, ":classify y := a ?? b")
	if out.String() != "GO assignment (:=)\nSWIFT optional (?)\n" {
		t.Fatalf("unexpected classification output %q", out.String())
	}
	if _, ok := d.Vars().Get("y"); ok {
		t.Fatalf(":classify must not execute")
	}

	replCommand(d, p, ":bogus")
	if !strings.Contains(errw.String(), "unknown command") {
		t.Fatalf("expected unknown command message, got %q", errw.String())
	}
	if !replCommand(d, p, ":quit") {
		t.Fatalf(":quit must exit")
	}
}

func TestPrinterColor(t *testing.T) {
	testlog.Start(t)

	var out bytes.Buffer
	p := newPrinter(&out, &out, true)
	p.result(essence.Result{Rule: essence.RuleEval, Value: int64(2)})
	if out.String() != green("2")+"\n" {
		t.Fatalf("expected coloured output, got %q", out.String())
	}
}
