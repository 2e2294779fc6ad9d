package essence

import (
	"testing"

	"github.com/danmuck/essence/internal/testutil/testlog"
)

func TestClassifyMarkers(t *testing.T) {
	testlog.Start(t)

	tests := []struct {
		line      string
		essence   Essence
		operation Operation
	}{
		{line: "x := 1", essence: EssenceGo, operation: OpAssignment},
		{line: "go worker()", essence: EssenceGo, operation: OpConcurrency},
		{line: "n <- 5", essence: EssenceGo, operation: OpConcurrency},
		{line: `own!(1, "a")`, essence: EssenceRust, operation: OpOwnership},
		{line: `borrow!("a")`, essence: EssenceRust, operation: OpOwnership},
		{line: `move!("a", "b")`, essence: EssenceRust, operation: OpOwnership},
		{line: "await fetch()", essence: EssenceJavaScript, operation: OpAsync},
		{line: "p.then(cb)", essence: EssenceJavaScript, operation: OpAsync},
		{line: "x => x", essence: EssenceJavaScript, operation: OpAsync},
		{line: "event!(e, 1)", essence: EssenceJavaScript, operation: OpAsync},
		{line: "*ptr = 1", essence: EssenceC, operation: OpMemory},
		{line: "malloc!(8)", essence: EssenceC, operation: OpMemory},
		{line: "&ref", essence: EssenceC, operation: OpMemory},
		{line: "a ?? b", essence: EssenceSwift, operation: OpOptional},
		{line: "a?", essence: EssenceSwift, operation: OpOptional},
		{line: "guard!(x)", essence: EssenceSwift, operation: OpOptional},
	}
	for _, tc := range tests {
		c := Classify(tc.line)
		if !c.Has(tc.essence, tc.operation) {
			t.Fatalf("classify %q: expected %s/%s in %+v", tc.line, tc.essence, tc.operation, c.Matches)
		}
		testlog.Logf("essence/classify: %q -> %+v", tc.line, c.Matches)
	}
}

func TestClassifyAssignmentRecordedOnce(t *testing.T) {
	testlog.Start(t)

	c := Classify("x := 1")
	if got := c.Count(EssenceGo, OpAssignment); got != 1 {
		t.Fatalf("expected GO/assignment exactly once, got %d", got)
	}
	if len(c.Essences) != 1 || len(c.Operations) != 1 {
		t.Fatalf("expected a single entry, got %+v", c)
	}
}

func TestClassifyKeepsDuplicatesAcrossRows(t *testing.T) {
	testlog.Start(t)

	c := Classify("ch := go <- x ?? y")
	want := []Essence{EssenceGo, EssenceGo, EssenceSwift}
	if len(c.Essences) != len(want) {
		t.Fatalf("expected %v, got %v", want, c.Essences)
	}
	for i := range want {
		if c.Essences[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, c.Essences)
		}
	}
	if c.Operations[0] != OpAssignment || c.Operations[1] != OpConcurrency || c.Operations[2] != OpOptional {
		t.Fatalf("unexpected operations order: %v", c.Operations)
	}
}

func TestClassifyPlainTextIsEmptyAndDoesNotEvaluate(t *testing.T) {
	testlog.Start(t)

	d := New(DefaultConfig())
	c := d.Classify("1 + 2")
	if len(c.Matches) != 0 || c.Essences == nil {
		t.Fatalf("expected empty non-nil classification, got %+v", c)
	}
	d.Classify("boom := 1")
	if _, ok := d.Vars().Get("boom"); ok {
		t.Fatalf("classification must not execute the line")
	}
}
