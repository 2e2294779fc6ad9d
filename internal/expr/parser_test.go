package expr

import (
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/essence/internal/testutil/testlog"
)

func TestParsePrecedence(t *testing.T) {
	testlog.Start(t)

	n, err := Parse("1 + 2 * 3 == 7 && !false")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	and, ok := n.(*Binary)
	if !ok || and.Op != AND {
		t.Fatalf("expected && at the root, got %#v", n)
	}
	eq, ok := and.L.(*Binary)
	if !ok || eq.Op != EQ {
		t.Fatalf("expected == under &&, got %#v", and.L)
	}
	sum, ok := eq.L.(*Binary)
	if !ok || sum.Op != PLUS {
		t.Fatalf("expected + under ==, got %#v", eq.L)
	}
	if prod, ok := sum.R.(*Binary); !ok || prod.Op != STAR {
		t.Fatalf("expected * to bind tighter than +, got %#v", sum.R)
	}
	testlog.Logf("expr/parser: precedence tree verified")
}

func TestParseShapes(t *testing.T) {
	testlog.Start(t)

	tests := []struct {
		src  string
		want string
	}{
		{src: "a ?? b ?? c", want: "coalesce"},
		{src: "x => x * 2", want: "lambda"},
		{src: "(a, b) => a + b", want: "lambda"},
		{src: "() => 1", want: "lambda"},
		{src: "(1 + 2)", want: "binary"},
		{src: "[i * 2 for i in range(5)]", want: "comprehension"},
		{src: "[1, 2, 3,]", want: "list"},
		{src: "f(1)(2)", want: "call"},
		{src: "xs[0]", want: "index"},
		{src: "c ? 1 : d ? 2 : 3", want: "ternary"},
	}
	for _, tc := range tests {
		n, err := Parse(tc.src)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.src, err)
		}
		got := shapeOf(n)
		if got != tc.want {
			t.Fatalf("parse %q: got %s, want %s", tc.src, got, tc.want)
		}
	}
}

func shapeOf(n Node) string {
	switch n.(type) {
	case *Coalesce:
		return "coalesce"
	case *LambdaLit:
		return "lambda"
	case *Binary:
		return "binary"
	case *Comprehension:
		return "comprehension"
	case *ListLit:
		return "list"
	case *Call:
		return "call"
	case *Index:
		return "index"
	case *Ternary:
		return "ternary"
	default:
		return "other"
	}
}

func TestParseErrors(t *testing.T) {
	testlog.Start(t)

	for _, src := range []string{"", "1 +", "(1", "[1, 2", "f(1,", `own!(1, "a")`, "1 2", "x :=", "c ? 1"} {
		_, err := Parse(src)
		if err == nil {
			t.Fatalf("expected parse error for %q", src)
		}
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected *ParseError for %q, got %T: %v", src, err, err)
		}
		testlog.Logf("expr/parser: %q rejected: %v", src, err)
	}
}

func TestParseTokensAcceptsSubSlices(t *testing.T) {
	testlog.Start(t)

	toks, err := Tokenize("x := 40 + 2")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	n, err := ParseTokens(toks[2:3])
	if err != nil {
		t.Fatalf("parse sub-slice: %v", err)
	}
	if lit, ok := n.(*Literal); !ok || lit.Value != int64(40) {
		t.Fatalf("expected literal 40, got %#v", n)
	}
	if _, err := ParseTokens(toks[2:3:3]); err != nil {
		t.Fatalf("parse capped slice: %v", err)
	}
}

func TestParseRejectsDeepNesting(t *testing.T) {
	testlog.Start(t)

	n := 100_000
	for _, src := range []string{
		strings.Repeat("(", n) + "1" + strings.Repeat(")", n),
		strings.Repeat("-", n) + "1",
		strings.Repeat("[", n) + strings.Repeat("]", n),
		strings.Repeat("x => ", 10_000) + "1",
	} {
		_, err := Parse(src)
		var parseErr *ParseError
		if !errors.As(err, &parseErr) || !strings.Contains(err.Error(), "nested too deeply") {
			t.Fatalf("expected nesting error for %d-byte input, got %v", len(src), err)
		}
	}

	ok := strings.Repeat("(", MaxNesting/2) + "1" + strings.Repeat(")", MaxNesting/2)
	if _, err := Parse(ok); err != nil {
		t.Fatalf("moderate nesting must parse: %v", err)
	}
	testlog.Logf("expr/parser: nesting capped at %d", MaxNesting)
}
