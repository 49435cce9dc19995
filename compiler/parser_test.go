package compiler

import (
	"errors"
	"strings"
	"testing"
)

func mustParse(t *testing.T, input string) []Op {
	t.Helper()
	ops, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse(%q): %v", input, err)
	}
	return ops
}

// render flattens ops into a compact form, with loop bodies in brackets.
func render(ops []Op) string {
	parts := make([]string, 0, len(ops))
	for _, op := range ops {
		if l, ok := op.(*LoopOp); ok {
			parts = append(parts, "("+l.Target.Name+" "+render(l.Body)+")")
			continue
		}
		parts = append(parts, op.String())
	}
	return strings.Join(parts, " ")
}

func TestParserOperations(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"A>B", "A>B"},
		{"12>A", "12>A"},
		{"'a'>A", "97>A"},
		{`"Hi">o`, `"Hi">io`},
		{"A<B", "A<B"},
		{"A<5", "A<5"},
		{`A<"xy"`, `A<"xy"`},
		{"A+1", "A+1"},
		{"A-B", "A-B"},
		{"A<B<C", "A<B B<C"},
		{"1>A>B", "1>A A>B"},
		{"A > B", "A>B"},
		{"o*", "io*"},
		{"*o", "io*"},
		{"A?*", "A? A*"},
		{"?*A", "A*"},
		{"A?*B", "A? A* B*"},
		{"*?o", "io?"},
		{"A?B", "A? B?"},
		{"A? B", "A?"},
		{"A ?", ""},
		{"5?A", "A?"},
		{"(A A>B)", "(A A>B)"},
		{"(A>B)", "(A A>B)"},
		{"(A?)", "(A A?)"},
		{"(A (B B>C) A>D)", "(A (B B>C) A>D)"},
		{"A>B # trailing comment\nB>C", "A>B B>C"},
		{"", ""},
	}

	for _, tc := range tests {
		ops, err := Parse(tc.input)
		if err != nil {
			t.Errorf("Parse(%q): %v", tc.input, err)
			continue
		}
		if got := render(ops); got != tc.want {
			t.Errorf("Parse(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParserArgumentKinds(t *testing.T) {
	ops := mustParse(t, `"ab">A`)
	bin, ok := ops[0].(*BinaryOp)
	if !ok {
		t.Fatalf("op = %T, want *BinaryOp", ops[0])
	}
	arr, ok := bin.Left.(*ArrayLiteral)
	if !ok {
		t.Fatalf("left = %T, want *ArrayLiteral", bin.Left)
	}
	if len(arr.Codes) != 2 || arr.Codes[0] != 'a' || arr.Codes[1] != 'b' {
		t.Errorf("codes = %v, want [97 98]", arr.Codes)
	}
	if ref, ok := bin.Right.(*StackRef); !ok || ref.Name != "A" {
		t.Errorf("right = %v, want stack A", bin.Right)
	}
	if bin.Kind != CopyInto {
		t.Errorf("kind = %v, want >", bin.Kind)
	}
}

func TestParserPositions(t *testing.T) {
	ops := mustParse(t, "A>B\n  (C C?)\n o*")
	if len(ops) != 3 {
		t.Fatalf("got %d ops, want 3", len(ops))
	}
	checks := []struct {
		op        Op
		line, col int
	}{
		{ops[0], 1, 2},
		{ops[1], 2, 3},
		{ops[1].(*LoopOp).Body[0], 2, 7},
		{ops[2], 3, 3},
	}
	for i, c := range checks {
		pos := c.op.Pos()
		if pos.Line != c.line || pos.Column != c.col {
			t.Errorf("op %d (%s) at %s, want row %d col %d", i, c.op, pos, c.line, c.col)
		}
	}
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{">A", "row 1 col 1: missing left argument"},
		{"A>", "row 1 col 2: missing right argument"},
		{"A>>B", "row 1 col 2: missing right argument"},
		{"A? >B", "row 1 col 4: missing left argument"},
		{"5<A", "row 1 col 2: invalid left argument"},
		{"5+A", "row 1 col 2: invalid left argument"},
		{`"s"-A`, "row 1 col 4: invalid left argument"},
		{"A>5", "row 1 col 2: invalid right argument"},
		{"(5)", "row 1 col 1: invalid right argument"},
		{"()", "row 1 col 1: missing right argument"},
		{"(", "row 1 col 1: missing right argument"},
		{"A)", "row 1 col 2: too many ) operators"},
		{"(A\n  (B)", "row 1 col 1: missing ) operators"},
		{"(A (B) (C", "row 1 col 1: missing ) operators"},
		{"A>B)\n(C)", "row 1 col 4: too many ) operators"},
		{"A>B\n  'x", "row 2 col 3: unterminated char literal"},
		{`A<"abc`, "row 1 col 3: unterminated string literal"},
		{"A>B\n é", "row 2 col 2: invalid character 'é'"},
		{"A<99999999999999999999", "row 1 col 3: integer literal 99999999999999999999 out of range"},
	}

	for _, tc := range tests {
		_, err := Parse(tc.input)
		if err == nil {
			t.Errorf("Parse(%q) succeeded, want error %q", tc.input, tc.want)
			continue
		}
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("Parse(%q) error %T, want *SyntaxError", tc.input, err)
			continue
		}
		if err.Error() != tc.want {
			t.Errorf("Parse(%q) error = %q, want %q", tc.input, err.Error(), tc.want)
		}
	}
}

func TestParserIsReentrant(t *testing.T) {
	outer := NewParser("(A A>B)")
	inner := mustParse(t, "C>D")
	ops, err := outer.Parse()
	if err != nil {
		t.Fatalf("outer parse: %v", err)
	}
	if render(ops) != "(A A>B)" || render(inner) != "C>D" {
		t.Errorf("interleaved parses = %q, %q", render(ops), render(inner))
	}
}

func TestCount(t *testing.T) {
	ops := mustParse(t, "A>B (A (B B>C) A>D) o*")
	if n := Count(ops); n != 6 {
		t.Errorf("Count = %d, want 6", n)
	}
}
