package server

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

func TestDiagnoseValidSource(t *testing.T) {
	if got := diagnose("1>A (A A>o) o*"); len(got) != 0 {
		t.Errorf("diagnose = %+v, want none", got)
	}
}

func TestDiagnoseSyntaxError(t *testing.T) {
	tests := []struct {
		src  string
		line protocol.UInteger
		char protocol.UInteger
		msg  string
	}{
		{"1>A\n  A>", 1, 3, "missing right argument"},
		{"(A A>B", 0, 0, "missing ) operators"},
		{"A>B)", 0, 3, "too many ) operators"},
		{"1>A\n$", 1, 0, "invalid character '$'"},
	}

	for _, tc := range tests {
		got := diagnose(tc.src)
		if len(got) != 1 {
			t.Errorf("diagnose(%q) = %d diagnostics, want 1", tc.src, len(got))
			continue
		}
		d := got[0]
		if d.Range.Start.Line != tc.line || d.Range.Start.Character != tc.char {
			t.Errorf("diagnose(%q) start = %+v, want %d:%d", tc.src, d.Range.Start, tc.line, tc.char)
		}
		if d.Message != tc.msg {
			t.Errorf("diagnose(%q) message = %q, want %q", tc.src, d.Message, tc.msg)
		}
		if d.Severity == nil || *d.Severity != protocol.DiagnosticSeverityError {
			t.Errorf("diagnose(%q) severity = %v", tc.src, d.Severity)
		}
	}
}

// ---------------------------------------------------------------------------
// Hover
// ---------------------------------------------------------------------------

func hoverText(t *testing.T, h *protocol.Hover) string {
	t.Helper()
	mc, ok := h.Contents.(protocol.MarkupContent)
	if !ok {
		t.Fatalf("hover contents %T, want MarkupContent", h.Contents)
	}
	return mc.Value
}

func TestHoverStackName(t *testing.T) {
	text := "1>A\n'x'>o o*"
	h := hover(text, protocol.Position{Line: 1, Character: 4})
	if h == nil {
		t.Fatal("no hover on o")
	}
	value := hoverText(t, h)
	if !strings.Contains(value, "**io** (io stack)") {
		t.Errorf("hover = %q", value)
	}
	if !strings.Contains(value, "Referenced 2 times") {
		t.Errorf("hover = %q, want 2 references", value)
	}
	if h.Range.Start.Character != 4 || h.Range.End.Character != 5 {
		t.Errorf("hover range = %+v", h.Range)
	}
}

func TestHoverVariants(t *testing.T) {
	tests := []struct {
		text string
		char protocol.UInteger
		want string
	}{
		{"5>@", 2, "(digits stack)"},
		{"&*", 0, "(exec stack)"},
		{"C>A", 0, "(copy stack)"},
		{"C>abc", 3, "**abc** (generic stack)"},
		{"1>0", 2, "(null stack)"},
	}
	for _, tc := range tests {
		h := hover(tc.text, protocol.Position{Line: 0, Character: tc.char})
		if h == nil {
			t.Errorf("hover(%q, %d) = nil", tc.text, tc.char)
			continue
		}
		if value := hoverText(t, h); !strings.Contains(value, tc.want) {
			t.Errorf("hover(%q, %d) = %q, want %q", tc.text, tc.char, value, tc.want)
		}
	}
}

func TestHoverOffStack(t *testing.T) {
	// Digits of a number, an operator, a comment and past the end.
	for _, char := range []protocol.UInteger{0, 1, 2, 7, 10} {
		if h := hover("10>A # A", protocol.Position{Line: 0, Character: char}); h != nil {
			t.Errorf("hover at %d = %+v, want nil", char, h)
		}
	}
}

// ---------------------------------------------------------------------------
// Completion
// ---------------------------------------------------------------------------

func TestCompleteListsStacks(t *testing.T) {
	items := complete("1>foo o>bar")
	var labels []string
	for _, it := range items {
		labels = append(labels, it.Label)
	}
	want := "&,0,@,C,bar,foo,io"
	if got := strings.Join(labels, ","); got != want {
		t.Errorf("labels = %s, want %s", got, want)
	}
	for _, it := range items {
		if it.Label == "@" && (it.Detail == nil || *it.Detail != "digits stack") {
			t.Errorf("@ detail = %v", it.Detail)
		}
	}
}
