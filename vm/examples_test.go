package vm_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/kkipple/vm"
)

// ---------------------------------------------------------------------------
// Example programs, run end to end
// ---------------------------------------------------------------------------

func runExample(t *testing.T, name, input string) string {
	t.Helper()
	src, err := os.ReadFile(filepath.Join("..", "examples", name))
	if err != nil {
		t.Fatalf("read example: %v", err)
	}
	var out bytes.Buffer
	if err := vm.Run(string(src), strings.NewReader(input), &out); err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return out.String()
}

func TestExamples(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"hello.kk", "", "Hello, world!\n"},
		{"cat.kk", "line one\nline two\n", "line one\nline two\n"},
		{"cat.kk", "", ""},
		{"reverse.kk", "stressed", "desserts"},
		{"multiply.kk", "", "42\n"},
		{"selfmod.kk", "", "Hi!"},
	}

	for _, tc := range tests {
		if got := runExample(t, tc.name, tc.input); got != tc.want {
			t.Errorf("%s with input %q = %q, want %q", tc.name, tc.input, got, tc.want)
		}
	}
}

func TestExamplesParse(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "examples", "*.kk"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no example programs found")
	}
	for _, f := range files {
		// Every example must at least run to completion on empty input.
		runExample(t, filepath.Base(f), "")
	}
}
