package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[run]
entry = "hello.kk"
input = "data/in.txt"

[log]
verbosity = 2
file = "/var/log/kk.log"

[trace]
db = "trace.db"

[snapshot]
output = "stacks.yaml"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Run.Entry != "hello.kk" {
		t.Errorf("run entry = %q, want hello.kk", m.Run.Entry)
	}
	if m.Log.Verbosity != 2 {
		t.Errorf("log verbosity = %d, want 2", m.Log.Verbosity)
	}

	abs, _ := filepath.Abs(dir)
	if m.Dir != abs {
		t.Errorf("dir = %q, want %q", m.Dir, abs)
	}
	if got := m.EntryPath(); got != filepath.Join(abs, "hello.kk") {
		t.Errorf("entry path = %q", got)
	}
	if got := m.InputPath(); got != filepath.Join(abs, "data", "in.txt") {
		t.Errorf("input path = %q", got)
	}
	if got := m.LogPath(); got != "/var/log/kk.log" {
		t.Errorf("absolute log path rewritten to %q", got)
	}
	if got := m.TraceDBPath(); got != filepath.Join(abs, "trace.db") {
		t.Errorf("trace db path = %q", got)
	}
	if got := m.SnapshotPath(); got != filepath.Join(abs, "stacks.yaml") {
		t.Errorf("snapshot path = %q", got)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[run]\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.EntryPath() != "" || m.InputPath() != "" || m.TraceDBPath() != "" || m.SnapshotPath() != "" {
		t.Errorf("empty manifest produced paths: %+v", m)
	}
	if m.Log.Verbosity != 0 {
		t.Errorf("verbosity = %d, want 0", m.Log.Verbosity)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[run]\nentry = \"a.kk\"\nentri = \"b.kk\"\n")

	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "run.entri") {
		t.Errorf("err = %v, want unknown key run.entri", err)
	}
}

func TestLoadRejectsNegativeVerbosity(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[log]\nverbosity = -1\n")
	if _, err := Load(dir); err == nil {
		t.Error("expected error for negative verbosity")
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for missing manifest")
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[run]\nentry = \"main.kk\"\n")

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	abs, _ := filepath.Abs(root)
	if m.EntryPath() != filepath.Join(abs, "main.kk") {
		t.Errorf("entry path = %q", m.EntryPath())
	}
}

func TestFindAndLoadNone(t *testing.T) {
	m, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m != nil {
		t.Errorf("found manifest %+v in empty tree", m)
	}
}
