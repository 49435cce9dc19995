// Package manifest handles kkipple.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the configuration file.
const FileName = "kkipple.toml"

// Manifest represents a kkipple.toml project configuration.
type Manifest struct {
	Run      Run            `toml:"run"`
	Log      LogConfig      `toml:"log"`
	Trace    TraceConfig    `toml:"trace"`
	Snapshot SnapshotConfig `toml:"snapshot"`

	// Dir is the directory containing the kkipple.toml file (set at load time).
	Dir string `toml:"-"`
}

// Run selects the program and its input.
type Run struct {
	Entry string `toml:"entry"`
	Input string `toml:"input"`
}

// LogConfig configures commonlog.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// TraceConfig configures step recording.
type TraceConfig struct {
	DB string `toml:"db"`
}

// SnapshotConfig configures the stack dump written after a run.
type SnapshotConfig struct {
	Output string `toml:"output"`
}

// Load parses a kkipple.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses the configuration file at path. Relative paths inside
// it are taken relative to the file's directory.
func LoadFile(path string) (*Manifest, error) {
	var m Manifest
	md, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if m.Log.Verbosity < 0 {
		return nil, fmt.Errorf("%s: log verbosity must not be negative", path)
	}

	m.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a kkipple.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if fileExists(path) {
			return LoadFile(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// resolve makes p absolute against the manifest directory. Empty stays empty.
func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// EntryPath returns the program file, or "" if none is configured.
func (m *Manifest) EntryPath() string { return m.resolve(m.Run.Entry) }

// InputPath returns the input file, or "" for standard input.
func (m *Manifest) InputPath() string { return m.resolve(m.Run.Input) }

// LogPath returns the log file, or "" for standard error.
func (m *Manifest) LogPath() string { return m.resolve(m.Log.File) }

// TraceDBPath returns the trace database, or "" when tracing is off.
func (m *Manifest) TraceDBPath() string { return m.resolve(m.Trace.DB) }

// SnapshotPath returns the snapshot file, or "" when no snapshot is written.
func (m *Manifest) SnapshotPath() string { return m.resolve(m.Snapshot.Output) }
