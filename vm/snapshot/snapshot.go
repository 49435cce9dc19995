// Package snapshot captures the stacks of an interpreter and encodes them
// as canonical CBOR or as YAML.
package snapshot

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/chazu/kkipple/vm"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Snapshot is the state of every stack after a run.
type Snapshot struct {
	RunID  string  `cbor:"1,keyasint,omitempty" yaml:"run_id,omitempty"`
	Steps  uint64  `cbor:"2,keyasint" yaml:"steps"`
	Stacks []Stack `cbor:"3,keyasint" yaml:"stacks"`
}

// Stack is one stack in a snapshot. Values are bottom first.
type Stack struct {
	Name      string  `cbor:"1,keyasint" yaml:"name"`
	Variant   string  `cbor:"2,keyasint" yaml:"variant"`
	Values    []int64 `cbor:"3,keyasint" yaml:"values,flow"`
	Expanding bool    `cbor:"4,keyasint,omitempty" yaml:"expanding,omitempty"`
}

// Capture copies the current stacks of interp.
func Capture(interp *vm.Interpreter) *Snapshot {
	s := &Snapshot{Steps: interp.Steps()}
	for _, st := range interp.Stacks() {
		entry := Stack{Name: st.Name, Variant: st.Variant.String(), Values: st.Values}
		if st.Variant == vm.Digits {
			if live, ok := interp.Registry().Get(st.Name); ok {
				entry.Expanding = live.Expanding()
			}
		}
		s.Stacks = append(s.Stacks, entry)
	}
	return s
}

// Lookup returns the named stack of the snapshot.
func (s *Snapshot) Lookup(name string) (Stack, bool) {
	for _, st := range s.Stacks {
		if st.Name == name {
			return st, true
		}
	}
	return Stack{}, false
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// Marshal serializes a Snapshot to canonical CBOR bytes.
func Marshal(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// Unmarshal deserializes a Snapshot from CBOR bytes.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// MarshalYAML serializes a Snapshot as a YAML document.
func MarshalYAML(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("snapshot: marshal yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("snapshot: encoder close: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalYAML deserializes a Snapshot from YAML, rejecting unknown fields.
func UnmarshalYAML(data []byte) (*Snapshot, error) {
	var s Snapshot
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("snapshot: parse yaml: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Snapshot) validate() error {
	for _, st := range s.Stacks {
		if _, err := vm.ParseVariant(st.Variant); err != nil {
			return fmt.Errorf("snapshot: stack %q: %w", st.Name, err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Files
// ---------------------------------------------------------------------------

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// WriteFile writes s to path, as YAML for .yaml/.yml files and CBOR
// otherwise.
func WriteFile(path string, s *Snapshot) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = MarshalYAML(s)
	} else {
		data, err = Marshal(s)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	return nil
}

// ReadFile reads a snapshot written by WriteFile.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", path, err)
	}
	if isYAML(path) {
		return UnmarshalYAML(data)
	}
	return Unmarshal(data)
}
