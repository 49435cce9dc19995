package vm

import (
	"fmt"

	"github.com/chazu/kkipple/compiler"
)

// ---------------------------------------------------------------------------
// Stack variants
// ---------------------------------------------------------------------------

// Variant selects the behavior of a stack. The set is closed; a stack's
// variant is fixed when it is created.
type Variant uint8

const (
	Generic Variant = iota
	IO
	Digits
	Exec
	Null
	Copy
)

var variantNames = [...]string{
	Generic: "generic",
	IO:      "io",
	Digits:  "digits",
	Exec:    "exec",
	Null:    "null",
	Copy:    "copy",
}

func (v Variant) String() string {
	if int(v) < len(variantNames) {
		return variantNames[v]
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant is the inverse of Variant.String.
func ParseVariant(s string) (Variant, error) {
	for v, name := range variantNames {
		if name == s {
			return Variant(v), nil
		}
	}
	return Generic, fmt.Errorf("unknown stack variant %q", s)
}

// VariantOf returns the variant a stack named name is created with.
func VariantOf(name string) Variant {
	switch compiler.CanonicalStackName(name) {
	case "io":
		return IO
	case "@":
		return Digits
	case "&":
		return Exec
	case "0":
		return Null
	case "C":
		return Copy
	}
	return Generic
}

// ---------------------------------------------------------------------------
// Stack
// ---------------------------------------------------------------------------

// Stack is a named LIFO of integers. Behavior that depends on the variant
// lives on Interpreter, which owns the input, output and exec guard.
type Stack struct {
	Name    string
	Variant Variant

	vals []int64

	// expand is the Digits mode: the next push splits the value into its
	// decimal digit codes.
	expand bool
}

func newStack(name string, variant Variant) *Stack {
	s := &Stack{Name: name, Variant: variant}
	switch variant {
	case Digits:
		s.expand = true
	case Copy:
		s.vals = []int64{0}
	}
	return s
}

// Empty is the raw length check; it never reads input.
func (s *Stack) Empty() bool {
	return len(s.vals) == 0
}

// Len returns the number of stored entries.
func (s *Stack) Len() int {
	return len(s.vals)
}

// Values returns a copy of the entries, bottom first.
func (s *Stack) Values() []int64 {
	out := make([]int64, len(s.vals))
	copy(out, s.vals)
	return out
}

// Expanding reports the Digits mode.
func (s *Stack) Expanding() bool {
	return s.expand
}

func (s *Stack) top() int64 {
	if len(s.vals) == 0 {
		return 0
	}
	return s.vals[len(s.vals)-1]
}

func (s *Stack) take() int64 {
	v := s.top()
	if len(s.vals) > 0 {
		s.vals = s.vals[:len(s.vals)-1]
	}
	return v
}

func (s *Stack) append(v int64) {
	s.vals = append(s.vals, v)
}

func (s *Stack) clear() {
	s.vals = s.vals[:0]
}
