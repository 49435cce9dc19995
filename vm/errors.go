package vm

import (
	"errors"
	"fmt"

	"github.com/chazu/kkipple/compiler"
)

// ErrExecGuard is returned when injected code touches the execute stack
// that produced it.
var ErrExecGuard = errors.New("cannot modify execute stack within itself")

// ErrOverflow is returned when arithmetic leaves the int64 range.
var ErrOverflow = errors.New("integer overflow")

// Error is a runtime failure at a source position.
type Error struct {
	Pos compiler.Position
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Pos, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
