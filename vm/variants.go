package vm

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/chazu/kkipple/compiler"
)

// ---------------------------------------------------------------------------
// Variant dispatch: push, pop, peek, test, trigger
// ---------------------------------------------------------------------------

func (i *Interpreter) guardExec(s *Stack) error {
	if s.Variant == Exec && i.guard > 0 {
		return ErrExecGuard
	}
	return nil
}

func (i *Interpreter) push(s *Stack, v int64) error {
	if err := i.guardExec(s); err != nil {
		return err
	}
	switch s.Variant {
	case Null:
		return nil
	case Copy:
		s.vals = append(s.vals[:0], v)
		return nil
	case Digits:
		if s.expand {
			for _, d := range strconv.FormatInt(v, 10) {
				s.append(int64(d))
			}
			return nil
		}
	}
	s.append(v)
	return nil
}

func (i *Interpreter) peek(s *Stack) (int64, error) {
	if err := i.guardExec(s); err != nil {
		return 0, err
	}
	switch s.Variant {
	case Null:
		return 0, nil
	case IO:
		if s.Empty() {
			if err := i.readInput(s); err != nil {
				return 0, err
			}
		}
	}
	return s.top(), nil
}

func (i *Interpreter) pop(s *Stack) (int64, error) {
	if err := i.guardExec(s); err != nil {
		return 0, err
	}
	switch s.Variant {
	case Null:
		return 0, nil
	case Copy:
		return s.top(), nil
	case IO:
		v, err := i.peek(s)
		if err != nil {
			return 0, err
		}
		s.take()
		return v, nil
	}
	return s.take(), nil
}

// test clears the stack when its top is zero.
func (i *Interpreter) test(s *Stack) error {
	if err := i.guardExec(s); err != nil {
		return err
	}
	switch s.Variant {
	case Null, Copy:
		return nil
	}
	v, err := i.peek(s)
	if err != nil {
		return err
	}
	if v == 0 {
		s.clear()
	}
	return nil
}

func (i *Interpreter) trigger(s *Stack, pos compiler.Position) error {
	switch s.Variant {
	case IO:
		return i.triggerOutput(s)
	case Digits:
		return i.triggerDigits(s)
	case Exec:
		return i.triggerExec(s, pos)
	}
	return nil
}

// readInput pushes the next input rune, or 0 at end of input.
func (i *Interpreter) readInput(s *Stack) error {
	r, _, err := i.in.ReadRune()
	if errors.Is(err, io.EOF) {
		s.append(0)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	s.append(int64(r))
	return nil
}

func validCodepoint(v int64) bool {
	return v >= 0 && v <= unicode.MaxRune
}

// triggerOutput writes the whole stack, top first, then flushes.
func (i *Interpreter) triggerOutput(s *Stack) error {
	for !s.Empty() {
		v, err := i.pop(s)
		if err != nil {
			return err
		}
		if !validCodepoint(v) {
			return fmt.Errorf("invalid codepoint %d in I/O stack", v)
		}
		if _, err := i.out.WriteRune(rune(v)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	if err := i.out.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// triggerDigits folds the digit codes into one number, reading them top
// first, so the digits of 123 come back as 321.
func (i *Interpreter) triggerDigits(s *Stack) error {
	if s.Empty() {
		s.expand = !s.expand
		return nil
	}
	var val int64
	for !s.Empty() {
		d := s.take()
		if d < '0' || d > '9' {
			return fmt.Errorf("invalid digit %d in digits stack", d)
		}
		if val > (math.MaxInt64-(d-'0'))/10 {
			return fmt.Errorf("%w in digits stack", ErrOverflow)
		}
		val = val*10 + (d - '0')
	}
	s.expand = !s.expand
	return i.push(s, val)
}

// triggerExec parses the stack contents as code and schedules it ahead of
// everything already queued.
func (i *Interpreter) triggerExec(s *Stack, pos compiler.Position) error {
	var sb strings.Builder
	for !s.Empty() {
		v, err := i.pop(s)
		if err != nil {
			return err
		}
		if !validCodepoint(v) {
			return fmt.Errorf("invalid codepoint %d in execute stack", v)
		}
		sb.WriteRune(rune(v))
	}

	ops, err := compiler.Parse(sb.String())
	if err != nil {
		var se *compiler.SyntaxError
		if errors.As(err, &se) {
			return fmt.Errorf("%s in execute stack", se.Msg)
		}
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	if i.guard == 0 {
		i.tracker.Freeze(pos)
	}
	i.splice(ops)
	i.guard += len(ops)
	log.Debugf("execute stack injected %d ops at %s (guard %d)", len(ops), pos, i.guard)
	return nil
}
