package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// AST: operation tree for Kkipple programs
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

func (p Position) String() string {
	return fmt.Sprintf("row %d col %d", p.Line, p.Column)
}

// ---------------------------------------------------------------------------
// Arguments
// ---------------------------------------------------------------------------

// Arg is an operand of a binary operation.
type Arg interface {
	fmt.Stringer
	arg() // marker method
}

// StackRef names a stack. Name is already canonical.
type StackRef struct {
	Name string
}

func (a *StackRef) String() string { return a.Name }
func (a *StackRef) arg()           {}

// IntLiteral is a decimal or character literal.
type IntLiteral struct {
	Value int64
}

func (a *IntLiteral) String() string { return strconv.FormatInt(a.Value, 10) }
func (a *IntLiteral) arg()           {}

// ArrayLiteral is a string literal; Codes are in reading order.
type ArrayLiteral struct {
	Codes []int64
}

func (a *ArrayLiteral) String() string {
	var sb strings.Builder
	for _, c := range a.Codes {
		sb.WriteRune(rune(c))
	}
	return strconv.Quote(sb.String())
}
func (a *ArrayLiteral) arg() {}

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// Op is a single executable operation.
type Op interface {
	fmt.Stringer
	Pos() Position
	op() // marker method
}

// BinaryKind enumerates the binary operators.
type BinaryKind int

const (
	CopyInto BinaryKind = iota // >
	CopyFrom                   // <
	Add                        // +
	Sub                        // -
)

var binarySymbols = [...]string{
	CopyInto: ">",
	CopyFrom: "<",
	Add:      "+",
	Sub:      "-",
}

func (k BinaryKind) String() string {
	if int(k) < len(binarySymbols) {
		return binarySymbols[k]
	}
	return fmt.Sprintf("BinaryKind(%d)", int(k))
}

func binaryKindOf(ch byte) BinaryKind {
	switch ch {
	case '<':
		return CopyFrom
	case '+':
		return Add
	case '-':
		return Sub
	}
	return CopyInto
}

// UnaryKind enumerates the unary operators.
type UnaryKind int

const (
	Test    UnaryKind = iota // ?
	Trigger                  // *
)

func (k UnaryKind) String() string {
	if k == Trigger {
		return "*"
	}
	return "?"
}

func unaryKindOf(ch byte) UnaryKind {
	if ch == '*' {
		return Trigger
	}
	return Test
}

// BinaryOp is `Left op Right`. For CopyInto the destination is Right;
// for the other kinds it is Left.
type BinaryOp struct {
	Kind     BinaryKind
	Left     Arg
	Right    Arg
	Position Position
}

func (o *BinaryOp) String() string { return o.Left.String() + o.Kind.String() + o.Right.String() }
func (o *BinaryOp) Pos() Position  { return o.Position }
func (o *BinaryOp) op()            {}

// UnaryOp applies a test or trigger to a stack.
type UnaryOp struct {
	Kind     UnaryKind
	Target   *StackRef
	Position Position
}

func (o *UnaryOp) String() string { return o.Target.Name + o.Kind.String() }
func (o *UnaryOp) Pos() Position  { return o.Position }
func (o *UnaryOp) op()            {}

// LoopOp runs Body while Target is non-empty.
type LoopOp struct {
	Target   *StackRef
	Body     []Op
	Position Position
}

func (o *LoopOp) String() string {
	return fmt.Sprintf("(%s [%d ops])", o.Target.Name, len(o.Body))
}
func (o *LoopOp) Pos() Position { return o.Position }
func (o *LoopOp) op()           {}

// Count returns the number of operations in ops, including loop bodies.
func Count(ops []Op) int {
	n := 0
	for _, o := range ops {
		n++
		if l, ok := o.(*LoopOp); ok {
			n += Count(l.Body)
		}
	}
	return n
}
