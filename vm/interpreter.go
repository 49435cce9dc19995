package vm

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/emirpasic/gods/lists/doublylinkedlist"
	"github.com/tliron/commonlog"

	"github.com/chazu/kkipple/compiler"
)

var log = commonlog.GetLogger("kkipple.vm")

// ---------------------------------------------------------------------------
// Interpreter
// ---------------------------------------------------------------------------

// Interpreter executes Kkipple operations. All run state (stacks, queue,
// exec guard) belongs to the value, so independent interpreters never
// interfere.
type Interpreter struct {
	stacks  *Registry
	queue   *doublylinkedlist.List // of compiler.Op; front is next
	guard   int                    // injected ops still to run
	tracker Tracker

	in  *bufio.Reader
	out *bufio.Writer

	tracer Tracer
	steps  uint64
}

// NewInterpreter creates an interpreter reading input from in and writing
// output to out. Either may be nil.
func NewInterpreter(in io.Reader, out io.Writer) *Interpreter {
	if in == nil {
		in = strings.NewReader("")
	}
	if out == nil {
		out = io.Discard
	}
	br, ok := in.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(in)
	}
	return &Interpreter{
		stacks: NewRegistry(),
		queue:  doublylinkedlist.New(),
		in:     br,
		out:    bufio.NewWriter(out),
	}
}

// Run parses src and executes it on a fresh interpreter.
func Run(src string, in io.Reader, out io.Writer) error {
	return NewInterpreter(in, out).Eval(src)
}

// SetTracer installs a tracer that sees every dispatched operation.
func (i *Interpreter) SetTracer(t Tracer) {
	i.tracer = t
}

// Registry returns the interpreter's stacks.
func (i *Interpreter) Registry() *Registry {
	return i.stacks
}

// Steps returns the number of operations dispatched so far.
func (i *Interpreter) Steps() uint64 {
	return i.steps
}

// Guard returns the exec guard counter.
func (i *Interpreter) Guard() int {
	return i.guard
}

// Pending returns the number of queued operations.
func (i *Interpreter) Pending() int {
	return i.queue.Size()
}

// Eval parses src, queues it behind anything already pending, and runs.
func (i *Interpreter) Eval(src string) error {
	ops, err := compiler.Parse(src)
	if err != nil {
		return err
	}
	i.Load(ops)
	return i.Run()
}

// Load appends ops to the back of the queue.
func (i *Interpreter) Load(ops []compiler.Op) {
	for _, op := range ops {
		i.queue.Add(op)
	}
}

// splice puts ops, followed by tail, at the front of the queue.
func (i *Interpreter) splice(ops []compiler.Op, tail ...compiler.Op) {
	vals := make([]interface{}, 0, len(ops)+len(tail))
	for _, op := range ops {
		vals = append(vals, op)
	}
	for _, op := range tail {
		vals = append(vals, op)
	}
	i.queue.Prepend(vals...)
}

// Run executes queued operations until the queue is empty. A program that
// never empties its queue never returns. On error the queue and guard are
// discarded; stacks are kept.
func (i *Interpreter) Run() (err error) {
	defer func() {
		if ferr := i.out.Flush(); ferr != nil && err == nil {
			err = fmt.Errorf("write output: %w", ferr)
		}
	}()

	for !i.queue.Empty() {
		v, _ := i.queue.Get(0)
		i.queue.Remove(0)
		if err = i.step(v.(compiler.Op)); err != nil {
			i.reset()
			return err
		}
	}
	log.Debugf("queue drained after %d steps, %d stacks", i.steps, i.stacks.Len())
	return nil
}

func (i *Interpreter) reset() {
	i.queue.Clear()
	i.guard = 0
	i.tracker.Thaw()
}

func (i *Interpreter) step(op compiler.Op) error {
	i.steps++
	pos := i.tracker.Resolve(op.Pos())

	if i.tracer != nil {
		if err := i.tracer.Step(Step{Seq: i.steps, Op: op, Pos: pos, Guard: i.guard}); err != nil {
			return fmt.Errorf("trace: %w", err)
		}
	}

	guarded := i.guard > 0
	if err := i.dispatch(op, pos); err != nil {
		return &Error{Pos: pos, Err: err}
	}
	if guarded {
		i.guard--
		if i.guard == 0 {
			i.tracker.Thaw()
			log.Debug("injected code finished")
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

func (i *Interpreter) dispatch(op compiler.Op, pos compiler.Position) error {
	switch o := op.(type) {
	case *compiler.BinaryOp:
		return i.binary(o)
	case *compiler.UnaryOp:
		s := i.stacks.Lookup(o.Target.Name)
		if o.Kind == compiler.Trigger {
			return i.trigger(s, pos)
		}
		return i.test(s)
	case *compiler.LoopOp:
		s := i.stacks.Lookup(o.Target.Name)
		if s.Empty() {
			return nil
		}
		i.splice(o.Body, o)
		if i.guard > 0 {
			i.guard += len(o.Body) + 1
		}
		return nil
	}
	return fmt.Errorf("unknown operation %T", op)
}

func (i *Interpreter) binary(o *compiler.BinaryOp) error {
	if o.Kind == compiler.CopyInto {
		dst := i.stackOf(o.Right)
		vals, err := i.resolve(o.Left, dst, true)
		if err != nil {
			return err
		}
		return i.pushAll(dst, vals)
	}

	dst := i.stackOf(o.Left)
	vals, err := i.resolve(o.Right, dst, false)
	if err != nil {
		return err
	}
	if o.Kind == compiler.CopyFrom {
		return i.pushAll(dst, vals)
	}

	for _, v := range vals {
		top, err := i.pop(dst)
		if err != nil {
			return err
		}
		r, err := arith(o.Kind, top, v)
		if err != nil {
			return err
		}
		if err := i.push(dst, r); err != nil {
			return err
		}
	}
	return nil
}

// arith applies + or - and fails instead of wrapping around.
func arith(kind compiler.BinaryKind, a, b int64) (int64, error) {
	if kind == compiler.Sub {
		r := a - b
		if (b > 0 && r > a) || (b < 0 && r < a) {
			return 0, fmt.Errorf("%w in %d-%d", ErrOverflow, a, b)
		}
		return r, nil
	}
	r := a + b
	if (b > 0 && r < a) || (b < 0 && r > a) {
		return 0, fmt.Errorf("%w in %d+%d", ErrOverflow, a, b)
	}
	return r, nil
}

// stackOf returns the stack a destination operand names. The parser only
// lets stack references reach destination slots.
func (i *Interpreter) stackOf(arg compiler.Arg) *Stack {
	return i.stacks.Lookup(arg.(*compiler.StackRef).Name)
}

// resolve turns a source operand into the values to push onto dst. A stack
// source gives up its top entry (only a copy of it when dst is a Copy stack).
// reverse flips array literals so that pushing them one by one leaves the
// first character on top.
func (i *Interpreter) resolve(arg compiler.Arg, dst *Stack, reverse bool) ([]int64, error) {
	switch a := arg.(type) {
	case *compiler.StackRef:
		src := i.stacks.Lookup(a.Name)
		var v int64
		var err error
		if dst.Variant == Copy {
			v, err = i.peek(src)
		} else {
			v, err = i.pop(src)
		}
		if err != nil {
			return nil, err
		}
		return []int64{v}, nil
	case *compiler.IntLiteral:
		return []int64{a.Value}, nil
	case *compiler.ArrayLiteral:
		if !reverse {
			return a.Codes, nil
		}
		out := make([]int64, len(a.Codes))
		for k, c := range a.Codes {
			out[len(out)-1-k] = c
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown argument %T", arg)
}

func (i *Interpreter) pushAll(dst *Stack, vals []int64) error {
	for _, v := range vals {
		if err := i.push(dst, v); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Inspection
// ---------------------------------------------------------------------------

// StackState is a copy of one stack at a point in time.
type StackState struct {
	Name    string
	Variant Variant
	Values  []int64 // bottom first
}

// Stacks returns every stack created so far, sorted by name.
func (i *Interpreter) Stacks() []StackState {
	states := make([]StackState, 0, i.stacks.Len())
	for _, name := range i.stacks.Names() {
		s, _ := i.stacks.Get(name)
		states = append(states, StackState{Name: name, Variant: s.Variant, Values: s.Values()})
	}
	return states
}

// Values returns a copy of the named stack's entries, bottom first, or nil
// if no such stack exists.
func (i *Interpreter) Values(name string) []int64 {
	s, ok := i.stacks.Get(compiler.CanonicalStackName(name))
	if !ok {
		return nil
	}
	return s.Values()
}
