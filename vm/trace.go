package vm

import "github.com/chazu/kkipple/compiler"

// Step describes one dispatched operation.
type Step struct {
	Seq   uint64            // 1-based dispatch count
	Op    compiler.Op       // the operation about to run
	Pos   compiler.Position // reported position (frozen inside injected code)
	Guard int               // exec guard before the operation runs
}

// Tracer observes execution. A non-nil error from Step aborts the run.
type Tracer interface {
	Step(Step) error
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(Step) error

func (f TracerFunc) Step(s Step) error {
	return f(s)
}
