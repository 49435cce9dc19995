package vm

import "github.com/chazu/kkipple/compiler"

// Tracker decides which source position runtime errors report. While code
// injected by the execute stack runs, every position resolves to the
// trigger that injected it.
type Tracker struct {
	frozen bool
	at     compiler.Position
}

// Freeze pins all positions to pos until Thaw.
func (t *Tracker) Freeze(pos compiler.Position) {
	t.frozen = true
	t.at = pos
}

// Thaw releases a frozen position.
func (t *Tracker) Thaw() {
	t.frozen = false
	t.at = compiler.Position{}
}

// Frozen reports whether a position is pinned.
func (t *Tracker) Frozen() bool {
	return t.frozen
}

// Resolve maps an operation's own position to the one to report.
func (t *Tracker) Resolve(pos compiler.Position) compiler.Position {
	if t.frozen {
		return t.at
	}
	return pos
}
