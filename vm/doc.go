// Package vm implements the Kkipple interpreter.
//
// This package contains:
//   - Named stacks and their six variants
//   - The instruction queue and loop expansion
//   - Execute-stack code injection and its guard
//   - Source position tracking for runtime errors
package vm
