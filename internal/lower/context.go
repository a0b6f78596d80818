// Package lower implements LinkJump, the control-flow lowering pass: it
// rewrites return/break/continue/disable into label/goto form, normalizes
// repeat and do-while loops into while loops, and diagnoses illegal control
// flow, per IEEE 1800-2023 semantics. It runs after name resolution and
// before any later optimization pass; see SPEC_FULL.md for the full
// component breakdown this package follows.
package lower

import (
	"fmt"

	"github.com/hdlsim/vlower/internal/diagnostics"
	"github.com/hdlsim/vlower/internal/hdlast"
)

// ICE is raised (via panic) when the pass reaches a state that can only be
// explained by an upstream bug — an unknown jump-anchor kind, or a missing
// statement under an anchor that findOrInsertLabel was asked to wrap. It is
// recovered at the cmd/linkjump boundary and reported as a fatal diagnostic,
// matching V3LinkJump.cpp's v3fatalSrc calls (spec.md §7c).
type ICE struct {
	Message string
}

func (e ICE) Error() string { return "internal error: " + e.Message }

func ice(format string, args ...any) {
	panic(ICE{Message: fmt.Sprintf(format, args...)})
}

// loweringContext carries the traversal state a pure recursive descent needs
// explicit save/restore for. Where Verilator threads this through member
// variables on a stateful visitor object and restores them with VL_RESTORER
// on scope exit, a Go recursive call gets the same save/restore for free
// just by being local variables passed down the call stack (spec.md §4.1,
// §9 "Context stack").
type loweringContext struct {
	diags *diagnostics.Manager

	currentModule         *hdlast.Module
	currentFunctionOrTask *hdlast.FunctionOrTask
	currentLoop           hdlast.LoopAnchor
	inLoopIncrement       bool
	inFork                bool

	// blockStack holds every enclosing Begin/Fork, innermost last, used by
	// disable-target resolution and (implicitly, via the caller already
	// having walked in) fork-ancestor marking.
	blockStack []hdlast.NamedBlock
}

func newContext(diags *diagnostics.Manager) *loweringContext {
	return &loweringContext{diags: diags}
}

// pushBlock returns a new context with block appended to blockStack. The
// caller restores by simply continuing to use its own (unmodified) context
// after the recursive call returns — there is nothing to undo explicitly
// since we never mutate the parent context's slice header in place beyond
// what append's usual aliasing rules already guarantee for this pass's
// single-traversal usage.
func (c *loweringContext) pushBlock(b hdlast.NamedBlock) *loweringContext {
	next := *c
	next.blockStack = append(append([]hdlast.NamedBlock{}, c.blockStack...), b)

	return &next
}

func (c *loweringContext) withLoop(l hdlast.LoopAnchor) *loweringContext {
	next := *c
	next.currentLoop = l

	return &next
}

func (c *loweringContext) withInLoopIncrement(v bool) *loweringContext {
	next := *c
	next.inLoopIncrement = v

	return &next
}

func (c *loweringContext) withModule(m *hdlast.Module) *loweringContext {
	next := *c
	next.currentModule = m

	return &next
}

func (c *loweringContext) withFunctionOrTask(f *hdlast.FunctionOrTask) *loweringContext {
	next := *c
	next.currentFunctionOrTask = f

	return &next
}

func (c *loweringContext) withInFork(v bool) *loweringContext {
	next := *c
	next.inFork = v

	return &next
}
