package lower

import (
	"github.com/hdlsim/vlower/internal/hdlast"
	"github.com/hdlsim/vlower/internal/position"
)

// hoistVars splits stmts into (hoisted Var declarations, everything else),
// preserving the relative order within each group. Unlike a prefix-only
// scan, this walks the entire range being wrapped: a Var declared anywhere
// inside the wrapped region — not just ones leading it — must surface as a
// direct sibling of the inserted JumpBlock, never nested inside it
// (spec.md §4.5 step 2 and step 4, invariant P4). V3LinkJump.cpp's
// findAddLabel does this with two separate loops (skip leading vars to find
// underp, then a second full-range `for (varp = underp; varp; varp =
// nextp)` loop); hoistVars folds both into one pass since a slice rebuild
// doesn't need Verilator's live unlink/relink bookkeeping to do it.
func hoistVars(stmts []hdlast.Stmt) (hoisted, rest []hdlast.Stmt) {
	for _, s := range stmts {
		if decl, ok := s.(*hdlast.VarDeclStmt); ok {
			hoisted = append(hoisted, decl)
		} else {
			rest = append(rest, s)
		}
	}

	return hoisted, rest
}

// wrapAroundExistingLabel wraps rest in a JumpBlock ending in label. Unlike
// a fresh wrap, this never mints a new label: by the time a wrap is applied
// (always a post-step, after every JumpGoStmt targeting label has already
// been built — see applyExitWrap), the label object is already shared by
// every jump that targets it, so reusing any other instance would orphan
// them. If rest already reduces to exactly that same bare label, or to a
// JumpBlock already ending in that same label (this exact range was already
// wrapped — by an earlier call in this traversal, or by a prior run of the
// whole pass over already-lowered input), it is returned as-is instead of
// nesting a redundant JumpBlock — the defensive reuse path in spec.md §4.5
// step 3, and what keeps a second Run over lowered output a no-op.
func wrapAroundExistingLabel(span position.Span, label *hdlast.JumpLabel, rest []hdlast.Stmt) hdlast.Stmt {
	if len(rest) == 1 {
		switch r := rest[0].(type) {
		case *hdlast.JumpLabel:
			if r == label {
				return label
			}
		case *hdlast.JumpBlock:
			if r.Label == label {
				return r
			}
		}
	}

	return hdlast.NewJumpBlock(span, label, rest)
}

// applyExitWrap produces the final statement list for an anchor whose
// endOfIter=false (or, for loop bodies, endOfIter=true) label was requested
// somewhere during lowering of body: hoisted var decls stay direct siblings
// and the remaining statements end up wrapped in one JumpBlock ending in
// label (spec.md §4.5 steps 2 and 4).
//
// This must run as a post-step, once body has completely finished being
// lowered and assigned back onto its owner (the FunctionOrTask/BeginBlock/
// loop whose label was requested) — never as a side effect reached from
// inside the very call that is still in the middle of building that body,
// since the caller that owns the reassignment would just overwrite it.
func applyExitWrap(span position.Span, label *hdlast.JumpLabel, body []hdlast.Stmt) []hdlast.Stmt {
	hoisted, rest := hoistVars(body)
	wrapped := wrapAroundExistingLabel(span, label, rest)

	return append(append([]hdlast.Stmt{}, hoisted...), wrapped)
}

// allocateLabel returns the label already memoized via get, or allocates
// and memoizes (via set) a fresh one. It never touches any statement list:
// placing the label is always a separate, later step (see applyExitWrap /
// wrapLoopExitIfNeeded) — this only hands back something for a JumpGoStmt
// to reference.
func allocateLabel(mod *hdlast.Module, span position.Span, get func() *hdlast.JumpLabel, set func(*hdlast.JumpLabel)) *hdlast.JumpLabel {
	if l := get(); l != nil {
		return l
	}

	label := &hdlast.JumpLabel{Span: span, Name: mod.NextLabelName()}
	set(label)

	return label
}

// findFunctionOrTaskExitLabel implements findOrInsertLabel(f, endOfIter=false)
// for a FunctionOrTask anchor (spec.md §4.6 step 2). The caller (pass.go's
// lowerFunctionOrTask) applies applyExitWrap to f.Body once f.Body has
// finished lowering, if this ever got called.
func findFunctionOrTaskExitLabel(mod *hdlast.Module, f *hdlast.FunctionOrTask) *hdlast.JumpLabel {
	return allocateLabel(mod, f.GetSpan(), f.ExitLabel, f.SetExitLabel)
}

// findBlockExitLabel implements findOrInsertLabel(b, endOfIter=false) for a
// named Begin block anchor (spec.md §4.8 step 3, disable lowering). The
// caller (control.go's lowerBeginBlock) applies applyExitWrap to b.Stmts
// once b.Stmts has finished lowering, if this ever got called.
func findBlockExitLabel(mod *hdlast.Module, b *hdlast.BeginBlock) *hdlast.JumpLabel {
	return allocateLabel(mod, b.GetSpan(), b.ExitLabel, b.SetExitLabel)
}

// findLoopContinueLabel implements findOrInsertLabel(loop, endOfIter=true):
// "jump to end of body" — the label wraps the loop's ENTIRE body so that a
// continue still runs any While increment that follows the body
// (spec.md §4.5's table, §4.7). The caller (control.go's lowerWhileStmt /
// lowerForeachStmt / lowerDoWhileStmt) applies applyExitWrap to the loop's
// own Body once it has finished lowering, if this ever got called.
func findLoopContinueLabel(mod *hdlast.Module, loop hdlast.LoopAnchor) *hdlast.JumpLabel {
	return allocateLabel(mod, loop.GetSpan(),
		func() *hdlast.JumpLabel { return loop.LoopLabel(true) },
		func(l *hdlast.JumpLabel) { loop.SetLoopLabel(true, l) })
}

// findLoopExitLabel implements findOrInsertLabel(loop, endOfIter=false):
// "skip entire loop". Per spec.md §4.5's table this wraps only the loop
// statement itself, not any following siblings — and the loop statement
// lives in its PARENT's statement list, which this function has no access
// to. So this only allocates/memoizes the label; the caller (the lowerStmts
// dispatch for the element holding this loop) is responsible for wrapping
// the loop statement in a JumpBlock once it observes this label was
// requested. See wrapLoopExitIfNeeded in control.go.
func findLoopExitLabel(mod *hdlast.Module, loop hdlast.LoopAnchor) *hdlast.JumpLabel {
	return allocateLabel(mod, loop.GetSpan(),
		func() *hdlast.JumpLabel { return loop.LoopLabel(false) },
		func(l *hdlast.JumpLabel) { loop.SetLoopLabel(false, l) })
}
