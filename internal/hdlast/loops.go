package hdlast

import "github.com/hdlsim/vlower/internal/position"

// UnrollPolicy carries a `repeat`/`while`/`do...while` loop's unroll pragma
// state, latched by the preceding AstPragma in the statement stream
// (spec.md §4.7).
type UnrollPolicy int

const (
	UnrollDefault UnrollPolicy = iota
	UnrollDisabled
	UnrollForced
)

func (u UnrollPolicy) String() string {
	switch u {
	case UnrollDisabled:
		return "disable"
	case UnrollForced:
		return "full"
	default:
		return "default"
	}
}

// LoopAnchor is implemented by the three loop shapes that can be the target
// of a lexically enclosed `break`/`continue` (While, DoWhile, Foreach).
// RepeatLoop is deliberately excluded: it is always rewritten into a
// WhileLoop before any break/continue inside its body is lowered
// (spec.md §4.2), so it is never itself a break/continue anchor.
type LoopAnchor interface {
	Stmt
	LoopBody() []Stmt
	SetLoopBody([]Stmt)
	// LoopLabel returns the memoized exit label (endOfIter=false) or
	// continue label (endOfIter=true), or nil if not yet created.
	LoopLabel(endOfIter bool) *JumpLabel
	// SetLoopLabel memoizes a label in the given slot.
	SetLoopLabel(endOfIter bool, l *JumpLabel)
}

// WhileLoop is a `while (cond) body` loop, optionally carrying the
// precondition/increment statements the parser splits a C-style `for` into
// (spec.md §3, "for loops desugar to WhileLoop before this pass runs").
type WhileLoop struct {
	Span               position.Span
	Preconds           []Stmt
	Cond               Expr
	Incs               []Stmt
	Body               []Stmt
	Unroll             UnrollPolicy
	SuppressUnusedLoop bool

	exitLabel     *JumpLabel // endOfIter=false: break target
	continueLabel *JumpLabel // endOfIter=true: continue target (before Incs)
}

func (w *WhileLoop) GetSpan() position.Span { return w.Span }
func (w *WhileLoop) String() string         { return "while (" + w.Cond.String() + ")" }
func (w *WhileLoop) stmtNode()              {}
func (w *WhileLoop) LoopBody() []Stmt       { return w.Body }
func (w *WhileLoop) SetLoopBody(s []Stmt)   { w.Body = s }

func (w *WhileLoop) LoopLabel(endOfIter bool) *JumpLabel {
	if endOfIter {
		return w.continueLabel
	}

	return w.exitLabel
}

func (w *WhileLoop) SetLoopLabel(endOfIter bool, l *JumpLabel) {
	if endOfIter {
		w.continueLabel = l
	} else {
		w.exitLabel = l
	}
}

// DoWhileLoop is a `do body while (cond)` loop. It is transient: the
// lowering pass always rewrites it into an unconditional first iteration
// followed by a WhileLoop after lowering Body (spec.md §4.3), so its
// own anchor slots only matter for the duration of that rewrite.
type DoWhileLoop struct {
	Span   position.Span
	Cond   Expr
	Body   []Stmt
	Unroll UnrollPolicy

	exitLabel     *JumpLabel
	continueLabel *JumpLabel
}

func (d *DoWhileLoop) GetSpan() position.Span { return d.Span }
func (d *DoWhileLoop) String() string         { return "do ... while (" + d.Cond.String() + ")" }
func (d *DoWhileLoop) stmtNode()              {}
func (d *DoWhileLoop) LoopBody() []Stmt       { return d.Body }
func (d *DoWhileLoop) SetLoopBody(s []Stmt)   { d.Body = s }

func (d *DoWhileLoop) LoopLabel(endOfIter bool) *JumpLabel {
	if endOfIter {
		return d.continueLabel
	}

	return d.exitLabel
}

func (d *DoWhileLoop) SetLoopLabel(endOfIter bool, l *JumpLabel) {
	if endOfIter {
		d.continueLabel = l
	} else {
		d.exitLabel = l
	}
}

// RepeatLoop is a `repeat (count) body` loop. The lowering pass always
// replaces it with a BeginBlock wrapping a fresh counter Var and a
// WhileLoop (spec.md §4.2) before any break/continue beneath it is visited.
type RepeatLoop struct {
	Span   position.Span
	Count  Expr
	Body   []Stmt
	Unroll UnrollPolicy
}

func (r *RepeatLoop) GetSpan() position.Span { return r.Span }
func (r *RepeatLoop) String() string         { return "repeat (" + r.Count.String() + ")" }
func (r *RepeatLoop) stmtNode()              {}

// ForeachLoop iterates over an array/queue Container. It has no separate
// increment statement list: the loop variable advance is implicit, so
// "continue" (endOfIter=true) jumps to the end of Body exactly as it does
// for a WhileLoop with no Incs (spec.md §4.1's table, Foreach row).
type ForeachLoop struct {
	Span      position.Span
	Container Expr
	Body      []Stmt

	exitLabel     *JumpLabel
	continueLabel *JumpLabel
}

func (f *ForeachLoop) GetSpan() position.Span { return f.Span }
func (f *ForeachLoop) String() string         { return "foreach (" + f.Container.String() + ")" }
func (f *ForeachLoop) stmtNode()              {}
func (f *ForeachLoop) LoopBody() []Stmt       { return f.Body }
func (f *ForeachLoop) SetLoopBody(s []Stmt)   { f.Body = s }

func (f *ForeachLoop) LoopLabel(endOfIter bool) *JumpLabel {
	if endOfIter {
		return f.continueLabel
	}

	return f.exitLabel
}

func (f *ForeachLoop) SetLoopLabel(endOfIter bool, l *JumpLabel) {
	if endOfIter {
		f.continueLabel = l
	} else {
		f.exitLabel = l
	}
}
