package hdlast

import "github.com/hdlsim/vlower/internal/position"

// JumpLabel is the target of zero or more JumpGoStmt nodes. It is always
// the last statement inside exactly one JumpBlock (invariant P3 in
// SPEC_FULL.md §8): this pass never emits a bare, unparented JumpLabel.
type JumpLabel struct {
	Span position.Span
	Name string
}

func (l *JumpLabel) GetSpan() position.Span { return l.Span }
func (l *JumpLabel) String() string         { return l.Name + ":" }
func (l *JumpLabel) stmtNode()              {}

// JumpBlock wraps a statement range that a JumpGoStmt needs to be able to
// skip into the middle of or past the end of. Its last statement is always
// its own Label (see NewJumpBlock). This is the uniform lowering target
// every eliminated return/break/continue/disable construct produces
// (spec.md §3).
type JumpBlock struct {
	Span  position.Span
	Label *JumpLabel
	Stmts []Stmt
}

func (b *JumpBlock) GetSpan() position.Span { return b.Span }
func (b *JumpBlock) String() string         { return "jumpblock " + b.Label.Name }
func (b *JumpBlock) stmtNode()              {}

// NewJumpBlock builds a JumpBlock wrapping stmts, appending label as the
// final statement. Callers must not append to stmts afterwards without also
// keeping label last.
func NewJumpBlock(span position.Span, label *JumpLabel, stmts []Stmt) *JumpBlock {
	body := make([]Stmt, 0, len(stmts)+1)
	body = append(body, stmts...)
	body = append(body, label)

	return &JumpBlock{Span: span, Label: label, Stmts: body}
}

// JumpGoStmt is an unconditional jump to Target, which must be reachable by
// falling off the end of every statement list between this node and
// Target's owning JumpBlock (the forward-jump invariant, spec.md §3/P2).
type JumpGoStmt struct {
	Span   position.Span
	Target *JumpLabel
}

func (g *JumpGoStmt) GetSpan() position.Span { return g.Span }
func (g *JumpGoStmt) String() string         { return "jump " + g.Target.Name + ";" }
func (g *JumpGoStmt) stmtNode()              {}
