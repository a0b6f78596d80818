package lower

import "github.com/hdlsim/vlower/internal/hdlast"

// lowerRepeat rewrites a RepeatLoop into an unnamed Begin containing a fresh
// counter declaration, an initializing assignment, and a While loop that
// decrements the counter each iteration (spec.md §4.2). It does not recurse
// into r.Body itself — the returned Begin is handed back into the very same
// per-statement dispatch that is already lowering the list r used to sit
// in, so the traversal continues into the While (and from there r.Body)
// exactly once, matching V3LinkJump.cpp's `visit(AstRepeat*)`, which
// replaces itself without first calling iterateChildren.
func lowerRepeat(mod *hdlast.Module, r *hdlast.RepeatLoop) *hdlast.BeginBlock {
	span := r.Span
	counterName := mod.NextRepeatCounterName()
	counter := hdlast.NewSigned32Auto(span, counterName)

	decl := &hdlast.VarDeclStmt{Span: span, V: counter}
	init := &hdlast.AssignStmt{
		Span: span,
		LHS:  &hdlast.VarRef{Span: span, V: counter, Access: hdlast.AccessWrite},
		RHS:  r.Count,
	}

	whileLoop := &hdlast.WhileLoop{
		Span: span,
		Cond: &hdlast.BinaryExpr{
			Span: span, Op: hdlast.OpGt,
			LHS: &hdlast.VarRef{Span: span, V: counter, Access: hdlast.AccessRead},
			RHS: &hdlast.IntLiteral{Span: span, Value: 0},
		},
		Body: r.Body,
		Incs: []hdlast.Stmt{
			&hdlast.AssignStmt{
				Span: span,
				LHS:  &hdlast.VarRef{Span: span, V: counter, Access: hdlast.AccessWrite},
				RHS: &hdlast.BinaryExpr{
					Span: span, Op: hdlast.OpSub,
					LHS: &hdlast.VarRef{Span: span, V: counter, Access: hdlast.AccessRead},
					RHS: &hdlast.IntLiteral{Span: span, Value: 1},
				},
			},
		},
		Unroll: r.Unroll,
	}

	return &hdlast.BeginBlock{Span: span, Stmts: []hdlast.Stmt{decl, init, whileLoop}}
}
