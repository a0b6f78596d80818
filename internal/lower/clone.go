package lower

import "github.com/hdlsim/vlower/internal/hdlast"

// cloneStmts deep-clones stmts for do-while body duplication (spec.md §4.3
// step 4). Var pointers are shared between the original and the clone (both
// copies reference the same variable); JumpLabel pointers are NOT shared:
// every JumpLabel defined inside stmts (i.e. owned by a JumpBlock that is
// itself inside stmts) gets a fresh JumpLabel in the clone, and every
// JumpGoStmt targeting such a label is rewritten to target the fresh one —
// otherwise two JumpBlocks in the output would claim the same JumpLabel,
// violating invariant P3. A JumpGoStmt whose target is NOT defined inside
// stmts (e.g. the loop's own not-yet-materialized break-exit label, defined
// by the caller one level up) is left pointing at the original label, which
// is exactly correct: both physical copies must still jump to the one
// shared exit.
func cloneStmts(stmts []hdlast.Stmt, remap map[*hdlast.JumpLabel]*hdlast.JumpLabel) []hdlast.Stmt {
	if stmts == nil {
		return nil
	}

	out := make([]hdlast.Stmt, len(stmts))
	for i, s := range stmts {
		out[i] = cloneStmt(s, remap)
	}

	return out
}

func cloneExpr(x hdlast.Expr) hdlast.Expr {
	switch n := x.(type) {
	case nil:
		return nil
	case *hdlast.VarRef:
		return &hdlast.VarRef{Span: n.Span, V: n.V, Access: n.Access}
	case *hdlast.BinaryExpr:
		return &hdlast.BinaryExpr{Span: n.Span, Op: n.Op, LHS: cloneExpr(n.LHS), RHS: cloneExpr(n.RHS)}
	case *hdlast.IntLiteral:
		return &hdlast.IntLiteral{Span: n.Span, Value: n.Value}
	default:
		ice("cloneExpr: unknown expr type %T", x)
		return nil
	}
}

func cloneExprs(xs []hdlast.Expr) []hdlast.Expr {
	if xs == nil {
		return nil
	}

	out := make([]hdlast.Expr, len(xs))
	for i, x := range xs {
		out[i] = cloneExpr(x)
	}

	return out
}

func cloneStmt(s hdlast.Stmt, remap map[*hdlast.JumpLabel]*hdlast.JumpLabel) hdlast.Stmt {
	switch n := s.(type) {
	case *hdlast.VarDeclStmt:
		return &hdlast.VarDeclStmt{Span: n.Span, V: n.V}
	case *hdlast.AssignStmt:
		return &hdlast.AssignStmt{Span: n.Span, LHS: cloneExpr(n.LHS), RHS: cloneExpr(n.RHS)}
	case *hdlast.ExprStmt:
		return &hdlast.ExprStmt{Span: n.Span, X: cloneExpr(n.X)}
	case *hdlast.CallStmt:
		return &hdlast.CallStmt{Span: n.Span, Name: n.Name, Args: cloneExprs(n.Args)}
	case *hdlast.IfStmt:
		return &hdlast.IfStmt{Span: n.Span, Cond: cloneExpr(n.Cond), Then: cloneStmts(n.Then, remap), Else: cloneStmts(n.Else, remap)}
	case *hdlast.BeginBlock:
		clone := &hdlast.BeginBlock{Span: n.Span, Name: n.Name, Stmts: cloneStmts(n.Stmts, remap)}
		if n.ContainsFork() {
			clone.MarkContainsFork()
		}

		return clone
	case *hdlast.ForkBlock:
		return &hdlast.ForkBlock{Span: n.Span, Name: n.Name, Stmts: cloneStmts(n.Stmts, remap)}
	case *hdlast.WhileLoop:
		return &hdlast.WhileLoop{
			Span: n.Span, Preconds: cloneStmts(n.Preconds, remap), Cond: cloneExpr(n.Cond),
			Incs: cloneStmts(n.Incs, remap), Body: cloneStmts(n.Body, remap),
			Unroll: n.Unroll, SuppressUnusedLoop: n.SuppressUnusedLoop,
		}
	case *hdlast.ForeachLoop:
		return &hdlast.ForeachLoop{Span: n.Span, Container: cloneExpr(n.Container), Body: cloneStmts(n.Body, remap)}
	case *hdlast.ReturnStmt:
		return &hdlast.ReturnStmt{Span: n.Span, Value: cloneExpr(n.Value)}
	case *hdlast.BreakStmt:
		return &hdlast.BreakStmt{Span: n.Span}
	case *hdlast.ContinueStmt:
		return &hdlast.ContinueStmt{Span: n.Span}
	case *hdlast.DisableStmt:
		return &hdlast.DisableStmt{Span: n.Span, Target: n.Target}
	case *hdlast.PragmaStmt:
		return &hdlast.PragmaStmt{Span: n.Span, Kind: n.Kind}
	case *hdlast.JumpBlock:
		newLabel := remapLabel(n.Label, remap)
		return &hdlast.JumpBlock{Span: n.Span, Label: newLabel, Stmts: cloneStmtsWithOwnLabel(n.Stmts, remap)}
	case *hdlast.JumpGoStmt:
		target := n.Target
		if mapped, ok := remap[target]; ok {
			target = mapped
		}

		return &hdlast.JumpGoStmt{Span: n.Span, Target: target}
	case *hdlast.JumpLabel:
		return remapLabel(n, remap)
	default:
		ice("cloneStmt: unknown stmt type %T", s)
		return nil
	}
}

// cloneStmtsWithOwnLabel clones a JumpBlock's own Stmts, where the final
// element is always that block's Label (see hdlast.NewJumpBlock): the label
// has already been remapped by the caller before this runs, so the trailing
// bare JumpLabel clones to the same already-remapped instance rather than
// minting a second one.
func cloneStmtsWithOwnLabel(stmts []hdlast.Stmt, remap map[*hdlast.JumpLabel]*hdlast.JumpLabel) []hdlast.Stmt {
	return cloneStmts(stmts, remap)
}

func remapLabel(l *hdlast.JumpLabel, remap map[*hdlast.JumpLabel]*hdlast.JumpLabel) *hdlast.JumpLabel {
	if l == nil {
		return nil
	}

	if existing, ok := remap[l]; ok {
		return existing
	}

	fresh := &hdlast.JumpLabel{Span: l.Span, Name: l.Name}
	remap[l] = fresh

	return fresh
}
