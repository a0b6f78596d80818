package lower

import "github.com/hdlsim/vlower/internal/hdlast"

// pragmaToUnroll converts a consumed unroll PragmaStmt's kind into the
// UnrollPolicy latched onto the next loop (spec.md §4.10). Callers must only
// invoke this for PragmaUnrollFull/PragmaUnrollDisable; a PragmaOther must
// never reach here, since it has to leave an already-pending latch untouched
// (V3LinkJump.cpp's visit(AstPragma*) only touches m_unrollFull in the
// unroll cases and otherwise just iterates children).
func pragmaToUnroll(kind hdlast.PragmaKind) hdlast.UnrollPolicy {
	switch kind {
	case hdlast.PragmaUnrollFull:
		return hdlast.UnrollForced
	case hdlast.PragmaUnrollDisable:
		return hdlast.UnrollDisabled
	default:
		return hdlast.UnrollDefault
	}
}

// markLoopIdxInExpr sets UsedLoopIdx on every Var reached through a VarRef
// in x. Called only while lowering a While's increment statements
// (spec.md §4.10): this prevents a later optimization pass from concluding
// the loop counter's increment write is dead.
func markLoopIdxInExpr(x hdlast.Expr) {
	switch n := x.(type) {
	case *hdlast.VarRef:
		n.V.UsedLoopIdx = true
	case *hdlast.BinaryExpr:
		markLoopIdxInExpr(n.LHS)
		markLoopIdxInExpr(n.RHS)
	case nil:
	case *hdlast.IntLiteral:
	default:
		ice("markLoopIdxInExpr: unknown expr type %T", x)
	}
}
