package lower

import (
	"testing"

	"github.com/hdlsim/vlower/internal/hdlast"
)

func TestLowerRepeatBuildsCounterAndWhile(t *testing.T) {
	mod := &hdlast.Module{Name: "top"}
	count := &hdlast.IntLiteral{Value: 5}
	body := []hdlast.Stmt{&hdlast.CallStmt{Name: "$display"}}

	r := &hdlast.RepeatLoop{Count: count, Body: body, Unroll: hdlast.UnrollForced}

	begin := lowerRepeat(mod, r)

	if len(begin.Stmts) != 3 {
		t.Fatalf("expected [decl, init, while], got %d statements", len(begin.Stmts))
	}

	decl, ok := begin.Stmts[0].(*hdlast.VarDeclStmt)
	if !ok {
		t.Fatalf("first statement should be the counter's VarDeclStmt, got %T", begin.Stmts[0])
	}

	if decl.V.Name != "__Vrepeat0" || !decl.V.Signed || decl.V.Width != 32 || !decl.V.Automatic {
		t.Fatalf("counter var should be a signed 32-bit automatic named __Vrepeat0, got %+v", decl.V)
	}

	init, ok := begin.Stmts[1].(*hdlast.AssignStmt)
	if !ok {
		t.Fatalf("second statement should be the init AssignStmt, got %T", begin.Stmts[1])
	}

	if init.LHS.(*hdlast.VarRef).V != decl.V || init.RHS != count {
		t.Fatalf("init assignment should write the count expression into the counter var")
	}

	while, ok := begin.Stmts[2].(*hdlast.WhileLoop)
	if !ok {
		t.Fatalf("third statement should be the WhileLoop, got %T", begin.Stmts[2])
	}

	if while.Unroll != hdlast.UnrollForced {
		t.Fatalf("the repeat's unroll policy should carry over to the while loop")
	}

	if len(while.Body) != 1 || while.Body[0] != body[0] {
		t.Fatalf("the while loop's body should be the repeat's own (not yet lowered) body")
	}

	cond, ok := while.Cond.(*hdlast.BinaryExpr)
	if !ok || cond.Op != hdlast.OpGt {
		t.Fatalf("while condition should be counter > 0, got %+v", while.Cond)
	}

	if len(while.Incs) != 1 {
		t.Fatalf("while should carry exactly one increment statement")
	}

	inc, ok := while.Incs[0].(*hdlast.AssignStmt)
	if !ok {
		t.Fatalf("increment should be an AssignStmt, got %T", while.Incs[0])
	}

	incRHS, ok := inc.RHS.(*hdlast.BinaryExpr)
	if !ok || incRHS.Op != hdlast.OpSub {
		t.Fatalf("increment should subtract 1 from the counter, got %+v", inc.RHS)
	}
}

func TestLowerRepeatDoesNotRecurseIntoBody(t *testing.T) {
	mod := &hdlast.Module{Name: "top"}
	breakStmt := &hdlast.BreakStmt{}

	r := &hdlast.RepeatLoop{Count: &hdlast.IntLiteral{Value: 3}, Body: []hdlast.Stmt{breakStmt}}

	begin := lowerRepeat(mod, r)

	while := begin.Stmts[2].(*hdlast.WhileLoop)
	if while.Body[0] != hdlast.Stmt(breakStmt) {
		t.Fatalf("lowerRepeat must hand back the body untouched; the caller re-dispatches it")
	}
}

func TestModuleNextRepeatCounterNamesAreUnique(t *testing.T) {
	mod := &hdlast.Module{Name: "top"}

	r1 := lowerRepeat(mod, &hdlast.RepeatLoop{Count: &hdlast.IntLiteral{Value: 1}})
	r2 := lowerRepeat(mod, &hdlast.RepeatLoop{Count: &hdlast.IntLiteral{Value: 1}})

	name1 := r1.Stmts[0].(*hdlast.VarDeclStmt).V.Name
	name2 := r2.Stmts[0].(*hdlast.VarDeclStmt).V.Name

	if name1 == name2 {
		t.Fatalf("two lowered repeats in the same module should get distinct counter names, both got %q", name1)
	}
}
