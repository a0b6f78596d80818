package lower

import (
	"testing"

	"github.com/hdlsim/vlower/internal/diagnostics"
	"github.com/hdlsim/vlower/internal/hdlast"
)

func TestRunSkipsDeadModules(t *testing.T) {
	f := &hdlast.FunctionOrTask{Name: "calc", IsFunction: true, FVar: &hdlast.Var{Name: "calc"}, Body: []hdlast.Stmt{
		&hdlast.ReturnStmt{Value: &hdlast.IntLiteral{Value: 1}},
	}}

	mod := &hdlast.Module{Name: "dead", Dead: true, Items: []*hdlast.FunctionOrTask{f}}
	net := &hdlast.Netlist{Modules: []*hdlast.Module{mod}}

	diags := diagnostics.NewManager()
	Run(net, diags)

	if len(f.Body) != 1 {
		t.Fatalf("a dead module's functions should not be touched at all, got %+v", f.Body)
	}

	if _, ok := f.Body[0].(*hdlast.ReturnStmt); !ok {
		t.Fatalf("expected the untouched ReturnStmt to survive, got %T", f.Body[0])
	}
}

func TestRunEndToEndFunctionReturnWithValue(t *testing.T) {
	fvar := &hdlast.Var{Name: "calc"}
	f := &hdlast.FunctionOrTask{
		Name: "calc", IsFunction: true, FVar: fvar,
		Body: []hdlast.Stmt{
			&hdlast.CallStmt{Name: "$display"},
			&hdlast.ReturnStmt{Value: &hdlast.IntLiteral{Value: 7}},
		},
	}

	mod := &hdlast.Module{Name: "top", Items: []*hdlast.FunctionOrTask{f}}
	net := &hdlast.Netlist{Modules: []*hdlast.Module{mod}}

	diags := diagnostics.NewManager()
	Run(net, diags)

	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", diags.Diagnostics())
	}

	if len(f.Body) != 1 {
		t.Fatalf("expected the whole function body wrapped in one JumpBlock, got %+v", f.Body)
	}

	jb, ok := f.Body[0].(*hdlast.JumpBlock)
	if !ok {
		t.Fatalf("expected a JumpBlock, got %T", f.Body[0])
	}

	if len(jb.Stmts) != 4 {
		t.Fatalf("expected [$display, assign, jumpgo, label], got %+v", jb.Stmts)
	}

	if _, ok := jb.Stmts[0].(*hdlast.CallStmt); !ok {
		t.Fatalf("expected $display to stay first, got %T", jb.Stmts[0])
	}

	if _, ok := jb.Stmts[1].(*hdlast.AssignStmt); !ok {
		t.Fatalf("return with value should lower to an assignment first, got %T", jb.Stmts[1])
	}

	jgo, ok := jb.Stmts[2].(*hdlast.JumpGoStmt)
	if !ok || jgo.Target != jb.Label {
		t.Fatalf("expected a JumpGoStmt targeting the function's exit label, got %+v", jb.Stmts[2])
	}

	if lbl, ok := jb.Stmts[3].(*hdlast.JumpLabel); !ok || lbl != jb.Label {
		t.Fatalf("expected the function's exit label as the JumpBlock's last statement, got %+v", jb.Stmts[3])
	}

	if violations := CheckInvariants(net); len(violations) != 0 {
		t.Fatalf("CheckInvariants found violations: %v", violations)
	}
}

func TestRunEndToEndLoopBreak(t *testing.T) {
	w := &hdlast.WhileLoop{
		Cond: &hdlast.IntLiteral{Value: 1},
		Body: []hdlast.Stmt{&hdlast.BreakStmt{}},
	}

	f := &hdlast.FunctionOrTask{Name: "run", Body: []hdlast.Stmt{w}}
	mod := &hdlast.Module{Name: "top", Items: []*hdlast.FunctionOrTask{f}}
	net := &hdlast.Netlist{Modules: []*hdlast.Module{mod}}

	diags := diagnostics.NewManager()
	Run(net, diags)

	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", diags.Diagnostics())
	}

	jb, ok := f.Body[0].(*hdlast.JumpBlock)
	if !ok {
		t.Fatalf("expected the while loop to end up wrapped in a JumpBlock, got %T", f.Body[0])
	}

	if _, ok := jb.Stmts[0].(*hdlast.WhileLoop); !ok {
		t.Fatalf("the JumpBlock should wrap the while loop itself")
	}

	if violations := CheckInvariants(net); len(violations) != 0 {
		t.Fatalf("CheckInvariants found violations: %v", violations)
	}
}

func TestRunEndToEndForLoopContinueJumpsBeforeIncrement(t *testing.T) {
	idx := &hdlast.Var{Name: "i"}

	// for (; cond; i = i + 1) { continue; $display(); }
	w := &hdlast.WhileLoop{
		Cond: &hdlast.IntLiteral{Value: 1},
		Body: []hdlast.Stmt{
			&hdlast.ContinueStmt{},
			&hdlast.CallStmt{Name: "$display"},
		},
		Incs: []hdlast.Stmt{
			&hdlast.AssignStmt{
				LHS: &hdlast.VarRef{V: idx, Access: hdlast.AccessWrite},
				RHS: &hdlast.BinaryExpr{Op: hdlast.OpAdd, LHS: &hdlast.VarRef{V: idx, Access: hdlast.AccessRead}, RHS: &hdlast.IntLiteral{Value: 1}},
			},
		},
	}

	f := &hdlast.FunctionOrTask{Name: "run", Body: []hdlast.Stmt{w}}
	mod := &hdlast.Module{Name: "top", Items: []*hdlast.FunctionOrTask{f}}
	net := &hdlast.Netlist{Modules: []*hdlast.Module{mod}}

	diags := diagnostics.NewManager()
	Run(net, diags)

	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", diags.Diagnostics())
	}

	// continue must jump to the end of Body, not skip the increment's own
	// list: the increment var ref should have been marked UsedLoopIdx
	// regardless, since it is lowered with inLoopIncrement=true.
	if !idx.UsedLoopIdx {
		t.Fatalf("the loop increment's var refs should be marked UsedLoopIdx")
	}

	if len(w.Body) != 1 {
		t.Fatalf("expected the whole loop body wrapped in one JumpBlock, got %+v", w.Body)
	}

	jb, ok := w.Body[0].(*hdlast.JumpBlock)
	if !ok {
		t.Fatalf("expected a JumpBlock, got %T", w.Body[0])
	}

	if jb.Label != w.LoopLabel(true) {
		t.Fatalf("continue should target the loop's own continue label, not its exit label")
	}

	jgo, ok := jb.Stmts[0].(*hdlast.JumpGoStmt)
	if !ok || jgo.Target != jb.Label {
		t.Fatalf("continue should have lowered to a JumpGoStmt targeting the continue label, got %+v", jb.Stmts[0])
	}

	if _, ok := jb.Stmts[1].(*hdlast.CallStmt); !ok {
		t.Fatalf("expected $display to remain after the continue, got %T", jb.Stmts[1])
	}

	lastBodyStmt := jb.Stmts[len(jb.Stmts)-1]
	if lbl, ok := lastBodyStmt.(*hdlast.JumpLabel); !ok || lbl != jb.Label {
		t.Fatalf("the continue label must be the last statement of the JumpBlock, after $display")
	}

	if violations := CheckInvariants(net); len(violations) != 0 {
		t.Fatalf("CheckInvariants found violations: %v", violations)
	}
}

func TestRunEndToEndDisableNamedBlock(t *testing.T) {
	blk := &hdlast.BeginBlock{
		Name: "blk",
		Stmts: []hdlast.Stmt{
			&hdlast.CallStmt{Name: "$display"},
			&hdlast.DisableStmt{Target: "blk"},
			&hdlast.CallStmt{Name: "$display"},
		},
	}

	f := &hdlast.FunctionOrTask{Name: "run", Body: []hdlast.Stmt{blk}}
	mod := &hdlast.Module{Name: "top", Items: []*hdlast.FunctionOrTask{f}}
	net := &hdlast.Netlist{Modules: []*hdlast.Module{mod}}

	diags := diagnostics.NewManager()
	Run(net, diags)

	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", diags.Diagnostics())
	}

	if len(blk.Stmts) != 1 {
		t.Fatalf("expected the whole block body wrapped in one JumpBlock, got %+v", blk.Stmts)
	}

	jb, ok := blk.Stmts[0].(*hdlast.JumpBlock)
	if !ok {
		t.Fatalf("expected a JumpBlock, got %T", blk.Stmts[0])
	}

	if jb.Label != blk.ExitLabel() {
		t.Fatalf("the disable's jump should target the block's own exit label")
	}

	if _, ok := jb.Stmts[0].(*hdlast.CallStmt); !ok {
		t.Fatalf("expected the first $display to stay first, got %T", jb.Stmts[0])
	}

	jgo, ok := jb.Stmts[1].(*hdlast.JumpGoStmt)
	if !ok || jgo.Target != jb.Label {
		t.Fatalf("disable should lower to a JumpGoStmt in place, got %+v", jb.Stmts[1])
	}

	if _, ok := jb.Stmts[2].(*hdlast.CallStmt); !ok {
		t.Fatalf("expected the second $display to survive after the disable, got %T", jb.Stmts[2])
	}

	if lbl, ok := jb.Stmts[3].(*hdlast.JumpLabel); !ok || lbl != jb.Label {
		t.Fatalf("expected the block's exit label as the JumpBlock's last statement, got %+v", jb.Stmts[3])
	}

	if violations := CheckInvariants(net); len(violations) != 0 {
		t.Fatalf("CheckInvariants found violations: %v", violations)
	}
}

func TestRunEndToEndReturnUnderForkIsDiagnosedAndDropped(t *testing.T) {
	fork := &hdlast.ForkBlock{
		Name: "f",
		Stmts: []hdlast.Stmt{
			&hdlast.ReturnStmt{},
		},
	}

	f := &hdlast.FunctionOrTask{Name: "run", Body: []hdlast.Stmt{fork}}
	mod := &hdlast.Module{Name: "top", Items: []*hdlast.FunctionOrTask{f}}
	net := &hdlast.Netlist{Modules: []*hdlast.Module{mod}}

	diags := diagnostics.NewManager()
	Run(net, diags)

	if !diags.HasErrors() {
		t.Fatalf("expected a diagnostic for return under fork")
	}

	if len(fork.Stmts) != 0 {
		t.Fatalf("the illegal return should have been deleted, got %+v", fork.Stmts)
	}
}

func TestRunEndToEndRepeatLowering(t *testing.T) {
	r := &hdlast.RepeatLoop{Count: &hdlast.IntLiteral{Value: 4}, Body: []hdlast.Stmt{&hdlast.CallStmt{Name: "$display"}}}

	f := &hdlast.FunctionOrTask{Name: "run", Body: []hdlast.Stmt{r}}
	mod := &hdlast.Module{Name: "top", Items: []*hdlast.FunctionOrTask{f}}
	net := &hdlast.Netlist{Modules: []*hdlast.Module{mod}}

	diags := diagnostics.NewManager()
	Run(net, diags)

	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", diags.Diagnostics())
	}

	begin, ok := f.Body[0].(*hdlast.BeginBlock)
	if !ok {
		t.Fatalf("repeat should have been replaced with a BeginBlock, got %T", f.Body[0])
	}

	if _, ok := begin.Stmts[0].(*hdlast.VarDeclStmt); !ok {
		t.Fatalf("expected the counter declaration first")
	}

	if violations := CheckInvariants(net); len(violations) != 0 {
		t.Fatalf("CheckInvariants found violations: %v", violations)
	}
}

func TestRunEndToEndDoWhileLoweringRenamesBothCopies(t *testing.T) {
	inner := &hdlast.BeginBlock{Name: "body", Stmts: []hdlast.Stmt{&hdlast.CallStmt{Name: "$display"}}}

	d := &hdlast.DoWhileLoop{Cond: &hdlast.IntLiteral{Value: 0}, Body: []hdlast.Stmt{inner}}

	f := &hdlast.FunctionOrTask{Name: "run", Body: []hdlast.Stmt{d}}
	mod := &hdlast.Module{Name: "top", Items: []*hdlast.FunctionOrTask{f}}
	net := &hdlast.Netlist{Modules: []*hdlast.Module{mod}}

	diags := diagnostics.NewManager()
	Run(net, diags)

	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", diags.Diagnostics())
	}

	begin, ok := f.Body[0].(*hdlast.BeginBlock)
	if !ok {
		t.Fatalf("do-while should have been replaced with a BeginBlock, got %T", f.Body[0])
	}

	clonedBody, ok := begin.Stmts[0].(*hdlast.BeginBlock)
	if !ok || clonedBody.Name != "__Vdo_while1_body" {
		t.Fatalf("expected the first copy to be renamed __Vdo_while1_body, got %+v", begin.Stmts[0])
	}

	while, ok := begin.Stmts[1].(*hdlast.WhileLoop)
	if !ok {
		t.Fatalf("expected a while loop as the second statement, got %T", begin.Stmts[1])
	}

	second, ok := while.Body[0].(*hdlast.BeginBlock)
	if !ok || second.Name != "__Vdo_while2_body" {
		t.Fatalf("expected the second (original) copy to be renamed __Vdo_while2_body, got %+v", while.Body[0])
	}

	if violations := CheckInvariants(net); len(violations) != 0 {
		t.Fatalf("CheckInvariants found violations: %v", violations)
	}
}

func TestRunEndToEndBreakInsideForeachInsideWhileTargetsForeach(t *testing.T) {
	// while (c) begin foreach (arr) begin if (d) break; end end
	// The break must resolve against the foreach (the nearest enclosing
	// loop), never against the outer while, per spec.md §8's boundary case.
	foreach := &hdlast.ForeachLoop{
		Container: &hdlast.IntLiteral{Value: 0},
		Body: []hdlast.Stmt{
			&hdlast.IfStmt{Cond: &hdlast.IntLiteral{Value: 1}, Then: []hdlast.Stmt{&hdlast.BreakStmt{}}},
			&hdlast.CallStmt{Name: "$display"},
		},
	}

	outer := &hdlast.WhileLoop{Cond: &hdlast.IntLiteral{Value: 1}, Body: []hdlast.Stmt{foreach}}

	f := &hdlast.FunctionOrTask{Name: "run", Body: []hdlast.Stmt{outer}}
	mod := &hdlast.Module{Name: "top", Items: []*hdlast.FunctionOrTask{f}}
	net := &hdlast.Netlist{Modules: []*hdlast.Module{mod}}

	diags := diagnostics.NewManager()
	Run(net, diags)

	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", diags.Diagnostics())
	}

	if outer.LoopLabel(false) != nil {
		t.Fatalf("the outer while should never have had an exit label requested against it")
	}

	// The foreach body's If statement should now contain a JumpGoStmt whose
	// target is the foreach's own exit label (the foreach itself, being the
	// nearest loop, gets wrapped in a JumpBlock by its enclosing dispatcher).
	jb, ok := outer.Body[0].(*hdlast.JumpBlock)
	if !ok {
		t.Fatalf("expected the foreach to be wrapped in a JumpBlock because break requested its exit, got %T", outer.Body[0])
	}

	wrappedForeach, ok := jb.Stmts[0].(*hdlast.ForeachLoop)
	if !ok || wrappedForeach != foreach {
		t.Fatalf("expected the wrapped statement to be the same foreach, got %+v", jb.Stmts[0])
	}

	ifStmt, ok := foreach.Body[0].(*hdlast.IfStmt)
	if !ok {
		t.Fatalf("expected the if statement to remain, got %T", foreach.Body[0])
	}

	jgo, ok := ifStmt.Then[0].(*hdlast.JumpGoStmt)
	if !ok || jgo.Target != foreach.LoopLabel(false) {
		t.Fatalf("break should target the foreach's own exit label, got %+v", ifStmt.Then[0])
	}

	if violations := CheckInvariants(net); len(violations) != 0 {
		t.Fatalf("CheckInvariants found violations: %v", violations)
	}
}

func TestRunEndToEndDisableOuterNamedBlockFromNestedBlock(t *testing.T) {
	// begin : outer
	//   begin : inner
	//     if (d) disable outer;
	//     $display();
	//   end
	//   $display();
	// end
	inner := &hdlast.BeginBlock{
		Name: "inner",
		Stmts: []hdlast.Stmt{
			&hdlast.IfStmt{Cond: &hdlast.IntLiteral{Value: 1}, Then: []hdlast.Stmt{&hdlast.DisableStmt{Target: "outer"}}},
			&hdlast.CallStmt{Name: "$display"},
		},
	}

	outer := &hdlast.BeginBlock{
		Name:  "outer",
		Stmts: []hdlast.Stmt{inner, &hdlast.CallStmt{Name: "$display"}},
	}

	f := &hdlast.FunctionOrTask{Name: "run", Body: []hdlast.Stmt{outer}}
	mod := &hdlast.Module{Name: "top", Items: []*hdlast.FunctionOrTask{f}}
	net := &hdlast.Netlist{Modules: []*hdlast.Module{mod}}

	diags := diagnostics.NewManager()
	Run(net, diags)

	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", diags.Diagnostics())
	}

	// Unlike a loop's break-exit (which wraps the loop statement itself, seen
	// from its parent's list), a named block's disable-exit wraps the
	// block's OWN contents (spec.md §4.5's Block row: "exit past block" is
	// relative to the block's own statement list) — so outer itself stays
	// directly in f.Body, and the wrap appears inside outer.Stmts.
	wrappedOuter, ok := f.Body[0].(*hdlast.BeginBlock)
	if !ok || wrappedOuter != outer {
		t.Fatalf("expected outer to remain the direct statement, got %T", f.Body[0])
	}

	jb, ok := outer.Stmts[0].(*hdlast.JumpBlock)
	if !ok {
		t.Fatalf("expected outer's own contents wrapped in a JumpBlock because disable requested its exit, got %T", outer.Stmts[0])
	}

	if jb.Label != outer.ExitLabel() {
		t.Fatalf("disable should target outer's own exit label, not inner's")
	}

	if inner.ExitLabel() != nil {
		t.Fatalf("inner should never have had its own exit label allocated: disable targeted outer, not inner")
	}

	// The disable, nested two blocks deep inside outer's own statement list
	// (inner -> if -> disable), must still surface as a JumpGoStmt reachable
	// by falling through to outer's exit label.
	innerBeginInOuter, ok := jb.Stmts[0].(*hdlast.BeginBlock)
	if !ok || innerBeginInOuter.Name != "inner" {
		t.Fatalf("expected inner to remain nested inside outer, got %+v", jb.Stmts[0])
	}

	ifStmt, ok := innerBeginInOuter.Stmts[0].(*hdlast.IfStmt)
	if !ok {
		t.Fatalf("expected the if statement to remain, got %T", innerBeginInOuter.Stmts[0])
	}

	jgo, ok := ifStmt.Then[0].(*hdlast.JumpGoStmt)
	if !ok || jgo.Target != outer.ExitLabel() {
		t.Fatalf("disable outer should lower to a JumpGoStmt targeting outer's exit label, got %+v", ifStmt.Then[0])
	}

	if violations := CheckInvariants(net); len(violations) != 0 {
		t.Fatalf("CheckInvariants found violations: %v", violations)
	}
}

func TestRunEndToEndBreakInDoWhileEscapesBothDuplicatedCopies(t *testing.T) {
	// do if (d) break; $display(); while (c);
	// A break lexically inside the do-while body must escape BOTH physical
	// copies once duplicated (the unconditional first iteration AND the
	// lowered while) — DESIGN.md's Open Question decision for spec.md §4.3.
	ifStmt := &hdlast.IfStmt{Cond: &hdlast.IntLiteral{Value: 1}, Then: []hdlast.Stmt{&hdlast.BreakStmt{}}}
	d := &hdlast.DoWhileLoop{
		Cond: &hdlast.IntLiteral{Value: 1},
		Body: []hdlast.Stmt{ifStmt, &hdlast.CallStmt{Name: "$display"}},
	}

	f := &hdlast.FunctionOrTask{Name: "run", Body: []hdlast.Stmt{d}}
	mod := &hdlast.Module{Name: "top", Items: []*hdlast.FunctionOrTask{f}}
	net := &hdlast.Netlist{Modules: []*hdlast.Module{mod}}

	diags := diagnostics.NewManager()
	Run(net, diags)

	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", diags.Diagnostics())
	}

	// The whole [clone..., while] unit must be wrapped in a single JumpBlock
	// so a break in either copy can fall through past both at once.
	jb, ok := f.Body[0].(*hdlast.JumpBlock)
	if !ok {
		t.Fatalf("expected the [clone, while] pair wrapped in one JumpBlock, got %T", f.Body[0])
	}

	begin, ok := jb.Stmts[0].(*hdlast.BeginBlock)
	if !ok {
		t.Fatalf("expected the do-while's replacement BeginBlock as the wrapped content, got %T", jb.Stmts[0])
	}

	if len(begin.Stmts) != 3 {
		t.Fatalf("expected [clonedIf, clonedCall, while] inside the begin, got %d statements: %+v", len(begin.Stmts), begin.Stmts)
	}

	clonedIf, ok := begin.Stmts[0].(*hdlast.IfStmt)
	if !ok || clonedIf == ifStmt {
		t.Fatalf("expected a distinct cloned if statement for the unconditional first iteration, got %+v", begin.Stmts[0])
	}

	clonedJgo, ok := clonedIf.Then[0].(*hdlast.JumpGoStmt)
	if !ok || clonedJgo.Target != jb.Label {
		t.Fatalf("the cloned copy's break must target the outer shared exit label, got %+v", clonedIf.Then[0])
	}

	while, ok := begin.Stmts[2].(*hdlast.WhileLoop)
	if !ok {
		t.Fatalf("expected the lowered while as the last statement, got %T", begin.Stmts[2])
	}

	whileIf, ok := while.Body[0].(*hdlast.IfStmt)
	if !ok || whileIf != ifStmt {
		t.Fatalf("expected the while's body to reuse the ORIGINAL (not cloned) if statement, got %+v", while.Body[0])
	}

	whileJgo, ok := whileIf.Then[0].(*hdlast.JumpGoStmt)
	if !ok || whileJgo.Target != jb.Label {
		t.Fatalf("the while copy's break must target the SAME shared exit label as the clone's, got %+v", whileIf.Then[0])
	}

	if clonedJgo.Target != whileJgo.Target {
		t.Fatalf("both physical copies must share one exit label, got %p and %p", clonedJgo.Target, whileJgo.Target)
	}

	if violations := CheckInvariants(net); len(violations) != 0 {
		t.Fatalf("CheckInvariants found violations: %v", violations)
	}
}

func TestRunIsIdempotentOnAlreadyLoweredOutput(t *testing.T) {
	fvar := &hdlast.Var{Name: "calc"}
	f := &hdlast.FunctionOrTask{
		Name: "calc", IsFunction: true, FVar: fvar,
		Body: []hdlast.Stmt{&hdlast.ReturnStmt{Value: &hdlast.IntLiteral{Value: 3}}},
	}

	mod := &hdlast.Module{Name: "top", Items: []*hdlast.FunctionOrTask{f}}
	net := &hdlast.Netlist{Modules: []*hdlast.Module{mod}}

	diags := diagnostics.NewManager()
	Run(net, diags)

	firstPass := make([]hdlast.Stmt, len(f.Body))
	copy(firstPass, f.Body)

	Run(net, diags)

	if len(f.Body) != len(firstPass) {
		t.Fatalf("a second Run over already-lowered output changed the statement count: got %d, want %d", len(f.Body), len(firstPass))
	}

	for i := range firstPass {
		if f.Body[i] != firstPass[i] {
			t.Fatalf("a second Run over already-lowered output should be a no-op at index %d", i)
		}
	}

	if violations := CheckInvariants(net); len(violations) != 0 {
		t.Fatalf("CheckInvariants found violations after the idempotent re-run: %v", violations)
	}
}
