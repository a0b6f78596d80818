package lower

import (
	"github.com/hdlsim/vlower/internal/diagnostics"
	"github.com/hdlsim/vlower/internal/hdlast"
	"github.com/hdlsim/vlower/internal/position"
)

// lowerStmts is the pass's main traversal entry for a statement list: it
// walks stmts in order, lowers/replaces/deletes each one, and returns the
// rebuilt list. The pending-unroll-pragma latch (spec.md §4.1's
// `unrollPending`) is scoped to exactly one call of lowerStmts, since it is
// consumed by the next Loop encountered in THIS statement sequence and
// reset afterward — it does not survive descending into a nested list.
func lowerStmts(ctx *loweringContext, mod *hdlast.Module, stmts []hdlast.Stmt) []hdlast.Stmt {
	pending := hdlast.UnrollDefault

	out := make([]hdlast.Stmt, 0, len(stmts))

	for _, s := range stmts {
		switch n := s.(type) {
		case *hdlast.PragmaStmt:
			// Only UNROLL_FULL/UNROLL_DISABLE latch onto pending and are
			// consumed and deleted here (spec.md §4.10); any other pragma
			// kind is left in the tree AND leaves pending untouched,
			// matching V3LinkJump.cpp's visit(AstPragma*), which only
			// touches m_unrollFull inside its UNROLL_DISABLE/UNROLL_FULL
			// cases and otherwise just iterates children.
			if n.Kind == hdlast.PragmaUnrollFull || n.Kind == hdlast.PragmaUnrollDisable {
				pending = pragmaToUnroll(n.Kind)
				continue
			}

			out = append(out, n)

		case *hdlast.ReturnStmt:
			out = append(out, lowerReturn(ctx, mod, n)...)

		case *hdlast.BreakStmt:
			out = append(out, lowerBreak(ctx, mod, n)...)

		case *hdlast.ContinueStmt:
			out = append(out, lowerContinue(ctx, mod, n)...)

		case *hdlast.DisableStmt:
			out = append(out, lowerDisable(ctx, mod, n)...)

		case *hdlast.RepeatLoop:
			attachUnroll(&n.Unroll, &pending)
			begin := lowerRepeat(mod, n)
			out = append(out, lowerStmts(ctx, mod, []hdlast.Stmt{begin})...)

		case *hdlast.DoWhileLoop:
			attachUnroll(&n.Unroll, &pending)
			out = append(out, lowerDoWhileStmt(ctx, mod, n)...)

		case *hdlast.WhileLoop:
			attachUnroll(&n.Unroll, &pending)
			out = append(out, lowerWhileStmt(ctx, mod, n)...)

		case *hdlast.ForeachLoop:
			out = append(out, lowerForeachStmt(ctx, mod, n)...)

		case *hdlast.BeginBlock:
			out = append(out, lowerBeginBlock(ctx, mod, n)...)

		case *hdlast.ForkBlock:
			out = append(out, lowerForkBlock(ctx, mod, n)...)

		case *hdlast.IfStmt:
			n.Then = lowerStmts(ctx, mod, n.Then)
			n.Else = lowerStmts(ctx, mod, n.Else)
			out = append(out, n)

		case *hdlast.AssignStmt:
			if ctx.inLoopIncrement {
				markLoopIdxInExpr(n.LHS)
				markLoopIdxInExpr(n.RHS)
			}

			out = append(out, n)

		case *hdlast.ExprStmt:
			if ctx.inLoopIncrement {
				markLoopIdxInExpr(n.X)
			}

			out = append(out, n)

		case *hdlast.CallStmt:
			if ctx.inLoopIncrement {
				for _, a := range n.Args {
					markLoopIdxInExpr(a)
				}
			}

			out = append(out, n)

		case *hdlast.VarDeclStmt, *hdlast.JumpBlock, *hdlast.JumpGoStmt, *hdlast.JumpLabel:
			// Already-lowered or leaf forms pass through unchanged. JumpBlock
			// contents were already lowered when they were built by this
			// same pass, so there is nothing left to do here; a JumpBlock
			// can only appear in an input AST if a prior pass run already
			// lowered it (idempotence, spec.md §8).
			out = append(out, n)

		default:
			ice("lowerStmts: unknown statement kind %T", s)
		}
	}

	return out
}

// attachUnroll copies pending onto target if pending is non-default, then
// always resets pending to default — consumed whether or not it applied
// (spec.md §4.1, §4.2 step 4, §4.4).
func attachUnroll(target *hdlast.UnrollPolicy, pending *hdlast.UnrollPolicy) {
	if *pending != hdlast.UnrollDefault {
		*target = *pending
	}

	*pending = hdlast.UnrollDefault
}

func lowerWhileStmt(ctx *loweringContext, mod *hdlast.Module, w *hdlast.WhileLoop) []hdlast.Stmt {
	if ctx.currentModule != nil && (ctx.currentModule.HasParameterList || ctx.currentModule.HasGParam) {
		w.SuppressUnusedLoop = true
	}

	loopCtx := ctx.withLoop(w)
	w.Preconds = lowerStmts(loopCtx.withInLoopIncrement(false), mod, w.Preconds)
	w.Body = lowerStmts(loopCtx.withInLoopIncrement(false), mod, w.Body)

	if label := w.LoopLabel(true); label != nil {
		w.Body = applyExitWrap(w.Span, label, w.Body)
	}

	w.Incs = lowerStmts(loopCtx.withInLoopIncrement(true), mod, w.Incs)

	return wrapLoopExitIfNeeded(w, w.Span)
}

func lowerForeachStmt(ctx *loweringContext, mod *hdlast.Module, f *hdlast.ForeachLoop) []hdlast.Stmt {
	loopCtx := ctx.withLoop(f)
	f.Body = lowerStmts(loopCtx, mod, f.Body)

	if label := f.LoopLabel(true); label != nil {
		f.Body = applyExitWrap(f.Span, label, f.Body)
	}

	return wrapLoopExitIfNeeded(f, f.Span)
}

func lowerDoWhileStmt(ctx *loweringContext, mod *hdlast.Module, d *hdlast.DoWhileLoop) []hdlast.Stmt {
	loopCtx := ctx.withLoop(d)
	d.Body = lowerStmts(loopCtx.withInLoopIncrement(false), mod, d.Body)

	if label := d.LoopLabel(true); label != nil {
		d.Body = applyExitWrap(d.Span, label, d.Body)
	}

	begin := lowerDoWhile(mod, d)

	if exitLabel := d.LoopLabel(false); exitLabel != nil {
		return []hdlast.Stmt{hdlast.NewJumpBlock(d.Span, exitLabel, []hdlast.Stmt{begin})}
	}

	return []hdlast.Stmt{begin}
}

// wrapLoopExitIfNeeded implements spec.md §4.5's "Loop / endOfIter=false"
// row once the loop itself has finished lowering: if a break anywhere
// inside requested the loop's exit label, the loop statement (and nothing
// else — no following siblings) is wrapped in a JumpBlock using that label.
func wrapLoopExitIfNeeded(loop hdlast.LoopAnchor, span position.Span) []hdlast.Stmt {
	if exitLabel := loop.LoopLabel(false); exitLabel != nil {
		return []hdlast.Stmt{hdlast.NewJumpBlock(span, exitLabel, []hdlast.Stmt{loop})}
	}

	return []hdlast.Stmt{loop}
}

func lowerBeginBlock(ctx *loweringContext, mod *hdlast.Module, b *hdlast.BeginBlock) []hdlast.Stmt {
	childCtx := ctx.pushBlock(b)
	b.Stmts = lowerStmts(childCtx, mod, b.Stmts)

	if label := b.ExitLabel(); label != nil {
		b.Stmts = applyExitWrap(b.Span, label, b.Stmts)
	}

	return []hdlast.Stmt{b}
}

func lowerForkBlock(ctx *loweringContext, mod *hdlast.Module, f *hdlast.ForkBlock) []hdlast.Stmt {
	markForkAncestors(ctx.blockStack)

	childCtx := ctx.pushBlock(f).withInFork(true)
	f.Stmts = lowerStmts(childCtx, mod, f.Stmts)

	return []hdlast.Stmt{f}
}

func lowerReturn(ctx *loweringContext, mod *hdlast.Module, r *hdlast.ReturnStmt) []hdlast.Stmt {
	if ctx.inFork {
		ctx.diags.Errorf(r.Span, diagnostics.CategoryControlFlow, "Return isn't legal under fork (IEEE 1800-2023 9.2.3)")
		return nil
	}

	f := ctx.currentFunctionOrTask
	if f == nil {
		ctx.diags.Errorf(r.Span, diagnostics.CategoryControlFlow, "Return isn't underneath a task or function")
		return nil
	}

	// Ground truth (V3LinkJump.cpp's visit(AstReturn*)) only builds the
	// Assign+JumpGo replacement inside the final `else` of an if/else-if
	// chain — when neither of these two errors fires. An erroring return is
	// unlinked with nothing put in its place, same as the fork/no-task
	// cases above; it does not also get a jump inserted.
	if f.IsFunction && r.Value == nil && !f.IsConstructor {
		ctx.diags.Errorf(r.Span, diagnostics.CategoryControlFlow, "Return underneath a function should have return value")
		return nil
	}

	if !f.IsFunction && r.Value != nil {
		ctx.diags.Errorf(r.Span, diagnostics.CategoryControlFlow, "Return underneath a task shouldn't have return value")
		return nil
	}

	var out []hdlast.Stmt

	if f.IsFunction && r.Value != nil {
		out = append(out, &hdlast.AssignStmt{
			Span: r.Span,
			LHS:  &hdlast.VarRef{Span: r.Span, V: f.FVar, Access: hdlast.AccessWrite},
			RHS:  r.Value,
		})
	}

	label := findFunctionOrTaskExitLabel(mod, f)
	out = append(out, &hdlast.JumpGoStmt{Span: r.Span, Target: label})

	return out
}

func lowerBreak(ctx *loweringContext, mod *hdlast.Module, b *hdlast.BreakStmt) []hdlast.Stmt {
	if ctx.currentLoop == nil {
		ctx.diags.Errorf(b.Span, diagnostics.CategoryControlFlow, "break isn't underneath a loop")
		return nil
	}

	label := findLoopExitLabel(mod, ctx.currentLoop)

	return []hdlast.Stmt{&hdlast.JumpGoStmt{Span: b.Span, Target: label}}
}

func lowerContinue(ctx *loweringContext, mod *hdlast.Module, c *hdlast.ContinueStmt) []hdlast.Stmt {
	if ctx.currentLoop == nil {
		ctx.diags.Errorf(c.Span, diagnostics.CategoryControlFlow, "continue isn't underneath a loop")
		return nil
	}

	label := findLoopContinueLabel(mod, ctx.currentLoop)

	return []hdlast.Stmt{&hdlast.JumpGoStmt{Span: c.Span, Target: label}}
}

func lowerDisable(ctx *loweringContext, mod *hdlast.Module, d *hdlast.DisableStmt) []hdlast.Stmt {
	var match hdlast.NamedBlock

	for i := len(ctx.blockStack) - 1; i >= 0; i-- {
		if ctx.blockStack[i].BlockName() == d.Target {
			match = ctx.blockStack[i]
			break
		}
	}

	if match == nil {
		ctx.diags.Warnf(d.Span, diagnostics.CategoryUnsupported, "E_UNSUPPORTED",
			"disable isn't underneath a begin with name: %s", d.Target)

		return nil
	}

	switch b := match.(type) {
	case *hdlast.BeginBlock:
		if b.ContainsFork() {
			diagnostics.NewBuilder(d.Span).
				Level(diagnostics.LevelWarning).
				Category(diagnostics.CategoryUnsupported).
				Code("E_UNSUPPORTED").
				Message("Unsupported: disabling block that contains a fork").
				Emit(ctx.diags)
			return nil
		}

		label := findBlockExitLabel(mod, b)

		return []hdlast.Stmt{&hdlast.JumpGoStmt{Span: d.Span, Target: label}}

	case *hdlast.ForkBlock:
		diagnostics.NewBuilder(d.Span).
			Level(diagnostics.LevelWarning).
			Category(diagnostics.CategoryUnsupported).
			Code("E_UNSUPPORTED").
			Message("Unsupported: disabling fork by name").
			Emit(ctx.diags)
		return nil

	default:
		ice("lowerDisable: unknown NamedBlock implementation %T", match)
		return nil
	}
}
