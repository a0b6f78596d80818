package lower

import "github.com/hdlsim/vlower/internal/hdlast"

// lowerDoWhile rewrites a DoWhileLoop into an unnamed Begin holding one
// unconditional copy of the (already-lowered) body followed by a While
// guarding the rest of the iterations (spec.md §4.3). d.Body must already
// have been lowered (break/continue resolved against d as the anchor)
// before this is called — see the *hdlast.DoWhileLoop case in lowerStmts,
// which lowers the body first while currentLoop is still set to d, exactly
// as spec.md §4.3 step 1 requires.
//
// The caller is responsible for checking d.LoopLabel(false) after this
// returns: if a break targeted d, the returned Begin must be wrapped in a
// JumpBlock using that label, since by the time a break's exit label would
// normally be materialized (spec.md §4.5, "Loop / endOfIter=false"), d no
// longer exists in the output for the wrap to attach to directly.
func lowerDoWhile(mod *hdlast.Module, d *hdlast.DoWhileLoop) *hdlast.BeginBlock {
	whileLoop := &hdlast.WhileLoop{
		Span:               d.Span,
		Cond:               d.Cond,
		Body:               d.Body,
		Unroll:             d.Unroll,
		SuppressUnusedLoop: true, // body always executes at least once
	}

	remap := map[*hdlast.JumpLabel]*hdlast.JumpLabel{}
	clonedBody := cloneStmts(d.Body, remap)
	renameBeginBlocks(clonedBody, "__Vdo_while1_")
	renameBeginBlocks(d.Body, "__Vdo_while2_")

	stmts := make([]hdlast.Stmt, 0, len(clonedBody)+1)
	stmts = append(stmts, clonedBody...)
	stmts = append(stmts, whileLoop)

	return &hdlast.BeginBlock{Span: d.Span, Stmts: stmts}
}

// renameBeginBlocks walks stmts, prefixing the Name of every named
// BeginBlock and ForkBlock reached (recursing into every
// statement-list-bearing node), matching spec.md §4.3 step 4's
// block-renaming discipline. Unnamed blocks
// (Name == "") are left alone: they can never be a disable target, so
// collisions can't arise from them.
func renameBeginBlocks(stmts []hdlast.Stmt, prefix string) {
	for _, s := range stmts {
		switch n := s.(type) {
		case *hdlast.BeginBlock:
			if n.Name != "" {
				n.Name = prefix + n.Name
			}

			renameBeginBlocks(n.Stmts, prefix)
		case *hdlast.ForkBlock:
			if n.Name != "" {
				n.Name = prefix + n.Name
			}

			renameBeginBlocks(n.Stmts, prefix)
		case *hdlast.IfStmt:
			renameBeginBlocks(n.Then, prefix)
			renameBeginBlocks(n.Else, prefix)
		case *hdlast.WhileLoop:
			renameBeginBlocks(n.Preconds, prefix)
			renameBeginBlocks(n.Incs, prefix)
			renameBeginBlocks(n.Body, prefix)
		case *hdlast.ForeachLoop:
			renameBeginBlocks(n.Body, prefix)
		case *hdlast.JumpBlock:
			renameBeginBlocks(n.Stmts, prefix)
		case *hdlast.RepeatLoop, *hdlast.DoWhileLoop:
			ice("renameBeginBlocks: %T must already be lowered before do-while duplication", n)
		}
	}
}
