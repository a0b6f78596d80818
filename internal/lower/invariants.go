package lower

import (
	"fmt"
	"strings"

	"github.com/hdlsim/vlower/internal/hdlast"
)

// CheckInvariants walks a netlist that has already been through Run and
// reports any violation of spec.md §8's P1-P6 properties it finds. It has
// no direct teacher equivalent — V3LinkJump.cpp relies on a later
// tree-consistency pass (run "at a configured verbosity", spec.md §5) rather
// than asserting its own six invariants explicitly — so this is a
// test-support helper written fresh for this pass's own test suite, not a
// port of anything in the example corpus.
func CheckInvariants(netlist *hdlast.Netlist) []string {
	v := &invariantChecker{labelOwners: map[*hdlast.JumpLabel]int{}}

	for _, mod := range netlist.Modules {
		if mod.Dead {
			continue
		}

		for _, f := range mod.Items {
			v.walkStmts(f.Body, nil)
		}
	}

	for label, count := range v.labelOwners {
		if count != 1 {
			v.issues = append(v.issues, fmt.Sprintf("P3: label %q owned by %d JumpBlocks, want exactly 1", label.Name, count))
		}
	}

	return v.issues
}

type invariantChecker struct {
	issues      []string
	labelOwners map[*hdlast.JumpLabel]int
}

func (v *invariantChecker) fail(format string, args ...any) {
	v.issues = append(v.issues, fmt.Sprintf(format, args...))
}

// walkStmts recurses over a statement list. ancestorBegins is the open
// BeginBlock ancestor chain, used by the P6 fork check.
func (v *invariantChecker) walkStmts(stmts []hdlast.Stmt, ancestorBegins []*hdlast.BeginBlock) {
	for _, s := range stmts {
		v.walkStmt(s, ancestorBegins)
	}
}

func (v *invariantChecker) walkStmt(s hdlast.Stmt, ancestorBegins []*hdlast.BeginBlock) {
	switch n := s.(type) {
	case *hdlast.ReturnStmt, *hdlast.BreakStmt, *hdlast.ContinueStmt, *hdlast.DisableStmt, *hdlast.RepeatLoop, *hdlast.DoWhileLoop:
		v.fail("P1: found leftover %T in lowered output", n)

	case *hdlast.PragmaStmt:
		// P1 only bars leftover *unroll* pragmas (spec.md §3 invariant 1,
		// §4.10): PragmaOther is left in place by design, not a violation.
		if n.Kind == hdlast.PragmaUnrollFull || n.Kind == hdlast.PragmaUnrollDisable {
			v.fail("P1: found leftover unroll %T in lowered output", n)
		}

	case *hdlast.VarDeclStmt:
		// A repeat loop's counter (named by Module.NextRepeatCounterName,
		// see lowerRepeat) must come out of the while's Incs lowering with
		// UsedLoopIdx set (spec.md §8, P5), or a later optimization pass
		// could conclude its decrementing write is dead.
		if strings.HasPrefix(n.V.Name, "__Vrepeat") && !n.V.UsedLoopIdx {
			v.fail("P5: repeat counter %q lowered without UsedLoopIdx set", n.V.Name)
		}
		// otherwise handled by the JumpBlock case below for nested-hoisting checks

	case *hdlast.AssignStmt, *hdlast.ExprStmt, *hdlast.CallStmt:
		// leaves, nothing to check structurally

	case *hdlast.IfStmt:
		v.walkStmts(n.Then, ancestorBegins)
		v.walkStmts(n.Else, ancestorBegins)

	case *hdlast.BeginBlock:
		v.walkStmts(n.Stmts, append(ancestorBegins, n))

	case *hdlast.ForkBlock:
		for _, b := range ancestorBegins {
			if !b.ContainsFork() {
				v.fail("P6: BeginBlock %q ancestor of a ForkBlock does not have containsFork set", b.Name)
			}
		}

		v.walkStmts(n.Stmts, ancestorBegins)

	case *hdlast.WhileLoop:
		v.walkStmts(n.Preconds, ancestorBegins)
		v.walkStmts(n.Body, ancestorBegins)
		v.walkStmts(n.Incs, ancestorBegins)

	case *hdlast.ForeachLoop:
		v.walkStmts(n.Body, ancestorBegins)

	case *hdlast.JumpBlock:
		v.labelOwners[n.Label]++

		if len(n.Stmts) == 0 || n.Stmts[len(n.Stmts)-1] != hdlast.Stmt(n.Label) {
			v.fail("P3: JumpBlock %q label is not its last statement", n.Label.Name)
		}

		for _, inner := range n.Stmts {
			if _, ok := inner.(*hdlast.VarDeclStmt); ok {
				v.fail("P4: VarDeclStmt found directly inside JumpBlock %q", n.Label.Name)
			}
		}

		v.walkStmts(n.Stmts, ancestorBegins)

	case *hdlast.JumpGoStmt:
		if n.Target == nil {
			v.fail("P2: JumpGoStmt has a nil target")
		}

	case *hdlast.JumpLabel:
		// visited via its owning JumpBlock's Stmts; nothing further to check

	default:
		v.fail("CheckInvariants: unhandled statement kind %T", s)
	}
}
