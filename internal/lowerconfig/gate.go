package lowerconfig

import (
	"github.com/hdlsim/vlower/internal/diagnostics"
	"github.com/hdlsim/vlower/internal/hdlast"
)

// ApplyDialectGate walks netlist before internal/lower ever sees it and
// downgrades any PragmaStmt that GatePragma rejects for cfg's configured
// dialect: the node is dropped (internal/lower never learns it existed, so
// its unroll latch is simply never set) and an E_UNSUPPORTED warning is
// posted, matching the "unsupported construct" diagnostic family spec.md
// §4.8 already uses for disable. This runs as a pre-pass rather than inside
// internal/lower itself so the lowering pass's own contract (spec.md §6)
// stays exactly what the specification describes, with dialect policy
// layered on as an additive, optional step cmd/linkjump wires in.
func ApplyDialectGate(netlist *hdlast.Netlist, cfg ProjectConfig, diags *diagnostics.Manager) {
	for _, mod := range netlist.Modules {
		for _, f := range mod.Items {
			f.Body = gateStmts(f.Body, cfg, diags)
		}
	}
}

func gateStmts(stmts []hdlast.Stmt, cfg ProjectConfig, diags *diagnostics.Manager) []hdlast.Stmt {
	out := make([]hdlast.Stmt, 0, len(stmts))

	for _, s := range stmts {
		if kept := gateStmt(s, cfg, diags); kept != nil {
			out = append(out, kept)
		}
	}

	return out
}

// gateStmt returns the (possibly mutated) statement to keep, or nil if the
// statement itself is a rejected pragma that should be dropped.
func gateStmt(s hdlast.Stmt, cfg ProjectConfig, diags *diagnostics.Manager) hdlast.Stmt {
	switch n := s.(type) {
	case *hdlast.PragmaStmt:
		result := GatePragma(n.Kind, cfg)
		if result.Allowed {
			return n
		}

		diags.Warnf(n.GetSpan(), diagnostics.CategoryUnsupported, "E_UNSUPPORTED", "%s", result.Reason)

		return nil
	case hdlast.NamedBlock:
		n.SetChildren(gateStmts(n.Children(), cfg, diags))
		return s
	case *hdlast.WhileLoop:
		n.Preconds = gateStmts(n.Preconds, cfg, diags)
		n.Incs = gateStmts(n.Incs, cfg, diags)
		n.Body = gateStmts(n.Body, cfg, diags)

		return n
	case *hdlast.DoWhileLoop:
		n.Body = gateStmts(n.Body, cfg, diags)
		return n
	case *hdlast.RepeatLoop:
		n.Body = gateStmts(n.Body, cfg, diags)
		return n
	case *hdlast.ForeachLoop:
		n.Body = gateStmts(n.Body, cfg, diags)
		return n
	case *hdlast.IfStmt:
		n.Then = gateStmts(n.Then, cfg, diags)
		n.Else = gateStmts(n.Else, cfg, diags)

		return n
	default:
		return s
	}
}
