package lower

import (
	"github.com/hdlsim/vlower/internal/diagnostics"
	"github.com/hdlsim/vlower/internal/hdlast"
)

// Run lowers every non-dead module in netlist in place, posting diagnostics
// to diags. It is the single entry point spec.md §6 describes: it mutates
// the AST and returns no output of its own beyond diagnostics (callers read
// diags.HasErrors() to decide whether to proceed to later passes).
//
// An internal invariant violation surfaces as a panic carrying an ICE value
// rather than a returned error — see context.go's ICE type and cmd/linkjump's
// top-level recover, matching spec.md §7c's fatal/ICE category.
func Run(netlist *hdlast.Netlist, diags *diagnostics.Manager) {
	ctx := newContext(diags)

	for _, mod := range netlist.Modules {
		if mod.Dead {
			continue
		}

		lowerModule(ctx, mod)
	}
}

func lowerModule(ctx *loweringContext, mod *hdlast.Module) {
	modCtx := ctx.withModule(mod)

	for _, f := range mod.Items {
		lowerFunctionOrTask(modCtx, mod, f)
	}
}

func lowerFunctionOrTask(ctx *loweringContext, mod *hdlast.Module, f *hdlast.FunctionOrTask) {
	fCtx := ctx.withFunctionOrTask(f)
	f.Body = lowerStmts(fCtx, mod, f.Body)

	if label := f.ExitLabel(); label != nil {
		f.Body = applyExitWrap(f.Span, label, f.Body)
	}
}
