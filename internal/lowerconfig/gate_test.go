package lowerconfig

import (
	"testing"

	"github.com/hdlsim/vlower/internal/diagnostics"
	"github.com/hdlsim/vlower/internal/hdlast"
)

func TestApplyDialectGateDropsRejectedPragmaAndWarns(t *testing.T) {
	cfg := Default()
	cfg.LanguageVersion = "2001.0.0"

	loop := &hdlast.WhileLoop{Cond: &hdlast.IntLiteral{Value: 1}}
	netlist := &hdlast.Netlist{
		Modules: []*hdlast.Module{{
			Name: "top",
			Items: []*hdlast.FunctionOrTask{{
				Name: "f",
				Body: []hdlast.Stmt{
					&hdlast.PragmaStmt{Kind: hdlast.PragmaUnrollFull},
					loop,
				},
			}},
		}},
	}

	diags := diagnostics.NewManager()
	ApplyDialectGate(netlist, cfg, diags)

	body := netlist.Modules[0].Items[0].Body
	if len(body) != 1 {
		t.Fatalf("expected the rejected pragma to be dropped, body = %+v", body)
	}

	if body[0] != hdlast.Stmt(loop) {
		t.Fatalf("expected the loop to remain after the rejected pragma was dropped")
	}

	ds := diags.Diagnostics()
	if len(ds) != 1 || ds[0].Code != "E_UNSUPPORTED" {
		t.Fatalf("expected one E_UNSUPPORTED warning, got %+v", ds)
	}
}

func TestApplyDialectGateKeepsAllowedPragma(t *testing.T) {
	cfg := Default()
	cfg.LanguageVersion = "2023.0.0"

	netlist := &hdlast.Netlist{
		Modules: []*hdlast.Module{{
			Name: "top",
			Items: []*hdlast.FunctionOrTask{{
				Name: "f",
				Body: []hdlast.Stmt{&hdlast.PragmaStmt{Kind: hdlast.PragmaUnrollFull}},
			}},
		}},
	}

	diags := diagnostics.NewManager()
	ApplyDialectGate(netlist, cfg, diags)

	if len(netlist.Modules[0].Items[0].Body) != 1 {
		t.Fatalf("expected the allowed pragma to be kept")
	}

	if len(diags.Diagnostics()) != 0 {
		t.Fatalf("expected no diagnostics for an allowed pragma")
	}
}

func TestApplyDialectGateRecursesIntoNestedBlocks(t *testing.T) {
	cfg := Default()
	cfg.LanguageVersion = "2001.0.0"

	inner := &hdlast.BeginBlock{
		Name: "B",
		Stmts: []hdlast.Stmt{
			&hdlast.PragmaStmt{Kind: hdlast.PragmaUnrollDisable},
		},
	}
	netlist := &hdlast.Netlist{
		Modules: []*hdlast.Module{{
			Name: "top",
			Items: []*hdlast.FunctionOrTask{{
				Name: "f",
				Body: []hdlast.Stmt{inner},
			}},
		}},
	}

	diags := diagnostics.NewManager()
	ApplyDialectGate(netlist, cfg, diags)

	if len(inner.Stmts) != 0 {
		t.Fatalf("expected the nested rejected pragma to be dropped, got %+v", inner.Stmts)
	}

	if len(diags.Diagnostics()) != 1 {
		t.Fatalf("expected one diagnostic from the nested pragma")
	}
}
