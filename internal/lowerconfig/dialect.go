package lowerconfig

import (
	"fmt"

	semver "github.com/Masterminds/semver/v3"

	"github.com/hdlsim/vlower/internal/hdlast"
)

// pragmaMinVersion is the minimum declared language_version a project must
// configure before a given PragmaKind is honored by internal/lower, modeled
// on internal/packagemanager/resolver.go's constraint-table-driven version
// gating (there: a Dependency's Constraint string gates whether a
// PackageVersion resolves; here: a pragma's minimum version gates whether
// it is honored or downgraded to a warning).
var pragmaMinVersion = map[hdlast.PragmaKind]string{
	hdlast.PragmaUnrollFull:    ">=2017.0.0",
	hdlast.PragmaUnrollDisable: ">=2017.0.0",
}

// GateResult is the outcome of checking one pragma against a project's
// configured dialect.
type GateResult struct {
	Allowed bool
	// Reason is set when Allowed is false: the E_UNSUPPORTED-style message
	// explaining why the pragma was downgraded.
	Reason string
}

// GatePragma reports whether kind may be honored under cfg's configured
// LanguageVersion. PragmaOther always passes: it carries no version gate of
// its own, and the lowering pass leaves it in place without touching the
// unroll latch.
//
// An unparsable LanguageVersion or constraint is treated as "allow" rather
// than failing the whole pass — a malformed project config should not turn
// into a cascade of spurious unsupported-pragma warnings for an otherwise
// valid AST.
func GatePragma(kind hdlast.PragmaKind, cfg ProjectConfig) GateResult {
	constraint, gated := pragmaMinVersion[kind]
	if !gated {
		return GateResult{Allowed: true}
	}

	projectVersion, err := semver.NewVersion(cfg.LanguageVersion)
	if err != nil {
		return GateResult{Allowed: true}
	}

	con, err := semver.NewConstraint(constraint)
	if err != nil {
		return GateResult{Allowed: true}
	}

	if con.Check(projectVersion) {
		return GateResult{Allowed: true}
	}

	return GateResult{
		Allowed: false,
		Reason: fmt.Sprintf(
			"pragma %q requires language_version %s, project declares %s",
			kind.String(), constraint, cfg.LanguageVersion,
		),
	}
}
