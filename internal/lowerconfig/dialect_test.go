package lowerconfig

import (
	"testing"

	"github.com/hdlsim/vlower/internal/hdlast"
)

func TestGatePragmaOtherAlwaysAllowed(t *testing.T) {
	cfg := Default()
	cfg.LanguageVersion = "1995.0.0"

	if got := GatePragma(hdlast.PragmaOther, cfg); !got.Allowed {
		t.Fatalf("PragmaOther should never be gated, got %+v", got)
	}
}

func TestGatePragmaUnrollFullAllowedOnModernDialect(t *testing.T) {
	cfg := Default()
	cfg.LanguageVersion = "2023.0.0"

	got := GatePragma(hdlast.PragmaUnrollFull, cfg)
	if !got.Allowed {
		t.Fatalf("expected unroll_full to be allowed under %s, got %+v", cfg.LanguageVersion, got)
	}
}

func TestGatePragmaUnrollFullRejectedOnOldDialect(t *testing.T) {
	cfg := Default()
	cfg.LanguageVersion = "2001.0.0"

	got := GatePragma(hdlast.PragmaUnrollFull, cfg)
	if got.Allowed {
		t.Fatalf("expected unroll_full to be rejected under %s", cfg.LanguageVersion)
	}

	if got.Reason == "" {
		t.Fatalf("expected a non-empty downgrade reason")
	}
}

func TestGatePragmaMalformedVersionDefaultsToAllow(t *testing.T) {
	cfg := Default()
	cfg.LanguageVersion = "not-a-version"

	if got := GatePragma(hdlast.PragmaUnrollDisable, cfg); !got.Allowed {
		t.Fatalf("a malformed language_version should not itself cause a rejection, got %+v", got)
	}
}
