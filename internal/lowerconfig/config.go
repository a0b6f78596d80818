// Package lowerconfig loads the JSON project configuration that drives
// cmd/linkjump and gates which pragmas internal/lower is allowed to honor
// for a given project's declared dialect version. The JSON shape and
// load/save/human-readable-show conventions follow cmd/orizon-config's
// ProjectConfig; the dialect-gating table is new domain logic for vlower.
package lowerconfig

import (
	"encoding/json"
	"fmt"
	"os"
)

// ProjectConfig is the on-disk configuration for a vlower invocation,
// mirroring cmd/orizon-config's flat JSON-tagged struct convention.
type ProjectConfig struct {
	Name            string       `json:"name"`
	LanguageVersion string       `json:"language_version"`
	OutputOptions   OutputConfig `json:"output_options"`
}

// OutputConfig controls cmd/linkjump's output shape.
type OutputConfig struct {
	DumpAST   bool   `json:"dump_ast"`
	Verbosity int    `json:"verbosity"`
	DiagStyle string `json:"diag_style"` // "text" or "json"
}

// Default returns the configuration used when no -config file is given,
// matching cmd/orizon-config's --init defaults in spirit (a permissive,
// no-surprises baseline).
func Default() ProjectConfig {
	return ProjectConfig{
		Name:            "unnamed",
		LanguageVersion: "2023.0.0",
		OutputOptions: OutputConfig{
			DumpAST:   false,
			Verbosity: 0,
			DiagStyle: "text",
		},
	}
}

// Load reads a ProjectConfig from path, falling back to Default() fields
// for anything the file omits (zero-value JSON unmarshal already does this
// since ProjectConfig has no pointer fields).
func Load(path string) (ProjectConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return ProjectConfig{}, fmt.Errorf("lowerconfig: read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return ProjectConfig{}, fmt.Errorf("lowerconfig: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes cfg to path as indented JSON, matching cmd/orizon-config's
// --init/--set write style.
func Save(path string, cfg ProjectConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("lowerconfig: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("lowerconfig: write %s: %w", path, err)
	}

	return nil
}
