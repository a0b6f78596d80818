// Command linkjump runs the LinkJump control-flow lowering pass over a
// JSON-encoded netlist produced by an external Verilog frontend (parser +
// name binder), matching spec.md §6's statement that there is no file
// format or CLI at the pass's own boundary — this is the additive process
// boundary SPEC_FULL.md layers on top, grounded on cmd/orizon-compiler's
// flag layout and log.Fatalf-on-unrecoverable-error convention.
package main

import (
	"crypto/tls"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/hdlsim/vlower/internal/diagnostics"
	"github.com/hdlsim/vlower/internal/diagstream"
	"github.com/hdlsim/vlower/internal/hdlast"
	"github.com/hdlsim/vlower/internal/lower"
	"github.com/hdlsim/vlower/internal/lowerconfig"
	"github.com/hdlsim/vlower/internal/sysguard"
	"github.com/hdlsim/vlower/internal/watchset"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version information")
		inPath      = flag.String("in", "", "input netlist JSON path (default: stdin)")
		outPath     = flag.String("out", "", "output netlist JSON path (default: stdout)")
		configPath  = flag.String("config", "", "project config JSON path (default: built-in)")
		watchDir    = flag.String("watch", "", "watch DIR for *.netlist.json changes and re-lower on each")
		diagStream  = flag.String("diag-stream", "", "serve diagnostics/AST dumps over HTTP/3 at addr (e.g. :4433)")
		dumpAST     = flag.Bool("dump-ast", false, "dump the lowered netlist as JSON to stderr (when -verbosity > 0) and to -diag-stream")
		verbosity   = flag.Int("verbosity", 0, "diagnostic/dump verbosity threshold")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("linkjump v%s (%s)\n", version, commit)
		return
	}

	cfg := lowerconfig.Default()

	if *configPath != "" {
		loaded, err := lowerconfig.Load(*configPath)
		if err != nil {
			log.Fatalf("linkjump: %v", err)
		}

		cfg = loaded
	}

	if *dumpAST {
		cfg.OutputOptions.DumpAST = true
	}

	if *verbosity > cfg.OutputOptions.Verbosity {
		cfg.OutputOptions.Verbosity = *verbosity
	}

	var stream *diagstream.Server

	if *diagStream != "" {
		stream = diagstream.New(*diagStream, insecureSelfSignedTLS())

		addr, err := stream.Start()
		if err != nil {
			log.Fatalf("linkjump: diag-stream: %v", err)
		}

		log.Printf("linkjump: diag-stream listening on %s", addr)

		defer stream.Stop()
	}

	if *watchDir != "" {
		runWatch(*watchDir, cfg, stream)
		return
	}

	if err := runOnce(*inPath, *outPath, cfg, stream); err != nil {
		log.Fatalf("linkjump: %v", err)
	}
}

// runOnce lowers a single netlist read from in (or stdin) and writes the
// result to out (or stdout), matching cmd/orizon-compiler's single-shot
// invocation shape. It returns an error for any I/O or decode failure and
// recovers an internal-compiler-error panic from lower.Run, reporting it as
// a fatal diagnostic per spec.md §7c rather than letting it crash the
// process — the ICE is a signal of an upstream bug, not a reason to lose
// whatever diagnostics were already collected.
func runOnce(inPath, outPath string, cfg lowerconfig.ProjectConfig, stream *diagstream.Server) (err error) {
	input, err := readInput(inPath)
	if err != nil {
		return err
	}

	netlist, err := hdlast.UnmarshalJSON(input)
	if err != nil {
		return fmt.Errorf("decode netlist: %w", err)
	}

	diags := diagnostics.NewManager()

	defer func() {
		if r := recover(); r != nil {
			if iceErr, ok := r.(lower.ICE); ok {
				diags.AddDiagnostic(diagnostics.Diagnostic{
					Level:   diagnostics.LevelFatal,
					Message: iceErr.Error(),
				})
				err = writeResult(outPath, netlist, diags, cfg, stream)

				return
			}

			panic(r)
		}
	}()

	lowerconfig.ApplyDialectGate(netlist, cfg, diags)
	lower.Run(netlist, diags)

	return writeResult(outPath, netlist, diags, cfg, stream)
}

// runWatch re-lowers every existing *.netlist.json file in dir once, then
// blocks re-lowering each file again as watchset reports changes, until the
// process receives SIGINT/SIGTERM. Matches SPEC_FULL.md §6's "IDE/batch
// convenience" description: it does not change LinkJump's own contract,
// only how often cmd/linkjump invokes it.
func runWatch(dir string, cfg lowerconfig.ProjectConfig, stream *diagstream.Server) {
	if _, err := sysguard.RaiseNoFileLimit(4096); err != nil {
		log.Printf("linkjump: warning: could not raise file descriptor limit: %v", err)
	}

	watcher, err := watchset.New()
	if err != nil {
		log.Fatalf("linkjump: watch: %v", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		log.Fatalf("linkjump: watch: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Fatalf("linkjump: watch: %v", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".netlist.json") {
			continue
		}

		relowerWatched(filepath.Join(dir, entry.Name()), cfg, stream)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case ev := <-watcher.Events():
			relowerWatched(ev.Path, cfg, stream)
		case watchErr := <-watcher.Errors():
			log.Printf("linkjump: watch error: %v", watchErr)
		case <-sigCh:
			return
		}
	}
}

func relowerWatched(path string, cfg lowerconfig.ProjectConfig, stream *diagstream.Server) {
	if err := runOnce(path, path, cfg, stream); err != nil {
		log.Printf("linkjump: %s: %v", path, err)
	}
}

func readInput(inPath string) ([]byte, error) {
	if inPath == "" {
		return io.ReadAll(os.Stdin)
	}

	return os.ReadFile(inPath)
}

// writeResult prints diagnostics as one line each (teacher-style
// `file:line:col: level: message [CODE]`, spec.md §6.2), writes the lowered
// netlist JSON to outPath (or stdout), and pushes the diagnostics (plus the
// netlist when DumpAST is set) to stream when -diag-stream is active.
func writeResult(outPath string, netlist *hdlast.Netlist, diags *diagnostics.Manager, cfg lowerconfig.ProjectConfig, stream *diagstream.Server) error {
	for _, d := range diags.Diagnostics() {
		fmt.Fprintln(os.Stderr, d.String())
	}

	encoded, err := hdlast.MarshalJSON(netlist)
	if err != nil {
		return fmt.Errorf("encode netlist: %w", err)
	}

	if err := writeOutput(outPath, encoded); err != nil {
		return err
	}

	if cfg.OutputOptions.DumpAST && cfg.OutputOptions.Verbosity > 0 {
		fmt.Fprintln(os.Stderr, "--- lowered AST dump ---")
		fmt.Fprintln(os.Stderr, string(encoded))
	}

	if stream != nil {
		update := diagstream.Update{Diagnostics: diags.Diagnostics()}
		if cfg.OutputOptions.DumpAST {
			update.ASTDump = json.RawMessage(encoded)
		}

		stream.Publish(update)
	}

	if diags.HasErrors() {
		return fmt.Errorf("lowering reported errors")
	}

	return nil
}

func writeOutput(outPath string, data []byte) error {
	if outPath == "" {
		_, err := os.Stdout.Write(data)
		return err
	}

	return os.WriteFile(outPath, data, 0o644)
}

// insecureSelfSignedTLS is a placeholder TLS config for local -diag-stream
// use: cmd/linkjump does not itself manage certificate provisioning (out of
// scope per spec.md §1's external-collaborator boundary), so this documents
// the expectation that a real deployment supplies its own certificate via
// diagstream.InsecureTLSConfig(cert) instead.
func insecureSelfSignedTLS() *tls.Config {
	return &tls.Config{MinVersion: tls.VersionTLS12}
}
