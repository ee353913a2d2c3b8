// Package cmd implements the cobra-based CLI surface spec.md §6 names:
// compile, check and build, plus the 0/1 exit-code protocol. Grounded on
// go-corset's pkg/cmd/root.go (rootCmd/Execute shape, GetFlag-family
// helpers) and pkg/cmd/compile.go/check.go (one cobra.Command per
// subcommand, flags read via the Get* helpers, logrus verbosity toggle).
package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/homelang/homec/pkg/ast"
	"github.com/homelang/homec/pkg/check"
	"github.com/homelang/homec/pkg/diagnostic"
	"github.com/homelang/homec/pkg/ownership"
	"github.com/homelang/homec/pkg/parser"
	"github.com/homelang/homec/pkg/source"
)

// parseUnit runs the lexer+parser stage, per spec.md §6's compile().
func parseUnit(path string) (*ast.Program, []source.Diagnostic, error) {
	file, err := source.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	prog, errs := parser.Parse(file)

	return prog, errs, nil
}

// checkUnit runs lex+parse+type+ownership, per spec.md §6's check(). Per
// spec.md §7's propagation policy, the checker and ownership tracker are
// skipped entirely when parsing already produced a Syntactic error, since
// their output would be unreliable over a malformed AST.
func checkUnit(path string) (*ast.Program, []source.Diagnostic, error) {
	prog, diags, err := parseUnit(path)
	if err != nil {
		return nil, nil, err
	}

	if hasSyntactic(diags) {
		return prog, diags, nil
	}

	diags = append(diags, check.Check(prog)...)
	diags = append(diags, ownership.Track(prog)...)

	return prog, diags, nil
}

func hasSyntactic(diags []source.Diagnostic) bool {
	for _, d := range diags {
		if d.Kind.IsSyntactic() {
			return true
		}
	}

	return false
}

// reportAndExit renders diags (if any) and exits with the protocol spec.md
// §6 defines: 0 on success, 1 on a user-visible compilation failure.
func reportAndExit(diags []source.Diagnostic) {
	reportAndExitJSON(diags, false)
}

// reportAndExitJSON is reportAndExit, but emits machine-readable JSON when
// asJSON is set (the CLI's --json flag).
func reportAndExitJSON(diags []source.Diagnostic, asJSON bool) {
	if len(diags) == 0 {
		return
	}

	if asJSON {
		if err := diagnostic.RenderJSON(os.Stderr, diags); err != nil {
			log.Error(err)
		}
	} else {
		diagnostic.RenderAll(os.Stderr, diags)
	}

	os.Exit(1)
}

func addJSONFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "emit diagnostics as a JSON array instead of human-readable text")
}

func fatal(err error) {
	log.Error(err)
	os.Exit(1)
}
