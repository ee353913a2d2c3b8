// Package diagnostic renders source.Diagnostic values into the
// human-readable report spec.md §7 describes: file:line:column, an error
// header, an expected/found pair where applicable, a caret under the
// offending token, and an optional suggestion. Grounded on go-corset's
// SyntaxError.Error() one-line formatting, extended here into a
// multi-line report with a caret and on golang.org/x/term for TTY-aware
// ANSI coloring, the same library go-corset's pkg/util/termio uses for
// terminal detection.
package diagnostic

import (
	"fmt"
	"io"
	"strings"

	"github.com/segmentio/encoding/json"
	"golang.org/x/term"

	"github.com/homelang/homec/pkg/source"
)

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31;1m"
	colorYellow = "\x1b[33;1m"
	colorBold   = "\x1b[1m"
	colorDim    = "\x1b[2m"
)

// Render formats a single diagnostic as a multi-line report, with ANSI
// coloring only when out is a terminal.
func Render(out io.Writer, d source.Diagnostic) string {
	colored := isTerminal(out)

	var b strings.Builder

	header := fmt.Sprintf("%s:%s: %s: %s", d.Path(), d.Position(), d.Severity, d.Message)
	fmt.Fprintln(&b, colorize(colored, severityColor(d.Severity), header))

	if line := d.SourceLine(); line != "" {
		pad := int(d.Position().Column) - 1
		if pad < 0 {
			pad = 0
		}

		fmt.Fprintf(&b, "  %s\n", line)
		fmt.Fprintf(&b, "  %s%s\n", strings.Repeat(" ", pad), colorize(colored, colorRed, "^"))
	}

	if d.Expected != "" || d.Actual != "" {
		fmt.Fprintf(&b, "  expected %s, found %s\n", d.Expected, d.Actual)
	}

	if d.Suggestion != "" {
		fmt.Fprintln(&b, colorize(colored, colorDim, "  help: "+d.Suggestion))
	}

	s := b.String()
	fmt.Fprint(out, s)

	return s
}

// RenderAll writes every diagnostic in order, separated by a blank line.
func RenderAll(out io.Writer, diags []source.Diagnostic) {
	for i, d := range diags {
		if i > 0 {
			fmt.Fprintln(out)
		}

		Render(out, d)
	}
}

// jsonDiagnostic is the machine-readable shape for the CLI's --json flag,
// a common companion to a compiler's human-readable diagnostics; rendered
// with segmentio/encoding/json, a drop-in encoding/json replacement.
type jsonDiagnostic struct {
	Severity   string `json:"severity"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	Path       string `json:"path"`
	Line       uint32 `json:"line"`
	Column     uint32 `json:"column"`
	Expected   string `json:"expected,omitempty"`
	Actual     string `json:"actual,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func toJSON(d source.Diagnostic) jsonDiagnostic {
	pos := d.Position()

	return jsonDiagnostic{
		Severity:   d.Severity.String(),
		Kind:       string(d.Kind),
		Message:    d.Message,
		Path:       d.Path(),
		Line:       pos.Line,
		Column:     pos.Column,
		Expected:   d.Expected,
		Actual:     d.Actual,
		Suggestion: d.Suggestion,
	}
}

// RenderJSON encodes every diagnostic as a JSON array, one object per
// diagnostic, for tooling that consumes structured compiler output.
func RenderJSON(out io.Writer, diags []source.Diagnostic) error {
	encoded := make([]jsonDiagnostic, len(diags))
	for i, d := range diags {
		encoded[i] = toJSON(d)
	}

	enc := json.NewEncoder(out)

	return enc.Encode(encoded)
}

func severityColor(sev source.Severity) string {
	if sev == source.SeverityWarning {
		return colorYellow
	}

	return colorRed
}

func colorize(enabled bool, code, s string) string {
	if !enabled {
		return s
	}

	return code + s + colorReset
}

// fder is satisfied by *os.File; other io.Writers (e.g. bytes.Buffer in
// tests) are never terminals.
type fder interface {
	Fd() uintptr
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(fder)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
