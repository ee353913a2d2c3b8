package diagnostic_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/homelang/homec/pkg/diagnostic"
	"github.com/homelang/homec/pkg/source"
	"github.com/homelang/homec/pkg/util/assert"
)

func TestRenderIncludesPathLineColumn(t *testing.T) {
	file := source.New("main.home", []byte("let x = nope;\n"))
	d := source.New(source.KindUndefinedVariable, source.NewSpan(8, 12), "undefined variable nope").WithFile(file)

	var buf bytes.Buffer
	out := diagnostic.Render(&buf, d)

	assert.True(t, strings.Contains(out, "main.home:1:9"))
	assert.True(t, strings.Contains(out, "undefined variable nope"))
}

func TestRenderShowsCaretUnderToken(t *testing.T) {
	file := source.New("main.home", []byte("let x = nope;\n"))
	d := source.New(source.KindUndefinedVariable, source.NewSpan(8, 12), "undefined variable nope").WithFile(file)

	var buf bytes.Buffer
	out := diagnostic.Render(&buf, d)

	lines := strings.Split(out, "\n")
	assert.True(t, len(lines) >= 3)
	assert.True(t, strings.Contains(lines[2], "^"))
}

func TestRenderIncludesExpectedFound(t *testing.T) {
	file := source.New("main.home", []byte("let x: int = 1.0;\n"))
	d := source.New(source.KindTypeMismatch, source.NewSpan(13, 16), "type mismatch").
		WithFile(file).WithTypes("int", "float")

	var buf bytes.Buffer
	out := diagnostic.Render(&buf, d)

	assert.True(t, strings.Contains(out, "expected int, found float"))
}

func TestRenderIncludesSuggestion(t *testing.T) {
	file := source.New("main.home", []byte("let x = y;\n"))
	d := source.New(source.KindUndefinedVariable, source.NewSpan(8, 9), "undefined variable y").
		WithFile(file).WithSuggestion("did you mean to declare y first?")

	var buf bytes.Buffer
	out := diagnostic.Render(&buf, d)

	assert.True(t, strings.Contains(out, "help: did you mean to declare y first?"))
}

func TestRenderNotColoredForNonTerminalWriter(t *testing.T) {
	file := source.New("main.home", []byte("let x = y;\n"))
	d := source.New(source.KindUndefinedVariable, source.NewSpan(8, 9), "undefined variable y").WithFile(file)

	var buf bytes.Buffer
	out := diagnostic.Render(&buf, d)

	assert.False(t, strings.Contains(out, "\x1b["))
}

func TestRenderAllSeparatesDiagnostics(t *testing.T) {
	file := source.New("main.home", []byte("let x = y;\nlet z = w;\n"))
	d1 := source.New(source.KindUndefinedVariable, source.NewSpan(8, 9), "undefined variable y").WithFile(file)
	d2 := source.New(source.KindUndefinedVariable, source.NewSpan(19, 20), "undefined variable w").WithFile(file)

	var buf bytes.Buffer
	diagnostic.RenderAll(&buf, []source.Diagnostic{d1, d2})

	out := buf.String()
	assert.True(t, strings.Contains(out, "undefined variable y"))
	assert.True(t, strings.Contains(out, "undefined variable w"))
}
