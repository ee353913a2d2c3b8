package check_test

import (
	"testing"

	"github.com/homelang/homec/pkg/check"
	"github.com/homelang/homec/pkg/parser"
	"github.com/homelang/homec/pkg/source"
	"github.com/homelang/homec/pkg/util/assert"
)

func diagKinds(t *testing.T, src string) []source.Kind {
	t.Helper()

	file := source.New("<test>", []byte(src))
	prog, parseErrs := parser.Parse(file)
	assert.Equal(t, 0, len(parseErrs), "unexpected parse errors")

	errs := check.Check(prog)

	kinds := make([]source.Kind, len(errs))
	for i, e := range errs {
		kinds[i] = e.Kind
	}

	return kinds
}

func TestArithmeticPromotesToFloat(t *testing.T) {
	kinds := diagKinds(t, `fn f() { let x: float = 1 + 2.0; }`)
	assert.Equal(t, 0, len(kinds))
}

func TestArithmeticIntStaysInt(t *testing.T) {
	kinds := diagKinds(t, `fn f() { let x: float = 1 + 2; }`)
	assert.Equal(t, 1, len(kinds))
	assert.Equal(t, source.KindTypeMismatch, kinds[0])
}

func TestLetAnnotationMismatch(t *testing.T) {
	kinds := diagKinds(t, `fn f() { let x: int = "hi"; }`)
	assert.Equal(t, 1, len(kinds))
	assert.Equal(t, source.KindTypeMismatch, kinds[0])
}

func TestUndefinedVariable(t *testing.T) {
	kinds := diagKinds(t, `fn f() { let x = y; }`)
	assert.Equal(t, 1, len(kinds))
	assert.Equal(t, source.KindUndefinedVariable, kinds[0])
}

func TestForwardReferenceResolves(t *testing.T) {
	// Pass 1 enters every FnDecl's signature before pass 2 walks bodies, so
	// a call to a function declared later in the file must type-check.
	kinds := diagKinds(t, `
fn a() -> int { return b(); }
fn b() -> int { return 1; }
`)
	assert.Equal(t, 0, len(kinds))
}

func TestWrongArity(t *testing.T) {
	kinds := diagKinds(t, `
fn add(a: int, b: int) -> int { return a + b; }
fn main() { add(1); }
`)
	assert.Equal(t, 1, len(kinds))
	assert.Equal(t, source.KindWrongNumberOfArguments, kinds[0])
}

func TestPrintIsVariadic(t *testing.T) {
	kinds := diagKinds(t, `fn main() { print(1, "two", 3.0); }`)
	assert.Equal(t, 0, len(kinds))
}

func TestTryPostfixUnwrapsOk(t *testing.T) {
	kinds := diagKinds(t, `
fn parse() -> Result{int, string} { return parse(); }
fn f() -> Result{int, string} { let x: int = parse()?; return parse(); }
`)
	assert.Equal(t, 0, len(kinds))
}

func TestTryOutsideResultFunction(t *testing.T) {
	kinds := diagKinds(t, `
fn parse() -> Result{int, string} { return parse(); }
fn f() { let x = parse()?; }
`)
	assert.Equal(t, 1, len(kinds))
	assert.Equal(t, source.KindInvalidOperation, kinds[0])
}

func TestReferenceTypesOfBorrow(t *testing.T) {
	kinds := diagKinds(t, `fn f() { let mut a = 1; let b: int = &a; }`)
	assert.Equal(t, 1, len(kinds))
	assert.Equal(t, source.KindTypeMismatch, kinds[0])
}

func TestStructLiteralFieldTypes(t *testing.T) {
	kinds := diagKinds(t, `
struct Point { x: int, y: int }
fn f() { let p = Point{x: 1, y: 2}; }
`)
	assert.Equal(t, 0, len(kinds))
}

func TestComptimeDivisionByZeroIsReported(t *testing.T) {
	// Check must actually drive pkg/comptime (spec.md §4.5): a comptime
	// let whose initializer fails to evaluate should surface the
	// evaluator's own diagnostic, not pass silently through type checking.
	kinds := diagKinds(t, `comptime let x = 1 / 0;`)
	assert.Equal(t, 1, len(kinds))
	assert.Equal(t, source.KindInvalidOperation, kinds[0])
}

func TestComptimeBindingTypeIsInferredFromEvaluation(t *testing.T) {
	kinds := diagKinds(t, `
comptime let limit = 2 + 3;
fn f() { let x: int = limit; }
`)
	assert.Equal(t, 0, len(kinds))
}

func TestStructLiteralFieldMismatch(t *testing.T) {
	kinds := diagKinds(t, `
struct Point { x: int, y: int }
fn f() { let p = Point{x: "nope", y: 2}; }
`)
	assert.Equal(t, 1, len(kinds))
	assert.Equal(t, source.KindTypeMismatch, kinds[0])
}
