package comptime_test

import (
	"testing"

	"github.com/homelang/homec/pkg/comptime"
	"github.com/homelang/homec/pkg/parser"
	"github.com/homelang/homec/pkg/source"
	"github.com/homelang/homec/pkg/util/assert"
)

func evalStore(t *testing.T, src string) (map[string]comptime.Value, []source.Diagnostic) {
	t.Helper()

	file := source.New("<test>", []byte(src))
	prog, errs := parser.Parse(file)
	assert.Equal(t, 0, len(errs))

	return comptime.Eval(prog)
}

func TestArithmeticFolding(t *testing.T) {
	store, errs := evalStore(t, `comptime let x = 2 + 3 * 4;`)
	assert.Equal(t, 0, len(errs))
	assert.Equal(t, int64(14), store["x"].I)
}

func TestMixedIntFloatPromotes(t *testing.T) {
	store, errs := evalStore(t, `comptime let x = 1 + 2.5;`)
	assert.Equal(t, 0, len(errs))
	assert.Equal(t, 3.5, store["x"].F)
}

func TestIfElseFolds(t *testing.T) {
	store, errs := evalStore(t, `comptime let x = if 1 < 2 { 10 } else { 20 };`)
	assert.Equal(t, 0, len(errs))
	assert.Equal(t, int64(10), store["x"].I)
}

func TestNameLookupIntoStore(t *testing.T) {
	store, errs := evalStore(t, `
comptime let base = 10;
comptime let derived = base * 2;
`)
	assert.Equal(t, 0, len(errs))
	assert.Equal(t, int64(20), store["derived"].I)
}

func TestPureFunctionCall(t *testing.T) {
	store, errs := evalStore(t, `
comptime fn square(n: int) -> int { return n * n; }
comptime let x = square(5);
`)
	assert.Equal(t, 0, len(errs))
	assert.Equal(t, int64(25), store["x"].I)
}

func TestRecursivePureFunction(t *testing.T) {
	store, errs := evalStore(t, `
comptime fn fact(n: int) -> int { if n < 2 { return 1; } return n * fact(n - 1); }
comptime let x = fact(5);
`)
	assert.Equal(t, 0, len(errs))
	assert.Equal(t, int64(120), store["x"].I)
}

func TestUndefinedConstantErrors(t *testing.T) {
	_, errs := evalStore(t, `comptime let x = nope;`)
	assert.Equal(t, 1, len(errs))
	assert.Equal(t, source.KindUndefinedVariable, errs[0].Kind)
}

func TestMissingInitializerErrors(t *testing.T) {
	// `let` (unlike `const`) does not require an initializer at parse
	// time, so this reaches comptime.Eval's own nil-Init diagnostic.
	_, errs := evalStore(t, `comptime let x: int;`)
	assert.Equal(t, 1, len(errs))
	assert.Equal(t, source.KindCannotInferType, errs[0].Kind)
}
