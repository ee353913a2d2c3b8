package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/homelang/homec/pkg/ast"
	"github.com/homelang/homec/pkg/parser"
	"github.com/homelang/homec/pkg/source"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()

	file := source.New("<test>", []byte(src))
	prog, errs := parser.Parse(file)
	assert.Empty(t, errs, "unexpected parse errors: %v", errs)

	return prog
}

func TestParsesSimpleFunction(t *testing.T) {
	prog := parse(t, `fn main() { let x = 2 + 3 * 4; return }`)
	assert.Len(t, prog.Decls, 1)

	fn, ok := prog.Decls[0].(*ast.FnDecl)
	assert.True(t, ok)
	assert.Equal(t, "main", fn.Name)
	assert.Len(t, fn.Body.Stmts, 2)
}

// TestPrecedenceAndAssociativity checks spec.md §8 property 2: parsing
// `a op1 b op2 c` where op1 binds looser than op2 yields `a op1 (b op2 c)`,
// and that operators at the same level are left-associative.
func TestPrecedenceAndAssociativity(t *testing.T) {
	prog := parse(t, `fn f() { return 2 + 3 * 4; }`)
	fn := prog.Decls[0].(*ast.FnDecl)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)

	add, ok := ret.Value.(*ast.Binary)
	assert.True(t, ok)
	assert.Equal(t, ast.OpAdd, add.Op)

	_, leftIsLit := add.Left.(*ast.IntLit)
	assert.True(t, leftIsLit)

	mul, ok := add.Right.(*ast.Binary)
	assert.True(t, ok)
	assert.Equal(t, ast.OpMul, mul.Op)
}

func TestLeftAssociativity(t *testing.T) {
	prog := parse(t, `fn f() { return 1 - 2 - 3; }`)
	fn := prog.Decls[0].(*ast.FnDecl)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)

	// (1 - 2) - 3: outer op's Left must itself be a Binary, not the Right.
	outer, ok := ret.Value.(*ast.Binary)
	assert.True(t, ok)
	assert.Equal(t, ast.OpSub, outer.Op)

	_, leftIsBinary := outer.Left.(*ast.Binary)
	assert.True(t, leftIsBinary)

	_, rightIsLit := outer.Right.(*ast.IntLit)
	assert.True(t, rightIsLit)
}

// TestErrorRecovery checks spec.md §8 property 3: a file with one syntactic
// error in the middle still yields AST for surrounding valid statements.
func TestErrorRecovery(t *testing.T) {
	file := source.New("<test>", []byte(`
fn a() { let x = 1; }
fn b( { let y = 2; }
fn c() { let z = 3; }
`))
	prog, errs := parser.Parse(file)

	assert.NotEmpty(t, errs)
	assert.GreaterOrEqual(t, len(prog.Decls), 2)

	names := map[string]bool{}
	for _, d := range prog.Decls {
		if fn, ok := d.(*ast.FnDecl); ok {
			names[fn.Name] = true
		}
	}

	assert.True(t, names["a"])
	assert.True(t, names["c"])
}

func TestTryPostfixAndCall(t *testing.T) {
	prog := parse(t, `fn f() { let x = read()?; return x + 1; }`)
	fn := prog.Decls[0].(*ast.FnDecl)
	let := fn.Body.Stmts[0].(*ast.LetDecl)

	tryExpr, ok := let.Init.(*ast.Try)
	assert.True(t, ok)

	_, calleeIsCall := tryExpr.Operand.(*ast.Call)
	assert.True(t, calleeIsCall)
}

func TestBorrowExpressions(t *testing.T) {
	prog := parse(t, `fn f() { let mut a = 1; let b = &a; let c = &mut a; }`)
	fn := prog.Decls[0].(*ast.FnDecl)

	bDecl := fn.Body.Stmts[1].(*ast.LetDecl)
	refExpr, ok := bDecl.Init.(*ast.Unary)
	assert.True(t, ok)
	assert.Equal(t, ast.OpRef, refExpr.Op)

	cDecl := fn.Body.Stmts[2].(*ast.LetDecl)
	mutRefExpr, ok := cDecl.Init.(*ast.Unary)
	assert.True(t, ok)
	assert.Equal(t, ast.OpMutRef, mutRefExpr.Op)
}

func TestWrongNumberOfArgumentsParsesFine(t *testing.T) {
	// Arity is a checker concern (spec.md §4.3), not a parser concern; the
	// parser must accept any argument count.
	prog := parse(t, `fn f(x: int) -> int { return x + 1 } fn main() { f(1, 2) }`)
	assert.Len(t, prog.Decls, 2)
}

func TestStructAndEnumDecl(t *testing.T) {
	prog := parse(t, `
struct Point { x: int, y: int }
enum Shape { Circle(int), Square }
`)
	assert.Len(t, prog.Decls, 2)

	sd, ok := prog.Decls[0].(*ast.StructDecl)
	assert.True(t, ok)
	assert.Len(t, sd.Fields, 2)

	ed, ok := prog.Decls[1].(*ast.EnumDecl)
	assert.True(t, ok)
	assert.Len(t, ed.Variants, 2)
}

func TestAsyncAwaitAccepted(t *testing.T) {
	prog := parse(t, `async fn f() { let x = await g(); }`)
	fn, ok := prog.Decls[0].(*ast.FnDecl)
	assert.True(t, ok)
	assert.True(t, fn.IsAsync)

	let := fn.Body.Stmts[0].(*ast.LetDecl)
	_, ok = let.Init.(*ast.Await)
	assert.True(t, ok)
}
