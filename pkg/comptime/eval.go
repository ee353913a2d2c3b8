package comptime

import (
	"github.com/homelang/homec/pkg/ast"
	"github.com/homelang/homec/pkg/source"
	"github.com/homelang/homec/pkg/types"
)

// maxDepth is the recursion depth limit spec.md §4.5 requires: "a simple
// depth limit (implementation may choose e.g. 1024 frames)".
const maxDepth = 1024

// Evaluator walks comptime-marked declarations and expressions, per
// spec.md §4.5. It is driven by pkg/check (any declaration marked CT, or
// any expression appearing where a constant is required, is submitted to
// Eval/EvalExpr); this package has no dependency back on pkg/check.
type Evaluator struct {
	file   *source.File
	global *scope
	fns    map[string]*ast.FnDecl
	depth  int
	Errors []source.Diagnostic
}

// Eval evaluates every comptime `let`/`const` in prog, in declaration
// order, populating and returning the persistent value store. A
// declaration whose initializer falls outside the restricted subset is
// skipped with a recorded diagnostic; evaluation continues with the rest.
func Eval(prog *ast.Program) (map[string]Value, []source.Diagnostic) {
	e := &Evaluator{file: prog.File, global: newScope(nil), fns: map[string]*ast.FnDecl{}}

	for _, decl := range prog.Decls {
		if fn, ok := decl.(*ast.FnDecl); ok && fn.IsComptime {
			e.fns[fn.Name] = fn
		}
	}

	for _, decl := range prog.Decls {
		let, ok := decl.(*ast.LetDecl)
		if !ok || !let.IsComptime {
			continue
		}

		if let.Init == nil {
			e.errorf(let.Loc(), source.KindCannotInferType, "comptime binding requires an initializer")
			continue
		}

		if v, ok := e.evalExpr(let.Init, e.global); ok {
			e.global.define(let.Name, v)
		}
	}

	return e.global.vars, e.Errors
}

// EvalExpr evaluates a single expression against the store accumulated by
// a prior Eval call, for call sites that need a constant outside of a
// comptime let — e.g. an array-size expression or a literal-folding site
// per spec.md §4.5.
func EvalExpr(store map[string]Value, fns map[string]*ast.FnDecl, file *source.File, expr ast.Expr) (Value, []source.Diagnostic) {
	root := &scope{vars: store}
	e := &Evaluator{file: file, global: root, fns: fns}
	v, _ := e.evalExpr(expr, root)

	return v, e.Errors
}

func (e *Evaluator) errorf(span source.Span, kind source.Kind, msg string) {
	e.Errors = append(e.Errors, source.New(kind, span, msg).WithFile(e.file))
}

func (e *Evaluator) evalExpr(expr ast.Expr, env *scope) (Value, bool) {
	switch x := expr.(type) {
	case *ast.IntLit:
		return intValue(x.Value), true
	case *ast.FloatLit:
		return floatValue(x.Value), true
	case *ast.StringLit:
		return stringValue(x.Value), true
	case *ast.BoolLit:
		return boolValue(x.Value), true
	case *ast.Ident:
		if v, ok := env.lookup(x.Name); ok {
			return v, true
		}

		e.errorf(x.Loc(), source.KindUndefinedVariable, "undefined compile-time constant "+x.Name)

		return Value{}, false
	case *ast.Binary:
		return e.evalBinary(x, env)
	case *ast.Unary:
		return e.evalUnary(x, env)
	case *ast.Block:
		v, flow, ok := e.evalBlock(x, env)
		if flow.returned {
			return flow.value, ok
		}

		return v, ok
	case *ast.If:
		v, flow, ok := e.evalIf(x, env)
		if flow.returned {
			return flow.value, ok
		}

		return v, ok
	case *ast.Call:
		return e.evalCall(x, env)
	default:
		e.errorf(expr.Loc(), source.KindUnsupportedFeature,
			"expression is not permitted in a compile-time constant")

		return Value{}, false
	}
}

func (e *Evaluator) evalUnary(x *ast.Unary, env *scope) (Value, bool) {
	v, ok := e.evalExpr(x.Operand, env)
	if !ok {
		return Value{}, false
	}

	switch x.Op {
	case ast.OpNot:
		if v.Kind != types.Bool {
			e.errorf(x.Loc(), source.KindInvalidOperation, "! requires a bool operand")
			return Value{}, false
		}

		return boolValue(!v.B), true
	case ast.OpNeg:
		if !v.isNumeric() {
			e.errorf(x.Loc(), source.KindInvalidOperation, "unary - requires a numeric operand")
			return Value{}, false
		}

		if v.Kind == types.Int {
			return intValue(-v.I), true
		}

		return floatValue(-v.F), true
	default:
		e.errorf(x.Loc(), source.KindUnsupportedFeature, "references are not permitted in a compile-time constant")
		return Value{}, false
	}
}

func (e *Evaluator) evalBinary(x *ast.Binary, env *scope) (Value, bool) {
	left, ok := e.evalExpr(x.Left, env)
	if !ok {
		return Value{}, false
	}

	right, ok := e.evalExpr(x.Right, env)
	if !ok {
		return Value{}, false
	}

	switch x.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		return e.evalArithmetic(x, left, right)
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpLeq, ast.OpGt, ast.OpGeq:
		return e.evalComparison(x, left, right)
	case ast.OpAnd, ast.OpOr:
		return e.evalLogical(x, left, right)
	default:
		e.errorf(x.Loc(), source.KindUnsupportedFeature, "assignment is not permitted in a compile-time constant")
		return Value{}, false
	}
}

func (e *Evaluator) evalArithmetic(x *ast.Binary, left, right Value) (Value, bool) {
	if !left.isNumeric() || !right.isNumeric() {
		e.errorf(x.Loc(), source.KindInvalidOperation, "arithmetic requires numeric operands")
		return Value{}, false
	}

	if left.Kind == types.Int && right.Kind == types.Int {
		switch x.Op {
		case ast.OpAdd:
			return intValue(left.I + right.I), true
		case ast.OpSub:
			return intValue(left.I - right.I), true
		case ast.OpMul:
			return intValue(left.I * right.I), true
		case ast.OpDiv:
			if right.I == 0 {
				e.errorf(x.Loc(), source.KindInvalidOperation, "division by zero")
				return Value{}, false
			}

			return intValue(left.I / right.I), true
		case ast.OpMod:
			if right.I == 0 {
				e.errorf(x.Loc(), source.KindInvalidOperation, "division by zero")
				return Value{}, false
			}

			return intValue(left.I % right.I), true
		}
	}

	l, r := left.asFloat(), right.asFloat()

	switch x.Op {
	case ast.OpAdd:
		return floatValue(l + r), true
	case ast.OpSub:
		return floatValue(l - r), true
	case ast.OpMul:
		return floatValue(l * r), true
	case ast.OpDiv:
		return floatValue(l / r), true
	default:
		e.errorf(x.Loc(), source.KindInvalidOperation, "% requires integer operands")
		return Value{}, false
	}
}

func (e *Evaluator) evalComparison(x *ast.Binary, left, right Value) (Value, bool) {
	if left.isNumeric() && right.isNumeric() {
		l, r := left.asFloat(), right.asFloat()

		switch x.Op {
		case ast.OpEq:
			return boolValue(l == r), true
		case ast.OpNeq:
			return boolValue(l != r), true
		case ast.OpLt:
			return boolValue(l < r), true
		case ast.OpLeq:
			return boolValue(l <= r), true
		case ast.OpGt:
			return boolValue(l > r), true
		case ast.OpGeq:
			return boolValue(l >= r), true
		}
	}

	if left.Kind != right.Kind {
		e.errorf(x.Loc(), source.KindInvalidOperation, "comparison requires operands of the same type")
		return Value{}, false
	}

	switch x.Op {
	case ast.OpEq:
		return boolValue(left == right), true
	case ast.OpNeq:
		return boolValue(left != right), true
	default:
		e.errorf(x.Loc(), source.KindInvalidOperation, "ordering comparison requires numeric operands")
		return Value{}, false
	}
}

func (e *Evaluator) evalLogical(x *ast.Binary, left, right Value) (Value, bool) {
	if left.Kind != types.Bool || right.Kind != types.Bool {
		e.errorf(x.Loc(), source.KindInvalidOperation, "logical operators require bool operands")
		return Value{}, false
	}

	if x.Op == ast.OpAnd {
		return boolValue(left.B && right.B), true
	}

	return boolValue(left.B || right.B), true
}

// flowSignal propagates an in-progress `return` out of nested blocks/ifs
// during comptime evaluation, since Go's own return can't cross the
// recursive evalBlock/evalIf boundary without one.
type flowSignal struct {
	returned bool
	value    Value
}

func (e *Evaluator) evalBlock(b *ast.Block, parent *scope) (Value, flowSignal, bool) {
	env := newScope(parent)

	result := voidValue()

	for _, stmt := range b.Stmts {
		v, flow, ok := e.evalStmt(stmt, env)
		if !ok {
			return Value{}, flowSignal{}, false
		}

		if flow.returned {
			return Value{}, flow, true
		}

		result = v
	}

	return result, flowSignal{}, true
}

func (e *Evaluator) evalStmt(stmt ast.Stmt, env *scope) (Value, flowSignal, bool) {
	switch s := stmt.(type) {
	case *ast.LetDecl:
		if s.Init == nil {
			e.errorf(s.Loc(), source.KindCannotInferType, "compile-time binding requires an initializer")
			return Value{}, flowSignal{}, false
		}

		v, ok := e.evalExpr(s.Init, env)
		if !ok {
			return Value{}, flowSignal{}, false
		}

		env.define(s.Name, v)

		return voidValue(), flowSignal{}, true
	case *ast.ReturnStmt:
		if s.Value == nil {
			return Value{}, flowSignal{returned: true, value: voidValue()}, true
		}

		v, ok := e.evalExpr(s.Value, env)
		if !ok {
			return Value{}, flowSignal{}, false
		}

		return Value{}, flowSignal{returned: true, value: v}, true
	case *ast.IfStmt:
		_, flow, ok := e.evalIf(s.If, env)
		return voidValue(), flow, ok
	case *ast.ExprStmt:
		v, ok := e.evalExpr(s.Expr, env)
		return v, flowSignal{}, ok
	case *ast.BlockStmt:
		return e.evalBlock(s.Block, env)
	default:
		e.errorf(stmt.Loc(), source.KindUnsupportedFeature, "statement is not permitted in a compile-time constant")
		return Value{}, flowSignal{}, false
	}
}

func (e *Evaluator) evalIf(x *ast.If, env *scope) (Value, flowSignal, bool) {
	cond, ok := e.evalExpr(x.Cond, env)
	if !ok {
		return Value{}, flowSignal{}, false
	}

	if cond.Kind != types.Bool {
		e.errorf(x.Cond.Loc(), source.KindInvalidOperation, "if condition must be bool")
		return Value{}, flowSignal{}, false
	}

	if cond.B {
		return e.evalBlock(x.Then, env)
	}

	if x.Else == nil {
		return voidValue(), flowSignal{}, true
	}

	return e.evalBlock(x.Else, env)
}

func (e *Evaluator) evalCall(x *ast.Call, env *scope) (Value, bool) {
	ident, ok := x.Callee.(*ast.Ident)
	if !ok {
		e.errorf(x.Loc(), source.KindUnsupportedFeature, "only direct calls to named functions are permitted")
		return Value{}, false
	}

	fn, known := e.fns[ident.Name]
	if !known {
		e.errorf(x.Loc(), source.KindUndefinedFunction, ident.Name+" is not a compile-time function")
		return Value{}, false
	}

	if len(x.Args) != len(fn.Params) {
		e.errorf(x.Loc(), source.KindWrongNumberOfArguments, "wrong number of arguments to "+ident.Name)
		return Value{}, false
	}

	if e.depth >= maxDepth {
		e.errorf(x.Loc(), source.KindUnsupportedFeature, "compile-time recursion depth limit exceeded")
		return Value{}, false
	}

	args := make([]Value, len(x.Args))

	for i, a := range x.Args {
		v, ok := e.evalExpr(a, env)
		if !ok {
			return Value{}, false
		}

		args[i] = v
	}

	call := newScope(e.global)
	for i, p := range fn.Params {
		call.define(p.Name, args[i])
	}

	e.depth++
	v, flow, ok := e.evalBlock(fn.Body, call)
	e.depth--

	if !ok {
		return Value{}, false
	}

	if flow.returned {
		return flow.value, true
	}

	return v, true
}
