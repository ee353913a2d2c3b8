package check

import (
	"github.com/homelang/homec/pkg/ast"
	"github.com/homelang/homec/pkg/source"
	"github.com/homelang/homec/pkg/types"
)

// variadicIntrinsics marks the designated variadic intrinsic from spec.md §4.3:
// "a designated print function is treated as variadic." assert shares the
// same treatment per SPEC_FULL.md's supplemented-features decision.
var variadicIntrinsics = map[string]bool{"print": true, "assert": true}

func unknown() types.Type { return types.Type{Kind: types.Unknown} }

// checkExpr computes expr's type, recording diagnostics for any mismatch
// along the way. It never returns early on an error: callers keep walking
// sibling expressions so one bad subexpression does not hide the rest,
// matching spec.md §4.3's "records and continues" contract.
func (c *Checker) checkExpr(expr ast.Expr, env *types.Environment) types.Type {
	switch e := expr.(type) {
	case *ast.IntLit:
		return types.NewInt()
	case *ast.FloatLit:
		return types.NewFloat()
	case *ast.StringLit:
		return types.NewString()
	case *ast.BoolLit:
		return types.NewBool()
	case *ast.Ident:
		if t, ok := env.Lookup(e.Name); ok {
			return t
		}

		c.errorf(e.Loc(), source.KindUndefinedVariable, "undefined variable "+e.Name)

		return unknown()
	case *ast.Binary:
		return c.checkBinary(e, env)
	case *ast.Unary:
		return c.checkUnary(e, env)
	case *ast.Call:
		return c.checkCall(e, env)
	case *ast.Macro:
		for _, a := range e.Args {
			c.checkExpr(a, env)
		}
		// Macro expansion is out of the checked core (spec.md §1's
		// external-collaborators boundary); its type is only known once
		// expanded, so it is treated as Unknown without emitting an error.
		return unknown()
	case *ast.Try:
		return c.checkTry(e, env)
	case *ast.Await:
		// spec.md §9: await is parsed but never typed.
		c.checkExpr(e.Operand, env)
		return unknown()
	case *ast.Block:
		return c.checkBlock(e, env)
	case *ast.If:
		return c.checkIf(e, env)
	case *ast.StructLit:
		return c.checkStructLit(e, env)
	case *ast.FieldAccess:
		return c.checkFieldAccess(e, env)
	case *ast.IndexExpr:
		c.checkExpr(e.Target, env)
		c.checkExpr(e.Index, env)
		// Home's checked subset has no array/slice type (spec.md §3 lists
		// none); indexing is accepted syntactically but always Unknown.
		return unknown()
	default:
		return unknown()
	}
}

func (c *Checker) checkBinary(e *ast.Binary, env *types.Environment) types.Type {
	left := c.checkExpr(e.Left, env)
	right := c.checkExpr(e.Right, env)

	switch e.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		return c.checkArithmetic(e, left, right)
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpLeq, ast.OpGt, ast.OpGeq:
		return c.checkComparison(e, left, right)
	case ast.OpAnd, ast.OpOr:
		return c.checkLogical(e, left, right)
	case ast.OpAssign:
		if left.Kind != types.Unknown && right.Kind != types.Unknown && !types.Equals(left, right) {
			c.typeMismatch(e.Loc(), left, right)
		}

		return left
	default:
		return unknown()
	}
}

// checkArithmetic implements spec.md §4.3's promotion rule: both operands
// numeric, result Int if both Int, else Float.
func (c *Checker) checkArithmetic(e *ast.Binary, left, right types.Type) types.Type {
	if left.Kind == types.Unknown || right.Kind == types.Unknown {
		return unknown()
	}

	if !left.IsNumeric() || !right.IsNumeric() {
		c.errorf(e.Loc(), source.KindInvalidOperation, "arithmetic requires numeric operands")
		return unknown()
	}

	if left.Kind == types.Int && right.Kind == types.Int {
		return types.NewInt()
	}

	return types.NewFloat()
}

func (c *Checker) checkComparison(e *ast.Binary, left, right types.Type) types.Type {
	if left.Kind != types.Unknown && right.Kind != types.Unknown && !types.Equals(left, right) {
		c.errorf(e.Loc(), source.KindInvalidOperation, "comparison requires operands of the same type")
	}

	return types.NewBool()
}

func (c *Checker) checkLogical(e *ast.Binary, left, right types.Type) types.Type {
	if (left.Kind != types.Bool && left.Kind != types.Unknown) ||
		(right.Kind != types.Bool && right.Kind != types.Unknown) {
		c.errorf(e.Loc(), source.KindInvalidOperation, "logical operators require bool operands")
	}

	return types.NewBool()
}

func (c *Checker) checkUnary(e *ast.Unary, env *types.Environment) types.Type {
	operand := c.checkExpr(e.Operand, env)

	switch e.Op {
	case ast.OpNot:
		if operand.Kind != types.Bool && operand.Kind != types.Unknown {
			c.errorf(e.Loc(), source.KindInvalidOperation, "! requires a bool operand")
		}

		return types.NewBool()
	case ast.OpNeg:
		if !operand.IsNumeric() && operand.Kind != types.Unknown {
			c.errorf(e.Loc(), source.KindInvalidOperation, "unary - requires a numeric operand")
		}

		return operand
	case ast.OpRef:
		return types.NewReference(operand)
	case ast.OpMutRef:
		return types.NewMutableReference(operand)
	default:
		return unknown()
	}
}

func (c *Checker) checkCall(e *ast.Call, env *types.Environment) types.Type {
	ident, isIdent := e.Callee.(*ast.Ident)
	if !isIdent {
		c.checkExpr(e.Callee, env)

		for _, a := range e.Args {
			c.checkExpr(a, env)
		}

		return unknown()
	}

	callee, ok := env.Lookup(ident.Name)
	if !ok && variadicIntrinsics[ident.Name] {
		for _, a := range e.Args {
			c.checkExpr(a, env)
		}

		return types.NewVoid()
	}

	if !ok {
		c.errorf(ident.Loc(), source.KindUndefinedFunction, "undefined function "+ident.Name)

		for _, a := range e.Args {
			c.checkExpr(a, env)
		}

		return unknown()
	}

	if callee.Kind != types.Function {
		c.errorf(ident.Loc(), source.KindInvalidOperation, ident.Name+" is not callable")

		for _, a := range e.Args {
			c.checkExpr(a, env)
		}

		return unknown()
	}

	argTypes := make([]types.Type, len(e.Args))
	for i, a := range e.Args {
		argTypes[i] = c.checkExpr(a, env)
	}

	if variadicIntrinsics[ident.Name] {
		return *callee.Return
	}

	if len(argTypes) != len(callee.Params) {
		c.errorf(e.Loc(), source.KindWrongNumberOfArguments, "wrong number of arguments to "+ident.Name)

		return *callee.Return
	}

	for i, want := range callee.Params {
		got := argTypes[i]
		if got.Kind != types.Unknown && want.Kind != types.Generic && !types.Equals(want, got) {
			c.typeMismatch(e.Args[i].Loc(), want, got)
		}
	}

	return *callee.Return
}

// checkTry implements spec.md §4.3's try-postfix rule: operand must be
// Result{ok,err}; the expression's type is ok, and err must be compatible
// with the enclosing function's own Result return type.
func (c *Checker) checkTry(e *ast.Try, env *types.Environment) types.Type {
	operand := c.checkExpr(e.Operand, env)
	if operand.Kind == types.Unknown {
		return unknown()
	}

	if operand.Kind != types.Result {
		c.errorf(e.Loc(), source.KindInvalidOperation, "? requires a Result-typed operand")
		return unknown()
	}

	enclosing, ok := env.ReturnType()
	if !ok || enclosing.Kind != types.Result {
		c.errorf(e.Loc(), source.KindInvalidOperation,
			"? can only be used inside a function returning Result")

		return *operand.Ok
	}

	if !types.Equals(*enclosing.Err, *operand.Err) {
		c.typeMismatch(e.Loc(), *enclosing.Err, *operand.Err)
	}

	return *operand.Ok
}

func (c *Checker) checkStructLit(e *ast.StructLit, env *types.Environment) types.Type {
	st, ok := c.structs[e.Name]
	if !ok {
		c.errorf(e.Loc(), source.KindUndefinedVariable, "undefined struct "+e.Name)

		for _, f := range e.Fields {
			c.checkExpr(f.Value, env)
		}

		return unknown()
	}

	fieldTypes := make(map[string]types.Type, len(st.Fields))
	for _, f := range st.Fields {
		fieldTypes[f.Name] = f.Type
	}

	for _, init := range e.Fields {
		got := c.checkExpr(init.Value, env)

		want, known := fieldTypes[init.Name]
		if !known {
			c.errorf(e.Loc(), source.KindInvalidOperation, e.Name+" has no field "+init.Name)
			continue
		}

		if got.Kind != types.Unknown && !types.Equals(want, got) {
			c.typeMismatch(init.Value.Loc(), want, got)
		}
	}

	return st
}

func (c *Checker) checkFieldAccess(e *ast.FieldAccess, env *types.Environment) types.Type {
	target := c.checkExpr(e.Target, env)

	inner := target
	if inner.Kind == types.Reference || inner.Kind == types.MutableReference {
		inner = *inner.Inner
	}

	if inner.Kind != types.Struct {
		if inner.Kind != types.Unknown {
			c.errorf(e.Loc(), source.KindInvalidOperation, "field access requires a struct value")
		}

		return unknown()
	}

	for _, f := range inner.Fields {
		if f.Name == e.Field {
			return f.Type
		}
	}

	c.errorf(e.Loc(), source.KindInvalidOperation, inner.Name+" has no field "+e.Field)

	return unknown()
}
