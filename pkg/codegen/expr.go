package codegen

import (
	"github.com/homelang/homec/pkg/ast"
	"github.com/homelang/homec/pkg/comptime"
	"github.com/homelang/homec/pkg/source"
	"github.com/homelang/homec/pkg/types"
)

// variadicIntrinsics mirrors pkg/check's list: spec.md §9 says the
// codegen only implements print partially ("argument evaluated, no actual
// I/O"); assert is given the same stub treatment per SPEC_FULL.md.
var variadicIntrinsics = map[string]bool{"print": true, "assert": true}

// genExpr lowers expr, leaving its value in rax, per spec.md §4.6:
// "Expression results land in rax."
func (g *Generator) genExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.IntLit:
		g.buf.MovImm64(RAX, e.Value)
	case *ast.BoolLit:
		v := int64(0)
		if e.Value {
			v = 1
		}

		g.buf.MovImm64(RAX, v)
	case *ast.Ident:
		if slot, ok := g.frame.slots[e.Name]; ok {
			g.buf.LoadLocal(RAX, g.frame.offset(slot))
			return
		}

		if v, ok := g.ctValues[e.Name]; ok {
			g.genComptimeValue(e.Loc(), v)
			return
		}

		g.errorf(e.Loc(), source.KindUndefinedVariable, "undefined variable "+e.Name)
	case *ast.Binary:
		g.genBinary(e)
	case *ast.Unary:
		g.genUnary(e)
	case *ast.Call:
		g.genCall(e)
	case *ast.Block:
		g.genBlockDiscard(e)
	case *ast.If:
		g.genIf(e)
	case *ast.FloatLit:
		g.errorf(expr.Loc(), source.KindUnsupportedFeature, "floating-point values are not supported by the code generator")
	case *ast.Try:
		g.errorf(expr.Loc(), source.KindUnsupportedFeature, "the try operator has no lowering in the code generator")
	case *ast.StructLit:
		g.errorf(expr.Loc(), source.KindUnsupportedFeature, "struct values have no runtime representation in the code generator")
	case *ast.FieldAccess:
		g.errorf(expr.Loc(), source.KindUnsupportedFeature, "field access has no runtime representation in the code generator")
	case *ast.IndexExpr:
		g.errorf(expr.Loc(), source.KindUnsupportedFeature, "indexing has no runtime representation in the code generator")
	case *ast.Macro:
		g.errorf(expr.Loc(), source.KindUnsupportedFeature, "macros are not expanded by the code generator")
	case *ast.Await:
		g.errorf(expr.Loc(), source.KindUnsupportedFeature, "async/await has no lowering in the code generator")
	default:
		g.errorf(expr.Loc(), source.KindUnsupportedFeature, "expression form not supported by the code generator")
	}
}

// genComptimeValue inlines a comptime-evaluated constant at its use site,
// folding it the same way an *ast.IntLit/*ast.BoolLit would be lowered,
// since pkg/comptime has already reduced it to a literal by the time
// codegen runs.
func (g *Generator) genComptimeValue(span source.Span, v comptime.Value) {
	switch v.Kind {
	case types.Int:
		g.buf.MovImm64(RAX, v.I)
	case types.Bool:
		n := int64(0)
		if v.B {
			n = 1
		}

		g.buf.MovImm64(RAX, n)
	default:
		g.errorf(span, source.KindUnsupportedFeature, "this compile-time constant's type has no runtime representation in the code generator")
	}
}

// genBinary implements spec.md §4.6's binary-operator protocol literally:
// "spill the right operand to the stack, recompute the left in rax, pop
// the right into rcx, and perform the operation."
func (g *Generator) genBinary(e *ast.Binary) {
	if e.Op == ast.OpAssign {
		g.genAssign(e)
		return
	}

	g.genExpr(e.Right)
	g.buf.Push(RAX)
	g.genExpr(e.Left)
	g.buf.Pop(RCX)

	switch e.Op {
	case ast.OpAdd:
		g.buf.Add(RAX, RCX)
	case ast.OpSub:
		g.buf.Sub(RAX, RCX)
	case ast.OpMul:
		g.buf.Imul(RAX, RCX)
	case ast.OpDiv:
		g.buf.Cqo()
		g.buf.Idiv(RCX)
	case ast.OpMod:
		g.buf.Cqo()
		g.buf.Idiv(RCX)
		g.buf.MovRegReg(RAX, RDX)
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpLeq, ast.OpGt, ast.OpGeq:
		g.genComparison(e.Op)
	case ast.OpAnd:
		g.buf.And(RAX, RCX)
	case ast.OpOr:
		g.buf.Or(RAX, RCX)
	default:
		g.errorf(e.Loc(), source.KindUnsupportedFeature, "operator not supported by the code generator")
	}
}

// genComparison renders a comparison's 0/1 result without a SETcc
// encoding: cmp, then a short straight-line true/false sequence whose
// byte lengths are fixed and known, so the branch offsets are computed
// directly rather than through the buffer's label/patch list.
func (g *Generator) genComparison(op ast.BinaryOp) {
	g.buf.Cmp(RAX, RCX)

	cc := ccFor(op)

	// false path: mov rax,0 ; jmp end   (10 + 5 = 15 bytes)
	// true path:  mov rax,1             (10 bytes)
	const falseLen = 10 + 5
	const trueLen = 10

	g.buf.emit(0x0F, byte(cc))
	g.buf.emitU32(uint32(falseLen))

	g.buf.MovImm64(RAX, 0)
	g.buf.emit(0xE9)
	g.buf.emitU32(uint32(trueLen))

	g.buf.MovImm64(RAX, 1)
}

func ccFor(op ast.BinaryOp) jccOp {
	switch op {
	case ast.OpEq:
		return jccEq
	case ast.OpNeq:
		return jccNeq
	case ast.OpLt:
		return jccLt
	case ast.OpLeq:
		return jccLeq
	case ast.OpGt:
		return jccGt
	default: // ast.OpGeq
		return jccGeq
	}
}

func (g *Generator) genAssign(e *ast.Binary) {
	ident, ok := e.Left.(*ast.Ident)
	if !ok {
		g.errorf(e.Loc(), source.KindUnsupportedFeature, "assignment target must be a plain variable")
		return
	}

	slot, known := g.frame.slots[ident.Name]
	if !known {
		g.errorf(e.Loc(), source.KindUndefinedVariable, "undefined variable "+ident.Name)
		return
	}

	g.genExpr(e.Right)
	g.buf.StoreLocal(g.frame.offset(slot), RAX)
}

func (g *Generator) genUnary(e *ast.Unary) {
	switch e.Op {
	case ast.OpNeg:
		g.genExpr(e.Operand)
		g.buf.Neg(RAX)
	case ast.OpNot:
		g.genExpr(e.Operand)
		g.buf.MovImm64(RCX, 1)
		g.buf.Xor(RAX, RCX)
	default: // OpRef, OpMutRef
		g.errorf(e.Loc(), source.KindUnsupportedFeature, "references have no runtime representation in this code generator")
	}
}

// genCall implements the generator's own calling convention (recorded in
// DESIGN.md): arguments are
// evaluated and pushed in left-to-right order, the callee copies them out
// of the caller's frame (see genFn), and the caller pops them back off
// after the call returns. The designated variadic intrinsics only
// evaluate their arguments (spec.md §9: "argument evaluated, no actual
// I/O") and otherwise leave rax as the last-evaluated argument's value.
func (g *Generator) genCall(e *ast.Call) {
	ident, ok := e.Callee.(*ast.Ident)
	if !ok {
		g.errorf(e.Loc(), source.KindUnsupportedFeature, "only direct calls to named functions are supported")
		return
	}

	if variadicIntrinsics[ident.Name] {
		for _, a := range e.Args {
			g.genExpr(a)
		}

		return
	}

	for _, a := range e.Args {
		g.genExpr(a)
		g.buf.Push(RAX)
	}

	g.buf.Call(fnLabel(ident.Name))

	if len(e.Args) > 0 {
		g.buf.AddImm32(RSP, int32(8*len(e.Args)))
	}
}
