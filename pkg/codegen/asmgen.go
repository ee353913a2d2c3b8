package codegen

import (
	"fmt"

	"github.com/homelang/homec/pkg/ast"
	"github.com/homelang/homec/pkg/comptime"
	"github.com/homelang/homec/pkg/elf"
	"github.com/homelang/homec/pkg/source"
	"github.com/homelang/homec/pkg/types"
)

// AsmGenerator renders the same lowering as Generator, but as GNU-as text
// lines instead of machine code bytes, for spec.md §4.7's kernel mode. It
// mirrors Generator's traversal exactly (same register discipline, same
// label numbering) rather than wrapping it, since the two outputs diverge at
// the instruction-encoding layer, not the control-flow layer.
type AsmGenerator struct {
	file      *source.File
	frame     *frame
	labelSeq  int
	exitLabel string
	ctValues  map[string]comptime.Value
	lines     []elf.KernelLine
	Errors    []source.Diagnostic
}

// GenerateAssembly lowers prog to a KernelProgram of GNU-as text, entry
// point "main" if present else the first emitted function.
func GenerateAssembly(prog *ast.Program) (elf.KernelProgram, []source.Diagnostic) {
	// See Generate's identical call: pkg/check already evaluated and
	// reported on comptime diagnostics, so only the value store is needed
	// here, to fold a top-level comptime constant at its use site.
	ctValues, _ := comptime.Eval(prog)

	g := &AsmGenerator{file: prog.File, ctValues: ctValues}
	entry := ""

	for _, decl := range prog.Decls {
		fn, ok := decl.(*ast.FnDecl)
		if !ok || fn.IsComptime || fn.IsAsync {
			continue
		}

		if entry == "" || fn.Name == "main" {
			entry = fnLabel(fn.Name)
		}

		g.genFn(fn)
	}

	return elf.KernelProgram{Entry: entry, Lines: g.lines}, g.Errors
}

func (g *AsmGenerator) errorf(span source.Span, kind source.Kind, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	g.Errors = append(g.Errors, source.New(kind, span, msg).WithFile(g.file))
}

func (g *AsmGenerator) emit(format string, args ...any) {
	g.lines = append(g.lines, elf.KernelLine{Instr: fmt.Sprintf(format, args...)})
}

func (g *AsmGenerator) label(name string) {
	g.lines = append(g.lines, elf.KernelLine{Label: name})
}

// newLabel returns the next numbered control-flow label (L1, L2, ...);
// prefix only names the label's role at the call site.
func (g *AsmGenerator) newLabel(prefix string) string {
	g.labelSeq++
	return elf.Label(g.labelSeq)
}

func (g *AsmGenerator) genFn(fn *ast.FnDecl) {
	g.frame = newFrame()
	g.label(fnLabel(fn.Name))

	g.emit("push %%rbp")
	g.emit("mov %%rsp, %%rbp")

	for i, p := range fn.Params {
		slot, ok := g.frame.alloc(g,p.Name, fn.Loc())
		if !ok {
			return
		}

		argOffset := 16 + 8*(len(fn.Params)-1-i)
		g.emit("mov %d(%%rbp), %%rax", argOffset)
		g.emit("mov %%rax, -%d(%%rbp)", g.frame.offset(slot))
	}

	isMain := fn.Name == "main"

	prevExitLabel := g.exitLabel
	if isMain {
		g.exitLabel = g.newLabel("main_exit")
	} else {
		g.exitLabel = ""
	}

	g.genBlock(fn.Body)

	if isMain {
		// main is the entry point: every return (explicit or falling off
		// the end of the body) must reach the exit(0) syscall below, not
		// an ordinary ret, since nothing called main.
		g.label(g.exitLabel)
		g.emit("mov $60, %%rax")
		g.emit("xor %%rdi, %%rdi")
		g.emit("syscall")

		g.exitLabel = prevExitLabel

		return
	}

	g.emit("mov %%rbp, %%rsp")
	g.emit("pop %%rbp")
	g.emit("ret")

	g.exitLabel = prevExitLabel
}

func (g *AsmGenerator) genBlock(b *ast.Block) {
	for _, stmt := range b.Stmts {
		g.genStmt(stmt)
	}
}

func (g *AsmGenerator) genStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.LetDecl:
		if s.Init != nil {
			g.genExpr(s.Init)
		} else {
			g.emit("mov $0, %%rax")
		}

		slot, ok := g.frame.alloc(g,s.Name, s.Loc())
		if !ok {
			return
		}

		g.emit("mov %%rax, -%d(%%rbp)", g.frame.offset(slot))
	case *ast.ReturnStmt:
		if s.Value != nil {
			g.genExpr(s.Value)
		}

		if g.exitLabel != "" {
			g.emit("jmp %s", g.exitLabel)
			return
		}

		g.emit("mov %%rbp, %%rsp")
		g.emit("pop %%rbp")
		g.emit("ret")
	case *ast.IfStmt:
		g.genIf(s.If)
	case *ast.BlockStmt:
		g.genBlock(s.Block)
	case *ast.WhileStmt:
		start := g.newLabel("while_start")
		end := g.newLabel("while_end")

		g.label(start)
		g.genExpr(s.Cond)
		g.emit("test %%rax, %%rax")
		g.emit("jz %s", end)
		g.genBlock(s.Body)
		g.emit("jmp %s", start)
		g.label(end)
	case *ast.LoopStmt:
		start := g.newLabel("loop_start")

		g.label(start)
		g.genBlock(s.Body)
		g.emit("jmp %s", start)
	case *ast.ExprStmt:
		g.genExpr(s.Expr)
	default:
		g.errorf(stmt.Loc(), source.KindUnsupportedFeature, "statement form not supported by the code generator")
	}
}

func (g *AsmGenerator) genIf(ifExpr *ast.If) {
	g.genExpr(ifExpr.Cond)

	elseLabel := g.newLabel("if_else")
	endLabel := g.newLabel("if_end")

	g.emit("test %%rax, %%rax")
	g.emit("jz %s", elseLabel)
	g.genBlock(ifExpr.Then)
	g.emit("jmp %s", endLabel)
	g.label(elseLabel)

	if ifExpr.Else != nil {
		g.genBlock(ifExpr.Else)
	}

	g.label(endLabel)
}

func (g *AsmGenerator) genExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.IntLit:
		g.emit("mov $%d, %%rax", e.Value)
	case *ast.BoolLit:
		v := 0
		if e.Value {
			v = 1
		}

		g.emit("mov $%d, %%rax", v)
	case *ast.Ident:
		if slot, ok := g.frame.slots[e.Name]; ok {
			g.emit("mov -%d(%%rbp), %%rax", g.frame.offset(slot))
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
		g.genBlock(e)
	case *ast.If:
		g.genIf(e)
	default:
		g.errorf(expr.Loc(), source.KindUnsupportedFeature, "expression form not supported by the code generator")
	}
}

// genComptimeValue mirrors Generator.genComptimeValue for the text
// emitter: a top-level comptime constant folds to its literal at every
// reference, since it never occupies a frame slot.
func (g *AsmGenerator) genComptimeValue(span source.Span, v comptime.Value) {
	switch v.Kind {
	case types.Int:
		g.emit("mov $%d, %%rax", v.I)
	case types.Bool:
		n := 0
		if v.B {
			n = 1
		}

		g.emit("mov $%d, %%rax", n)
	default:
		g.errorf(span, source.KindUnsupportedFeature, "this compile-time constant's type has no runtime representation in the code generator")
	}
}

func (g *AsmGenerator) genBinary(e *ast.Binary) {
	if e.Op == ast.OpAssign {
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
		g.emit("mov %%rax, -%d(%%rbp)", g.frame.offset(slot))

		return
	}

	g.genExpr(e.Right)
	g.emit("push %%rax")
	g.genExpr(e.Left)
	g.emit("pop %%rcx")

	switch e.Op {
	case ast.OpAdd:
		g.emit("add %%rcx, %%rax")
	case ast.OpSub:
		g.emit("sub %%rcx, %%rax")
	case ast.OpMul:
		g.emit("imul %%rcx, %%rax")
	case ast.OpDiv:
		g.emit("cqo")
		g.emit("idiv %%rcx")
	case ast.OpMod:
		g.emit("cqo")
		g.emit("idiv %%rcx")
		g.emit("mov %%rdx, %%rax")
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpLeq, ast.OpGt, ast.OpGeq:
		trueLabel := g.newLabel("cmp_true")
		endLabel := g.newLabel("cmp_end")

		g.emit("cmp %%rcx, %%rax")
		g.emit("%s %s", ccMnemonic(e.Op), trueLabel)
		g.emit("mov $0, %%rax")
		g.emit("jmp %s", endLabel)
		g.label(trueLabel)
		g.emit("mov $1, %%rax")
		g.label(endLabel)
	case ast.OpAnd:
		g.emit("and %%rcx, %%rax")
	case ast.OpOr:
		g.emit("or %%rcx, %%rax")
	default:
		g.errorf(e.Loc(), source.KindUnsupportedFeature, "operator not supported by the code generator")
	}
}

func ccMnemonic(op ast.BinaryOp) string {
	switch op {
	case ast.OpEq:
		return "je"
	case ast.OpNeq:
		return "jne"
	case ast.OpLt:
		return "jl"
	case ast.OpLeq:
		return "jle"
	case ast.OpGt:
		return "jg"
	default: // ast.OpGeq
		return "jge"
	}
}

func (g *AsmGenerator) genUnary(e *ast.Unary) {
	switch e.Op {
	case ast.OpNeg:
		g.genExpr(e.Operand)
		g.emit("neg %%rax")
	case ast.OpNot:
		g.genExpr(e.Operand)
		g.emit("xor $1, %%rax")
	default:
		g.errorf(e.Loc(), source.KindUnsupportedFeature, "references have no runtime representation in this code generator")
	}
}

func (g *AsmGenerator) genCall(e *ast.Call) {
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
		g.emit("push %%rax")
	}

	g.emit("call %s", fnLabel(ident.Name))

	if len(e.Args) > 0 {
		g.emit("add $%d, %%rsp", 8*len(e.Args))
	}
}
