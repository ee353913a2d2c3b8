package codegen

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/homelang/homec/pkg/ast"
	"github.com/homelang/homec/pkg/comptime"
	"github.com/homelang/homec/pkg/source"
)

// maxLocals is the hard cap from spec.md §4.6: "TooManyVariables (hard cap
// 256 locals)".
const maxLocals = 256

// frame holds one function's name-to-slot map. A bitset marks each of the
// 256 possible slots as it is assigned; slots are handed out in order from
// nextID, and the bitset is not read back when allocating.
type frame struct {
	slots  map[string]int
	used   *bitset.BitSet
	nextID int
}

func newFrame() *frame {
	return &frame{slots: map[string]int{}, used: bitset.New(maxLocals)}
}

// errorReporter lets frame.alloc report diagnostics from either the byte
// emitter (Generator) or the GNU-as text emitter (AsmGenerator), which
// share no common base type but both carry an errorf of this shape.
type errorReporter interface {
	errorf(span source.Span, kind source.Kind, format string, args ...any)
}

// alloc assigns name the next free slot, or reports TooManyVariables if
// the function has already used all 256.
func (fr *frame) alloc(g errorReporter, name string, span source.Span) (int, bool) {
	if slot, ok := fr.slots[name]; ok {
		return slot, true
	}

	if fr.nextID >= maxLocals {
		g.errorf(span, source.KindTooManyVariables, "function exceeds the 256 local variable limit")
		return 0, false
	}

	slot := fr.nextID
	fr.nextID++
	fr.slots[name] = slot
	fr.used.Set(uint(slot))

	return slot, true
}

func (fr *frame) offset(slot int) int32 { return int32(8 * (slot + 1)) }

// Generator lowers a checked Program to x86-64 machine code, per spec.md
// §4.6. Callers must only run it once pkg/check and pkg/ownership report
// no errors.
type Generator struct {
	file      *source.File
	buf       *Buffer
	frame     *frame
	labelSeq  int
	exitLabel string
	ctValues  map[string]comptime.Value
	Errors    []source.Diagnostic
}

// Generate lowers every non-comptime function in prog and returns the
// resulting code buffer. main (if present) ends the program with the
// Linux exit(0) syscall rather than ret, per spec.md §4.6.
func Generate(prog *ast.Program) (*Buffer, []source.Diagnostic) {
	// pkg/check already ran comptime.Eval and would have reported any
	// evaluation diagnostics before codegen ever runs (spec.md §7's
	// propagation policy), so those diagnostics are not collected again
	// here — only the resulting value store is needed, to let a top-level
	// comptime constant referenced from a function body (pkg/check's
	// checkTopLevelLets pass admits these) resolve to its folded literal
	// below instead of a missing frame slot.
	ctValues, _ := comptime.Eval(prog)

	g := &Generator{file: prog.File, buf: NewBuffer(), ctValues: ctValues}

	for _, decl := range prog.Decls {
		fn, ok := decl.(*ast.FnDecl)
		if !ok || fn.IsComptime || fn.IsAsync {
			continue
		}

		g.genFn(fn)
	}

	g.buf.Resolve()

	return g.buf, g.Errors
}

func (g *Generator) errorf(span source.Span, kind source.Kind, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	g.Errors = append(g.Errors, source.New(kind, span, msg).WithFile(g.file))
}

func (g *Generator) label(prefix string) string {
	g.labelSeq++
	return fmt.Sprintf("%s_%d", prefix, g.labelSeq)
}

func fnLabel(name string) string { return "fn_" + name }

func (g *Generator) genFn(fn *ast.FnDecl) {
	g.frame = newFrame()
	g.buf.Label(fnLabel(fn.Name))

	g.buf.Push(RBP)
	g.buf.MovRegReg(RBP, RSP)

	for i, p := range fn.Params {
		slot, ok := g.frame.alloc(g, p.Name, fn.Loc())
		if !ok {
			return
		}
		// Incoming arguments are pushed by the caller in declaration order
		// (see genCall), so above the saved rbp (+0) and return address
		// (+8), argument i sits at +16 + 8*(n-1-i). The callee copies each
		// down into its own locals, per DESIGN.md's documented
		// calling-convention simplification (spec.md §4.6 does not itself
		// specify one).
		argOffset := int32(16 + 8*(len(fn.Params)-1-i))
		g.buf.LoadLocal(RAX, -argOffset)
		g.buf.StoreLocal(g.frame.offset(slot), RAX)
	}

	isMain := fn.Name == "main"

	prevExitLabel := g.exitLabel
	if isMain {
		g.exitLabel = g.label("main_exit")
	} else {
		g.exitLabel = ""
	}

	g.genBlockDiscard(fn.Body)

	if isMain {
		// main is the ELF entry point: rsp holds argc at process start, so
		// a bare ret would pop it into rip instead of returning to a
		// caller. Every return in main (explicit or falling off the end
		// of the body) jumps here instead of emitting a function epilogue.
		g.buf.Label(g.exitLabel)
		g.buf.MovImm64(RAX, 60)
		g.buf.Xor(RDI, RDI)
		g.buf.Syscall()

		g.exitLabel = prevExitLabel

		return
	}

	g.buf.MovRegReg(RSP, RBP)
	g.buf.Pop(RBP)
	g.buf.Ret()

	g.exitLabel = prevExitLabel
}

// genBlockDiscard generates every statement of a block used in statement
// position; the last expression statement's value (if any) is left in rax
// but otherwise unused by the caller.
func (g *Generator) genBlockDiscard(b *ast.Block) {
	for i, stmt := range b.Stmts {
		if i == len(b.Stmts)-1 {
			if es, ok := stmt.(*ast.ExprStmt); ok {
				g.genExpr(es.Expr)
				continue
			}
		}

		g.genStmt(stmt)
	}
}

func (g *Generator) genStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.LetDecl:
		g.genLetDecl(s)
	case *ast.ReturnStmt:
		if s.Value != nil {
			g.genExpr(s.Value)
		}

		if g.exitLabel != "" {
			// Inside main, a return must reach the exit(0) syscall, not a
			// bare ret (see genFn).
			g.buf.Jmp(g.exitLabel)
			return
		}

		g.buf.MovRegReg(RSP, RBP)
		g.buf.Pop(RBP)
		g.buf.Ret()
	case *ast.IfStmt:
		g.genIf(s.If)
	case *ast.BlockStmt:
		g.genBlockDiscard(s.Block)
	case *ast.WhileStmt:
		g.genWhile(s)
	case *ast.LoopStmt:
		g.genLoop(s)
	case *ast.ExprStmt:
		g.genExpr(s.Expr)
	default:
		g.errorf(stmt.Loc(), source.KindUnsupportedFeature, "statement form not supported by the code generator")
	}
}

func (g *Generator) genLetDecl(decl *ast.LetDecl) {
	if decl.Init != nil {
		g.genExpr(decl.Init)
	} else {
		g.buf.MovImm64(RAX, 0)
	}

	slot, ok := g.frame.alloc(g, decl.Name, decl.Loc())
	if !ok {
		return
	}

	g.buf.StoreLocal(g.frame.offset(slot), RAX)
}

func (g *Generator) genIf(ifExpr *ast.If) {
	g.genExpr(ifExpr.Cond)

	elseLabel := g.label("if_else")
	endLabel := g.label("if_end")

	g.buf.JumpIfZero(RAX, elseLabel)
	g.genBlockDiscard(ifExpr.Then)
	g.buf.Jmp(endLabel)
	g.buf.Label(elseLabel)

	if ifExpr.Else != nil {
		g.genBlockDiscard(ifExpr.Else)
	}

	g.buf.Label(endLabel)
}

func (g *Generator) genWhile(s *ast.WhileStmt) {
	startLabel := g.label("while_start")
	endLabel := g.label("while_end")

	g.buf.Label(startLabel)
	g.genExpr(s.Cond)
	g.buf.JumpIfZero(RAX, endLabel)
	g.genBlockDiscard(s.Body)
	g.buf.Jmp(startLabel)
	g.buf.Label(endLabel)
}

func (g *Generator) genLoop(s *ast.LoopStmt) {
	startLabel := g.label("loop_start")

	g.buf.Label(startLabel)
	g.genBlockDiscard(s.Body)
	g.buf.Jmp(startLabel)
}
