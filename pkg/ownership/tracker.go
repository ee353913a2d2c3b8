package ownership

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/homelang/homec/pkg/ast"
	"github.com/homelang/homec/pkg/source"
)

// suggestions for the ownership-specific diagnostic kinds. Kept local to
// this package since spec.md §4.3's fixed suggestion table only covers
// the type checker's own error kinds.
var suggestions = map[source.Kind]string{
	source.KindUseAfterMove:             "this value was already moved; clone or borrow it instead",
	source.KindMultipleMutableBorrows:   "only one mutable borrow may be active at a time",
	source.KindBorrowWhileMutablyBorrow: "cannot borrow while a mutable borrow is active",
	source.KindMutBorrowWhileBorrowed:   "cannot mutably borrow while a shared borrow is active",
}

// binding is one tracked local's ownership record. id indexes into
// Tracker.bindings and the owning scope's declaredIDs bitset.
type binding struct {
	id        int
	state     State
	copyType  bool
	borrowOf  string // non-"" if this binding's value is &target/&mut target
	mutBorrow bool
}

// scope is one lexical block's bindings, per spec.md §9's "stack of
// append-only mappings with a parent pointer" note.
type scope struct {
	parent      *scope
	vars        map[string]*binding
	declaredIDs *bitset.BitSet
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: map[string]*binding{}, declaredIDs: bitset.New(64)}
}

func (s *scope) lookup(name string) *binding {
	for sc := s; sc != nil; sc = sc.parent {
		if b, ok := sc.vars[name]; ok {
			return b
		}
	}

	return nil
}

// Tracker walks a Program's function bodies checking move/borrow
// discipline, per spec.md §4.4. It is run after pkg/check has resolved
// types; see DESIGN.md for why it keeps its own lightweight Copy-inference
// rather than sharing pkg/check's *types.Environment directly.
type Tracker struct {
	file     *source.File
	bindings []*binding
	// returnsCopy maps a function name to whether its declared return
	// type is a Copy primitive, used to infer the Copy-ness of `let x =
	// f();` without re-running the full type checker.
	returnsCopy map[string]bool
	Errors      []source.Diagnostic
}

// Track runs the ownership analysis over prog and returns the accumulated
// diagnostics. Callers should only trust codegen output when this list,
// together with pkg/check's, is empty.
func Track(prog *ast.Program) []source.Diagnostic {
	tr := &Tracker{file: prog.File, returnsCopy: map[string]bool{}}

	for _, decl := range prog.Decls {
		if fn, ok := decl.(*ast.FnDecl); ok {
			tr.returnsCopy[fn.Name] = isCopyTypeName(fn.ReturnType)
		}
	}

	for _, decl := range prog.Decls {
		if fn, ok := decl.(*ast.FnDecl); ok {
			tr.trackFn(fn)
		}
	}

	return tr.Errors
}

func isCopyTypeName(tn *ast.TypeName) bool {
	if tn == nil || tn.IsRef || tn.IsMutRef {
		return false
	}

	switch tn.Name {
	case "int", "float", "bool":
		return true
	default:
		return false
	}
}

func (tr *Tracker) errorAt(span source.Span, kind source.Kind) {
	d := source.New(kind, span, string(kind)).WithFile(tr.file)
	if s := suggestions[kind]; s != "" {
		d = d.WithSuggestion(s)
	}

	tr.Errors = append(tr.Errors, d)
}

func (tr *Tracker) define(sc *scope, name string, copyType bool, borrowOf string, mutBorrow bool) {
	b := &binding{id: len(tr.bindings), state: State{Kind: Owned}, copyType: copyType, borrowOf: borrowOf, mutBorrow: mutBorrow}
	tr.bindings = append(tr.bindings, b)
	sc.vars[name] = b
	sc.declaredIDs.Set(uint(b.id))
}

func (tr *Tracker) trackFn(fn *ast.FnDecl) {
	root := newScope(nil)

	for _, p := range fn.Params {
		tr.define(root, p.Name, isCopyTypeName(p.Type), "", false)
	}

	tr.walkBlock(fn.Body, root)
}

// walkBlock walks a block's statements in a fresh child scope, then
// releases every borrow whose holder binding was declared directly in
// this scope, per spec.md §4.4's "end of the borrow's lexical scope"
// transition. Only the ids recorded in this scope's bitset are consulted,
// so release never touches bindings from enclosing scopes.
func (tr *Tracker) walkBlock(block *ast.Block, parent *scope) {
	sc := newScope(parent)

	for _, stmt := range block.Stmts {
		tr.walkStmt(stmt, sc)
	}

	tr.closeScope(sc)
}

func (tr *Tracker) closeScope(sc *scope) {
	for id, ok := sc.declaredIDs.NextSet(0); ok; id, ok = sc.declaredIDs.NextSet(id + 1) {
		b := tr.bindings[id]
		if b.borrowOf == "" {
			continue
		}

		target := sc.lookup(b.borrowOf)
		if target == nil {
			continue
		}

		op := OpEndBorrow
		if b.mutBorrow {
			op = OpEndMutBorrow
		}

		target.state, _, _ = Transition(target.state, op, target.copyType)
	}
}

func (tr *Tracker) walkStmt(stmt ast.Stmt, sc *scope) {
	switch s := stmt.(type) {
	case *ast.LetDecl:
		tr.walkLetDecl(s, sc)
	case *ast.ReturnStmt:
		if s.Value != nil {
			tr.walkExpr(s.Value, sc)
		}
	case *ast.IfStmt:
		tr.walkIf(s.If, sc)
	case *ast.BlockStmt:
		tr.walkBlock(s.Block, sc)
	case *ast.WhileStmt:
		tr.walkExpr(s.Cond, sc)
		tr.walkBlock(s.Body, sc)
	case *ast.LoopStmt:
		tr.walkBlock(s.Body, sc)
	case *ast.ExprStmt:
		tr.walkExpr(s.Expr, sc)
	}
}

func (tr *Tracker) walkIf(ifExpr *ast.If, sc *scope) {
	tr.walkExpr(ifExpr.Cond, sc)
	tr.walkBlock(ifExpr.Then, sc)

	if ifExpr.Else != nil {
		tr.walkBlock(ifExpr.Else, sc)
	}
}

func (tr *Tracker) walkLetDecl(decl *ast.LetDecl, sc *scope) {
	if decl.Init == nil {
		tr.define(sc, decl.Name, isCopyTypeName(decl.Type), "", false)
		return
	}

	if unary, ok := decl.Init.(*ast.Unary); ok && (unary.Op == ast.OpRef || unary.Op == ast.OpMutRef) {
		if ident, ok := unary.Operand.(*ast.Ident); ok {
			mutable := unary.Op == ast.OpMutRef
			tr.borrow(sc, ident.Name, mutable, unary.Loc())
			tr.define(sc, decl.Name, false, ident.Name, mutable)

			return
		}
	}

	tr.walkExpr(decl.Init, sc)
	tr.define(sc, decl.Name, tr.inferCopy(decl.Init, sc), "", false)
}

// walkExpr recursively applies OpRead to every bare identifier use and
// OpBorrow/OpMutBorrow to every `&x`/`&mut x` subexpression.
func (tr *Tracker) walkExpr(expr ast.Expr, sc *scope) {
	switch e := expr.(type) {
	case *ast.Ident:
		tr.read(sc, e.Name, e.Loc())
	case *ast.Binary:
		tr.walkExpr(e.Left, sc)
		tr.walkExpr(e.Right, sc)
	case *ast.Unary:
		if e.Op == ast.OpRef || e.Op == ast.OpMutRef {
			if ident, ok := e.Operand.(*ast.Ident); ok {
				tr.borrow(sc, ident.Name, e.Op == ast.OpMutRef, e.Loc())
				return
			}
		}

		tr.walkExpr(e.Operand, sc)
	case *ast.Call:
		if _, isIdent := e.Callee.(*ast.Ident); !isIdent {
			tr.walkExpr(e.Callee, sc)
		}

		for _, a := range e.Args {
			tr.walkExpr(a, sc)
		}
	case *ast.Macro:
		for _, a := range e.Args {
			tr.walkExpr(a, sc)
		}
	case *ast.Try:
		tr.walkExpr(e.Operand, sc)
	case *ast.Await:
		tr.walkExpr(e.Operand, sc)
	case *ast.Block:
		tr.walkBlock(e, sc)
	case *ast.If:
		tr.walkIf(e, sc)
	case *ast.StructLit:
		for _, f := range e.Fields {
			tr.walkExpr(f.Value, sc)
		}
	case *ast.FieldAccess:
		tr.walkExpr(e.Target, sc)
	case *ast.IndexExpr:
		tr.walkExpr(e.Target, sc)
		tr.walkExpr(e.Index, sc)
	}
}

func (tr *Tracker) read(sc *scope, name string, span source.Span) {
	b := sc.lookup(name)
	if b == nil {
		return // pkg/check already reports undefined variables
	}

	next, kind, failed := Transition(b.state, OpRead, b.copyType)
	if failed {
		tr.errorAt(span, kind)
		return
	}

	b.state = next
}

func (tr *Tracker) borrow(sc *scope, name string, mutable bool, span source.Span) {
	b := sc.lookup(name)
	if b == nil {
		return
	}

	op := OpBorrow
	if mutable {
		op = OpMutBorrow
	}

	next, kind, failed := Transition(b.state, op, b.copyType)
	if failed {
		tr.errorAt(span, kind)
		return
	}

	b.state = next
}

// inferCopy estimates whether expr's value is Copy, without re-running the
// full type checker. See DESIGN.md for why this is a deliberate, narrower
// duplicate of pkg/check's typing rules rather than a shared dependency.
func (tr *Tracker) inferCopy(expr ast.Expr, sc *scope) bool {
	switch e := expr.(type) {
	case *ast.IntLit, *ast.FloatLit, *ast.BoolLit:
		return true
	case *ast.StringLit:
		return false
	case *ast.Ident:
		if b := sc.lookup(e.Name); b != nil {
			return b.copyType
		}

		return false
	case *ast.Binary:
		if e.Op == ast.OpAssign {
			return tr.inferCopy(e.Right, sc)
		}

		return true // every other binary operator yields Int/Float/Bool
	case *ast.Unary:
		switch e.Op {
		case ast.OpNot, ast.OpNeg:
			return true
		default: // OpRef, OpMutRef
			return false
		}
	case *ast.Call:
		if ident, ok := e.Callee.(*ast.Ident); ok {
			return tr.returnsCopy[ident.Name]
		}

		return false
	default:
		return false
	}
}
