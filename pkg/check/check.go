// Package check implements Home's two-pass type checker, per spec.md §4.3:
// a signature-collection pass so forward references between functions work,
// then a statement/expression pass walking a lexical environment stack. It
// is grounded on the teacher's pkg/corset/compiler/typing.go and
// resolver.go, which likewise separate a forward-declaration pass from a
// full expression walk and accumulate a []SyntaxError rather than aborting
// on the first failure.
package check

import (
	"github.com/homelang/homec/pkg/ast"
	"github.com/homelang/homec/pkg/comptime"
	"github.com/homelang/homec/pkg/source"
	"github.com/homelang/homec/pkg/types"
)

// Checker walks a Program's AST twice, per spec.md §4.3. Errors accumulate
// in Errors rather than aborting the walk, matching spec.md §4.3's "never
// aborts... records and continues" contract.
type Checker struct {
	file     *source.File
	structs  map[string]types.Type
	enums    map[string]types.Type
	ctValues map[string]comptime.Value
	Errors   []source.Diagnostic
}

// Check runs both passes over prog and returns every accumulated
// diagnostic. The caller decides whether to proceed to pkg/ownership and
// pkg/codegen based on whether any are errors (spec.md §7's propagation
// policy).
func Check(prog *ast.Program) []source.Diagnostic {
	c := &Checker{
		file:    prog.File,
		structs: map[string]types.Type{},
		enums:   map[string]types.Type{},
	}

	global := types.NewGlobalEnvironment()

	// Every comptime-marked declaration is submitted to pkg/comptime here,
	// per spec.md §4.5: "any declaration marked CT … is submitted to the
	// evaluator … cached in the value store for the remainder of the
	// compilation." checkLetDecl below consults the resulting store for
	// comptime bindings the type-level pass alone cannot resolve.
	ctValues, ctDiags := comptime.Eval(prog)
	c.ctValues = ctValues
	c.Errors = append(c.Errors, ctDiags...)

	c.collectTypeDecls(prog)
	c.collectSignatures(prog, global)
	c.checkTopLevelLets(prog, global)
	c.checkBodies(prog, global)

	return c.Errors
}

// checkTopLevelLets type-checks top-level `let`/`comptime let` bindings and
// defines them directly on global, in declaration order, so later
// declarations (and every function body) can reference them by name —
// the same order pkg/comptime's own Eval pass uses for its value store.
func (c *Checker) checkTopLevelLets(prog *ast.Program, global *types.Environment) {
	for _, decl := range prog.Decls {
		if let, ok := decl.(*ast.LetDecl); ok {
			c.checkLetDecl(let, global)
		}
	}
}

func (c *Checker) errorf(span source.Span, kind source.Kind, msg string) {
	d := source.New(kind, span, msg).WithFile(c.file)
	if s := suggestionFor(kind); s != "" {
		d = d.WithSuggestion(s)
	}

	c.Errors = append(c.Errors, d)
}

func (c *Checker) typeMismatch(span source.Span, expected, actual types.Type) {
	d := source.New(source.KindTypeMismatch, span, "type mismatch").
		WithFile(c.file).
		WithTypes(expected.String(), actual.String())
	if s := suggestionFor(source.KindTypeMismatch); s != "" {
		d = d.WithSuggestion(s)
	}

	c.Errors = append(c.Errors, d)
}

// ---------------------------------------------------------------------------
// Pass 0 — struct/enum declarations (needed before signatures can resolve
// parameter/return types that name them).
// ---------------------------------------------------------------------------

func (c *Checker) collectTypeDecls(prog *ast.Program) {
	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *ast.StructDecl:
			fields := make([]types.Field, 0, len(d.Fields))
			for _, f := range d.Fields {
				fields = append(fields, types.Field{Name: f.Name, Type: c.resolveTypeName(f.Type, nil)})
			}

			c.structs[d.Name] = types.NewStruct(d.Name, fields)
		case *ast.EnumDecl:
			// Enums are registered by name only; variant payloads are not
			// checked, and no exhaustiveness checking is performed.
			c.enums[d.Name] = types.Type{Kind: types.Struct, Name: d.Name}
		}
	}
}

// resolveTypeName turns a parsed TypeName into a checked types.Type.
// generics, if non-nil, maps in-scope generic parameter names to their
// bound so `fn id<T>(x: T) -> T` resolves T to a Generic type rather than
// an undefined struct reference.
func (c *Checker) resolveTypeName(tn *ast.TypeName, generics map[string]string) types.Type {
	if tn == nil {
		return types.NewVoid()
	}

	inner := c.resolveBaseTypeName(tn, generics)

	switch {
	case tn.IsMutRef:
		return types.NewMutableReference(inner)
	case tn.IsRef:
		return types.NewReference(inner)
	default:
		return inner
	}
}

func (c *Checker) resolveBaseTypeName(tn *ast.TypeName, generics map[string]string) types.Type {
	switch tn.Name {
	case "int":
		return types.NewInt()
	case "float":
		return types.NewFloat()
	case "bool":
		return types.NewBool()
	case "string":
		return types.NewString()
	case "void":
		return types.NewVoid()
	case "Result":
		if len(tn.Args) == 2 {
			return types.NewResult(
				c.resolveTypeName(tn.Args[0], generics),
				c.resolveTypeName(tn.Args[1], generics),
			)
		}

		c.errorf(tn.Loc(), source.KindCannotInferType, "Result requires two type arguments {ok, err}")

		return types.Type{Kind: types.Unknown}
	default:
		if bound, ok := generics[tn.Name]; ok {
			return types.NewGeneric(tn.Name, bound)
		}

		if st, ok := c.structs[tn.Name]; ok {
			return st
		}

		if en, ok := c.enums[tn.Name]; ok {
			return en
		}

		c.errorf(tn.Loc(), source.KindUndefinedVariable, "undefined type "+tn.Name)

		return types.Type{Kind: types.Unknown}
	}
}

// ---------------------------------------------------------------------------
// Pass 1 — signature collection
// ---------------------------------------------------------------------------

func (c *Checker) collectSignatures(prog *ast.Program, global *types.Environment) {
	for _, decl := range prog.Decls {
		fn, ok := decl.(*ast.FnDecl)
		if !ok {
			continue
		}

		global.Define(fn.Name, c.signatureOf(fn))
	}
}

func (c *Checker) signatureOf(fn *ast.FnDecl) types.Type {
	generics := genericsMap(fn.Generics)

	params := make([]types.Type, 0, len(fn.Params))
	for _, p := range fn.Params {
		params = append(params, c.resolveTypeName(p.Type, generics))
	}

	ret := types.NewVoid()
	if fn.ReturnType != nil {
		ret = c.resolveTypeName(fn.ReturnType, generics)
	}

	return types.NewFunction(params, ret)
}

func genericsMap(gp []ast.GenericParam) map[string]string {
	if len(gp) == 0 {
		return nil
	}

	m := make(map[string]string, len(gp))
	for _, g := range gp {
		m[g.Name] = g.Bound
	}

	return m
}

// ---------------------------------------------------------------------------
// Pass 2 — statement/expression checking
// ---------------------------------------------------------------------------

func (c *Checker) checkBodies(prog *ast.Program, global *types.Environment) {
	for _, decl := range prog.Decls {
		if fn, ok := decl.(*ast.FnDecl); ok {
			c.checkFn(fn, global)
		}
	}
}

func (c *Checker) checkFn(fn *ast.FnDecl, global *types.Environment) {
	generics := genericsMap(fn.Generics)

	ret := types.NewVoid()
	if fn.ReturnType != nil {
		ret = c.resolveTypeName(fn.ReturnType, generics)
	}

	env := global.WithReturnType(ret)

	for _, p := range fn.Params {
		env.Define(p.Name, c.resolveTypeName(p.Type, generics))
	}

	c.checkBlock(fn.Body, env)
}

func (c *Checker) checkBlock(b *ast.Block, env *types.Environment) types.Type {
	child := env.Child()

	result := types.NewVoid()
	for _, stmt := range b.Stmts {
		result = c.checkStmt(stmt, child)
	}

	return result
}

// checkStmt checks one statement and, for ExprStmt, returns the expression's
// type so callers using a Block in expression position (if/else arms) see
// the value of its last statement, per spec.md §3's Block semantics.
func (c *Checker) checkStmt(stmt ast.Stmt, env *types.Environment) types.Type {
	switch s := stmt.(type) {
	case *ast.LetDecl:
		c.checkLetDecl(s, env)
	case *ast.ReturnStmt:
		c.checkReturnStmt(s, env)
	case *ast.IfStmt:
		c.checkIf(s.If, env)
	case *ast.BlockStmt:
		c.checkBlock(s.Block, env)
	case *ast.WhileStmt:
		cond := c.checkExpr(s.Cond, env)
		if cond.Kind != types.Bool && cond.Kind != types.Unknown {
			c.typeMismatch(s.Cond.Loc(), types.NewBool(), cond)
		}

		c.checkBlock(s.Body, env)
	case *ast.LoopStmt:
		c.checkBlock(s.Body, env)
	case *ast.ExprStmt:
		return c.checkExpr(s.Expr, env)
	case *ast.StructDecl, *ast.EnumDecl, *ast.ImportDecl, *ast.FnDecl:
		// Nested declarations are out of scope for the checked subset
		// (spec.md §4.2 only shows these at top level); silently accepted
		// as a no-op rather than flagged, since the parser already
		// produced a well-formed node.
	}

	return types.NewVoid()
}

func (c *Checker) checkLetDecl(decl *ast.LetDecl, env *types.Environment) {
	var declared *types.Type
	if decl.Type != nil {
		t := c.resolveTypeName(decl.Type, nil)
		declared = &t
	}

	var actual types.Type
	if decl.Init != nil {
		actual = c.checkExpr(decl.Init, env)
	} else if declared != nil {
		actual = *declared
	} else {
		c.errorf(decl.Loc(), source.KindCannotInferType,
			"cannot infer type of "+decl.Name+" without an initializer or annotation")
		actual = types.Type{Kind: types.Unknown}
	}

	// For a comptime binding the type-level pass left Unknown, fall back
	// to the kind pkg/comptime actually computed for it, per spec.md
	// §4.5's evaluator-driven typing.
	if decl.IsComptime && actual.Kind == types.Unknown {
		if v, ok := c.ctValues[decl.Name]; ok {
			actual = types.Type{Kind: v.Kind}
		}
	}

	if declared != nil && actual.Kind != types.Unknown && !types.Equals(*declared, actual) {
		c.typeMismatch(decl.Loc(), *declared, actual)
	}

	if declared != nil {
		env.Define(decl.Name, *declared)
	} else {
		env.Define(decl.Name, actual)
	}
}

func (c *Checker) checkReturnStmt(ret *ast.ReturnStmt, env *types.Environment) {
	want, _ := env.ReturnType()

	got := types.NewVoid()
	if ret.Value != nil {
		got = c.checkExpr(ret.Value, env)
	}

	if got.Kind != types.Unknown && !types.Equals(want, got) {
		c.typeMismatch(ret.Loc(), want, got)
	}
}

func (c *Checker) checkIf(ifExpr *ast.If, env *types.Environment) types.Type {
	cond := c.checkExpr(ifExpr.Cond, env)
	if cond.Kind != types.Bool && cond.Kind != types.Unknown {
		c.typeMismatch(ifExpr.Cond.Loc(), types.NewBool(), cond)
	}

	thenType := c.checkBlock(ifExpr.Then, env)

	if ifExpr.Else == nil {
		return types.NewVoid()
	}

	elseType := c.checkBlock(ifExpr.Else, env)
	if thenType.Kind != types.Unknown && elseType.Kind != types.Unknown && !types.Equals(thenType, elseType) {
		c.typeMismatch(ifExpr.Loc(), thenType, elseType)
	}

	return thenType
}
