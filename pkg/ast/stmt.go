package ast

import "github.com/homelang/homec/pkg/source"

// Stmt is the tagged variant of statement nodes from spec.md §3: LetDecl,
// FnDecl, ReturnStmt, IfStmt, BlockStmt, ExprStmt, plus struct/enum/import
// declarations.
type Stmt interface {
	Node
	stmtNode()
}

// TypeName is a parsed-but-unresolved type annotation, e.g. `int`,
// `Result{int, string}`, `&mut Foo`. The checker (pkg/check) resolves these
// into pkg/types.Type values; the parser only records the surface syntax.
type TypeName struct {
	baseNode
	// Name is the base name, e.g. "int", "Result", "Foo".
	Name string
	// Args holds generic/result type arguments, e.g. the {ok, err} pair
	// of a Result{ok, err} annotation.
	Args []*TypeName
	// IsRef / IsMutRef mark `&T` / `&mut T` annotations.
	IsRef, IsMutRef bool
}

// Param is one `name: Type` function parameter.
type Param struct {
	Name string
	Type *TypeName
	Span source.Span
}

// LetDecl is `let [mut] name [: T] [= expr]` or `const name [: T] = expr`,
// per spec.md §4.2. The two forms share one node; IsConst distinguishes
// them for the "const requires an initializer" rule decided in DESIGN.md.
type LetDecl struct {
	baseNode
	Name    string
	Type    *TypeName // nil if not annotated
	Init    Expr      // nil if not initialized
	Mutable bool
	IsConst bool
	// IsComptime marks a `comptime let`/`comptime const` binding that
	// must be resolved by pkg/comptime before type checking completes,
	// per spec.md §4.5.
	IsComptime bool
}

func (*LetDecl) stmtNode() {}

// FnDecl is `fn name(params) -> T { body }`, per spec.md §4.2.
type FnDecl struct {
	baseNode
	Name       string
	Params     []Param
	ReturnType *TypeName // nil means Void
	Body       *Block
	IsTest     bool
	IsAsync    bool
	IsComptime bool
	// Generics holds the parsed (but, per spec.md §1, uninstantiated)
	// generic parameter names and their bounds, e.g. `fn id<T: Copy>(...)`.
	Generics []GenericParam
}

func (*FnDecl) stmtNode() {}

// GenericParam is one `Name: Bound` entry in a generic function's
// parameter list. Bound may be empty if unconstrained.
type GenericParam struct {
	Name  string
	Bound string
}

// ReturnStmt is `return [expr]`.
type ReturnStmt struct {
	baseNode
	Value Expr // nil for a bare `return`
}

func (*ReturnStmt) stmtNode() {}

// IfStmt wraps an If expression used in statement position.
type IfStmt struct {
	baseNode
	If *If
}

func (*IfStmt) stmtNode() {}

// BlockStmt wraps a Block used in statement position, e.g. a bare `{ ... }`.
type BlockStmt struct {
	baseNode
	Block *Block
}

func (*BlockStmt) stmtNode() {}

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	baseNode
	Expr Expr
}

func (*ExprStmt) stmtNode() {}

// WhileStmt is `while cond { body }`.
type WhileStmt struct {
	baseNode
	Cond Expr
	Body *Block
}

func (*WhileStmt) stmtNode() {}

// LoopStmt is `loop { body }`, an unconditional loop.
type LoopStmt struct {
	baseNode
	Body *Block
}

func (*LoopStmt) stmtNode() {}

// StructField is one field of a StructDecl.
type StructField struct {
	Name string
	Type *TypeName
}

// StructDecl is `struct Name { field: Type, ... }`.
type StructDecl struct {
	baseNode
	Name   string
	Fields []StructField
}

func (*StructDecl) stmtNode() {}

// EnumVariant is one case of an EnumDecl, optionally carrying fields.
type EnumVariant struct {
	Name   string
	Fields []StructField
}

// EnumDecl is `enum Name { Variant, Variant2(Type), ... }`.
type EnumDecl struct {
	baseNode
	Name     string
	Variants []EnumVariant
}

func (*EnumDecl) stmtNode() {}

// ImportDecl is `import path`. The core only records the path and resolves
// its transitive closure for pkg/cache's key derivation (spec.md §4.8); it
// does not itself load or type-check the imported module's contents
// (loading source roots is a driver/package-manager concern, per spec.md
// §1's non-goals).
type ImportDecl struct {
	baseNode
	Path string
}

func (*ImportDecl) stmtNode() {}
