// Package ast defines the tagged-variant expression and statement nodes of
// the Home language, per spec.md §3. Each case is a concrete struct
// implementing a small marker interface, mirroring the teacher's
// pkg/corset/ast.Expr interface-with-per-case-struct layout.
package ast

import "github.com/homelang/homec/pkg/source"

// Node is implemented by every AST node; it carries the node's source
// location, which spec.md §3 requires to be valid and non-nil on every
// node.
type Node interface {
	Loc() source.Span
}

// baseNode is embedded by every concrete node to provide Loc() without
// repeating the field and method on every case.
type baseNode struct {
	Span source.Span
}

// Loc returns this node's source span.
func (b baseNode) Loc() source.Span {
	return b.Span
}
