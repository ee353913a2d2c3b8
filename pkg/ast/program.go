package ast

import "github.com/homelang/homec/pkg/source"

// Program is an ordered sequence of top-level statements and a reference to
// its owning source buffer, per spec.md §3. Arena is created with the
// Program, but the parser allocates nodes with plain Go allocation rather
// than through Alloc, so the nodes reachable from Decls are not stored in
// it.
type Program struct {
	File  *source.File
	Arena *Arena
	Decls []Stmt
}

// NewProgram constructs an empty program over the given source file.
func NewProgram(file *source.File) *Program {
	return &Program{File: file, Arena: NewArena()}
}
