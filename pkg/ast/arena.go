package ast

// Arena is a bump-pointer region allocator for AST nodes belonging to one
// Program, per spec.md §3's "Arena-allocated AST and tokens live as long as
// the containing Program" invariant and §9's design note ("use an arena
// with owning parent pointers and non-owning child references"). Nodes are
// stored in fixed-size chunks so that a pointer returned by Alloc is never
// invalidated by a later allocation (a plain growing []T would reallocate
// and dangle existing pointers into it).
//
// go-corset has no equivalent arena type (its AST nodes are plain
// heap-allocated pointers collected by the Go GC); this file is therefore
// newly authored against stdlib only, as recorded in DESIGN.md.
type Arena struct {
	chunks [][]any
	used   []int
}

const chunkSize = 256

// NewArena constructs an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Alloc stores v in the arena and returns a stable pointer to the stored
// copy. The pointer remains valid for the lifetime of the Arena.
func Alloc[T any](a *Arena, v T) *T {
	if len(a.chunks) == 0 || a.used[len(a.used)-1] == chunkSize {
		a.chunks = append(a.chunks, make([]any, chunkSize))
		a.used = append(a.used, 0)
	}

	last := len(a.chunks) - 1
	idx := a.used[last]
	box := new(T)
	*box = v
	a.chunks[last][idx] = box
	a.used[last]++

	return box
}

// Size returns the number of nodes allocated so far, for diagnostics/tests.
func (a *Arena) Size() int {
	total := 0
	for _, n := range a.used {
		total += n
	}

	return total
}
