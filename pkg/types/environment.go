package types

// Environment is a chained mapping from identifier to Type, per spec.md §3:
// "a child scope's lookup falls through to the parent." It mirrors the
// shape of the teacher's Scope/parent-pointer chaining
// (pkg/corset/compiler/scope.go) but is freshly authored over a flat
// map[string]Type, since Home has no module/column namespace to chain over
// — see DESIGN.md.
type Environment struct {
	parent *Environment
	vars   map[string]Type
	// returnType is the enclosing function's declared return type, used to
	// validate `return` statements and the try-postfix operator's error
	// propagation (spec.md §4.3). It is inherited from the parent scope
	// unless this scope is itself a function body's top scope.
	returnType *Type
}

// NewGlobalEnvironment constructs the root (append-only, per spec.md §3)
// environment for a compilation unit.
func NewGlobalEnvironment() *Environment {
	return &Environment{vars: make(map[string]Type)}
}

// Child creates a new scope nested within e. Per spec.md §3's invariant,
// the child is dropped in one step when its block ends; callers simply
// stop referencing it.
func (e *Environment) Child() *Environment {
	return &Environment{parent: e, vars: make(map[string]Type), returnType: e.returnType}
}

// WithReturnType returns a child scope carrying a new enclosing function
// return type, for validating `return` inside that function's body.
func (e *Environment) WithReturnType(ret Type) *Environment {
	child := e.Child()
	child.returnType = &ret

	return child
}

// ReturnType reports the nearest enclosing function's return type, if any.
func (e *Environment) ReturnType() (Type, bool) {
	if e.returnType == nil {
		return Type{}, false
	}

	return *e.returnType, true
}

// Define binds name to t in this scope. Per spec.md §3's "append-only
// during a single scope" invariant, Define does not allow shadowing within
// the same scope to go unnoticed by the caller: it reports whether name was
// already bound here (shadowing a parent binding is always fine).
func (e *Environment) Define(name string, t Type) (redefined bool) {
	_, redefined = e.vars[name]
	e.vars[name] = t

	return redefined
}

// Lookup walks this scope and its parents for name, per spec.md §3's
// chained-scope lookup rule.
func (e *Environment) Lookup(name string) (Type, bool) {
	for s := e; s != nil; s = s.parent {
		if t, ok := s.vars[name]; ok {
			return t, ok
		}
	}

	return Type{}, false
}

// LookupLocal reports whether name is bound directly in this scope, not
// searching parents.
func (e *Environment) LookupLocal(name string) (Type, bool) {
	t, ok := e.vars[name]
	return t, ok
}

// Names returns the names bound directly in this scope, in no particular
// order.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.vars))
	for n := range e.vars {
		names = append(names, n)
	}

	return names
}
