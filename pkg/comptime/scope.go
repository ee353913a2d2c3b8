package comptime

// scope is a chained comptime value-store frame, per spec.md §9's "stack
// of append-only mappings with a parent pointer" note. The outermost
// scope's vars map IS the Evaluator's persistent value store: spec.md
// §4.5 says results are "cached in the value store for the remainder of
// the compilation," so the root scope is never discarded.
type scope struct {
	parent *scope
	vars   map[string]Value
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: map[string]Value{}}
}

func (s *scope) lookup(name string) (Value, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[name]; ok {
			return v, ok
		}
	}

	return Value{}, false
}

func (s *scope) define(name string, v Value) {
	s.vars[name] = v
}
