// Package comptime implements Home's compile-time evaluator, per spec.md
// §4.5: a small tree-walking interpreter restricted to arithmetic/logical
// operators on literal-typed operands, comptime value-store lookups,
// if/else and blocks, and calls to pure functions whose bodies themselves
// satisfy the same restrictions. Grounded on breadchris-yaegi's
// interp.eval(node, env)-style recursive walk, cut down to the small
// restricted subset spec.md §4.5 names (yaegi itself interprets arbitrary
// Go; this evaluator deliberately does not).
package comptime

import "github.com/homelang/homec/pkg/types"

// Value is a comptime-evaluated result. Only the field matching Kind is
// meaningful.
type Value struct {
	Kind types.Kind
	I    int64
	F    float64
	B    bool
	S    string
}

func intValue(v int64) Value     { return Value{Kind: types.Int, I: v} }
func floatValue(v float64) Value { return Value{Kind: types.Float, F: v} }
func boolValue(v bool) Value     { return Value{Kind: types.Bool, B: v} }
func stringValue(v string) Value { return Value{Kind: types.String, S: v} }
func voidValue() Value           { return Value{Kind: types.Void} }

func (v Value) isNumeric() bool { return v.Kind == types.Int || v.Kind == types.Float }

// asFloat widens an Int or Float value to float64, for mixed arithmetic.
func (v Value) asFloat() float64 {
	if v.Kind == types.Int {
		return float64(v.I)
	}

	return v.F
}
