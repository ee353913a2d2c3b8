// Package types defines Home's tagged-variant Type and its equality rules,
// per spec.md §3: structural equality for primitives and function types,
// nominal equality by name for structs.
package types

import "strings"

// Kind tags the variant of a Type.
type Kind uint8

const (
	Int Kind = iota
	Float
	Bool
	String
	Void
	Function
	Struct
	Generic
	Result
	Reference
	MutableReference
	Unknown // sentinel for "could not be determined"; never escapes the checker
)

// Type is the tagged variant from spec.md §3.
type Type struct {
	Kind Kind
	// Function
	Params []Type
	Return *Type
	// Struct
	Name   string
	Fields []Field
	// Generic
	Bound string
	// Result
	Ok  *Type
	Err *Type
	// Reference / MutableReference
	Inner *Type
}

// Field is one named, typed struct field.
type Field struct {
	Name string
	Type Type
}

// Primitive constructors.
func NewInt() Type    { return Type{Kind: Int} }
func NewFloat() Type  { return Type{Kind: Float} }
func NewBool() Type   { return Type{Kind: Bool} }
func NewString() Type { return Type{Kind: String} }
func NewVoid() Type   { return Type{Kind: Void} }

// NewFunction constructs a Function type.
func NewFunction(params []Type, ret Type) Type {
	return Type{Kind: Function, Params: params, Return: &ret}
}

// NewStruct constructs a nominal Struct type.
func NewStruct(name string, fields []Field) Type {
	return Type{Kind: Struct, Name: name, Fields: fields}
}

// NewGeneric constructs a Generic type parameter reference.
func NewGeneric(name, bound string) Type {
	return Type{Kind: Generic, Name: name, Bound: bound}
}

// NewResult constructs a Result{ok, err} type.
func NewResult(ok, err Type) Type {
	return Type{Kind: Result, Ok: &ok, Err: &err}
}

// NewReference constructs a shared Reference{inner} type.
func NewReference(inner Type) Type {
	return Type{Kind: Reference, Inner: &inner}
}

// NewMutableReference constructs a MutableReference{inner} type.
func NewMutableReference(inner Type) Type {
	return Type{Kind: MutableReference, Inner: &inner}
}

// IsNumeric reports whether t is Int or Float, per spec.md §4.3's
// arithmetic typing rule.
func (t Type) IsNumeric() bool {
	return t.Kind == Int || t.Kind == Float
}

// IsCopy reports whether values of this type are copied rather than moved
// on use, per spec.md §4.4: "primitive types Int, Float, Bool are Copy".
func (t Type) IsCopy() bool {
	switch t.Kind {
	case Int, Float, Bool:
		return true
	default:
		return false
	}
}

// Equals implements the equality rule from spec.md §3: structural equality
// for primitives and function types, nominal equality by name for structs.
func Equals(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}

	switch a.Kind {
	case Int, Float, Bool, String, Void, Unknown:
		return true
	case Struct:
		return a.Name == b.Name
	case Generic:
		return a.Name == b.Name
	case Function:
		if len(a.Params) != len(b.Params) {
			return false
		}

		for i := range a.Params {
			if !Equals(a.Params[i], b.Params[i]) {
				return false
			}
		}

		return Equals(*a.Return, *b.Return)
	case Result:
		return Equals(*a.Ok, *b.Ok) && Equals(*a.Err, *b.Err)
	case Reference, MutableReference:
		return Equals(*a.Inner, *b.Inner)
	default:
		return false
	}
}

// String renders a Type for diagnostics, e.g. "int", "Result{int, string}",
// "&mut Foo".
func (t Type) String() string {
	switch t.Kind {
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Void:
		return "void"
	case Unknown:
		return "<unknown>"
	case Struct:
		return t.Name
	case Generic:
		if t.Bound != "" {
			return t.Name + ": " + t.Bound
		}

		return t.Name
	case Function:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}

		ret := "void"
		if t.Return != nil {
			ret = t.Return.String()
		}

		return "fn(" + strings.Join(parts, ", ") + ") -> " + ret
	case Result:
		return "Result{" + t.Ok.String() + ", " + t.Err.String() + "}"
	case Reference:
		return "&" + t.Inner.String()
	case MutableReference:
		return "&mut " + t.Inner.String()
	default:
		return "<?>"
	}
}
