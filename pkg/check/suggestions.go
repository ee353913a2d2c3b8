package check

import "github.com/homelang/homec/pkg/source"

// suggestions is the fixed table spec.md §4.3 requires: "a suggestion
// string chosen from a fixed table". Kinds not present here get no
// suggestion.
var suggestions = map[source.Kind]string{
	source.KindTypeMismatch:           "ensure the value type matches the declared type",
	source.KindUndefinedVariable:      "check for a typo or a missing let declaration",
	source.KindUndefinedFunction:      "check for a typo or a missing fn declaration",
	source.KindWrongNumberOfArguments: "check the function's declared parameter list",
	source.KindInvalidOperation:       "this operator is not defined for these operand types",
	source.KindCannotInferType:        "add an explicit type annotation",
}

// suggestionFor looks up the fixed suggestion string for kind, if any.
func suggestionFor(kind source.Kind) string {
	return suggestions[kind]
}
