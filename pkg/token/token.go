// Package token defines the lexical token kinds produced by pkg/lexer and
// consumed by pkg/parser, per spec.md §3's Token data model.
package token

import "github.com/homelang/homec/pkg/source"

// Kind classifies a Token. After Illegal and Eof, the constants are grouped
// as identifier and literals, keywords, then punctuation and operators.
type Kind uint8

const (
	// Illegal marks a byte the lexer could not classify; it is recovered
	// from by skipping the byte (spec.md §4.1).
	Illegal Kind = iota
	Eof

	Identifier
	IntLiteral
	FloatLiteral
	StringLiteral

	// Keywords
	Fn
	Let
	Const
	Mut
	If
	Else
	Return
	Struct
	Enum
	Match
	For
	While
	Loop
	Import
	Async
	Await
	Comptime
	True
	False

	// Punctuation
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Dot
	Colon
	Semicolon
	Arrow      // ->
	FatArrow   // =>
	Question   // ?
	Ampersand  // &
	AmpAmp     // &&
	Pipe       // |
	PipePipe   // ||
	Bang       // !
	Assign     // =
	Eq         // ==
	Neq        // !=
	Lt         // <
	Leq        // <=
	Gt         // >
	Geq        // >=
	Plus       // +
	Minus      // -
	Star       // *
	Slash      // /
	Percent    // %
)

// keywords maps the fixed keyword table from spec.md §3 to their Kind. "and"
// and "or" are recognised as aliases of && and || respectively.
var keywords = map[string]Kind{
	"fn":       Fn,
	"let":      Let,
	"const":    Const,
	"mut":      Mut,
	"if":       If,
	"else":     Else,
	"return":   Return,
	"struct":   Struct,
	"enum":     Enum,
	"match":    Match,
	"for":      For,
	"while":    While,
	"loop":     Loop,
	"import":   Import,
	"async":    Async,
	"await":    Await,
	"comptime": Comptime,
	"true":     True,
	"false":    False,
	"and":      AmpAmp,
	"or":       PipePipe,
}

// LookupIdent resolves an identifier-shaped lexeme to a keyword Kind, or
// Identifier if it is not a keyword.
func LookupIdent(lexeme string) Kind {
	if kind, ok := keywords[lexeme]; ok {
		return kind
	}

	return Identifier
}

// Token is a single lexical token: its kind, the source slice it was lexed
// from, and its position, per spec.md §3.
type Token struct {
	Kind    Kind
	Lexeme  string
	Span    source.Span
	Line    uint32
	Column  uint32
}

// String renders a token for debugging and error messages.
func (t Token) String() string {
	return t.Kind.String() + "(" + t.Lexeme + ")"
}

// String renders the name of a token Kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}

	return "unknown"
}

var kindNames = map[Kind]string{
	Illegal:       "illegal",
	Eof:           "eof",
	Identifier:    "identifier",
	IntLiteral:    "int-literal",
	FloatLiteral:  "float-literal",
	StringLiteral: "string-literal",
	Fn:            "fn", Let: "let", Const: "const", Mut: "mut",
	If: "if", Else: "else", Return: "return", Struct: "struct", Enum: "enum",
	Match: "match", For: "for", While: "while", Loop: "loop", Import: "import",
	Async: "async", Await: "await", Comptime: "comptime", True: "true", False: "false",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]",
	Comma: ",", Dot: ".", Colon: ":", Semicolon: ";", Arrow: "->", FatArrow: "=>",
	Question: "?", Ampersand: "&", AmpAmp: "&&", Pipe: "|", PipePipe: "||", Bang: "!",
	Assign: "=", Eq: "==", Neq: "!=", Lt: "<", Leq: "<=", Gt: ">", Geq: ">=",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
}

// IsKeyword reports whether kind is one of the reserved keyword kinds.
func (k Kind) IsKeyword() bool {
	return k >= Fn && k <= False
}
