// Package lexer turns Home source bytes into a token stream, per spec.md
// §4.1. It classifies keywords, punctuation, operators (by maximal munch),
// and literals, skipping whitespace and line comments. Unlike the teacher's
// generic scanner-combinator lexer (pkg/util/source/lex), this is a direct
// character-classifying scanner, because spec.md §4.1 describes direct
// classification ("a fixed keyword table", "maximal munch") rather than a
// rule-combinator pipeline — see DESIGN.md.
package lexer

import (
	"strings"

	"github.com/homelang/homec/pkg/source"
	"github.com/homelang/homec/pkg/token"
)

// Lexer streams tokens from a source file's bytes.
type Lexer struct {
	file   *source.File
	src    []byte
	offset int
	// Errors accumulates InvalidCharacter, UnterminatedString and Overflow
	// diagnostics. The lexer never aborts on one; an invalid byte becomes
	// an Illegal token and scanning continues, per spec.md §4.1's recovery
	// contract.
	Errors []source.Diagnostic
}

// New constructs a Lexer over the given source file.
func New(file *source.File) *Lexer {
	return &Lexer{file: file, src: file.Contents()}
}

// Tokenize runs the lexer to completion, returning every token in order,
// terminated by an Eof token.
func Tokenize(file *source.File) ([]token.Token, []source.Diagnostic) {
	l := New(file)

	var tokens []token.Token
	for {
		t := l.Next()
		tokens = append(tokens, t)

		if t.Kind == token.Eof {
			break
		}
	}

	return tokens, l.Errors
}

func (l *Lexer) peek() byte {
	if l.offset >= len(l.src) {
		return 0
	}

	return l.src[l.offset]
}

func (l *Lexer) peekAt(n int) byte {
	if l.offset+n >= len(l.src) {
		return 0
	}

	return l.src[l.offset+n]
}

func (l *Lexer) advance() byte {
	b := l.src[l.offset]
	l.offset++

	return b
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isAlpha(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isAlphaNum(b byte) bool {
	return isAlpha(b) || isDigit(b)
}

// Next returns the next token, advancing past it. Once Eof has been
// returned, subsequent calls keep returning Eof.
func (l *Lexer) Next() token.Token {
	l.skipWhitespaceAndComments()

	if l.offset >= len(l.src) {
		return l.make(token.Eof, l.offset, l.offset)
	}

	start := l.offset
	c := l.peek()

	switch {
	case isAlpha(c):
		return l.lexIdentifier(start)
	case isDigit(c):
		return l.lexNumber(start)
	case c == '"':
		return l.lexString(start)
	}

	return l.lexOperator(start)
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.offset < len(l.src) {
		c := l.peek()

		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.offset++
		case c == '/' && l.peekAt(1) == '/':
			for l.offset < len(l.src) && l.peek() != '\n' {
				l.offset++
			}
		default:
			return
		}
	}
}

func (l *Lexer) lexIdentifier(start int) token.Token {
	for l.offset < len(l.src) && isAlphaNum(l.peek()) {
		l.offset++
	}

	lexeme := string(l.src[start:l.offset])

	return l.make(token.LookupIdent(lexeme), start, l.offset)
}

func (l *Lexer) lexNumber(start int) token.Token {
	kind := token.IntLiteral

	for l.offset < len(l.src) && isDigit(l.peek()) {
		l.offset++
	}

	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		kind = token.FloatLiteral

		l.offset++ // consume '.'
		for l.offset < len(l.src) && isDigit(l.peek()) {
			l.offset++
		}
	}

	lexeme := string(l.src[start:l.offset])
	t := l.make(kind, start, l.offset)

	// Overflow detection (spec.md §4.2's parser-level Overflow failure mode
	// is surfaced here too, since the lexer is best positioned to notice a
	// literal with more digits than fit in 64 bits).
	if kind == token.IntLiteral && len(strings.TrimLeft(lexeme, "0")) > 19 {
		l.Errors = append(l.Errors, source.New(
			source.KindOverflow, t.Span, "integer literal overflows 64 bits").WithFile(l.file))
	}

	return t
}

func (l *Lexer) lexString(start int) token.Token {
	l.offset++ // consume opening quote

	for l.offset < len(l.src) && l.peek() != '"' {
		if l.peek() == '\\' && l.offset+1 < len(l.src) {
			l.offset += 2
		} else {
			l.offset++
		}
	}

	if l.offset >= len(l.src) {
		span := source.NewSpan(start, l.offset)
		l.Errors = append(l.Errors, source.New(
			source.KindUnterminatedString, span, "unterminated string literal").WithFile(l.file))

		return l.make(token.StringLiteral, start, l.offset)
	}

	l.offset++ // consume closing quote

	return l.make(token.StringLiteral, start, l.offset)
}

// twoByteOps lists the two-byte operators. They are tried before
// oneByteOps, so the longer match always wins (maximal munch), per
// spec.md §4.1.
var twoByteOps = map[string]token.Kind{
	"->": token.Arrow,
	"=>": token.FatArrow,
	"==": token.Eq,
	"!=": token.Neq,
	"<=": token.Leq,
	">=": token.Geq,
	"&&": token.AmpAmp,
	"||": token.PipePipe,
}

var oneByteOps = map[byte]token.Kind{
	'(': token.LParen, ')': token.RParen,
	'{': token.LBrace, '}': token.RBrace,
	'[': token.LBracket, ']': token.RBracket,
	',': token.Comma, '.': token.Dot, ':': token.Colon, ';': token.Semicolon,
	'?': token.Question, '&': token.Ampersand, '|': token.Pipe, '!': token.Bang,
	'=': token.Assign, '<': token.Lt, '>': token.Gt,
	'+': token.Plus, '-': token.Minus, '*': token.Star, '/': token.Slash, '%': token.Percent,
}

func (l *Lexer) lexOperator(start int) token.Token {
	if l.offset+1 < len(l.src) {
		two := string(l.src[l.offset : l.offset+2])
		if kind, ok := twoByteOps[two]; ok {
			l.offset += 2
			return l.make(kind, start, l.offset)
		}
	}

	c := l.advance()

	if kind, ok := oneByteOps[c]; ok {
		return l.make(kind, start, l.offset)
	}

	span := source.NewSpan(start, l.offset)
	l.Errors = append(l.Errors, source.New(
		source.KindInvalidCharacter, span, "invalid character").WithFile(l.file))

	return l.make(token.Illegal, start, l.offset)
}

func (l *Lexer) make(kind token.Kind, start, end int) token.Token {
	span := source.NewSpan(start, end)
	pos := l.file.Position(start)

	return token.Token{
		Kind:   kind,
		Lexeme: string(l.src[start:end]),
		Span:   span,
		Line:   pos.Line,
		Column: pos.Column,
	}
}
