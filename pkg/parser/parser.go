// Package parser implements the Home language's Pratt/precedence-climbing
// expression parser and recursive-descent declaration/statement parser, per
// spec.md §4.2. It is grounded on the teacher's pkg/corset/compiler/parser.go
// (a method-per-production Parser struct threading an error list rather
// than aborting) and on clarete-langlang's "best-effort tree plus error
// list" contract.
package parser

import (
	"fmt"

	"github.com/homelang/homec/pkg/ast"
	"github.com/homelang/homec/pkg/lexer"
	"github.com/homelang/homec/pkg/source"
	"github.com/homelang/homec/pkg/token"
)

// Parser holds the token stream and accumulates diagnostics as it parses,
// per spec.md §4.2's "best-effort AST plus error list" contract.
type Parser struct {
	file   *source.File
	arena  *ast.Arena
	tokens []token.Token
	pos    int
	Errors []source.Diagnostic
}

// Parse lexes and parses a full source file into a best-effort Program.
// Callers must inspect the returned diagnostics before trusting the
// Program, per spec.md §4.2's public contract.
func Parse(file *source.File) (*ast.Program, []source.Diagnostic) {
	tokens, lexErrs := lexer.Tokenize(file)
	p := &Parser{file: file, arena: ast.NewArena(), tokens: tokens, Errors: lexErrs}

	prog := ast.NewProgram(file)
	prog.Arena = p.arena

	for !p.atEnd() {
		before := p.pos
		decl := p.parseDeclaration()

		if decl != nil {
			prog.Decls = append(prog.Decls, decl)
		}
		// Guarantee forward progress even if a production consumed
		// nothing (defensive; every parseXxx path below advances on
		// both the happy path and its error path via synchronize).
		if p.pos == before {
			p.advance()
		}
	}

	return prog, p.Errors
}

// ---------------------------------------------------------------------------
// Token stream helpers
// ---------------------------------------------------------------------------

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // Eof
	}

	return p.tokens[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}

	return p.tokens[idx]
}

func (p *Parser) atEnd() bool {
	return p.cur().Kind == token.Eof
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}

	return t
}

func (p *Parser) check(k token.Kind) bool {
	return p.cur().Kind == k
}

func (p *Parser) match(k token.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}

	return false
}

// expect consumes a token of kind k, or records an UnexpectedToken
// diagnostic and returns the current token without consuming it (so the
// caller's synchronization logic decides how far to skip).
func (p *Parser) expect(k token.Kind, context string) token.Token {
	if p.check(k) {
		return p.advance()
	}

	tok := p.cur()
	p.errorf(tok.Span, source.KindUnexpectedToken,
		"expected %s %s, found %s", k, context, tok.Kind)

	return tok
}

func (p *Parser) errorf(span source.Span, kind source.Kind, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	p.Errors = append(p.Errors, source.New(kind, span, msg).WithFile(p.file))
}

// synchronize skips tokens until a likely statement boundary, so one bad
// line does not cascade into spurious follow-on errors, per spec.md §4.2.
func (p *Parser) synchronize() {
	p.advance()

	for !p.atEnd() {
		if p.tokens[p.pos-1].Kind == token.Semicolon {
			return
		}

		switch p.cur().Kind {
		case token.Fn, token.Let, token.Const, token.Struct, token.Enum,
			token.Import, token.Return, token.If, token.While, token.Loop, token.RBrace:
			return
		}

		p.advance()
	}
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

func (p *Parser) parseDeclaration() ast.Stmt {
	switch p.cur().Kind {
	case token.Fn:
		return p.parseFnDecl(false)
	case token.Async:
		if p.peekAt(1).Kind != token.Fn {
			return p.parseStatement()
		}

		start := p.cur().Span
		p.advance() // async

		decl := p.parseFnDecl(false).(*ast.FnDecl)
		decl.IsAsync = true
		decl.Span = source.NewSpan(start.Start, decl.Span.End)

		return decl
	case token.Comptime:
		return p.parseComptimeDecl()
	case token.Let, token.Const:
		return p.parseLetDecl(false)
	case token.Struct:
		return p.parseStructDecl()
	case token.Enum:
		return p.parseEnumDecl()
	case token.Import:
		return p.parseImportDecl()
	default:
		return p.parseStatement()
	}
}

func (p *Parser) parseComptimeDecl() ast.Stmt {
	p.advance() // comptime

	switch p.cur().Kind {
	case token.Let, token.Const:
		return p.parseLetDecl(true)
	case token.Fn:
		return p.parseFnDecl(true)
	default:
		tok := p.cur()
		p.errorf(tok.Span, source.KindUnexpectedToken,
			"expected 'let', 'const' or 'fn' after 'comptime', found %s", tok.Kind)
		p.synchronize()

		return nil
	}
}

func (p *Parser) parseFnDecl(isComptime bool) ast.Stmt {
	start := p.cur().Span
	p.advance() // fn

	isAsync := p.match(token.Async)

	name := p.expect(token.Identifier, "as function name").Lexeme

	generics := p.parseGenericsOpt()

	p.expect(token.LParen, "to begin parameter list")

	var params []ast.Param

	for !p.check(token.RParen) && !p.atEnd() {
		pstart := p.cur().Span
		pname := p.expect(token.Identifier, "as parameter name").Lexeme
		p.expect(token.Colon, "after parameter name")

		ptype := p.parseTypeName()
		params = append(params, ast.Param{Name: pname, Type: ptype, Span: pstart})

		if !p.match(token.Comma) {
			break
		}
	}

	p.expect(token.RParen, "to close parameter list")

	var ret *ast.TypeName
	if p.match(token.Arrow) {
		ret = p.parseTypeName()
	}

	body := p.parseBlock()
	isTest := name == "test" || (len(name) > 5 && name[:5] == "test_")

	decl := &ast.FnDecl{
		Name: name, Params: params, ReturnType: ret, Body: body,
		IsTest: isTest, IsAsync: isAsync, IsComptime: isComptime, Generics: generics,
	}
	decl.Span = source.NewSpan(start.Start, p.lastEnd())

	return decl
}

func (p *Parser) parseGenericsOpt() []ast.GenericParam {
	if !p.match(token.Lt) {
		return nil
	}

	var generics []ast.GenericParam

	for !p.check(token.Gt) && !p.atEnd() {
		name := p.expect(token.Identifier, "as generic parameter name").Lexeme

		var bound string
		if p.match(token.Colon) {
			bound = p.expect(token.Identifier, "as generic bound").Lexeme
		}

		generics = append(generics, ast.GenericParam{Name: name, Bound: bound})

		if !p.match(token.Comma) {
			break
		}
	}

	p.expect(token.Gt, "to close generic parameter list")

	return generics
}

func (p *Parser) parseLetDecl(isComptime bool) ast.Stmt {
	start := p.cur().Span
	isConst := p.cur().Kind == token.Const
	p.advance() // let | const

	mutable := p.match(token.Mut)
	name := p.expect(token.Identifier, "as binding name").Lexeme

	var typ *ast.TypeName
	if p.match(token.Colon) {
		typ = p.parseTypeName()
	}

	var init ast.Expr
	if p.match(token.Assign) {
		init = p.parseExpr()
	} else if isConst {
		p.errorf(p.cur().Span, source.KindUnexpectedToken, "const declaration requires an initializer")
	}

	p.match(token.Semicolon)

	decl := &ast.LetDecl{
		Name: name, Type: typ, Init: init, Mutable: mutable, IsConst: isConst, IsComptime: isComptime,
	}
	decl.Span = source.NewSpan(start.Start, p.lastEnd())

	return decl
}

func (p *Parser) parseStructDecl() ast.Stmt {
	start := p.cur().Span
	p.advance() // struct

	name := p.expect(token.Identifier, "as struct name").Lexeme
	p.expect(token.LBrace, "to begin struct body")

	var fields []ast.StructField

	for !p.check(token.RBrace) && !p.atEnd() {
		fname := p.expect(token.Identifier, "as field name").Lexeme
		p.expect(token.Colon, "after field name")
		ftype := p.parseTypeName()
		fields = append(fields, ast.StructField{Name: fname, Type: ftype})

		if !p.match(token.Comma) {
			break
		}
	}

	p.expect(token.RBrace, "to close struct body")

	decl := &ast.StructDecl{Name: name, Fields: fields}
	decl.Span = source.NewSpan(start.Start, p.lastEnd())

	return decl
}

func (p *Parser) parseEnumDecl() ast.Stmt {
	start := p.cur().Span
	p.advance() // enum

	name := p.expect(token.Identifier, "as enum name").Lexeme
	p.expect(token.LBrace, "to begin enum body")

	var variants []ast.EnumVariant

	for !p.check(token.RBrace) && !p.atEnd() {
		vname := p.expect(token.Identifier, "as variant name").Lexeme

		var fields []ast.StructField
		if p.match(token.LParen) {
			for !p.check(token.RParen) && !p.atEnd() {
				ftype := p.parseTypeName()
				fields = append(fields, ast.StructField{Type: ftype})

				if !p.match(token.Comma) {
					break
				}
			}

			p.expect(token.RParen, "to close variant payload")
		}

		variants = append(variants, ast.EnumVariant{Name: vname, Fields: fields})

		if !p.match(token.Comma) {
			break
		}
	}

	p.expect(token.RBrace, "to close enum body")

	decl := &ast.EnumDecl{Name: name, Variants: variants}
	decl.Span = source.NewSpan(start.Start, p.lastEnd())

	return decl
}

func (p *Parser) parseImportDecl() ast.Stmt {
	start := p.cur().Span
	p.advance() // import

	// The import path is lexed as dotted identifiers, e.g. `import a.b.c`.
	var path string

	path += p.expect(token.Identifier, "as import path").Lexeme
	for p.match(token.Dot) {
		path += "." + p.expect(token.Identifier, "in import path").Lexeme
	}

	p.match(token.Semicolon)

	decl := &ast.ImportDecl{Path: path}
	decl.Span = source.NewSpan(start.Start, p.lastEnd())

	return decl
}

// parseTypeName parses a type annotation: an identifier optionally followed
// by `{ T, ... }` generic/result arguments, or a leading `&`/`&mut`.
func (p *Parser) parseTypeName() *ast.TypeName {
	start := p.cur().Span

	isRef, isMutRef := false, false
	if p.match(token.Ampersand) {
		if p.match(token.Mut) {
			isMutRef = true
		} else {
			isRef = true
		}
	}

	name := p.expect(token.Identifier, "as type name").Lexeme

	// A `{` opens the argument list only when a type and then `,`, `}` or a
	// nested `{` follow it; otherwise it begins the body after a return type.
	next, after := p.peekAt(1).Kind, p.peekAt(2).Kind
	isArgs := next == token.Ampersand ||
		(next == token.Identifier && (after == token.Comma || after == token.RBrace || after == token.LBrace))

	var args []*ast.TypeName
	if p.check(token.LBrace) && isArgs {
		p.advance()

		for !p.check(token.RBrace) && !p.atEnd() {
			args = append(args, p.parseTypeName())

			if !p.match(token.Comma) {
				break
			}
		}

		p.expect(token.RBrace, "to close type argument list")
	}

	end := p.lastEnd()
	if end < start.Start {
		end = start.Start // nothing consumed: the type name is missing
	}

	tn := &ast.TypeName{Name: name, Args: args, IsRef: isRef, IsMutRef: isMutRef}
	tn.Span = source.NewSpan(start.Start, end)

	return tn
}

// lastEnd returns the end offset of the most recently consumed token, for
// stamping a just-finished node's span.
func (p *Parser) lastEnd() int {
	if p.pos == 0 {
		return 0
	}

	return p.tokens[p.pos-1].Span.End
}
