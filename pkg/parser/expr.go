package parser

import (
	"strconv"

	"github.com/homelang/homec/pkg/ast"
	"github.com/homelang/homec/pkg/source"
	"github.com/homelang/homec/pkg/token"
)

// parseExpr is the entry point of the Pratt/precedence-climbing expression
// parser, per spec.md §4.2's ladder (low to high): Assignment, Or, And,
// Equality, Comparison, Term, Factor, Unary, Call, Primary.
func (p *Parser) parseExpr() ast.Expr {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() ast.Expr {
	start := p.cur().Span
	left := p.parseOr()

	if p.match(token.Assign) {
		right := p.parseAssignment() // right-associative
		node := &ast.Binary{Op: ast.OpAssign, Left: left, Right: right}
		node.Span = source.NewSpan(start.Start, p.lastEnd())

		return node
	}

	return left
}

func (p *Parser) parseOr() ast.Expr {
	start := p.cur().Span
	left := p.parseAnd()

	for p.check(token.PipePipe) {
		p.advance()

		right := p.parseAnd()
		node := &ast.Binary{Op: ast.OpOr, Left: left, Right: right}
		node.Span = source.NewSpan(start.Start, p.lastEnd())
		left = node
	}

	return left
}

func (p *Parser) parseAnd() ast.Expr {
	start := p.cur().Span
	left := p.parseEquality()

	for p.check(token.AmpAmp) {
		p.advance()

		right := p.parseEquality()
		node := &ast.Binary{Op: ast.OpAnd, Left: left, Right: right}
		node.Span = source.NewSpan(start.Start, p.lastEnd())
		left = node
	}

	return left
}

func (p *Parser) parseEquality() ast.Expr {
	start := p.cur().Span
	left := p.parseComparison()

	for {
		var op ast.BinaryOp

		switch p.cur().Kind {
		case token.Eq:
			op = ast.OpEq
		case token.Neq:
			op = ast.OpNeq
		default:
			return left
		}

		p.advance()

		right := p.parseComparison()
		node := &ast.Binary{Op: op, Left: left, Right: right}
		node.Span = source.NewSpan(start.Start, p.lastEnd())
		left = node
	}
}

func (p *Parser) parseComparison() ast.Expr {
	start := p.cur().Span
	left := p.parseTerm()

	for {
		var op ast.BinaryOp

		switch p.cur().Kind {
		case token.Lt:
			op = ast.OpLt
		case token.Leq:
			op = ast.OpLeq
		case token.Gt:
			op = ast.OpGt
		case token.Geq:
			op = ast.OpGeq
		default:
			return left
		}

		p.advance()

		right := p.parseTerm()
		node := &ast.Binary{Op: op, Left: left, Right: right}
		node.Span = source.NewSpan(start.Start, p.lastEnd())
		left = node
	}
}

func (p *Parser) parseTerm() ast.Expr {
	start := p.cur().Span
	left := p.parseFactor()

	for {
		var op ast.BinaryOp

		switch p.cur().Kind {
		case token.Plus:
			op = ast.OpAdd
		case token.Minus:
			op = ast.OpSub
		default:
			return left
		}

		p.advance()

		right := p.parseFactor()
		node := &ast.Binary{Op: op, Left: left, Right: right}
		node.Span = source.NewSpan(start.Start, p.lastEnd())
		left = node
	}
}

func (p *Parser) parseFactor() ast.Expr {
	start := p.cur().Span
	left := p.parseUnary()

	for {
		var op ast.BinaryOp

		switch p.cur().Kind {
		case token.Star:
			op = ast.OpMul
		case token.Slash:
			op = ast.OpDiv
		case token.Percent:
			op = ast.OpMod
		default:
			return left
		}

		p.advance()

		right := p.parseUnary()
		node := &ast.Binary{Op: op, Left: left, Right: right}
		node.Span = source.NewSpan(start.Start, p.lastEnd())
		left = node
	}
}

func (p *Parser) parseUnary() ast.Expr {
	start := p.cur().Span

	switch p.cur().Kind {
	case token.Bang:
		p.advance()

		operand := p.parseUnary()
		node := &ast.Unary{Op: ast.OpNot, Operand: operand}
		node.Span = source.NewSpan(start.Start, p.lastEnd())

		return node
	case token.Minus:
		p.advance()

		operand := p.parseUnary()
		node := &ast.Unary{Op: ast.OpNeg, Operand: operand}
		node.Span = source.NewSpan(start.Start, p.lastEnd())

		return node
	case token.Ampersand:
		p.advance()

		op := ast.OpRef
		if p.match(token.Mut) {
			op = ast.OpMutRef
		}

		operand := p.parseUnary()
		node := &ast.Unary{Op: op, Operand: operand}
		node.Span = source.NewSpan(start.Start, p.lastEnd())

		return node
	default:
		return p.parsePostfix()
	}
}

// parsePostfix handles the Call-precedence postfixes: `f(a, b)`, `.field`,
// `[index]`, and the try-postfix `?` operator (spec.md §4.2/§4.3).
func (p *Parser) parsePostfix() ast.Expr {
	start := p.cur().Span
	expr := p.parsePrimary()

	for {
		switch p.cur().Kind {
		case token.LParen:
			expr = p.finishCall(expr, start)
		case token.Dot:
			p.advance()

			field := p.expect(token.Identifier, "as field name").Lexeme
			node := &ast.FieldAccess{Target: expr, Field: field}
			node.Span = source.NewSpan(start.Start, p.lastEnd())
			expr = node
		case token.LBracket:
			p.advance()

			index := p.parseExpr()
			p.expect(token.RBracket, "to close index expression")
			node := &ast.IndexExpr{Target: expr, Index: index}
			node.Span = source.NewSpan(start.Start, p.lastEnd())
			expr = node
		case token.Question:
			p.advance()

			node := &ast.Try{Operand: expr}
			node.Span = source.NewSpan(start.Start, p.lastEnd())
			expr = node
		default:
			return expr
		}
	}
}

func (p *Parser) finishCall(callee ast.Expr, start source.Span) ast.Expr {
	p.advance() // (

	var args []ast.Expr

	for !p.check(token.RParen) && !p.atEnd() {
		args = append(args, p.parseExpr())

		if !p.match(token.Comma) {
			break
		}
	}

	p.expect(token.RParen, "to close call argument list")

	node := &ast.Call{Callee: callee, Args: args}
	node.Span = source.NewSpan(start.Start, p.lastEnd())

	return node
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur()

	switch tok.Kind {
	case token.IntLiteral:
		p.advance()

		val, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			p.errorf(tok.Span, source.KindOverflow, "integer literal %q overflows 64 bits", tok.Lexeme)
		}

		node := &ast.IntLit{Value: val}
		node.Span = tok.Span

		return node
	case token.FloatLiteral:
		p.advance()

		val, _ := strconv.ParseFloat(tok.Lexeme, 64)
		node := &ast.FloatLit{Value: val}
		node.Span = tok.Span

		return node
	case token.StringLiteral:
		p.advance()

		node := &ast.StringLit{Value: unescapeString(tok.Lexeme)}
		node.Span = tok.Span

		return node
	case token.True, token.False:
		p.advance()

		node := &ast.BoolLit{Value: tok.Kind == token.True}
		node.Span = tok.Span

		return node
	case token.Identifier:
		return p.parseIdentOrStructLit()
	case token.LParen:
		p.advance()

		expr := p.parseExpr()
		p.expect(token.RParen, "to close grouped expression")

		return expr
	case token.If:
		return p.parseIfExpr()
	case token.LBrace:
		return p.parseBlock()
	case token.Await:
		p.advance()

		operand := p.parseUnary()
		node := &ast.Await{Operand: operand}
		node.Span = source.NewSpan(tok.Span.Start, p.lastEnd())

		return node
	default:
		p.errorf(tok.Span, source.KindUnexpectedToken, "unexpected token %s in expression", tok.Kind)
		p.advance()

		node := &ast.IntLit{Value: 0}
		node.Span = tok.Span

		return node
	}
}

// parseIdentOrStructLit disambiguates `Name` from `Name{ field: value, ... }`
// struct literal syntax by looking ahead for the `identifier :` field-init
// shape immediately inside the brace, so that `if x { ... }` is never
// mis-parsed as a struct literal condition.
func (p *Parser) parseIdentOrStructLit() ast.Expr {
	tok := p.advance()

	if p.check(token.LBrace) && p.peekAt(1).Kind == token.Identifier && p.peekAt(2).Kind == token.Colon {
		return p.finishStructLit(tok)
	}

	node := &ast.Ident{Name: tok.Lexeme}
	node.Span = tok.Span

	return node
}

func (p *Parser) finishStructLit(name token.Token) ast.Expr {
	p.advance() // {

	var fields []ast.FieldInit

	for !p.check(token.RBrace) && !p.atEnd() {
		fname := p.expect(token.Identifier, "as field name").Lexeme
		p.expect(token.Colon, "after field name")
		value := p.parseExpr()
		fields = append(fields, ast.FieldInit{Name: fname, Value: value})

		if !p.match(token.Comma) {
			break
		}
	}

	p.expect(token.RBrace, "to close struct literal")

	node := &ast.StructLit{Name: name.Lexeme, Fields: fields}
	node.Span = source.NewSpan(name.Span.Start, p.lastEnd())

	return node
}

func unescapeString(lexeme string) string {
	if len(lexeme) < 2 {
		return lexeme
	}

	inner := lexeme[1 : len(lexeme)-1]

	var out []byte

	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++

			switch inner[i] {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'r':
				out = append(out, '\r')
			case '"':
				out = append(out, '"')
			case '\\':
				out = append(out, '\\')
			default:
				out = append(out, '\\', inner[i])
			}

			continue
		}

		out = append(out, inner[i])
	}

	return string(out)
}
