package parser

import (
	"github.com/homelang/homec/pkg/ast"
	"github.com/homelang/homec/pkg/source"
	"github.com/homelang/homec/pkg/token"
)

// parseStatement parses one of: return, if, block, while, loop, or an
// expression statement, per spec.md §4.2.
func (p *Parser) parseStatement() ast.Stmt {
	switch p.cur().Kind {
	case token.Return:
		return p.parseReturnStmt()
	case token.If:
		return p.parseIfStmt()
	case token.While:
		return p.parseWhileStmt()
	case token.Loop:
		return p.parseLoopStmt()
	case token.LBrace:
		return p.parseBlockStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	start := p.cur().Span
	p.advance() // return

	var value ast.Expr
	if !p.check(token.Semicolon) && !p.check(token.RBrace) && !p.atEnd() {
		value = p.parseExpr()
	}

	p.match(token.Semicolon)

	stmt := &ast.ReturnStmt{Value: value}
	stmt.Span = source.NewSpan(start.Start, p.lastEnd())

	return stmt
}

func (p *Parser) parseIfExpr() *ast.If {
	start := p.cur().Span
	p.advance() // if

	cond := p.parseExpr()
	then := p.parseBlock()

	var elseBlock *ast.Block
	if p.match(token.Else) {
		if p.check(token.If) {
			// `else if ...` desugars to a single-statement block holding
			// the nested if, keeping the If node's Else field uniformly
			// a *Block.
			nestedStart := p.cur().Span
			nested := p.parseIfExpr()
			ifStmt := &ast.IfStmt{If: nested}
			ifStmt.Span = nested.Span
			elseBlock = &ast.Block{Stmts: []ast.Stmt{ifStmt}}
			elseBlock.Span = source.NewSpan(nestedStart.Start, p.lastEnd())
		} else {
			elseBlock = p.parseBlock()
		}
	}

	node := &ast.If{Cond: cond, Then: then, Else: elseBlock}
	node.Span = source.NewSpan(start.Start, p.lastEnd())

	return node
}

func (p *Parser) parseIfStmt() ast.Stmt {
	ifExpr := p.parseIfExpr()
	stmt := &ast.IfStmt{If: ifExpr}
	stmt.Span = ifExpr.Span

	return stmt
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	start := p.cur().Span
	p.advance() // while

	cond := p.parseExpr()
	body := p.parseBlock()

	stmt := &ast.WhileStmt{Cond: cond, Body: body}
	stmt.Span = source.NewSpan(start.Start, p.lastEnd())

	return stmt
}

func (p *Parser) parseLoopStmt() ast.Stmt {
	start := p.cur().Span
	p.advance() // loop

	body := p.parseBlock()

	stmt := &ast.LoopStmt{Body: body}
	stmt.Span = source.NewSpan(start.Start, p.lastEnd())

	return stmt
}

func (p *Parser) parseBlockStmt() ast.Stmt {
	block := p.parseBlock()
	stmt := &ast.BlockStmt{Block: block}
	stmt.Span = block.Span

	return stmt
}

// parseBlock parses `{ stmts... }`, synchronizing past any bad statement it
// encounters so the rest of the block is still recovered, per spec.md §4.2.
func (p *Parser) parseBlock() *ast.Block {
	start := p.cur().Span
	p.expect(token.LBrace, "to begin block")

	var stmts []ast.Stmt

	for !p.check(token.RBrace) && !p.atEnd() {
		before := p.pos
		errsBefore := len(p.Errors)

		stmt := p.parseDeclaration()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}

		if len(p.Errors) > errsBefore {
			p.synchronize()
		} else if p.pos == before {
			p.advance()
		}
	}

	p.expect(token.RBrace, "to close block")

	block := &ast.Block{Stmts: stmts}
	block.Span = source.NewSpan(start.Start, p.lastEnd())

	return block
}

func (p *Parser) parseExprStmt() ast.Stmt {
	start := p.cur().Span
	expr := p.parseExpr()
	p.match(token.Semicolon)

	stmt := &ast.ExprStmt{Expr: expr}
	stmt.Span = source.NewSpan(start.Start, p.lastEnd())

	return stmt
}
