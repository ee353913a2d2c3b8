package lexer_test

import (
	"testing"

	"github.com/homelang/homec/pkg/lexer"
	"github.com/homelang/homec/pkg/source"
	"github.com/homelang/homec/pkg/token"
	"github.com/homelang/homec/pkg/util/assert"
)

func tokenize(t *testing.T, src string) []token.Token {
	t.Helper()

	file := source.New("<test>", []byte(src))
	toks, errs := lexer.Tokenize(file)
	assert.Equal(t, 0, len(errs), "unexpected lexer errors")

	return toks
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	toks := tokenize(t, "fn let mut foo123 and or")
	kinds := []token.Kind{token.Fn, token.Let, token.Mut, token.Identifier, token.AmpAmp, token.PipePipe, token.Eof}

	assert.Equal(t, len(kinds), len(toks))

	for i, k := range kinds {
		assert.Equal(t, k, toks[i].Kind)
	}
}

func TestMaximalMunch(t *testing.T) {
	toks := tokenize(t, "-> => == != <= >= && ||")
	kinds := []token.Kind{
		token.Arrow, token.FatArrow, token.Eq, token.Neq, token.Leq, token.Geq, token.AmpAmp, token.PipePipe, token.Eof,
	}

	assert.Equal(t, len(kinds), len(toks))

	for i, k := range kinds {
		assert.Equal(t, k, toks[i].Kind)
	}
}

// TestSourceLocationFaithful checks spec.md §8 property 1: for every token
// t produced from source S, S[offset_of(t)..offset_of(t)+len(t)] equals the
// token's lexeme.
func TestSourceLocationFaithful(t *testing.T) {
	src := "let mut x: int = 42 + foo(\"hi\")"
	file := source.New("<test>", []byte(src))
	toks, errs := lexer.Tokenize(file)

	assert.Equal(t, 0, len(errs))

	for _, tok := range toks {
		if tok.Kind == token.Eof {
			continue
		}

		slice := src[tok.Span.Start:tok.Span.End]
		assert.Equal(t, tok.Lexeme, slice)
	}
}

func TestInvalidCharacterRecovers(t *testing.T) {
	file := source.New("<test>", []byte("let x = 1 @ 2"))
	toks, errs := lexer.Tokenize(file)

	assert.Equal(t, 1, len(errs))
	assert.Equal(t, source.KindInvalidCharacter, errs[0].Kind)

	// Lexing continued past the bad byte.
	var sawInt2 bool

	for _, tok := range toks {
		if tok.Kind == token.IntLiteral && tok.Lexeme == "2" {
			sawInt2 = true
		}
	}

	assert.True(t, sawInt2, "lexer should recover and keep scanning")
}

func TestFloatVsIntLiteral(t *testing.T) {
	toks := tokenize(t, "1 1.5 1.")
	assert.Equal(t, token.IntLiteral, toks[0].Kind)
	assert.Equal(t, token.FloatLiteral, toks[1].Kind)
	// "1." with no trailing digit is not a float: the dot is punctuation.
	assert.Equal(t, token.IntLiteral, toks[2].Kind)
	assert.Equal(t, token.Dot, toks[3].Kind)
}

func TestLineCommentsSkipped(t *testing.T) {
	toks := tokenize(t, "let x = 1 // this is a comment\nlet y = 2")
	var kinds []token.Kind

	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}

	expect := []token.Kind{
		token.Let, token.Identifier, token.Assign, token.IntLiteral,
		token.Let, token.Identifier, token.Assign, token.IntLiteral, token.Eof,
	}
	assert.Equal(t, len(expect), len(kinds))
}
