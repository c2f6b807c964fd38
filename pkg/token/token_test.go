package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func scanAll(source string) []Token {
	s := NewScanner(source)
	var out []Token
	for {
		tok := s.ScanToken()
		out = append(out, tok)
		if tok.Type == EOF || tok.Type == Error {
			break
		}
	}
	return out
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks := scanAll("(){};,.-+*/! != = == < <= > >=")
	types := make([]Type, 0, len(toks))
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []Type{
		LeftParen, RightParen, LeftBrace, RightBrace, Semicolon, Comma, Dot,
		Minus, Plus, Star, Slash, Bang, BangEqual, Equal, EqualEqual,
		Less, LessEqual, Greater, GreaterEqual, EOF,
	}, types)
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	toks := scanAll("class orbit while")
	assert.Equal(t, Class, toks[0].Type)
	assert.Equal(t, Identifier, toks[1].Type)
	assert.Equal(t, While, toks[2].Type)
}

func TestScanNumber(t *testing.T) {
	toks := scanAll("123 45.67")
	assert.Equal(t, Number, toks[0].Type)
	assert.Equal(t, "123", toks[0].Lexeme)
	assert.Equal(t, Number, toks[1].Type)
	assert.Equal(t, "45.67", toks[1].Lexeme)
}

func TestScanString(t *testing.T) {
	toks := scanAll(`"hello world"`)
	assert.Equal(t, String, toks[0].Type)
	assert.Equal(t, `"hello world"`, toks[0].Lexeme)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(`"oops`)
	assert.Equal(t, Error, toks[0].Type)
	assert.Equal(t, "Unterminated string.", toks[0].Lexeme)
}

func TestScanSkipsLineComments(t *testing.T) {
	toks := scanAll("// a comment\n42")
	assert.Equal(t, Number, toks[0].Type)
	assert.Equal(t, "42", toks[0].Lexeme)
}

func TestScanTracksLineNumbers(t *testing.T) {
	toks := scanAll("1\n2\n\n3")
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 2, toks[1].Line)
	assert.Equal(t, 4, toks[2].Line)
}

func TestScanUnexpectedCharacter(t *testing.T) {
	toks := scanAll("@")
	assert.Equal(t, Error, toks[0].Type)
}
