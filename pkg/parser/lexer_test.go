package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bminorlang/bminor/pkg/errors"
)

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Type == EOF {
			continue
		}
		types = append(types, tok.Type)
	}
	return types
}

func TestLexer_AllTokenTypes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []TokenType
	}{
		{
			name:     "operators",
			input:    "+ - * / < >",
			expected: []TokenType{PLUS, MINUS, STAR, SLASH, LESS, GREATER},
		},
		{
			name:     "comparison operators",
			input:    ">= <= == !=",
			expected: []TokenType{GREATER_EQ, LESS_EQ, EQ_EQ, NOT_EQ},
		},
		{
			name:     "delimiters",
			input:    "( ) { } , : ;",
			expected: []TokenType{LPAREN, RPAREN, LBRACE, RBRACE, COMMA, COLON, SEMICOLON},
		},
		{
			name:     "keywords",
			input:    "let func main if else while print printstr return true false",
			expected: []TokenType{LET, FUNC, MAIN, IF, ELSE, WHILE, PRINT, PRINTSTR, RETURN, TRUE, FALSE},
		},
		{
			name:     "identifiers and literals",
			input:    `counter 42 "hi"`,
			expected: []TokenType{IDENT, NUMBER, STRING},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := NewLexer(tt.input).Tokenize()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tokenTypes(tokens))
		})
	}
}

func TestLexer_Offsets(t *testing.T) {
	tokens, err := NewLexer("let x = 10;").Tokenize()
	require.NoError(t, err)

	require.Len(t, tokens, 6) // let x = 10 ; EOF
	assert.Equal(t, 0, tokens[0].Offset)
	assert.Equal(t, 4, tokens[1].Offset)
	assert.Equal(t, 6, tokens[2].Offset)
	assert.Equal(t, 8, tokens[3].Offset)
	assert.Equal(t, 10, tokens[4].Offset)
}

func TestLexer_Comments(t *testing.T) {
	input := "// leading comment\nlet x: integer; // trailing\n// tail"
	tokens, err := NewLexer(input).Tokenize()
	require.NoError(t, err)
	assert.Equal(t, []TokenType{LET, IDENT, COLON, IDENT, SEMICOLON}, tokenTypes(tokens))
}

func TestLexer_StringEscapes(t *testing.T) {
	tokens, err := NewLexer(`"a\nb\t\"c\""`).Tokenize()
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "a\nb\t\"c\"", tokens[0].Literal)
}

func TestLexer_UnterminatedString(t *testing.T) {
	_, err := NewLexer(`printstr("oops`).Tokenize()
	require.Error(t, err)

	ce, ok := err.(*errors.CompileError)
	require.True(t, ok)
	assert.Contains(t, ce.Message, "unterminated string")
	assert.Equal(t, 9, ce.Offset)
}

func TestLexer_UnrecognizedCharacter(t *testing.T) {
	_, err := NewLexer("let x = @;").Tokenize()
	require.Error(t, err)

	ce, ok := err.(*errors.CompileError)
	require.True(t, ok)
	assert.Contains(t, ce.Message, "@")
	assert.Equal(t, 8, ce.Offset)
	assert.NotEmpty(t, ce.SourceSnippet)
}

func TestLexer_KeywordPrefixIdentifiers(t *testing.T) {
	// Identifiers that merely start with a keyword must stay identifiers.
	tokens, err := NewLexer("lettuce maintain iffy printer").Tokenize()
	require.NoError(t, err)
	assert.Equal(t, []TokenType{IDENT, IDENT, IDENT, IDENT}, tokenTypes(tokens))
}

func TestLexer_EmptyInput(t *testing.T) {
	tokens, err := NewLexer("").Tokenize()
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, EOF, tokens[0].Type)
}
