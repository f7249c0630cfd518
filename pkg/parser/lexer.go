// Package parser turns B-minor source text into the AST consumed by the
// compiler pipeline. The lexer and parser are hand-written; parse errors carry
// the byte offset of the offending token and a window of surrounding source.
package parser

import (
	"fmt"

	"github.com/bminorlang/bminor/pkg/errors"
)

// Lexer tokenizes B-minor source code.
type Lexer struct {
	source string
	pos    int
}

// NewLexer creates a lexer over the given source text.
func NewLexer(source string) *Lexer {
	return &Lexer{source: source}
}

// Tokenize scans the whole input and returns the token stream, terminated by
// an EOF token.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token

	for {
		l.skipWhitespaceAndComments()
		if l.pos >= len(l.source) {
			tokens = append(tokens, Token{Type: EOF, Offset: l.pos})
			return tokens, nil
		}

		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.pos++
		case ch == '/' && l.pos+1 < len(l.source) && l.source[l.pos+1] == '/':
			for l.pos < len(l.source) && l.source[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *Lexer) next() (Token, error) {
	start := l.pos
	ch := l.source[l.pos]

	switch {
	case isLetter(ch):
		return l.lexIdentifier(), nil
	case isDigit(ch):
		return l.lexNumber(), nil
	case ch == '"':
		return l.lexString()
	}

	// Two-character operators first.
	if l.pos+1 < len(l.source) {
		switch l.source[l.pos : l.pos+2] {
		case "==":
			l.pos += 2
			return Token{Type: EQ_EQ, Literal: "==", Offset: start}, nil
		case "!=":
			l.pos += 2
			return Token{Type: NOT_EQ, Literal: "!=", Offset: start}, nil
		case "<=":
			l.pos += 2
			return Token{Type: LESS_EQ, Literal: "<=", Offset: start}, nil
		case ">=":
			l.pos += 2
			return Token{Type: GREATER_EQ, Literal: ">=", Offset: start}, nil
		}
	}

	single := map[byte]TokenType{
		'=': ASSIGN,
		'+': PLUS,
		'-': MINUS,
		'*': STAR,
		'/': SLASH,
		'<': LESS,
		'>': GREATER,
		'(': LPAREN,
		')': RPAREN,
		'{': LBRACE,
		'}': RBRACE,
		',': COMMA,
		':': COLON,
		';': SEMICOLON,
	}

	if typ, ok := single[ch]; ok {
		l.pos++
		return Token{Type: typ, Literal: string(ch), Offset: start}, nil
	}

	return Token{}, errors.NewParseError(
		fmt.Sprintf("unrecognized character %q", string(ch)), l.source, start)
}

func (l *Lexer) lexIdentifier() Token {
	start := l.pos
	for l.pos < len(l.source) && isIdentChar(l.source[l.pos]) {
		l.pos++
	}
	literal := l.source[start:l.pos]

	if typ, ok := keywords[literal]; ok {
		return Token{Type: typ, Literal: literal, Offset: start}
	}
	return Token{Type: IDENT, Literal: literal, Offset: start}
}

func (l *Lexer) lexNumber() Token {
	start := l.pos
	for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
		l.pos++
	}
	return Token{Type: NUMBER, Literal: l.source[start:l.pos], Offset: start}
}

func (l *Lexer) lexString() (Token, error) {
	start := l.pos
	l.pos++ // opening quote

	var value []byte
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		switch ch {
		case '"':
			l.pos++
			return Token{Type: STRING, Literal: string(value), Offset: start}, nil
		case '\\':
			if l.pos+1 >= len(l.source) {
				return Token{}, errors.NewParseError("unterminated string literal", l.source, start)
			}
			l.pos++
			switch l.source[l.pos] {
			case 'n':
				value = append(value, '\n')
			case 't':
				value = append(value, '\t')
			case '"':
				value = append(value, '"')
			case '\\':
				value = append(value, '\\')
			default:
				value = append(value, '\\', l.source[l.pos])
			}
			l.pos++
		case '\n':
			return Token{}, errors.NewParseError("unterminated string literal", l.source, start)
		default:
			value = append(value, ch)
			l.pos++
		}
	}

	return Token{}, errors.NewParseError("unterminated string literal", l.source, start)
}

func isLetter(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentChar(ch byte) bool {
	return isLetter(ch) || isDigit(ch)
}
