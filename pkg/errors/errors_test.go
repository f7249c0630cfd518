package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileError_Format(t *testing.T) {
	err := &CompileError{
		Message:   "unexpected token '}'",
		FileName:  "prog.bm",
		Line:      3,
		Column:    7,
		Offset:    42,
		ErrorType: "Parse Error",
	}

	plain := err.FormatError(false)
	assert.Contains(t, plain, "Parse Error")
	assert.Contains(t, plain, "prog.bm")
	assert.Contains(t, plain, "line 3, column 7")
	assert.Contains(t, plain, "unexpected token '}'")
	assert.NotContains(t, plain, Reset)

	colored := err.FormatError(true)
	assert.Contains(t, colored, Red)
	assert.Contains(t, colored, Reset)
}

func TestCompileError_FormatWithSnippetAndSuggestion(t *testing.T) {
	err := &CompileError{
		Message:       "undefined variable 'conter'",
		Offset:        -1,
		SourceSnippet: "conter = conter + 1;",
		Suggestion:    "did you mean 'counter'?",
		ErrorType:     "Semantic Error",
	}

	plain := err.FormatError(false)
	assert.Contains(t, plain, "near: conter = conter + 1;")
	assert.Contains(t, plain, "hint: did you mean 'counter'?")
}

func TestNewParseError(t *testing.T) {
	source := "main {\n    let x: integer = @;\n}\n"
	offset := strings.IndexByte(source, '@')
	require.Positive(t, offset)

	err := NewParseError("unrecognized token '@'", source, offset)
	assert.Equal(t, 2, err.Line)
	assert.Equal(t, offset, err.Offset)
	assert.Contains(t, err.SourceSnippet, "@")
	assert.Equal(t, "Parse Error", err.ErrorType)
}

func TestExtractContext(t *testing.T) {
	tests := []struct {
		name   string
		source string
		offset int
		want   string
	}{
		{"middle", strings.Repeat("a", 30) + "X" + strings.Repeat("b", 30), 30, "aaaaaaaaaaaaaaaaaaaaXbbbbbbbbbbbbbbbbbbb"},
		{"start", "Xabc", 0, "Xabc"},
		{"end", "abcX", 3, "abcX"},
		{"out of range", "abc", 10, ""},
		{"negative", "abc", -1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractContext(tt.source, tt.offset))
		})
	}
}

func TestSemanticError(t *testing.T) {
	err := &SemanticError{Message: "Variable 'x' already declared"}
	assert.Equal(t, "Variable 'x' already declared", err.Error())
	assert.True(t, IsSemanticError(err))
	assert.False(t, IsSemanticError(fmt.Errorf("plain")))
}

func TestFormatError(t *testing.T) {
	assert.Empty(t, FormatError(nil))
	assert.Contains(t, FormatError(&SemanticError{Message: "boom"}), "Semantic Error")
	assert.Contains(t, FormatError(fmt.Errorf("plain failure")), "plain failure")
}

func TestSuggestName(t *testing.T) {
	tests := []struct {
		name       string
		unknown    string
		candidates []string
		want       string
	}{
		{"close match", "conter", []string{"counter", "main", "add"}, "did you mean 'counter'?"},
		{"case insensitive", "Counter", []string{"counter"}, "did you mean 'counter'?"},
		{"nothing close", "zzz", []string{"counter", "main"}, ""},
		{"no candidates", "x", nil, ""},
		{"exact match excluded", "x", []string{"x"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestName(tt.unknown, tt.candidates))
		})
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, levenshtein(tt.a, tt.b), "levenshtein(%q, %q)", tt.a, tt.b)
	}
}

func TestWithSuggestion(t *testing.T) {
	assert.Nil(t, WithSuggestion(nil, "hint"))

	ce := &CompileError{Message: "bad", Offset: -1}
	got := WithSuggestion(ce, "try harder")
	require.Same(t, ce, got)
	assert.Equal(t, "try harder", ce.Suggestion)

	wrapped := WithSuggestion(fmt.Errorf("plain"), "hint")
	wrappedCE, ok := wrapped.(*CompileError)
	require.True(t, ok)
	assert.Equal(t, "plain", wrappedCE.Message)
	assert.Equal(t, "hint", wrappedCE.Suggestion)
}
