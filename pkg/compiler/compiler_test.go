package compiler

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bminorlang/bminor/pkg/buildcache"
	"github.com/bminorlang/bminor/pkg/errors"
	"github.com/bminorlang/bminor/pkg/logging"
)

func TestCompile_FullPipeline(t *testing.T) {
	tests := []struct {
		name   string
		source string
		expect []string
	}{
		{
			name:   "print expression",
			source: "main { print(1+2); }",
			expect: []string{"main:", "add rbx, 2", "call printf", "_start:"},
		},
		{
			name:   "countdown loop",
			source: "main { let x: integer = 5; while (x > 0) { print(x); x = x - 1; } }",
			expect: []string{"label_0:", "jle label_1", "jmp label_0"},
		},
		{
			name:   "function call",
			source: "func add(a:integer,b:integer):integer { return a+b; } main { print(add(7,8)); }",
			expect: []string{"add:", "call add", "mov [rbp-8], rdi"},
		},
		{
			name:   "if else strings",
			source: `main { if (2 == 2) printstr("ok"); else printstr("no"); }`,
			expect: []string{`str_0 db "ok", 0`, `str_1 db "no", 0`, "jne label_0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCompiler(nil, nil)
			result, err := c.Compile(context.Background(), tt.source, "test.bm")
			require.NoError(t, err)
			require.NoError(t, result.SemanticErr)
			require.NotEmpty(t, result.Instructions)

			for _, fragment := range tt.expect {
				assert.Contains(t, result.Assembly, fragment)
			}
		})
	}
}

func TestCompile_ParseErrorIsFatal(t *testing.T) {
	c := NewCompiler(nil, nil)
	_, err := c.Compile(context.Background(), "main { print(1) }", "broken.bm")
	require.Error(t, err)

	ce, ok := err.(*errors.CompileError)
	require.True(t, ok)
	assert.Equal(t, "broken.bm", ce.FileName)
	assert.Equal(t, "Parse Error", ce.ErrorType)
}

func TestCompile_SemanticErrorLoggedNotFatal(t *testing.T) {
	var logBuf bytes.Buffer
	logger := logging.NewLogger(logging.LoggerConfig{MinLevel: logging.ERROR, Output: &logBuf})

	c := NewCompiler(nil, logger)
	result, err := c.Compile(context.Background(), "main { let x: integer = true; }", "mismatch.bm")
	require.NoError(t, err)

	// The violation is recorded and logged, and lowering still produced
	// assembly for what parsed.
	require.Error(t, result.SemanticErr)
	assert.True(t, errors.IsSemanticError(result.SemanticErr))
	assert.Contains(t, logBuf.String(), "semantic error in mismatch.bm")
	assert.Contains(t, result.Assembly, "main:")
}

func TestCheck_SemanticErrorIsFatal(t *testing.T) {
	c := NewCompiler(nil, nil)

	err := c.Check("main { let x: integer = true; }", "mismatch.bm")
	require.Error(t, err)
	assert.True(t, errors.IsSemanticError(err))

	assert.NoError(t, c.Check("main { let x: integer = 1; print(x); }", "fine.bm"))
}

func TestGenerateIR(t *testing.T) {
	c := NewCompiler(nil, nil)
	instructions, err := c.GenerateIR("main { print(1+2); }", "test.bm")
	require.NoError(t, err)
	assert.NotEmpty(t, instructions)
}

func TestCompile_CacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, err := buildcache.Open(ctx, "")
	require.NoError(t, err)
	defer cache.Close()

	c := NewCompiler(nil, nil)
	c.SetCache(cache)

	source := "main { print(42); }"

	first, err := c.Compile(ctx, source, "cached.bm")
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	require.NotEmpty(t, first.Assembly)

	second, err := c.Compile(ctx, source, "cached.bm")
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Assembly, second.Assembly)
	// The middle end is skipped on a hit.
	assert.Empty(t, second.Instructions)

	// A different program misses.
	third, err := c.Compile(ctx, "main { print(43); }", "other.bm")
	require.NoError(t, err)
	assert.False(t, third.FromCache)
}

func TestCompile_IRInvariantViolationIsFatal(t *testing.T) {
	// Seven arguments exceed the six-register call convention.
	c := NewCompiler(nil, nil)
	_, err := c.Compile(context.Background(),
		"main { print(wide(1,2,3,4,5,6,7)); }", "wide.bm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum is 6")
}
