// Package compiler wires the compilation stages into one pipeline: parse,
// semantic analysis, IR lowering, and assembly generation. Control flow is
// strictly sequential; no stage feeds back into an earlier one.
package compiler

import (
	"context"

	"github.com/bminorlang/bminor/pkg/ast"
	"github.com/bminorlang/bminor/pkg/buildcache"
	"github.com/bminorlang/bminor/pkg/codegen"
	"github.com/bminorlang/bminor/pkg/config"
	"github.com/bminorlang/bminor/pkg/errors"
	"github.com/bminorlang/bminor/pkg/ir"
	"github.com/bminorlang/bminor/pkg/logging"
	"github.com/bminorlang/bminor/pkg/parser"
	"github.com/bminorlang/bminor/pkg/semantic"
)

// Result carries every artifact a compilation produces.
type Result struct {
	Program      *ast.Program
	Instructions []ir.Instruction
	Assembly     string

	// SemanticErr records a type-checking failure. Semantic violations are
	// logged rather than aborting the pipeline; callers that want them
	// fatal use Check.
	SemanticErr error

	// FromCache is set when the assembly came from the build cache and the
	// middle end was skipped.
	FromCache bool
}

// Compiler runs the pipeline.
type Compiler struct {
	cfg    *config.Config
	logger *logging.Logger
	cache  *buildcache.Cache
}

// NewCompiler creates a compiler with the given configuration.
func NewCompiler(cfg *config.Config, logger *logging.Logger) *Compiler {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Compiler{cfg: cfg, logger: logger}
}

// SetCache attaches a build cache. Without one every compilation runs the
// full pipeline.
func (c *Compiler) SetCache(cache *buildcache.Cache) {
	c.cache = cache
}

// Compile runs the full pipeline over a source text. fileName is attached to
// diagnostics only; the source is already in memory.
func (c *Compiler) Compile(ctx context.Context, source, fileName string) (*Result, error) {
	program, err := c.parse(source, fileName)
	if err != nil {
		return nil, err
	}

	result := &Result{Program: program}

	// Semantic failures are reported and recorded, not fatal: the pipeline
	// continues to lower whatever parsed.
	if _, err := semantic.NewAnalyzer(c.logger).Analyze(program); err != nil {
		c.logger.Errorf("semantic error in %s: %v", fileName, err)
		result.SemanticErr = err
	}

	if c.cache != nil {
		hash := buildcache.HashSource(source)
		assembly, found, err := c.cache.Get(ctx, hash)
		if err != nil {
			return nil, err
		}
		if found {
			c.logger.Infof("build cache hit for %s", fileName)
			result.Assembly = assembly
			result.FromCache = true
			return result, nil
		}
	}

	instructions, err := ir.NewGenerator(c.logger).Generate(program)
	if err != nil {
		return nil, err
	}
	result.Instructions = instructions

	assembly, err := codegen.NewGenerator(c.logger).Generate(instructions)
	if err != nil {
		return nil, err
	}
	result.Assembly = assembly

	if c.cache != nil {
		if err := c.cache.Put(ctx, buildcache.HashSource(source), assembly); err != nil {
			// A cache write failure does not invalidate the compilation.
			c.logger.Warnf("failed to store build cache entry: %v", err)
		}
	}

	return result, nil
}

// Check parses and type-checks without lowering. Unlike Compile, a semantic
// violation is returned as an error.
func (c *Compiler) Check(source, fileName string) error {
	program, err := c.parse(source, fileName)
	if err != nil {
		return err
	}
	if _, err := semantic.NewAnalyzer(c.logger).Analyze(program); err != nil {
		return err
	}
	return nil
}

// GenerateIR parses and lowers without emitting assembly.
func (c *Compiler) GenerateIR(source, fileName string) ([]ir.Instruction, error) {
	program, err := c.parse(source, fileName)
	if err != nil {
		return nil, err
	}
	if _, err := semantic.NewAnalyzer(c.logger).Analyze(program); err != nil {
		c.logger.Errorf("semantic error in %s: %v", fileName, err)
	}
	return ir.NewGenerator(c.logger).Generate(program)
}

func (c *Compiler) parse(source, fileName string) (*ast.Program, error) {
	program, err := parser.ParseSource(source)
	if err != nil {
		if ce, ok := err.(*errors.CompileError); ok {
			ce.FileName = fileName
		}
		return nil, err
	}
	return program, nil
}
