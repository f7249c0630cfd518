package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bminorlang/bminor/pkg/parser"
)

func TestFormat_Basics(t *testing.T) {
	instructions := []Instruction{
		Inst(FuncDef, FuncName("main")),
		Inst(DeclareVar, Variable("x"), Variable("integer")),
		Inst(LoadConst, Number(5), Temp(0)),
		Inst(StoreVar, Temp(0), Variable("x")),
		Inst(LoadVar, Variable("x"), Temp(1)),
		Inst(Add, Temp(1), Number(1), Temp(2)),
		Inst(PrintVar, Temp(2)),
		Inst(Return, Number(0)),
	}

	output := Format(instructions)
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	expected := []string{
		"main:",
		" DeclareVar x;",
		" _t0 = 5;",
		" x = _t0;",
		" _t1 = x;",
		" _t2 = _t1 + 1;",
		" PrintVar _t2;",
		" Return 0;",
	}
	assert.Equal(t, expected, lines)
}

func TestFormat_ControlFlow(t *testing.T) {
	instructions := []Instruction{
		Inst(Label, LabelRef(0)),
		Inst(LoadVar, Variable("x"), Temp(0)),
		Inst(GreaterThan, Temp(0), Number(0), Temp(1)),
		Inst(JumpGreaterThan, Temp(1), LabelRef(1)),
		Inst(Jump, LabelRef(0)),
		Inst(Label, LabelRef(1)),
	}

	output := Format(instructions)
	assert.Contains(t, output, "L0:")
	assert.Contains(t, output, " _t1 = _t0 > 0;")
	assert.Contains(t, output, " JumpGreaterThan _t1 L1;")
	assert.Contains(t, output, " Jump L0;")
	assert.Contains(t, output, "L1:")
}

func TestFormat_CallAndParams(t *testing.T) {
	instructions := []Instruction{
		Inst(Param, Number(0), Variable("a")),
		Inst(Param, Number(1), Temp(3)),
		Inst(FuncCall, FuncName("add"), Temp(4)),
	}

	output := Format(instructions)
	assert.Contains(t, output, " Param 0 = a;")
	assert.Contains(t, output, " Param 1 = _t3;")
	assert.Contains(t, output, " LCall add;\n _t4 = rax;")
}

func TestFormat_Strings(t *testing.T) {
	output := Format([]Instruction{
		Inst(PrintStr, Str("ok")),
		Inst(Bool, BoolVal("true"), Temp(0)),
		Inst(JumpBool, Temp(0), LabelRef(2)),
	})
	assert.Contains(t, output, ` PrintStr "ok";`)
	assert.Contains(t, output, " Bool true _t0;")
	assert.Contains(t, output, " JumpBool _t0 L2;")
}

func TestFormat_WholeProgramRoundTrip(t *testing.T) {
	program, err := parser.ParseSource("main { let x: integer = 2; print(x * 3); }")
	require.NoError(t, err)
	instructions, err := NewGenerator(nil).Generate(program)
	require.NoError(t, err)

	output := Format(instructions)
	assert.Contains(t, output, "main:")
	assert.Contains(t, output, " DeclareVar x;")
	// One line per instruction, plus the extra line LCall-free calls don't add.
	assert.Equal(t, len(instructions), strings.Count(output, "\n"))
}
