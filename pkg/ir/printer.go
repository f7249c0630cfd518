package ir

import (
	"fmt"
	"strings"
)

// opSymbols maps value-producing opcodes to their TAC spelling.
var opSymbols = map[Opcode]string{
	Add:              "+",
	Sub:              "-",
	Mul:              "*",
	Div:              "/",
	Equal:            "==",
	NotEqual:         "!=",
	LessThan:         "<",
	LessThanEqual:    "<=",
	GreaterThan:      ">",
	GreaterThanEqual: ">=",
}

// Format renders the instruction list as a human-readable TAC dump. This is a
// diagnostic aid only; nothing downstream consumes the output.
func Format(instructions []Instruction) string {
	var builder strings.Builder

	for _, instr := range instructions {
		builder.WriteString(formatInstruction(instr))
		builder.WriteByte('\n')
	}

	return builder.String()
}

func formatInstruction(instr Instruction) string {
	ops := instr.Operands

	switch instr.Op {
	case FuncDef:
		return fmt.Sprintf("%s:", ops[0])

	case DeclareVar:
		return fmt.Sprintf(" DeclareVar %s;", ops[0])

	case LoadConst, LoadVar:
		return fmt.Sprintf(" %s = %s;", ops[1], ops[0])

	case StoreVar:
		return fmt.Sprintf(" %s = %s;", ops[1], ops[0])

	case Add, Sub, Mul, Div, Equal, NotEqual, LessThan, LessThanEqual, GreaterThan, GreaterThanEqual:
		return fmt.Sprintf(" %s = %s %s %s;", ops[2], ops[0], opSymbols[instr.Op], ops[1])

	case FuncCall:
		return fmt.Sprintf(" LCall %s;\n %s = rax;", ops[0], ops[1])

	case Param:
		return fmt.Sprintf(" Param %s = %s;", ops[0], ops[1])

	case Return:
		return fmt.Sprintf(" Return %s;", ops[0])

	case Label:
		return fmt.Sprintf("%s:", ops[0])

	case Jump:
		return fmt.Sprintf(" Jump %s;", ops[0])

	case JumpEqual, JumpNotEqual, JumpLessThan, JumpLessThanEqual,
		JumpGreaterThan, JumpGreaterThanEqual, JumpBool, BranchIfTrue, BranchIfFalse:
		return fmt.Sprintf(" %s %s %s;", instr.Op, ops[0], ops[1])

	case Bool:
		return fmt.Sprintf(" Bool %s %s;", ops[0], ops[1])

	case PrintVar:
		return fmt.Sprintf(" PrintVar %s;", ops[0])

	case PrintStr:
		return fmt.Sprintf(" PrintStr %s;", ops[0])

	default:
		return fmt.Sprintf(" Unsupported opcode: %s", instr.Op)
	}
}
