// Package ir defines the three-address intermediate representation for the
// B-minor compiler.
//
// The IR is a flat ordered sequence of instructions with explicit temporary
// registers and numeric labels. There is no basic-block grouping; jump targets
// are label ids, not instruction references.
package ir

import "fmt"

// Opcode identifies an IR instruction.
type Opcode int

const (
	// Arithmetic
	Add Opcode = iota
	Sub
	Mul
	Div

	// Memory
	LoadConst
	LoadVar
	StoreVar
	DeclareVar

	// Control
	Label
	Jump
	BranchIfTrue
	BranchIfFalse

	// Comparison-fused jumps. The backend emits the inverse condition: a
	// JumpGreaterThan branches when the comparison is NOT greater.
	JumpEqual
	JumpNotEqual
	JumpLessThan
	JumpLessThanEqual
	JumpGreaterThan
	JumpGreaterThanEqual
	JumpBool

	// Procedure
	FuncDef
	FuncCall
	Param
	Return

	// I/O
	PrintVar
	PrintStr

	// Raw comparisons; these only set flags, no register result.
	Equal
	NotEqual
	LessThan
	LessThanEqual
	GreaterThan
	GreaterThanEqual

	// Bool materializes a boolean condition for JumpBool.
	Bool
)

var opcodeNames = map[Opcode]string{
	Add:                  "Add",
	Sub:                  "Sub",
	Mul:                  "Mul",
	Div:                  "Div",
	LoadConst:            "LoadConst",
	LoadVar:              "LoadVar",
	StoreVar:             "StoreVar",
	DeclareVar:           "DeclareVar",
	Label:                "Label",
	Jump:                 "Jump",
	BranchIfTrue:         "BranchIfTrue",
	BranchIfFalse:        "BranchIfFalse",
	JumpEqual:            "JumpEqual",
	JumpNotEqual:         "JumpNotEqual",
	JumpLessThan:         "JumpLessThan",
	JumpLessThanEqual:    "JumpLessThanEqual",
	JumpGreaterThan:      "JumpGreaterThan",
	JumpGreaterThanEqual: "JumpGreaterThanEqual",
	JumpBool:             "JumpBool",
	FuncDef:              "FuncDef",
	FuncCall:             "FuncCall",
	Param:                "Param",
	Return:               "Return",
	PrintVar:             "PrintVar",
	PrintStr:             "PrintStr",
	Equal:                "Equal",
	NotEqual:             "NotEqual",
	LessThan:             "LessThan",
	LessThanEqual:        "LessThanEqual",
	GreaterThan:          "GreaterThan",
	GreaterThanEqual:     "GreaterThanEqual",
	Bool:                 "Bool",
}

// String returns the opcode's mnemonic.
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsComparison reports whether the opcode is a raw flag-setting comparison.
func (op Opcode) IsComparison() bool {
	switch op {
	case Equal, NotEqual, LessThan, LessThanEqual, GreaterThan, GreaterThanEqual:
		return true
	}
	return false
}

// Value is an IR operand.
type Value interface {
	irValue()
	String() string
}

// Number is an integer literal operand.
type Number int32

// Temp is a virtual register id. The backend maps it to a physical register.
type Temp uint32

// Variable names a stack-slot variable.
type Variable string

// FuncName names a function.
type FuncName string

// LabelRef is a numeric control-flow target.
type LabelRef uint32

// Str is a string literal operand.
type Str string

// BoolVal is a boolean literal operand, spelled "true" or "false".
type BoolVal string

func (Number) irValue()   {}
func (Temp) irValue()     {}
func (Variable) irValue() {}
func (FuncName) irValue() {}
func (LabelRef) irValue() {}
func (Str) irValue()      {}
func (BoolVal) irValue()  {}

func (v Number) String() string   { return fmt.Sprintf("%d", int32(v)) }
func (v Temp) String() string     { return fmt.Sprintf("_t%d", uint32(v)) }
func (v Variable) String() string { return string(v) }
func (v FuncName) String() string { return string(v) }
func (v LabelRef) String() string { return fmt.Sprintf("L%d", uint32(v)) }
func (v Str) String() string      { return fmt.Sprintf("%q", string(v)) }
func (v BoolVal) String() string  { return string(v) }

// Instruction is a single IR operation with its operands.
type Instruction struct {
	Op       Opcode
	Operands []Value
}

// Inst builds an instruction.
func Inst(op Opcode, operands ...Value) Instruction {
	return Instruction{Op: op, Operands: operands}
}
