// Package codegen emits NASM x86-64 assembly from the compiler's IR.
//
// Emission is two passes over the instruction list: the first lays out the
// data section (stack slots for variables, interned string literals, printf
// format strings), the second renders the text section. The output follows
// the System-V AMD64 convention for the printf calls it makes; beyond that it
// claims no ABI compliance.
package codegen

import (
	"fmt"
	"strings"

	"github.com/bminorlang/bminor/pkg/ir"
	"github.com/bminorlang/bminor/pkg/logging"
)

// registers is the pool temps are named from, in modulus order.
var registers = [...]string{
	"rax", "rbx", "rcx", "rdx", "rsi", "rdi",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
}

// argRegisters holds the System-V integer argument registers in order.
var argRegisters = [...]string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}

// Generator renders IR to NASM source text.
type Generator struct {
	logger *logging.Logger

	variableOffsets map[string]int
	frameSize       int
	stringLabels    map[string]string
	hasPrint        bool
	hasPrintStr     bool
}

// NewGenerator creates an assembly generator.
func NewGenerator(logger *logging.Logger) *Generator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Generator{logger: logger}
}

// register maps a temp id to a physical register name. The k mod 14 scheme is
// deliberately naive and collides at depth; it reproduces the compiler's
// established register naming.
func register(temp ir.Temp) string {
	return registers[uint32(temp)%uint32(len(registers))]
}

// Generate renders the instruction list as a complete NASM module.
func (g *Generator) Generate(instructions []ir.Instruction) (string, error) {
	g.variableOffsets = make(map[string]int)
	g.stringLabels = make(map[string]string)
	g.frameSize = 0
	g.hasPrint = false
	g.hasPrintStr = false

	var asm strings.Builder

	g.emitDataSection(&asm, instructions)

	asm.WriteString("\nsection .text\n")
	asm.WriteString("global _start\n")
	if g.hasPrint || g.hasPrintStr {
		asm.WriteString("extern printf\n")
	}

	for _, instr := range instructions {
		if err := g.emitInstruction(&asm, instr); err != nil {
			return "", err
		}
	}

	// Entry trampoline: call main and pass its result to the exit syscall.
	asm.WriteString("_start:\n")
	asm.WriteString("    call main\n")
	asm.WriteString("    mov rdi, rax\n")
	asm.WriteString("    mov rax, 60\n")
	asm.WriteString("    syscall\n")

	return asm.String(), nil
}

// emitDataSection scans the IR once, assigning stack offsets to variables and
// interning string literals, then writes the data section.
func (g *Generator) emitDataSection(asm *strings.Builder, instructions []ir.Instruction) {
	asm.WriteString("section .data\n")

	offset := 0
	stringCounter := 0

	for _, instr := range instructions {
		switch instr.Op {
		case ir.DeclareVar:
			name := string(instr.Operands[0].(ir.Variable))
			if _, seen := g.variableOffsets[name]; !seen {
				offset += 8
				g.variableOffsets[name] = offset
			}
			g.logger.Debugf("assigned stack slot [rbp-%d] to '%s'", g.variableOffsets[name], name)

		case ir.PrintVar:
			g.hasPrint = true

		case ir.PrintStr:
			g.hasPrintStr = true
			s := string(instr.Operands[0].(ir.Str))
			if _, interned := g.stringLabels[s]; !interned {
				label := fmt.Sprintf("str_%d", stringCounter)
				stringCounter++
				g.stringLabels[s] = label
				fmt.Fprintf(asm, "%s db %q, 0\n", label, s)
			}
		}
	}

	// Frames are 16-byte aligned.
	if offset%16 != 0 {
		offset = (offset + 15) / 16 * 16
	}
	g.frameSize = offset

	if g.hasPrint || g.hasPrintStr {
		asm.WriteString("format db \"%d\", 10, 0\n")
		asm.WriteString("str_format db \"%s\", 10, 0\n")
	}
}

func (g *Generator) offsetOf(v ir.Value) (int, error) {
	name := string(v.(ir.Variable))
	offset, ok := g.variableOffsets[name]
	if !ok {
		return 0, fmt.Errorf("no stack slot for variable '%s'", name)
	}
	return offset, nil
}

func (g *Generator) emitInstruction(asm *strings.Builder, instr ir.Instruction) error {
	ops := instr.Operands

	switch instr.Op {
	case ir.FuncDef:
		name := ops[0].(ir.FuncName)
		fmt.Fprintf(asm, "%s:\n", name)
		asm.WriteString("    push rbp\n")
		asm.WriteString("    mov rbp, rsp\n")
		fmt.Fprintf(asm, "    sub rsp, %d\n", g.frameSize)

	case ir.DeclareVar:
		// Slot assignment happened in the data pass.

	case ir.Param:
		index := int(ops[0].(ir.Number))
		if index < 0 || index >= len(argRegisters) {
			return fmt.Errorf("parameter index %d exceeds the six-register convention", index)
		}
		argReg := argRegisters[index]

		switch target := ops[1].(type) {
		case ir.Variable:
			// Callee side: spill the incoming argument to its slot.
			offset, err := g.offsetOf(target)
			if err != nil {
				return err
			}
			fmt.Fprintf(asm, "    mov [rbp-%d], %s\n", offset, argReg)
		case ir.Temp:
			// Call site: move the evaluated argument into place.
			fmt.Fprintf(asm, "    mov %s, %s\n", argReg, register(target))
		}

	case ir.LoadConst:
		// Boolean constants have no register materialization; conditions
		// on booleans go through the Bool/JumpBool pair instead.
		if num, ok := ops[0].(ir.Number); ok {
			fmt.Fprintf(asm, "    mov %s, %d\n", register(ops[1].(ir.Temp)), num)
		}

	case ir.LoadVar:
		offset, err := g.offsetOf(ops[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(asm, "    mov %s, [rbp-%d]\n", register(ops[1].(ir.Temp)), offset)

	case ir.StoreVar:
		offset, err := g.offsetOf(ops[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(asm, "    mov [rbp-%d], %s\n", offset, register(ops[0].(ir.Temp)))

	case ir.Add, ir.Sub, ir.Mul:
		mnemonic := map[ir.Opcode]string{ir.Add: "add", ir.Sub: "sub", ir.Mul: "imul"}[instr.Op]
		result := register(ops[2].(ir.Temp))
		fmt.Fprintf(asm, "    mov %s, %s\n", result, register(ops[0].(ir.Temp)))
		switch rhs := ops[1].(type) {
		case ir.Temp:
			fmt.Fprintf(asm, "    %s %s, %s\n", mnemonic, result, register(rhs))
		case ir.Number:
			fmt.Fprintf(asm, "    %s %s, %d\n", mnemonic, result, rhs)
		}

	case ir.Div:
		// Division codegen is deliberately absent; the opcode is accepted
		// and produces nothing.

	case ir.FuncCall:
		fmt.Fprintf(asm, "    call %s\n", ops[0].(ir.FuncName))
		fmt.Fprintf(asm, "    mov %s, rax\n", register(ops[1].(ir.Temp)))

	case ir.Return:
		switch value := ops[0].(type) {
		case ir.Temp:
			fmt.Fprintf(asm, "    mov rax, %s\n", register(value))
		case ir.Number:
			fmt.Fprintf(asm, "    mov rax, %d\n", value)
		}
		asm.WriteString("    leave\n")
		asm.WriteString("    ret\n")

	case ir.PrintVar:
		asm.WriteString("    mov rdi, format\n")
		fmt.Fprintf(asm, "    mov rsi, %s\n", register(ops[0].(ir.Temp)))
		asm.WriteString("    xor rax, rax\n")
		asm.WriteString("    call printf\n")

	case ir.PrintStr:
		label := g.stringLabels[string(ops[0].(ir.Str))]
		asm.WriteString("    mov rdi, str_format\n")
		fmt.Fprintf(asm, "    lea rsi, [%s]\n", label)
		asm.WriteString("    xor rax, rax\n")
		asm.WriteString("    call printf\n")

	case ir.Label:
		fmt.Fprintf(asm, "label_%d:\n", uint32(ops[0].(ir.LabelRef)))

	case ir.Jump:
		fmt.Fprintf(asm, "    jmp label_%d\n", uint32(ops[0].(ir.LabelRef)))

	case ir.Equal, ir.NotEqual, ir.LessThan, ir.LessThanEqual, ir.GreaterThan, ir.GreaterThanEqual:
		// Comparisons only set flags; the fused jump that follows reads them.
		switch rhs := ops[1].(type) {
		case ir.Temp:
			fmt.Fprintf(asm, "    cmp %s, %s\n", register(ops[0].(ir.Temp)), register(rhs))
		case ir.Number:
			fmt.Fprintf(asm, "    cmp %s, %d\n", register(ops[0].(ir.Temp)), rhs)
		}

	case ir.JumpGreaterThan:
		g.emitInverseJump(asm, "jle", ops[1])
	case ir.JumpGreaterThanEqual:
		g.emitInverseJump(asm, "jl", ops[1])
	case ir.JumpLessThan:
		g.emitInverseJump(asm, "jge", ops[1])
	case ir.JumpLessThanEqual:
		g.emitInverseJump(asm, "jg", ops[1])
	case ir.JumpEqual:
		g.emitInverseJump(asm, "jne", ops[1])
	case ir.JumpNotEqual:
		g.emitInverseJump(asm, "je", ops[1])
	case ir.JumpBool:
		// Branches to the false arm after the Bool test.
		g.emitInverseJump(asm, "je", ops[1])
	case ir.BranchIfTrue:
		// Historical opcode whose backend sense is jle; kept authoritative.
		g.emitInverseJump(asm, "jle", ops[1])
	case ir.BranchIfFalse:
		g.emitInverseJump(asm, "jns", ops[1])

	case ir.Bool:
		value := ops[0].(ir.BoolVal)
		bit := 0
		if value == "true" {
			bit = 1
		}
		// The condition's own temp precedes the materializer's.
		fmt.Fprintf(asm, "    cmp byte %s, %d\n", register(ops[1].(ir.Temp)-1), bit)

	default:
		return fmt.Errorf("opcode %s not supported by the assembly generator", instr.Op)
	}

	return nil
}

func (g *Generator) emitInverseJump(asm *strings.Builder, mnemonic string, target ir.Value) {
	fmt.Fprintf(asm, "    %s label_%d\n", mnemonic, uint32(target.(ir.LabelRef)))
}
