package ir

import (
	"fmt"

	"github.com/bminorlang/bminor/pkg/ast"
	"github.com/bminorlang/bminor/pkg/logging"
)

// maxParams is the number of integer argument registers in the System-V
// calling convention.
const maxParams = 6

// Generator lowers an AST to the flat instruction list. The two counters are
// monotonic allocators: regCounter hands out fresh temp ids, labelCounter
// fresh label ids. After a subtree is emitted, its result value (if any)
// lives in temp regCounter-1.
type Generator struct {
	instructions []Instruction
	regCounter   uint32
	labelCounter uint32
	logger       *logging.Logger
}

// NewGenerator creates an IR generator.
func NewGenerator(logger *logging.Logger) *Generator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Generator{logger: logger}
}

// Generate lowers a program to IR. The walk is deterministic: the same AST
// always yields the identical instruction sequence.
func (g *Generator) Generate(expr ast.Expr) ([]Instruction, error) {
	g.instructions = nil
	g.regCounter = 0
	g.labelCounter = 0

	if err := g.lower(expr); err != nil {
		return nil, err
	}
	return g.instructions, nil
}

func (g *Generator) emit(op Opcode, operands ...Value) {
	g.instructions = append(g.instructions, Inst(op, operands...))
}

// freshTemp allocates the next temp id.
func (g *Generator) freshTemp() Temp {
	t := Temp(g.regCounter)
	g.regCounter++
	return t
}

// lastTemp is the temp holding the most recently emitted subtree's result.
func (g *Generator) lastTemp() Temp {
	return Temp(g.regCounter - 1)
}

// freshLabel allocates the next label id.
func (g *Generator) freshLabel() LabelRef {
	l := LabelRef(g.labelCounter)
	g.labelCounter++
	return l
}

func (g *Generator) lower(expr ast.Expr) error {
	switch node := expr.(type) {
	case *ast.Program:
		g.logger.Info("generating IR for program")
		for _, stmt := range node.Statements {
			if err := g.lower(stmt); err != nil {
				return err
			}
		}
		return nil

	case *ast.Block:
		for _, stmt := range node.Statements {
			if err := g.lower(stmt); err != nil {
				return err
			}
		}
		return nil

	case *ast.NumberLit:
		g.emit(LoadConst, Number(node.Value), g.freshTemp())
		return nil

	case *ast.BoolLit:
		g.emit(LoadConst, boolVal(node.Value), g.freshTemp())
		return nil

	case *ast.VariableExpr:
		g.emit(LoadVar, Variable(node.Name), g.freshTemp())
		return nil

	case *ast.BinaryExpr:
		return g.lowerBinary(node)

	case *ast.AssignExpr:
		return g.lowerAssign(node)

	case *ast.VarDecl:
		g.emit(DeclareVar, Variable(node.Name), Variable(node.TypeName))
		return nil

	case *ast.VarDeclAssign:
		g.emit(DeclareVar, Variable(node.Name), Variable(node.TypeName))
		if err := g.lower(node.Init); err != nil {
			return err
		}
		g.emit(StoreVar, g.lastTemp(), Variable(node.Name))
		return nil

	case *ast.FuncDef:
		return g.lowerFuncDef(node)

	case *ast.MainFuncDef:
		g.logger.Info("generating IR for main function")
		g.emit(FuncDef, FuncName("main"))
		if err := g.lower(node.Body); err != nil {
			return err
		}
		g.emit(Return, Number(0))
		return nil

	case *ast.FuncCall:
		return g.lowerFuncCall(node)

	case *ast.ReturnStmt:
		if err := g.lower(node.Value); err != nil {
			return err
		}
		g.emit(Return, g.lastTemp())
		return nil

	case *ast.IfStmt:
		return g.lowerIf(node)

	case *ast.WhileStmt:
		return g.lowerWhile(node)

	case *ast.PrintStmt:
		if err := g.lower(node.Value); err != nil {
			return err
		}
		g.emit(PrintVar, g.lastTemp())
		return nil

	case *ast.PrintStrStmt:
		g.emit(PrintStr, Str(node.Value))
		return nil

	default:
		return fmt.Errorf("unsupported expression type for IR generation: %T", expr)
	}
}

func boolVal(b bool) BoolVal {
	if b {
		return BoolVal("true")
	}
	return BoolVal("false")
}

func (g *Generator) lowerBinary(node *ast.BinaryExpr) error {
	g.logger.Debugf("generating IR for binary operation %s", node.Op)

	if err := g.lower(node.Left); err != nil {
		return err
	}
	leftTemp := g.lastTemp()

	// A literal right-hand side is folded into the instruction as an
	// immediate rather than loaded into its own temp.
	var rhs Value
	if num, ok := node.Right.(*ast.NumberLit); ok {
		rhs = Number(num.Value)
	} else {
		if err := g.lower(node.Right); err != nil {
			return err
		}
		rhs = g.lastTemp()
	}

	op, err := binaryOpcode(node.Op)
	if err != nil {
		return err
	}
	g.emit(op, leftTemp, rhs, g.freshTemp())
	return nil
}

func binaryOpcode(op ast.BinOp) (Opcode, error) {
	switch op {
	case ast.Add:
		return Add, nil
	case ast.Sub:
		return Sub, nil
	case ast.Mul:
		return Mul, nil
	case ast.Div:
		return Div, nil
	case ast.Gt:
		return GreaterThan, nil
	case ast.Lt:
		return LessThan, nil
	case ast.Ge:
		return GreaterThanEqual, nil
	case ast.Le:
		return LessThanEqual, nil
	case ast.Eq:
		return Equal, nil
	case ast.Ne:
		return NotEqual, nil
	default:
		return 0, fmt.Errorf("unsupported binary operator %s", op)
	}
}

// jumpOpcode maps a comparison operator to the fused jump whose backend
// rendering branches on the inverse condition.
func jumpOpcode(op ast.BinOp) (Opcode, bool) {
	switch op {
	case ast.Gt:
		return JumpGreaterThan, true
	case ast.Ge:
		return JumpGreaterThanEqual, true
	case ast.Lt:
		return JumpLessThan, true
	case ast.Le:
		return JumpLessThanEqual, true
	case ast.Eq:
		return JumpEqual, true
	case ast.Ne:
		return JumpNotEqual, true
	default:
		return 0, false
	}
}

func (g *Generator) lowerAssign(node *ast.AssignExpr) error {
	if err := g.lower(node.Value); err != nil {
		return err
	}
	valueTemp := g.lastTemp()

	target, ok := node.Target.(*ast.VariableExpr)
	if !ok {
		return fmt.Errorf("left side of an assignment must be a variable")
	}
	g.emit(StoreVar, valueTemp, Variable(target.Name))
	return nil
}

func (g *Generator) lowerFuncDef(node *ast.FuncDef) error {
	g.logger.Infof("generating IR for function '%s'", node.Name)

	if len(node.Params) > maxParams {
		return fmt.Errorf("function '%s' has %d parameters, maximum is %d", node.Name, len(node.Params), maxParams)
	}

	g.emit(FuncDef, FuncName(node.Name))
	for i, param := range node.Params {
		g.emit(DeclareVar, Variable(param.Name), Variable(param.TypeName))
		g.emit(Param, Number(i), Variable(param.Name))
	}
	return g.lower(node.Body)
}

func (g *Generator) lowerFuncCall(node *ast.FuncCall) error {
	g.logger.Debugf("generating IR for call to '%s'", node.Name)

	if len(node.Args) > maxParams {
		return fmt.Errorf("call to '%s' passes %d arguments, maximum is %d", node.Name, len(node.Args), maxParams)
	}

	for i, arg := range node.Args {
		if err := g.lower(arg); err != nil {
			return err
		}
		g.emit(Param, Number(i), g.lastTemp())
	}

	g.emit(FuncCall, FuncName(node.Name), g.freshTemp())
	return nil
}

// lowerCondJump lowers a condition and emits the fused jump that branches to
// target when the condition is false. Comparisons fuse into their inverse
// jump; a bare variable materializes a Bool test for JumpBool.
func (g *Generator) lowerCondJump(cond ast.Expr, target LabelRef) error {
	if err := g.lower(cond); err != nil {
		return err
	}
	condTemp := g.lastTemp()

	switch c := cond.(type) {
	case *ast.BinaryExpr:
		op, ok := jumpOpcode(c.Op)
		if !ok {
			return fmt.Errorf("unsupported binary operator %s in condition", c.Op)
		}
		g.emit(op, condTemp, target)
		return nil

	case *ast.VariableExpr:
		g.emit(Bool, BoolVal("true"), g.freshTemp())
		g.emit(JumpBool, condTemp, target)
		return nil

	default:
		return fmt.Errorf("unsupported condition type %T", cond)
	}
}

func (g *Generator) lowerIf(node *ast.IfStmt) error {
	g.logger.Debug("generating IR for if statement")

	elseLabel := g.freshLabel()
	endLabel := g.freshLabel()

	if err := g.lowerCondJump(node.Cond, elseLabel); err != nil {
		return err
	}

	if err := g.lower(node.Then); err != nil {
		return err
	}
	g.emit(Jump, endLabel)

	g.emit(Label, elseLabel)
	if node.Else != nil {
		if err := g.lower(node.Else); err != nil {
			return err
		}
	}
	g.emit(Label, endLabel)
	return nil
}

func (g *Generator) lowerWhile(node *ast.WhileStmt) error {
	g.logger.Debug("generating IR for while loop")

	startLabel := g.freshLabel()
	endLabel := g.freshLabel()

	g.emit(Label, startLabel)

	if err := g.lowerCondJump(node.Cond, endLabel); err != nil {
		return err
	}

	if err := g.lower(node.Body); err != nil {
		return err
	}
	g.emit(Jump, startLabel)
	g.emit(Label, endLabel)
	return nil
}
