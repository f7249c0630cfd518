package semantic

import (
	"fmt"

	"github.com/bminorlang/bminor/pkg/ast"
	"github.com/bminorlang/bminor/pkg/errors"
	"github.com/bminorlang/bminor/pkg/logging"
)

// Type names used by the checker. User-declared type names are opaque labels
// that must match exactly.
const (
	TypeInteger = "integer"
	TypeBool    = "bool"
	TypeString  = "string"
	TypeVoid    = "void"
)

// Analyzer type-checks an AST. Analysis aborts at the first violation; there
// is no error recovery.
type Analyzer struct {
	symbols *SymbolTable
	logger  *logging.Logger
}

// NewAnalyzer creates an analyzer with a fresh symbol table.
func NewAnalyzer(logger *logging.Logger) *Analyzer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Analyzer{
		symbols: NewSymbolTable(),
		logger:  logger,
	}
}

// Symbols exposes the symbol table populated during analysis.
func (a *Analyzer) Symbols() *SymbolTable {
	return a.symbols
}

// Analyze type-checks an expression tree and returns its type.
func (a *Analyzer) Analyze(expr ast.Expr) (string, error) {
	switch node := expr.(type) {
	case *ast.Program:
		a.logger.Info("analyzing program")
		return a.analyzeSequence(node.Statements)

	case *ast.Block:
		return a.analyzeSequence(node.Statements)

	case *ast.NumberLit:
		return TypeInteger, nil

	case *ast.BoolLit:
		return TypeBool, nil

	case *ast.StringLit:
		return TypeString, nil

	case *ast.VariableExpr:
		return a.analyzeVariable(node)

	case *ast.BinaryExpr:
		return a.analyzeBinary(node)

	case *ast.AssignExpr:
		return a.analyzeAssign(node)

	case *ast.VarDecl:
		return a.analyzeVarDecl(node)

	case *ast.VarDeclAssign:
		return a.analyzeVarDeclAssign(node)

	case *ast.FuncDef:
		return a.analyzeFuncDef(node)

	case *ast.MainFuncDef:
		return a.analyzeMainFuncDef(node)

	case *ast.FuncCall:
		return a.analyzeFuncCall(node)

	case *ast.ReturnStmt:
		return a.Analyze(node.Value)

	case *ast.IfStmt:
		return a.analyzeIf(node)

	case *ast.WhileStmt:
		return a.analyzeWhile(node)

	case *ast.PrintStmt:
		if _, err := a.Analyze(node.Value); err != nil {
			return "", err
		}
		return TypeVoid, nil

	case *ast.PrintStrStmt:
		return TypeVoid, nil

	default:
		return "", &errors.SemanticError{Message: fmt.Sprintf("unsupported expression type %T", expr)}
	}
}

func (a *Analyzer) analyzeSequence(statements []ast.Expr) (string, error) {
	lastType := ""
	for _, stmt := range statements {
		typ, err := a.Analyze(stmt)
		if err != nil {
			return "", err
		}
		lastType = typ
	}
	return lastType, nil
}

func (a *Analyzer) analyzeVariable(node *ast.VariableExpr) (string, error) {
	a.logger.Debugf("analyzing variable: %s", node.Name)

	if _, ok := a.symbols.Lookup(node.Name); !ok {
		message := fmt.Sprintf("undefined variable '%s'", node.Name)
		if hint := errors.SuggestName(node.Name, a.symbols.VisibleNames()); hint != "" {
			message += " (" + hint + ")"
		}
		return "", &errors.SemanticError{Message: message}
	}

	typ, err := a.symbols.GetType(node.Name)
	if err != nil {
		return "", &errors.SemanticError{Message: err.Error()}
	}
	return typ, nil
}

func (a *Analyzer) analyzeBinary(node *ast.BinaryExpr) (string, error) {
	leftType, err := a.Analyze(node.Left)
	if err != nil {
		return "", err
	}
	rightType, err := a.Analyze(node.Right)
	if err != nil {
		return "", err
	}

	if leftType != rightType {
		return "", &errors.SemanticError{
			Message: fmt.Sprintf("type mismatch in binary operation: %s %s %s", leftType, node.Op, rightType),
		}
	}

	switch {
	case node.Op.IsArithmetic():
		if leftType != TypeInteger {
			return "", &errors.SemanticError{
				Message: fmt.Sprintf("operator '%s' requires integer operands, found %s", node.Op, leftType),
			}
		}
		return TypeInteger, nil
	case node.Op.IsComparison():
		return TypeBool, nil
	default:
		return "", &errors.SemanticError{Message: fmt.Sprintf("unsupported operator '%s'", node.Op)}
	}
}

func (a *Analyzer) analyzeAssign(node *ast.AssignExpr) (string, error) {
	target, ok := node.Target.(*ast.VariableExpr)
	if !ok {
		return "", &errors.SemanticError{Message: "left-hand side of assignment must be a variable"}
	}

	varType, err := a.symbols.GetType(target.Name)
	if err != nil {
		return "", &errors.SemanticError{Message: err.Error()}
	}

	valueType, err := a.Analyze(node.Value)
	if err != nil {
		return "", err
	}

	if varType != valueType {
		return "", &errors.SemanticError{
			Message: fmt.Sprintf("type mismatch in assignment: %s to %s", valueType, varType),
		}
	}
	return varType, nil
}

func (a *Analyzer) analyzeVarDecl(node *ast.VarDecl) (string, error) {
	a.logger.Debugf("declaring variable: %s of type %s", node.Name, node.TypeName)

	if _, exists := a.symbols.LookupCurrentScope(node.Name); exists {
		return "", &errors.SemanticError{Message: fmt.Sprintf("variable '%s' already declared", node.Name)}
	}
	a.symbols.DeclareVariable(node.Name, node.TypeName)
	return node.TypeName, nil
}

func (a *Analyzer) analyzeVarDeclAssign(node *ast.VarDeclAssign) (string, error) {
	a.logger.Debugf("declaring variable with assignment: %s of type %s", node.Name, node.TypeName)

	if _, exists := a.symbols.LookupCurrentScope(node.Name); exists {
		return "", &errors.SemanticError{Message: fmt.Sprintf("variable '%s' already declared", node.Name)}
	}

	initType, err := a.Analyze(node.Init)
	if err != nil {
		return "", err
	}
	if initType != node.TypeName {
		return "", &errors.SemanticError{
			Message: fmt.Sprintf("type mismatch in declaration of '%s': expected '%s', found '%s'",
				node.Name, node.TypeName, initType),
		}
	}

	a.symbols.DeclareVariable(node.Name, node.TypeName)
	return node.TypeName, nil
}

func (a *Analyzer) analyzeFuncDef(node *ast.FuncDef) (string, error) {
	a.logger.Infof("analyzing function '%s'", node.Name)

	if _, exists := a.symbols.LookupCurrentScope(node.Name); exists {
		return "", &errors.SemanticError{Message: fmt.Sprintf("function '%s' already declared", node.Name)}
	}
	a.symbols.DeclareFunction(node.Name, node.ReturnType, node.Params)

	a.symbols.EnterScope()
	defer a.symbols.ExitScope()

	for _, param := range node.Params {
		a.symbols.DeclareVariable(param.Name, param.TypeName)
	}

	bodyType, err := a.Analyze(node.Body)
	if err != nil {
		return "", err
	}

	block, ok := node.Body.(*ast.Block)
	if !ok {
		return "", &errors.SemanticError{
			Message: fmt.Sprintf("function '%s' body must be a block of statements", node.Name),
		}
	}

	if endsWithReturn(block) {
		if bodyType != node.ReturnType {
			return "", &errors.SemanticError{
				Message: fmt.Sprintf("return type mismatch in function '%s': expected '%s', found '%s'",
					node.Name, node.ReturnType, bodyType),
			}
		}
	} else if node.ReturnType != TypeVoid {
		return "", &errors.SemanticError{
			Message: fmt.Sprintf("missing return in function '%s': expected '%s'", node.Name, node.ReturnType),
		}
	}

	return node.ReturnType, nil
}

func endsWithReturn(block *ast.Block) bool {
	if len(block.Statements) == 0 {
		return false
	}
	_, ok := block.Statements[len(block.Statements)-1].(*ast.ReturnStmt)
	return ok
}

func (a *Analyzer) analyzeMainFuncDef(node *ast.MainFuncDef) (string, error) {
	a.logger.Info("analyzing main function")

	if _, exists := a.symbols.LookupCurrentScope("main"); exists {
		return "", &errors.SemanticError{Message: "main function already declared"}
	}
	a.symbols.DeclareFunction("main", TypeVoid, nil)

	a.symbols.EnterScope()
	defer a.symbols.ExitScope()
	a.symbols.CopyGlobals()

	if _, err := a.Analyze(node.Body); err != nil {
		return "", err
	}
	return TypeVoid, nil
}

func (a *Analyzer) analyzeFuncCall(node *ast.FuncCall) (string, error) {
	info, ok := a.symbols.Lookup(node.Name)
	if !ok {
		message := fmt.Sprintf("function '%s' isn't declared", node.Name)
		if hint := errors.SuggestName(node.Name, a.symbols.VisibleNames()); hint != "" {
			message += " (" + hint + ")"
		}
		return "", &errors.SemanticError{Message: message}
	}

	for _, arg := range node.Args {
		if _, err := a.Analyze(arg); err != nil {
			return "", err
		}
	}

	// Calls are typed by the recorded signature rather than a blanket
	// "integer"; names bound to anything else fall back to integer.
	if fn, ok := info.(*FunctionSymbol); ok {
		return fn.ReturnType, nil
	}
	return TypeInteger, nil
}

func (a *Analyzer) analyzeIf(node *ast.IfStmt) (string, error) {
	condType, err := a.Analyze(node.Cond)
	if err != nil {
		return "", err
	}
	if condType != TypeBool {
		return "", &errors.SemanticError{
			Message: fmt.Sprintf("expected condition to be bool, found %s", condType),
		}
	}

	thenType, err := a.Analyze(node.Then)
	if err != nil {
		return "", err
	}

	// The arms need not agree on a type.
	if node.Else != nil {
		if _, err := a.Analyze(node.Else); err != nil {
			return "", err
		}
	}
	return thenType, nil
}

func (a *Analyzer) analyzeWhile(node *ast.WhileStmt) (string, error) {
	condType, err := a.Analyze(node.Cond)
	if err != nil {
		return "", err
	}
	if condType != TypeBool {
		return "", &errors.SemanticError{
			Message: fmt.Sprintf("expected condition to be bool, found %s", condType),
		}
	}

	if _, err := a.Analyze(node.Body); err != nil {
		return "", err
	}
	return TypeVoid, nil
}
