package parser

import (
	"fmt"
	"strconv"

	"github.com/bminorlang/bminor/pkg/ast"
	"github.com/bminorlang/bminor/pkg/errors"
)

// Parser builds an AST from a token stream.
type Parser struct {
	tokens []Token
	source string
	pos    int
}

// NewParser creates a parser over a token stream. The original source is kept
// so parse errors can show surrounding context.
func NewParser(tokens []Token, source string) *Parser {
	return &Parser{tokens: tokens, source: source}
}

// ParseSource is a convenience that lexes and parses in one step.
func ParseSource(source string) (*ast.Program, error) {
	tokens, err := NewLexer(source).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens, source).Parse()
}

// Parse consumes the token stream and returns the program root.
func (p *Parser) Parse() (*ast.Program, error) {
	program := &ast.Program{}

	for p.current().Type != EOF {
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		program.Statements = append(program.Statements, item)
	}

	return program, nil
}

func (p *Parser) current() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return Token{Type: EOF, Offset: len(p.source)}
}

func (p *Parser) advance() Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(typ TokenType) (Token, error) {
	tok := p.current()
	if tok.Type != typ {
		return Token{}, p.errorf(tok, "unexpected token '%s', expected '%s'", tok.describe(), typ)
	}
	return p.advance(), nil
}

func (p *Parser) errorf(tok Token, format string, args ...interface{}) error {
	return errors.NewParseError(fmt.Sprintf(format, args...), p.source, tok.Offset)
}

func (tok Token) describe() string {
	if tok.Type == EOF {
		return "end of file"
	}
	if tok.Literal != "" {
		return tok.Literal
	}
	return tok.Type.String()
}

// parseItem parses a top-level item: main, a function definition, or a bare
// statement.
func (p *Parser) parseItem() (ast.Expr, error) {
	switch p.current().Type {
	case MAIN:
		return p.parseMain()
	case FUNC:
		return p.parseFuncDef()
	default:
		return p.parseStatement()
	}
}

func (p *Parser) parseMain() (ast.Expr, error) {
	p.advance() // main
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.MainFuncDef{Body: body}, nil
}

func (p *Parser) parseFuncDef() (ast.Expr, error) {
	p.advance() // func

	name, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}

	var params []ast.Param
	for p.current().Type != RPAREN {
		if len(params) > 0 {
			if _, err := p.expect(COMMA); err != nil {
				return nil, err
			}
		}
		paramName, err := p.expect(IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}
		paramType, err := p.expect(IDENT)
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Name: paramName.Literal, TypeName: paramType.Literal})
	}
	p.advance() // )

	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	returnType, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &ast.FuncDef{
		Name:       name.Literal,
		ReturnType: returnType.Literal,
		Params:     params,
		Body:       body,
	}, nil
}

func (p *Parser) parseBlock() (ast.Expr, error) {
	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}

	block := &ast.Block{}
	for p.current().Type != RBRACE {
		if p.current().Type == EOF {
			return nil, p.errorf(p.current(), "unexpected end of file, expected '}'")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stmt)
	}
	p.advance() // }

	return block, nil
}

func (p *Parser) parseStatement() (ast.Expr, error) {
	switch p.current().Type {
	case LET:
		return p.parseLet()
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case PRINT:
		return p.parsePrint()
	case PRINTSTR:
		return p.parsePrintStr()
	case RETURN:
		return p.parseReturn()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseLet() (ast.Expr, error) {
	p.advance() // let

	name, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	typeName, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}

	if p.current().Type == ASSIGN {
		p.advance()
		init, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.VarDeclAssign{Name: name.Literal, TypeName: typeName.Literal, Init: init}, nil
	}

	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.VarDecl{Name: name.Literal, TypeName: typeName.Literal}, nil
}

func (p *Parser) parseIf() (ast.Expr, error) {
	p.advance() // if

	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}

	then, err := p.parseStatementOrBlock()
	if err != nil {
		return nil, err
	}

	var elseArm ast.Expr
	if p.current().Type == ELSE {
		p.advance()
		elseArm, err = p.parseStatementOrBlock()
		if err != nil {
			return nil, err
		}
	}

	return &ast.IfStmt{Cond: cond, Then: then, Else: elseArm}, nil
}

func (p *Parser) parseWhile() (ast.Expr, error) {
	p.advance() // while

	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}

	body, err := p.parseStatementOrBlock()
	if err != nil {
		return nil, err
	}

	return &ast.WhileStmt{Cond: cond, Body: body}, nil
}

func (p *Parser) parseStatementOrBlock() (ast.Expr, error) {
	if p.current().Type == LBRACE {
		return p.parseBlock()
	}
	return p.parseStatement()
}

func (p *Parser) parsePrint() (ast.Expr, error) {
	p.advance() // print

	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}

	return &ast.PrintStmt{Value: value}, nil
}

func (p *Parser) parsePrintStr() (ast.Expr, error) {
	p.advance() // printstr

	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	str, err := p.expect(STRING)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}

	return &ast.PrintStrStmt{Value: str.Literal}, nil
}

func (p *Parser) parseReturn() (ast.Expr, error) {
	p.advance() // return

	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}

	return &ast.ReturnStmt{Value: value}, nil
}

// parseExpressionStatement parses an assignment or a bare expression followed
// by a semicolon.
func (p *Parser) parseExpressionStatement() (ast.Expr, error) {
	if p.current().Type == IDENT && p.peek().Type == ASSIGN {
		target := p.advance()
		p.advance() // =
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.AssignExpr{
			Target: &ast.VariableExpr{Name: target.Literal},
			Value:  value,
		}, nil
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) peek() Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return Token{Type: EOF, Offset: len(p.source)}
}

// parseExpression parses a comparison-level expression.
func (p *Parser) parseExpression() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	for {
		var op ast.BinOp
		switch p.current().Type {
		case LESS:
			op = ast.Lt
		case GREATER:
			op = ast.Gt
		case LESS_EQ:
			op = ast.Le
		case GREATER_EQ:
			op = ast.Ge
		case EQ_EQ:
			op = ast.Eq
		case NOT_EQ:
			op = ast.Ne
		default:
			return left, nil
		}
		p.advance()

		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Left: left, Op: op, Right: right}
	}
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for {
		var op ast.BinOp
		switch p.current().Type {
		case PLUS:
			op = ast.Add
		case MINUS:
			op = ast.Sub
		default:
			return left, nil
		}
		p.advance()

		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Left: left, Op: op, Right: right}
	}
}

func (p *Parser) parseTerm() (ast.Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		var op ast.BinOp
		switch p.current().Type {
		case STAR:
			op = ast.Mul
		case SLASH:
			op = ast.Div
		default:
			return left, nil
		}
		p.advance()

		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Left: left, Op: op, Right: right}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.current()

	switch tok.Type {
	case NUMBER:
		p.advance()
		return p.numberLit(tok, false)
	case MINUS:
		p.advance()
		num, err := p.expect(NUMBER)
		if err != nil {
			return nil, err
		}
		return p.numberLit(num, true)
	case TRUE:
		p.advance()
		return &ast.BoolLit{Value: true}, nil
	case FALSE:
		p.advance()
		return &ast.BoolLit{Value: false}, nil
	case STRING:
		p.advance()
		return &ast.StringLit{Value: tok.Literal}, nil
	case IDENT:
		p.advance()
		if p.current().Type == LPAREN {
			return p.parseCallArgs(tok)
		}
		return &ast.VariableExpr{Name: tok.Literal}, nil
	case LPAREN:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	default:
		return nil, p.errorf(tok, "unexpected token '%s', expected an expression", tok.describe())
	}
}

func (p *Parser) numberLit(tok Token, negate bool) (ast.Expr, error) {
	value, err := strconv.ParseInt(tok.Literal, 10, 32)
	if err != nil {
		return nil, p.errorf(tok, "integer literal '%s' out of range", tok.Literal)
	}
	if negate {
		value = -value
	}
	return &ast.NumberLit{Value: int32(value)}, nil
}

func (p *Parser) parseCallArgs(name Token) (ast.Expr, error) {
	p.advance() // (

	var args []ast.Expr
	for p.current().Type != RPAREN {
		if len(args) > 0 {
			if _, err := p.expect(COMMA); err != nil {
				return nil, err
			}
		}
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	p.advance() // )

	return &ast.FuncCall{Name: name.Literal, Args: args}, nil
}
